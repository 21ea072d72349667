package postgres

import (
	"context"
	"fmt"

	"github.com/tu-usuario/almacen-ledger/internal/domain"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
)

var _ repository.StockReservationRepository = (*ReservationRepo)(nil)

// ReservationRepo implementación de StockReservationRepository sobre PostgreSQL.
type ReservationRepo struct {
	q Querier
}

// NewReservationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReservationRepository(q Querier) *ReservationRepo {
	return &ReservationRepo{q: q}
}

const reservationColumns = `id, requisition_id, requisition_line_id, warehouse_id, item_id,
		quantity, is_active, consumed_at, released_at, release_reason, created_at`

// Create persiste una reserva.
func (r *ReservationRepo) Create(res *entity.StockReservation) error {
	query := `
		INSERT INTO stock_reservations (` + reservationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(context.Background(), query,
		res.ID, res.RequisitionID, res.RequisitionLineID, res.WarehouseID, res.ItemID,
		res.Quantity, res.IsActive, res.ConsumedAt, res.ReleasedAt, res.ReleaseReason, res.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

// Update actualiza el cierre de una reserva (consumida o liberada).
func (r *ReservationRepo) Update(res *entity.StockReservation) error {
	query := `
		UPDATE stock_reservations
		SET is_active = $2, consumed_at = $3, released_at = $4, release_reason = $5
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query,
		res.ID, res.IsActive, res.ConsumedAt, res.ReleasedAt, res.ReleaseReason,
	)
	if err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListActiveByRequisition lista las reservas activas de una requisición.
func (r *ReservationRepo) ListActiveByRequisition(requisitionID string) ([]*entity.StockReservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM stock_reservations WHERE requisition_id = $1 AND is_active
		ORDER BY item_id`
	return r.list(query, requisitionID)
}

// ListByRequisition lista todas las reservas de una requisición (activas y cerradas).
func (r *ReservationRepo) ListByRequisition(requisitionID string) ([]*entity.StockReservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM stock_reservations WHERE requisition_id = $1
		ORDER BY created_at`
	return r.list(query, requisitionID)
}

func (r *ReservationRepo) list(query string, args ...any) ([]*entity.StockReservation, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var out []*entity.StockReservation
	for rows.Next() {
		var res entity.StockReservation
		if err := rows.Scan(
			&res.ID, &res.RequisitionID, &res.RequisitionLineID, &res.WarehouseID, &res.ItemID,
			&res.Quantity, &res.IsActive, &res.ConsumedAt, &res.ReleasedAt, &res.ReleaseReason, &res.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, &res)
	}
	return out, rows.Err()
}
