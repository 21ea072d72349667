package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/almacen-ledger/internal/domain"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo implementación del ledger de movimientos sobre PostgreSQL
// (usable con pool o tx). La tabla es append-only; la única actualización
// permitida es marcar la revisión de divergencia.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const movementColumns = `id, warehouse_id, item_id, type, raw_quantity, unit, conversion_factor,
		quantity, unit_price, total_value, balance_before, balance_after, average_before, average_after,
		invoice_id, invoice_line_id, requisition_id, requisition_line_id, related_warehouse_id,
		requires_review, justification, reviewed_at, reviewed_by, batch_number, expires_at,
		created_at, created_by`

// Create persiste un movimiento. Los snapshots before/after llegan ya
// capturados por el motor y nunca se recalculan.
func (r *StockMovementRepo) Create(m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)`
	_, err := r.q.Exec(context.Background(), query,
		m.ID, m.WarehouseID, m.ItemID, m.Type, m.RawQuantity, m.Unit, m.ConversionFactor,
		m.Quantity, m.UnitPrice, m.TotalValue, m.BalanceBefore, m.BalanceAfter, m.AverageBefore, m.AverageAfter,
		m.InvoiceID, m.InvoiceLineID, m.RequisitionID, m.RequisitionLineID, m.RelatedWarehouseID,
		m.RequiresReview, m.Justification, m.ReviewedAt, m.ReviewedBy, m.BatchNumber, m.ExpiresAt,
		m.CreatedAt, m.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *StockMovementRepo) GetByID(id string) (*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE id = $1`
	row := r.q.QueryRow(context.Background(), query, id)
	m, err := scanMovement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock movement: %w", err)
	}
	return m, nil
}

// List lista movimientos con filtros de bodega/ítem/rango de fechas.
func (r *StockMovementRepo) List(f repository.MovementFilter) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE 1=1`
	args := []any{}
	n := 0
	add := func(cond string, v any) {
		n++
		query += fmt.Sprintf(" AND %s $%d", cond, n)
		args = append(args, v)
	}
	if f.WarehouseID != "" {
		add("warehouse_id =", f.WarehouseID)
	}
	if f.ItemID != "" {
		add("item_id =", f.ItemID)
	}
	if f.From != nil {
		add("created_at >=", *f.From)
	}
	if f.To != nil {
		add("created_at <=", *f.To)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", n+1, n+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()

	var out []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ExistsForReference indica si hay movimientos que referencian la entidad; con
// after, solo los posteriores a ese instante.
func (r *StockMovementRepo) ExistsForReference(entityKind, entityID string, after *time.Time) (bool, error) {
	var column string
	switch entityKind {
	case entity.EntityKindRequisition:
		column = "requisition_id"
	case entity.EntityKindRequisitionLine:
		column = "requisition_line_id"
	case entity.EntityKindInvoice:
		column = "invoice_id"
	default:
		return false, fmt.Errorf("%w: tipo de entidad %q", domain.ErrInvalidInput, entityKind)
	}

	query := `SELECT EXISTS(SELECT 1 FROM stock_movements WHERE ` + column + ` = $1`
	args := []any{entityID}
	if after != nil {
		query += ` AND created_at > $2`
		args = append(args, *after)
	}
	query += `)`

	var exists bool
	if err := r.q.QueryRow(context.Background(), query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists for reference: %w", err)
	}
	return exists, nil
}

// MarkReviewed marca la revisión de divergencia como resuelta.
func (r *StockMovementRepo) MarkReviewed(id, reviewerID string, at time.Time) error {
	query := `
		UPDATE stock_movements SET reviewed_at = $2, reviewed_by = $3
		WHERE id = $1 AND requires_review AND reviewed_at IS NULL`
	tag, err := r.q.Exec(context.Background(), query, id, at, reviewerID)
	if err != nil {
		return fmt.Errorf("mark movement reviewed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var m entity.StockMovement
	err := row.Scan(
		&m.ID, &m.WarehouseID, &m.ItemID, &m.Type, &m.RawQuantity, &m.Unit, &m.ConversionFactor,
		&m.Quantity, &m.UnitPrice, &m.TotalValue, &m.BalanceBefore, &m.BalanceAfter, &m.AverageBefore, &m.AverageAfter,
		&m.InvoiceID, &m.InvoiceLineID, &m.RequisitionID, &m.RequisitionLineID, &m.RelatedWarehouseID,
		&m.RequiresReview, &m.Justification, &m.ReviewedAt, &m.ReviewedBy, &m.BatchNumber, &m.ExpiresAt,
		&m.CreatedAt, &m.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
