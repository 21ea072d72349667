package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/almacen-ledger/internal/domain"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
)

var _ repository.RequisitionRepository = (*RequisitionRepo)(nil)

// RequisitionRepo implementación de RequisitionRepository sobre PostgreSQL.
// Las cabeceras se cargan siempre con todas sus líneas, incluidas las
// soft-deleted (el dominio decide cuáles considerar activas).
type RequisitionRepo struct {
	q Querier
}

// NewRequisitionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRequisitionRepository(q Querier) *RequisitionRepo {
	return &RequisitionRepo{q: q}
}

const requisitionColumns = `id, warehouse_id, requester_id, status, status_reason, notes, created_at, updated_at`

const requisitionLineColumns = `id, requisition_id, item_id, requested_qty, approved_qty, fulfilled_qty,
		unit_value, total_value, deleted_at, deleted_by, delete_reason, created_at`

// Create persiste la cabecera y sus líneas.
func (r *RequisitionRepo) Create(req *entity.Requisition) error {
	query := `
		INSERT INTO requisitions (` + requisitionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(context.Background(), query,
		req.ID, req.WarehouseID, req.RequesterID, req.Status, req.StatusReason, req.Notes,
		req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create requisition: %w", err)
	}
	for _, l := range req.Lines {
		if err := r.createLine(l); err != nil {
			return err
		}
	}
	return nil
}

func (r *RequisitionRepo) createLine(l *entity.RequisitionLine) error {
	query := `
		INSERT INTO requisition_lines (` + requisitionLineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(context.Background(), query,
		l.ID, l.RequisitionID, l.ItemID, l.RequestedQty, l.ApprovedQty, l.FulfilledQty,
		l.UnitValue, l.TotalValue, l.DeletedAt, l.DeletedBy, l.DeleteReason, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create requisition line: %w", err)
	}
	return nil
}

// GetByID carga una requisición con todas sus líneas.
func (r *RequisitionRepo) GetByID(id string) (*entity.Requisition, error) {
	query := `SELECT ` + requisitionColumns + ` FROM requisitions WHERE id = $1`
	var req entity.Requisition
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&req.ID, &req.WarehouseID, &req.RequesterID, &req.Status, &req.StatusReason, &req.Notes,
		&req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get requisition: %w", err)
	}
	if req.Lines, err = r.loadLines(req.ID); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *RequisitionRepo) loadLines(requisitionID string) ([]*entity.RequisitionLine, error) {
	query := `
		SELECT ` + requisitionLineColumns + `
		FROM requisition_lines WHERE requisition_id = $1
		ORDER BY created_at, id`
	rows, err := r.q.Query(context.Background(), query, requisitionID)
	if err != nil {
		return nil, fmt.Errorf("load requisition lines: %w", err)
	}
	defer rows.Close()

	var out []*entity.RequisitionLine
	for rows.Next() {
		l, err := scanRequisitionLine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Update actualiza la cabecera (estado, motivo, notas). Las líneas se
// actualizan individualmente con UpdateLine.
func (r *RequisitionRepo) Update(req *entity.Requisition) error {
	query := `
		UPDATE requisitions
		SET status = $2, status_reason = $3, notes = $4, updated_at = $5
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query,
		req.ID, req.Status, req.StatusReason, req.Notes, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update requisition: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetLineByID obtiene una línea por su ID (incluye eliminadas).
func (r *RequisitionRepo) GetLineByID(lineID string) (*entity.RequisitionLine, error) {
	query := `SELECT ` + requisitionLineColumns + ` FROM requisition_lines WHERE id = $1`
	l, err := scanRequisitionLine(r.q.QueryRow(context.Background(), query, lineID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return l, nil
}

// UpdateLine actualiza una línea (aprobación, avance de entrega, soft-delete).
func (r *RequisitionRepo) UpdateLine(l *entity.RequisitionLine) error {
	query := `
		UPDATE requisition_lines
		SET approved_qty = $2, fulfilled_qty = $3, unit_value = $4, total_value = $5,
			deleted_at = $6, deleted_by = $7, delete_reason = $8
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query,
		l.ID, l.ApprovedQty, l.FulfilledQty, l.UnitValue, l.TotalValue,
		l.DeletedAt, l.DeletedBy, l.DeleteReason,
	)
	if err != nil {
		return fmt.Errorf("update requisition line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista requisiciones, opcionalmente filtradas por estado, con líneas.
func (r *RequisitionRepo) List(status string, limit, offset int) ([]*entity.Requisition, error) {
	query := `SELECT ` + requisitionColumns + ` FROM requisitions`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list requisitions: %w", err)
	}
	defer rows.Close()

	var out []*entity.Requisition
	for rows.Next() {
		var req entity.Requisition
		if err := rows.Scan(
			&req.ID, &req.WarehouseID, &req.RequesterID, &req.Status, &req.StatusReason, &req.Notes,
			&req.CreatedAt, &req.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan requisition: %w", err)
		}
		out = append(out, &req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, req := range out {
		if req.Lines, err = r.loadLines(req.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func scanRequisitionLine(row pgx.Row) (*entity.RequisitionLine, error) {
	var l entity.RequisitionLine
	err := row.Scan(
		&l.ID, &l.RequisitionID, &l.ItemID, &l.RequestedQty, &l.ApprovedQty, &l.FulfilledQty,
		&l.UnitValue, &l.TotalValue, &l.DeletedAt, &l.DeletedBy, &l.DeleteReason, &l.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan requisition line: %w", err)
	}
	return &l, nil
}
