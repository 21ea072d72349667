package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
)

var _ repository.HistoryRepository = (*HistoryRepo)(nil)

// HistoryRepo implementación del log de auditoría sobre PostgreSQL. Los
// snapshots y el diff se guardan como JSONB; la tabla no tiene UPDATE ni
// DELETE en ningún camino de código.
type HistoryRepo struct {
	q Querier
}

// NewHistoryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewHistoryRepository(q Querier) *HistoryRepo {
	return &HistoryRepo{q: q}
}

const historyColumns = `id, entity_kind, entity_id, operation, data_before, data_after,
		changed_fields, diff, actor, reason, is_rollback_point, is_rollback, restored_from_id, created_at`

// Create persiste una entrada de historial.
func (r *HistoryRepo) Create(e *entity.HistoryEntry) error {
	before, err := marshalSnapshot(e.DataBefore)
	if err != nil {
		return fmt.Errorf("marshal data_before: %w", err)
	}
	after, err := marshalSnapshot(e.DataAfter)
	if err != nil {
		return fmt.Errorf("marshal data_after: %w", err)
	}
	var diff []byte
	if e.Diff != nil {
		if diff, err = json.Marshal(e.Diff); err != nil {
			return fmt.Errorf("marshal diff: %w", err)
		}
	}

	query := `
		INSERT INTO history_entries (` + historyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err = r.q.Exec(context.Background(), query,
		e.ID, e.EntityKind, e.EntityID, e.Operation, before, after,
		e.ChangedFields, diff, e.Actor, e.Reason, e.IsRollbackPoint, e.IsRollback, e.RestoredFromID, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create history entry: %w", err)
	}
	return nil
}

// GetByID obtiene una entrada por ID.
func (r *HistoryRepo) GetByID(id string) (*entity.HistoryEntry, error) {
	query := `SELECT ` + historyColumns + ` FROM history_entries WHERE id = $1`
	e, err := scanHistoryEntry(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get history entry: %w", err)
	}
	return e, nil
}

// ListByEntity lista las entradas de la entidad de la más reciente a la más
// antigua. limit <= 0 lista todas.
func (r *HistoryRepo) ListByEntity(entityKind, entityID string, limit int) ([]*entity.HistoryEntry, error) {
	query := `
		SELECT ` + historyColumns + `
		FROM history_entries WHERE entity_kind = $1 AND entity_id = $2
		ORDER BY created_at DESC, id DESC`
	args := []any{entityKind, entityID}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history entries: %w", err)
	}
	defer rows.Close()

	var out []*entity.HistoryEntry
	for rows.Next() {
		e, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanHistoryEntry(row pgx.Row) (*entity.HistoryEntry, error) {
	var (
		e             entity.HistoryEntry
		before, after []byte
		diff          []byte
	)
	err := row.Scan(
		&e.ID, &e.EntityKind, &e.EntityID, &e.Operation, &before, &after,
		&e.ChangedFields, &diff, &e.Actor, &e.Reason, &e.IsRollbackPoint, &e.IsRollback, &e.RestoredFromID, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(before) > 0 {
		if err := json.Unmarshal(before, &e.DataBefore); err != nil {
			return nil, fmt.Errorf("unmarshal data_before: %w", err)
		}
	}
	if len(after) > 0 {
		if err := json.Unmarshal(after, &e.DataAfter); err != nil {
			return nil, fmt.Errorf("unmarshal data_after: %w", err)
		}
	}
	if len(diff) > 0 {
		if err := json.Unmarshal(diff, &e.Diff); err != nil {
			return nil, fmt.Errorf("unmarshal diff: %w", err)
		}
	}
	return &e, nil
}

// marshalSnapshot serializa un snapshot; nil produce NULL en la columna.
func marshalSnapshot(s entity.Snapshot) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}
