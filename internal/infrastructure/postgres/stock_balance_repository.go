package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
)

var _ repository.StockBalanceRepository = (*StockBalanceRepo)(nil)

// StockBalanceRepo implementación de StockBalanceRepository sobre PostgreSQL
// (usable con pool o tx).
type StockBalanceRepo struct {
	q Querier
}

// NewStockBalanceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockBalanceRepository(q Querier) *StockBalanceRepo {
	return &StockBalanceRepo{q: q}
}

const balanceColumns = `warehouse_id, item_id, quantity, reserved_quantity, average_unit_value,
		min_stock, max_stock, is_blocked, block_reason, location, last_entry_at, last_exit_at, updated_at`

// Get obtiene el saldo de un ítem en una bodega. La ausencia de fila se
// devuelve como saldo cero (creación perezosa).
func (r *StockBalanceRepo) Get(warehouseID, itemID string) (*entity.StockBalance, error) {
	query := `
		SELECT ` + balanceColumns + `
		FROM stock_balances WHERE warehouse_id = $1 AND item_id = $2`
	return r.scanOne(query, warehouseID, itemID)
}

// GetForUpdate obtiene el saldo bloqueando la fila (SELECT FOR UPDATE) para
// evitar lost updates bajo escritores concurrentes.
func (r *StockBalanceRepo) GetForUpdate(warehouseID, itemID string) (*entity.StockBalance, error) {
	query := `
		SELECT ` + balanceColumns + `
		FROM stock_balances WHERE warehouse_id = $1 AND item_id = $2
		FOR UPDATE`
	return r.scanOne(query, warehouseID, itemID)
}

func (r *StockBalanceRepo) scanOne(query, warehouseID, itemID string) (*entity.StockBalance, error) {
	var b entity.StockBalance
	err := r.q.QueryRow(context.Background(), query, warehouseID, itemID).Scan(
		&b.WarehouseID, &b.ItemID, &b.Quantity, &b.ReservedQuantity, &b.AverageUnitValue,
		&b.MinStock, &b.MaxStock, &b.IsBlocked, &b.BlockReason, &b.Location,
		&b.LastEntryAt, &b.LastExitAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockBalance{
				WarehouseID:      warehouseID,
				ItemID:           itemID,
				Quantity:         decimal.Zero,
				ReservedQuantity: decimal.Zero,
				AverageUnitValue: decimal.Zero,
			}, nil
		}
		return nil, fmt.Errorf("get stock balance: %w", err)
	}
	return &b, nil
}

// Upsert inserta o actualiza el saldo (por bodega e ítem). Las filas nunca se
// borran: los saldos en cero persisten por la historia.
func (r *StockBalanceRepo) Upsert(b *entity.StockBalance) error {
	query := `
		INSERT INTO stock_balances (` + balanceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())
		ON CONFLICT (warehouse_id, item_id)
		DO UPDATE SET
			quantity = EXCLUDED.quantity,
			reserved_quantity = EXCLUDED.reserved_quantity,
			average_unit_value = EXCLUDED.average_unit_value,
			min_stock = EXCLUDED.min_stock,
			max_stock = EXCLUDED.max_stock,
			is_blocked = EXCLUDED.is_blocked,
			block_reason = EXCLUDED.block_reason,
			location = EXCLUDED.location,
			last_entry_at = EXCLUDED.last_entry_at,
			last_exit_at = EXCLUDED.last_exit_at,
			updated_at = now()`
	_, err := r.q.Exec(context.Background(), query,
		b.WarehouseID, b.ItemID, b.Quantity, b.ReservedQuantity, b.AverageUnitValue,
		b.MinStock, b.MaxStock, b.IsBlocked, b.BlockReason, b.Location,
		b.LastEntryAt, b.LastExitAt,
	)
	if err != nil {
		return fmt.Errorf("upsert stock balance: %w", err)
	}
	return nil
}

// ListByWarehouse lista los saldos de una bodega.
func (r *StockBalanceRepo) ListByWarehouse(warehouseID string, limit, offset int) ([]*entity.StockBalance, error) {
	query := `
		SELECT ` + balanceColumns + `
		FROM stock_balances WHERE warehouse_id = $1
		ORDER BY item_id
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, warehouseID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list stock balances: %w", err)
	}
	defer rows.Close()

	var out []*entity.StockBalance
	for rows.Next() {
		var b entity.StockBalance
		if err := rows.Scan(
			&b.WarehouseID, &b.ItemID, &b.Quantity, &b.ReservedQuantity, &b.AverageUnitValue,
			&b.MinStock, &b.MaxStock, &b.IsBlocked, &b.BlockReason, &b.Location,
			&b.LastEntryAt, &b.LastExitAt, &b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan stock balance: %w", err)
		}
		out = append(out, &b)
	}
	return out, rows.Err()
}
