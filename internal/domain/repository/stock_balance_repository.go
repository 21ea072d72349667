package repository

import "github.com/tu-usuario/almacen-ledger/internal/domain/entity"

// StockBalanceRepository define el puerto de persistencia para saldos agregados.
// La ausencia de fila se trata como saldo cero (creación perezosa con el primer
// movimiento); los saldos nunca se borran.
type StockBalanceRepository interface {
	Get(warehouseID, itemID string) (*entity.StockBalance, error)
	// GetForUpdate obtiene el saldo bloqueando la fila (SELECT FOR UPDATE).
	// Debe llamarse dentro de una transacción antes de leer cantidad/promedio.
	GetForUpdate(warehouseID, itemID string) (*entity.StockBalance, error)
	Upsert(balance *entity.StockBalance) error
	ListByWarehouse(warehouseID string, limit, offset int) ([]*entity.StockBalance, error)
}
