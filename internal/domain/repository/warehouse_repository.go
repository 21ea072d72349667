package repository

import "github.com/tu-usuario/almacen-ledger/internal/domain/entity"

// WarehouseRepository define el puerto de lectura del catálogo de bodegas.
type WarehouseRepository interface {
	GetByID(id string) (*entity.Warehouse, error)
	List(limit, offset int) ([]*entity.Warehouse, error)
}
