package repository

import "github.com/tu-usuario/almacen-ledger/internal/domain/entity"

// ItemRepository define el puerto de lectura del catálogo de ítems.
// El ledger lo consume, nunca lo muta.
type ItemRepository interface {
	GetByID(id string) (*entity.Item, error)
	List(limit, offset int) ([]*entity.Item, error)
}
