package repository

import "github.com/tu-usuario/almacen-ledger/internal/domain/entity"

// HistoryRepository define el puerto de persistencia del log de auditoría.
// Las entradas son inmutables y forman un log lineal por entidad.
type HistoryRepository interface {
	Create(entry *entity.HistoryEntry) error
	GetByID(id string) (*entity.HistoryEntry, error)
	// ListByEntity devuelve las entradas de la entidad de la más reciente a la
	// más antigua. limit <= 0 lista todas.
	ListByEntity(entityKind, entityID string, limit int) ([]*entity.HistoryEntry, error)
}
