package repository

import (
	"time"

	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
)

// MovementFilter acota el listado de movimientos.
type MovementFilter struct {
	WarehouseID string
	ItemID      string
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

// StockMovementRepository define el puerto de persistencia del ledger de
// movimientos. Los movimientos son append-only: la única mutación permitida es
// marcar la revisión de divergencia como resuelta.
type StockMovementRepository interface {
	Create(movement *entity.StockMovement) error
	GetByID(id string) (*entity.StockMovement, error)
	List(filter MovementFilter) ([]*entity.StockMovement, error)
	// ExistsForReference indica si hay movimientos que referencian la entidad
	// (requisición, línea o factura); con after no-nil, solo los posteriores a
	// ese instante.
	ExistsForReference(entityKind, entityID string, after *time.Time) (bool, error)
	MarkReviewed(id, reviewerID string, at time.Time) error
}
