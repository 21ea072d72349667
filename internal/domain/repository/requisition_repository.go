package repository

import "github.com/tu-usuario/almacen-ledger/internal/domain/entity"

// RequisitionRepository define el puerto de persistencia de requisiciones.
// GetByID carga la cabecera con todas sus líneas (incluidas las soft-deleted).
type RequisitionRepository interface {
	Create(requisition *entity.Requisition) error
	GetByID(id string) (*entity.Requisition, error)
	Update(requisition *entity.Requisition) error
	GetLineByID(lineID string) (*entity.RequisitionLine, error)
	UpdateLine(line *entity.RequisitionLine) error
	List(status string, limit, offset int) ([]*entity.Requisition, error)
}
