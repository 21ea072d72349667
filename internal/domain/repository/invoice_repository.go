package repository

import "github.com/tu-usuario/almacen-ledger/internal/domain/entity"

// InvoiceRepository define el puerto de persistencia de facturas de entrada.
// GetByID carga la cabecera con sus líneas.
type InvoiceRepository interface {
	Create(invoice *entity.Invoice) error
	GetByID(id string) (*entity.Invoice, error)
	Update(invoice *entity.Invoice) error
	List(status string, limit, offset int) ([]*entity.Invoice, error)
}
