package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una factura de entrada. Contabilizar (POSTED) es la única vía por
// la que cantidad externa entra al ledger como movimientos ENTRY; descontabilizar
// revierte esas entradas como ADJUSTMENT_SUB referenciando las mismas líneas.
const (
	InvoiceStatusDRAFT  = "DRAFT"
	InvoiceStatusPOSTED = "POSTED"
)

// Invoice representa la cabecera de una factura de entrada de materiales.
type Invoice struct {
	ID          string
	Number      string
	SupplierID  string
	WarehouseID string
	Status      string
	Total       decimal.Decimal
	Lines       []*InvoiceLine
	PostedAt    *time.Time
	PostedBy    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Line busca una línea por ID.
func (i *Invoice) Line(lineID string) *InvoiceLine {
	for _, l := range i.Lines {
		if l.ID == lineID {
			return l
		}
	}
	return nil
}

// InvoiceLine representa una línea de detalle de una factura.
type InvoiceLine struct {
	ID        string
	InvoiceID string
	ItemID    string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}
