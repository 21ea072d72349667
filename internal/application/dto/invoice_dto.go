package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest body para crear una factura de entrada en borrador.
type CreateInvoiceRequest struct {
	Number      string               `json:"number"`
	SupplierID  string               `json:"supplier_id,omitempty"`
	WarehouseID string               `json:"warehouse_id"`
	Lines       []InvoiceLineRequest `json:"lines"`
}

// InvoiceLineRequest línea de factura.
type InvoiceLineRequest struct {
	ItemID    string          `json:"item_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// InvoiceResponse factura con sus líneas.
type InvoiceResponse struct {
	ID          string                `json:"id"`
	Number      string                `json:"number"`
	SupplierID  string                `json:"supplier_id,omitempty"`
	WarehouseID string                `json:"warehouse_id"`
	Status      string                `json:"status"`
	Total       decimal.Decimal       `json:"total"`
	Lines       []InvoiceLineResponse `json:"lines"`
	PostedAt    *time.Time            `json:"posted_at,omitempty"`
	PostedBy    string                `json:"posted_by,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

// InvoiceLineResponse línea de factura persistida.
type InvoiceLineResponse struct {
	ID        string          `json:"id"`
	ItemID    string          `json:"item_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}
