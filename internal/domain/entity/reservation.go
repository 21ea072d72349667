package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockReservation es una retención blanda de cantidad contra un saldo,
// creada al aprobar una requisición y cerrada en el desenlace terminal.
// Exactamente uno de ConsumedAt/ReleasedAt queda definido al cerrar.
type StockReservation struct {
	ID                string
	RequisitionID     string
	RequisitionLineID string
	WarehouseID       string
	ItemID            string
	Quantity          decimal.Decimal

	IsActive      bool
	ConsumedAt    *time.Time
	ReleasedAt    *time.Time
	ReleaseReason string

	CreatedAt time.Time
}
