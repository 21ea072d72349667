package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockBalance representa el saldo agregado de un ítem en una bodega.
// Se crea de forma perezosa con el primer movimiento y nunca se borra:
// las filas en cero se conservan por la historia.
// Invariantes: Quantity >= 0, ReservedQuantity >= 0, ReservedQuantity <= Quantity.
type StockBalance struct {
	WarehouseID      string
	ItemID           string
	Quantity         decimal.Decimal
	ReservedQuantity decimal.Decimal
	AverageUnitValue decimal.Decimal

	MinStock *decimal.Decimal // opcional; si ambos están definidos, MinStock <= MaxStock
	MaxStock *decimal.Decimal

	IsBlocked   bool
	BlockReason string // obligatorio cuando IsBlocked

	Location string

	LastEntryAt *time.Time
	LastExitAt  *time.Time
	UpdatedAt   time.Time
}

// Available devuelve la cantidad no reservada.
func (b *StockBalance) Available() decimal.Decimal {
	return b.Quantity.Sub(b.ReservedQuantity)
}

// BelowMin indica si el saldo quedó bajo el stock mínimo configurado.
func (b *StockBalance) BelowMin() bool {
	return b.MinStock != nil && b.Quantity.LessThan(*b.MinStock)
}

// AboveMax indica si el saldo quedó sobre el stock máximo configurado.
func (b *StockBalance) AboveMax() bool {
	return b.MaxStock != nil && b.Quantity.GreaterThan(*b.MaxStock)
}
