package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de stock. El ledger es append-only: cada tipo queda
// registrado tal cual ocurrió y nunca se edita ni se borra.
const (
	MovementTypeENTRY       = "ENTRY"          // entrada por factura
	MovementTypeEXIT        = "EXIT"           // salida por requisición
	MovementTypeLOSS        = "LOSS"           // pérdida / merma
	MovementTypeRETURN      = "RETURN"         // devolución al almacén
	MovementTypeTransferIn  = "TRANSFER_IN"    // traslado entrante
	MovementTypeTransferOut = "TRANSFER_OUT"   // traslado saliente
	MovementTypeAdjustAdd   = "ADJUSTMENT_ADD" // ajuste positivo
	MovementTypeAdjustSub   = "ADJUSTMENT_SUB" // ajuste negativo
	MovementTypeDonationIn  = "DONATION_IN"    // donación recibida
	MovementTypeDonationOut = "DONATION_OUT"   // donación entregada
)

// inboundTypes agrupa los tipos que suman stock; todo lo demás resta.
var inboundTypes = map[string]bool{
	MovementTypeENTRY:      true,
	MovementTypeRETURN:     true,
	MovementTypeTransferIn: true,
	MovementTypeAdjustAdd:  true,
	MovementTypeDonationIn: true,
}

var outboundTypes = map[string]bool{
	MovementTypeEXIT:        true,
	MovementTypeLOSS:        true,
	MovementTypeTransferOut: true,
	MovementTypeAdjustSub:   true,
	MovementTypeDonationOut: true,
}

// IsInboundMovement indica si el tipo suma cantidad al saldo.
func IsInboundMovement(movementType string) bool { return inboundTypes[movementType] }

// IsOutboundMovement indica si el tipo resta cantidad del saldo.
func IsOutboundMovement(movementType string) bool { return outboundTypes[movementType] }

// IsValidMovementType valida que el tipo pertenezca al catálogo de movimientos.
func IsValidMovementType(movementType string) bool {
	return inboundTypes[movementType] || outboundTypes[movementType]
}

// MovementAllowedWhenBlocked indica si el tipo puede registrarse sobre un ítem
// bloqueado. Solo las correcciones entrantes pasan el bloqueo.
func MovementAllowedWhenBlocked(movementType string) bool {
	return inboundTypes[movementType]
}

// RequiresDivergenceCheck indica si el tipo está sujeto a la verificación de
// divergencia de precio contra el costo promedio.
func RequiresDivergenceCheck(movementType string) bool {
	return movementType == MovementTypeAdjustAdd || movementType == MovementTypeDonationIn
}

// StockMovement representa un movimiento del ledger de stock. Inmutable una vez
// escrito: los pares BalanceBefore/After y AverageBefore/After se capturan al
// momento del registro y nunca se recalculan.
type StockMovement struct {
	ID          string
	WarehouseID string
	ItemID      string
	Type        string

	RawQuantity      decimal.Decimal // cantidad en la unidad informada
	Unit             string          // unidad informada por el caller
	ConversionFactor decimal.Decimal // factor a unidad base, capturado en el movimiento
	Quantity         decimal.Decimal // cantidad en unidad base (RawQuantity * ConversionFactor)
	UnitPrice        decimal.Decimal // en salidas se fuerza al promedio vigente
	TotalValue       decimal.Decimal

	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	AverageBefore decimal.Decimal
	AverageAfter  decimal.Decimal

	// Referencias opcionales (vacío = sin referencia).
	InvoiceID          string
	InvoiceLineID      string
	RequisitionID      string
	RequisitionLineID  string
	RelatedWarehouseID string

	// Revisión por divergencia de precio.
	RequiresReview bool
	Justification  string
	ReviewedAt     *time.Time
	ReviewedBy     string

	BatchNumber string
	ExpiresAt   *time.Time

	CreatedAt time.Time
	CreatedBy string // UserID del actor
}
