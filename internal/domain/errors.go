package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrDuplicate           = errors.New("recurso duplicado")
	ErrUnauthorized        = errors.New("no autorizado")
	ErrForbidden           = errors.New("acceso denegado")
	ErrConflict            = errors.New("conflicto con el estado actual")
	ErrConcurrencyConflict = errors.New("conflicto de concurrencia, reintentar la operación")
)

// ItemBlockedError indica que el ítem está bloqueado en la bodega y el tipo
// de movimiento no es una corrección de entrada permitida.
type ItemBlockedError struct {
	WarehouseID string
	ItemID      string
	Reason      string
}

func (e *ItemBlockedError) Error() string {
	return fmt.Sprintf("ítem %s bloqueado en bodega %s: %s", e.ItemID, e.WarehouseID, e.Reason)
}

// InsufficientBalanceError indica que la salida excede el saldo disponible.
// Incluye las cantidades exactas para que el caller arme un mensaje accionable.
type InsufficientBalanceError struct {
	WarehouseID string
	ItemID      string
	Available   decimal.Decimal
	Requested   decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("saldo insuficiente para ítem %s en bodega %s: disponible %s, solicitado %s",
		e.ItemID, e.WarehouseID, e.Available.String(), e.Requested.String())
}

// MissingJustificationError indica que el precio del movimiento diverge del costo
// promedio más allá del umbral configurado y no se entregó justificación.
type MissingJustificationError struct {
	Divergence decimal.Decimal // |precio - promedio| / promedio
	Threshold  decimal.Decimal
}

func (e *MissingJustificationError) Error() string {
	return fmt.Sprintf("divergencia de precio %s supera el umbral %s: se requiere justificación",
		e.Divergence.StringFixed(4), e.Threshold.StringFixed(4))
}

// IrreversibleSideEffectsError indica que una reversión o cancelación está
// bloqueada por eventos posteriores (movimientos de stock u operaciones destructivas).
type IrreversibleSideEffectsError struct {
	EntityID string
	Detail   string
}

func (e *IrreversibleSideEffectsError) Error() string {
	return fmt.Sprintf("reversión bloqueada para %s: %s", e.EntityID, e.Detail)
}
