package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item es el dato de referencia del catálogo (solo lectura para el ledger).
// Los ítems no almacenables (servicios) no afectan saldos: el movimiento se
// registra con efecto cero.
type Item struct {
	ID             string
	Code           string
	Name           string
	Unit           string // unidad base de medida
	IsStockable    bool
	EstimatedValue decimal.Decimal // valor de referencia cuando aún no hay promedio
	CreatedAt      time.Time
}
