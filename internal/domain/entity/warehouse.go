package entity

import "time"

// Warehouse representa una bodega de la organización (multi-bodega).
// Dato de catálogo, solo lectura para el ledger.
type Warehouse struct {
	ID        string
	Code      string
	Name      string
	Address   string
	IsActive  bool
	CreatedAt time.Time
}
