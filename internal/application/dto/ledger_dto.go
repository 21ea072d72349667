package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordMovementRequest body para POST /api/ledger/movements.
type RecordMovementRequest struct {
	WarehouseID      string          `json:"warehouse_id"`
	ItemID           string          `json:"item_id"`
	Type             string          `json:"type"`
	Quantity         decimal.Decimal `json:"quantity"`
	Unit             string          `json:"unit,omitempty"`
	ConversionFactor decimal.Decimal `json:"conversion_factor,omitempty"`
	UnitPrice        decimal.Decimal `json:"unit_price,omitempty"`
	Justification    string          `json:"justification,omitempty"`

	InvoiceID          string `json:"invoice_id,omitempty"`
	RequisitionID      string `json:"requisition_id,omitempty"`
	RelatedWarehouseID string `json:"related_warehouse_id,omitempty"`

	BatchNumber string     `json:"batch_number,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// MovementResponse movimiento registrado, con los snapshots capturados.
type MovementResponse struct {
	ID             string          `json:"id"`
	WarehouseID    string          `json:"warehouse_id"`
	ItemID         string          `json:"item_id"`
	Type           string          `json:"type"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	TotalValue     decimal.Decimal `json:"total_value"`
	BalanceBefore  decimal.Decimal `json:"balance_before"`
	BalanceAfter   decimal.Decimal `json:"balance_after"`
	AverageBefore  decimal.Decimal `json:"average_before"`
	AverageAfter   decimal.Decimal `json:"average_after"`
	RequiresReview bool            `json:"requires_review"`
	CreatedAt      time.Time       `json:"created_at"`
	CreatedBy      string          `json:"created_by"`
}

// BalanceResponse saldo agregado de un ítem en una bodega.
type BalanceResponse struct {
	WarehouseID      string           `json:"warehouse_id"`
	ItemID           string           `json:"item_id"`
	Quantity         decimal.Decimal  `json:"quantity"`
	ReservedQuantity decimal.Decimal  `json:"reserved_quantity"`
	Available        decimal.Decimal  `json:"available"`
	AverageUnitValue decimal.Decimal  `json:"average_unit_value"`
	MinStock         *decimal.Decimal `json:"min_stock,omitempty"`
	MaxStock         *decimal.Decimal `json:"max_stock,omitempty"`
	IsBlocked        bool             `json:"is_blocked"`
	BlockReason      string           `json:"block_reason,omitempty"`
	LastEntryAt      *time.Time       `json:"last_entry_at,omitempty"`
	LastExitAt       *time.Time       `json:"last_exit_at,omitempty"`
}

// BlockItemRequest body para bloquear un ítem en una bodega.
type BlockItemRequest struct {
	Reason string `json:"reason"`
}

// StockLimitsRequest body para configurar min/max y ubicación.
type StockLimitsRequest struct {
	MinStock *decimal.Decimal `json:"min_stock,omitempty"`
	MaxStock *decimal.Decimal `json:"max_stock,omitempty"`
	Location string           `json:"location,omitempty"`
}
