package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateRequisitionRequest body para crear una requisición.
type CreateRequisitionRequest struct {
	WarehouseID string                   `json:"warehouse_id"`
	RequesterID string                   `json:"requester_id,omitempty"` // vacío = actor autenticado
	Notes       string                   `json:"notes,omitempty"`
	Lines       []RequisitionLineRequest `json:"lines"`
}

// RequisitionLineRequest línea solicitada.
type RequisitionLineRequest struct {
	ItemID   string          `json:"item_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// ApproveRequisitionRequest body para aprobar; Approvals mapea línea ->
// cantidad aprobada (líneas ausentes se aprueban por lo solicitado).
type ApproveRequisitionRequest struct {
	Approvals map[string]decimal.Decimal `json:"approvals,omitempty"`
}

// ReasonRequest body genérico para rechazos, cancelaciones y borrados.
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// FulfillRequisitionRequest body para atender; Quantities mapea línea ->
// cantidad entregada (líneas ausentes se entregan completas).
type FulfillRequisitionRequest struct {
	Quantities map[string]decimal.Decimal `json:"quantities,omitempty"`
}

// RequisitionResponse requisición con sus líneas.
type RequisitionResponse struct {
	ID           string                    `json:"id"`
	WarehouseID  string                    `json:"warehouse_id"`
	RequesterID  string                    `json:"requester_id"`
	Status       string                    `json:"status"`
	StatusReason string                    `json:"status_reason,omitempty"`
	Notes        string                    `json:"notes,omitempty"`
	Lines        []RequisitionLineResponse `json:"lines"`
	CreatedAt    time.Time                 `json:"created_at"`
	UpdatedAt    time.Time                 `json:"updated_at"`
}

// RequisitionLineResponse línea de requisición.
type RequisitionLineResponse struct {
	ID           string           `json:"id"`
	ItemID       string           `json:"item_id"`
	RequestedQty decimal.Decimal  `json:"requested_qty"`
	ApprovedQty  *decimal.Decimal `json:"approved_qty,omitempty"`
	FulfilledQty decimal.Decimal  `json:"fulfilled_qty"`
	UnitValue    decimal.Decimal  `json:"unit_value"`
	TotalValue   decimal.Decimal  `json:"total_value"`
	DeletedAt    *time.Time       `json:"deleted_at,omitempty"`
	DeleteReason string           `json:"delete_reason,omitempty"`
}
