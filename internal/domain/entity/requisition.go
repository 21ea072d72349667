package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una requisición.
const (
	RequisitionStatusPENDING            = "PENDING"
	RequisitionStatusAPPROVED           = "APPROVED"
	RequisitionStatusPROCESSING         = "PROCESSING"
	RequisitionStatusFULFILLED          = "FULFILLED"
	RequisitionStatusPartiallyFulfilled = "PARTIALLY_FULFILLED"
	RequisitionStatusREJECTED           = "REJECTED"
	RequisitionStatusCANCELLED          = "CANCELLED"
)

// requisitionTransitions define la máquina de estados.
var requisitionTransitions = map[string][]string{
	RequisitionStatusPENDING:    {RequisitionStatusAPPROVED, RequisitionStatusREJECTED, RequisitionStatusCANCELLED},
	RequisitionStatusAPPROVED:   {RequisitionStatusPROCESSING, RequisitionStatusFULFILLED, RequisitionStatusPartiallyFulfilled, RequisitionStatusREJECTED, RequisitionStatusCANCELLED},
	RequisitionStatusPROCESSING: {RequisitionStatusFULFILLED, RequisitionStatusPartiallyFulfilled, RequisitionStatusREJECTED, RequisitionStatusCANCELLED},
}

// CanTransitionRequisition valida un cambio de estado de la requisición.
func CanTransitionRequisition(from, to string) bool {
	for _, t := range requisitionTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// IsTerminalFulfillment indica los estados cuyos efectos de stock ya son
// irreversibles por la vía de rollback.
func IsTerminalFulfillment(status string) bool {
	return status == RequisitionStatusFULFILLED || status == RequisitionStatusPartiallyFulfilled
}

// Requisition es la solicitud de materiales que dirige reservas y salidas.
type Requisition struct {
	ID           string
	WarehouseID  string
	RequesterID  string
	Status       string
	StatusReason string // motivo del rechazo/cancelación
	Notes        string
	Lines        []*RequisitionLine
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ActiveLines devuelve las líneas no eliminadas (soft-delete).
func (r *Requisition) ActiveLines() []*RequisitionLine {
	out := make([]*RequisitionLine, 0, len(r.Lines))
	for _, l := range r.Lines {
		if l.DeletedAt == nil {
			out = append(out, l)
		}
	}
	return out
}

// Line busca una línea por ID (incluye eliminadas).
func (r *Requisition) Line(lineID string) *RequisitionLine {
	for _, l := range r.Lines {
		if l.ID == lineID {
			return l
		}
	}
	return nil
}

// RequisitionLine es una línea de requisición. El valor unitario se captura del
// saldo al crear la línea y no sigue al promedio posterior.
// Invariantes: ApprovedQty <= RequestedQty, FulfilledQty <= coalesce(ApprovedQty, RequestedQty).
type RequisitionLine struct {
	ID            string
	RequisitionID string
	ItemID        string

	RequestedQty decimal.Decimal
	ApprovedQty  *decimal.Decimal
	FulfilledQty decimal.Decimal

	UnitValue  decimal.Decimal
	TotalValue decimal.Decimal

	// Soft-delete, independiente del estado de la requisición.
	DeletedAt    *time.Time
	DeletedBy    string
	DeleteReason string

	CreatedAt time.Time
}

// GrantedQty devuelve la cantidad efectivamente concedida:
// la aprobada si existe, si no la solicitada.
func (l *RequisitionLine) GrantedQty() decimal.Decimal {
	if l.ApprovedQty != nil {
		return *l.ApprovedQty
	}
	return l.RequestedQty
}
