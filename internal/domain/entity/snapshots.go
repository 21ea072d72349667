package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Los snapshots serializan decimales y fechas como string (RFC3339) para que el
// contenido sobreviva sin pérdida al viaje por JSONB y de vuelta. ApplySnapshot
// excluye siempre los campos de identidad (ID, CreatedAt).

// ToSnapshot captura el estado auditable de la requisición (sin líneas: cada
// línea lleva su propio historial).
func (r *Requisition) ToSnapshot() Snapshot {
	return Snapshot{
		"warehouse_id":  r.WarehouseID,
		"requester_id":  r.RequesterID,
		"status":        r.Status,
		"status_reason": r.StatusReason,
		"notes":         r.Notes,
	}
}

// ApplySnapshot restaura los campos de la requisición desde un snapshot.
func (r *Requisition) ApplySnapshot(s Snapshot) {
	r.WarehouseID = snapString(s, "warehouse_id", r.WarehouseID)
	r.RequesterID = snapString(s, "requester_id", r.RequesterID)
	r.Status = snapString(s, "status", r.Status)
	r.StatusReason = snapString(s, "status_reason", r.StatusReason)
	r.Notes = snapString(s, "notes", r.Notes)
}

// ToSnapshot captura el estado auditable de la línea.
func (l *RequisitionLine) ToSnapshot() Snapshot {
	return Snapshot{
		"item_id":       l.ItemID,
		"requested_qty": l.RequestedQty.String(),
		"approved_qty":  snapDecimalPtrOut(l.ApprovedQty),
		"fulfilled_qty": l.FulfilledQty.String(),
		"unit_value":    l.UnitValue.String(),
		"total_value":   l.TotalValue.String(),
		"deleted_at":    snapTimePtrOut(l.DeletedAt),
		"deleted_by":    l.DeletedBy,
		"delete_reason": l.DeleteReason,
	}
}

// ApplySnapshot restaura los campos de la línea desde un snapshot.
func (l *RequisitionLine) ApplySnapshot(s Snapshot) {
	l.ItemID = snapString(s, "item_id", l.ItemID)
	l.RequestedQty = snapDecimal(s, "requested_qty", l.RequestedQty)
	l.ApprovedQty = snapDecimalPtr(s, "approved_qty", l.ApprovedQty)
	l.FulfilledQty = snapDecimal(s, "fulfilled_qty", l.FulfilledQty)
	l.UnitValue = snapDecimal(s, "unit_value", l.UnitValue)
	l.TotalValue = snapDecimal(s, "total_value", l.TotalValue)
	l.DeletedAt = snapTimePtr(s, "deleted_at", l.DeletedAt)
	l.DeletedBy = snapString(s, "deleted_by", l.DeletedBy)
	l.DeleteReason = snapString(s, "delete_reason", l.DeleteReason)
}

// ToSnapshot captura el estado auditable de la factura (cabecera).
func (i *Invoice) ToSnapshot() Snapshot {
	return Snapshot{
		"number":       i.Number,
		"supplier_id":  i.SupplierID,
		"warehouse_id": i.WarehouseID,
		"status":       i.Status,
		"total":        i.Total.String(),
		"posted_at":    snapTimePtrOut(i.PostedAt),
		"posted_by":    i.PostedBy,
	}
}

// ApplySnapshot restaura los campos de la factura desde un snapshot.
func (i *Invoice) ApplySnapshot(s Snapshot) {
	i.Number = snapString(s, "number", i.Number)
	i.SupplierID = snapString(s, "supplier_id", i.SupplierID)
	i.WarehouseID = snapString(s, "warehouse_id", i.WarehouseID)
	i.Status = snapString(s, "status", i.Status)
	i.Total = snapDecimal(s, "total", i.Total)
	i.PostedAt = snapTimePtr(s, "posted_at", i.PostedAt)
	i.PostedBy = snapString(s, "posted_by", i.PostedBy)
}

func snapDecimalPtrOut(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func snapTimePtrOut(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func snapString(s Snapshot, key, fallback string) string {
	if v, ok := s[key].(string); ok {
		return v
	}
	return fallback
}

func snapDecimal(s Snapshot, key string, fallback decimal.Decimal) decimal.Decimal {
	v, ok := s[key]
	if !ok || v == nil {
		return fallback
	}
	switch t := v.(type) {
	case string:
		if d, err := decimal.NewFromString(t); err == nil {
			return d
		}
	case float64:
		return decimal.NewFromFloat(t)
	case decimal.Decimal:
		return t
	}
	return fallback
}

func snapDecimalPtr(s Snapshot, key string, fallback *decimal.Decimal) *decimal.Decimal {
	v, ok := s[key]
	if !ok {
		return fallback
	}
	if v == nil {
		return nil
	}
	d := snapDecimal(s, key, decimal.Zero)
	return &d
}

func snapTimePtr(s Snapshot, key string, fallback *time.Time) *time.Time {
	v, ok := s[key]
	if !ok {
		return fallback
	}
	if v == nil {
		return nil
	}
	if str, ok := v.(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, str); err == nil {
			return &t
		}
	}
	return fallback
}
