package memory

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
)

// Copias profundas de las entidades. Los structs son copiables por valor salvo
// los punteros y slices, que se duplican aquí.

func cloneTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneDecimalPtr(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

func cloneBalance(b *entity.StockBalance) *entity.StockBalance {
	c := *b
	c.MinStock = cloneDecimalPtr(b.MinStock)
	c.MaxStock = cloneDecimalPtr(b.MaxStock)
	c.LastEntryAt = cloneTimePtr(b.LastEntryAt)
	c.LastExitAt = cloneTimePtr(b.LastExitAt)
	return &c
}

func cloneMovement(m *entity.StockMovement) *entity.StockMovement {
	c := *m
	c.ReviewedAt = cloneTimePtr(m.ReviewedAt)
	c.ExpiresAt = cloneTimePtr(m.ExpiresAt)
	return &c
}

func cloneReservation(r *entity.StockReservation) *entity.StockReservation {
	c := *r
	c.ConsumedAt = cloneTimePtr(r.ConsumedAt)
	c.ReleasedAt = cloneTimePtr(r.ReleasedAt)
	return &c
}

func cloneRequisitionLine(l *entity.RequisitionLine) *entity.RequisitionLine {
	c := *l
	c.ApprovedQty = cloneDecimalPtr(l.ApprovedQty)
	c.DeletedAt = cloneTimePtr(l.DeletedAt)
	return &c
}

func cloneRequisition(r *entity.Requisition) *entity.Requisition {
	c := *r
	c.Lines = make([]*entity.RequisitionLine, len(r.Lines))
	for i, l := range r.Lines {
		c.Lines[i] = cloneRequisitionLine(l)
	}
	return &c
}

func cloneInvoice(i *entity.Invoice) *entity.Invoice {
	c := *i
	c.PostedAt = cloneTimePtr(i.PostedAt)
	c.Lines = make([]*entity.InvoiceLine, len(i.Lines))
	for j, l := range i.Lines {
		lc := *l
		c.Lines[j] = &lc
	}
	return &c
}

func cloneSnapshot(s entity.Snapshot) entity.Snapshot {
	if s == nil {
		return nil
	}
	c := make(entity.Snapshot, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}

func cloneHistoryEntry(e *entity.HistoryEntry) *entity.HistoryEntry {
	c := *e
	c.DataBefore = cloneSnapshot(e.DataBefore)
	c.DataAfter = cloneSnapshot(e.DataAfter)
	if e.ChangedFields != nil {
		c.ChangedFields = append([]string(nil), e.ChangedFields...)
	}
	if e.Diff != nil {
		c.Diff = make(map[string]entity.FieldChange, len(e.Diff))
		for k, v := range e.Diff {
			c.Diff[k] = v
		}
	}
	return &c
}

func cloneItem(i *entity.Item) *entity.Item {
	c := *i
	return &c
}

func cloneWarehouse(w *entity.Warehouse) *entity.Warehouse {
	c := *w
	return &c
}
