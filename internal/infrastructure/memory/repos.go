package memory

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/almacen-ledger/internal/domain"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
)

var (
	_ repository.StockBalanceRepository     = (*balanceRepo)(nil)
	_ repository.StockMovementRepository    = (*movementRepo)(nil)
	_ repository.StockReservationRepository = (*reservationRepo)(nil)
	_ repository.RequisitionRepository      = (*requisitionRepo)(nil)
	_ repository.InvoiceRepository          = (*invoiceRepo)(nil)
	_ repository.HistoryRepository          = (*historyRepo)(nil)
	_ repository.ItemRepository             = (*ItemRepo)(nil)
	_ repository.WarehouseRepository        = (*WarehouseRepo)(nil)
)

// --------------------------------------------------------------------------
// Saldos

type balanceRepo struct{ s *Store }

func (r *balanceRepo) Get(warehouseID, itemID string) (*entity.StockBalance, error) {
	if b, ok := r.s.balances[balanceKey(warehouseID, itemID)]; ok {
		return cloneBalance(b), nil
	}
	return &entity.StockBalance{
		WarehouseID:      warehouseID,
		ItemID:           itemID,
		Quantity:         decimal.Zero,
		ReservedQuantity: decimal.Zero,
		AverageUnitValue: decimal.Zero,
	}, nil
}

func (r *balanceRepo) GetForUpdate(warehouseID, itemID string) (*entity.StockBalance, error) {
	// Las transacciones en memoria ya están serializadas; el lock de fila es un no-op.
	return r.Get(warehouseID, itemID)
}

func (r *balanceRepo) Upsert(b *entity.StockBalance) error {
	r.s.balances[balanceKey(b.WarehouseID, b.ItemID)] = cloneBalance(b)
	return nil
}

func (r *balanceRepo) ListByWarehouse(warehouseID string, limit, offset int) ([]*entity.StockBalance, error) {
	var out []*entity.StockBalance
	for _, k := range sortedBalanceKeys(r.s.balances) {
		if strings.HasPrefix(k, warehouseID+"|") {
			out = append(out, cloneBalance(r.s.balances[k]))
		}
	}
	return page(out, limit, offset), nil
}

// --------------------------------------------------------------------------
// Movimientos

type movementRepo struct{ s *Store }

func (r *movementRepo) Create(m *entity.StockMovement) error {
	r.s.movements = append(r.s.movements, cloneMovement(m))
	return nil
}

func (r *movementRepo) GetByID(id string) (*entity.StockMovement, error) {
	for _, m := range r.s.movements {
		if m.ID == id {
			return cloneMovement(m), nil
		}
	}
	return nil, nil
}

func (r *movementRepo) List(f repository.MovementFilter) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		m := r.s.movements[i]
		if f.WarehouseID != "" && m.WarehouseID != f.WarehouseID {
			continue
		}
		if f.ItemID != "" && m.ItemID != f.ItemID {
			continue
		}
		if f.From != nil && m.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && m.CreatedAt.After(*f.To) {
			continue
		}
		out = append(out, cloneMovement(m))
	}
	return page(out, f.Limit, f.Offset), nil
}

func (r *movementRepo) ExistsForReference(entityKind, entityID string, after *time.Time) (bool, error) {
	for _, m := range r.s.movements {
		var ref string
		switch entityKind {
		case entity.EntityKindRequisition:
			ref = m.RequisitionID
		case entity.EntityKindRequisitionLine:
			ref = m.RequisitionLineID
		case entity.EntityKindInvoice:
			ref = m.InvoiceID
		default:
			return false, fmt.Errorf("%w: tipo de entidad %q", domain.ErrInvalidInput, entityKind)
		}
		if ref != entityID {
			continue
		}
		if after != nil && !m.CreatedAt.After(*after) {
			continue
		}
		return true, nil
	}
	return false, nil
}

func (r *movementRepo) MarkReviewed(id, reviewerID string, at time.Time) error {
	for _, m := range r.s.movements {
		if m.ID == id {
			if !m.RequiresReview || m.ReviewedAt != nil {
				return domain.ErrConflict
			}
			t := at
			m.ReviewedAt = &t
			m.ReviewedBy = reviewerID
			return nil
		}
	}
	return domain.ErrConflict
}

// --------------------------------------------------------------------------
// Reservas

type reservationRepo struct{ s *Store }

func (r *reservationRepo) Create(res *entity.StockReservation) error {
	r.s.reservations = append(r.s.reservations, cloneReservation(res))
	return nil
}

func (r *reservationRepo) Update(res *entity.StockReservation) error {
	for i, cur := range r.s.reservations {
		if cur.ID == res.ID {
			r.s.reservations[i] = cloneReservation(res)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *reservationRepo) ListActiveByRequisition(requisitionID string) ([]*entity.StockReservation, error) {
	var out []*entity.StockReservation
	for _, res := range r.s.reservations {
		if res.RequisitionID == requisitionID && res.IsActive {
			out = append(out, cloneReservation(res))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}

func (r *reservationRepo) ListByRequisition(requisitionID string) ([]*entity.StockReservation, error) {
	var out []*entity.StockReservation
	for _, res := range r.s.reservations {
		if res.RequisitionID == requisitionID {
			out = append(out, cloneReservation(res))
		}
	}
	return out, nil
}

// --------------------------------------------------------------------------
// Requisiciones

type requisitionRepo struct{ s *Store }

func (r *requisitionRepo) Create(req *entity.Requisition) error {
	if _, ok := r.s.requisitions[req.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.requisitions[req.ID] = cloneRequisition(req)
	return nil
}

func (r *requisitionRepo) GetByID(id string) (*entity.Requisition, error) {
	if req, ok := r.s.requisitions[id]; ok {
		return cloneRequisition(req), nil
	}
	return nil, nil
}

func (r *requisitionRepo) Update(req *entity.Requisition) error {
	cur, ok := r.s.requisitions[req.ID]
	if !ok {
		return domain.ErrNotFound
	}
	c := cloneRequisition(req)
	// Update solo toca la cabecera; conservar las líneas almacenadas.
	c.Lines = cur.Lines
	r.s.requisitions[req.ID] = c
	return nil
}

func (r *requisitionRepo) GetLineByID(lineID string) (*entity.RequisitionLine, error) {
	for _, req := range r.s.requisitions {
		for _, l := range req.Lines {
			if l.ID == lineID {
				return cloneRequisitionLine(l), nil
			}
		}
	}
	return nil, nil
}

func (r *requisitionRepo) UpdateLine(line *entity.RequisitionLine) error {
	for _, req := range r.s.requisitions {
		for i, l := range req.Lines {
			if l.ID == line.ID {
				req.Lines[i] = cloneRequisitionLine(line)
				return nil
			}
		}
	}
	return domain.ErrNotFound
}

func (r *requisitionRepo) List(status string, limit, offset int) ([]*entity.Requisition, error) {
	var out []*entity.Requisition
	for _, req := range r.s.requisitions {
		if status != "" && req.Status != status {
			continue
		}
		out = append(out, cloneRequisition(req))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, offset), nil
}

// --------------------------------------------------------------------------
// Facturas

type invoiceRepo struct{ s *Store }

func (r *invoiceRepo) Create(inv *entity.Invoice) error {
	if _, ok := r.s.invoices[inv.ID]; ok {
		return domain.ErrDuplicate
	}
	// Espeja la restricción de unicidad del número de factura.
	for _, cur := range r.s.invoices {
		if cur.Number == inv.Number {
			return domain.ErrDuplicate
		}
	}
	r.s.invoices[inv.ID] = cloneInvoice(inv)
	return nil
}

func (r *invoiceRepo) GetByID(id string) (*entity.Invoice, error) {
	if inv, ok := r.s.invoices[id]; ok {
		return cloneInvoice(inv), nil
	}
	return nil, nil
}

func (r *invoiceRepo) Update(inv *entity.Invoice) error {
	cur, ok := r.s.invoices[inv.ID]
	if !ok {
		return domain.ErrNotFound
	}
	c := cloneInvoice(inv)
	c.Lines = cur.Lines
	r.s.invoices[inv.ID] = c
	return nil
}

func (r *invoiceRepo) List(status string, limit, offset int) ([]*entity.Invoice, error) {
	var out []*entity.Invoice
	for _, inv := range r.s.invoices {
		if status != "" && inv.Status != status {
			continue
		}
		out = append(out, cloneInvoice(inv))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, offset), nil
}

// --------------------------------------------------------------------------
// Historial

type historyRepo struct{ s *Store }

func (r *historyRepo) Create(e *entity.HistoryEntry) error {
	r.s.history = append(r.s.history, cloneHistoryEntry(e))
	return nil
}

func (r *historyRepo) GetByID(id string) (*entity.HistoryEntry, error) {
	for _, e := range r.s.history {
		if e.ID == id {
			return cloneHistoryEntry(e), nil
		}
	}
	return nil, nil
}

func (r *historyRepo) ListByEntity(entityKind, entityID string, limit int) ([]*entity.HistoryEntry, error) {
	var out []*entity.HistoryEntry
	for i := len(r.s.history) - 1; i >= 0; i-- {
		e := r.s.history[i]
		if e.EntityKind == entityKind && e.EntityID == entityID {
			out = append(out, cloneHistoryEntry(e))
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// --------------------------------------------------------------------------
// Catálogo

// ItemRepo es la vista de solo lectura del catálogo de ítems.
type ItemRepo struct{ s *Store }

func (r *ItemRepo) GetByID(id string) (*entity.Item, error) {
	if it, ok := r.s.items[id]; ok {
		return cloneItem(it), nil
	}
	return nil, nil
}

func (r *ItemRepo) List(limit, offset int) ([]*entity.Item, error) {
	var out []*entity.Item
	for _, it := range r.s.items {
		out = append(out, cloneItem(it))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return page(out, limit, offset), nil
}

// WarehouseRepo es la vista de solo lectura de bodegas.
type WarehouseRepo struct{ s *Store }

func (r *WarehouseRepo) GetByID(id string) (*entity.Warehouse, error) {
	if w, ok := r.s.warehouses[id]; ok {
		return cloneWarehouse(w), nil
	}
	return nil, nil
}

func (r *WarehouseRepo) List(limit, offset int) ([]*entity.Warehouse, error) {
	var out []*entity.Warehouse
	for _, w := range r.s.warehouses {
		out = append(out, cloneWarehouse(w))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return page(out, limit, offset), nil
}

// page aplica offset/limit sobre un slice ya ordenado. limit <= 0 devuelve todo.
func page[T any](in []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(in) {
			return nil
		}
		in = in[offset:]
	}
	if limit > 0 && len(in) > limit {
		in = in[:limit]
	}
	return in
}
