// Package memory provee una implementación en memoria de los repositorios del
// dominio, pensada para pruebas de los casos de uso sin PostgreSQL. Las
// transacciones se serializan con un mutex y se revierten restaurando un
// snapshot profundo del estado.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/tu-usuario/almacen-ledger/internal/application/ledger"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
)

// Store contiene todo el estado. Las lecturas y escrituras trabajan con copias
// profundas, igual que un repositorio real: mutar una entidad devuelta no
// afecta el estado hasta llamar Update/Upsert.
type Store struct {
	mu sync.Mutex

	balances     map[string]*entity.StockBalance // clave warehouseID + "|" + itemID
	movements    []*entity.StockMovement
	reservations []*entity.StockReservation
	requisitions map[string]*entity.Requisition
	invoices     map[string]*entity.Invoice
	history      []*entity.HistoryEntry
	items        map[string]*entity.Item
	warehouses   map[string]*entity.Warehouse
}

// NewStore crea un Store vacío.
func NewStore() *Store {
	return &Store{
		balances:     make(map[string]*entity.StockBalance),
		requisitions: make(map[string]*entity.Requisition),
		invoices:     make(map[string]*entity.Invoice),
		items:        make(map[string]*entity.Item),
		warehouses:   make(map[string]*entity.Warehouse),
	}
}

func balanceKey(warehouseID, itemID string) string { return warehouseID + "|" + itemID }

// SeedItem registra un ítem de catálogo.
func (s *Store) SeedItem(it *entity.Item) { s.items[it.ID] = cloneItem(it) }

// SeedWarehouse registra una bodega.
func (s *Store) SeedWarehouse(w *entity.Warehouse) { s.warehouses[w.ID] = cloneWarehouse(w) }

// SeedBalance registra un saldo inicial.
func (s *Store) SeedBalance(b *entity.StockBalance) {
	s.balances[balanceKey(b.WarehouseID, b.ItemID)] = cloneBalance(b)
}

// Repos devuelve el conjunto de repositorios atados al store.
func (s *Store) Repos() ledger.Repos {
	return ledger.Repos{
		Balances:     &balanceRepo{s},
		Movements:    &movementRepo{s},
		Reservations: &reservationRepo{s},
		Requisitions: &requisitionRepo{s},
		Invoices:     &invoiceRepo{s},
		History:      &historyRepo{s},
	}
}

// Items devuelve el repositorio de catálogo.
func (s *Store) Items() *ItemRepo { return &ItemRepo{s} }

// Warehouses devuelve el repositorio de bodegas.
func (s *Store) Warehouses() *WarehouseRepo { return &WarehouseRepo{s} }

// Balances devuelve el repositorio de saldos (fuera de transacción).
func (s *Store) Balances() *balanceRepo { return &balanceRepo{s} }

// Movements devuelve el repositorio de movimientos (fuera de transacción).
func (s *Store) Movements() *movementRepo { return &movementRepo{s} }

// Requisitions devuelve el repositorio de requisiciones (fuera de transacción).
func (s *Store) Requisitions() *requisitionRepo { return &requisitionRepo{s} }

// Invoices devuelve el repositorio de facturas (fuera de transacción).
func (s *Store) Invoices() *invoiceRepo { return &invoiceRepo{s} }

// History devuelve el repositorio de historial (fuera de transacción).
func (s *Store) History() *historyRepo { return &historyRepo{s} }

// TxRunner implementa ledger.TxRunner sobre el store: toma un snapshot del
// estado, ejecuta el callback y restaura el snapshot si falla. Eso reproduce
// la atomicidad de una transacción real.
type TxRunner struct {
	s *Store
}

var _ ledger.TxRunner = (*TxRunner)(nil)

// NewTxRunner construye el runner.
func NewTxRunner(s *Store) *TxRunner { return &TxRunner{s: s} }

// Run ejecuta fn dentro de una "transacción" serializada.
func (r *TxRunner) Run(_ context.Context, fn func(repos ledger.Repos) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	snap := r.s.snapshot()
	if err := fn(r.s.Repos()); err != nil {
		r.s.restore(snap)
		return err
	}
	return nil
}

type storeSnapshot struct {
	balances     map[string]*entity.StockBalance
	movements    []*entity.StockMovement
	reservations []*entity.StockReservation
	requisitions map[string]*entity.Requisition
	invoices     map[string]*entity.Invoice
	history      []*entity.HistoryEntry
}

func (s *Store) snapshot() storeSnapshot {
	snap := storeSnapshot{
		balances:     make(map[string]*entity.StockBalance, len(s.balances)),
		movements:    make([]*entity.StockMovement, len(s.movements)),
		reservations: make([]*entity.StockReservation, len(s.reservations)),
		requisitions: make(map[string]*entity.Requisition, len(s.requisitions)),
		invoices:     make(map[string]*entity.Invoice, len(s.invoices)),
		history:      make([]*entity.HistoryEntry, len(s.history)),
	}
	for k, v := range s.balances {
		snap.balances[k] = cloneBalance(v)
	}
	for i, m := range s.movements {
		snap.movements[i] = cloneMovement(m)
	}
	for i, res := range s.reservations {
		snap.reservations[i] = cloneReservation(res)
	}
	for k, v := range s.requisitions {
		snap.requisitions[k] = cloneRequisition(v)
	}
	for k, v := range s.invoices {
		snap.invoices[k] = cloneInvoice(v)
	}
	for i, e := range s.history {
		snap.history[i] = cloneHistoryEntry(e)
	}
	return snap
}

func (s *Store) restore(snap storeSnapshot) {
	s.balances = snap.balances
	s.movements = snap.movements
	s.reservations = snap.reservations
	s.requisitions = snap.requisitions
	s.invoices = snap.invoices
	s.history = snap.history
}

// ---------------------------------------------------------------------------
// Orden estable para listados: los slices conservan orden de inserción y los
// listados "más reciente primero" se recorren en reversa.

func sortedBalanceKeys(m map[string]*entity.StockBalance) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
