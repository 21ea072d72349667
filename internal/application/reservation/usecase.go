package reservation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/almacen-ledger/internal/application/ledger"
	"github.com/tu-usuario/almacen-ledger/internal/domain"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
)

// Manager crea y libera retenciones de cantidad contra los saldos en respuesta
// a las transiciones de estado de una requisición. Todas las líneas de una
// requisición se procesan en una sola transacción: o se reservan/liberan todas
// o ninguna.
type Manager struct {
	txRunner ledger.TxRunner
}

// NewManager construye el manager de reservas.
func NewManager(txRunner ledger.TxRunner) *Manager {
	return &Manager{txRunner: txRunner}
}

// ReserveForApproval crea reservas para todas las líneas activas de la
// requisición (transición PENDING -> APPROVED).
func (m *Manager) ReserveForApproval(ctx context.Context, requisitionID string) error {
	return m.txRunner.Run(ctx, func(r ledger.Repos) error {
		req, err := r.Requisitions.GetByID(requisitionID)
		if err != nil {
			return err
		}
		if req == nil {
			return domain.ErrNotFound
		}
		return m.ReserveInTx(r, req, time.Now())
	})
}

// ReserveInTx crea una reserva por línea activa y suma la cantidad concedida a
// ReservedQuantity del saldo correspondiente. No re-valida reserved <= quantity:
// ese invariante se exige en el movimiento EXIT, el punto real de consumo.
// Los bloqueos de fila se toman en orden fijo (ítem ascendente) para evitar
// interbloqueos cuando una operación toca varios saldos.
func (m *Manager) ReserveInTx(r ledger.Repos, req *entity.Requisition, now time.Time) error {
	lines := req.ActiveLines()
	sort.Slice(lines, func(i, j int) bool { return lines[i].ItemID < lines[j].ItemID })

	for _, line := range lines {
		bal, err := r.Balances.GetForUpdate(req.WarehouseID, line.ItemID)
		if err != nil {
			return err
		}
		qty := line.GrantedQty()
		bal.ReservedQuantity = bal.ReservedQuantity.Add(qty)
		bal.UpdatedAt = now
		if err := r.Balances.Upsert(bal); err != nil {
			return err
		}
		res := &entity.StockReservation{
			ID:                uuid.New().String(),
			RequisitionID:     req.ID,
			RequisitionLineID: line.ID,
			WarehouseID:       req.WarehouseID,
			ItemID:            line.ItemID,
			Quantity:          qty,
			IsActive:          true,
			CreatedAt:         now,
		}
		if err := r.Reservations.Create(res); err != nil {
			return err
		}
	}
	return nil
}

// ReleaseReservations cierra las reservas abiertas de la requisición según el
// desenlace terminal (transición {APPROVED, PROCESSING} -> terminal).
func (m *Manager) ReleaseReservations(ctx context.Context, requisitionID, outcome, reason string) error {
	return m.txRunner.Run(ctx, func(r ledger.Repos) error {
		return m.ReleaseInTx(r, requisitionID, outcome, reason, time.Now())
	})
}

// ReleaseInTx resta cada reserva de ReservedQuantity (con piso en cero) y la
// cierra: ConsumedAt en desenlaces de atención, ReleasedAt + motivo en
// desenlaces negativos. Exactamente uno de los dos marcadores queda definido.
func (m *Manager) ReleaseInTx(r ledger.Repos, requisitionID, outcome, reason string, now time.Time) error {
	consumed := entity.IsTerminalFulfillment(outcome)
	if !consumed && outcome != entity.RequisitionStatusREJECTED && outcome != entity.RequisitionStatusCANCELLED {
		return fmt.Errorf("%w: desenlace %q no cierra reservas", domain.ErrInvalidInput, outcome)
	}

	reservations, err := r.Reservations.ListActiveByRequisition(requisitionID)
	if err != nil {
		return err
	}
	sort.Slice(reservations, func(i, j int) bool { return reservations[i].ItemID < reservations[j].ItemID })

	for _, res := range reservations {
		bal, err := r.Balances.GetForUpdate(res.WarehouseID, res.ItemID)
		if err != nil {
			return err
		}
		bal.ReservedQuantity = bal.ReservedQuantity.Sub(res.Quantity)
		if bal.ReservedQuantity.LessThan(decimal.Zero) {
			bal.ReservedQuantity = decimal.Zero
		}
		bal.UpdatedAt = now
		if err := r.Balances.Upsert(bal); err != nil {
			return err
		}

		res.IsActive = false
		ts := now
		if consumed {
			res.ConsumedAt = &ts
		} else {
			res.ReleasedAt = &ts
			res.ReleaseReason = reason
		}
		if err := r.Reservations.Update(res); err != nil {
			return err
		}
	}
	return nil
}
