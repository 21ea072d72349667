package requisition

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	apphistory "github.com/tu-usuario/almacen-ledger/internal/application/history"
	"github.com/tu-usuario/almacen-ledger/internal/application/ledger"
	"github.com/tu-usuario/almacen-ledger/internal/application/reservation"
	"github.com/tu-usuario/almacen-ledger/internal/domain"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
)

// UseCase maneja el ciclo de vida de las requisiciones: creación, aprobación,
// rechazo, atención y soft-delete de líneas. Cada transición dispara al manager
// de reservas y al recorder de historial dentro de la misma transacción.
type UseCase struct {
	txRunner      ledger.TxRunner
	ledgerUC      *ledger.UseCase
	reservations  *reservation.Manager
	recorder      *apphistory.Recorder
	itemRepo      repository.ItemRepository
	warehouseRepo repository.WarehouseRepository
	balanceRepo   repository.StockBalanceRepository
	reqRepo       repository.RequisitionRepository
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	txRunner ledger.TxRunner,
	ledgerUC *ledger.UseCase,
	reservations *reservation.Manager,
	recorder *apphistory.Recorder,
	itemRepo repository.ItemRepository,
	warehouseRepo repository.WarehouseRepository,
	balanceRepo repository.StockBalanceRepository,
	reqRepo repository.RequisitionRepository,
) *UseCase {
	return &UseCase{
		txRunner:      txRunner,
		ledgerUC:      ledgerUC,
		reservations:  reservations,
		recorder:      recorder,
		itemRepo:      itemRepo,
		warehouseRepo: warehouseRepo,
		balanceRepo:   balanceRepo,
		reqRepo:       reqRepo,
	}
}

// LineInput línea solicitada.
type LineInput struct {
	ItemID   string
	Quantity decimal.Decimal
}

// CreateInput entrada para crear una requisición.
type CreateInput struct {
	WarehouseID string
	RequesterID string
	Notes       string
	Lines       []LineInput
}

// Create registra una requisición en PENDING. El valor unitario de cada línea
// se captura del promedio vigente del saldo; si aún no hay promedio se usa el
// valor estimado del catálogo.
func (uc *UseCase) Create(ctx context.Context, input CreateInput, actor string) (*entity.Requisition, error) {
	if input.WarehouseID == "" || input.RequesterID == "" || len(input.Lines) == 0 {
		return nil, fmt.Errorf("%w: bodega, solicitante y al menos una línea", domain.ErrInvalidInput)
	}
	wh, err := uc.warehouseRepo.GetByID(input.WarehouseID)
	if err != nil || wh == nil {
		return nil, domain.ErrNotFound
	}

	now := time.Now()
	req := &entity.Requisition{
		ID:          uuid.New().String(),
		WarehouseID: input.WarehouseID,
		RequesterID: input.RequesterID,
		Status:      entity.RequisitionStatusPENDING,
		Notes:       input.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for _, in := range input.Lines {
		if !in.Quantity.GreaterThan(decimal.Zero) {
			return nil, fmt.Errorf("%w: cantidad de línea debe ser positiva", domain.ErrInvalidInput)
		}
		item, err := uc.itemRepo.GetByID(in.ItemID)
		if err != nil || item == nil {
			return nil, domain.ErrNotFound
		}
		unitValue := item.EstimatedValue
		if bal, err := uc.balanceRepo.Get(input.WarehouseID, in.ItemID); err == nil && bal.AverageUnitValue.GreaterThan(decimal.Zero) {
			unitValue = bal.AverageUnitValue
		}
		req.Lines = append(req.Lines, &entity.RequisitionLine{
			ID:            uuid.New().String(),
			RequisitionID: req.ID,
			ItemID:        in.ItemID,
			RequestedQty:  in.Quantity,
			FulfilledQty:  decimal.Zero,
			UnitValue:     unitValue,
			TotalValue:    in.Quantity.Mul(unitValue),
			CreatedAt:     now,
		})
	}

	err = uc.txRunner.Run(ctx, func(r ledger.Repos) error {
		if err := r.Requisitions.Create(req); err != nil {
			return err
		}
		// Actor por defecto: el iniciador natural de la entidad.
		a := actor
		if a == "" {
			a = req.RequesterID
		}
		uc.recorder.RecordInTx(r, apphistory.Record{
			EntityKind: entity.EntityKindRequisition,
			EntityID:   req.ID,
			After:      req.ToSnapshot(),
			Actor:      a,
		})
		for _, line := range req.Lines {
			uc.recorder.RecordInTx(r, apphistory.Record{
				EntityKind: entity.EntityKindRequisitionLine,
				EntityID:   line.ID,
				After:      line.ToSnapshot(),
				Actor:      a,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// GetByID carga la requisición con sus líneas.
func (uc *UseCase) GetByID(ctx context.Context, id string) (*entity.Requisition, error) {
	req, err := uc.reqRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, domain.ErrNotFound
	}
	return req, nil
}

// List lista requisiciones, opcionalmente filtradas por estado.
func (uc *UseCase) List(ctx context.Context, status string, limit, offset int) ([]*entity.Requisition, error) {
	if limit <= 0 {
		limit = 20
	}
	return uc.reqRepo.List(status, limit, offset)
}

// Approve aplica PENDING -> APPROVED: fija las cantidades aprobadas (<= a las
// solicitadas) y crea las reservas de todas las líneas activas atómicamente.
func (uc *UseCase) Approve(ctx context.Context, id string, approvals map[string]decimal.Decimal, actor string) error {
	return uc.txRunner.Run(ctx, func(r ledger.Repos) error {
		req, err := uc.load(r, id)
		if err != nil {
			return err
		}
		if !entity.CanTransitionRequisition(req.Status, entity.RequisitionStatusAPPROVED) {
			return fmt.Errorf("%w: no se puede aprobar desde %s", domain.ErrConflict, req.Status)
		}
		before := req.ToSnapshot()
		now := time.Now()

		for _, line := range req.ActiveLines() {
			qty, ok := approvals[line.ID]
			if !ok {
				continue
			}
			if qty.LessThanOrEqual(decimal.Zero) || qty.GreaterThan(line.RequestedQty) {
				return fmt.Errorf("%w: cantidad aprobada fuera de rango para línea %s", domain.ErrInvalidInput, line.ID)
			}
			lineBefore := line.ToSnapshot()
			approved := qty
			line.ApprovedQty = &approved
			line.TotalValue = approved.Mul(line.UnitValue)
			if err := r.Requisitions.UpdateLine(line); err != nil {
				return err
			}
			uc.recorder.RecordInTx(r, apphistory.Record{
				EntityKind: entity.EntityKindRequisitionLine,
				EntityID:   line.ID,
				Before:     lineBefore,
				After:      line.ToSnapshot(),
				Actor:      actor,
			})
		}

		req.Status = entity.RequisitionStatusAPPROVED
		req.UpdatedAt = now
		if err := r.Requisitions.Update(req); err != nil {
			return err
		}
		if err := uc.reservations.ReserveInTx(r, req, now); err != nil {
			return err
		}
		uc.recorder.RecordInTx(r, apphistory.Record{
			EntityKind: entity.EntityKindRequisition,
			EntityID:   req.ID,
			Before:     before,
			After:      req.ToSnapshot(),
			Actor:      actor,
		})
		return nil
	})
}

// Reject aplica la transición a REJECTED (motivo obligatorio) y libera las
// reservas abiertas si la requisición ya estaba aprobada.
func (uc *UseCase) Reject(ctx context.Context, id, reason, actor string) error {
	if reason == "" {
		return fmt.Errorf("%w: el rechazo requiere motivo", domain.ErrInvalidInput)
	}
	return uc.txRunner.Run(ctx, func(r ledger.Repos) error {
		req, err := uc.load(r, id)
		if err != nil {
			return err
		}
		if !entity.CanTransitionRequisition(req.Status, entity.RequisitionStatusREJECTED) {
			return fmt.Errorf("%w: no se puede rechazar desde %s", domain.ErrConflict, req.Status)
		}
		before := req.ToSnapshot()
		now := time.Now()

		if req.Status != entity.RequisitionStatusPENDING {
			if err := uc.reservations.ReleaseInTx(r, req.ID, entity.RequisitionStatusREJECTED, reason, now); err != nil {
				return err
			}
		}
		req.Status = entity.RequisitionStatusREJECTED
		req.StatusReason = reason
		req.UpdatedAt = now
		if err := r.Requisitions.Update(req); err != nil {
			return err
		}
		uc.recorder.RecordInTx(r, apphistory.Record{
			EntityKind: entity.EntityKindRequisition,
			EntityID:   req.ID,
			Before:     before,
			After:      req.ToSnapshot(),
			Actor:      actor,
			Reason:     reason,
		})
		return nil
	})
}

// StartProcessing aplica APPROVED -> PROCESSING.
func (uc *UseCase) StartProcessing(ctx context.Context, id, actor string) error {
	return uc.txRunner.Run(ctx, func(r ledger.Repos) error {
		req, err := uc.load(r, id)
		if err != nil {
			return err
		}
		if !entity.CanTransitionRequisition(req.Status, entity.RequisitionStatusPROCESSING) {
			return fmt.Errorf("%w: no se puede procesar desde %s", domain.ErrConflict, req.Status)
		}
		before := req.ToSnapshot()
		req.Status = entity.RequisitionStatusPROCESSING
		req.UpdatedAt = time.Now()
		if err := r.Requisitions.Update(req); err != nil {
			return err
		}
		uc.recorder.RecordInTx(r, apphistory.Record{
			EntityKind: entity.EntityKindRequisition,
			EntityID:   req.ID,
			Before:     before,
			After:      req.ToSnapshot(),
			Actor:      actor,
		})
		return nil
	})
}

// Fulfill atiende la requisición: consume las reservas, registra un movimiento
// EXIT por línea entregada (al costo promedio vigente) y deja la requisición en
// FULFILLED o PARTIALLY_FULFILLED según lo entregado. quantities mapea línea ->
// cantidad entregada; una línea ausente se entrega por la cantidad concedida.
func (uc *UseCase) Fulfill(ctx context.Context, id string, quantities map[string]decimal.Decimal, actor string) error {
	return uc.txRunner.Run(ctx, func(r ledger.Repos) error {
		req, err := uc.load(r, id)
		if err != nil {
			return err
		}
		if req.Status != entity.RequisitionStatusAPPROVED && req.Status != entity.RequisitionStatusPROCESSING {
			return fmt.Errorf("%w: no se puede atender desde %s", domain.ErrConflict, req.Status)
		}
		before := req.ToSnapshot()
		now := time.Now()

		lines := req.ActiveLines()
		sort.Slice(lines, func(i, j int) bool { return lines[i].ItemID < lines[j].ItemID })

		// Primero se cierran las reservas (consumo) para no violar
		// reserved <= quantity al registrar las salidas.
		if err := uc.reservations.ReleaseInTx(r, req.ID, entity.RequisitionStatusFULFILLED, "", now); err != nil {
			return err
		}

		allComplete := true
		for _, line := range lines {
			granted := line.GrantedQty()
			qty, ok := quantities[line.ID]
			if !ok {
				qty = granted
			}
			if qty.LessThan(decimal.Zero) || line.FulfilledQty.Add(qty).GreaterThan(granted) {
				return fmt.Errorf("%w: cantidad entregada fuera de rango para línea %s", domain.ErrInvalidInput, line.ID)
			}
			if qty.IsZero() {
				allComplete = false
				continue
			}

			if _, err := uc.ledgerUC.RecordMovementInTx(r, ledger.MovementInput{
				WarehouseID:       req.WarehouseID,
				ItemID:            line.ItemID,
				Type:              entity.MovementTypeEXIT,
				RawQuantity:       qty,
				RequisitionID:     req.ID,
				RequisitionLineID: line.ID,
				ActorID:           actor,
			}, now); err != nil {
				return err
			}

			lineBefore := line.ToSnapshot()
			line.FulfilledQty = line.FulfilledQty.Add(qty)
			if err := r.Requisitions.UpdateLine(line); err != nil {
				return err
			}
			uc.recorder.RecordInTx(r, apphistory.Record{
				EntityKind: entity.EntityKindRequisitionLine,
				EntityID:   line.ID,
				Before:     lineBefore,
				After:      line.ToSnapshot(),
				Actor:      actor,
			})
			if line.FulfilledQty.LessThan(granted) {
				allComplete = false
			}
		}

		newStatus := entity.RequisitionStatusFULFILLED
		if !allComplete {
			newStatus = entity.RequisitionStatusPartiallyFulfilled
		}
		if !entity.CanTransitionRequisition(req.Status, newStatus) {
			return fmt.Errorf("%w: transición %s -> %s inválida", domain.ErrConflict, req.Status, newStatus)
		}
		req.Status = newStatus
		req.UpdatedAt = now
		if err := r.Requisitions.Update(req); err != nil {
			return err
		}
		uc.recorder.RecordInTx(r, apphistory.Record{
			EntityKind: entity.EntityKindRequisition,
			EntityID:   req.ID,
			Before:     before,
			After:      req.ToSnapshot(),
			Actor:      actor,
		})
		return nil
	})
}

// SoftDeleteLine marca una línea como eliminada (independiente del estado del
// padre). El motivo es obligatorio.
func (uc *UseCase) SoftDeleteLine(ctx context.Context, requisitionID, lineID, reason, actor string) error {
	if reason == "" {
		return fmt.Errorf("%w: el borrado de línea requiere motivo", domain.ErrInvalidInput)
	}
	return uc.txRunner.Run(ctx, func(r ledger.Repos) error {
		req, err := uc.load(r, requisitionID)
		if err != nil {
			return err
		}
		line := req.Line(lineID)
		if line == nil {
			return domain.ErrNotFound
		}
		if line.DeletedAt != nil {
			return fmt.Errorf("%w: la línea ya está eliminada", domain.ErrConflict)
		}
		before := line.ToSnapshot()
		now := time.Now()
		line.DeletedAt = &now
		line.DeletedBy = actor
		line.DeleteReason = reason
		if err := r.Requisitions.UpdateLine(line); err != nil {
			return err
		}
		uc.recorder.RecordInTx(r, apphistory.Record{
			EntityKind: entity.EntityKindRequisitionLine,
			EntityID:   line.ID,
			Operation:  entity.HistoryOpSoftDelete,
			Before:     before,
			After:      line.ToSnapshot(),
			Actor:      actor,
			Reason:     reason,
		})
		return nil
	})
}

// RestoreLine revierte el soft-delete de una línea.
func (uc *UseCase) RestoreLine(ctx context.Context, requisitionID, lineID, actor string) error {
	return uc.txRunner.Run(ctx, func(r ledger.Repos) error {
		req, err := uc.load(r, requisitionID)
		if err != nil {
			return err
		}
		line := req.Line(lineID)
		if line == nil {
			return domain.ErrNotFound
		}
		if line.DeletedAt == nil {
			return fmt.Errorf("%w: la línea no está eliminada", domain.ErrConflict)
		}
		before := line.ToSnapshot()
		line.DeletedAt = nil
		line.DeletedBy = ""
		line.DeleteReason = ""
		if err := r.Requisitions.UpdateLine(line); err != nil {
			return err
		}
		uc.recorder.RecordInTx(r, apphistory.Record{
			EntityKind: entity.EntityKindRequisitionLine,
			EntityID:   line.ID,
			Operation:  entity.HistoryOpRESTORE,
			Before:     before,
			After:      line.ToSnapshot(),
			Actor:      actor,
		})
		return nil
	})
}

func (uc *UseCase) load(r ledger.Repos, id string) (*entity.Requisition, error) {
	req, err := r.Requisitions.GetByID(id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, domain.ErrNotFound
	}
	return req, nil
}
