package rollback

import (
	"context"
	"fmt"
	"time"

	apphistory "github.com/tu-usuario/almacen-ledger/internal/application/history"
	"github.com/tu-usuario/almacen-ledger/internal/application/ledger"
	"github.com/tu-usuario/almacen-ledger/internal/application/reservation"
	"github.com/tu-usuario/almacen-ledger/internal/domain"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
)

// UseCase valida y aplica la reversión de una entidad auditada a un snapshot
// previo del historial, y la cancelación de requisiciones sin efectos de stock.
type UseCase struct {
	txRunner     ledger.TxRunner
	recorder     *apphistory.Recorder
	reservations *reservation.Manager
	historyRepo  repository.HistoryRepository
	movementRepo repository.StockMovementRepository
}

// NewUseCase construye el motor de rollback.
func NewUseCase(
	txRunner ledger.TxRunner,
	recorder *apphistory.Recorder,
	reservations *reservation.Manager,
	historyRepo repository.HistoryRepository,
	movementRepo repository.StockMovementRepository,
) *UseCase {
	return &UseCase{
		txRunner:     txRunner,
		recorder:     recorder,
		reservations: reservations,
		historyRepo:  historyRepo,
		movementRepo: movementRepo,
	}
}

// RollbackPoint es un snapshot candidato anotado con si es restaurable ahora y,
// si no, por qué está bloqueado.
type RollbackPoint struct {
	Entry         *entity.HistoryEntry
	Restorable    bool
	BlockedReason string
}

// ListRollbackPoints devuelve los snapshots de la entidad (del más reciente al
// más antiguo) anotando su restaurabilidad: un snapshot queda bloqueado si una
// entrada posterior fue DELETE/SOFT_DELETE o si hubo movimientos de stock
// después de su timestamp.
func (uc *UseCase) ListRollbackPoints(ctx context.Context, entityKind, entityID string, limit int) ([]*RollbackPoint, error) {
	if limit <= 0 {
		limit = 50
	}
	entries, err := uc.historyRepo.ListByEntity(entityKind, entityID, limit)
	if err != nil {
		return nil, err
	}

	points := make([]*RollbackPoint, 0, len(entries))
	laterDestructive := false
	for _, e := range entries { // más reciente primero
		p := &RollbackPoint{Entry: e}
		switch {
		case !e.IsRollbackPoint:
			p.BlockedReason = "la entrada no es un punto de rollback"
		case laterDestructive:
			p.BlockedReason = "una entrada posterior fue DELETE/SOFT_DELETE"
		default:
			moved, err := uc.movementRepo.ExistsForReference(entityKind, entityID, &e.CreatedAt)
			if err != nil {
				return nil, err
			}
			if moved {
				p.BlockedReason = "hay movimientos de stock posteriores al snapshot"
			} else {
				p.Restorable = true
			}
		}
		points = append(points, p)
		if e.Operation == entity.HistoryOpDELETE || e.Operation == entity.HistoryOpSoftDelete {
			laterDestructive = true
		}
	}
	return points, nil
}

// Rollback restaura la entidad al snapshot destino. Validaciones en orden:
// motivo obligatorio, destino existente/propio/marcado como punto de rollback,
// estado actual no terminal para reversión, y ausencia de movimientos de stock
// posteriores al snapshot. La reversión escribe una nueva entrada ROLLBACK que
// es a su vez un punto de rollback.
func (uc *UseCase) Rollback(ctx context.Context, entityKind, entityID, targetHistoryID, reason, actor string) (*entity.HistoryEntry, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: el rollback requiere motivo", domain.ErrInvalidInput)
	}

	var entry *entity.HistoryEntry
	err := uc.txRunner.Run(ctx, func(r ledger.Repos) error {
		target, err := r.History.GetByID(targetHistoryID)
		if err != nil {
			return err
		}
		if target == nil || target.EntityKind != entityKind || target.EntityID != entityID {
			return fmt.Errorf("%w: snapshot destino no pertenece a la entidad", domain.ErrInvalidInput)
		}
		if !target.IsRollbackPoint {
			return fmt.Errorf("%w: el snapshot destino no es un punto de rollback", domain.ErrInvalidInput)
		}
		if err := uc.checkLaterDestructive(r, target); err != nil {
			return err
		}
		moved, err := r.Movements.ExistsForReference(entityKind, entityID, &target.CreatedAt)
		if err != nil {
			return err
		}
		if moved {
			return &domain.IrreversibleSideEffectsError{
				EntityID: entityID,
				Detail:   "existen movimientos de stock posteriores al snapshot destino",
			}
		}

		switch entityKind {
		case entity.EntityKindRequisition:
			entry, err = uc.rollbackRequisition(r, entityID, target, reason, actor)
		case entity.EntityKindRequisitionLine:
			entry, err = uc.rollbackRequisitionLine(r, entityID, target, reason, actor)
		case entity.EntityKindInvoice:
			entry, err = uc.rollbackInvoice(r, entityID, target, reason, actor)
		default:
			return fmt.Errorf("%w: tipo de entidad %q", domain.ErrInvalidInput, entityKind)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// checkLaterDestructive bloquea la reversión si el log registra un
// DELETE/SOFT_DELETE posterior al snapshot destino.
func (uc *UseCase) checkLaterDestructive(r ledger.Repos, target *entity.HistoryEntry) error {
	entries, err := r.History.ListByEntity(target.EntityKind, target.EntityID, 0)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.CreatedAt.After(target.CreatedAt) {
			break // listado del más reciente al más antiguo
		}
		if e.Operation == entity.HistoryOpDELETE || e.Operation == entity.HistoryOpSoftDelete {
			return &domain.IrreversibleSideEffectsError{
				EntityID: target.EntityID,
				Detail:   "una entrada posterior al snapshot fue DELETE/SOFT_DELETE",
			}
		}
	}
	return nil
}

func (uc *UseCase) rollbackRequisition(r ledger.Repos, id string, target *entity.HistoryEntry, reason, actor string) (*entity.HistoryEntry, error) {
	req, err := r.Requisitions.GetByID(id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, domain.ErrNotFound
	}
	// Los efectos de stock de una requisición atendida son irreversibles por
	// esta vía.
	if entity.IsTerminalFulfillment(req.Status) {
		return nil, &domain.IrreversibleSideEffectsError{
			EntityID: id,
			Detail:   fmt.Sprintf("la requisición está en %s", req.Status),
		}
	}

	before := req.ToSnapshot()
	wasHolding := req.Status == entity.RequisitionStatusAPPROVED || req.Status == entity.RequisitionStatusPROCESSING
	req.ApplySnapshot(target.DataAfter)
	req.UpdatedAt = time.Now()
	if err := r.Requisitions.Update(req); err != nil {
		return nil, err
	}

	// Si la reversión saca la requisición del estado que sostenía las reservas,
	// las reservas abiertas se liberan para mantener el invariante del saldo.
	stillHolding := req.Status == entity.RequisitionStatusAPPROVED || req.Status == entity.RequisitionStatusPROCESSING
	if wasHolding && !stillHolding {
		if err := uc.reservations.ReleaseInTx(r, req.ID, entity.RequisitionStatusCANCELLED, reason, time.Now()); err != nil {
			return nil, err
		}
	}

	return uc.writeRollbackEntry(r, target, before, req.ToSnapshot(), reason, actor)
}

func (uc *UseCase) rollbackRequisitionLine(r ledger.Repos, lineID string, target *entity.HistoryEntry, reason, actor string) (*entity.HistoryEntry, error) {
	line, err := r.Requisitions.GetLineByID(lineID)
	if err != nil {
		return nil, err
	}
	if line == nil {
		return nil, domain.ErrNotFound
	}
	parent, err := r.Requisitions.GetByID(line.RequisitionID)
	if err != nil {
		return nil, err
	}
	if parent != nil && entity.IsTerminalFulfillment(parent.Status) {
		return nil, &domain.IrreversibleSideEffectsError{
			EntityID: lineID,
			Detail:   fmt.Sprintf("la requisición padre está en %s", parent.Status),
		}
	}

	before := line.ToSnapshot()
	line.ApplySnapshot(target.DataAfter)
	if err := r.Requisitions.UpdateLine(line); err != nil {
		return nil, err
	}
	return uc.writeRollbackEntry(r, target, before, line.ToSnapshot(), reason, actor)
}

func (uc *UseCase) rollbackInvoice(r ledger.Repos, id string, target *entity.HistoryEntry, reason, actor string) (*entity.HistoryEntry, error) {
	inv, err := r.Invoices.GetByID(id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	before := inv.ToSnapshot()
	inv.ApplySnapshot(target.DataAfter)
	inv.UpdatedAt = time.Now()
	if err := r.Invoices.Update(inv); err != nil {
		return nil, err
	}
	return uc.writeRollbackEntry(r, target, before, inv.ToSnapshot(), reason, actor)
}

// writeRollbackEntry escribe la entrada ROLLBACK. A diferencia del resto de la
// auditoría, esta entrada es parte del contrato de la operación: si no puede
// persistirse, la reversión completa falla.
func (uc *UseCase) writeRollbackEntry(r ledger.Repos, target *entity.HistoryEntry, before, after entity.Snapshot, reason, actor string) (*entity.HistoryEntry, error) {
	entry := uc.recorder.Build(apphistory.Record{
		EntityKind:     target.EntityKind,
		EntityID:       target.EntityID,
		Operation:      entity.HistoryOpROLLBACK,
		Before:         before,
		After:          after,
		Actor:          actor,
		Reason:         reason,
		IsRollback:     true,
		RestoredFromID: target.ID,
	})
	if err := r.History.Create(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Cancel cancela una requisición sin efectos de stock: se rechaza si algún
// movimiento ya la referencia (usar rollback/reversión en ese caso) y, si
// procede, libera las reservas abiertas.
func (uc *UseCase) Cancel(ctx context.Context, requisitionID, reason, actor string) error {
	if reason == "" {
		return fmt.Errorf("%w: la cancelación requiere motivo", domain.ErrInvalidInput)
	}
	return uc.txRunner.Run(ctx, func(r ledger.Repos) error {
		req, err := r.Requisitions.GetByID(requisitionID)
		if err != nil {
			return err
		}
		if req == nil {
			return domain.ErrNotFound
		}
		moved, err := r.Movements.ExistsForReference(entity.EntityKindRequisition, requisitionID, nil)
		if err != nil {
			return err
		}
		if moved {
			return &domain.IrreversibleSideEffectsError{
				EntityID: requisitionID,
				Detail:   "existen movimientos de stock que referencian la requisición",
			}
		}
		if !entity.CanTransitionRequisition(req.Status, entity.RequisitionStatusCANCELLED) {
			return fmt.Errorf("%w: no se puede cancelar desde %s", domain.ErrConflict, req.Status)
		}

		before := req.ToSnapshot()
		now := time.Now()
		if err := uc.reservations.ReleaseInTx(r, req.ID, entity.RequisitionStatusCANCELLED, reason, now); err != nil {
			return err
		}
		req.Status = entity.RequisitionStatusCANCELLED
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
