package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tu-usuario/almacen-ledger/internal/application/ledger"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
	domhistory "github.com/tu-usuario/almacen-ledger/internal/domain/history"
	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
	"github.com/tu-usuario/almacen-ledger/pkg/logger"
)

// Recorder captura el historial de auditoría de requisiciones, líneas y
// facturas. Es puramente aditivo: nunca hace fallar la mutación subyacente; si
// la captura no puede proceder, degrada (actor centinela, motivo centinela) y
// el error se loguea en vez de propagarse.
type Recorder struct {
	historyRepo repository.HistoryRepository
	log         *logger.Logger
}

// NewRecorder construye el recorder.
func NewRecorder(historyRepo repository.HistoryRepository, log *logger.Logger) *Recorder {
	return &Recorder{historyRepo: historyRepo, log: log}
}

// Record describe una mutación a auditar. Operation vacío se clasifica
// automáticamente a partir de los snapshots.
type Record struct {
	EntityKind string
	EntityID   string
	Operation  string
	Before     entity.Snapshot
	After      entity.Snapshot
	Actor      string
	Reason     string

	IsRollback     bool
	RestoredFromID string
}

// operaciones que exigen motivo; en su ausencia se registra el centinela en vez
// de bloquear la mutación (borrados duros pueden venir de fuera de la API).
var reasonRequired = map[string]bool{
	entity.HistoryOpDELETE:       true,
	entity.HistoryOpSoftDelete:   true,
	entity.HistoryOpROLLBACK:     true,
	entity.HistoryOpREJECTION:    true,
	entity.HistoryOpCANCELLATION: true,
}

// Build construye la entrada de historial sin persistirla. Lo usa el motor de
// rollback, que sí necesita que su entrada se escriba o falle junto con la
// transacción.
func (rec *Recorder) Build(r Record) *entity.HistoryEntry {
	op := r.Operation
	if op == "" {
		switch {
		case r.Before == nil:
			op = entity.HistoryOpINSERT
		case r.After == nil:
			op = entity.HistoryOpDELETE
		default:
			op = domhistory.Classify(r.Before, r.After)
		}
	}

	entry := &entity.HistoryEntry{
		ID:             uuid.New().String(),
		EntityKind:     r.EntityKind,
		EntityID:       r.EntityID,
		Operation:      op,
		Actor:          r.Actor,
		Reason:         r.Reason,
		IsRollback:     r.IsRollback,
		RestoredFromID: r.RestoredFromID,
		CreatedAt:      time.Now(),
	}
	if op != entity.HistoryOpINSERT {
		entry.DataBefore = r.Before
	}
	if op != entity.HistoryOpDELETE {
		entry.DataAfter = r.After
	}
	if r.Before != nil && r.After != nil {
		entry.ChangedFields = domhistory.ChangedFields(r.Before, r.After)
		entry.Diff = domhistory.Diff(r.Before, r.After)
	}

	if entry.Actor == "" {
		entry.Actor = entity.SystemActor
	}
	if entry.Reason == "" && reasonRequired[op] {
		entry.Reason = entity.NoJustificationSentinel
	}

	// DELETE y SOFT_DELETE nunca son puntos de rollback: no dejan un estado
	// "after" confiable como destino de restauración.
	entry.IsRollbackPoint = op != entity.HistoryOpDELETE && op != entity.HistoryOpSoftDelete

	return entry
}

// RecordInTx persiste la entrada con los repositorios del caller (misma
// transacción). Los errores de captura se loguean y se descartan.
func (rec *Recorder) RecordInTx(r ledger.Repos, record Record) *entity.HistoryEntry {
	entry := rec.Build(record)
	if err := r.History.Create(entry); err != nil {
		rec.logCaptureFailure(record, err)
		return nil
	}
	return entry
}

// RecordAsync persiste la entrada fuera de transacción (mejor esfuerzo).
func (rec *Recorder) RecordAsync(ctx context.Context, record Record) *entity.HistoryEntry {
	entry := rec.Build(record)
	if err := rec.historyRepo.Create(entry); err != nil {
		rec.logCaptureFailure(record, err)
		return nil
	}
	return entry
}

// ListByEntity devuelve el historial de una entidad, de la más reciente a la
// más antigua.
func (rec *Recorder) ListByEntity(ctx context.Context, entityKind, entityID string, limit int) ([]*entity.HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	return rec.historyRepo.ListByEntity(entityKind, entityID, limit)
}

func (rec *Recorder) logCaptureFailure(record Record, err error) {
	if rec.log == nil {
		return
	}
	rec.log.Error().
		Err(err).
		Str("entity_kind", record.EntityKind).
		Str("entity_id", record.EntityID).
		Str("operation", record.Operation).
		Msg("captura de historial falló; la mutación de negocio continúa")
}
