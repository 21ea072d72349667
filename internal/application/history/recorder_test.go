package history_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphistory "github.com/tu-usuario/almacen-ledger/internal/application/history"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
	"github.com/tu-usuario/almacen-ledger/internal/infrastructure/memory"
)

func newRecorder(t *testing.T) (*apphistory.Recorder, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return apphistory.NewRecorder(store.History(), nil), store
}

func TestBuild_ClasificacionAutomatica(t *testing.T) {
	rec, _ := newRecorder(t)

	insert := rec.Build(apphistory.Record{
		EntityKind: entity.EntityKindRequisition,
		EntityID:   "req-1",
		After:      entity.Snapshot{"status": "PENDING"},
		Actor:      "user-1",
	})
	assert.Equal(t, entity.HistoryOpINSERT, insert.Operation)
	assert.Nil(t, insert.DataBefore, "INSERT no guarda estado previo")
	assert.NotNil(t, insert.DataAfter)

	del := rec.Build(apphistory.Record{
		EntityKind: entity.EntityKindRequisition,
		EntityID:   "req-1",
		Before:     entity.Snapshot{"status": "PENDING"},
		Actor:      "user-1",
	})
	assert.Equal(t, entity.HistoryOpDELETE, del.Operation)
	assert.Nil(t, del.DataAfter, "DELETE no tiene estado posterior")

	approval := rec.Build(apphistory.Record{
		EntityKind: entity.EntityKindRequisition,
		EntityID:   "req-1",
		Before:     entity.Snapshot{"status": "PENDING"},
		After:      entity.Snapshot{"status": "APPROVED"},
		Actor:      "user-1",
	})
	assert.Equal(t, entity.HistoryOpAPPROVAL, approval.Operation)
	assert.Equal(t, []string{"status"}, approval.ChangedFields)
	require.Contains(t, approval.Diff, "status")
	assert.Equal(t, "PENDING", approval.Diff["status"].Old)
}

func TestBuild_ActorVacioUsaCentinelaDeSistema(t *testing.T) {
	rec, _ := newRecorder(t)
	entry := rec.Build(apphistory.Record{
		EntityKind: entity.EntityKindInvoice,
		EntityID:   "inv-1",
		After:      entity.Snapshot{"status": "DRAFT"},
	})
	assert.Equal(t, entity.SystemActor, entry.Actor)
}

func TestBuild_MotivoAusenteEnOperacionDestructiva(t *testing.T) {
	rec, _ := newRecorder(t)

	// Sin motivo en un DELETE: se registra el centinela, no se bloquea.
	del := rec.Build(apphistory.Record{
		EntityKind: entity.EntityKindRequisitionLine,
		EntityID:   "line-1",
		Before:     entity.Snapshot{"status": "x"},
		Actor:      "user-1",
	})
	assert.Equal(t, entity.NoJustificationSentinel, del.Reason)

	// Un UPDATE normal sin motivo queda sin motivo.
	upd := rec.Build(apphistory.Record{
		EntityKind: entity.EntityKindRequisition,
		EntityID:   "req-1",
		Before:     entity.Snapshot{"status": "PENDING", "notes": "a"},
		After:      entity.Snapshot{"status": "PENDING", "notes": "b"},
		Actor:      "user-1",
	})
	assert.Empty(t, upd.Reason)
}

func TestBuild_PuntosDeRollback(t *testing.T) {
	rec, _ := newRecorder(t)

	cases := []struct {
		op       string
		expected bool
	}{
		{entity.HistoryOpINSERT, true},
		{entity.HistoryOpUPDATE, true},
		{entity.HistoryOpROLLBACK, true},
		{entity.HistoryOpDELETE, false},
		{entity.HistoryOpSoftDelete, false},
	}
	for _, tc := range cases {
		entry := rec.Build(apphistory.Record{
			EntityKind: entity.EntityKindRequisition,
			EntityID:   "req-1",
			Operation:  tc.op,
			Before:     entity.Snapshot{"status": "a"},
			After:      entity.Snapshot{"status": "b"},
			Actor:      "user-1",
			Reason:     "x",
		})
		assert.Equal(t, tc.expected, entry.IsRollbackPoint, tc.op)
	}
}

func TestRecordAsync_Persiste(t *testing.T) {
	rec, store := newRecorder(t)

	entry := rec.RecordAsync(context.Background(), apphistory.Record{
		EntityKind: entity.EntityKindRequisition,
		EntityID:   "req-1",
		After:      entity.Snapshot{"status": "PENDING"},
		Actor:      "user-1",
	})
	require.NotNil(t, entry)

	entries, err := rec.ListByEntity(context.Background(), entity.EntityKindRequisition, "req-1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry.ID, entries[0].ID)

	got, err := store.History().GetByID(entry.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestRecordInTx_PersisteConLosReposDeLaTransaccion(t *testing.T) {
	rec, store := newRecorder(t)

	entry := rec.RecordInTx(store.Repos(), apphistory.Record{
		EntityKind: entity.EntityKindInvoice,
		EntityID:   "inv-1",
		Before:     entity.Snapshot{"status": "DRAFT"},
		After:      entity.Snapshot{"status": "POSTED"},
		Actor:      "user-1",
	})
	require.NotNil(t, entry)
	assert.Equal(t, entity.HistoryOpStatusChange, entry.Operation)
}
