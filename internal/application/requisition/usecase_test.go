package requisition_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphistory "github.com/tu-usuario/almacen-ledger/internal/application/history"
	appledger "github.com/tu-usuario/almacen-ledger/internal/application/ledger"
	apprequisition "github.com/tu-usuario/almacen-ledger/internal/application/requisition"
	"github.com/tu-usuario/almacen-ledger/internal/application/reservation"
	"github.com/tu-usuario/almacen-ledger/internal/domain"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
	"github.com/tu-usuario/almacen-ledger/internal/infrastructure/memory"
)

const (
	whMain    = "wh-principal"
	itemA     = "item-a"
	itemB     = "item-b"
	requester = "user-solicitante"
	approver  = "user-supervisor"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

type fixture struct {
	store *memory.Store
	uc    *apprequisition.UseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.SeedWarehouse(&entity.Warehouse{ID: whMain, Code: "PRIN", Name: "Bodega principal", IsActive: true})
	store.SeedItem(&entity.Item{ID: itemA, Code: "A", Name: "Ítem A", Unit: "unidad", IsStockable: true, EstimatedValue: dec("2.00")})
	store.SeedItem(&entity.Item{ID: itemB, Code: "B", Name: "Ítem B", Unit: "unidad", IsStockable: true, EstimatedValue: dec("3.00")})
	store.SeedBalance(&entity.StockBalance{WarehouseID: whMain, ItemID: itemA, Quantity: dec("100"), AverageUnitValue: dec("10.00")})
	store.SeedBalance(&entity.StockBalance{WarehouseID: whMain, ItemID: itemB, Quantity: dec("50"), AverageUnitValue: dec("4.00")})

	txRunner := memory.NewTxRunner(store)
	ledgerUC := appledger.NewUseCase(
		txRunner, store.Items(), store.Warehouses(), store.Balances(), store.Movements(),
		dec("0.20"), nil,
	)
	recorder := apphistory.NewRecorder(store.History(), nil)
	reservations := reservation.NewManager(txRunner)
	uc := apprequisition.NewUseCase(
		txRunner, ledgerUC, reservations, recorder,
		store.Items(), store.Warehouses(), store.Balances(), store.Requisitions(),
	)
	return &fixture{store: store, uc: uc}
}

func (f *fixture) create(t *testing.T) *entity.Requisition {
	t.Helper()
	req, err := f.uc.Create(context.Background(), apprequisition.CreateInput{
		WarehouseID: whMain,
		RequesterID: requester,
		Lines: []apprequisition.LineInput{
			{ItemID: itemA, Quantity: dec("20")},
			{ItemID: itemB, Quantity: dec("5")},
		},
	}, requester)
	require.NoError(t, err)
	return req
}

func (f *fixture) balance(t *testing.T, itemID string) *entity.StockBalance {
	t.Helper()
	bal, err := f.store.Balances().Get(whMain, itemID)
	require.NoError(t, err)
	return bal
}

func TestCreate_CapturaValorUnitarioDelPromedio(t *testing.T) {
	f := newFixture(t)
	req := f.create(t)

	assert.Equal(t, entity.RequisitionStatusPENDING, req.Status)
	require.Len(t, req.Lines, 2)
	assert.Equal(t, "10", req.Lines[0].UnitValue.String(), "el valor unitario viene del promedio vigente")
	assert.Equal(t, "200", req.Lines[0].TotalValue.String())

	// El alta queda auditada como INSERT de la requisición y de cada línea.
	entries, err := f.store.History().ListByEntity(entity.EntityKindRequisition, req.ID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.HistoryOpINSERT, entries[0].Operation)
	assert.Equal(t, requester, entries[0].Actor)
}

func TestCreate_SinPromedioUsaValorEstimado(t *testing.T) {
	f := newFixture(t)
	itemNew := "item-nuevo"
	f.store.SeedItem(&entity.Item{ID: itemNew, Code: "N", Name: "Nuevo", Unit: "unidad", IsStockable: true, EstimatedValue: dec("7.50")})

	req, err := f.uc.Create(context.Background(), apprequisition.CreateInput{
		WarehouseID: whMain,
		RequesterID: requester,
		Lines:       []apprequisition.LineInput{{ItemID: itemNew, Quantity: dec("2")}},
	}, requester)
	require.NoError(t, err)
	assert.Equal(t, "7.5", req.Lines[0].UnitValue.String())
}

func TestApprove_CreaReservas(t *testing.T) {
	f := newFixture(t)
	req := f.create(t)

	err := f.uc.Approve(context.Background(), req.ID, map[string]decimal.Decimal{
		req.Lines[0].ID: dec("15"), // aprueba 15 de 20
	}, approver)
	require.NoError(t, err)

	got, err := f.uc.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RequisitionStatusAPPROVED, got.Status)
	require.NotNil(t, got.Lines[0].ApprovedQty)
	assert.Equal(t, "15", got.Lines[0].ApprovedQty.String())
	assert.Nil(t, got.Lines[1].ApprovedQty, "línea sin aprobación explícita conserva lo solicitado")

	// Reservas: 15 del ítem A y 5 (lo solicitado) del ítem B.
	assert.Equal(t, "15", f.balance(t, itemA).ReservedQuantity.String())
	assert.Equal(t, "5", f.balance(t, itemB).ReservedQuantity.String())
	assert.Equal(t, "85", f.balance(t, itemA).Available().String())

	// La aprobación se clasifica como APPROVAL en el historial.
	entries, err := f.store.History().ListByEntity(entity.EntityKindRequisition, req.ID, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.HistoryOpAPPROVAL, entries[0].Operation)
}

func TestApprove_CantidadFueraDeRango(t *testing.T) {
	f := newFixture(t)
	req := f.create(t)

	err := f.uc.Approve(context.Background(), req.ID, map[string]decimal.Decimal{
		req.Lines[0].ID: dec("25"), // solicitado 20
	}, approver)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// La transacción fallida no deja reservas parciales.
	assert.True(t, f.balance(t, itemA).ReservedQuantity.IsZero())
}

func TestReject_DesdeAprobadaLiberaReservas(t *testing.T) {
	f := newFixture(t)
	req := f.create(t)
	require.NoError(t, f.uc.Approve(context.Background(), req.ID, nil, approver))
	require.Equal(t, "20", f.balance(t, itemA).ReservedQuantity.String())

	err := f.uc.Reject(context.Background(), req.ID, "sin presupuesto", approver)
	require.NoError(t, err)

	assert.True(t, f.balance(t, itemA).ReservedQuantity.IsZero())
	assert.True(t, f.balance(t, itemB).ReservedQuantity.IsZero())

	reservations, err := f.store.Repos().Reservations.ListByRequisition(req.ID)
	require.NoError(t, err)
	for _, res := range reservations {
		assert.False(t, res.IsActive)
		require.NotNil(t, res.ReleasedAt, "rechazo libera, no consume")
		assert.Nil(t, res.ConsumedAt)
		assert.Equal(t, "sin presupuesto", res.ReleaseReason)
	}
}

func TestReject_RequiereMotivo(t *testing.T) {
	f := newFixture(t)
	req := f.create(t)
	err := f.uc.Reject(context.Background(), req.ID, "", approver)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFulfill_Completa(t *testing.T) {
	f := newFixture(t)
	req := f.create(t)
	require.NoError(t, f.uc.Approve(context.Background(), req.ID, nil, approver))

	err := f.uc.Fulfill(context.Background(), req.ID, nil, approver)
	require.NoError(t, err)

	got, err := f.uc.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RequisitionStatusFULFILLED, got.Status)
	assert.Equal(t, "20", got.Lines[0].FulfilledQty.String())

	// El stock salió al costo promedio y las reservas quedaron consumidas.
	balA := f.balance(t, itemA)
	assert.Equal(t, "80", balA.Quantity.String())
	assert.True(t, balA.ReservedQuantity.IsZero())

	reservations, err := f.store.Repos().Reservations.ListByRequisition(req.ID)
	require.NoError(t, err)
	for _, res := range reservations {
		require.NotNil(t, res.ConsumedAt)
		assert.Nil(t, res.ReleasedAt)
	}

	// Un EXIT por línea, referenciando requisición y línea.
	movs, err := f.store.Movements().List(repository.MovementFilter{WarehouseID: whMain, Limit: 10})
	require.NoError(t, err)
	require.Len(t, movs, 2)
	for _, m := range movs {
		assert.Equal(t, entity.MovementTypeEXIT, m.Type)
		assert.Equal(t, req.ID, m.RequisitionID)
		assert.NotEmpty(t, m.RequisitionLineID)
	}
}

func TestFulfill_ParcialDejaPartiallyFulfilled(t *testing.T) {
	f := newFixture(t)
	req := f.create(t)
	require.NoError(t, f.uc.Approve(context.Background(), req.ID, nil, approver))

	err := f.uc.Fulfill(context.Background(), req.ID, map[string]decimal.Decimal{
		req.Lines[0].ID: dec("12"), // de 20
	}, approver)
	require.NoError(t, err)

	got, err := f.uc.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RequisitionStatusPartiallyFulfilled, got.Status)
	assert.Equal(t, "12", got.Lines[0].FulfilledQty.String())
	assert.Equal(t, "5", got.Lines[1].FulfilledQty.String(), "línea ausente se entrega completa")
}

func TestFulfill_CantidadMayorALaConcedida(t *testing.T) {
	f := newFixture(t)
	req := f.create(t)
	require.NoError(t, f.uc.Approve(context.Background(), req.ID, map[string]decimal.Decimal{
		req.Lines[0].ID: dec("10"),
	}, approver))

	err := f.uc.Fulfill(context.Background(), req.ID, map[string]decimal.Decimal{
		req.Lines[0].ID: dec("11"), // concedido 10
	}, approver)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFulfill_DesdePendingRechazado(t *testing.T) {
	f := newFixture(t)
	req := f.create(t)
	err := f.uc.Fulfill(context.Background(), req.ID, nil, approver)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestSoftDeleteLine_YRestore(t *testing.T) {
	f := newFixture(t)
	req := f.create(t)
	lineID := req.Lines[1].ID

	err := f.uc.SoftDeleteLine(context.Background(), req.ID, lineID, "", approver)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "el borrado requiere motivo")

	require.NoError(t, f.uc.SoftDeleteLine(context.Background(), req.ID, lineID, "ítem descontinuado", approver))

	// La línea eliminada no participa en la aprobación.
	require.NoError(t, f.uc.Approve(context.Background(), req.ID, nil, approver))
	assert.True(t, f.balance(t, itemB).ReservedQuantity.IsZero(), "línea soft-deleted no reserva")
	assert.Equal(t, "20", f.balance(t, itemA).ReservedQuantity.String())

	entries, err := f.store.History().ListByEntity(entity.EntityKindRequisitionLine, lineID, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.HistoryOpSoftDelete, entries[0].Operation)
	assert.False(t, entries[0].IsRollbackPoint, "SOFT_DELETE nunca es punto de rollback")

	require.NoError(t, f.uc.RestoreLine(context.Background(), req.ID, lineID, approver))
	got, err := f.uc.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Line(lineID).DeletedAt)
}

func TestStartProcessing(t *testing.T) {
	f := newFixture(t)
	req := f.create(t)

	err := f.uc.StartProcessing(context.Background(), req.ID, approver)
	assert.ErrorIs(t, err, domain.ErrConflict, "PENDING no pasa directo a PROCESSING")

	require.NoError(t, f.uc.Approve(context.Background(), req.ID, nil, approver))
	require.NoError(t, f.uc.StartProcessing(context.Background(), req.ID, approver))

	got, err := f.uc.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RequisitionStatusPROCESSING, got.Status)
}
