package invoice_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphistory "github.com/tu-usuario/almacen-ledger/internal/application/history"
	appinvoice "github.com/tu-usuario/almacen-ledger/internal/application/invoice"
	appledger "github.com/tu-usuario/almacen-ledger/internal/application/ledger"
	"github.com/tu-usuario/almacen-ledger/internal/domain"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
	"github.com/tu-usuario/almacen-ledger/internal/infrastructure/memory"
)

const (
	whMain  = "wh-principal"
	itemA   = "item-a"
	itemB   = "item-b"
	poster  = "user-bodeguero"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newFixture(t *testing.T) (*appinvoice.UseCase, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.SeedWarehouse(&entity.Warehouse{ID: whMain, Code: "PRIN", Name: "Bodega principal", IsActive: true})
	store.SeedItem(&entity.Item{ID: itemA, Code: "A", Name: "Ítem A", Unit: "unidad", IsStockable: true})
	store.SeedItem(&entity.Item{ID: itemB, Code: "B", Name: "Ítem B", Unit: "unidad", IsStockable: true})

	txRunner := memory.NewTxRunner(store)
	ledgerUC := appledger.NewUseCase(
		txRunner, store.Items(), store.Warehouses(), store.Balances(), store.Movements(),
		dec("0.20"), nil,
	)
	recorder := apphistory.NewRecorder(store.History(), nil)
	uc := appinvoice.NewUseCase(txRunner, ledgerUC, recorder, store.Items(), store.Warehouses(), store.Invoices())
	return uc, store
}

func createDraft(t *testing.T, uc *appinvoice.UseCase) *entity.Invoice {
	t.Helper()
	inv, err := uc.Create(context.Background(), appinvoice.CreateInput{
		Number:      "FAC-001",
		SupplierID:  "prov-1",
		WarehouseID: whMain,
		Lines: []appinvoice.LineInput{
			{ItemID: itemA, Quantity: dec("100"), UnitPrice: dec("7.00")},
			{ItemID: itemB, Quantity: dec("10"), UnitPrice: dec("3.50")},
		},
	}, poster)
	require.NoError(t, err)
	return inv
}

func TestCreate_BorradorSinEfectoEnLedger(t *testing.T) {
	uc, store := newFixture(t)
	inv := createDraft(t, uc)

	assert.Equal(t, entity.InvoiceStatusDRAFT, inv.Status)
	assert.Equal(t, "735", inv.Total.String(), "100x7.00 + 10x3.50")

	bal, err := store.Balances().Get(whMain, itemA)
	require.NoError(t, err)
	assert.True(t, bal.Quantity.IsZero(), "el borrador no toca el saldo")
}

func TestCreate_Validaciones(t *testing.T) {
	uc, _ := newFixture(t)

	_, err := uc.Create(context.Background(), appinvoice.CreateInput{
		WarehouseID: whMain,
		Lines:       []appinvoice.LineInput{{ItemID: itemA, Quantity: dec("1"), UnitPrice: dec("1")}},
	}, poster)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "número obligatorio")

	_, err = uc.Create(context.Background(), appinvoice.CreateInput{
		Number:      "FAC-002",
		WarehouseID: whMain,
		Lines:       []appinvoice.LineInput{{ItemID: itemA, Quantity: dec("0"), UnitPrice: dec("1")}},
	}, poster)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "cantidad positiva obligatoria")
}

func TestPost_GeneraUnEntryPorLinea(t *testing.T) {
	uc, store := newFixture(t)
	inv := createDraft(t, uc)

	require.NoError(t, uc.Post(context.Background(), inv.ID, poster))

	got, err := uc.GetByID(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusPOSTED, got.Status)
	require.NotNil(t, got.PostedAt)
	assert.Equal(t, poster, got.PostedBy)

	balA, err := store.Balances().Get(whMain, itemA)
	require.NoError(t, err)
	assert.Equal(t, "100", balA.Quantity.String())
	assert.True(t, balA.AverageUnitValue.Equal(dec("7.00")), "el promedio toma el precio de línea")

	movs, err := store.Movements().List(repository.MovementFilter{WarehouseID: whMain, Limit: 10})
	require.NoError(t, err)
	require.Len(t, movs, 2)
	for _, m := range movs {
		assert.Equal(t, entity.MovementTypeENTRY, m.Type)
		assert.Equal(t, inv.ID, m.InvoiceID)
		assert.NotEmpty(t, m.InvoiceLineID)
	}
}

func TestPost_SoloDesdeBorrador(t *testing.T) {
	uc, _ := newFixture(t)
	inv := createDraft(t, uc)
	require.NoError(t, uc.Post(context.Background(), inv.ID, poster))

	err := uc.Post(context.Background(), inv.ID, poster)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUnpost_RevierteConAjustes(t *testing.T) {
	uc, store := newFixture(t)
	inv := createDraft(t, uc)
	require.NoError(t, uc.Post(context.Background(), inv.ID, poster))

	err := uc.Unpost(context.Background(), inv.ID, "", poster)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "descontabilizar requiere motivo")

	require.NoError(t, uc.Unpost(context.Background(), inv.ID, "precio de compra errado", poster))

	got, err := uc.GetByID(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusDRAFT, got.Status)
	assert.Nil(t, got.PostedAt)

	balA, err := store.Balances().Get(whMain, itemA)
	require.NoError(t, err)
	assert.True(t, balA.Quantity.IsZero(), "las entradas quedaron revertidas")

	// Cada reverso es un ADJUSTMENT_SUB con la justificación y la misma línea.
	movs, err := store.Movements().List(repository.MovementFilter{WarehouseID: whMain, Limit: 10})
	require.NoError(t, err)
	reversals := 0
	for _, m := range movs {
		if m.Type != entity.MovementTypeAdjustSub {
			continue
		}
		reversals++
		assert.Equal(t, "precio de compra errado", m.Justification)
		assert.Equal(t, inv.ID, m.InvoiceID)
	}
	assert.Equal(t, 2, reversals)
}

func TestUnpost_ConStockConsumidoFalla(t *testing.T) {
	uc, store := newFixture(t)
	inv := createDraft(t, uc)
	require.NoError(t, uc.Post(context.Background(), inv.ID, poster))

	// Se consume parte del stock de la factura.
	txRunner := memory.NewTxRunner(store)
	ledgerUC := appledger.NewUseCase(
		txRunner, store.Items(), store.Warehouses(), store.Balances(), store.Movements(),
		dec("0.20"), nil,
	)
	_, err := ledgerUC.RecordMovement(context.Background(), appledger.MovementInput{
		WarehouseID: whMain,
		ItemID:      itemA,
		Type:        entity.MovementTypeEXIT,
		RawQuantity: dec("40"),
		ActorID:     poster,
	})
	require.NoError(t, err)

	err = uc.Unpost(context.Background(), inv.ID, "reverso tardío", poster)
	var insufficient *domain.InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient, "el stock ya consumido impide descontabilizar")

	// La factura sigue contabilizada.
	got, err := uc.GetByID(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusPOSTED, got.Status)
}

func TestCreate_NumeroDuplicado(t *testing.T) {
	uc, _ := newFixture(t)
	createDraft(t, uc)

	_, err := uc.Create(context.Background(), appinvoice.CreateInput{
		Number:      "FAC-001",
		WarehouseID: whMain,
		Lines:       []appinvoice.LineInput{{ItemID: itemA, Quantity: dec("1"), UnitPrice: dec("1")}},
	}, poster)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}
