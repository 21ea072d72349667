package ledger_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appledger "github.com/tu-usuario/almacen-ledger/internal/application/ledger"
	"github.com/tu-usuario/almacen-ledger/internal/domain"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
	"github.com/tu-usuario/almacen-ledger/internal/infrastructure/memory"
)

const (
	whMain   = "wh-principal"
	itemBolt = "item-tornillo"
	itemSvc  = "item-servicio"
	actor    = "user-1"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newFixture(t *testing.T) (*appledger.UseCase, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.SeedWarehouse(&entity.Warehouse{ID: whMain, Code: "PRIN", Name: "Bodega principal", IsActive: true})
	store.SeedItem(&entity.Item{ID: itemBolt, Code: "TOR-01", Name: "Tornillo", Unit: "unidad", IsStockable: true})
	store.SeedItem(&entity.Item{ID: itemSvc, Code: "SRV-01", Name: "Mantenimiento", Unit: "servicio", IsStockable: false})

	uc := appledger.NewUseCase(
		memory.NewTxRunner(store),
		store.Items(), store.Warehouses(), store.Balances(), store.Movements(),
		dec("0.20"), nil,
	)
	return uc, store
}

func entry(t *testing.T, uc *appledger.UseCase, qty, price string) *entity.StockMovement {
	t.Helper()
	mov, err := uc.RecordMovement(context.Background(), appledger.MovementInput{
		WarehouseID: whMain,
		ItemID:      itemBolt,
		Type:        entity.MovementTypeENTRY,
		RawQuantity: dec(qty),
		UnitPrice:   dec(price),
		ActorID:     actor,
	})
	require.NoError(t, err)
	return mov
}

// Escenario de referencia: 100 uds a $7.00 + 50 uds a $8.00 dejan el promedio
// en $7.33; una salida de 30 uds se costea al promedio y no lo mueve.
func TestRecordMovement_PromedioPonderadoYSalidaAlPromedio(t *testing.T) {
	uc, _ := newFixture(t)

	entry(t, uc, "100", "7.00")
	m2 := entry(t, uc, "50", "8.00")
	assert.Equal(t, "100", m2.BalanceBefore.String())
	assert.Equal(t, "150", m2.BalanceAfter.String())
	assert.Equal(t, "7.33", m2.AverageAfter.Round(2).String())

	exit, err := uc.RecordMovement(context.Background(), appledger.MovementInput{
		WarehouseID: whMain,
		ItemID:      itemBolt,
		Type:        entity.MovementTypeEXIT,
		RawQuantity: dec("30"),
		UnitPrice:   dec("99.99"), // las salidas ignoran el precio informado
		ActorID:     actor,
	})
	require.NoError(t, err)
	assert.Equal(t, "7.33", exit.UnitPrice.Round(2).String(), "la salida se costea al promedio vigente")
	assert.Equal(t, "120", exit.BalanceAfter.String())
	assert.True(t, exit.AverageBefore.Equal(exit.AverageAfter), "las salidas no mueven el promedio")

	bal, err := uc.CurrentBalance(context.Background(), whMain, itemBolt)
	require.NoError(t, err)
	assert.Equal(t, "120", bal.Quantity.String())
}

func TestRecordMovement_FactorDeConversion(t *testing.T) {
	uc, _ := newFixture(t)

	mov, err := uc.RecordMovement(context.Background(), appledger.MovementInput{
		WarehouseID:      whMain,
		ItemID:           itemBolt,
		Type:             entity.MovementTypeENTRY,
		RawQuantity:      dec("2"),
		Unit:             "caja",
		ConversionFactor: dec("12"),
		UnitPrice:        dec("1.00"),
		ActorID:          actor,
	})
	require.NoError(t, err)
	assert.Equal(t, "24", mov.Quantity.String(), "2 cajas x12 = 24 unidades base")
	assert.Equal(t, "2", mov.RawQuantity.String())
}

func TestRecordMovement_SaldoInsuficiente(t *testing.T) {
	uc, store := newFixture(t)
	entry(t, uc, "10", "5.00")

	_, err := uc.RecordMovement(context.Background(), appledger.MovementInput{
		WarehouseID: whMain,
		ItemID:      itemBolt,
		Type:        entity.MovementTypeEXIT,
		RawQuantity: dec("11"),
		ActorID:     actor,
	})
	var insufficient *domain.InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "10", insufficient.Available.String())
	assert.Equal(t, "11", insufficient.Requested.String())

	// La transacción fallida no debe dejar movimiento persistido.
	movs, err := store.Movements().List(repository.MovementFilter{WarehouseID: whMain, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, movs, 1)
}

func TestRecordMovement_ItemBloqueado(t *testing.T) {
	uc, _ := newFixture(t)
	entry(t, uc, "10", "5.00")
	require.NoError(t, uc.BlockItem(context.Background(), whMain, itemBolt, "conteo físico en curso"))

	// Salida rechazada.
	_, err := uc.RecordMovement(context.Background(), appledger.MovementInput{
		WarehouseID: whMain,
		ItemID:      itemBolt,
		Type:        entity.MovementTypeEXIT,
		RawQuantity: dec("1"),
		ActorID:     actor,
	})
	var blocked *domain.ItemBlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, "conteo físico en curso", blocked.Reason)

	// Las correcciones entrantes siguen permitidas sobre un ítem bloqueado.
	mov, err := uc.RecordMovement(context.Background(), appledger.MovementInput{
		WarehouseID: whMain,
		ItemID:      itemBolt,
		Type:        entity.MovementTypeENTRY,
		RawQuantity: dec("5"),
		UnitPrice:   dec("5.00"),
		ActorID:     actor,
	})
	require.NoError(t, err)
	assert.Equal(t, "15", mov.BalanceAfter.String())

	require.NoError(t, uc.UnblockItem(context.Background(), whMain, itemBolt))
	_, err = uc.RecordMovement(context.Background(), appledger.MovementInput{
		WarehouseID: whMain,
		ItemID:      itemBolt,
		Type:        entity.MovementTypeEXIT,
		RawQuantity: dec("1"),
		ActorID:     actor,
	})
	assert.NoError(t, err)
}

func TestRecordMovement_DivergenciaDePrecio(t *testing.T) {
	uc, _ := newFixture(t)
	entry(t, uc, "100", "10.00") // promedio $10.00

	// +30% de divergencia sin justificación: rechazado.
	_, err := uc.RecordMovement(context.Background(), appledger.MovementInput{
		WarehouseID: whMain,
		ItemID:      itemBolt,
		Type:        entity.MovementTypeAdjustAdd,
		RawQuantity: dec("10"),
		UnitPrice:   dec("13.00"),
		ActorID:     actor,
	})
	var missing *domain.MissingJustificationError
	require.ErrorAs(t, err, &missing)

	// Con justificación pasa y queda marcado para revisión.
	mov, err := uc.RecordMovement(context.Background(), appledger.MovementInput{
		WarehouseID:   whMain,
		ItemID:        itemBolt,
		Type:          entity.MovementTypeAdjustAdd,
		RawQuantity:   dec("10"),
		UnitPrice:     dec("13.00"),
		Justification: "reposición urgente de proveedor alterno",
		ActorID:       actor,
	})
	require.NoError(t, err)
	assert.True(t, mov.RequiresReview)

	// Un ENTRY normal con el mismo precio no dispara la verificación.
	m, err := uc.RecordMovement(context.Background(), appledger.MovementInput{
		WarehouseID: whMain,
		ItemID:      itemBolt,
		Type:        entity.MovementTypeENTRY,
		RawQuantity: dec("10"),
		UnitPrice:   dec("13.00"),
		ActorID:     actor,
	})
	require.NoError(t, err)
	assert.False(t, m.RequiresReview)
}

func TestClearReview(t *testing.T) {
	uc, _ := newFixture(t)
	entry(t, uc, "100", "10.00")
	mov, err := uc.RecordMovement(context.Background(), appledger.MovementInput{
		WarehouseID:   whMain,
		ItemID:        itemBolt,
		Type:          entity.MovementTypeDonationIn,
		RawQuantity:   dec("5"),
		UnitPrice:     dec("20.00"),
		Justification: "donación valorizada por el donante",
		ActorID:       actor,
	})
	require.NoError(t, err)
	require.True(t, mov.RequiresReview)

	require.NoError(t, uc.ClearReview(context.Background(), mov.ID, "supervisor-1"))

	// La revisión solo se resuelve una vez.
	err = uc.ClearReview(context.Background(), mov.ID, "supervisor-1")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRecordMovement_ItemNoAlmacenable(t *testing.T) {
	uc, _ := newFixture(t)

	mov, err := uc.RecordMovement(context.Background(), appledger.MovementInput{
		WarehouseID: whMain,
		ItemID:      itemSvc,
		Type:        entity.MovementTypeENTRY,
		RawQuantity: dec("3"),
		UnitPrice:   dec("100.00"),
		ActorID:     actor,
	})
	require.NoError(t, err)
	assert.True(t, mov.Quantity.IsZero(), "los servicios generan registro de efecto cero")
	assert.True(t, mov.TotalValue.IsZero())

	bal, err := uc.CurrentBalance(context.Background(), whMain, itemSvc)
	require.NoError(t, err)
	assert.True(t, bal.Quantity.IsZero(), "el saldo no debe tocarse")
}

func TestRecordMovement_Validaciones(t *testing.T) {
	uc, _ := newFixture(t)

	_, err := uc.RecordMovement(context.Background(), appledger.MovementInput{
		WarehouseID: whMain, ItemID: itemBolt, Type: "TELEPORT", RawQuantity: dec("1"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.RecordMovement(context.Background(), appledger.MovementInput{
		WarehouseID: whMain, ItemID: itemBolt, Type: entity.MovementTypeENTRY, RawQuantity: dec("-1"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.RecordMovement(context.Background(), appledger.MovementInput{
		WarehouseID: whMain, ItemID: "item-fantasma", Type: entity.MovementTypeENTRY, RawQuantity: dec("1"),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetStockLimits(t *testing.T) {
	uc, _ := newFixture(t)

	minS, maxS := dec("10"), dec("5")
	err := uc.SetStockLimits(context.Background(), whMain, itemBolt, &minS, &maxS, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "min > max debe rechazarse")

	minOK, maxOK := dec("5"), dec("100")
	require.NoError(t, uc.SetStockLimits(context.Background(), whMain, itemBolt, &minOK, &maxOK, "estante A3"))

	bal, err := uc.CurrentBalance(context.Background(), whMain, itemBolt)
	require.NoError(t, err)
	require.NotNil(t, bal.MinStock)
	assert.Equal(t, "5", bal.MinStock.String())
	assert.Equal(t, "estante A3", bal.Location)
}

func TestBlockItem_RequiereMotivo(t *testing.T) {
	uc, _ := newFixture(t)
	err := uc.BlockItem(context.Background(), whMain, itemBolt, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
