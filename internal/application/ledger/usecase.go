package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/almacen-ledger/internal/domain"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
	"github.com/tu-usuario/almacen-ledger/internal/domain/ledger"
	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
	"github.com/tu-usuario/almacen-ledger/pkg/logger"
)

// UseCase es el motor del ledger: registra movimientos de forma transaccional
// con bloqueo de fila (SELECT FOR UPDATE) sobre el saldo agregado, mantiene el
// costo promedio ponderado y captura los pares before/after en cada movimiento.
type UseCase struct {
	txRunner      TxRunner
	itemRepo      repository.ItemRepository
	warehouseRepo repository.WarehouseRepository
	balanceRepo   repository.StockBalanceRepository
	movementRepo  repository.StockMovementRepository
	threshold     decimal.Decimal // umbral de divergencia de precio (p.ej. 0.20)
	log           *logger.Logger
}

// NewUseCase construye el motor del ledger.
func NewUseCase(
	txRunner TxRunner,
	itemRepo repository.ItemRepository,
	warehouseRepo repository.WarehouseRepository,
	balanceRepo repository.StockBalanceRepository,
	movementRepo repository.StockMovementRepository,
	divergenceThreshold decimal.Decimal,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		txRunner:      txRunner,
		itemRepo:      itemRepo,
		warehouseRepo: warehouseRepo,
		balanceRepo:   balanceRepo,
		movementRepo:  movementRepo,
		threshold:     divergenceThreshold,
		log:           log,
	}
}

// MovementInput entrada para registrar un movimiento.
// RawQuantity viene en Unit; la cantidad base es RawQuantity * ConversionFactor.
// UnitPrice solo se respeta en entradas: las salidas se costean al promedio vigente.
type MovementInput struct {
	WarehouseID string
	ItemID      string
	Type        string

	RawQuantity      decimal.Decimal
	Unit             string
	ConversionFactor decimal.Decimal // cero = 1
	UnitPrice        decimal.Decimal

	// Justificación obligatoria cuando la divergencia de precio supera el umbral.
	Justification string

	InvoiceID          string
	InvoiceLineID      string
	RequisitionID      string
	RequisitionLineID  string
	RelatedWarehouseID string

	BatchNumber string
	ExpiresAt   *time.Time

	ActorID string
}

// RecordMovement valida la entrada, inicia una transacción, bloquea la fila del
// saldo y aplica la secuencia leer-validar-escribir. Los ítems no almacenables
// producen un registro de efecto cero sin tocar el saldo.
func (uc *UseCase) RecordMovement(ctx context.Context, input MovementInput) (*entity.StockMovement, error) {
	if err := uc.validate(&input); err != nil {
		return nil, err
	}

	item, err := uc.itemRepo.GetByID(input.ItemID)
	if err != nil || item == nil {
		return nil, domain.ErrNotFound
	}
	wh, err := uc.warehouseRepo.GetByID(input.WarehouseID)
	if err != nil || wh == nil {
		return nil, domain.ErrNotFound
	}

	now := time.Now()
	var mov *entity.StockMovement
	err = uc.txRunner.Run(ctx, func(r Repos) error {
		var txErr error
		mov, txErr = uc.recordInTx(r, item, input, now)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return mov, nil
}

// RecordMovementInTx registra un movimiento usando los repositorios del caller
// (misma transacción). Lo usan la atención de requisiciones (EXIT por línea) y
// la contabilización de facturas (ENTRY / ADJUSTMENT_SUB por línea).
func (uc *UseCase) RecordMovementInTx(r Repos, input MovementInput, now time.Time) (*entity.StockMovement, error) {
	if err := uc.validate(&input); err != nil {
		return nil, err
	}
	item, err := uc.itemRepo.GetByID(input.ItemID)
	if err != nil || item == nil {
		return nil, domain.ErrNotFound
	}
	return uc.recordInTx(r, item, input, now)
}

func (uc *UseCase) validate(input *MovementInput) error {
	if !entity.IsValidMovementType(input.Type) {
		return fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, input.Type)
	}
	if input.WarehouseID == "" || input.ItemID == "" {
		return fmt.Errorf("%w: bodega e ítem son obligatorios", domain.ErrInvalidInput)
	}
	if !input.RawQuantity.GreaterThan(decimal.Zero) {
		return fmt.Errorf("%w: la cantidad debe ser positiva", domain.ErrInvalidInput)
	}
	if input.ConversionFactor.IsZero() {
		input.ConversionFactor = decimal.NewFromInt(1)
	}
	if input.ConversionFactor.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: factor de conversión inválido", domain.ErrInvalidInput)
	}
	if input.UnitPrice.LessThan(decimal.Zero) {
		return fmt.Errorf("%w: precio unitario negativo", domain.ErrInvalidInput)
	}
	return nil
}

// recordInTx es la unidad atómica del §movimiento: bloquea la fila del saldo,
// valida bloqueo/divergencia/saldo, captura snapshots y persiste movimiento y
// agregado. Asume que la validación de entrada ya pasó.
func (uc *UseCase) recordInTx(r Repos, item *entity.Item, input MovementInput, now time.Time) (*entity.StockMovement, error) {
	quantity := input.RawQuantity.Mul(input.ConversionFactor)

	mov := &entity.StockMovement{
		ID:                 uuid.New().String(),
		WarehouseID:        input.WarehouseID,
		ItemID:             input.ItemID,
		Type:               input.Type,
		RawQuantity:        input.RawQuantity,
		Unit:               input.Unit,
		ConversionFactor:   input.ConversionFactor,
		Quantity:           quantity,
		UnitPrice:          input.UnitPrice,
		Justification:      input.Justification,
		InvoiceID:          input.InvoiceID,
		InvoiceLineID:      input.InvoiceLineID,
		RequisitionID:      input.RequisitionID,
		RequisitionLineID:  input.RequisitionLineID,
		RelatedWarehouseID: input.RelatedWarehouseID,
		BatchNumber:        input.BatchNumber,
		ExpiresAt:          input.ExpiresAt,
		CreatedAt:          now,
		CreatedBy:          input.ActorID,
	}

	// Ítems no almacenables (servicios) no afectan saldo: registro de efecto cero.
	if !item.IsStockable {
		mov.Quantity = decimal.Zero
		mov.TotalValue = decimal.Zero
		if err := r.Movements.Create(mov); err != nil {
			return nil, err
		}
		return mov, nil
	}

	// Bloquea la fila del saldo antes de leer cantidad/promedio; la ausencia de
	// fila se trata como (0, 0, sin bloqueo).
	bal, err := r.Balances.GetForUpdate(input.WarehouseID, input.ItemID)
	if err != nil {
		return nil, err
	}

	if bal.IsBlocked && !entity.MovementAllowedWhenBlocked(input.Type) {
		return nil, &domain.ItemBlockedError{
			WarehouseID: input.WarehouseID,
			ItemID:      input.ItemID,
			Reason:      bal.BlockReason,
		}
	}

	mov.BalanceBefore = bal.Quantity
	mov.AverageBefore = bal.AverageUnitValue

	if entity.IsInboundMovement(input.Type) {
		if err := uc.checkDivergence(mov, bal.AverageUnitValue); err != nil {
			return nil, err
		}
		bal.Quantity = bal.Quantity.Add(quantity)
		bal.AverageUnitValue = ledger.AverageCost(mov.BalanceBefore, mov.AverageBefore, quantity, input.UnitPrice)
		bal.LastEntryAt = &now
	} else {
		if quantity.GreaterThan(bal.Quantity) {
			return nil, &domain.InsufficientBalanceError{
				WarehouseID: input.WarehouseID,
				ItemID:      input.ItemID,
				Available:   bal.Quantity,
				Requested:   quantity,
			}
		}
		// Las salidas se costean siempre al promedio vigente; se ignora el
		// precio informado por el caller.
		mov.UnitPrice = bal.AverageUnitValue
		bal.Quantity = bal.Quantity.Sub(quantity)
		bal.LastExitAt = &now
	}

	mov.TotalValue = mov.Quantity.Mul(mov.UnitPrice)
	mov.BalanceAfter = bal.Quantity
	mov.AverageAfter = bal.AverageUnitValue
	bal.UpdatedAt = now

	if err := r.Balances.Upsert(bal); err != nil {
		return nil, err
	}
	if err := r.Movements.Create(mov); err != nil {
		return nil, err
	}

	if uc.log != nil && (bal.BelowMin() || bal.AboveMax()) {
		uc.log.Warn().
			Str("warehouse_id", bal.WarehouseID).
			Str("item_id", bal.ItemID).
			Str("quantity", bal.Quantity.String()).
			Msg("saldo fuera de los límites min/max configurados")
	}
	return mov, nil
}

// checkDivergence aplica la verificación de divergencia de precio para
// ADJUSTMENT_ADD y DONATION_IN con promedio y precio positivos. Si supera el
// umbral, el movimiento queda marcado para revisión y exige justificación.
func (uc *UseCase) checkDivergence(mov *entity.StockMovement, average decimal.Decimal) error {
	if !entity.RequiresDivergenceCheck(mov.Type) {
		return nil
	}
	if !average.GreaterThan(decimal.Zero) || !mov.UnitPrice.GreaterThan(decimal.Zero) {
		return nil
	}
	if !ledger.ExceedsThreshold(mov.UnitPrice, average, uc.threshold) {
		return nil
	}
	mov.RequiresReview = true
	if mov.Justification == "" {
		return &domain.MissingJustificationError{
			Divergence: ledger.Divergence(mov.UnitPrice, average),
			Threshold:  uc.threshold,
		}
	}
	return nil
}

// CurrentBalance devuelve el saldo agregado de un ítem en una bodega.
// La ausencia de fila se reporta como saldo cero.
func (uc *UseCase) CurrentBalance(ctx context.Context, warehouseID, itemID string) (*entity.StockBalance, error) {
	if warehouseID == "" || itemID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.balanceRepo.Get(warehouseID, itemID)
}

// ListMovements lista movimientos con filtros de bodega/ítem/rango.
func (uc *UseCase) ListMovements(ctx context.Context, filter repository.MovementFilter) ([]*entity.StockMovement, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return uc.movementRepo.List(filter)
}

// ClearReview marca como resuelta la revisión por divergencia de un movimiento.
// Operación explícita: la bandera nunca se limpia de forma implícita.
func (uc *UseCase) ClearReview(ctx context.Context, movementID, reviewerID string) error {
	if movementID == "" || reviewerID == "" {
		return domain.ErrInvalidInput
	}
	mov, err := uc.movementRepo.GetByID(movementID)
	if err != nil {
		return err
	}
	if mov == nil {
		return domain.ErrNotFound
	}
	if !mov.RequiresReview {
		return fmt.Errorf("%w: el movimiento no requiere revisión", domain.ErrConflict)
	}
	if mov.ReviewedAt != nil {
		return fmt.Errorf("%w: el movimiento ya fue revisado", domain.ErrConflict)
	}
	return uc.movementRepo.MarkReviewed(movementID, reviewerID, time.Now())
}

// BlockItem bloquea un ítem en una bodega. Los movimientos salientes quedan
// rechazados hasta desbloquear; las correcciones entrantes siguen permitidas.
func (uc *UseCase) BlockItem(ctx context.Context, warehouseID, itemID, reason string) error {
	if reason == "" {
		return fmt.Errorf("%w: el bloqueo requiere motivo", domain.ErrInvalidInput)
	}
	return uc.txRunner.Run(ctx, func(r Repos) error {
		bal, err := r.Balances.GetForUpdate(warehouseID, itemID)
		if err != nil {
			return err
		}
		bal.IsBlocked = true
		bal.BlockReason = reason
		bal.UpdatedAt = time.Now()
		return r.Balances.Upsert(bal)
	})
}

// SetStockLimits configura stock mínimo/máximo y ubicación del saldo.
// Valida min <= max cuando ambos están definidos.
func (uc *UseCase) SetStockLimits(ctx context.Context, warehouseID, itemID string, minStock, maxStock *decimal.Decimal, location string) error {
	if minStock != nil && maxStock != nil && minStock.GreaterThan(*maxStock) {
		return fmt.Errorf("%w: stock mínimo mayor que el máximo", domain.ErrInvalidInput)
	}
	return uc.txRunner.Run(ctx, func(r Repos) error {
		bal, err := r.Balances.GetForUpdate(warehouseID, itemID)
		if err != nil {
			return err
		}
		bal.MinStock = minStock
		bal.MaxStock = maxStock
		if location != "" {
			bal.Location = location
		}
		bal.UpdatedAt = time.Now()
		return r.Balances.Upsert(bal)
	})
}

// UnblockItem levanta el bloqueo de un ítem en una bodega.
func (uc *UseCase) UnblockItem(ctx context.Context, warehouseID, itemID string) error {
	return uc.txRunner.Run(ctx, func(r Repos) error {
		bal, err := r.Balances.GetForUpdate(warehouseID, itemID)
		if err != nil {
			return err
		}
		if !bal.IsBlocked {
			return fmt.Errorf("%w: el ítem no está bloqueado", domain.ErrConflict)
		}
		bal.IsBlocked = false
		bal.BlockReason = ""
		bal.UpdatedAt = time.Now()
		return r.Balances.Upsert(bal)
	})
}
