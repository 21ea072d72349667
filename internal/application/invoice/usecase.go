package invoice

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	apphistory "github.com/tu-usuario/almacen-ledger/internal/application/history"
	"github.com/tu-usuario/almacen-ledger/internal/application/ledger"
	"github.com/tu-usuario/almacen-ledger/internal/domain"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
)

// UseCase maneja facturas de entrada. Contabilizar una factura es la única vía
// por la que cantidad externa entra al ledger (un ENTRY por línea);
// descontabilizar revierte esas entradas como ADJUSTMENT_SUB referenciando las
// mismas líneas.
type UseCase struct {
	txRunner      ledger.TxRunner
	ledgerUC      *ledger.UseCase
	recorder      *apphistory.Recorder
	itemRepo      repository.ItemRepository
	warehouseRepo repository.WarehouseRepository
	invoiceRepo   repository.InvoiceRepository
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	txRunner ledger.TxRunner,
	ledgerUC *ledger.UseCase,
	recorder *apphistory.Recorder,
	itemRepo repository.ItemRepository,
	warehouseRepo repository.WarehouseRepository,
	invoiceRepo repository.InvoiceRepository,
) *UseCase {
	return &UseCase{
		txRunner:      txRunner,
		ledgerUC:      ledgerUC,
		recorder:      recorder,
		itemRepo:      itemRepo,
		warehouseRepo: warehouseRepo,
		invoiceRepo:   invoiceRepo,
	}
}

// LineInput línea de factura.
type LineInput struct {
	ItemID    string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// CreateInput entrada para crear una factura en borrador.
type CreateInput struct {
	Number      string
	SupplierID  string
	WarehouseID string
	Lines       []LineInput
}

// Create registra la factura en DRAFT sin efecto sobre el ledger.
func (uc *UseCase) Create(ctx context.Context, input CreateInput, actor string) (*entity.Invoice, error) {
	if input.Number == "" || input.WarehouseID == "" || len(input.Lines) == 0 {
		return nil, fmt.Errorf("%w: número, bodega y al menos una línea", domain.ErrInvalidInput)
	}
	wh, err := uc.warehouseRepo.GetByID(input.WarehouseID)
	if err != nil || wh == nil {
		return nil, domain.ErrNotFound
	}

	now := time.Now()
	inv := &entity.Invoice{
		ID:          uuid.New().String(),
		Number:      input.Number,
		SupplierID:  input.SupplierID,
		WarehouseID: input.WarehouseID,
		Status:      entity.InvoiceStatusDRAFT,
		Total:       decimal.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, in := range input.Lines {
		if !in.Quantity.GreaterThan(decimal.Zero) || in.UnitPrice.LessThan(decimal.Zero) {
			return nil, fmt.Errorf("%w: cantidad o precio de línea inválido", domain.ErrInvalidInput)
		}
		item, err := uc.itemRepo.GetByID(in.ItemID)
		if err != nil || item == nil {
			return nil, domain.ErrNotFound
		}
		subtotal := in.Quantity.Mul(in.UnitPrice)
		inv.Lines = append(inv.Lines, &entity.InvoiceLine{
			ID:        uuid.New().String(),
			InvoiceID: inv.ID,
			ItemID:    in.ItemID,
			Quantity:  in.Quantity,
			UnitPrice: in.UnitPrice,
			Subtotal:  subtotal,
		})
		inv.Total = inv.Total.Add(subtotal)
	}

	err = uc.txRunner.Run(ctx, func(r ledger.Repos) error {
		if err := r.Invoices.Create(inv); err != nil {
			return err
		}
		uc.recorder.RecordInTx(r, apphistory.Record{
			EntityKind: entity.EntityKindInvoice,
			EntityID:   inv.ID,
			After:      inv.ToSnapshot(),
			Actor:      actor,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// Post contabiliza la factura: DRAFT -> POSTED con un movimiento ENTRY por
// línea al precio de la línea. Las filas de saldo se bloquean en orden fijo de
// ítem para evitar interbloqueos.
func (uc *UseCase) Post(ctx context.Context, id, actor string) error {
	return uc.txRunner.Run(ctx, func(r ledger.Repos) error {
		inv, err := uc.load(r, id)
		if err != nil {
			return err
		}
		if inv.Status != entity.InvoiceStatusDRAFT {
			return fmt.Errorf("%w: solo se contabilizan facturas en borrador", domain.ErrConflict)
		}
		before := inv.ToSnapshot()
		now := time.Now()

		lines := append([]*entity.InvoiceLine(nil), inv.Lines...)
		sort.Slice(lines, func(i, j int) bool { return lines[i].ItemID < lines[j].ItemID })
		for _, line := range lines {
			if _, err := uc.ledgerUC.RecordMovementInTx(r, ledger.MovementInput{
				WarehouseID:   inv.WarehouseID,
				ItemID:        line.ItemID,
				Type:          entity.MovementTypeENTRY,
				RawQuantity:   line.Quantity,
				UnitPrice:     line.UnitPrice,
				InvoiceID:     inv.ID,
				InvoiceLineID: line.ID,
				ActorID:       actor,
			}, now); err != nil {
				return err
			}
		}

		inv.Status = entity.InvoiceStatusPOSTED
		inv.PostedAt = &now
		inv.PostedBy = actor
		inv.UpdatedAt = now
		if err := r.Invoices.Update(inv); err != nil {
			return err
		}
		uc.recorder.RecordInTx(r, apphistory.Record{
			EntityKind: entity.EntityKindInvoice,
			EntityID:   inv.ID,
			Before:     before,
			After:      inv.ToSnapshot(),
			Actor:      actor,
		})
		return nil
	})
}

// Unpost descontabiliza: revierte cada entrada con un ADJUSTMENT_SUB que
// referencia la misma línea de factura. Falla con saldo insuficiente si el
// stock ya fue consumido.
func (uc *UseCase) Unpost(ctx context.Context, id, reason, actor string) error {
	if reason == "" {
		return fmt.Errorf("%w: descontabilizar requiere motivo", domain.ErrInvalidInput)
	}
	return uc.txRunner.Run(ctx, func(r ledger.Repos) error {
		inv, err := uc.load(r, id)
		if err != nil {
			return err
		}
		if inv.Status != entity.InvoiceStatusPOSTED {
			return fmt.Errorf("%w: la factura no está contabilizada", domain.ErrConflict)
		}
		before := inv.ToSnapshot()
		now := time.Now()

		lines := append([]*entity.InvoiceLine(nil), inv.Lines...)
		sort.Slice(lines, func(i, j int) bool { return lines[i].ItemID < lines[j].ItemID })
		for _, line := range lines {
			if _, err := uc.ledgerUC.RecordMovementInTx(r, ledger.MovementInput{
				WarehouseID:   inv.WarehouseID,
				ItemID:        line.ItemID,
				Type:          entity.MovementTypeAdjustSub,
				RawQuantity:   line.Quantity,
				Justification: reason,
				InvoiceID:     inv.ID,
				InvoiceLineID: line.ID,
				ActorID:       actor,
			}, now); err != nil {
				return err
			}
		}

		inv.Status = entity.InvoiceStatusDRAFT
		inv.PostedAt = nil
		inv.PostedBy = ""
		inv.UpdatedAt = now
		if err := r.Invoices.Update(inv); err != nil {
			return err
		}
		uc.recorder.RecordInTx(r, apphistory.Record{
			EntityKind: entity.EntityKindInvoice,
			EntityID:   inv.ID,
			Before:     before,
			After:      inv.ToSnapshot(),
			Actor:      actor,
			Reason:     reason,
		})
		return nil
	})
}

// GetByID carga la factura con sus líneas.
func (uc *UseCase) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	inv, err := uc.invoiceRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	return inv, nil
}

// List lista facturas, opcionalmente filtradas por estado.
func (uc *UseCase) List(ctx context.Context, status string, limit, offset int) ([]*entity.Invoice, error) {
	if limit <= 0 {
		limit = 20
	}
	return uc.invoiceRepo.List(status, limit, offset)
}

func (uc *UseCase) load(r ledger.Repos, id string) (*entity.Invoice, error) {
	inv, err := r.Invoices.GetByID(id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	return inv, nil
}
