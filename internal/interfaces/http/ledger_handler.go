package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/almacen-ledger/internal/application/dto"
	appledger "github.com/tu-usuario/almacen-ledger/internal/application/ledger"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
)

// LedgerHandler maneja las peticiones HTTP del ledger de movimientos y los
// saldos agregados (protegido).
type LedgerHandler struct {
	uc *appledger.UseCase
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(uc *appledger.UseCase) *LedgerHandler {
	return &LedgerHandler{uc: uc}
}

// RecordMovement godoc
// @Summary      Registrar un movimiento de stock
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecordMovementRequest  true  "warehouse_id, item_id, type, quantity; unit_price en entradas"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/ledger/movements [post]
func (h *LedgerHandler) RecordMovement(c *fiber.Ctx) error {
	var in dto.RecordMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	mov, err := h.uc.RecordMovement(c.Context(), appledger.MovementInput{
		WarehouseID:        in.WarehouseID,
		ItemID:             in.ItemID,
		Type:               in.Type,
		RawQuantity:        in.Quantity,
		Unit:               in.Unit,
		ConversionFactor:   in.ConversionFactor,
		UnitPrice:          in.UnitPrice,
		Justification:      in.Justification,
		InvoiceID:          in.InvoiceID,
		RequisitionID:      in.RequisitionID,
		RelatedWarehouseID: in.RelatedWarehouseID,
		BatchNumber:        in.BatchNumber,
		ExpiresAt:          in.ExpiresAt,
		ActorID:            GetUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(mov))
}

// ListMovements godoc
// @Summary      Listar movimientos
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "Filtrar por bodega"
// @Param        item_id       query  string  false  "Filtrar por ítem"
// @Param        from          query  string  false  "Desde (RFC3339)"
// @Param        to            query  string  false  "Hasta (RFC3339)"
// @Success      200  {array}  dto.MovementResponse
// @Router       /api/ledger/movements [get]
func (h *LedgerHandler) ListMovements(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	filter := repository.MovementFilter{
		WarehouseID: c.Query("warehouse_id"),
		ItemID:      c.Query("item_id"),
		Limit:       page.Limit,
		Offset:      page.Offset,
	}
	if s := c.Query("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from inválido (RFC3339)"})
		}
		filter.From = &t
	}
	if s := c.Query("to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to inválido (RFC3339)"})
		}
		filter.To = &t
	}

	movs, err := h.uc.ListMovements(c.Context(), filter)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.MovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, toMovementResponse(m))
	}
	return c.JSON(fiber.Map{"total": len(out), "movements": out})
}

// ClearReview godoc
// @Summary      Resolver la revisión por divergencia de un movimiento
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del movimiento"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/ledger/movements/{id}/review [post]
func (h *LedgerHandler) ClearReview(c *fiber.Ctx) error {
	if err := h.uc.ClearReview(c.Context(), c.Params("id"), GetUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "revisión resuelta"})
}

// GetBalance godoc
// @Summary      Saldo de un ítem en una bodega
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        warehouseId  path  string  true  "ID de la bodega"
// @Param        itemId       path  string  true  "ID del ítem"
// @Success      200  {object}  dto.BalanceResponse
// @Router       /api/ledger/balances/{warehouseId}/{itemId} [get]
func (h *LedgerHandler) GetBalance(c *fiber.Ctx) error {
	bal, err := h.uc.CurrentBalance(c.Context(), c.Params("warehouseId"), c.Params("itemId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toBalanceResponse(bal))
}

// BlockItem godoc
// @Summary      Bloquear un ítem en una bodega
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        warehouseId  path  string                true  "ID de la bodega"
// @Param        itemId       path  string                true  "ID del ítem"
// @Param        body         body  dto.BlockItemRequest  true  "motivo del bloqueo"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/ledger/balances/{warehouseId}/{itemId}/block [post]
func (h *LedgerHandler) BlockItem(c *fiber.Ctx) error {
	var in dto.BlockItemRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.uc.BlockItem(c.Context(), c.Params("warehouseId"), c.Params("itemId"), in.Reason); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "ítem bloqueado"})
}

// UnblockItem godoc
// @Summary      Desbloquear un ítem en una bodega
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/ledger/balances/{warehouseId}/{itemId}/unblock [post]
func (h *LedgerHandler) UnblockItem(c *fiber.Ctx) error {
	if err := h.uc.UnblockItem(c.Context(), c.Params("warehouseId"), c.Params("itemId")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "ítem desbloqueado"})
}

// SetStockLimits godoc
// @Summary      Configurar stock mínimo/máximo y ubicación
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.StockLimitsRequest  true  "min_stock, max_stock, location"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/ledger/balances/{warehouseId}/{itemId}/limits [put]
func (h *LedgerHandler) SetStockLimits(c *fiber.Ctx) error {
	var in dto.StockLimitsRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.uc.SetStockLimits(c.Context(), c.Params("warehouseId"), c.Params("itemId"), in.MinStock, in.MaxStock, in.Location); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "límites actualizados"})
}

func toMovementResponse(m *entity.StockMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:             m.ID,
		WarehouseID:    m.WarehouseID,
		ItemID:         m.ItemID,
		Type:           m.Type,
		Quantity:       m.Quantity,
		UnitPrice:      m.UnitPrice,
		TotalValue:     m.TotalValue,
		BalanceBefore:  m.BalanceBefore,
		BalanceAfter:   m.BalanceAfter,
		AverageBefore:  m.AverageBefore,
		AverageAfter:   m.AverageAfter,
		RequiresReview: m.RequiresReview,
		CreatedAt:      m.CreatedAt,
		CreatedBy:      m.CreatedBy,
	}
}

func toBalanceResponse(b *entity.StockBalance) dto.BalanceResponse {
	return dto.BalanceResponse{
		WarehouseID:      b.WarehouseID,
		ItemID:           b.ItemID,
		Quantity:         b.Quantity,
		ReservedQuantity: b.ReservedQuantity,
		Available:        b.Available(),
		AverageUnitValue: b.AverageUnitValue,
		MinStock:         b.MinStock,
		MaxStock:         b.MaxStock,
		IsBlocked:        b.IsBlocked,
		BlockReason:      b.BlockReason,
		LastEntryAt:      b.LastEntryAt,
		LastExitAt:       b.LastExitAt,
	}
}
