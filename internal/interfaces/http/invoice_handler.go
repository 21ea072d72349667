package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/almacen-ledger/internal/application/dto"
	appinvoice "github.com/tu-usuario/almacen-ledger/internal/application/invoice"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
)

// InvoiceHandler maneja facturas de entrada (protegido).
type InvoiceHandler struct {
	uc *appinvoice.UseCase
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(uc *appinvoice.UseCase) *InvoiceHandler {
	return &InvoiceHandler{uc: uc}
}

// Create godoc
// @Summary      Crear factura de entrada en borrador
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateInvoiceRequest  true  "número, bodega y líneas"
// @Success      201   {object}  dto.InvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/invoices [post]
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	input := appinvoice.CreateInput{
		Number:      in.Number,
		SupplierID:  in.SupplierID,
		WarehouseID: in.WarehouseID,
	}
	for _, l := range in.Lines {
		input.Lines = append(input.Lines, appinvoice.LineInput{
			ItemID:    l.ItemID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	inv, err := h.uc.Create(c.Context(), input, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toInvoiceResponse(inv))
}

// GetByID godoc
// @Summary      Obtener factura
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	inv, err := h.uc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toInvoiceResponse(inv))
}

// List godoc
// @Summary      Listar facturas
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "Filtrar por estado (DRAFT, POSTED)"
// @Success      200  {array}  dto.InvoiceResponse
// @Router       /api/invoices [get]
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	invs, err := h.uc.List(c.Context(), c.Query("status"), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.InvoiceResponse, 0, len(invs))
	for _, inv := range invs {
		out = append(out, toInvoiceResponse(inv))
	}
	return c.JSON(fiber.Map{"total": len(out), "invoices": out})
}

// Post godoc
// @Summary      Contabilizar factura (registra las entradas de stock)
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/post [post]
func (h *InvoiceHandler) Post(c *fiber.Ctx) error {
	if err := h.uc.Post(c.Context(), c.Params("id"), GetUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "factura contabilizada"})
}

// Unpost godoc
// @Summary      Descontabilizar factura (revierte las entradas)
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReasonRequest  true  "motivo"
// @Success      200  {object}  map[string]string
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/unpost [post]
func (h *InvoiceHandler) Unpost(c *fiber.Ctx) error {
	var in dto.ReasonRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.uc.Unpost(c.Context(), c.Params("id"), in.Reason, GetUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "factura descontabilizada"})
}

func toInvoiceResponse(i *entity.Invoice) dto.InvoiceResponse {
	out := dto.InvoiceResponse{
		ID:          i.ID,
		Number:      i.Number,
		SupplierID:  i.SupplierID,
		WarehouseID: i.WarehouseID,
		Status:      i.Status,
		Total:       i.Total,
		PostedAt:    i.PostedAt,
		PostedBy:    i.PostedBy,
		CreatedAt:   i.CreatedAt,
	}
	for _, l := range i.Lines {
		out.Lines = append(out.Lines, dto.InvoiceLineResponse{
			ID:        l.ID,
			ItemID:    l.ItemID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal,
		})
	}
	return out
}
