package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/almacen-ledger/internal/application/dto"
	apprequisition "github.com/tu-usuario/almacen-ledger/internal/application/requisition"
	approllback "github.com/tu-usuario/almacen-ledger/internal/application/rollback"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
)

// RequisitionHandler maneja el ciclo de vida de requisiciones (protegido).
// La cancelación vive en el motor de rollback porque comparte sus validaciones
// de efectos irreversibles.
type RequisitionHandler struct {
	uc       *apprequisition.UseCase
	rollback *approllback.UseCase
}

// NewRequisitionHandler construye el handler.
func NewRequisitionHandler(uc *apprequisition.UseCase, rollback *approllback.UseCase) *RequisitionHandler {
	return &RequisitionHandler{uc: uc, rollback: rollback}
}

// Create godoc
// @Summary      Crear requisición
// @Tags         requisitions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateRequisitionRequest  true  "warehouse_id y líneas"
// @Success      201   {object}  dto.RequisitionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/requisitions [post]
func (h *RequisitionHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateRequisitionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	actor := GetUserID(c)
	requester := in.RequesterID
	if requester == "" {
		requester = actor
	}
	input := apprequisition.CreateInput{
		WarehouseID: in.WarehouseID,
		RequesterID: requester,
		Notes:       in.Notes,
	}
	for _, l := range in.Lines {
		input.Lines = append(input.Lines, apprequisition.LineInput{ItemID: l.ItemID, Quantity: l.Quantity})
	}
	req, err := h.uc.Create(c.Context(), input, actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toRequisitionResponse(req))
}

// GetByID godoc
// @Summary      Obtener requisición
// @Tags         requisitions
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.RequisitionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/requisitions/{id} [get]
func (h *RequisitionHandler) GetByID(c *fiber.Ctx) error {
	req, err := h.uc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toRequisitionResponse(req))
}

// List godoc
// @Summary      Listar requisiciones
// @Tags         requisitions
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "Filtrar por estado"
// @Success      200  {array}  dto.RequisitionResponse
// @Router       /api/requisitions [get]
func (h *RequisitionHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	reqs, err := h.uc.List(c.Context(), c.Query("status"), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.RequisitionResponse, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, toRequisitionResponse(r))
	}
	return c.JSON(fiber.Map{"total": len(out), "requisitions": out})
}

// Approve godoc
// @Summary      Aprobar requisición (crea las reservas)
// @Tags         requisitions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ApproveRequisitionRequest  false  "cantidades aprobadas por línea"
// @Success      200  {object}  map[string]string
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/requisitions/{id}/approve [post]
func (h *RequisitionHandler) Approve(c *fiber.Ctx) error {
	var in dto.ApproveRequisitionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		}
	}
	if err := h.uc.Approve(c.Context(), c.Params("id"), in.Approvals, GetUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "requisición aprobada"})
}

// Reject godoc
// @Summary      Rechazar requisición (motivo obligatorio)
// @Tags         requisitions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReasonRequest  true  "motivo"
// @Success      200  {object}  map[string]string
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/requisitions/{id}/reject [post]
func (h *RequisitionHandler) Reject(c *fiber.Ctx) error {
	var in dto.ReasonRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.uc.Reject(c.Context(), c.Params("id"), in.Reason, GetUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "requisición rechazada"})
}

// StartProcessing godoc
// @Summary      Iniciar la preparación de la requisición
// @Tags         requisitions
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /api/requisitions/{id}/process [post]
func (h *RequisitionHandler) StartProcessing(c *fiber.Ctx) error {
	if err := h.uc.StartProcessing(c.Context(), c.Params("id"), GetUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "requisición en preparación"})
}

// Fulfill godoc
// @Summary      Atender la requisición (registra las salidas de stock)
// @Tags         requisitions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.FulfillRequisitionRequest  false  "cantidades entregadas por línea"
// @Success      200  {object}  map[string]string
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/requisitions/{id}/fulfill [post]
func (h *RequisitionHandler) Fulfill(c *fiber.Ctx) error {
	var in dto.FulfillRequisitionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		}
	}
	if err := h.uc.Fulfill(c.Context(), c.Params("id"), in.Quantities, GetUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "requisición atendida"})
}

// Cancel godoc
// @Summary      Cancelar requisición sin efectos de stock
// @Tags         requisitions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReasonRequest  true  "motivo"
// @Success      200  {object}  map[string]string
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/requisitions/{id}/cancel [post]
func (h *RequisitionHandler) Cancel(c *fiber.Ctx) error {
	var in dto.ReasonRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.rollback.Cancel(c.Context(), c.Params("id"), in.Reason, GetUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "requisición cancelada"})
}

// SoftDeleteLine godoc
// @Summary      Eliminar (soft-delete) una línea de requisición
// @Tags         requisitions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReasonRequest  true  "motivo"
// @Success      200  {object}  map[string]string
// @Router       /api/requisitions/{id}/lines/{lineId} [delete]
func (h *RequisitionHandler) SoftDeleteLine(c *fiber.Ctx) error {
	var in dto.ReasonRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.uc.SoftDeleteLine(c.Context(), c.Params("id"), c.Params("lineId"), in.Reason, GetUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "línea eliminada"})
}

// RestoreLine godoc
// @Summary      Restaurar una línea eliminada
// @Tags         requisitions
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /api/requisitions/{id}/lines/{lineId}/restore [post]
func (h *RequisitionHandler) RestoreLine(c *fiber.Ctx) error {
	if err := h.uc.RestoreLine(c.Context(), c.Params("id"), c.Params("lineId"), GetUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "línea restaurada"})
}

func toRequisitionResponse(r *entity.Requisition) dto.RequisitionResponse {
	out := dto.RequisitionResponse{
		ID:           r.ID,
		WarehouseID:  r.WarehouseID,
		RequesterID:  r.RequesterID,
		Status:       r.Status,
		StatusReason: r.StatusReason,
		Notes:        r.Notes,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	for _, l := range r.Lines {
		out.Lines = append(out.Lines, dto.RequisitionLineResponse{
			ID:           l.ID,
			ItemID:       l.ItemID,
			RequestedQty: l.RequestedQty,
			ApprovedQty:  l.ApprovedQty,
			FulfilledQty: l.FulfilledQty,
			UnitValue:    l.UnitValue,
			TotalValue:   l.TotalValue,
			DeletedAt:    l.DeletedAt,
			DeleteReason: l.DeleteReason,
		})
	}
	return out
}
