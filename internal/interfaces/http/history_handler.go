package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/almacen-ledger/internal/application/dto"
	apphistory "github.com/tu-usuario/almacen-ledger/internal/application/history"
	approllback "github.com/tu-usuario/almacen-ledger/internal/application/rollback"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
)

// HistoryHandler expone el log de auditoría y el motor de rollback (protegido).
type HistoryHandler struct {
	recorder *apphistory.Recorder
	rollback *approllback.UseCase
}

// NewHistoryHandler construye el handler.
func NewHistoryHandler(recorder *apphistory.Recorder, rollback *approllback.UseCase) *HistoryHandler {
	return &HistoryHandler{recorder: recorder, rollback: rollback}
}

func validEntityKind(kind string) bool {
	switch kind {
	case entity.EntityKindRequisition, entity.EntityKindRequisitionLine, entity.EntityKindInvoice:
		return true
	}
	return false
}

// ListByEntity godoc
// @Summary      Historial de una entidad (más reciente primero)
// @Tags         history
// @Security     Bearer
// @Produce      json
// @Param        kind  path  string  true  "REQUISITION | REQUISITION_LINE | INVOICE"
// @Param        id    path  string  true  "ID de la entidad"
// @Success      200  {array}  dto.HistoryEntryResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/history/{kind}/{id} [get]
func (h *HistoryHandler) ListByEntity(c *fiber.Ctx) error {
	kind := c.Params("kind")
	if !validEntityKind(kind) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "tipo de entidad inválido"})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	entries, err := h.recorder.ListByEntity(c.Context(), kind, c.Params("id"), page.Limit)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toHistoryEntryResponse(e))
	}
	return c.JSON(fiber.Map{"total": len(out), "entries": out})
}

// ListRollbackPoints godoc
// @Summary      Snapshots candidatos a rollback, anotados con su restaurabilidad
// @Tags         history
// @Security     Bearer
// @Produce      json
// @Param        kind  path  string  true  "REQUISITION | REQUISITION_LINE | INVOICE"
// @Param        id    path  string  true  "ID de la entidad"
// @Success      200  {array}  dto.RollbackPointResponse
// @Router       /api/history/{kind}/{id}/rollback-points [get]
func (h *HistoryHandler) ListRollbackPoints(c *fiber.Ctx) error {
	kind := c.Params("kind")
	if !validEntityKind(kind) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "tipo de entidad inválido"})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	points, err := h.rollback.ListRollbackPoints(c.Context(), kind, c.Params("id"), page.Limit)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.RollbackPointResponse, 0, len(points))
	for _, p := range points {
		out = append(out, dto.RollbackPointResponse{
			HistoryEntryResponse: toHistoryEntryResponse(p.Entry),
			Restorable:           p.Restorable,
			BlockedReason:        p.BlockedReason,
		})
	}
	return c.JSON(fiber.Map{"total": len(out), "points": out})
}

// Rollback godoc
// @Summary      Revertir la entidad a un snapshot previo
// @Tags         history
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        kind  path  string               true  "REQUISITION | REQUISITION_LINE | INVOICE"
// @Param        id    path  string               true  "ID de la entidad"
// @Param        body  body  dto.RollbackRequest  true  "snapshot destino y motivo"
// @Success      200  {object}  dto.HistoryEntryResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/history/{kind}/{id}/rollback [post]
func (h *HistoryHandler) Rollback(c *fiber.Ctx) error {
	kind := c.Params("kind")
	if !validEntityKind(kind) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "tipo de entidad inválido"})
	}
	var in dto.RollbackRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	entry, err := h.rollback.Rollback(c.Context(), kind, c.Params("id"), in.TargetHistoryID, in.Reason, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toHistoryEntryResponse(entry))
}

func toHistoryEntryResponse(e *entity.HistoryEntry) dto.HistoryEntryResponse {
	return dto.HistoryEntryResponse{
		ID:              e.ID,
		EntityKind:      e.EntityKind,
		EntityID:        e.EntityID,
		Operation:       e.Operation,
		DataBefore:      e.DataBefore,
		DataAfter:       e.DataAfter,
		ChangedFields:   e.ChangedFields,
		Diff:            e.Diff,
		Actor:           e.Actor,
		Reason:          e.Reason,
		IsRollbackPoint: e.IsRollbackPoint,
		IsRollback:      e.IsRollback,
		RestoredFromID:  e.RestoredFromID,
		CreatedAt:       e.CreatedAt,
	}
}
