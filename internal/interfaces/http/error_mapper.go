package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/almacen-ledger/internal/application/dto"
	"github.com/tu-usuario/almacen-ledger/internal/domain"
)

// respondError traduce los errores del dominio a códigos HTTP. Los errores
// tipados conservan su mensaje; el resto se colapsa en INTERNAL.
func respondError(c *fiber.Ctx, err error) error {
	var (
		blocked      *domain.ItemBlockedError
		insufficient *domain.InsufficientBalanceError
		justif       *domain.MissingJustificationError
		irreversible *domain.IrreversibleSideEffectsError
	)
	switch {
	case errors.As(err, &blocked):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "ITEM_BLOCKED", Message: blocked.Error()})
	case errors.As(err, &insufficient):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_BALANCE", Message: insufficient.Error()})
	case errors.As(err, &justif):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "JUSTIFICATION_REQUIRED", Message: justif.Error()})
	case errors.As(err, &irreversible):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "IRREVERSIBLE_SIDE_EFFECTS", Message: irreversible.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: "el recurso ya existe"})
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONCURRENCY_CONFLICT", Message: "conflicto de concurrencia; reintente la operación"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "no autenticado"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
