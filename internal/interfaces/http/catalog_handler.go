package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/almacen-ledger/internal/application/dto"
	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
)

// CatalogHandler expone la lectura del catálogo de ítems y bodegas (protegido).
type CatalogHandler struct {
	items      repository.ItemRepository
	warehouses repository.WarehouseRepository
}

// NewCatalogHandler construye el handler.
func NewCatalogHandler(items repository.ItemRepository, warehouses repository.WarehouseRepository) *CatalogHandler {
	return &CatalogHandler{items: items, warehouses: warehouses}
}

// ListItems godoc
// @Summary      Listar ítems del catálogo
// @Tags         catalog
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  map[string]any
// @Router       /api/items [get]
func (h *CatalogHandler) ListItems(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	items, err := h.items.List(page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]fiber.Map, 0, len(items))
	for _, it := range items {
		out = append(out, fiber.Map{
			"id":              it.ID,
			"code":            it.Code,
			"name":            it.Name,
			"unit":            it.Unit,
			"is_stockable":    it.IsStockable,
			"estimated_value": it.EstimatedValue,
		})
	}
	return c.JSON(fiber.Map{"total": len(out), "items": out})
}

// ListWarehouses godoc
// @Summary      Listar bodegas
// @Tags         catalog
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  map[string]any
// @Router       /api/warehouses [get]
func (h *CatalogHandler) ListWarehouses(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	whs, err := h.warehouses.List(page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]fiber.Map, 0, len(whs))
	for _, w := range whs {
		out = append(out, fiber.Map{
			"id":        w.ID,
			"code":      w.Code,
			"name":      w.Name,
			"address":   w.Address,
			"is_active": w.IsActive,
		})
	}
	return c.JSON(fiber.Map{"total": len(out), "warehouses": out})
}
