package http

import (
	"github.com/gofiber/fiber/v2"
	apphistory "github.com/tu-usuario/almacen-ledger/internal/application/history"
	appinvoice "github.com/tu-usuario/almacen-ledger/internal/application/invoice"
	appledger "github.com/tu-usuario/almacen-ledger/internal/application/ledger"
	apprequisition "github.com/tu-usuario/almacen-ledger/internal/application/requisition"
	approllback "github.com/tu-usuario/almacen-ledger/internal/application/rollback"
	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	LedgerUC      *appledger.UseCase
	RequisitionUC *apprequisition.UseCase
	InvoiceUC     *appinvoice.UseCase
	RollbackUC    *approllback.UseCase
	Recorder      *apphistory.Recorder
	ItemRepo      repository.ItemRepository
	WarehouseRepo repository.WarehouseRepository
	JWTSecret     string
}

// Router registra las rutas de la API. Toda la superficie es protegida; las
// operaciones sensibles (bloqueo, rollback, revisión) exigen además rol
// admin o supervisor.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	elevated := RequireRole("admin", "supervisor")

	// Catálogo (solo lectura)
	catalogHandler := NewCatalogHandler(deps.ItemRepo, deps.WarehouseRepo)
	api.Get("/items", catalogHandler.ListItems)
	api.Get("/warehouses", catalogHandler.ListWarehouses)

	// Ledger: movimientos y saldos
	ledgerGroup := api.Group("/ledger")
	ledgerHandler := NewLedgerHandler(deps.LedgerUC)
	ledgerGroup.Post("/movements", ledgerHandler.RecordMovement)
	ledgerGroup.Get("/movements", ledgerHandler.ListMovements)
	ledgerGroup.Post("/movements/:id/review", elevated, ledgerHandler.ClearReview)
	ledgerGroup.Get("/balances/:warehouseId/:itemId", ledgerHandler.GetBalance)
	ledgerGroup.Post("/balances/:warehouseId/:itemId/block", elevated, ledgerHandler.BlockItem)
	ledgerGroup.Post("/balances/:warehouseId/:itemId/unblock", elevated, ledgerHandler.UnblockItem)
	ledgerGroup.Put("/balances/:warehouseId/:itemId/limits", elevated, ledgerHandler.SetStockLimits)

	// Requisiciones
	requisitions := api.Group("/requisitions")
	requisitionHandler := NewRequisitionHandler(deps.RequisitionUC, deps.RollbackUC)
	requisitions.Post("/", requisitionHandler.Create)
	requisitions.Get("/", requisitionHandler.List)
	requisitions.Get("/:id", requisitionHandler.GetByID)
	requisitions.Post("/:id/approve", elevated, requisitionHandler.Approve)
	requisitions.Post("/:id/reject", elevated, requisitionHandler.Reject)
	requisitions.Post("/:id/process", requisitionHandler.StartProcessing)
	requisitions.Post("/:id/fulfill", requisitionHandler.Fulfill)
	requisitions.Post("/:id/cancel", requisitionHandler.Cancel)
	requisitions.Delete("/:id/lines/:lineId", requisitionHandler.SoftDeleteLine)
	requisitions.Post("/:id/lines/:lineId/restore", requisitionHandler.RestoreLine)

	// Facturas de entrada
	invoices := api.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.InvoiceUC)
	invoices.Post("/", invoiceHandler.Create)
	invoices.Get("/", invoiceHandler.List)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Post("/:id/post", elevated, invoiceHandler.Post)
	invoices.Post("/:id/unpost", elevated, invoiceHandler.Unpost)

	// Historial y rollback
	history := api.Group("/history")
	historyHandler := NewHistoryHandler(deps.Recorder, deps.RollbackUC)
	history.Get("/:kind/:id", historyHandler.ListByEntity)
	history.Get("/:kind/:id/rollback-points", historyHandler.ListRollbackPoints)
	history.Post("/:kind/:id/rollback", elevated, historyHandler.Rollback)
}
