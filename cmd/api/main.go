package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"
	apphistory "github.com/tu-usuario/almacen-ledger/internal/application/history"
	appinvoice "github.com/tu-usuario/almacen-ledger/internal/application/invoice"
	appledger "github.com/tu-usuario/almacen-ledger/internal/application/ledger"
	apprequisition "github.com/tu-usuario/almacen-ledger/internal/application/requisition"
	"github.com/tu-usuario/almacen-ledger/internal/application/reservation"
	approllback "github.com/tu-usuario/almacen-ledger/internal/application/rollback"
	"github.com/tu-usuario/almacen-ledger/internal/infrastructure/postgres"
	httpRouter "github.com/tu-usuario/almacen-ledger/internal/interfaces/http"
	"github.com/tu-usuario/almacen-ledger/pkg/config"
	"github.com/tu-usuario/almacen-ledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	itemRepo := postgres.NewItemRepository(pool)
	warehouseRepo := postgres.NewWarehouseRepository(pool)
	balanceRepo := postgres.NewStockBalanceRepository(pool)
	movementRepo := postgres.NewStockMovementRepository(pool)
	requisitionRepo := postgres.NewRequisitionRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	historyRepo := postgres.NewHistoryRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	threshold := decimal.NewFromFloat(cfg.Ledger.PriceDivergenceThreshold)
	ledgerUC := appledger.NewUseCase(txRunner, itemRepo, warehouseRepo, balanceRepo, movementRepo, threshold, log)
	recorder := apphistory.NewRecorder(historyRepo, log)
	reservations := reservation.NewManager(txRunner)
	requisitionUC := apprequisition.NewUseCase(
		txRunner, ledgerUC, reservations, recorder,
		itemRepo, warehouseRepo, balanceRepo, requisitionRepo,
	)
	invoiceUC := appinvoice.NewUseCase(txRunner, ledgerUC, recorder, itemRepo, warehouseRepo, invoiceRepo)
	rollbackUC := approllback.NewUseCase(txRunner, recorder, reservations, historyRepo, movementRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Almacén Ledger API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		LedgerUC:      ledgerUC,
		RequisitionUC: requisitionUC,
		InvoiceUC:     invoiceUC,
		RollbackUC:    rollbackUC,
		Recorder:      recorder,
		ItemRepo:      itemRepo,
		WarehouseRepo: warehouseRepo,
		JWTSecret:     cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
