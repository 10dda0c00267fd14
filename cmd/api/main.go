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

	appinv "github.com/jhoicas/conteo-inventario/internal/application/inventory"
	"github.com/jhoicas/conteo-inventario/internal/infrastructure/cache"
	"github.com/jhoicas/conteo-inventario/internal/infrastructure/catalog"
	"github.com/jhoicas/conteo-inventario/internal/infrastructure/memory"
	"github.com/jhoicas/conteo-inventario/internal/infrastructure/pdf"
	"github.com/jhoicas/conteo-inventario/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/conteo-inventario/internal/interfaces/http"
	"github.com/jhoicas/conteo-inventario/pkg/config"
	"github.com/jhoicas/conteo-inventario/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.App.Store).
		Msg("iniciando aplicación")

	ctx := context.Background()

	// Persistencia: PostgreSQL o memoria (desarrollo y demos).
	var (
		txRunner appinv.TxRunner
		read     appinv.Repos
		history  *appinv.HistoryRecorder
	)
	switch cfg.App.Store {
	case "memory":
		store := memory.NewStore()
		txRunner, read = store, store.Repos()
		history = appinv.NewHistoryRecorder(store.History(), log.Component("history"))
		log.Warn().Msg("almacén en memoria: los datos se pierden al reiniciar")
	default:
		if cfg.DB.AutoMigrate {
			runMigrations(cfg.DB.ConnectionString(), log)
		}
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		txRunner, read = postgres.NewTxRunner(pool), postgres.NewRepos(pool)
		history = appinv.NewHistoryRecorder(postgres.NewInventoryHistoryRepository(pool), log.Component("history"))
	}

	// Catálogo del ERP (MySQL, solo lectura).
	catalogClient, err := catalog.Open(ctx, cfg.Catalog)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión al catálogo")
	}
	defer catalogClient.Close()

	// Caché Redis opcional para resoluciones de filtro.
	var filterCache appinv.FilterCache
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisFilterCache(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("caché Redis no disponible, se consulta el catálogo directamente")
		} else {
			defer rc.Close()
			filterCache = rc
		}
	}

	resolver := appinv.NewCatalogResolver(catalogClient, filterCache, log.Component("catalog"))
	fetcher := appinv.NewStockFetcher(catalogClient)
	approvers := appinv.StaticApprovers{
		ByDivision: cfg.Counting.Approvers,
		Default:    cfg.Counting.DefaultApprovers,
	}
	seed := cfg.Counting.SamplingSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	requestUC := appinv.NewRequestUseCase(txRunner, read, resolver, fetcher, history, log.Component("requests"))
	countUC := appinv.NewCountUseCase(txRunner, read, history, log.Component("counts"))
	assignmentUC := appinv.NewAssignmentUseCase(txRunner, history, log.Component("assignments"))
	adjustmentUC := appinv.NewAdjustmentUseCase(txRunner, read, approvers, history, log.Component("adjustments"))
	auditUC := appinv.NewAuditUseCase(txRunner, read, appinv.NewSamplingRand(seed), history, log.Component("audits"))
	countSheetUC := appinv.NewCountSheetUseCase(requestUC, pdf.NewCountSheetGenerator())

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs (generado con swag init)
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Conteo de Inventario API",
		}))
	} else {
		log.Warn().Str("file", swaggerFile).Msg("swagger.json no encontrado, /docs deshabilitado")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.App.Store})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Requests:    requestUC,
		Counts:      countUC,
		Assignments: assignmentUC,
		Adjustments: adjustmentUC,
		Audits:      auditUC,
		CountSheets: countSheetUC,
		JWTSecret:   cfg.JWT.Secret,
		Log:         log.Component("http"),
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

func runMigrations(databaseURL string, log *logger.Logger) {
	mg, err := postgres.NewMigrator(databaseURL, log.Component("migrate"))
	if err != nil {
		log.Fatal().Err(err).Msg("preparar migraciones")
	}
	defer mg.Close()
	if err := mg.Up(); err != nil {
		log.Fatal().Err(err).Msg("aplicar migraciones")
	}
}
