package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/jhoicas/inventario-traslados/docs"
	"github.com/jhoicas/inventario-traslados/internal/application/auth"
	"github.com/jhoicas/inventario-traslados/internal/application/inventory"
	"github.com/jhoicas/inventario-traslados/internal/domain/repository"
	"github.com/jhoicas/inventario-traslados/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-traslados/internal/infrastructure/metrics"
	"github.com/jhoicas/inventario-traslados/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/inventario-traslados/internal/interfaces/http"
	"github.com/jhoicas/inventario-traslados/pkg/config"
	"github.com/jhoicas/inventario-traslados/pkg/logger"
)

// stores repositorios y runner según STORE_DRIVER.
type stores struct {
	tx          inventory.TxRunner
	lots        repository.StockLotRepository
	requests    repository.TransferRequestRepository
	movements   repository.StockMovementRepository
	warehouses  repository.WarehouseRepository
	departments repository.DepartmentRepository
	users       repository.UserRepository
	ping        func(context.Context) error
	close       func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer st.close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	requestUC := inventory.NewRequestUseCase(inventory.RequestDeps{
		TxRunner:      st.tx,
		RequestRepo:   st.requests,
		MovementRepo:  st.movements,
		WarehouseRepo: st.warehouses,
		DeptRepo:      st.departments,
		Metrics:       metrics.NewPrometheus(reg),
		Logger:        log.Component("transfer"),
	})
	ledgerUC := inventory.NewLedgerUseCase(st.lots, st.warehouses, st.departments)
	authUC := auth.NewAuthUseCase(st.users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Inventario Traslados API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := st.ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:         authUC,
		RequestUC:      requestUC,
		LedgerUC:       ledgerUC,
		JWTSecret:      cfg.JWT.Secret,
		RequestTimeout: time.Duration(cfg.HTTP.RequestTimeout) * time.Second,
		Logger:         log.Component("http"),
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

func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*stores, error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		mem := memory.NewStore()
		log.Warn().Msg("STORE_DRIVER=memory: el estado se pierde al reiniciar")
		return &stores{
			tx:          mem,
			lots:        mem.StockLots(),
			requests:    mem.Requests(),
			movements:   mem.Movements(),
			warehouses:  mem.Warehouses(),
			departments: mem.Departments(),
			users:       mem.Users(),
			ping:        func(context.Context) error { return nil },
			close:       func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool, log.Component("migrate")); err != nil {
			pool.Close()
			return nil, err
		}
	}
	log.Info().Str("isolation", cfg.DB.TxIsolation).Msg("conectado a PostgreSQL")
	return &stores{
		tx:          postgres.NewTxRunner(pool, cfg.DB.TxIsolation),
		lots:        postgres.NewStockLotRepository(pool),
		requests:    postgres.NewTransferRequestRepository(pool),
		movements:   postgres.NewStockMovementRepository(pool),
		warehouses:  postgres.NewWarehouseRepository(pool),
		departments: postgres.NewDepartmentRepository(pool),
		users:       postgres.NewUserRepository(pool),
		ping:        pool.Ping,
		close:       pool.Close,
	}, nil
}
