package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-traslados/internal/application/auth"
	"github.com/jhoicas/inventario-traslados/internal/application/inventory"
	"github.com/jhoicas/inventario-traslados/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC         *auth.AuthUseCase
	RequestUC      *inventory.RequestUseCase
	LedgerUC       *inventory.LedgerUseCase
	JWTSecret      string
	RequestTimeout time.Duration
	Logger         zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")
	if deps.RequestTimeout > 0 {
		api.Use(WithTimeout(deps.RequestTimeout))
	}

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC, deps.Logger)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	canView := RequirePermission(entity.PermissionViewRequests)

	transfers := NewTransferHandler(deps.RequestUC, deps.Logger)
	tr := protected.Group("/transfer-requests")
	tr.Post("/", RequirePermission(entity.PermissionRequestInventory), transfers.Create)
	tr.Get("/mine", canView, transfers.Mine)
	tr.Get("/:id", canView, transfers.GetByID)
	tr.Post("/:id/handle", RequirePermission(entity.PermissionManageWarehouse), transfers.Handle)
	tr.Get("/:id/movements", canView, transfers.Movements)

	ledger := NewLedgerHandler(deps.LedgerUC, deps.Logger)
	warehouses := protected.Group("/warehouses")
	warehouses.Get("/:id/transfer-requests", RequirePermission(entity.PermissionManageWarehouse), transfers.ByWarehouse)
	warehouses.Get("/:id/lots", canView, ledger.WarehouseLots)

	departments := protected.Group("/departments")
	departments.Get("/:id/transfer-requests", canView, transfers.ByDepartment)
	departments.Get("/:id/lots", canView, ledger.DepartmentLots)
}

// WithTimeout acota el contexto de cada request; los casos de uso lo reciben vía c.UserContext().
func WithTimeout(d time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), d)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}
