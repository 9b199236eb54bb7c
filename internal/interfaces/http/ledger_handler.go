package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-traslados/internal/application/inventory"
	"github.com/jhoicas/inventario-traslados/internal/domain/entity"
)

// LedgerHandler consultas de lotes por ubicación (protegido).
type LedgerHandler struct {
	uc  *inventory.LedgerUseCase
	log zerolog.Logger
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(uc *inventory.LedgerUseCase, log zerolog.Logger) *LedgerHandler {
	return &LedgerHandler{uc: uc, log: log}
}

// WarehouseLots godoc
// @Summary      Lotes de una bodega
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la bodega"
// @Success      200  {object}  dto.StockLotListResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/warehouses/{id}/lots [get]
func (h *LedgerHandler) WarehouseLots(c *fiber.Ctx) error {
	return h.list(c, entity.WarehouseLocation(c.Params("id")))
}

// DepartmentLots godoc
// @Summary      Lotes de un departamento
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del departamento"
// @Success      200  {object}  dto.StockLotListResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/departments/{id}/lots [get]
func (h *LedgerHandler) DepartmentLots(c *fiber.Ctx) error {
	return h.list(c, entity.DepartmentLocation(c.Params("id")))
}

func (h *LedgerHandler) list(c *fiber.Ctx, loc entity.Location) error {
	out, err := h.uc.ListLots(c.UserContext(), GetActor(c), loc)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
