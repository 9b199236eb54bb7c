package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-traslados/internal/application/dto"
	"github.com/jhoicas/inventario-traslados/internal/application/inventory"
	"github.com/jhoicas/inventario-traslados/internal/domain/entity"
)

// TransferHandler maneja las solicitudes de traslado bodega -> departamento (protegido).
type TransferHandler struct {
	uc  *inventory.RequestUseCase
	log zerolog.Logger
}

// NewTransferHandler construye el handler.
func NewTransferHandler(uc *inventory.RequestUseCase, log zerolog.Logger) *TransferHandler {
	return &TransferHandler{uc: uc, log: log}
}

// Create godoc
// @Summary      Crear solicitud de traslado
// @Description  Valida bodega, departamento y líneas contra el stock actual; la solicitud queda en PENDING.
// @Tags         transfer-requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTransferRequest  true  "warehouse_id, department_id, lines"
// @Success      201   {object}  dto.TransferRequestResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/transfer-requests [post]
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: dto.CodeInvalidBody, Message: "cuerpo inválido"})
	}
	out, err := h.uc.CreateRequest(c.UserContext(), GetActor(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Handle godoc
// @Summary      Aprobar o rechazar una solicitud
// @Description  Aprobar mueve el stock de forma atómica (todas las líneas o ninguna). Sin stock suficiente responde 409 y la solicitud sigue PENDING.
// @Tags         transfer-requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID de la solicitud"
// @Param        body  body  dto.HandleTransferRequest  true  "approve, response_comments"
// @Success      200   {object}  dto.TransferRequestResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfer-requests/{id}/handle [post]
func (h *TransferHandler) Handle(c *fiber.Ctx) error {
	var in dto.HandleTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: dto.CodeInvalidBody, Message: "cuerpo inválido"})
	}
	out, err := h.uc.HandleRequest(c.UserContext(), GetActor(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener solicitud
// @Tags         transfer-requests
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la solicitud"
// @Success      200  {object}  dto.TransferRequestResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfer-requests/{id} [get]
func (h *TransferHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), GetActor(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Movements godoc
// @Summary      Movimientos de stock de una solicitud aprobada
// @Tags         transfer-requests
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la solicitud"
// @Success      200  {array}   dto.StockMovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfer-requests/{id}/movements [get]
func (h *TransferHandler) Movements(c *fiber.Ctx) error {
	out, err := h.uc.Movements(c.UserContext(), GetActor(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Mine godoc
// @Summary      Solicitudes creadas por el usuario
// @Tags         transfer-requests
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "PENDING | APPROVED | REJECTED"
// @Success      200  {object}  dto.TransferRequestListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/transfer-requests/mine [get]
func (h *TransferHandler) Mine(c *fiber.Ctx) error {
	status, ok := statusQuery(c)
	if !ok {
		return invalidStatus(c)
	}
	out, err := h.uc.ListByRequester(c.UserContext(), GetActor(c), status)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// ByWarehouse godoc
// @Summary      Solicitudes dirigidas a una bodega
// @Tags         transfer-requests
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID de la bodega"
// @Param        status  query  string  false  "PENDING | APPROVED | REJECTED"
// @Success      200  {object}  dto.TransferRequestListResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/warehouses/{id}/transfer-requests [get]
func (h *TransferHandler) ByWarehouse(c *fiber.Ctx) error {
	status, ok := statusQuery(c)
	if !ok {
		return invalidStatus(c)
	}
	out, err := h.uc.ListByWarehouse(c.UserContext(), GetActor(c), c.Params("id"), status)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// ByDepartment godoc
// @Summary      Solicitudes hacia un departamento
// @Tags         transfer-requests
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID del departamento"
// @Param        status  query  string  false  "PENDING | APPROVED | REJECTED"
// @Success      200  {object}  dto.TransferRequestListResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/departments/{id}/transfer-requests [get]
func (h *TransferHandler) ByDepartment(c *fiber.Ctx) error {
	status, ok := statusQuery(c)
	if !ok {
		return invalidStatus(c)
	}
	out, err := h.uc.ListByDepartment(c.UserContext(), GetActor(c), c.Params("id"), status)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// statusQuery lee ?status=; vacío significa sin filtro.
func statusQuery(c *fiber.Ctx) (*entity.RequestStatus, bool) {
	raw := c.Query("status")
	if raw == "" {
		return nil, true
	}
	st, ok := entity.ParseRequestStatus(raw)
	if !ok {
		return nil, false
	}
	return &st, true
}

func invalidStatus(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: dto.CodeValidation, Message: "status debe ser PENDING, APPROVED o REJECTED"})
}
