package http

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-traslados/internal/application/dto"
	"github.com/jhoicas/inventario-traslados/internal/domain"
)

// writeError traduce errores de dominio a status y código HTTP. Lo no mapeado es 500 y se registra.
func writeError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	status, code, msg := fiber.StatusInternalServerError, dto.CodeInternal, "error interno"

	var ise *domain.InsufficientStockError
	switch {
	case errors.As(err, &ise):
		status, code = fiber.StatusConflict, dto.CodeInsufficientStock
		msg = fmt.Sprintf("stock insuficiente para %q: solicitado %d, disponible %d", ise.ItemName, ise.Requested, ise.Available)
	case errors.Is(err, domain.ErrInvalidStateTransition):
		status, code, msg = fiber.StatusConflict, dto.CodeInvalidStateTransition, "la solicitud ya fue procesada"
	case errors.Is(err, domain.ErrConflict):
		status, code, msg = fiber.StatusConflict, dto.CodeConflict, "conflicto de concurrencia, reintente"
	case errors.Is(err, domain.ErrInvalidInput):
		status, code, msg = fiber.StatusBadRequest, dto.CodeValidation, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		status, code, msg = fiber.StatusNotFound, dto.CodeNotFound, err.Error()
	case errors.Is(err, domain.ErrForbidden):
		status, code, msg = fiber.StatusForbidden, dto.CodeForbidden, "acceso denegado al recurso"
	case errors.Is(err, domain.ErrUnauthorized):
		status, code, msg = fiber.StatusUnauthorized, dto.CodeUnauthorized, "credenciales inválidas"
	case errors.Is(err, context.DeadlineExceeded):
		status, code, msg = fiber.StatusGatewayTimeout, dto.CodeTimeout, "la operación excedió el tiempo límite"
	case errors.Is(err, context.Canceled):
		status, code, msg = fiber.StatusServiceUnavailable, dto.CodeCanceled, "la operación fue cancelada"
	default:
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error no controlado")
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}
