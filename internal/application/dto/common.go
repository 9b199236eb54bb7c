package dto

// Códigos de error expuestos en ErrorResponse.Code.
const (
	CodeValidation             = "VALIDATION"
	CodeInvalidBody            = "INVALID_BODY"
	CodeNotFound               = "NOT_FOUND"
	CodeForbidden              = "FORBIDDEN"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeConflict               = "CONFLICT"
	CodeInsufficientStock      = "INSUFFICIENT_STOCK"
	CodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	CodeTimeout                = "TIMEOUT"
	CodeCanceled               = "CANCELED"
	CodeInternal               = "INTERNAL"
)

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
