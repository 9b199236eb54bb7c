package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/inventario-traslados/internal/domain"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	return pgCode(err) == "23505"
}

// isCheckViolation 23514: p. ej. quantity > 0 en stock_lots.
func isCheckViolation(err error) bool {
	return pgCode(err) == "23514"
}

// isRetryable serialization_failure (40001) o deadlock_detected (40P01).
func isRetryable(err error) bool {
	switch pgCode(err) {
	case "40001", "40P01":
		return true
	}
	return false
}

// mapTxError traduce fallas de concurrencia de PostgreSQL a domain.ErrConflict; el cliente puede reintentar.
func mapTxError(err error) error {
	if err == nil || !isRetryable(err) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrConflict, err)
}
