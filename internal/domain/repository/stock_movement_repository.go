package repository

import (
	"context"

	"github.com/jhoicas/inventario-traslados/internal/domain/entity"
)

// StockMovementRepository define el puerto de persistencia para movimientos de traslado.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	ListByTransaction(ctx context.Context, transactionID string) ([]*entity.StockMovement, error)
}
