package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/inventario-traslados/internal/domain/entity"
	"github.com/jhoicas/inventario-traslados/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*MovementRepo)(nil)

// MovementRepo movimientos de stock en memoria (solo se agregan).
type MovementRepo struct {
	acc access
}

// Create agrega un movimiento.
func (r *MovementRepo) Create(ctx context.Context, movement *entity.StockMovement) error {
	return r.acc.with(ctx, func(st *state, now time.Time) error {
		if movement.ID == "" {
			movement.ID = uuid.Must(uuid.NewV7()).String()
		}
		if movement.CreatedAt.IsZero() {
			movement.CreatedAt = now
		}
		c := *movement
		st.movements = append(st.movements, &c)
		return nil
	})
}

// ListByTransaction movimientos de una solicitud en orden de registro.
func (r *MovementRepo) ListByTransaction(ctx context.Context, transactionID string) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	err := r.acc.with(ctx, func(st *state, _ time.Time) error {
		for _, m := range st.movements {
			if m.TransactionID == transactionID {
				c := *m
				out = append(out, &c)
			}
		}
		return nil
	})
	return out, err
}
