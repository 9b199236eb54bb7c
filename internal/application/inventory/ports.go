package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-traslados/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn retorna error (o el contexto se cancela) no queda ningún efecto: Rollback.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		lotRepo repository.StockLotRepository,
		requestRepo repository.TransferRequestRepository,
		movRepo repository.StockMovementRepository,
	) error) error
}

// Resultados registrados por Metrics.RequestHandled.
const (
	OutcomeApproved          = "approved"
	OutcomeRejected          = "rejected"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomeInvalidTransition = "invalid_transition"
	OutcomeError             = "error"
)

// Metrics recibe eventos del ciclo de vida de las solicitudes (Prometheus en producción).
type Metrics interface {
	RequestCreated()
	RequestHandled(outcome string, elapsed time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) RequestCreated()                      {}
func (nopMetrics) RequestHandled(string, time.Duration) {}
