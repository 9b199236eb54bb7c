package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/inventario-traslados/internal/application/inventory"
	"github.com/jhoicas/inventario-traslados/internal/domain/repository"
	"github.com/jhoicas/inventario-traslados/pkg/config"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
	opts pgx.TxOptions
}

// NewTxRunner construye el runner con el pool y el nivel de aislamiento configurado (DB_TX_ISOLATION).
func NewTxRunner(pool *pgxpool.Pool, isolation string) *TxRunner {
	return &TxRunner{pool: pool, opts: pgx.TxOptions{IsoLevel: isoLevel(isolation)}}
}

func isoLevel(name string) pgx.TxIsoLevel {
	switch name {
	case config.IsolationSerializable:
		return pgx.Serializable
	case config.IsolationRepeatableRead:
		return pgx.RepeatableRead
	default:
		return pgx.ReadCommitted
	}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// serialization_failure y deadlock_detected se devuelven como domain.ErrConflict.
func (r *TxRunner) Run(ctx context.Context, fn func(
	lotRepo repository.StockLotRepository,
	requestRepo repository.TransferRequestRepository,
	movRepo repository.StockMovementRepository,
) error) error {
	tx, err := r.pool.BeginTx(ctx, r.opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if err := fn(NewStockLotRepository(tx), NewTransferRequestRepository(tx), NewStockMovementRepository(tx)); err != nil {
		return mapTxError(err)
	}
	// Si el contexto ya se canceló no se confirma nada.
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapTxError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}
