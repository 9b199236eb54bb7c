package repository

import (
	"context"

	"github.com/jhoicas/inventario-traslados/internal/domain/entity"
)

// StockLotRepository es el ledger de lotes que lee y muta el motor de asignación.
// Dentro de una transacción (TxRunner) todas las operaciones ven las escrituras propias.
type StockLotRepository interface {
	// AvailableQuantity suma la cantidad de todos los lotes de la ubicación con ese nombre de ítem.
	AvailableQuantity(ctx context.Context, loc entity.Location, itemName string) (int64, error)
	GetByID(ctx context.Context, id string) (*entity.StockLot, error)
	ListByLocation(ctx context.Context, loc entity.Location) ([]*entity.StockLot, error)
	// ListForUpdate devuelve los lotes del ítem en la ubicación ordenados por id ascendente,
	// bloqueándolos hasta el fin de la transacción.
	ListForUpdate(ctx context.Context, loc entity.Location, itemName string) ([]*entity.StockLot, error)
	// LockItems serializa el acceso a las claves (ubicación, ítem) aunque el lote aún no exista.
	// Los nombres se bloquean en orden ascendente.
	LockItems(ctx context.Context, loc entity.Location, itemNames []string) error
	// Deduct descuenta amount del lote; falla con InsufficientStock si excede la cantidad
	// y elimina el lote si queda en cero. Devuelve la cantidad restante.
	Deduct(ctx context.Context, lotID string, amount int64) (int64, error)
	// Upsert suma amount al lote (ubicación, ítem) o lo crea copiando los atributos descriptivos
	// de template. En bodegas, si hay varios lotes con el nombre, incrementa el de menor id.
	Upsert(ctx context.Context, loc entity.Location, itemName string, amount int64, template *entity.StockLot) (*entity.StockLot, error)
	// Create registra un lote nuevo (ingreso de mercancía).
	Create(ctx context.Context, lot *entity.StockLot) error
}
