package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-traslados/internal/domain"
	"github.com/jhoicas/inventario-traslados/internal/domain/entity"
	"github.com/jhoicas/inventario-traslados/internal/domain/repository"
)

var _ repository.StockLotRepository = (*StockLotRepo)(nil)

const lotColumns = `id, enterprise_id, item_name, description, quantity, location_type, location_id,
	unit_price, reorder_level, created_at, updated_at`

// StockLotRepo ledger de lotes sobre PostgreSQL (usable con pool o tx).
type StockLotRepo struct {
	q Querier
}

// NewStockLotRepository construye el adaptador de lotes. Pasar pool o tx (Querier).
func NewStockLotRepository(q Querier) *StockLotRepo {
	return &StockLotRepo{q: q}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLot(row rowScanner) (*entity.StockLot, error) {
	var l entity.StockLot
	var locType string
	if err := row.Scan(
		&l.ID, &l.EnterpriseID, &l.ItemName, &l.Description, &l.Quantity, &locType, &l.Location.ID,
		&l.UnitPrice, &l.ReorderLevel, &l.CreatedAt, &l.UpdatedAt,
	); err != nil {
		return nil, err
	}
	l.Location.Type = entity.LocationType(locType)
	return &l, nil
}

func collectLots(rows pgx.Rows) ([]*entity.StockLot, error) {
	defer rows.Close()
	var list []*entity.StockLot
	for rows.Next() {
		l, err := scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock lot: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// AvailableQuantity suma las cantidades de los lotes del ítem en la ubicación.
func (r *StockLotRepo) AvailableQuantity(ctx context.Context, loc entity.Location, itemName string) (int64, error) {
	query := `
		SELECT COALESCE(SUM(quantity), 0)::bigint
		FROM stock_lots WHERE location_type = $1 AND location_id = $2 AND item_name = $3`
	var total int64
	if err := r.q.QueryRow(ctx, query, string(loc.Type), loc.ID, entity.NormalizeItemName(itemName)).Scan(&total); err != nil {
		return 0, fmt.Errorf("available quantity: %w", err)
	}
	return total, nil
}

// GetByID obtiene un lote; ErrNotFound si no existe.
func (r *StockLotRepo) GetByID(ctx context.Context, id string) (*entity.StockLot, error) {
	l, err := scanLot(r.q.QueryRow(ctx, `SELECT `+lotColumns+` FROM stock_lots WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundf("lote %s", id)
		}
		return nil, fmt.Errorf("get stock lot: %w", err)
	}
	return l, nil
}

// Los ids son TEXT: se comparan en orden de bytes (COLLATE "C"), igual que PlanDeductions
// y el store en memoria, sin importar la collation de la base.
const (
	lotListQuery = `SELECT ` + lotColumns + ` FROM stock_lots
		WHERE location_type = $1 AND location_id = $2
		ORDER BY item_name COLLATE "C", id COLLATE "C"`

	lotLockQuery = `SELECT ` + lotColumns + ` FROM stock_lots
		WHERE location_type = $1 AND location_id = $2 AND item_name = $3
		ORDER BY id COLLATE "C"
		FOR UPDATE`
)

// ListByLocation lista los lotes de la ubicación ordenados por ítem e id.
func (r *StockLotRepo) ListByLocation(ctx context.Context, loc entity.Location) ([]*entity.StockLot, error) {
	rows, err := r.q.Query(ctx, lotListQuery, string(loc.Type), loc.ID)
	if err != nil {
		return nil, fmt.Errorf("list stock lots: %w", err)
	}
	return collectLots(rows)
}

// ListForUpdate bloquea los lotes del ítem en orden de id (SELECT FOR UPDATE), el mismo orden de drenado.
func (r *StockLotRepo) ListForUpdate(ctx context.Context, loc entity.Location, itemName string) ([]*entity.StockLot, error) {
	rows, err := r.q.Query(ctx, lotLockQuery, string(loc.Type), loc.ID, entity.NormalizeItemName(itemName))
	if err != nil {
		return nil, fmt.Errorf("lock stock lots: %w", err)
	}
	return collectLots(rows)
}

// LockItems toma un advisory lock de transacción por cada clave (ubicación, ítem), en orden.
// Cubre también el caso en que el lote destino todavía no existe y no hay fila que bloquear.
func (r *StockLotRepo) LockItems(ctx context.Context, loc entity.Location, itemNames []string) error {
	names := slices.Clone(itemNames)
	slices.Sort(names)
	for _, name := range slices.Compact(names) {
		key := loc.String() + "|" + entity.NormalizeItemName(name)
		if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
			return fmt.Errorf("advisory lock %s: %w", key, err)
		}
	}
	return nil
}

// Deduct descuenta amount solo si alcanza; elimina el lote si queda en cero.
func (r *StockLotRepo) Deduct(ctx context.Context, lotID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, domain.InvalidInputf("cantidad a descontar debe ser > 0")
	}
	query := `
		UPDATE stock_lots SET quantity = quantity - $2, updated_at = now()
		WHERE id = $1 AND quantity >= $2
		RETURNING quantity`
	var remaining int64
	err := r.q.QueryRow(ctx, query, lotID, amount).Scan(&remaining)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("deduct stock lot: %w", err)
		}
		lot, getErr := r.GetByID(ctx, lotID)
		if getErr != nil {
			return 0, getErr
		}
		return 0, domain.InsufficientStock(lot.ItemName, amount, lot.Quantity)
	}
	if remaining == 0 {
		if _, err := r.q.Exec(ctx, `DELETE FROM stock_lots WHERE id = $1 AND quantity = 0`, lotID); err != nil {
			return 0, fmt.Errorf("delete empty stock lot: %w", err)
		}
	}
	return remaining, nil
}

// Upsert suma al lote existente o lo crea desde template.
// Departamentos: ON CONFLICT sobre el índice único parcial (location_id, item_name).
// Bodegas: incrementa el lote de menor id; si no hay ninguno, inserta.
func (r *StockLotRepo) Upsert(ctx context.Context, loc entity.Location, itemName string, amount int64, template *entity.StockLot) (*entity.StockLot, error) {
	if amount <= 0 {
		return nil, domain.InvalidInputf("cantidad a sumar debe ser > 0")
	}
	if !loc.Valid() {
		return nil, domain.InvalidInputf("ubicación inválida")
	}
	name := entity.NormalizeItemName(itemName)
	fresh := newLot(loc, name, amount, template)

	if loc.Type == entity.LocationWarehouse {
		query := `
			UPDATE stock_lots SET quantity = quantity + $4, updated_at = now()
			WHERE id = (
				SELECT id FROM stock_lots
				WHERE location_type = $1 AND location_id = $2 AND item_name = $3
				ORDER BY id COLLATE "C" LIMIT 1
			)
			RETURNING ` + lotColumns
		l, err := scanLot(r.q.QueryRow(ctx, query, string(loc.Type), loc.ID, name, amount))
		if err == nil {
			return l, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("increment stock lot: %w", err)
		}
		if err := r.Create(ctx, fresh); err != nil {
			return nil, err
		}
		return fresh, nil
	}

	query := `
		INSERT INTO stock_lots (` + lotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		ON CONFLICT (location_id, item_name) WHERE location_type = 'DEPARTMENT'
		DO UPDATE SET quantity = stock_lots.quantity + EXCLUDED.quantity, updated_at = now()
		RETURNING ` + lotColumns
	l, err := scanLot(r.q.QueryRow(ctx, query,
		fresh.ID, fresh.EnterpriseID, fresh.ItemName, fresh.Description, fresh.Quantity,
		string(loc.Type), loc.ID, fresh.UnitPrice, fresh.ReorderLevel,
	))
	if err != nil {
		return nil, fmt.Errorf("upsert department lot: %w", err)
	}
	return l, nil
}

// Create registra un lote nuevo. En departamentos el índice único rechaza un segundo lote del ítem.
func (r *StockLotRepo) Create(ctx context.Context, lot *entity.StockLot) error {
	if lot.Quantity <= 0 {
		return domain.InvalidInputf("quantity debe ser > 0")
	}
	if !lot.Location.Valid() {
		return domain.InvalidInputf("ubicación inválida")
	}
	lot.ItemName = entity.NormalizeItemName(lot.ItemName)
	if lot.ItemName == "" {
		return domain.InvalidInputf("item_name requerido")
	}
	if lot.ID == "" {
		lot.ID = uuid.Must(uuid.NewV7()).String()
	}
	query := `
		INSERT INTO stock_lots (` + lotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING created_at, updated_at`
	err := r.q.QueryRow(ctx, query,
		lot.ID, lot.EnterpriseID, lot.ItemName, lot.Description, lot.Quantity,
		string(lot.Location.Type), lot.Location.ID, lot.UnitPrice, lot.ReorderLevel,
	).Scan(&lot.CreatedAt, &lot.UpdatedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return fmt.Errorf("lote %q en %s: %w", lot.ItemName, lot.Location, domain.ErrConflict)
		case isCheckViolation(err):
			return domain.InvalidInputf("lote inválido: %v", err)
		}
		return fmt.Errorf("insert stock lot: %w", err)
	}
	return nil
}

func newLot(loc entity.Location, name string, amount int64, template *entity.StockLot) *entity.StockLot {
	l := &entity.StockLot{
		ID:       uuid.Must(uuid.NewV7()).String(),
		ItemName: name,
		Quantity: amount,
		Location: loc,
	}
	if template != nil {
		l.EnterpriseID = template.EnterpriseID
		l.Description = template.Description
		l.UnitPrice = template.UnitPrice
		l.ReorderLevel = template.ReorderLevel
	}
	return l
}
