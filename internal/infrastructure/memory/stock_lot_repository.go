package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/inventario-traslados/internal/domain"
	"github.com/jhoicas/inventario-traslados/internal/domain/entity"
	"github.com/jhoicas/inventario-traslados/internal/domain/repository"
)

var _ repository.StockLotRepository = (*LotRepo)(nil)

// LotRepo ledger de lotes en memoria.
type LotRepo struct {
	acc access
}

// matching devuelve los lotes de la ubicación con ese ítem, ordenados por id.
func (st *state) matching(loc entity.Location, itemName string) []*entity.StockLot {
	var out []*entity.StockLot
	for _, l := range st.lots {
		if l.Location == loc && l.ItemName == itemName {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AvailableQuantity suma las cantidades de los lotes del ítem en la ubicación.
func (r *LotRepo) AvailableQuantity(ctx context.Context, loc entity.Location, itemName string) (int64, error) {
	var total int64
	err := r.acc.with(ctx, func(st *state, _ time.Time) error {
		for _, l := range st.matching(loc, entity.NormalizeItemName(itemName)) {
			total += l.Quantity
		}
		return nil
	})
	return total, err
}

// GetByID obtiene un lote; ErrNotFound si no existe.
func (r *LotRepo) GetByID(ctx context.Context, id string) (*entity.StockLot, error) {
	var out *entity.StockLot
	err := r.acc.with(ctx, func(st *state, _ time.Time) error {
		l, ok := st.lots[id]
		if !ok {
			return domain.NotFoundf("lote %s", id)
		}
		out = l.Clone()
		return nil
	})
	return out, err
}

// ListByLocation lista los lotes de la ubicación ordenados por ítem e id.
func (r *LotRepo) ListByLocation(ctx context.Context, loc entity.Location) ([]*entity.StockLot, error) {
	var out []*entity.StockLot
	err := r.acc.with(ctx, func(st *state, _ time.Time) error {
		for _, l := range st.lots {
			if l.Location == loc {
				out = append(out, l.Clone())
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].ItemName != out[j].ItemName {
			return out[i].ItemName < out[j].ItemName
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

// ListForUpdate en memoria no necesita bloqueo de filas: la transacción ya es exclusiva.
func (r *LotRepo) ListForUpdate(ctx context.Context, loc entity.Location, itemName string) ([]*entity.StockLot, error) {
	var out []*entity.StockLot
	err := r.acc.with(ctx, func(st *state, _ time.Time) error {
		for _, l := range st.matching(loc, entity.NormalizeItemName(itemName)) {
			out = append(out, l.Clone())
		}
		return nil
	})
	return out, err
}

// LockItems no-op: Store.Run ya serializa las transacciones.
func (r *LotRepo) LockItems(ctx context.Context, _ entity.Location, _ []string) error {
	return ctx.Err()
}

// Deduct descuenta amount del lote y lo elimina si queda en cero.
func (r *LotRepo) Deduct(ctx context.Context, lotID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, domain.InvalidInputf("cantidad a descontar debe ser > 0")
	}
	var remaining int64
	err := r.acc.with(ctx, func(st *state, now time.Time) error {
		l, ok := st.lots[lotID]
		if !ok {
			return domain.NotFoundf("lote %s", lotID)
		}
		if amount > l.Quantity {
			return domain.InsufficientStock(l.ItemName, amount, l.Quantity)
		}
		l.Quantity -= amount
		l.UpdatedAt = now
		remaining = l.Quantity
		if l.Quantity == 0 {
			delete(st.lots, lotID)
		}
		return nil
	})
	return remaining, err
}

// Upsert suma al lote existente de menor id o crea uno nuevo a partir de template.
func (r *LotRepo) Upsert(ctx context.Context, loc entity.Location, itemName string, amount int64, template *entity.StockLot) (*entity.StockLot, error) {
	if amount <= 0 {
		return nil, domain.InvalidInputf("cantidad a sumar debe ser > 0")
	}
	if !loc.Valid() {
		return nil, domain.InvalidInputf("ubicación inválida")
	}
	name := entity.NormalizeItemName(itemName)
	var out *entity.StockLot
	err := r.acc.with(ctx, func(st *state, now time.Time) error {
		if existing := st.matching(loc, name); len(existing) > 0 {
			l := existing[0]
			l.Quantity += amount
			l.UpdatedAt = now
			out = l.Clone()
			return nil
		}
		l := newLotFromTemplate(loc, name, amount, template, now)
		st.lots[l.ID] = l
		out = l.Clone()
		return nil
	})
	return out, err
}

// Create registra un lote nuevo. En departamentos rechaza un segundo lote del mismo ítem.
func (r *LotRepo) Create(ctx context.Context, lot *entity.StockLot) error {
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
	return r.acc.with(ctx, func(st *state, now time.Time) error {
		if lot.Location.Type == entity.LocationDepartment && len(st.matching(lot.Location, lot.ItemName)) > 0 {
			return domain.ErrConflict
		}
		if lot.ID == "" {
			lot.ID = uuid.Must(uuid.NewV7()).String()
		}
		if _, dup := st.lots[lot.ID]; dup {
			return domain.ErrConflict
		}
		if lot.CreatedAt.IsZero() {
			lot.CreatedAt = now
		}
		lot.UpdatedAt = now
		st.lots[lot.ID] = lot.Clone()
		return nil
	})
}

func newLotFromTemplate(loc entity.Location, name string, amount int64, template *entity.StockLot, now time.Time) *entity.StockLot {
	l := &entity.StockLot{
		ID:        uuid.Must(uuid.NewV7()).String(),
		ItemName:  name,
		Quantity:  amount,
		Location:  loc,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if template != nil {
		l.EnterpriseID = template.EnterpriseID
		l.Description = template.Description
		l.UnitPrice = template.UnitPrice
		l.ReorderLevel = template.ReorderLevel
	}
	return l
}
