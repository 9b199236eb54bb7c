package inventory

import (
	"sort"

	"github.com/jhoicas/inventario-traslados/internal/domain"
	"github.com/jhoicas/inventario-traslados/internal/domain/entity"
)

// Deduction cantidad a descontar de un lote concreto.
type Deduction struct {
	LotID     string
	Amount    int64
	Remaining int64 // cantidad que queda en el lote tras el descuento
}

// Drains reporta si el descuento deja el lote en cero (el ledger lo elimina).
func (d Deduction) Drains() bool { return d.Remaining == 0 }

// TotalQuantity suma la cantidad de los lotes.
func TotalQuantity(lots []*entity.StockLot) int64 {
	var total int64
	for _, l := range lots {
		total += l.Quantity
	}
	return total
}

// SortByID ordena los lotes por id ascendente (orden de drenado y de bloqueo).
func SortByID(lots []*entity.StockLot) {
	sort.Slice(lots, func(i, j int) bool { return lots[i].ID < lots[j].ID })
}

// PlanDeductions reparte requested entre los lotes de un mismo ítem, drenando en orden de id ascendente:
// de cada lote se toma min(cantidad, restante) hasta cubrir lo pedido.
// Si la suma de los lotes no alcanza, retorna InsufficientStockError y ningún descuento.
// No modifica los lotes recibidos.
func PlanDeductions(itemName string, lots []*entity.StockLot, requested int64) ([]Deduction, error) {
	if requested <= 0 {
		return nil, domain.InvalidInputf("cantidad a asignar debe ser > 0 (recibido %d)", requested)
	}
	available := TotalQuantity(lots)
	if available < requested {
		return nil, domain.InsufficientStock(itemName, requested, available)
	}

	ordered := make([]*entity.StockLot, len(lots))
	copy(ordered, lots)
	SortByID(ordered)

	remaining := requested
	plan := make([]Deduction, 0, len(ordered))
	for _, lot := range ordered {
		if remaining == 0 {
			break
		}
		if lot.Quantity <= 0 {
			continue
		}
		take := min(lot.Quantity, remaining)
		plan = append(plan, Deduction{LotID: lot.ID, Amount: take, Remaining: lot.Quantity - take})
		remaining -= take
	}
	return plan, nil
}
