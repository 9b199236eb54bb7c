package inventory

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-traslados/internal/domain"
	"github.com/jhoicas/inventario-traslados/internal/domain/entity"
)

func lot(id string, qty int64) *entity.StockLot {
	return &entity.StockLot{ID: id, ItemName: "Laptop", Quantity: qty}
}

func TestPlanDeductions_DrenaEnOrdenDeID(t *testing.T) {
	// B llega primero en el slice pero A tiene el id menor.
	lots := []*entity.StockLot{lot("B", 5), lot("A", 3)}

	plan, err := PlanDeductions("Laptop", lots, 6)
	require.NoError(t, err)

	require.Len(t, plan, 2)
	assert.Equal(t, Deduction{LotID: "A", Amount: 3, Remaining: 0}, plan[0])
	assert.Equal(t, Deduction{LotID: "B", Amount: 3, Remaining: 2}, plan[1])
	assert.True(t, plan[0].Drains())
	assert.False(t, plan[1].Drains())

	// el slice original no se reordena ni se modifica
	assert.Equal(t, "B", lots[0].ID)
	assert.Equal(t, int64(5), lots[0].Quantity)
}

func TestPlanDeductions_Casos(t *testing.T) {
	tests := []struct {
		name      string
		lots      []*entity.StockLot
		requested int64
		want      []Deduction
		wantErr   error
	}{
		{
			name:      "un lote alcanza",
			lots:      []*entity.StockLot{lot("A", 10)},
			requested: 4,
			want:      []Deduction{{LotID: "A", Amount: 4, Remaining: 6}},
		},
		{
			name:      "exacto drena todo",
			lots:      []*entity.StockLot{lot("A", 3), lot("B", 5)},
			requested: 8,
			want:      []Deduction{{LotID: "A", Amount: 3}, {LotID: "B", Amount: 5}},
		},
		{
			name:      "no toca lotes sobrantes",
			lots:      []*entity.StockLot{lot("A", 3), lot("B", 5), lot("C", 7)},
			requested: 3,
			want:      []Deduction{{LotID: "A", Amount: 3}},
		},
		{
			name:      "insuficiente",
			lots:      []*entity.StockLot{lot("A", 3), lot("B", 5)},
			requested: 9,
			wantErr:   domain.ErrInsufficientStock,
		},
		{
			name:      "sin lotes",
			requested: 1,
			wantErr:   domain.ErrInsufficientStock,
		},
		{
			name:      "cantidad no positiva",
			lots:      []*entity.StockLot{lot("A", 3)},
			requested: 0,
			wantErr:   domain.ErrInvalidInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := PlanDeductions("Laptop", tt.lots, tt.requested)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "error esperado %v, obtenido %v", tt.wantErr, err)
				assert.Nil(t, plan)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, plan)
		})
	}
}

func TestPlanDeductions_InsuficienteNombraElItem(t *testing.T) {
	_, err := PlanDeductions("Laptop", []*entity.StockLot{lot("A", 3), lot("B", 5)}, 9)
	var ise *domain.InsufficientStockError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, "Laptop", ise.ItemName)
	assert.Equal(t, int64(8), ise.Available)
}

// Para cantidades aleatorias el plan conserva el total y nunca deja lotes negativos.
func TestPlanDeductions_ConservaCantidades(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ids := []string{"01", "02", "03", "04", "05", "06"}
	for i := 0; i < 500; i++ {
		var lots []*entity.StockLot
		for _, id := range ids[:1+rng.Intn(len(ids))] {
			lots = append(lots, lot(id, int64(rng.Intn(20))))
		}
		total := TotalQuantity(lots)
		if total == 0 {
			continue
		}
		requested := 1 + rng.Int63n(total)

		plan, err := PlanDeductions("Laptop", lots, requested)
		require.NoError(t, err)

		var deducted int64
		byID := map[string]int64{}
		for _, l := range lots {
			byID[l.ID] = l.Quantity
		}
		prev := ""
		for _, d := range plan {
			assert.Greater(t, d.LotID, prev, "los lotes se drenan en orden ascendente")
			prev = d.LotID
			assert.Positive(t, d.Amount)
			assert.GreaterOrEqual(t, d.Remaining, int64(0))
			assert.Equal(t, byID[d.LotID]-d.Amount, d.Remaining)
			deducted += d.Amount
		}
		assert.Equal(t, requested, deducted)
	}
}
