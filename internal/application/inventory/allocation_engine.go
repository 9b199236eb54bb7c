package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/inventario-traslados/internal/domain"
	"github.com/jhoicas/inventario-traslados/internal/domain/entity"
	domaininv "github.com/jhoicas/inventario-traslados/internal/domain/inventory"
	"github.com/jhoicas/inventario-traslados/internal/domain/repository"
)

// LineAllocation resultado de asignar una línea: de qué lotes salió y a qué lote llegó.
type LineAllocation struct {
	ItemName          string
	Quantity          int64
	Deductions        []domaininv.Deduction
	DestinationLotID  string
	DestinationBefore int64
	DestinationAfter  int64
}

// AllocationEngine mueve el stock de una solicitud aprobada desde la bodega origen al departamento.
// Trabaja sobre los repositorios de la transacción del llamador: si retorna error, el llamador
// debe hacer Rollback y ningún descuento queda aplicado.
type AllocationEngine struct{}

// NewAllocationEngine construye el motor de asignación.
func NewAllocationEngine() *AllocationEngine {
	return &AllocationEngine{}
}

// Allocate procesa las líneas en orden. Antes de tocar el ledger toma los bloqueos de todas las
// claves (bodega, ítem) y luego (departamento, ítem) en orden de nombre, de modo que dos aprobaciones
// concurrentes sobre los mismos ítems se serializan sin interbloquearse.
//
// Por línea: bloquea los lotes del ítem en la bodega (orden de id), verifica disponibilidad,
// descuenta con PlanDeductions y suma al lote del departamento (o lo crea heredando
// descripción, precio y umbral del primer lote drenado).
func (e *AllocationEngine) Allocate(
	ctx context.Context,
	lotRepo repository.StockLotRepository,
	movRepo repository.StockMovementRepository,
	req *entity.TransferRequest,
	actorID string,
	now time.Time,
) ([]LineAllocation, error) {
	if len(req.Lines) == 0 {
		return nil, domain.InvalidInputf("la solicitud %s no tiene líneas", req.ID)
	}
	source := entity.WarehouseLocation(req.WarehouseID)
	dest := entity.DepartmentLocation(req.DepartmentID)

	names := req.ItemNames()
	sort.Strings(names)
	if err := lotRepo.LockItems(ctx, source, names); err != nil {
		return nil, err
	}
	if err := lotRepo.LockItems(ctx, dest, names); err != nil {
		return nil, err
	}

	result := make([]LineAllocation, 0, len(req.Lines))
	for _, line := range req.Lines {
		alloc, err := e.allocateLine(ctx, lotRepo, movRepo, req.ID, source, dest, line, actorID, now)
		if err != nil {
			return nil, err
		}
		result = append(result, alloc)
	}
	return result, nil
}

func (e *AllocationEngine) allocateLine(
	ctx context.Context,
	lotRepo repository.StockLotRepository,
	movRepo repository.StockMovementRepository,
	requestID string,
	source, dest entity.Location,
	line entity.RequestLine,
	actorID string,
	now time.Time,
) (LineAllocation, error) {
	// Bloquea los lotes del ítem en la bodega (SELECT FOR UPDATE ORDER BY id)
	lots, err := lotRepo.ListForUpdate(ctx, source, line.ItemName)
	if err != nil {
		return LineAllocation{}, err
	}
	plan, err := domaininv.PlanDeductions(line.ItemName, lots, line.Quantity)
	if err != nil {
		return LineAllocation{}, err
	}

	byID := make(map[string]*entity.StockLot, len(lots))
	for _, l := range lots {
		byID[l.ID] = l
	}
	template := byID[plan[0].LotID].Clone()

	for _, d := range plan {
		remaining, err := lotRepo.Deduct(ctx, d.LotID, d.Amount)
		if err != nil {
			return LineAllocation{}, err
		}
		if remaining != d.Remaining {
			return LineAllocation{}, fmt.Errorf("lote %s: restante %d, esperado %d: %w", d.LotID, remaining, d.Remaining, domain.ErrConflict)
		}
		if err := movRepo.Create(ctx, &entity.StockMovement{
			ID:            uuid.Must(uuid.NewV7()).String(),
			TransactionID: requestID,
			LotID:         d.LotID,
			ItemName:      line.ItemName,
			Location:      source,
			Type:          entity.MovementTransferOut,
			Quantity:      -d.Amount,
			CreatedAt:     now,
			CreatedBy:     actorID,
		}); err != nil {
			return LineAllocation{}, err
		}
	}

	destLot, err := lotRepo.Upsert(ctx, dest, line.ItemName, line.Quantity, template)
	if err != nil {
		return LineAllocation{}, err
	}
	if err := movRepo.Create(ctx, &entity.StockMovement{
		ID:            uuid.Must(uuid.NewV7()).String(),
		TransactionID: requestID,
		LotID:         destLot.ID,
		ItemName:      line.ItemName,
		Location:      dest,
		Type:          entity.MovementTransferIn,
		Quantity:      line.Quantity,
		CreatedAt:     now,
		CreatedBy:     actorID,
	}); err != nil {
		return LineAllocation{}, err
	}

	return LineAllocation{
		ItemName:          line.ItemName,
		Quantity:          line.Quantity,
		Deductions:        plan,
		DestinationLotID:  destLot.ID,
		DestinationBefore: destLot.Quantity - line.Quantity,
		DestinationAfter:  destLot.Quantity,
	}, nil
}
