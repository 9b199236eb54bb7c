package inventory

import (
	"context"
	"errors"

	"github.com/jhoicas/inventario-traslados/internal/application/dto"
	"github.com/jhoicas/inventario-traslados/internal/domain"
	"github.com/jhoicas/inventario-traslados/internal/domain/entity"
	"github.com/jhoicas/inventario-traslados/internal/domain/repository"
)

// LedgerUseCase consultas de solo lectura sobre los lotes de bodegas y departamentos.
type LedgerUseCase struct {
	lotRepo       repository.StockLotRepository
	warehouseRepo repository.WarehouseRepository
	deptRepo      repository.DepartmentRepository
}

// NewLedgerUseCase construye el caso de uso.
func NewLedgerUseCase(
	lotRepo repository.StockLotRepository,
	warehouseRepo repository.WarehouseRepository,
	deptRepo repository.DepartmentRepository,
) *LedgerUseCase {
	return &LedgerUseCase{lotRepo: lotRepo, warehouseRepo: warehouseRepo, deptRepo: deptRepo}
}

// ListLots lista los lotes de una ubicación de la empresa del actor (por nombre de ítem y id).
func (uc *LedgerUseCase) ListLots(ctx context.Context, actor entity.Actor, loc entity.Location) (*dto.StockLotListResponse, error) {
	if !loc.Valid() {
		return nil, domain.InvalidInputf("ubicación inválida")
	}
	enterpriseID, err := uc.enterpriseOf(ctx, loc)
	if err != nil {
		return nil, err
	}
	if enterpriseID != actor.EnterpriseID {
		return nil, domain.NotFoundf("ubicación %s", loc)
	}
	lots, err := uc.lotRepo.ListByLocation(ctx, loc)
	if err != nil {
		return nil, err
	}
	items := make([]dto.StockLotResponse, 0, len(lots))
	for _, l := range lots {
		items = append(items, dto.StockLotResponse{
			ID:           l.ID,
			ItemName:     l.ItemName,
			Description:  l.Description,
			Quantity:     l.Quantity,
			LocationType: string(l.Location.Type),
			LocationID:   l.Location.ID,
			UnitPrice:    l.UnitPrice,
			ReorderLevel: l.ReorderLevel,
			UpdatedAt:    l.UpdatedAt,
		})
	}
	return &dto.StockLotListResponse{Items: items, Total: len(items)}, nil
}

// enterpriseOf resuelve la empresa dueña de una bodega o departamento ("" si no existe).
func (uc *LedgerUseCase) enterpriseOf(ctx context.Context, loc entity.Location) (string, error) {
	switch loc.Type {
	case entity.LocationWarehouse:
		wh, err := uc.warehouseRepo.GetByID(ctx, loc.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return "", err
		}
		if wh == nil {
			return "", domain.NotFoundf("bodega %s", loc.ID)
		}
		return wh.EnterpriseID, nil
	default:
		dept, err := uc.deptRepo.GetByID(ctx, loc.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return "", err
		}
		if dept == nil {
			return "", domain.NotFoundf("departamento %s", loc.ID)
		}
		return dept.EnterpriseID, nil
	}
}
