package repository

import (
	"context"

	"github.com/jhoicas/inventario-traslados/internal/domain/entity"
)

// RequestFilter criterios de consulta de solicitudes. Campos vacíos no filtran.
type RequestFilter struct {
	WarehouseID  string
	DepartmentID string
	RequesterID  string
	Status       *entity.RequestStatus
}

// TransferRequestRepository define el puerto de persistencia de solicitudes y sus líneas.
type TransferRequestRepository interface {
	Create(ctx context.Context, req *entity.TransferRequest) error
	GetByID(ctx context.Context, id string) (*entity.TransferRequest, error)
	// GetForUpdate obtiene la solicitud bloqueando su fila (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.TransferRequest, error)
	// List devuelve solicitudes más recientes primero.
	List(ctx context.Context, filter RequestFilter) ([]*entity.TransferRequest, error)
	// Save sobrescribe los campos mutables. Solo acepta transiciones desde PENDING;
	// si la solicitud almacenada ya es terminal retorna ErrInvalidStateTransition.
	Save(ctx context.Context, req *entity.TransferRequest) error
}
