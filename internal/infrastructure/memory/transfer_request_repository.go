package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/inventario-traslados/internal/domain"
	"github.com/jhoicas/inventario-traslados/internal/domain/entity"
	"github.com/jhoicas/inventario-traslados/internal/domain/repository"
)

var _ repository.TransferRequestRepository = (*RequestRepo)(nil)

// RequestRepo solicitudes de traslado en memoria.
type RequestRepo struct {
	acc access
}

// Create persiste la solicitud con sus líneas.
func (r *RequestRepo) Create(ctx context.Context, req *entity.TransferRequest) error {
	return r.acc.with(ctx, func(st *state, _ time.Time) error {
		if _, dup := st.requests[req.ID]; dup {
			return domain.ErrConflict
		}
		st.requests[req.ID] = req.Clone()
		return nil
	})
}

// GetByID obtiene una solicitud; ErrNotFound si no existe.
func (r *RequestRepo) GetByID(ctx context.Context, id string) (*entity.TransferRequest, error) {
	var out *entity.TransferRequest
	err := r.acc.with(ctx, func(st *state, _ time.Time) error {
		req, ok := st.requests[id]
		if !ok {
			return domain.NotFoundf("solicitud %s", id)
		}
		out = req.Clone()
		return nil
	})
	return out, err
}

// GetForUpdate equivale a GetByID: la transacción en memoria ya es exclusiva.
func (r *RequestRepo) GetForUpdate(ctx context.Context, id string) (*entity.TransferRequest, error) {
	return r.GetByID(ctx, id)
}

// List filtra y ordena por fecha de solicitud descendente.
func (r *RequestRepo) List(ctx context.Context, filter repository.RequestFilter) ([]*entity.TransferRequest, error) {
	var out []*entity.TransferRequest
	err := r.acc.with(ctx, func(st *state, _ time.Time) error {
		for _, req := range st.requests {
			if filter.WarehouseID != "" && req.WarehouseID != filter.WarehouseID {
				continue
			}
			if filter.DepartmentID != "" && req.DepartmentID != filter.DepartmentID {
				continue
			}
			if filter.RequesterID != "" && req.RequesterID != filter.RequesterID {
				continue
			}
			if filter.Status != nil && req.Status != *filter.Status {
				continue
			}
			out = append(out, req.Clone())
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RequestedAt.Equal(out[j].RequestedAt) {
			return out[i].RequestedAt.After(out[j].RequestedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, err
}

// Save aplica la transición solo si la solicitud almacenada sigue en PENDING.
func (r *RequestRepo) Save(ctx context.Context, req *entity.TransferRequest) error {
	return r.acc.with(ctx, func(st *state, _ time.Time) error {
		stored, ok := st.requests[req.ID]
		if !ok {
			return domain.NotFoundf("solicitud %s", req.ID)
		}
		if !entity.CanTransition(stored.Status, req.Status) {
			return fmt.Errorf("solicitud %s: %s -> %s: %w", req.ID, stored.Status, req.Status, domain.ErrInvalidStateTransition)
		}
		c := req.Clone()
		stored.Status = c.Status
		stored.ResponseComments = c.ResponseComments
		stored.ProcessedAt = c.ProcessedAt
		stored.ProcessorID = c.ProcessorID
		return nil
	})
}
