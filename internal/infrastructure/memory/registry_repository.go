package memory

import (
	"context"
	"strings"

	"github.com/jhoicas/inventario-traslados/internal/domain/entity"
	"github.com/jhoicas/inventario-traslados/internal/domain/repository"
)

var (
	_ repository.WarehouseRepository  = (*WarehouseRepo)(nil)
	_ repository.DepartmentRepository = (*DepartmentRepo)(nil)
	_ repository.UserRepository       = (*UserRepo)(nil)
)

// WarehouseRepo lectura de bodegas registradas con Store.AddWarehouse.
type WarehouseRepo struct{ s *Store }

// GetByID retorna nil, nil si la bodega no existe.
func (r *WarehouseRepo) GetByID(ctx context.Context, id string) (*entity.Warehouse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.state.warehouses[id]
	if !ok {
		return nil, nil
	}
	c := *w
	return &c, nil
}

// DepartmentRepo lectura de departamentos registrados con Store.AddDepartment.
type DepartmentRepo struct{ s *Store }

// GetByID retorna nil, nil si el departamento no existe.
func (r *DepartmentRepo) GetByID(ctx context.Context, id string) (*entity.Department, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.state.departments[id]
	if !ok {
		return nil, nil
	}
	c := *d
	return &c, nil
}

// UserRepo lectura de usuarios registrados con Store.AddUser.
type UserRepo struct{ s *Store }

// GetByID retorna nil, nil si el usuario no existe.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.state.users[id]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

// FindByEmail busca sin distinguir mayúsculas; nil, nil si no existe.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.state.users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}
