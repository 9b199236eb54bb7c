package repository

import (
	"context"

	"github.com/jhoicas/inventario-traslados/internal/domain/entity"
)

// DepartmentRepository lectura del registro de departamentos.
type DepartmentRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Department, error)
}
