package entity

import "time"

// Warehouse representa una bodega donde se almacena inventario.
type Warehouse struct {
	ID           string
	EnterpriseID string
	Name         string
	Address      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
