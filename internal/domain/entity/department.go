package entity

import "time"

// Department área de la empresa que recibe inventario desde las bodegas.
type Department struct {
	ID           string
	EnterpriseID string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
