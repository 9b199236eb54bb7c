package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// LocationType indica dónde vive un lote: bodega o departamento.
type LocationType string

const (
	LocationWarehouse  LocationType = "WAREHOUSE"
	LocationDepartment LocationType = "DEPARTMENT"
)

// Location identifica la ubicación dueña de un lote (exactamente una bodega o un departamento).
type Location struct {
	Type LocationType
	ID   string
}

// WarehouseLocation y DepartmentLocation construyen ubicaciones tipadas.
func WarehouseLocation(id string) Location  { return Location{Type: LocationWarehouse, ID: id} }
func DepartmentLocation(id string) Location { return Location{Type: LocationDepartment, ID: id} }

// Valid reporta si la ubicación tiene tipo conocido e id.
func (l Location) Valid() bool {
	return (l.Type == LocationWarehouse || l.Type == LocationDepartment) && l.ID != ""
}

func (l Location) String() string { return string(l.Type) + ":" + l.ID }

// StockLot es un lote de inventario: cantidad de un ítem (por nombre) en una ubicación.
// En bodegas puede haber varios lotes con el mismo nombre; en departamentos a lo sumo uno.
// Un lote con cantidad 0 no se conserva: el ledger lo elimina.
type StockLot struct {
	ID           string
	EnterpriseID string
	ItemName     string
	Description  string
	Quantity     int64
	Location     Location
	UnitPrice    decimal.Decimal
	ReorderLevel int64 // umbral de reposición; 0 = sin umbral
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Clone devuelve una copia independiente del lote.
func (l *StockLot) Clone() *StockLot {
	if l == nil {
		return nil
	}
	c := *l
	return &c
}

// NormalizeItemName recorta espacios y normaliza a NFC para que nombres visualmente iguales coincidan.
func NormalizeItemName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
