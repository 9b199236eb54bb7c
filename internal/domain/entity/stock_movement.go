package entity

import "time"

// Tipos de movimiento generados por un traslado aprobado.
const (
	MovementTransferOut = "TRANSFER_OUT" // salida desde un lote de bodega
	MovementTransferIn  = "TRANSFER_IN"  // entrada al lote del departamento
)

// StockMovement registra el efecto de un traslado sobre un lote concreto.
type StockMovement struct {
	ID            string
	TransactionID string // id de la solicitud de traslado
	LotID         string
	ItemName      string
	Location      Location
	Type          string
	Quantity      int64 // negativo en salidas, positivo en entradas
	CreatedAt     time.Time
	CreatedBy     string
}
