package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateTransferLine línea de una solicitud: lote origen (define el ítem) y cantidad.
type CreateTransferLine struct {
	SourceLotID string `json:"source_lot_id"`
	Quantity    int64  `json:"quantity"`
	Comments    string `json:"comments,omitempty"`
}

// CreateTransferRequest body para POST /api/transfer-requests.
type CreateTransferRequest struct {
	WarehouseID  string               `json:"warehouse_id"`
	DepartmentID string               `json:"department_id"`
	Comments     string               `json:"comments,omitempty"`
	Lines        []CreateTransferLine `json:"lines"`
}

// HandleTransferRequest body para POST /api/transfer-requests/{id}/handle.
type HandleTransferRequest struct {
	Approve          bool   `json:"approve"`
	ResponseComments string `json:"response_comments,omitempty"`
}

// TransferLineResponse salida de una línea.
type TransferLineResponse struct {
	ID          string `json:"id"`
	SourceLotID string `json:"source_lot_id"`
	ItemName    string `json:"item_name"`
	Quantity    int64  `json:"quantity"`
	Comments    string `json:"comments,omitempty"`
}

// TransferRequestResponse salida de una solicitud de traslado.
type TransferRequestResponse struct {
	ID               string                 `json:"id"`
	EnterpriseID     string                 `json:"enterprise_id"`
	RequesterID      string                 `json:"requester_id"`
	WarehouseID      string                 `json:"warehouse_id"`
	DepartmentID     string                 `json:"department_id"`
	Status           string                 `json:"status"` // PENDING | APPROVED | REJECTED
	Comments         string                 `json:"comments,omitempty"`
	ResponseComments string                 `json:"response_comments,omitempty"`
	RequestedAt      time.Time              `json:"requested_at"`
	ProcessedAt      *time.Time             `json:"processed_at,omitempty"`
	ProcessorID      *string                `json:"processor_id,omitempty"`
	Lines            []TransferLineResponse `json:"lines"`
}

// TransferRequestListResponse lista de solicitudes.
type TransferRequestListResponse struct {
	Items []TransferRequestResponse `json:"items"`
	Total int                       `json:"total"`
}

// StockLotResponse salida de un lote del ledger.
type StockLotResponse struct {
	ID           string          `json:"id"`
	ItemName     string          `json:"item_name"`
	Description  string          `json:"description,omitempty"`
	Quantity     int64           `json:"quantity"`
	LocationType string          `json:"location_type"`
	LocationID   string          `json:"location_id"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	ReorderLevel int64           `json:"reorder_level"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// StockLotListResponse lista de lotes de una ubicación.
type StockLotListResponse struct {
	Items []StockLotResponse `json:"items"`
	Total int                `json:"total"`
}

// StockMovementResponse salida de un movimiento generado por un traslado.
type StockMovementResponse struct {
	ID           string    `json:"id"`
	LotID        string    `json:"lot_id"`
	ItemName     string    `json:"item_name"`
	LocationType string    `json:"location_type"`
	LocationID   string    `json:"location_id"`
	Type         string    `json:"type"`
	Quantity     int64     `json:"quantity"`
	CreatedAt    time.Time `json:"created_at"`
	CreatedBy    string    `json:"created_by"`
}
