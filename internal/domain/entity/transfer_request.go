package entity

import "time"

// RequestStatus estado de una solicitud de traslado.
type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestApproved RequestStatus = "APPROVED"
	RequestRejected RequestStatus = "REJECTED"
)

// ParseRequestStatus valida el literal recibido (p. ej. en un filtro de consulta).
func ParseRequestStatus(s string) (RequestStatus, bool) {
	switch RequestStatus(s) {
	case RequestPending, RequestApproved, RequestRejected:
		return RequestStatus(s), true
	}
	return "", false
}

// Terminal reporta si el estado ya no admite transiciones.
func (s RequestStatus) Terminal() bool {
	return s == RequestApproved || s == RequestRejected
}

// CanTransition solo permite PENDING -> APPROVED y PENDING -> REJECTED.
func CanTransition(from, to RequestStatus) bool {
	return from == RequestPending && to.Terminal()
}

// TransferRequest solicitud de traslado de inventario de una bodega a un departamento.
// Nunca se elimina: queda como registro una vez procesada.
type TransferRequest struct {
	ID               string
	EnterpriseID     string
	RequesterID      string
	WarehouseID      string
	DepartmentID     string
	Status           RequestStatus
	Comments         string
	ResponseComments string
	RequestedAt      time.Time
	ProcessedAt      *time.Time
	ProcessorID      *string
	Lines            []RequestLine
}

// RequestLine línea de una solicitud. ItemName se resuelve al crear desde SourceLotID,
// pero al aprobar se casa por nombre contra todos los lotes de la bodega.
type RequestLine struct {
	ID          string
	RequestID   string
	SourceLotID string
	ItemName    string
	Quantity    int64
	Comments    string
}

// ItemNames devuelve los nombres distintos de las líneas, en orden de aparición.
func (r *TransferRequest) ItemNames() []string {
	seen := make(map[string]struct{}, len(r.Lines))
	names := make([]string, 0, len(r.Lines))
	for _, l := range r.Lines {
		if _, ok := seen[l.ItemName]; ok {
			continue
		}
		seen[l.ItemName] = struct{}{}
		names = append(names, l.ItemName)
	}
	return names
}

// Clone copia la solicitud y sus líneas.
func (r *TransferRequest) Clone() *TransferRequest {
	if r == nil {
		return nil
	}
	c := *r
	c.Lines = append([]RequestLine(nil), r.Lines...)
	if r.ProcessedAt != nil {
		t := *r.ProcessedAt
		c.ProcessedAt = &t
	}
	if r.ProcessorID != nil {
		p := *r.ProcessorID
		c.ProcessorID = &p
	}
	return &c
}
