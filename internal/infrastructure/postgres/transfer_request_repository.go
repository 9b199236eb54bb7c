package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-traslados/internal/domain"
	"github.com/jhoicas/inventario-traslados/internal/domain/entity"
	"github.com/jhoicas/inventario-traslados/internal/domain/repository"
)

var _ repository.TransferRequestRepository = (*TransferRequestRepo)(nil)

const requestColumns = `id, enterprise_id, requester_id, warehouse_id, department_id, status,
	comments, response_comments, requested_at, processed_at, processor_id`

// TransferRequestRepo solicitudes de traslado y sus líneas sobre PostgreSQL.
type TransferRequestRepo struct {
	q Querier
}

// NewTransferRequestRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransferRequestRepository(q Querier) *TransferRequestRepo {
	return &TransferRequestRepo{q: q}
}

func scanRequest(row rowScanner) (*entity.TransferRequest, error) {
	var req entity.TransferRequest
	var status string
	if err := row.Scan(
		&req.ID, &req.EnterpriseID, &req.RequesterID, &req.WarehouseID, &req.DepartmentID, &status,
		&req.Comments, &req.ResponseComments, &req.RequestedAt, &req.ProcessedAt, &req.ProcessorID,
	); err != nil {
		return nil, err
	}
	req.Status = entity.RequestStatus(status)
	return &req, nil
}

// Create inserta la cabecera y las líneas en un solo batch.
func (r *TransferRequestRepo) Create(ctx context.Context, req *entity.TransferRequest) error {
	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO transfer_requests (`+requestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		req.ID, req.EnterpriseID, req.RequesterID, req.WarehouseID, req.DepartmentID, string(req.Status),
		req.Comments, req.ResponseComments, req.RequestedAt, req.ProcessedAt, req.ProcessorID,
	)
	for i, l := range req.Lines {
		batch.Queue(`
			INSERT INTO transfer_request_lines (id, request_id, line_no, source_lot_id, item_name, quantity, comments)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			l.ID, req.ID, i+1, l.SourceLotID, l.ItemName, l.Quantity, l.Comments,
		)
	}
	br := r.q.SendBatch(ctx, batch)
	defer br.Close()
	for range batch.Len() {
		if _, err := br.Exec(); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("solicitud %s: %w", req.ID, domain.ErrConflict)
			}
			return fmt.Errorf("insert transfer request: %w", err)
		}
	}
	return br.Close()
}

// GetByID obtiene la solicitud con sus líneas; ErrNotFound si no existe.
func (r *TransferRequestRepo) GetByID(ctx context.Context, id string) (*entity.TransferRequest, error) {
	return r.get(ctx, `SELECT `+requestColumns+` FROM transfer_requests WHERE id = $1`, id)
}

// GetForUpdate igual que GetByID pero bloquea la fila de la cabecera hasta el fin de la tx.
func (r *TransferRequestRepo) GetForUpdate(ctx context.Context, id string) (*entity.TransferRequest, error) {
	return r.get(ctx, `SELECT `+requestColumns+` FROM transfer_requests WHERE id = $1 FOR UPDATE`, id)
}

func (r *TransferRequestRepo) get(ctx context.Context, query, id string) (*entity.TransferRequest, error) {
	req, err := scanRequest(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundf("solicitud %s", id)
		}
		return nil, fmt.Errorf("get transfer request: %w", err)
	}
	if err := r.loadLines(ctx, []*entity.TransferRequest{req}); err != nil {
		return nil, err
	}
	return req, nil
}

// List filtra por bodega, departamento, solicitante y estado; más recientes primero.
func (r *TransferRequestRepo) List(ctx context.Context, filter repository.RequestFilter) ([]*entity.TransferRequest, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.WarehouseID != "" {
		add("warehouse_id = $%d", filter.WarehouseID)
	}
	if filter.DepartmentID != "" {
		add("department_id = $%d", filter.DepartmentID)
	}
	if filter.RequesterID != "" {
		add("requester_id = $%d", filter.RequesterID)
	}
	if filter.Status != nil {
		add("status = $%d", string(*filter.Status))
	}
	query := `SELECT ` + requestColumns + ` FROM transfer_requests`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY requested_at DESC, id COLLATE "C" DESC`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transfer requests: %w", err)
	}
	defer rows.Close()
	var list []*entity.TransferRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transfer request: %w", err)
		}
		list = append(list, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadLines(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *TransferRequestRepo) loadLines(ctx context.Context, reqs []*entity.TransferRequest) error {
	if len(reqs) == 0 {
		return nil
	}
	byID := make(map[string]*entity.TransferRequest, len(reqs))
	ids := make([]string, 0, len(reqs))
	for _, req := range reqs {
		byID[req.ID] = req
		ids = append(ids, req.ID)
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, request_id, source_lot_id, item_name, quantity, comments
		FROM transfer_request_lines WHERE request_id = ANY($1)
		ORDER BY request_id, line_no`, ids)
	if err != nil {
		return fmt.Errorf("list transfer request lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.RequestLine
		if err := rows.Scan(&l.ID, &l.RequestID, &l.SourceLotID, &l.ItemName, &l.Quantity, &l.Comments); err != nil {
			return fmt.Errorf("scan transfer request line: %w", err)
		}
		if req := byID[l.RequestID]; req != nil {
			req.Lines = append(req.Lines, l)
		}
	}
	return rows.Err()
}

// Save aplica la transición con compare-and-set sobre status = 'PENDING'.
func (r *TransferRequestRepo) Save(ctx context.Context, req *entity.TransferRequest) error {
	if !entity.CanTransition(entity.RequestPending, req.Status) {
		return fmt.Errorf("solicitud %s: -> %s: %w", req.ID, req.Status, domain.ErrInvalidStateTransition)
	}
	query := `
		UPDATE transfer_requests
		SET status = $2, response_comments = $3, processed_at = $4, processor_id = $5
		WHERE id = $1 AND status = 'PENDING'`
	cmd, err := r.q.Exec(ctx, query, req.ID, string(req.Status), req.ResponseComments, req.ProcessedAt, req.ProcessorID)
	if err != nil {
		return fmt.Errorf("update transfer request: %w", err)
	}
	if cmd.RowsAffected() == 1 {
		return nil
	}
	var current string
	err = r.q.QueryRow(ctx, `SELECT status FROM transfer_requests WHERE id = $1`, req.ID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NotFoundf("solicitud %s", req.ID)
	}
	if err != nil {
		return fmt.Errorf("get transfer request status: %w", err)
	}
	return fmt.Errorf("solicitud %s en estado %s: %w", req.ID, current, domain.ErrInvalidStateTransition)
}
