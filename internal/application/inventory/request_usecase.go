package inventory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-traslados/internal/application/dto"
	"github.com/jhoicas/inventario-traslados/internal/domain"
	"github.com/jhoicas/inventario-traslados/internal/domain/entity"
	"github.com/jhoicas/inventario-traslados/internal/domain/repository"
)

// RequestDeps dependencias del caso de uso de solicitudes.
// Los repositorios sueltos se usan solo para lecturas fuera de transacción.
type RequestDeps struct {
	TxRunner      TxRunner
	RequestRepo   repository.TransferRequestRepository
	MovementRepo  repository.StockMovementRepository
	WarehouseRepo repository.WarehouseRepository
	DeptRepo      repository.DepartmentRepository
	Engine        *AllocationEngine
	Metrics       Metrics
	Logger        zerolog.Logger
	Now           func() time.Time
}

// RequestUseCase controla el ciclo de vida de las solicitudes de traslado:
// creación (PENDING), aprobación con asignación de stock, rechazo y consultas.
type RequestUseCase struct {
	txRunner      TxRunner
	requestRepo   repository.TransferRequestRepository
	movementRepo  repository.StockMovementRepository
	warehouseRepo repository.WarehouseRepository
	deptRepo      repository.DepartmentRepository
	engine        *AllocationEngine
	metrics       Metrics
	log           zerolog.Logger
	now           func() time.Time
}

// NewRequestUseCase construye el caso de uso.
func NewRequestUseCase(deps RequestDeps) *RequestUseCase {
	uc := &RequestUseCase{
		txRunner:      deps.TxRunner,
		requestRepo:   deps.RequestRepo,
		movementRepo:  deps.MovementRepo,
		warehouseRepo: deps.WarehouseRepo,
		deptRepo:      deps.DeptRepo,
		engine:        deps.Engine,
		metrics:       deps.Metrics,
		log:           deps.Logger,
		now:           deps.Now,
	}
	if uc.engine == nil {
		uc.engine = NewAllocationEngine()
	}
	if uc.metrics == nil {
		uc.metrics = nopMetrics{}
	}
	if uc.now == nil {
		uc.now = time.Now
	}
	return uc
}

// CreateRequest valida bodega, departamento y líneas contra el stock actual y persiste la solicitud en PENDING.
// Las líneas que resuelven al mismo ítem se validan sumadas contra la disponibilidad de la bodega.
func (uc *RequestUseCase) CreateRequest(ctx context.Context, actor entity.Actor, in dto.CreateTransferRequest) (*dto.TransferRequestResponse, error) {
	if !actor.Can(entity.PermissionRequestInventory) {
		return nil, domain.ErrForbidden
	}
	if in.WarehouseID == "" || in.DepartmentID == "" {
		return nil, domain.InvalidInputf("warehouse_id y department_id son requeridos")
	}
	if len(in.Lines) == 0 {
		return nil, domain.InvalidInputf("la solicitud debe tener al menos una línea")
	}
	for i, l := range in.Lines {
		if l.SourceLotID == "" {
			return nil, domain.InvalidInputf("source_lot_id requerido (línea %d)", i+1)
		}
		if l.Quantity <= 0 {
			return nil, domain.InvalidInputf("quantity debe ser > 0 (línea %d)", i+1)
		}
	}

	if err := uc.checkScope(ctx, actor, in.WarehouseID, in.DepartmentID); err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	req := &entity.TransferRequest{
		ID:           uuid.Must(uuid.NewV7()).String(),
		EnterpriseID: actor.EnterpriseID,
		RequesterID:  actor.ID,
		WarehouseID:  in.WarehouseID,
		DepartmentID: in.DepartmentID,
		Status:       entity.RequestPending,
		Comments:     strings.TrimSpace(in.Comments),
		RequestedAt:  now,
	}

	source := entity.WarehouseLocation(in.WarehouseID)
	err := uc.txRunner.Run(ctx, func(
		lotRepo repository.StockLotRepository,
		requestRepo repository.TransferRequestRepository,
		_ repository.StockMovementRepository,
	) error {
		totals := make(map[string]int64)
		req.Lines = req.Lines[:0]
		for i, l := range in.Lines {
			lot, err := lotRepo.GetByID(ctx, l.SourceLotID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return domain.NotFoundf("lote %s (línea %d)", l.SourceLotID, i+1)
				}
				return err
			}
			if lot.Location != source {
				return domain.NotFoundf("lote %s no pertenece a la bodega %s", l.SourceLotID, in.WarehouseID)
			}
			if totals[lot.ItemName] > math.MaxInt64-l.Quantity {
				return domain.InvalidInputf("cantidad solicitada de %q fuera de rango (línea %d)", lot.ItemName, i+1)
			}
			totals[lot.ItemName] += l.Quantity
			req.Lines = append(req.Lines, entity.RequestLine{
				ID:          uuid.Must(uuid.NewV7()).String(),
				RequestID:   req.ID,
				SourceLotID: lot.ID,
				ItemName:    lot.ItemName,
				Quantity:    l.Quantity,
				Comments:    strings.TrimSpace(l.Comments),
			})
		}
		for _, name := range req.ItemNames() {
			available, err := lotRepo.AvailableQuantity(ctx, source, name)
			if err != nil {
				return err
			}
			if totals[name] > available {
				return domain.InvalidInputf("cantidad solicitada de %q (%d) excede el disponible (%d)", name, totals[name], available)
			}
		}
		return requestRepo.Create(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.RequestCreated()
	uc.log.Info().
		Str("request_id", req.ID).
		Str("requester_id", actor.ID).
		Str("warehouse_id", req.WarehouseID).
		Str("department_id", req.DepartmentID).
		Int("lines", len(req.Lines)).
		Msg("solicitud de traslado creada")
	return toTransferRequestResponse(req), nil
}

// HandleRequest aprueba o rechaza una solicitud PENDING dentro de una única transacción.
// Al aprobar ejecuta el AllocationEngine; si falta stock la solicitud sigue en PENDING,
// el ledger queda intacto y se retorna InsufficientStockError.
// Sobre una solicitud ya procesada retorna ErrInvalidStateTransition.
func (uc *RequestUseCase) HandleRequest(ctx context.Context, actor entity.Actor, requestID string, in dto.HandleTransferRequest) (*dto.TransferRequestResponse, error) {
	if !actor.Can(entity.PermissionManageWarehouse) {
		return nil, domain.ErrForbidden
	}
	if requestID == "" {
		return nil, domain.InvalidInputf("id de solicitud requerido")
	}

	start := uc.now()
	var (
		processed   *entity.TransferRequest
		allocations []LineAllocation
	)
	err := uc.txRunner.Run(ctx, func(
		lotRepo repository.StockLotRepository,
		requestRepo repository.TransferRequestRepository,
		movRepo repository.StockMovementRepository,
	) error {
		// Bloquea la fila de la solicitud: una segunda llamada concurrente espera aquí
		// y luego observa el estado terminal.
		req, err := requestRepo.GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req.EnterpriseID != actor.EnterpriseID {
			return domain.NotFoundf("solicitud %s", requestID)
		}
		if req.Status != entity.RequestPending {
			return fmt.Errorf("solicitud %s en estado %s: %w", req.ID, req.Status, domain.ErrInvalidStateTransition)
		}

		now := uc.now().UTC()
		processor := actor.ID
		req.ProcessorID = &processor
		req.ProcessedAt = &now
		req.ResponseComments = strings.TrimSpace(in.ResponseComments)

		if in.Approve {
			allocations, err = uc.engine.Allocate(ctx, lotRepo, movRepo, req, actor.ID, now)
			if err != nil {
				return err
			}
			req.Status = entity.RequestApproved
		} else {
			req.Status = entity.RequestRejected
		}
		if err := requestRepo.Save(ctx, req); err != nil {
			return err
		}
		processed = req
		return nil
	})
	elapsed := uc.now().Sub(start)
	if errors.Is(err, domain.ErrConflict) {
		err = uc.resolveConflict(ctx, actor, requestID, err)
	}
	if err != nil {
		uc.recordFailure(requestID, actor.ID, err, elapsed)
		return nil, err
	}

	outcome := OutcomeRejected
	if processed.Status == entity.RequestApproved {
		outcome = OutcomeApproved
	}
	uc.metrics.RequestHandled(outcome, elapsed)
	ev := uc.log.Info().
		Str("request_id", processed.ID).
		Str("processor_id", actor.ID).
		Str("status", string(processed.Status))
	if len(allocations) > 0 {
		var moved int64
		for _, a := range allocations {
			moved += a.Quantity
		}
		ev = ev.Int64("units_moved", moved).Int("lines", len(allocations))
	}
	ev.Msg("solicitud de traslado procesada")
	return toTransferRequestResponse(processed), nil
}

// resolveConflict relee la solicitud tras un fallo de serialización: si otra transacción ya la
// procesó, el perdedor recibe ErrInvalidStateTransition igual que bajo READ COMMITTED.
func (uc *RequestUseCase) resolveConflict(ctx context.Context, actor entity.Actor, requestID string, cause error) error {
	req, err := uc.requestRepo.GetByID(ctx, requestID)
	if err != nil || req.EnterpriseID != actor.EnterpriseID || req.Status == entity.RequestPending {
		return cause
	}
	return fmt.Errorf("solicitud %s en estado %s: %w", req.ID, req.Status, domain.ErrInvalidStateTransition)
}

func (uc *RequestUseCase) recordFailure(requestID, actorID string, err error, elapsed time.Duration) {
	var ise *domain.InsufficientStockError
	switch {
	case errors.As(err, &ise):
		uc.metrics.RequestHandled(OutcomeInsufficientStock, elapsed)
		uc.log.Warn().
			Str("request_id", requestID).
			Str("processor_id", actorID).
			Str("item_name", ise.ItemName).
			Int64("requested", ise.Requested).
			Int64("available", ise.Available).
			Msg("aprobación sin stock suficiente; la solicitud sigue pendiente")
	case errors.Is(err, domain.ErrInvalidStateTransition):
		uc.metrics.RequestHandled(OutcomeInvalidTransition, elapsed)
	default:
		uc.metrics.RequestHandled(OutcomeError, elapsed)
		if !errors.Is(err, domain.ErrNotFound) {
			uc.log.Error().Err(err).Str("request_id", requestID).Msg("procesar solicitud de traslado")
		}
	}
}

// GetByID obtiene una solicitud de la empresa del actor.
func (uc *RequestUseCase) GetByID(ctx context.Context, actor entity.Actor, id string) (*dto.TransferRequestResponse, error) {
	req, err := uc.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.EnterpriseID != actor.EnterpriseID {
		return nil, domain.NotFoundf("solicitud %s", id)
	}
	return toTransferRequestResponse(req), nil
}

// ListByWarehouse solicitudes dirigidas a una bodega, opcionalmente filtradas por estado.
func (uc *RequestUseCase) ListByWarehouse(ctx context.Context, actor entity.Actor, warehouseID string, status *entity.RequestStatus) (*dto.TransferRequestListResponse, error) {
	if !actor.Can(entity.PermissionManageWarehouse) {
		return nil, domain.ErrForbidden
	}
	if err := uc.checkWarehouse(ctx, actor, warehouseID); err != nil {
		return nil, err
	}
	return uc.list(ctx, repository.RequestFilter{WarehouseID: warehouseID, Status: status})
}

// ListByDepartment solicitudes hacia un departamento, opcionalmente filtradas por estado.
func (uc *RequestUseCase) ListByDepartment(ctx context.Context, actor entity.Actor, departmentID string, status *entity.RequestStatus) (*dto.TransferRequestListResponse, error) {
	if err := uc.checkDepartment(ctx, actor, departmentID); err != nil {
		return nil, err
	}
	return uc.list(ctx, repository.RequestFilter{DepartmentID: departmentID, Status: status})
}

// ListByRequester solicitudes creadas por el actor.
func (uc *RequestUseCase) ListByRequester(ctx context.Context, actor entity.Actor, status *entity.RequestStatus) (*dto.TransferRequestListResponse, error) {
	return uc.list(ctx, repository.RequestFilter{RequesterID: actor.ID, Status: status})
}

// Movements lista los movimientos de stock generados al aprobar la solicitud.
func (uc *RequestUseCase) Movements(ctx context.Context, actor entity.Actor, requestID string) ([]dto.StockMovementResponse, error) {
	if _, err := uc.GetByID(ctx, actor, requestID); err != nil {
		return nil, err
	}
	list, err := uc.movementRepo.ListByTransaction(ctx, requestID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockMovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, dto.StockMovementResponse{
			ID:           m.ID,
			LotID:        m.LotID,
			ItemName:     m.ItemName,
			LocationType: string(m.Location.Type),
			LocationID:   m.Location.ID,
			Type:         m.Type,
			Quantity:     m.Quantity,
			CreatedAt:    m.CreatedAt,
			CreatedBy:    m.CreatedBy,
		})
	}
	return out, nil
}

func (uc *RequestUseCase) list(ctx context.Context, filter repository.RequestFilter) (*dto.TransferRequestListResponse, error) {
	list, err := uc.requestRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.TransferRequestResponse, 0, len(list))
	for _, r := range list {
		items = append(items, *toTransferRequestResponse(r))
	}
	return &dto.TransferRequestListResponse{Items: items, Total: len(items)}, nil
}

// checkScope verifica que bodega y departamento existan y sean de la empresa del actor.
func (uc *RequestUseCase) checkScope(ctx context.Context, actor entity.Actor, warehouseID, departmentID string) error {
	if err := uc.checkWarehouse(ctx, actor, warehouseID); err != nil {
		return err
	}
	return uc.checkDepartment(ctx, actor, departmentID)
}

func (uc *RequestUseCase) checkWarehouse(ctx context.Context, actor entity.Actor, warehouseID string) error {
	wh, err := uc.warehouseRepo.GetByID(ctx, warehouseID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if wh == nil || wh.EnterpriseID != actor.EnterpriseID {
		return domain.NotFoundf("bodega %s", warehouseID)
	}
	return nil
}

func (uc *RequestUseCase) checkDepartment(ctx context.Context, actor entity.Actor, departmentID string) error {
	dept, err := uc.deptRepo.GetByID(ctx, departmentID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if dept == nil || dept.EnterpriseID != actor.EnterpriseID {
		return domain.NotFoundf("departamento %s", departmentID)
	}
	return nil
}

func toTransferRequestResponse(r *entity.TransferRequest) *dto.TransferRequestResponse {
	if r == nil {
		return nil
	}
	lines := make([]dto.TransferLineResponse, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, dto.TransferLineResponse{
			ID:          l.ID,
			SourceLotID: l.SourceLotID,
			ItemName:    l.ItemName,
			Quantity:    l.Quantity,
			Comments:    l.Comments,
		})
	}
	return &dto.TransferRequestResponse{
		ID:               r.ID,
		EnterpriseID:     r.EnterpriseID,
		RequesterID:      r.RequesterID,
		WarehouseID:      r.WarehouseID,
		DepartmentID:     r.DepartmentID,
		Status:           string(r.Status),
		Comments:         r.Comments,
		ResponseComments: r.ResponseComments,
		RequestedAt:      r.RequestedAt,
		ProcessedAt:      r.ProcessedAt,
		ProcessorID:      r.ProcessorID,
		Lines:            lines,
	}
}
