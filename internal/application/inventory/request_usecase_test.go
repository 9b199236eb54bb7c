package inventory_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-traslados/internal/application/dto"
	"github.com/jhoicas/inventario-traslados/internal/application/inventory"
	"github.com/jhoicas/inventario-traslados/internal/domain"
	"github.com/jhoicas/inventario-traslados/internal/domain/entity"
	"github.com/jhoicas/inventario-traslados/internal/domain/repository"
	"github.com/jhoicas/inventario-traslados/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture: una empresa con bodega y departamento, y una segunda empresa ajena.
// ──────────────────────────────────────────────────────────────────────────────

const (
	entID     = "ent-1"
	otherEnt  = "ent-2"
	whID      = "wh-1"
	whOtherID = "wh-2"
	deptID    = "dept-1"
)

var (
	requester = entity.Actor{ID: "user-sol", EnterpriseID: entID, Role: entity.RoleSolicitante, Permissions: entity.PermissionsForRole(entity.RoleSolicitante)}
	keeper    = entity.Actor{ID: "user-bod", EnterpriseID: entID, Role: entity.RoleBodeguero, Permissions: entity.PermissionsForRole(entity.RoleBodeguero)}
	outsider  = entity.Actor{ID: "user-ext", EnterpriseID: otherEnt, Role: entity.RoleAdmin, Permissions: entity.PermissionsForRole(entity.RoleAdmin)}
)

type recordingMetrics struct {
	mu       sync.Mutex
	created  int
	outcomes map[string]int
}

func (m *recordingMetrics) RequestCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created++
}

func (m *recordingMetrics) RequestHandled(outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcomes == nil {
		m.outcomes = map[string]int{}
	}
	m.outcomes[outcome]++
}

type fixture struct {
	store   *memory.Store
	uc      *inventory.RequestUseCase
	metrics *recordingMetrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.AddWarehouse(&entity.Warehouse{ID: whID, EnterpriseID: entID, Name: "Bodega central"})
	store.AddWarehouse(&entity.Warehouse{ID: whOtherID, EnterpriseID: entID, Name: "Bodega norte"})
	store.AddWarehouse(&entity.Warehouse{ID: "wh-ext", EnterpriseID: otherEnt, Name: "Bodega ajena"})
	store.AddDepartment(&entity.Department{ID: deptID, EnterpriseID: entID, Name: "Sistemas"})

	metrics := &recordingMetrics{}
	uc := inventory.NewRequestUseCase(inventory.RequestDeps{
		TxRunner:      store,
		RequestRepo:   store.Requests(),
		MovementRepo:  store.Movements(),
		WarehouseRepo: store.Warehouses(),
		DeptRepo:      store.Departments(),
		Metrics:       metrics,
		Logger:        zerolog.Nop(),
	})
	return &fixture{store: store, uc: uc, metrics: metrics}
}

func (f *fixture) lot(t *testing.T, loc entity.Location, name string, qty int64) *entity.StockLot {
	t.Helper()
	l := &entity.StockLot{
		EnterpriseID: entID,
		ItemName:     name,
		Description:  name + " corporativo",
		Quantity:     qty,
		Location:     loc,
		UnitPrice:    decimal.NewFromInt(100),
		ReorderLevel: 1,
	}
	require.NoError(t, f.store.StockLots().Create(context.Background(), l))
	return l
}

// ledger devuelve cantidad por id de lote en la bodega y el departamento.
func (f *fixture) ledger(t *testing.T) map[string]int64 {
	t.Helper()
	out := map[string]int64{}
	for _, loc := range []entity.Location{entity.WarehouseLocation(whID), entity.DepartmentLocation(deptID)} {
		lots, err := f.store.StockLots().ListByLocation(context.Background(), loc)
		require.NoError(t, err)
		for _, l := range lots {
			require.GreaterOrEqual(t, l.Quantity, int64(1), "no deben quedar lotes en cero ni negativos")
			out[l.ID] = l.Quantity
		}
	}
	return out
}

func (f *fixture) qty(t *testing.T, loc entity.Location, name string) int64 {
	t.Helper()
	n, err := f.store.StockLots().AvailableQuantity(context.Background(), loc, name)
	require.NoError(t, err)
	return n
}

func (f *fixture) create(t *testing.T, lines ...dto.CreateTransferLine) *dto.TransferRequestResponse {
	t.Helper()
	out, err := f.uc.CreateRequest(context.Background(), requester, dto.CreateTransferRequest{
		WarehouseID:  whID,
		DepartmentID: deptID,
		Comments:     "reposición mensual",
		Lines:        lines,
	})
	require.NoError(t, err)
	return out
}

// insertPending persiste una solicitud sin pasar por la validación de creación,
// para simular stock que cambió entre la creación y la aprobación.
func (f *fixture) insertPending(t *testing.T, id string, lines ...entity.RequestLine) {
	t.Helper()
	for i := range lines {
		lines[i].RequestID = id
		lines[i].ID = id + "-l" + string(rune('1'+i))
	}
	require.NoError(t, f.store.Requests().Create(context.Background(), &entity.TransferRequest{
		ID:           id,
		EnterpriseID: entID,
		RequesterID:  requester.ID,
		WarehouseID:  whID,
		DepartmentID: deptID,
		Status:       entity.RequestPending,
		RequestedAt:  time.Now().UTC(),
		Lines:        lines,
	}))
}

func approve(f *fixture, id string) (*dto.TransferRequestResponse, error) {
	return f.uc.HandleRequest(context.Background(), keeper, id, dto.HandleTransferRequest{Approve: true, ResponseComments: "ok"})
}

func line(lotID string, qty int64) dto.CreateTransferLine {
	return dto.CreateTransferLine{SourceLotID: lotID, Quantity: qty}
}

// ──────────────────────────────────────────────────────────────────────────────
// Escenarios de asignación
// ──────────────────────────────────────────────────────────────────────────────

// Dos lotes Laptop (3 y 5), se piden 6: A se drena y elimina, B queda en 2 y se crea el lote del departamento con 6.
func TestHandleRequest_DrenaLotesEnOrdenYCreaLoteDestino(t *testing.T) {
	f := newFixture(t)
	a := f.lot(t, entity.WarehouseLocation(whID), "Laptop", 3)
	b := f.lot(t, entity.WarehouseLocation(whID), "Laptop", 5)

	req := f.create(t, line(b.ID, 6))
	assert.Equal(t, "PENDING", req.Status)
	assert.Equal(t, "Laptop", req.Lines[0].ItemName)

	out, err := approve(f, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", out.Status)
	require.NotNil(t, out.ProcessorID)
	assert.Equal(t, keeper.ID, *out.ProcessorID)
	require.NotNil(t, out.ProcessedAt)
	assert.Equal(t, "ok", out.ResponseComments)

	_, err = f.store.StockLots().GetByID(context.Background(), a.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound), "el lote A queda en cero y se elimina")
	gotB, err := f.store.StockLots().GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), gotB.Quantity)

	deptLots, err := f.store.StockLots().ListByLocation(context.Background(), entity.DepartmentLocation(deptID))
	require.NoError(t, err)
	require.Len(t, deptLots, 1)
	assert.Equal(t, "Laptop", deptLots[0].ItemName)
	assert.Equal(t, int64(6), deptLots[0].Quantity)
	assert.Equal(t, "Laptop corporativo", deptLots[0].Description, "hereda atributos del primer lote drenado")
	assert.True(t, deptLots[0].UnitPrice.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, entID, deptLots[0].EnterpriseID)

	movs, err := f.uc.Movements(context.Background(), keeper, req.ID)
	require.NoError(t, err)
	require.Len(t, movs, 3)
	assert.Equal(t, entity.MovementTransferOut, movs[0].Type)
	assert.Equal(t, a.ID, movs[0].LotID)
	assert.Equal(t, int64(-3), movs[0].Quantity)
	assert.Equal(t, b.ID, movs[1].LotID)
	assert.Equal(t, int64(-3), movs[1].Quantity)
	assert.Equal(t, entity.MovementTransferIn, movs[2].Type)
	assert.Equal(t, int64(6), movs[2].Quantity)

	assert.Equal(t, 1, f.metrics.outcomes[inventory.OutcomeApproved])
}

// Se piden 9 con 8 disponibles: falla con InsufficientStock("Laptop") y nada cambia.
func TestHandleRequest_StockInsuficienteNoMueveNada(t *testing.T) {
	f := newFixture(t)
	a := f.lot(t, entity.WarehouseLocation(whID), "Laptop", 3)
	b := f.lot(t, entity.WarehouseLocation(whID), "Laptop", 5)
	f.insertPending(t, "req-9", entity.RequestLine{SourceLotID: a.ID, ItemName: "Laptop", Quantity: 9})
	before := f.ledger(t)

	_, err := approve(f, "req-9")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
	var ise *domain.InsufficientStockError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, "Laptop", ise.ItemName)

	assert.Equal(t, before, f.ledger(t))
	assert.Equal(t, map[string]int64{a.ID: 3, b.ID: 5}, before)

	got, err := f.uc.GetByID(context.Background(), keeper, "req-9")
	require.NoError(t, err)
	assert.Equal(t, "PENDING", got.Status)
	assert.Nil(t, got.ProcessorID, "no se persiste procesador si no hubo transición")
	assert.Equal(t, 1, f.metrics.outcomes[inventory.OutcomeInsufficientStock])

	// La solicitud sigue siendo accionable: se puede rechazar.
	out, err := f.uc.HandleRequest(context.Background(), keeper, "req-9", dto.HandleTransferRequest{Approve: false})
	require.NoError(t, err)
	assert.Equal(t, "REJECTED", out.Status)
}

// El departamento ya tiene Monitor 4; aprobar 2 deja un único lote con 6.
func TestHandleRequest_FusionaEnLoteExistenteDelDepartamento(t *testing.T) {
	f := newFixture(t)
	src := f.lot(t, entity.WarehouseLocation(whID), "Monitor", 10)
	existing := f.lot(t, entity.DepartmentLocation(deptID), "Monitor", 4)

	req := f.create(t, line(src.ID, 2))
	_, err := approve(f, req.ID)
	require.NoError(t, err)

	deptLots, err := f.store.StockLots().ListByLocation(context.Background(), entity.DepartmentLocation(deptID))
	require.NoError(t, err)
	require.Len(t, deptLots, 1, "no se crea un segundo lote del mismo ítem")
	assert.Equal(t, existing.ID, deptLots[0].ID)
	assert.Equal(t, int64(6), deptLots[0].Quantity)
	assert.Equal(t, int64(8), f.qty(t, entity.WarehouseLocation(whID), "Monitor"))
}

// Conservación: bodega antes == bodega después + descontado; departamento después == antes + aprobado.
func TestHandleRequest_ConservaStockPorItem(t *testing.T) {
	f := newFixture(t)
	whLoc, deptLoc := entity.WarehouseLocation(whID), entity.DepartmentLocation(deptID)
	l1 := f.lot(t, whLoc, "Laptop", 4)
	f.lot(t, whLoc, "Laptop", 4)
	f.lot(t, whLoc, "Laptop", 4)
	m1 := f.lot(t, whLoc, "Mouse", 20)
	f.lot(t, deptLoc, "Mouse", 1)

	whBefore := map[string]int64{"Laptop": f.qty(t, whLoc, "Laptop"), "Mouse": f.qty(t, whLoc, "Mouse")}
	deptBefore := map[string]int64{"Laptop": f.qty(t, deptLoc, "Laptop"), "Mouse": f.qty(t, deptLoc, "Mouse")}

	req := f.create(t, line(l1.ID, 9), line(m1.ID, 7), line(l1.ID, 1))
	_, err := approve(f, req.ID)
	require.NoError(t, err)

	approved := map[string]int64{"Laptop": 10, "Mouse": 7}
	for name, q := range approved {
		assert.Equal(t, whBefore[name]-q, f.qty(t, whLoc, name), name)
		assert.Equal(t, deptBefore[name]+q, f.qty(t, deptLoc, name), name)
		assert.Equal(t, whBefore[name]+deptBefore[name], f.qty(t, whLoc, name)+f.qty(t, deptLoc, name), name)
	}
	f.ledger(t) // verifica que no haya lotes en cero
}

// Si la línea 2 falla, el descuento de la línea 1 se revierte: el ledger queda idéntico.
func TestHandleRequest_FalloEnSegundaLineaRevierteLaPrimera(t *testing.T) {
	f := newFixture(t)
	lap := f.lot(t, entity.WarehouseLocation(whID), "Laptop", 5)
	mon := f.lot(t, entity.WarehouseLocation(whID), "Monitor", 3)
	f.insertPending(t, "req-2l",
		entity.RequestLine{SourceLotID: lap.ID, ItemName: "Laptop", Quantity: 5},
		entity.RequestLine{SourceLotID: mon.ID, ItemName: "Monitor", Quantity: 4},
	)
	before := f.ledger(t)

	_, err := approve(f, "req-2l")
	var ise *domain.InsufficientStockError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, "Monitor", ise.ItemName)

	assert.Equal(t, before, f.ledger(t))
	movs, err := f.store.Movements().ListByTransaction(context.Background(), "req-2l")
	require.NoError(t, err)
	assert.Empty(t, movs)
}

// Rechazar nunca toca el ledger y deja la solicitud terminal.
func TestHandleRequest_RechazoNoMutaLotes(t *testing.T) {
	f := newFixture(t)
	lap := f.lot(t, entity.WarehouseLocation(whID), "Laptop", 5)
	req := f.create(t, line(lap.ID, 2))
	before := f.ledger(t)

	out, err := f.uc.HandleRequest(context.Background(), keeper, req.ID, dto.HandleTransferRequest{Approve: false, ResponseComments: "sin presupuesto"})
	require.NoError(t, err)
	assert.Equal(t, "REJECTED", out.Status)
	assert.Equal(t, "sin presupuesto", out.ResponseComments)
	assert.Equal(t, before, f.ledger(t))

	_, err = approve(f, req.ID)
	assert.True(t, errors.Is(err, domain.ErrInvalidStateTransition))
	assert.Equal(t, before, f.ledger(t))
}

func TestHandleRequest_SolicitudTerminalRetornaTransicionInvalida(t *testing.T) {
	f := newFixture(t)
	lap := f.lot(t, entity.WarehouseLocation(whID), "Laptop", 5)
	req := f.create(t, line(lap.ID, 2))
	_, err := approve(f, req.ID)
	require.NoError(t, err)

	_, err = approve(f, req.ID)
	assert.True(t, errors.Is(err, domain.ErrInvalidStateTransition))
	_, err = f.uc.HandleRequest(context.Background(), keeper, req.ID, dto.HandleTransferRequest{Approve: false})
	assert.True(t, errors.Is(err, domain.ErrInvalidStateTransition))
	assert.Equal(t, int64(3), f.qty(t, entity.WarehouseLocation(whID), "Laptop"))
	assert.Equal(t, 2, f.metrics.outcomes[inventory.OutcomeInvalidTransition])
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia y cancelación
// ──────────────────────────────────────────────────────────────────────────────

// Dos aprobaciones simultáneas de la misma solicitud: exactamente una gana.
func TestHandleRequest_AprobacionConcurrenteEsEfectivaUnaVez(t *testing.T) {
	for i := 0; i < 20; i++ {
		f := newFixture(t)
		lap := f.lot(t, entity.WarehouseLocation(whID), "Laptop", 10)
		req := f.create(t, line(lap.ID, 4))

		var wg sync.WaitGroup
		errs := make([]error, 2)
		start := make(chan struct{})
		for g := 0; g < 2; g++ {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				<-start
				_, errs[g] = approve(f, req.ID)
			}(g)
		}
		close(start)
		wg.Wait()

		var ok, conflicts int
		for _, err := range errs {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInvalidStateTransition):
				conflicts++
			default:
				t.Fatalf("error inesperado: %v", err)
			}
		}
		assert.Equal(t, 1, ok)
		assert.Equal(t, 1, conflicts)
		assert.Equal(t, int64(6), f.qty(t, entity.WarehouseLocation(whID), "Laptop"), "un solo descuento")
		assert.Equal(t, int64(4), f.qty(t, entity.DepartmentLocation(deptID), "Laptop"))
	}
}

// Muchas solicitudes distintas compitiendo por el mismo ítem nunca sobreasignan.
func TestHandleRequest_AprobacionesConcurrentesNoSobreasignan(t *testing.T) {
	f := newFixture(t)
	whLoc := entity.WarehouseLocation(whID)
	a := f.lot(t, whLoc, "Laptop", 7)
	f.lot(t, whLoc, "Laptop", 8)

	const n = 10
	ids := make([]string, n)
	for i := range ids {
		ids[i] = f.create(t, line(a.ID, 3)).ID
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	approved, short := 0, 0
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := approve(f, id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				approved++
			case errors.Is(err, domain.ErrInsufficientStock):
				short++
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 5, approved, "15 unidades alcanzan para 5 solicitudes de 3")
	assert.Equal(t, n-5, short)
	assert.Equal(t, int64(0), f.qty(t, whLoc, "Laptop"))
	assert.Equal(t, int64(15), f.qty(t, entity.DepartmentLocation(deptID), "Laptop"))
	f.ledger(t)
}

func TestHandleRequest_ContextoCanceladoDejaPendiente(t *testing.T) {
	f := newFixture(t)
	lap := f.lot(t, entity.WarehouseLocation(whID), "Laptop", 5)
	req := f.create(t, line(lap.ID, 2))
	before := f.ledger(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.uc.HandleRequest(ctx, keeper, req.ID, dto.HandleTransferRequest{Approve: true})
	assert.ErrorIs(t, err, context.Canceled)

	got, err := f.uc.GetByID(context.Background(), keeper, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "PENDING", got.Status)
	assert.Equal(t, before, f.ledger(t))
}

// ──────────────────────────────────────────────────────────────────────────────
// Permisos y validaciones de creación
// ──────────────────────────────────────────────────────────────────────────────

func TestHandleRequest_SinPermisoManageWarehouse(t *testing.T) {
	f := newFixture(t)
	lap := f.lot(t, entity.WarehouseLocation(whID), "Laptop", 5)
	req := f.create(t, line(lap.ID, 2))

	_, err := f.uc.HandleRequest(context.Background(), requester, req.ID, dto.HandleTransferRequest{Approve: true})
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	assert.Equal(t, int64(5), f.qty(t, entity.WarehouseLocation(whID), "Laptop"))
}

func TestHandleRequest_OtraEmpresaNoVeLaSolicitud(t *testing.T) {
	f := newFixture(t)
	lap := f.lot(t, entity.WarehouseLocation(whID), "Laptop", 5)
	req := f.create(t, line(lap.ID, 2))

	_, err := f.uc.HandleRequest(context.Background(), outsider, req.ID, dto.HandleTransferRequest{Approve: true})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = approve(f, "no-existe")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCreateRequest_Validaciones(t *testing.T) {
	f := newFixture(t)
	lap := f.lot(t, entity.WarehouseLocation(whID), "Laptop", 5)
	other := f.lot(t, entity.WarehouseLocation(whOtherID), "Laptop", 50)

	tests := []struct {
		name    string
		actor   entity.Actor
		in      dto.CreateTransferRequest
		wantErr error
	}{
		{"sin permiso", keeper, dto.CreateTransferRequest{WarehouseID: whID, DepartmentID: deptID, Lines: []dto.CreateTransferLine{line(lap.ID, 1)}}, domain.ErrForbidden},
		{"sin líneas", requester, dto.CreateTransferRequest{WarehouseID: whID, DepartmentID: deptID}, domain.ErrInvalidInput},
		{"cantidad cero", requester, dto.CreateTransferRequest{WarehouseID: whID, DepartmentID: deptID, Lines: []dto.CreateTransferLine{line(lap.ID, 0)}}, domain.ErrInvalidInput},
		{"cantidad negativa", requester, dto.CreateTransferRequest{WarehouseID: whID, DepartmentID: deptID, Lines: []dto.CreateTransferLine{line(lap.ID, -2)}}, domain.ErrInvalidInput},
		{"excede disponible", requester, dto.CreateTransferRequest{WarehouseID: whID, DepartmentID: deptID, Lines: []dto.CreateTransferLine{line(lap.ID, 6)}}, domain.ErrInvalidInput},
		{"líneas del mismo ítem suman más que el disponible", requester, dto.CreateTransferRequest{WarehouseID: whID, DepartmentID: deptID, Lines: []dto.CreateTransferLine{line(lap.ID, 3), line(lap.ID, 3)}}, domain.ErrInvalidInput},
		{"suma de líneas desborda int64", requester, dto.CreateTransferRequest{WarehouseID: whID, DepartmentID: deptID, Lines: []dto.CreateTransferLine{line(lap.ID, math.MaxInt64), line(lap.ID, 2)}}, domain.ErrInvalidInput},
		{"bodega inexistente", requester, dto.CreateTransferRequest{WarehouseID: "wh-x", DepartmentID: deptID, Lines: []dto.CreateTransferLine{line(lap.ID, 1)}}, domain.ErrNotFound},
		{"bodega de otra empresa", requester, dto.CreateTransferRequest{WarehouseID: "wh-ext", DepartmentID: deptID, Lines: []dto.CreateTransferLine{line(lap.ID, 1)}}, domain.ErrNotFound},
		{"departamento inexistente", requester, dto.CreateTransferRequest{WarehouseID: whID, DepartmentID: "dept-x", Lines: []dto.CreateTransferLine{line(lap.ID, 1)}}, domain.ErrNotFound},
		{"lote inexistente", requester, dto.CreateTransferRequest{WarehouseID: whID, DepartmentID: deptID, Lines: []dto.CreateTransferLine{line("lot-x", 1)}}, domain.ErrNotFound},
		{"lote de otra bodega", requester, dto.CreateTransferRequest{WarehouseID: whID, DepartmentID: deptID, Lines: []dto.CreateTransferLine{line(other.ID, 1)}}, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.CreateRequest(context.Background(), tt.actor, tt.in)
			assert.True(t, errors.Is(err, tt.wantErr), "esperado %v, obtenido %v", tt.wantErr, err)
		})
	}

	list, err := f.uc.ListByRequester(context.Background(), requester, nil)
	require.NoError(t, err)
	assert.Zero(t, list.Total, "ninguna solicitud inválida se persiste")
	assert.Zero(t, f.metrics.created)
}

// El ítem se resuelve por el lote origen, pero la disponibilidad suma todos los lotes del mismo nombre.
func TestCreateRequest_ValidaContraTodosLosLotesDelItem(t *testing.T) {
	f := newFixture(t)
	a := f.lot(t, entity.WarehouseLocation(whID), "Laptop", 3)
	f.lot(t, entity.WarehouseLocation(whID), "Laptop", 5)

	out := f.create(t, line(a.ID, 8))
	assert.Equal(t, int64(8), out.Lines[0].Quantity)
	assert.Equal(t, a.ID, out.Lines[0].SourceLotID)
	assert.Equal(t, requester.ID, out.RequesterID)
	assert.Equal(t, entID, out.EnterpriseID)
	assert.Equal(t, 1, f.metrics.created)
}

// Cantidades que desbordan int64 al sumarse no pueden colarse por debajo del disponible.
func TestCreateRequest_DesbordeDeCantidadNoPasaLaValidacion(t *testing.T) {
	f := newFixture(t)
	lap := f.lot(t, entity.WarehouseLocation(whID), "Laptop", 5)

	for _, lines := range [][]dto.CreateTransferLine{
		{line(lap.ID, math.MaxInt64), line(lap.ID, 2)},
		{line(lap.ID, 2), line(lap.ID, math.MaxInt64)},
		{line(lap.ID, math.MaxInt64-1), line(lap.ID, math.MaxInt64-1), line(lap.ID, 4)},
	} {
		out, err := f.uc.CreateRequest(context.Background(), requester, dto.CreateTransferRequest{
			WarehouseID: whID, DepartmentID: deptID, Lines: lines,
		})
		assert.Nil(t, out)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput), "obtenido %v", err)
	}

	list, err := f.uc.ListByRequester(context.Background(), requester, nil)
	require.NoError(t, err)
	assert.Zero(t, list.Total)
	assert.Equal(t, int64(5), f.qty(t, entity.WarehouseLocation(whID), "Laptop"))
}

// failingRunner reproduce una falla de serialización: before corre fuera de la transacción
// (otra aprobación que confirma primero) y Run devuelve ErrConflict sin aplicar fn.
type failingRunner struct {
	before func()
}

func (r failingRunner) Run(_ context.Context, _ func(
	repository.StockLotRepository,
	repository.TransferRequestRepository,
	repository.StockMovementRepository,
) error) error {
	if r.before != nil {
		r.before()
	}
	return fmt.Errorf("get for update: %w", domain.ErrConflict)
}

func (f *fixture) useCaseWith(runner inventory.TxRunner) *inventory.RequestUseCase {
	return inventory.NewRequestUseCase(inventory.RequestDeps{
		TxRunner:      runner,
		RequestRepo:   f.store.Requests(),
		MovementRepo:  f.store.Movements(),
		WarehouseRepo: f.store.Warehouses(),
		DeptRepo:      f.store.Departments(),
		Metrics:       f.metrics,
		Logger:        zerolog.Nop(),
	})
}

func TestHandleRequest_ConflictoDeSerializacionConSolicitudYaProcesada(t *testing.T) {
	f := newFixture(t)
	lap := f.lot(t, entity.WarehouseLocation(whID), "Laptop", 10)
	req := f.create(t, line(lap.ID, 2))

	loser := f.useCaseWith(failingRunner{before: func() {
		_, err := approve(f, req.ID)
		require.NoError(t, err)
	}})
	_, err := loser.HandleRequest(context.Background(), keeper, req.ID, dto.HandleTransferRequest{Approve: true})
	assert.True(t, errors.Is(err, domain.ErrInvalidStateTransition), "obtenido %v", err)
	assert.False(t, errors.Is(err, domain.ErrConflict))
	assert.Equal(t, int64(8), f.qty(t, entity.WarehouseLocation(whID), "Laptop"), "solo la primera aprobación mueve stock")
	assert.Equal(t, 1, f.metrics.outcomes[inventory.OutcomeInvalidTransition])
}

func TestHandleRequest_ConflictoDeSerializacionConSolicitudPendiente(t *testing.T) {
	f := newFixture(t)
	lap := f.lot(t, entity.WarehouseLocation(whID), "Laptop", 10)
	req := f.create(t, line(lap.ID, 2))

	_, err := f.useCaseWith(failingRunner{}).HandleRequest(context.Background(), keeper, req.ID, dto.HandleTransferRequest{Approve: true})
	assert.True(t, errors.Is(err, domain.ErrConflict), "obtenido %v", err)

	got, err := f.uc.GetByID(context.Background(), keeper, req.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.RequestPending), got.Status)
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestListados_PorBodegaDepartamentoYSolicitante(t *testing.T) {
	f := newFixture(t)
	lap := f.lot(t, entity.WarehouseLocation(whID), "Laptop", 10)
	r1 := f.create(t, line(lap.ID, 1))
	r2 := f.create(t, line(lap.ID, 2))
	_, err := approve(f, r1.ID)
	require.NoError(t, err)

	pending := entity.RequestPending
	list, err := f.uc.ListByWarehouse(context.Background(), keeper, whID, &pending)
	require.NoError(t, err)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, r2.ID, list.Items[0].ID)

	all, err := f.uc.ListByDepartment(context.Background(), requester, deptID, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, all.Total)

	approved := entity.RequestApproved
	mine, err := f.uc.ListByRequester(context.Background(), requester, &approved)
	require.NoError(t, err)
	require.Equal(t, 1, mine.Total)
	assert.Equal(t, r1.ID, mine.Items[0].ID)

	_, err = f.uc.ListByWarehouse(context.Background(), requester, whID, nil)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	_, err = f.uc.ListByWarehouse(context.Background(), outsider, whID, nil)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = f.uc.GetByID(context.Background(), outsider, r1.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
