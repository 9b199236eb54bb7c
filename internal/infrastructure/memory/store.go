// Package memory implementa los repositorios en memoria con transacciones de copia y reemplazo.
// Se usa en tests y con STORE_DRIVER=memory; el estado se pierde al reiniciar.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/inventario-traslados/internal/application/inventory"
	"github.com/jhoicas/inventario-traslados/internal/domain/entity"
	"github.com/jhoicas/inventario-traslados/internal/domain/repository"
)

var _ inventory.TxRunner = (*Store)(nil)

type state struct {
	lots        map[string]*entity.StockLot
	requests    map[string]*entity.TransferRequest
	movements   []*entity.StockMovement
	warehouses  map[string]*entity.Warehouse
	departments map[string]*entity.Department
	users       map[string]*entity.User
}

func newState() *state {
	return &state{
		lots:        make(map[string]*entity.StockLot),
		requests:    make(map[string]*entity.TransferRequest),
		warehouses:  make(map[string]*entity.Warehouse),
		departments: make(map[string]*entity.Department),
		users:       make(map[string]*entity.User),
	}
}

// clone copia lo que una transacción puede mutar (lotes, solicitudes, movimientos).
// El registro de bodegas, departamentos y usuarios es de solo lectura y se comparte.
func (s *state) clone() *state {
	c := &state{
		lots:        make(map[string]*entity.StockLot, len(s.lots)),
		requests:    make(map[string]*entity.TransferRequest, len(s.requests)),
		movements:   append([]*entity.StockMovement(nil), s.movements...),
		warehouses:  s.warehouses,
		departments: s.departments,
		users:       s.users,
	}
	for id, l := range s.lots {
		c.lots[id] = l.Clone()
	}
	for id, r := range s.requests {
		c.requests[id] = r.Clone()
	}
	return c
}

// Store guarda el estado confirmado. Las transacciones se ejecutan de a una (mutex exclusivo),
// lo que equivale a aislamiento SERIALIZABLE: cada Run trabaja sobre una copia y solo la
// publica si fn termina sin error y el contexto sigue vigente.
type Store struct {
	mu    sync.Mutex
	state *state
	nowFn func() time.Time
}

// NewStore construye un store vacío.
func NewStore() *Store {
	return &Store{
		state: newState(),
		nowFn: func() time.Time { return time.Now().UTC() },
	}
}

// SetNowFunc reemplaza el reloj usado para CreatedAt/UpdatedAt (tests).
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = fn
}

// Run ejecuta fn con repositorios atados a una copia del estado; Commit = reemplazar el estado.
func (s *Store) Run(ctx context.Context, fn func(
	lotRepo repository.StockLotRepository,
	requestRepo repository.TransferRequestRepository,
	movRepo repository.StockMovementRepository,
) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.state.clone()
	acc := txAccess{st: work, now: s.nowFn}
	if err := fn(&LotRepo{acc: acc}, &RequestRepo{acc: acc}, &MovementRepo{acc: acc}); err != nil {
		return err
	}
	// Un contexto cancelado antes del commit descarta la copia (Rollback).
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = work
	return nil
}

// StockLots repositorio de lotes fuera de transacción (cada llamada toma el lock del store).
func (s *Store) StockLots() *LotRepo { return &LotRepo{acc: storeAccess{s}} }

// Requests repositorio de solicitudes fuera de transacción.
func (s *Store) Requests() *RequestRepo { return &RequestRepo{acc: storeAccess{s}} }

// Movements repositorio de movimientos fuera de transacción.
func (s *Store) Movements() *MovementRepo { return &MovementRepo{acc: storeAccess{s}} }

// Warehouses repositorio del registro de bodegas.
func (s *Store) Warehouses() *WarehouseRepo { return &WarehouseRepo{s: s} }

// Departments repositorio del registro de departamentos.
func (s *Store) Departments() *DepartmentRepo { return &DepartmentRepo{s: s} }

// Users repositorio de usuarios.
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

// AddWarehouse registra una bodega (seed/tests).
func (s *Store) AddWarehouse(w *entity.Warehouse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *w
	s.state.warehouses[w.ID] = &c
}

// AddDepartment registra un departamento (seed/tests).
func (s *Store) AddDepartment(d *entity.Department) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *d
	s.state.departments[d.ID] = &c
}

// AddUser registra un usuario (seed/tests).
func (s *Store) AddUser(u *entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *u
	s.state.users[u.ID] = &c
}

// access abstrae cómo un repositorio llega al estado: dentro de una tx (ya bloqueado)
// o directo sobre el store (bloquea por llamada).
type access interface {
	with(ctx context.Context, fn func(st *state, now time.Time) error) error
}

type txAccess struct {
	st  *state
	now func() time.Time
}

func (a txAccess) with(ctx context.Context, fn func(*state, time.Time) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(a.st, a.now())
}

type storeAccess struct{ s *Store }

// with sobre el store confirmado: las escrituras fuera de Run se aplican de inmediato.
func (a storeAccess) with(ctx context.Context, fn func(*state, time.Time) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	return fn(a.s.state, a.s.nowFn())
}
