// Package memory is an in-process store for running the ledger without PostgreSQL.
// A unit of work holds the store lock from Begin until Commit or Rollback. Writes
// land in the committed state directly and record an undo step, so Rollback
// replays the journal backwards and Begin costs the same at any history size.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/coolestnick/Shard-Flip/events"
	"github.com/coolestnick/Shard-Flip/models"
	"github.com/coolestnick/Shard-Flip/service"
)

type state struct {
	ledger         *models.LedgerState
	players        map[string]*models.PlayerRecord
	games          []*models.GameRecord
	movements      []*models.PoolMovement
	seeds          []*models.ServerSeed
	nextMovementID int64
	nextSeedID     int64
}

func newState() *state {
	return &state{
		players:        make(map[string]*models.PlayerRecord),
		nextMovementID: 1,
		nextSeedID:     1,
	}
}

// journal records how to reverse each write of one unit of work
type journal struct {
	undo []func()
}

func (j *journal) record(undo func()) {
	j.undo = append(j.undo, undo)
}

func (j *journal) rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

// Store holds the committed state
type Store struct {
	txMu sync.Mutex
	data *state
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{data: newState()}
}

// NewUnitOfWorkFactory creates units of work over store that flush events to eventBus
func NewUnitOfWorkFactory(store *Store, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{store: store, eventBus: eventBus}
}

type unitOfWorkFactory struct {
	store    *Store
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		store:            f.store,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

type unitOfWork struct {
	store            *Store
	ctx              context.Context
	journal          *journal
	transactionalBus *events.TransactionalBus
}

func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.journal != nil {
		return fmt.Errorf("transaction already started")
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	u.store.txMu.Lock()
	u.ctx = ctx
	u.journal = &journal{}
	return nil
}

func (u *unitOfWork) Commit() error {
	if u.journal == nil {
		return fmt.Errorf("no transaction to commit")
	}
	u.journal = nil
	u.store.txMu.Unlock()

	_ = u.transactionalBus.Flush(u.ctx)
	return nil
}

func (u *unitOfWork) Rollback() error {
	if u.journal == nil {
		return nil
	}
	u.journal.rollback()
	u.journal = nil
	u.store.txMu.Unlock()

	u.transactionalBus.Discard()
	return nil
}

func (u *unitOfWork) mustBegin() tx {
	if u.journal == nil {
		panic("unit of work not started - call Begin() first")
	}
	return tx{s: u.store.data, j: u.journal}
}

func (u *unitOfWork) LedgerRepository() service.LedgerRepository {
	return &ledgerRepository{u.mustBegin()}
}

func (u *unitOfWork) PlayerRepository() service.PlayerRepository {
	return &playerRepository{u.mustBegin()}
}

func (u *unitOfWork) GameRepository() service.GameRepository {
	return &gameRepository{u.mustBegin()}
}

func (u *unitOfWork) PoolMovementRepository() service.PoolMovementRepository {
	return &poolMovementRepository{u.mustBegin()}
}

func (u *unitOfWork) ServerSeedRepository() service.ServerSeedRepository {
	return &serverSeedRepository{u.mustBegin()}
}

func (u *unitOfWork) EventBus() service.EventPublisher {
	u.mustBegin()
	return u.transactionalBus
}
