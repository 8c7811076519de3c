package service

import (
	"context"
	"time"

	"github.com/coolestnick/Shard-Flip/events"
	"github.com/coolestnick/Shard-Flip/models"

	"github.com/stretchr/testify/mock"
)

// MockLedgerRepository is a mock implementation of LedgerRepository
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Get(ctx context.Context) (*models.LedgerState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LedgerState), args.Error(1)
}

func (m *MockLedgerRepository) GetForUpdate(ctx context.Context) (*models.LedgerState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LedgerState), args.Error(1)
}

func (m *MockLedgerRepository) Create(ctx context.Context, settings models.LedgerSettings) (*models.LedgerState, error) {
	args := m.Called(ctx, settings)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LedgerState), args.Error(1)
}

func (m *MockLedgerRepository) Update(ctx context.Context, state *models.LedgerState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

// MockPlayerRepository is a mock implementation of PlayerRepository
type MockPlayerRepository struct {
	mock.Mock
}

func (m *MockPlayerRepository) Get(ctx context.Context, address string) (*models.PlayerRecord, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlayerRecord), args.Error(1)
}

func (m *MockPlayerRepository) Create(ctx context.Context, address string, firstGameIndex int64) (*models.PlayerRecord, error) {
	args := m.Called(ctx, address, firstGameIndex)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlayerRecord), args.Error(1)
}

func (m *MockPlayerRepository) RecordGame(ctx context.Context, address string, stake, payout int64, won bool, playedAt time.Time) error {
	args := m.Called(ctx, address, stake, payout, won, playedAt)
	return args.Error(0)
}

func (m *MockPlayerRepository) GetTop(ctx context.Context, sortBy models.PlayerSort, limit int) ([]*models.PlayerRecord, error) {
	args := m.Called(ctx, sortBy, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PlayerRecord), args.Error(1)
}

func (m *MockPlayerRepository) List(ctx context.Context, query models.PlayerListQuery) ([]*models.PlayerRecord, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PlayerRecord), args.Error(1)
}

// MockGameRepository is a mock implementation of GameRepository
type MockGameRepository struct {
	mock.Mock
}

func (m *MockGameRepository) Append(ctx context.Context, game *models.GameRecord) error {
	args := m.Called(ctx, game)
	return args.Error(0)
}

func (m *MockGameRepository) GetByIndex(ctx context.Context, index int64) (*models.GameRecord, error) {
	args := m.Called(ctx, index)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GameRecord), args.Error(1)
}

func (m *MockGameRepository) GetRecent(ctx context.Context, limit int) ([]*models.GameRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.GameRecord), args.Error(1)
}

func (m *MockGameRepository) GetByPlayer(ctx context.Context, player string, limit int) ([]*models.GameRecord, error) {
	args := m.Called(ctx, player, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.GameRecord), args.Error(1)
}

// MockPoolMovementRepository is a mock implementation of PoolMovementRepository
type MockPoolMovementRepository struct {
	mock.Mock
}

func (m *MockPoolMovementRepository) Record(ctx context.Context, movement *models.PoolMovement) error {
	args := m.Called(ctx, movement)
	return args.Error(0)
}

func (m *MockPoolMovementRepository) GetRecent(ctx context.Context, limit int) ([]*models.PoolMovement, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PoolMovement), args.Error(1)
}

// MockServerSeedRepository is a mock implementation of ServerSeedRepository
type MockServerSeedRepository struct {
	mock.Mock
}

func (m *MockServerSeedRepository) GetActive(ctx context.Context) (*models.ServerSeed, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServerSeed), args.Error(1)
}

func (m *MockServerSeedRepository) GetByHash(ctx context.Context, seedHash string) (*models.ServerSeed, error) {
	args := m.Called(ctx, seedHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServerSeed), args.Error(1)
}

func (m *MockServerSeedRepository) Create(ctx context.Context, seed *models.ServerSeed) error {
	args := m.Called(ctx, seed)
	return args.Error(0)
}

func (m *MockServerSeedRepository) Reveal(ctx context.Context, id int64, revealedAt time.Time) error {
	args := m.Called(ctx, id, revealedAt)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
	ledgerRepo       *MockLedgerRepository
	playerRepo       *MockPlayerRepository
	gameRepo         *MockGameRepository
	poolMovementRepo *MockPoolMovementRepository
	serverSeedRepo   *MockServerSeedRepository
	eventBus         *MockEventPublisher
}

// NewMockUnitOfWork creates a mock unit of work with fresh repository mocks
func NewMockUnitOfWork() *MockUnitOfWork {
	return &MockUnitOfWork{
		ledgerRepo:       new(MockLedgerRepository),
		playerRepo:       new(MockPlayerRepository),
		gameRepo:         new(MockGameRepository),
		poolMovementRepo: new(MockPoolMovementRepository),
		serverSeedRepo:   new(MockServerSeedRepository),
		eventBus:         new(MockEventPublisher),
	}
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) LedgerRepository() LedgerRepository             { return m.ledgerRepo }
func (m *MockUnitOfWork) PlayerRepository() PlayerRepository             { return m.playerRepo }
func (m *MockUnitOfWork) GameRepository() GameRepository                 { return m.gameRepo }
func (m *MockUnitOfWork) PoolMovementRepository() PoolMovementRepository { return m.poolMovementRepo }
func (m *MockUnitOfWork) ServerSeedRepository() ServerSeedRepository     { return m.serverSeedRepo }
func (m *MockUnitOfWork) EventBus() EventPublisher                       { return m.eventBus }

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}

// MockTreasury is a mock implementation of Treasury
type MockTreasury struct {
	mock.Mock
}

func (m *MockTreasury) Send(ctx context.Context, transfer *models.Transfer) error {
	args := m.Called(ctx, transfer)
	return args.Error(0)
}

// MockMetricsRecorder is a mock implementation of MetricsRecorder
type MockMetricsRecorder struct {
	mock.Mock
}

func (m *MockMetricsRecorder) RecordBetSettled(won bool, stake, payout int64) {
	m.Called(won, stake, payout)
}

func (m *MockMetricsRecorder) RecordRejected(code string) {
	m.Called(code)
}

func (m *MockMetricsRecorder) RecordPoolMovement(kind string, amount int64) {
	m.Called(kind, amount)
}
