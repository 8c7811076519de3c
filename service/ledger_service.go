package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/coolestnick/Shard-Flip/events"
	"github.com/coolestnick/Shard-Flip/fairness"
	"github.com/coolestnick/Shard-Flip/models"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// settlementTimeout bounds a ledger transaction once it has been detached from
// the caller's context.
const settlementTimeout = 30 * time.Second

type ledgerService struct {
	// mu serializes every mutating operation in this process. The ledger row lock
	// taken in GetForUpdate does the same across processes.
	mu         sync.Mutex
	uowFactory UnitOfWorkFactory
	flipper    Flipper
	treasury   Treasury
	clock      Clock
	metrics    MetricsRecorder
}

// NewLedgerService creates a new ledger service
func NewLedgerService(uowFactory UnitOfWorkFactory, flipper Flipper, treasury Treasury, clock Clock, metrics MetricsRecorder) LedgerService {
	if clock == nil {
		clock = SystemClock()
	}
	if flipper == nil {
		flipper = fairness.HMACFlipper{}
	}
	return &ledgerService{
		uowFactory: uowFactory,
		flipper:    flipper,
		treasury:   treasury,
		clock:      clock,
		metrics:    metrics,
	}
}

func (s *ledgerService) Init(ctx context.Context, settings models.LedgerSettings) (*models.LedgerState, error) {
	settings.Owner = models.NormalizeAddress(settings.Owner)
	if models.IsZeroAddress(settings.Owner) {
		return nil, ErrInvalidOwner
	}
	if settings.MinBet <= 0 || settings.MaxBet < settings.MinBet {
		return nil, ErrInvalidAmount.withDetail("bet bounds %d..%d", settings.MinBet, settings.MaxBet)
	}
	if settings.PayoutMultiplier < 1 || settings.MaxBet > math.MaxInt64/settings.PayoutMultiplier {
		return nil, ErrInvalidAmount.withDetail("payout multiplier %d", settings.PayoutMultiplier)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := detach(ctx)
	defer cancel()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	ledger, err := uow.LedgerRepository().Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger: %w", err)
	}
	if ledger == nil {
		ledger, err = uow.LedgerRepository().Create(ctx, settings)
		if err != nil {
			return nil, fmt.Errorf("failed to create ledger: %w", err)
		}
		log.WithFields(log.Fields{
			"owner":      ledger.Owner,
			"minBet":     ledger.MinBet,
			"maxBet":     ledger.MaxBet,
			"multiplier": ledger.PayoutMultiplier,
		}).Info("Created ledger")
	}

	seed, err := uow.ServerSeedRepository().GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active server seed: %w", err)
	}
	if seed == nil {
		seed, err = fairness.GenerateSeed()
		if err != nil {
			return nil, err
		}
		if err := uow.ServerSeedRepository().Create(ctx, seed); err != nil {
			return nil, fmt.Errorf("failed to store server seed: %w", err)
		}
		log.WithField("seedHash", seed.SeedHash).Info("Committed initial server seed")
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return ledger, nil
}

func (s *ledgerService) PlaceBet(ctx context.Context, req models.BetRequest) (*models.BetResult, error) {
	player := models.NormalizeAddress(req.Player)
	if models.IsZeroAddress(player) {
		return nil, s.reject(ErrInvalidPlayer)
	}
	if !req.Choice.Valid() {
		return nil, s.reject(ErrInvalidSide.withDetail("%q", req.Choice))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := detach(ctx)
	defer cancel()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	ledger, err := s.lockLedger(ctx, uow)
	if err != nil {
		return nil, err
	}

	if err := checkBet(ledger, req); err != nil {
		return nil, s.reject(err)
	}

	seed, err := uow.ServerSeedRepository().GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active server seed: %w", err)
	}
	if seed == nil {
		return nil, ErrLedgerNotInitialized.withDetail("no active server seed")
	}

	now := s.clock.Now()
	gameIndex := ledger.TotalGames
	poolBefore := ledger.PoolBalance

	// Stake is taken into custody before the draw
	ledger.PoolBalance += req.Stake

	result := s.flipper.Flip(seed, player, gameIndex)
	won := result == req.Choice

	var payout int64
	if won {
		payout = ledger.MaxPayout(req.Stake)
		ledger.PoolBalance -= payout
	}

	existing, err := uow.PlayerRepository().Get(ctx, player)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	if existing == nil {
		if _, err := uow.PlayerRepository().Create(ctx, player, gameIndex); err != nil {
			return nil, fmt.Errorf("failed to create player: %w", err)
		}
		ledger.TotalActiveUsers++
	}

	if err := uow.PlayerRepository().RecordGame(ctx, player, req.Stake, payout, won, now); err != nil {
		return nil, fmt.Errorf("failed to update player stats: %w", err)
	}

	game := &models.GameRecord{
		GameIndex:      gameIndex,
		Player:         player,
		BetAmount:      req.Stake,
		Choice:         req.Choice,
		Result:         result,
		Won:            won,
		Payout:         payout,
		ServerSeedHash: seed.SeedHash,
		Nonce:          gameIndex,
		PlayedAt:       now,
	}
	if err := uow.GameRepository().Append(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to append game record: %w", err)
	}

	ledger.TotalGames++
	ledger.TotalVolume += req.Stake
	ledger.TotalPayout += payout

	if err := uow.LedgerRepository().Update(ctx, ledger); err != nil {
		return nil, fmt.Errorf("failed to update ledger: %w", err)
	}

	metadata := map[string]any{"choice": req.Choice, "result": result}
	if req.Payment.Reference != "" {
		metadata["payment_reference"] = req.Payment.Reference
	}
	if err := RecordPoolMovement(ctx, uow, &models.PoolMovement{
		Kind:          models.MovementKindStakeIn,
		Actor:         player,
		Amount:        req.Stake,
		BalanceBefore: poolBefore,
		BalanceAfter:  poolBefore + req.Stake,
		GameIndex:     &gameIndex,
		Metadata:      metadata,
	}); err != nil {
		return nil, err
	}
	if won {
		if err := RecordPoolMovement(ctx, uow, &models.PoolMovement{
			Kind:          models.MovementKindPayoutOut,
			Actor:         player,
			Amount:        payout,
			BalanceBefore: poolBefore + req.Stake,
			BalanceAfter:  ledger.PoolBalance,
			GameIndex:     &gameIndex,
		}); err != nil {
			return nil, err
		}
	}

	uow.EventBus().Publish(events.NewGamePlayedEvent(game))

	// The payout is the last effect. Everything above is already written in this
	// transaction, and a failed send rolls all of it back.
	if won {
		if _, err := s.send(ctx, models.MovementKindPayoutOut, player, payout, &gameIndex); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		if won {
			log.WithFields(log.Fields{
				"player":    player,
				"gameIndex": gameIndex,
				"payout":    payout,
				"error":     err,
			}).Error("Payout was sent but settlement commit failed")
			return nil, ErrSettlementUnrecorded.wrap(err)
		}
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"player":    player,
		"gameIndex": gameIndex,
		"stake":     req.Stake,
		"choice":    req.Choice,
		"result":    result,
		"won":       won,
		"payout":    payout,
		"pool":      ledger.PoolBalance,
	}).Info("Bet settled")

	if s.metrics != nil {
		s.metrics.RecordBetSettled(won, req.Stake, payout)
		s.metrics.RecordPoolMovement(string(models.MovementKindStakeIn), req.Stake)
		if won {
			s.metrics.RecordPoolMovement(string(models.MovementKindPayoutOut), payout)
		}
	}

	return &models.BetResult{
		Game:        game,
		PoolBalance: ledger.PoolBalance,
	}, nil
}

// checkBet applies the bet preconditions in order. The first failure wins.
func checkBet(ledger *models.LedgerState, req models.BetRequest) error {
	if ledger.Paused {
		return ErrLedgerPaused
	}
	if req.Stake < ledger.MinBet {
		return ErrBetTooLow.withDetail("minimum is %d", ledger.MinBet)
	}
	if req.Stake > ledger.MaxBet {
		return ErrBetTooHigh.withDetail("maximum is %d", ledger.MaxBet)
	}
	if ledger.PoolBalance < ledger.MaxPayout(req.Stake) {
		return ErrInsufficientLiquidity.withDetail("pool %d cannot cover %d", ledger.PoolBalance, ledger.MaxPayout(req.Stake))
	}
	if req.Payment == nil || req.Payment.Amount != req.Stake {
		return ErrPaymentNotAttached
	}
	if ledger.PoolBalance > math.MaxInt64-req.Stake {
		return ErrInvalidAmount.withDetail("pool balance would overflow")
	}
	return nil
}

func (s *ledgerService) DepositFunds(ctx context.Context, caller string, amount int64) (*models.LedgerState, error) {
	caller = models.NormalizeAddress(caller)
	if models.IsZeroAddress(caller) {
		return nil, ErrInvalidPlayer
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	return s.mutate(ctx, func(ctx context.Context, uow UnitOfWork, ledger *models.LedgerState) (*models.Transfer, error) {
		if ledger.PoolBalance > math.MaxInt64-amount {
			return nil, ErrInvalidAmount.withDetail("pool balance would overflow")
		}
		before := ledger.PoolBalance
		ledger.PoolBalance += amount

		if err := uow.LedgerRepository().Update(ctx, ledger); err != nil {
			return nil, fmt.Errorf("failed to update ledger: %w", err)
		}
		if err := RecordPoolMovement(ctx, uow, &models.PoolMovement{
			Kind:          models.MovementKindDeposit,
			Actor:         caller,
			Amount:        amount,
			BalanceBefore: before,
			BalanceAfter:  ledger.PoolBalance,
		}); err != nil {
			return nil, err
		}

		uow.EventBus().Publish(events.FundsDepositedEvent{
			Sender:     caller,
			Amount:     amount,
			NewBalance: ledger.PoolBalance,
		})
		return nil, nil
	}, func(ledger *models.LedgerState) {
		log.WithFields(log.Fields{"sender": caller, "amount": amount, "pool": ledger.PoolBalance}).Info("Funds deposited")
		s.recordMovement(models.MovementKindDeposit, amount)
	})
}

func (s *ledgerService) WithdrawFunds(ctx context.Context, caller string, amount int64) (*models.LedgerState, error) {
	caller = models.NormalizeAddress(caller)

	return s.mutate(ctx, func(ctx context.Context, uow UnitOfWork, ledger *models.LedgerState) (*models.Transfer, error) {
		if err := requireOwner(ledger, caller); err != nil {
			return nil, err
		}
		if amount <= 0 {
			return nil, ErrInvalidAmount
		}
		if amount > ledger.PoolBalance {
			return nil, ErrInsufficientBalance.withDetail("pool holds %d", ledger.PoolBalance)
		}

		before := ledger.PoolBalance
		ledger.PoolBalance -= amount

		if err := uow.LedgerRepository().Update(ctx, ledger); err != nil {
			return nil, fmt.Errorf("failed to update ledger: %w", err)
		}
		if err := RecordPoolMovement(ctx, uow, &models.PoolMovement{
			Kind:          models.MovementKindWithdrawal,
			Actor:         caller,
			Amount:        amount,
			BalanceBefore: before,
			BalanceAfter:  ledger.PoolBalance,
		}); err != nil {
			return nil, err
		}

		uow.EventBus().Publish(events.FundsWithdrawnEvent{
			Owner:      caller,
			Amount:     amount,
			NewBalance: ledger.PoolBalance,
		})

		return s.send(ctx, models.MovementKindWithdrawal, caller, amount, nil)
	}, func(ledger *models.LedgerState) {
		log.WithFields(log.Fields{"owner": caller, "amount": amount, "pool": ledger.PoolBalance}).Info("Funds withdrawn")
		s.recordMovement(models.MovementKindWithdrawal, amount)
	})
}

func (s *ledgerService) EmergencyWithdraw(ctx context.Context, caller string) (*models.LedgerState, error) {
	caller = models.NormalizeAddress(caller)
	var drained int64

	return s.mutate(ctx, func(ctx context.Context, uow UnitOfWork, ledger *models.LedgerState) (*models.Transfer, error) {
		if err := requireOwner(ledger, caller); err != nil {
			return nil, err
		}

		drained = ledger.PoolBalance
		ledger.PoolBalance = 0

		if err := uow.LedgerRepository().Update(ctx, ledger); err != nil {
			return nil, fmt.Errorf("failed to update ledger: %w", err)
		}
		if err := RecordPoolMovement(ctx, uow, &models.PoolMovement{
			Kind:          models.MovementKindEmergencyWithdrawal,
			Actor:         caller,
			Amount:        drained,
			BalanceBefore: drained,
			BalanceAfter:  0,
		}); err != nil {
			return nil, err
		}

		uow.EventBus().Publish(events.EmergencyWithdrawalEvent{
			Owner:  caller,
			Amount: drained,
		})

		if drained == 0 {
			return nil, nil
		}
		return s.send(ctx, models.MovementKindEmergencyWithdrawal, caller, drained, nil)
	}, func(ledger *models.LedgerState) {
		log.WithFields(log.Fields{"owner": caller, "amount": drained}).Warn("Emergency withdrawal drained the pool")
		s.recordMovement(models.MovementKindEmergencyWithdrawal, drained)
	})
}

func (s *ledgerService) SetPaused(ctx context.Context, caller string, paused bool) (*models.LedgerState, error) {
	caller = models.NormalizeAddress(caller)

	return s.mutate(ctx, func(ctx context.Context, uow UnitOfWork, ledger *models.LedgerState) (*models.Transfer, error) {
		if err := requireOwner(ledger, caller); err != nil {
			return nil, err
		}

		ledger.Paused = paused
		if err := uow.LedgerRepository().Update(ctx, ledger); err != nil {
			return nil, fmt.Errorf("failed to update ledger: %w", err)
		}

		uow.EventBus().Publish(events.PauseChangedEvent{Owner: caller, Paused: paused})
		return nil, nil
	}, func(ledger *models.LedgerState) {
		log.WithField("paused", paused).Info("Ledger pause state changed")
	})
}

func (s *ledgerService) TransferOwnership(ctx context.Context, caller, newOwner string) (*models.LedgerState, error) {
	caller = models.NormalizeAddress(caller)
	newOwner = models.NormalizeAddress(newOwner)

	return s.mutate(ctx, func(ctx context.Context, uow UnitOfWork, ledger *models.LedgerState) (*models.Transfer, error) {
		if err := requireOwner(ledger, caller); err != nil {
			return nil, err
		}
		if models.IsZeroAddress(newOwner) {
			return nil, ErrInvalidOwner
		}

		previous := ledger.Owner
		ledger.Owner = newOwner
		if err := uow.LedgerRepository().Update(ctx, ledger); err != nil {
			return nil, fmt.Errorf("failed to update ledger: %w", err)
		}

		uow.EventBus().Publish(events.OwnershipTransferredEvent{
			PreviousOwner: previous,
			NewOwner:      newOwner,
		})
		return nil, nil
	}, func(ledger *models.LedgerState) {
		log.WithFields(log.Fields{"previousOwner": caller, "newOwner": newOwner}).Info("Ownership transferred")
	})
}

func (s *ledgerService) RotateSeed(ctx context.Context, caller string) (*models.SeedReveal, error) {
	caller = models.NormalizeAddress(caller)
	var reveal *models.SeedReveal

	_, err := s.mutate(ctx, func(ctx context.Context, uow UnitOfWork, ledger *models.LedgerState) (*models.Transfer, error) {
		if err := requireOwner(ledger, caller); err != nil {
			return nil, err
		}

		current, err := uow.ServerSeedRepository().GetActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get active server seed: %w", err)
		}
		if current == nil {
			return nil, ErrLedgerNotInitialized.withDetail("no active server seed")
		}
		if err := uow.ServerSeedRepository().Reveal(ctx, current.ID, s.clock.Now()); err != nil {
			return nil, fmt.Errorf("failed to reveal server seed: %w", err)
		}

		next, err := fairness.GenerateSeed()
		if err != nil {
			return nil, err
		}
		if err := uow.ServerSeedRepository().Create(ctx, next); err != nil {
			return nil, fmt.Errorf("failed to store server seed: %w", err)
		}

		reveal = &models.SeedReveal{
			RevealedSeed:     current.Seed,
			RevealedSeedHash: current.SeedHash,
			NextSeedHash:     next.SeedHash,
		}
		uow.EventBus().Publish(events.SeedRotatedEvent{
			RevealedSeed:     reveal.RevealedSeed,
			RevealedSeedHash: reveal.RevealedSeedHash,
			NextSeedHash:     reveal.NextSeedHash,
		})
		return nil, nil
	}, func(ledger *models.LedgerState) {
		log.WithFields(log.Fields{
			"revealedSeedHash": reveal.RevealedSeedHash,
			"nextSeedHash":     reveal.NextSeedHash,
		}).Info("Rotated server seed")
	})
	if err != nil {
		return nil, err
	}
	return reveal, nil
}

// mutate runs fn against the locked ledger row inside one serialized transaction.
// fn's writes are committed only if it returns a nil error, and a transfer it
// reports as sent must be settled by that commit. after runs once the commit succeeded.
func (s *ledgerService) mutate(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork, ledger *models.LedgerState) (*models.Transfer, error), after func(ledger *models.LedgerState)) (*models.LedgerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := detach(ctx)
	defer cancel()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	ledger, err := s.lockLedger(ctx, uow)
	if err != nil {
		return nil, err
	}

	sent, err := fn(ctx, uow, ledger)
	if err != nil {
		if _, ok := AsLedgerError(err); ok {
			s.reject(err)
		}
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		if sent != nil {
			log.WithFields(log.Fields{
				"transferId": sent.ID,
				"kind":       sent.Kind,
				"recipient":  sent.Recipient,
				"amount":     sent.Amount,
				"error":      err,
			}).Error("Transfer was sent but settlement commit failed")
			return nil, ErrSettlementUnrecorded.wrap(err)
		}
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if after != nil {
		after(ledger)
	}
	return ledger, nil
}

// detach drops the caller's cancellation. A settlement that has begun runs to
// commit or rollback on its own deadline.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), settlementTimeout)
}

func (s *ledgerService) lockLedger(ctx context.Context, uow UnitOfWork) (*models.LedgerState, error) {
	ledger, err := uow.LedgerRepository().GetForUpdate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to lock ledger: %w", err)
	}
	if ledger == nil {
		return nil, ErrLedgerNotInitialized
	}
	return ledger, nil
}

// send delivers funds through the treasury. Callers invoke it after every write
// of the enclosing transaction has been made.
func (s *ledgerService) send(ctx context.Context, kind models.MovementKind, recipient string, amount int64, gameIndex *int64) (*models.Transfer, error) {
	if s.treasury == nil {
		return nil, ErrTransferFailed.withDetail("no treasury configured")
	}
	transfer := &models.Transfer{
		ID:        uuid.NewString(),
		Kind:      kind,
		Recipient: recipient,
		Amount:    amount,
		GameIndex: gameIndex,
		CreatedAt: s.clock.Now(),
	}
	if err := s.treasury.Send(ctx, transfer); err != nil {
		log.WithFields(log.Fields{
			"transferId": transfer.ID,
			"kind":       kind,
			"recipient":  recipient,
			"amount":     amount,
			"error":      err,
		}).Error("Transfer failed, rolling back")
		return nil, ErrTransferFailed.wrap(err)
	}
	return transfer, nil
}

func (s *ledgerService) reject(err error) error {
	log.WithFields(log.Fields{
		"code":  ErrorCode(err),
		"error": err,
	}).Debug("Ledger operation rejected")
	if s.metrics != nil {
		s.metrics.RecordRejected(ErrorCode(err))
	}
	return err
}

func (s *ledgerService) recordMovement(kind models.MovementKind, amount int64) {
	if s.metrics != nil {
		s.metrics.RecordPoolMovement(string(kind), amount)
	}
}

func requireOwner(ledger *models.LedgerState, caller string) error {
	if caller == "" || caller != ledger.Owner {
		return ErrNotOwner
	}
	return nil
}
