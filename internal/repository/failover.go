package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"salonbot/internal/domain"
	"salonbot/internal/models"

	"github.com/rs/zerolog"
)

const defaultRecoveryInterval = time.Minute

// FailoverStateRepository serves from primary and switches to fallback when
// primary fails. Primary is probed again once per recovery interval.
type FailoverStateRepository struct {
	primary          domain.StateRepository
	fallback         domain.StateRepository
	logger           *zerolog.Logger
	recoveryInterval time.Duration

	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverStateRepository(primary, fallback domain.StateRepository, logger *zerolog.Logger) *FailoverStateRepository {
	return &FailoverStateRepository{
		primary:          primary,
		fallback:         fallback,
		logger:           logger,
		recoveryInterval: defaultRecoveryInterval,
	}
}

// usePrimary reports whether the next call should go to primary.
func (r *FailoverStateRepository) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Since(r.lastCheck) > r.recoveryInterval {
		r.lastCheck = time.Now()
		return true
	}
	return false
}

func (r *FailoverStateRepository) markResult(op string, err error) {
	if err == nil {
		if r.isDown.Swap(false) {
			r.logger.Info().Str("op", op).Msg("Primary state repository recovered")
		}
		return
	}
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Str("op", op).Msg("Primary state repository failed, falling back to memory")
	}
	r.mu.Lock()
	r.lastCheck = time.Now()
	r.mu.Unlock()
}

func (r *FailoverStateRepository) GetState(ctx context.Context, userID int64) (*models.ConversationState, error) {
	if r.usePrimary() {
		state, err := r.primary.GetState(ctx, userID)
		r.markResult("get", err)
		if err == nil {
			return state, nil
		}
	}
	return r.fallback.GetState(ctx, userID)
}

func (r *FailoverStateRepository) SetState(ctx context.Context, state *models.ConversationState) error {
	if r.usePrimary() {
		err := r.primary.SetState(ctx, state)
		r.markResult("set", err)
		if err == nil {
			return nil
		}
	}
	return r.fallback.SetState(ctx, state)
}

func (r *FailoverStateRepository) ClearState(ctx context.Context, userID int64) error {
	if r.usePrimary() {
		err := r.primary.ClearState(ctx, userID)
		r.markResult("clear", err)
		if err == nil {
			return nil
		}
	}
	return r.fallback.ClearState(ctx, userID)
}

func (r *FailoverStateRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, userID, limit, window)
		r.markResult("rate_limit", err)
		if err == nil {
			return allowed, nil
		}
	}
	return r.fallback.CheckRateLimit(ctx, userID, limit, window)
}
