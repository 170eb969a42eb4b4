package service

import (
	"context"
	"time"

	"salonbot/internal/domain"
	"salonbot/internal/models"

	"github.com/rs/zerolog"
)

// StateService is the conversation state store used by the dialogue.
// Updates for one user must be serialized by the caller.
type StateService struct {
	stateRepo domain.StateRepository
	logger    *zerolog.Logger
	now       func() time.Time
}

func NewStateService(stateRepo domain.StateRepository, logger *zerolog.Logger) *StateService {
	return &StateService{
		stateRepo: stateRepo,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *StateService) GetState(ctx context.Context, userID int64) (*models.ConversationState, error) {
	state, err := s.stateRepo.GetState(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to get user state")
		return nil, err
	}

	return state, nil
}

// MergeState overwrites the fields present in patch and keeps the rest.
// A missing state is created.
func (s *StateService) MergeState(ctx context.Context, userID int64, patch models.StatePatch) (*models.ConversationState, error) {
	state, err := s.GetState(ctx, userID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = &models.ConversationState{UserID: userID}
	}

	state.Apply(patch)
	state.UpdatedAt = s.now()

	if err := s.stateRepo.SetState(ctx, state); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to save user state")
		return nil, err
	}
	return state, nil
}

// ResetState drops the stored draft and saves a fresh one built from patch.
func (s *StateService) ResetState(ctx context.Context, userID int64, patch models.StatePatch) (*models.ConversationState, error) {
	state := &models.ConversationState{UserID: userID}
	state.Apply(patch)
	state.UpdatedAt = s.now()

	if err := s.stateRepo.SetState(ctx, state); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to reset user state")
		return nil, err
	}
	return state, nil
}

func (s *StateService) ClearState(ctx context.Context, userID int64) error {
	if err := s.stateRepo.ClearState(ctx, userID); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to clear user state")
		return err
	}
	return nil
}

func (s *StateService) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	return s.stateRepo.CheckRateLimit(ctx, userID, limit, window)
}
