package repository

import (
	"context"
	"sync"
	"time"

	"salonbot/internal/models"
)

type memoryEntry struct {
	state     *models.ConversationState
	expiresAt time.Time
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

// MemoryStateRepository keeps sessions in process memory with a TTL.
// Expired entries are invisible to reads and removed by SweepExpired.
type MemoryStateRepository struct {
	mu         sync.Mutex
	states     map[int64]memoryEntry
	rateLimits map[int64]*rateLimitEntry
	ttl        time.Duration
	now        func() time.Time
}

func NewMemoryStateRepository(ttl time.Duration) *MemoryStateRepository {
	return &MemoryStateRepository{
		states:     make(map[int64]memoryEntry),
		rateLimits: make(map[int64]*rateLimitEntry),
		ttl:        ttl,
		now:        time.Now,
	}
}

func (r *MemoryStateRepository) GetState(ctx context.Context, userID int64) (*models.ConversationState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.states[userID]
	if !ok {
		return nil, nil
	}
	if r.expired(entry.expiresAt) {
		delete(r.states, userID)
		return nil, nil
	}
	return entry.state.Clone(), nil
}

func (r *MemoryStateRepository) SetState(ctx context.Context, state *models.ConversationState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := memoryEntry{state: state.Clone()}
	if r.ttl > 0 {
		entry.expiresAt = r.now().Add(r.ttl)
	}
	r.states[state.UserID] = entry
	return nil
}

func (r *MemoryStateRepository) ClearState(ctx context.Context, userID int64) error {
	r.mu.Lock()
	delete(r.states, userID)
	r.mu.Unlock()
	return nil
}

func (r *MemoryStateRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	entry, ok := r.rateLimits[userID]
	if !ok || now.After(entry.expiresAt) {
		entry = &rateLimitEntry{expiresAt: now.Add(window)}
		r.rateLimits[userID] = entry
	}
	entry.count++
	return entry.count <= limit, nil
}

// SweepExpired drops expired sessions and rate-limit windows and returns
// the number of sessions removed.
func (r *MemoryStateRepository) SweepExpired(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for userID, entry := range r.states {
		if !entry.expiresAt.IsZero() && !now.Before(entry.expiresAt) {
			delete(r.states, userID)
			removed++
		}
	}
	for userID, entry := range r.rateLimits {
		if now.After(entry.expiresAt) {
			delete(r.rateLimits, userID)
		}
	}
	return removed
}

// Len returns the number of stored sessions, expired ones included.
func (r *MemoryStateRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

func (r *MemoryStateRepository) expired(expiresAt time.Time) bool {
	return !expiresAt.IsZero() && !r.now().Before(expiresAt)
}
