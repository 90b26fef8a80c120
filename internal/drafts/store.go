// Package drafts keeps per-user tweet drafts in memory with a bounded
// lifetime.
package drafts

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/superteamvn/stvbot/internal/models"
)

// ErrNoDraft is returned when the user has no current draft.
var ErrNoDraft = errors.New("no draft found")

// Store holds at most one draft per user. Drafts untouched for longer than the
// TTL are dropped by the sweeper.
type Store struct {
	mu     sync.Mutex
	drafts map[string]*models.Draft
	ttl    time.Duration
	logger *zap.Logger
}

// NewStore creates a draft store. ttl <= 0 disables expiry.
func NewStore(ttl time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		drafts: make(map[string]*models.Draft),
		ttl:    ttl,
		logger: logger,
	}
}

// Put saves the user's draft, replacing any existing one.
func (s *Store) Put(draft *models.Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	draft.UpdatedAt = time.Now()
	s.drafts[draft.UserID] = draft
}

// Get returns the user's current draft.
func (s *Store) Get(userID string) (*models.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	draft, ok := s.drafts[userID]
	if !ok {
		return nil, ErrNoDraft
	}
	if s.expired(draft, time.Now()) {
		delete(s.drafts, userID)
		return nil, ErrNoDraft
	}
	return draft, nil
}

// Delete removes the user's draft. Deleting a missing draft is not an error.
func (s *Store) Delete(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, userID)
}

// Len returns the number of live drafts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.drafts)
}

// Sweep drops every expired draft and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	removed := 0
	for id, d := range s.drafts {
		if s.expired(d, now) {
			delete(s.drafts, id)
			removed++
		}
	}
	return removed
}

// Run sweeps periodically until ctx is canceled. No-op when expiry is
// disabled.
func (s *Store) Run(ctx context.Context) {
	if s.ttl <= 0 {
		return
	}
	interval := s.ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Debug("expired drafts removed", zap.Int("count", n))
			}
		}
	}
}

func (s *Store) expired(d *models.Draft, now time.Time) bool {
	return s.ttl > 0 && now.Sub(d.UpdatedAt) > s.ttl
}
