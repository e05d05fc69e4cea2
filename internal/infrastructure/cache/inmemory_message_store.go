package cache

import (
	"context"
	"sync"
	"time"

	"github.com/dukaandost/backend/internal/domain/shared"
)

// DefaultSweepInterval is how often expired message ids are purged
const DefaultSweepInterval = 5 * time.Minute

// InMemoryMessageStore remembers inbound message ids in process memory.
// State is lost on restart and not shared between replicas.
type InMemoryMessageStore struct {
	mu        sync.Mutex
	seen      map[string]time.Time // message id -> expiry
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// InMemoryOption configures an InMemoryMessageStore
type InMemoryOption func(*InMemoryMessageStore)

// WithNow overrides the clock used for expiry
func WithNow(now func() time.Time) InMemoryOption {
	return func(s *InMemoryMessageStore) {
		s.now = now
	}
}

// NewInMemoryMessageStore creates the store and starts its purge loop
func NewInMemoryMessageStore(opts ...InMemoryOption) *InMemoryMessageStore {
	s := &InMemoryMessageStore{
		seen:     make(map[string]time.Time),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.wg.Add(1)
	go s.purgeLoop(DefaultSweepInterval)
	return s
}

// MarkProcessed records id and reports whether it was seen for the first time
func (s *InMemoryMessageStore) MarkProcessed(_ context.Context, id string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if expiry, ok := s.seen[id]; ok && now.Before(expiry) {
		return false, nil
	}
	s.seen[id] = now.Add(ttl)
	return true, nil
}

// IsProcessed reports whether id was marked and has not expired
func (s *InMemoryMessageStore) IsProcessed(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.seen[id]
	return ok && s.now().Before(expiry), nil
}

// Close stops the purge loop. Safe to call multiple times.
func (s *InMemoryMessageStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryMessageStore) purgeLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.purge()
		}
	}
}

func (s *InMemoryMessageStore) purge() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, expiry := range s.seen {
		if !now.Before(expiry) {
			delete(s.seen, id)
		}
	}
}

// Len returns the number of remembered ids, expired ones included until purged
func (s *InMemoryMessageStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

var _ shared.IdempotencyStore = (*InMemoryMessageStore)(nil)
