package agent

import (
	"context"
	"sync"
	"time"
)

// DefaultMemoryTTL is how long an idle conversation thread is remembered.
const DefaultMemoryTTL = 24 * time.Hour

// MemoryStore persists conversation history per thread. Implementations
// must be safe for concurrent use.
type MemoryStore interface {
	// Load returns the history of a thread, or nil when the thread is
	// unknown or expired.
	Load(ctx context.Context, threadID string) ([]Message, error)
	// Save replaces the history of a thread and restarts its TTL.
	Save(ctx context.Context, threadID string, messages []Message) error
	Close() error
}

type memoryEntry struct {
	messages []Message
	expires  time.Time
}

// InMemoryStore keeps threads in process memory.
type InMemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	threads map[string]memoryEntry
}

// NewInMemoryStore returns an empty store. A ttl <= 0 means DefaultMemoryTTL.
func NewInMemoryStore(ttl time.Duration) *InMemoryStore {
	if ttl <= 0 {
		ttl = DefaultMemoryTTL
	}
	return &InMemoryStore{
		ttl:     ttl,
		now:     time.Now,
		threads: make(map[string]memoryEntry),
	}
}

// Load implements MemoryStore.
func (s *InMemoryStore) Load(_ context.Context, threadID string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.threads[threadID]
	if !ok {
		return nil, nil
	}
	if !s.now().Before(e.expires) {
		delete(s.threads, threadID)
		return nil, nil
	}
	return append([]Message(nil), e.messages...), nil
}

// Save implements MemoryStore.
func (s *InMemoryStore) Save(_ context.Context, threadID string, messages []Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, e := range s.threads {
		if !now.Before(e.expires) {
			delete(s.threads, id)
		}
	}
	s.threads[threadID] = memoryEntry{
		messages: append([]Message(nil), messages...),
		expires:  now.Add(s.ttl),
	}
	return nil
}

// Len returns the number of live threads.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.threads)
}

// Close implements MemoryStore.
func (s *InMemoryStore) Close() error {
	return nil
}
