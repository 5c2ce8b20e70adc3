package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/lgch/luna/internal/logging"
)

const threadKeyPrefix = "thread/"

// BadgerOptions configures a BadgerMemoryStore.
type BadgerOptions struct {
	// Path is the database directory. Empty means in-memory.
	Path string
	// InMemory forces in-memory mode regardless of Path.
	InMemory bool
	// TTL expires idle threads. Zero means DefaultMemoryTTL.
	TTL time.Duration
	// Logger receives Badger's own warnings and errors.
	Logger *slog.Logger
}

// BadgerMemoryStore keeps threads in a Badger database so conversations
// survive restarts. Expiry uses Badger's native entry TTL.
type BadgerMemoryStore struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenBadgerMemoryStore opens or creates the store.
func OpenBadgerMemoryStore(opts BadgerOptions) (*BadgerMemoryStore, error) {
	var badgerOpts badger.Options
	if opts.InMemory || opts.Path == "" {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(opts.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create memory directory: %w", err)
		}
		badgerOpts = badger.DefaultOptions(opts.Path)
	}
	badgerOpts = badgerOpts.
		WithLogger(logging.NewSlogAdapter(opts.Logger)).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open memory store: %w", err)
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultMemoryTTL
	}
	return &BadgerMemoryStore{db: db, ttl: ttl}, nil
}

// Load implements MemoryStore.
func (s *BadgerMemoryStore) Load(_ context.Context, threadID string) ([]Message, error) {
	var messages []Message
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(threadKeyPrefix + threadID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &messages)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load thread %s: %w", threadID, err)
	}
	return messages, nil
}

// Save implements MemoryStore.
func (s *BadgerMemoryStore) Save(_ context.Context, threadID string, messages []Message) error {
	data, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("encode thread %s: %w", threadID, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(threadKeyPrefix+threadID), data).WithTTL(s.ttl)
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("save thread %s: %w", threadID, err)
	}
	return nil
}

// Close implements MemoryStore.
func (s *BadgerMemoryStore) Close() error {
	return s.db.Close()
}
