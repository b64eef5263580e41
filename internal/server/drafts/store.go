// Package drafts parks the wizard state of each session between requests.
package drafts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/eternalvault/internal/cryptox"
	"github.com/dmitrijs2005/eternalvault/internal/wizard"
	"github.com/redis/go-redis/v9"
)

// Store keeps one wizard.State per session id. Load reports false when the
// session has no draft.
type Store interface {
	Load(ctx context.Context, sessionID string) (wizard.State, bool, error)
	Save(ctx context.Context, sessionID string, st wizard.State) error
	Delete(ctx context.Context, sessionID string) error
	Ping(ctx context.Context) error
}

const keyPrefix = "ev:draft:"

// RedisStore keeps drafts as AES-GCM sealed JSON values that expire after
// ttl of inactivity.
type RedisStore struct {
	rdb redis.UniversalClient
	key []byte
	ttl time.Duration
}

// NewRedisStore builds a store sealing values with sealKey (32 bytes).
func NewRedisStore(rdb redis.UniversalClient, sealKey []byte, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, key: sealKey, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (wizard.State, bool, error) {
	raw, err := s.rdb.Get(ctx, keyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return wizard.State{}, false, nil
	}
	if err != nil {
		return wizard.State{}, false, fmt.Errorf("redis get: %w", err)
	}

	var st wizard.State
	if err := cryptox.Open(raw, s.key, &st); err != nil {
		return wizard.State{}, false, fmt.Errorf("open draft: %w", err)
	}
	return st, true, nil
}

func (s *RedisStore) Save(ctx context.Context, sessionID string, st wizard.State) error {
	sealed, err := cryptox.Seal(st, s.key)
	if err != nil {
		return fmt.Errorf("seal draft: %w", err)
	}
	if err := s.rdb.Set(ctx, keyPrefix+sessionID, sealed, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, keyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

type memoryEntry struct {
	state   wizard.State
	expires time.Time
}

// MemoryStore is the in-process store used when no Redis URL is configured.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), ttl: ttl, now: time.Now}
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) (wizard.State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[sessionID]
	if !ok {
		return wizard.State{}, false, nil
	}
	if s.ttl > 0 && !s.now().Before(e.expires) {
		delete(s.entries, sessionID)
		return wizard.State{}, false, nil
	}
	return cloneState(e.state), true, nil
}

// Save stores st and drops every other expired entry.
func (s *MemoryStore) Save(_ context.Context, sessionID string, st wizard.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if s.ttl > 0 {
		for id, e := range s.entries {
			if !now.Before(e.expires) {
				delete(s.entries, id)
			}
		}
	}
	s.entries[sessionID] = memoryEntry{state: cloneState(st), expires: now.Add(s.ttl)}
	return nil
}

// Len reports how many entries are held, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.entries, sessionID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

// cloneState copies the slices so stored drafts are not aliased by callers.
func cloneState(st wizard.State) wizard.State {
	st.Draft.Guardians = append([]string(nil), st.Draft.Guardians...)
	files := make([]wizard.File, len(st.Draft.Files))
	for i, f := range st.Draft.Files {
		f.Data = append([]byte(nil), f.Data...)
		files[i] = f
	}
	if len(files) == 0 {
		files = nil
	}
	st.Draft.Files = files
	return st
}
