// Package sessions carries the authenticated identity through a request
// context and keeps the list of session ids revoked by logout.
package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/eternalvault/internal/wizard"
	"github.com/redis/go-redis/v9"
)

type ctxKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id wizard.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity set by WithIdentity.
func FromContext(ctx context.Context) (wizard.Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(wizard.Identity)
	return id, ok && id.UserID != "" && id.SessionID != ""
}

// Revocations records logged-out sessions until their access tokens expire.
type Revocations interface {
	Revoke(ctx context.Context, sessionID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
	Ping(ctx context.Context) error
}

// ContextChecker answers CurrentSession from the request context,
// treating a revoked session as absent.
type ContextChecker struct {
	revocations Revocations
}

func NewContextChecker(r Revocations) *ContextChecker {
	return &ContextChecker{revocations: r}
}

func (c *ContextChecker) CurrentSession(ctx context.Context) (wizard.Identity, bool) {
	id, ok := FromContext(ctx)
	if !ok {
		return wizard.Identity{}, false
	}
	if c.revocations != nil {
		revoked, err := c.revocations.IsRevoked(ctx, id.SessionID)
		if err != nil || revoked {
			return wizard.Identity{}, false
		}
	}
	return id, true
}

const revokedPrefix = "ev:revoked:"

// RedisRevocations stores revoked session ids as expiring Redis keys.
type RedisRevocations struct {
	rdb redis.UniversalClient
}

func NewRedisRevocations(rdb redis.UniversalClient) *RedisRevocations {
	return &RedisRevocations{rdb: rdb}
}

func (r *RedisRevocations) Revoke(ctx context.Context, sessionID string, ttl time.Duration) error {
	return r.rdb.Set(ctx, revokedPrefix+sessionID, 1, ttl).Err()
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	n, err := r.rdb.Exists(ctx, revokedPrefix+sessionID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisRevocations) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// MemoryRevocations is the single-process fallback used without Redis.
type MemoryRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{revoked: make(map[string]time.Time), now: time.Now}
}

func (m *MemoryRevocations) Revoke(_ context.Context, sessionID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for id, until := range m.revoked {
		if !now.Before(until) {
			delete(m.revoked, id)
		}
	}
	m.revoked[sessionID] = now.Add(ttl)
	return nil
}

func (m *MemoryRevocations) IsRevoked(_ context.Context, sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.revoked[sessionID]
	return ok && m.now().Before(until), nil
}

func (m *MemoryRevocations) Ping(context.Context) error { return nil }
