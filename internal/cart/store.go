package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/catalogo-mayorista/internal/lock"
)

// Store keeps one Cart per session id. Mutate must serialize concurrent calls
// for the same id; different ids never block each other.
type Store interface {
	Load(ctx context.Context, id string) (*Cart, error)
	Mutate(ctx context.Context, id string, fn func(*Cart) error) (*Cart, error)
}

type memEntry struct {
	mu      sync.Mutex
	cart    *Cart
	touched time.Time
	dead    bool
}

// MemoryStore holds carts in process memory. Suitable for a single API replica.
type MemoryStore struct {
	TTL time.Duration
	Now func() time.Time

	mu      sync.Mutex
	entries map[string]*memEntry
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{TTL: ttl, entries: make(map[string]*memEntry)}
}

func (s *MemoryStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *MemoryStore) entry(id string, create bool) *memEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries == nil {
		s.entries = make(map[string]*memEntry)
	}
	e, ok := s.entries[id]
	if !ok && create {
		e = &memEntry{cart: New(), touched: s.now()}
		s.entries[id] = e
	}
	return e
}

// Load returns a copy of the session cart, or an empty cart for unknown ids.
func (s *MemoryStore) Load(_ context.Context, id string) (*Cart, error) {
	e := s.entry(id, false)
	if e == nil {
		return New(), nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dead {
		return New(), nil
	}
	return e.cart.Clone(), nil
}

// Mutate applies fn to the session cart under the session mutex. When fn fails
// the cart is left untouched.
func (s *MemoryStore) Mutate(ctx context.Context, id string, fn func(*Cart) error) (*Cart, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e := s.entry(id, true)
		e.mu.Lock()
		if e.dead {
			// swept between lookup and lock
			e.mu.Unlock()
			continue
		}
		working := e.cart.Clone()
		if err := fn(working); err != nil {
			e.mu.Unlock()
			return nil, err
		}
		e.cart = working
		e.touched = s.now()
		out := working.Clone()
		e.mu.Unlock()
		return out, nil
	}
}

// Sweep drops carts idle for longer than TTL and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	if s.TTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.TTL)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.entries {
		if !e.mu.TryLock() {
			continue
		}
		if e.touched.Before(cutoff) {
			e.dead = true
			delete(s.entries, id)
			removed++
		}
		e.mu.Unlock()
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// RedisStore keeps cart snapshots in Redis so several API replicas share
// sessions. Snapshots expire after TTL of inactivity.
type RedisStore struct {
	R       *redis.Client
	Locker  lock.Locker
	TTL     time.Duration
	LockTTL time.Duration
}

// NewRedisStore wires a RedisStore around client.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		R:       client,
		Locker:  lock.Locker{R: client, MaxWait: 3 * time.Second},
		TTL:     ttl,
		LockTTL: 5 * time.Second,
	}
}

func (s *RedisStore) key(id string) string {
	return "cart:" + id
}

// Load reads the session cart. Missing or expired sessions load as empty carts.
func (s *RedisStore) Load(ctx context.Context, id string) (*Cart, error) {
	if s == nil || s.R == nil {
		return nil, errors.New("cart: redis store not configured")
	}
	data, err := s.R.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return New(), nil
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}
	c := New()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return c, nil
}

// Mutate runs fn between load and save while holding the session lock.
func (s *RedisStore) Mutate(ctx context.Context, id string, fn func(*Cart) error) (*Cart, error) {
	if s == nil || s.R == nil {
		return nil, errors.New("cart: redis store not configured")
	}
	var out *Cart
	err := s.Locker.WithLock(ctx, s.Locker.Key("cart", id), s.LockTTL, func(ctx context.Context) error {
		c, err := s.Load(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("encode cart: %w", err)
		}
		if err := s.R.Set(ctx, s.key(id), data, s.TTL).Err(); err != nil {
			return fmt.Errorf("save cart: %w", err)
		}
		out = c
		return nil
	})
	if errors.Is(err, lock.ErrNotAcquired) {
		return nil, ErrBusy
	}
	return out, err
}
