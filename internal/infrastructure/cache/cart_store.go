package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/storefront/backend/internal/domain/cart"
)

const cartKeyPrefix = "storefront:cart:"

// RedisCartStore implements cart.Repository with one JSON value per owner
type RedisCartStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisCartStore creates a cart store; ttl <= 0 keeps carts forever
func NewRedisCartStore(client redis.UniversalClient, ttl time.Duration) *RedisCartStore {
	return &RedisCartStore{client: client, ttl: ttl}
}

// Get returns the owner's cart, or an empty cart
func (s *RedisCartStore) Get(ctx context.Context, ownerKey string) (*cart.Cart, error) {
	data, err := s.client.Get(ctx, cartKeyPrefix+ownerKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return cart.New(ownerKey), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	var c cart.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	c.OwnerKey = ownerKey
	if c.Items == nil {
		c.Items = []cart.Item{}
	}
	return &c, nil
}

// Save writes the cart and refreshes its TTL
func (s *RedisCartStore) Save(ctx context.Context, c *cart.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	ttl := s.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, cartKeyPrefix+c.OwnerKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// Delete removes the owner's cart
func (s *RedisCartStore) Delete(ctx context.Context, ownerKey string) error {
	if err := s.client.Del(ctx, cartKeyPrefix+ownerKey).Err(); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

var _ cart.Repository = (*RedisCartStore)(nil)

type cartEntry struct {
	data      []byte
	expiresAt time.Time
}

// InMemoryCartStore keeps carts in process memory.
// Carts are stored serialized so reads never alias stored state.
type InMemoryCartStore struct {
	mu      sync.Mutex
	entries map[string]cartEntry
	ttl     time.Duration
}

// NewInMemoryCartStore creates an in-memory cart store
func NewInMemoryCartStore(ttl time.Duration) *InMemoryCartStore {
	return &InMemoryCartStore{entries: make(map[string]cartEntry), ttl: ttl}
}

// Get returns the owner's cart, or an empty cart
func (s *InMemoryCartStore) Get(_ context.Context, ownerKey string) (*cart.Cart, error) {
	s.mu.Lock()
	e, ok := s.entries[ownerKey]
	if ok && !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		delete(s.entries, ownerKey)
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		return cart.New(ownerKey), nil
	}
	var c cart.Cart
	if err := json.Unmarshal(e.data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	if c.Items == nil {
		c.Items = []cart.Item{}
	}
	return &c, nil
}

// Save stores the cart
func (s *InMemoryCartStore) Save(_ context.Context, c *cart.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	e := cartEntry{data: data}
	if s.ttl > 0 {
		e.expiresAt = time.Now().Add(s.ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[c.OwnerKey] = e
	return nil
}

// Delete removes the owner's cart
func (s *InMemoryCartStore) Delete(_ context.Context, ownerKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, ownerKey)
	return nil
}

var _ cart.Repository = (*InMemoryCartStore)(nil)
