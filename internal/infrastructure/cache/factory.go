package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Stores bundles the short-lived state the storefront keeps outside the database
type Stores struct {
	Sessions    identity.SessionStore
	LoginStates identity.LoginStateStore
	Carts       cart.Repository
	Blacklist   auth.TokenBlacklist
	// Redis is nil when the in-memory stores are in use
	Redis *redis.Client
	// Backend names the storage in use: "redis" or "memory"
	Backend string
}

// Close releases the Redis connection, if any
func (s *Stores) Close() error {
	if s.Redis == nil {
		return nil
	}
	return s.Redis.Close()
}

// StoreFactory creates session, login state, cart and blacklist stores
type StoreFactory struct {
	redisConfig           config.RedisConfig
	cartConfig            config.CartConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// StoreFactoryOption is a functional option for configuring the factory
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory stores when Redis is unavailable.
// Default is true.
func WithInMemoryFallback(allow bool) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewStoreFactory creates a new factory
func NewStoreFactory(redisCfg config.RedisConfig, cartCfg config.CartConfig, opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		redisConfig:           redisCfg,
		cartConfig:            cartCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateInMemoryStores creates process-local stores.
// They do not share state across instances.
func (f *StoreFactory) CreateInMemoryStores() *Stores {
	return &Stores{
		Sessions:    auth.NewInMemorySessionStore(),
		LoginStates: auth.NewInMemoryLoginStateStore(),
		Carts:       NewInMemoryCartStore(f.cartConfig.TTL),
		Blacklist:   auth.NewInMemoryTokenBlacklist(),
		Backend:     "memory",
	}
}

// CreateRedisStores creates Redis-backed stores sharing one client
func (f *StoreFactory) CreateRedisStores(ctx context.Context) (*Stores, error) {
	client, err := NewRedisClient(ctx, f.redisConfig)
	if err != nil {
		return nil, err
	}
	return NewRedisStores(client, f.cartConfig), nil
}

// NewRedisStores wires the stores onto an existing client
func NewRedisStores(client *redis.Client, cartCfg config.CartConfig) *Stores {
	return &Stores{
		Sessions:    auth.NewRedisSessionStore(client),
		LoginStates: auth.NewRedisLoginStateStore(client),
		Carts:       NewRedisCartStore(client, cartCfg.TTL),
		Blacklist:   auth.NewRedisTokenBlacklist(client),
		Redis:       client,
		Backend:     "redis",
	}
}

// CreateStores uses Redis when enabled and reachable, otherwise in-memory stores
// if fallback is allowed
func (f *StoreFactory) CreateStores(ctx context.Context) (*Stores, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory stores")
		return f.CreateInMemoryStores(), nil
	}

	stores, err := f.CreateRedisStores(ctx)
	if err == nil {
		f.logger.Info("using Redis stores", zap.String("addr", f.redisConfig.Addr()))
		return stores, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for session storage but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory stores. "+
		"Sessions and carts will not survive restarts or be shared between instances.",
		zap.Error(err),
	)
	return f.CreateInMemoryStores(), nil
}
