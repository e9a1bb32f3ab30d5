package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
)

const (
	sessionKeyPrefix    = "storefront:session:"
	loginStateKeyPrefix = "storefront:oidc:state:"
)

// ErrSessionNotFound is returned for unknown or expired sessions
var ErrSessionNotFound = shared.ErrNotFound.WithMessage("Session not found")

// ErrLoginStateNotFound is returned when a login state is unknown, used or expired
var ErrLoginStateNotFound = shared.ErrInvalidInput.WithMessage("Login request expired or was already used")

// RedisSessionStore stores sessions as JSON values with a TTL
type RedisSessionStore struct {
	client redis.UniversalClient
}

// NewRedisSessionStore creates a session store on client
func NewRedisSessionStore(client redis.UniversalClient) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

// Get loads a session
func (s *RedisSessionStore) Get(ctx context.Context, id string) (*identity.Session, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	var session identity.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}

// Save writes a session, resetting its TTL
func (s *RedisSessionStore) Save(ctx context.Context, session *identity.Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+session.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes a session
func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

var _ identity.SessionStore = (*RedisSessionStore)(nil)

// RedisLoginStateStore keeps in-flight OIDC logins; Take is atomic via GETDEL
type RedisLoginStateStore struct {
	client redis.UniversalClient
}

// NewRedisLoginStateStore creates a login state store on client
func NewRedisLoginStateStore(client redis.UniversalClient) *RedisLoginStateStore {
	return &RedisLoginStateStore{client: client}
}

// Put stores state for ttl
func (s *RedisLoginStateStore) Put(ctx context.Context, state *identity.LoginState, ttl time.Duration) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode login state: %w", err)
	}
	if err := s.client.Set(ctx, loginStateKeyPrefix+state.State, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save login state: %w", err)
	}
	return nil
}

// Take returns and removes the login state
func (s *RedisLoginStateStore) Take(ctx context.Context, state string) (*identity.LoginState, error) {
	data, err := s.client.GetDel(ctx, loginStateKeyPrefix+state).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrLoginStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load login state: %w", err)
	}
	var ls identity.LoginState
	if err := json.Unmarshal(data, &ls); err != nil {
		return nil, fmt.Errorf("failed to decode login state: %w", err)
	}
	return &ls, nil
}

var _ identity.LoginStateStore = (*RedisLoginStateStore)(nil)

type memoryEntry[T any] struct {
	value     T
	expiresAt time.Time
}

func (e memoryEntry[T]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

func expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}

// InMemorySessionStore keeps sessions in process memory.
// Values are stored as copies so callers cannot mutate stored state.
type InMemorySessionStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry[identity.Session]
}

// NewInMemorySessionStore creates an empty in-memory session store
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{entries: make(map[string]memoryEntry[identity.Session])}
}

// Get loads a session
func (s *InMemorySessionStore) Get(_ context.Context, id string) (*identity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if e.expired(time.Now()) {
		delete(s.entries, id)
		return nil, ErrSessionNotFound
	}
	session := e.value
	return &session, nil
}

// Save writes a session
func (s *InMemorySessionStore) Save(_ context.Context, session *identity.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[session.ID] = memoryEntry[identity.Session]{value: *session, expiresAt: expiry(ttl)}
	return nil
}

// Delete removes a session
func (s *InMemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

var _ identity.SessionStore = (*InMemorySessionStore)(nil)

// InMemoryLoginStateStore keeps in-flight OIDC logins in process memory
type InMemoryLoginStateStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry[identity.LoginState]
}

// NewInMemoryLoginStateStore creates an empty in-memory login state store
func NewInMemoryLoginStateStore() *InMemoryLoginStateStore {
	return &InMemoryLoginStateStore{entries: make(map[string]memoryEntry[identity.LoginState])}
}

// Put stores state for ttl
func (s *InMemoryLoginStateStore) Put(_ context.Context, state *identity.LoginState, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[state.State] = memoryEntry[identity.LoginState]{value: *state, expiresAt: expiry(ttl)}
	return nil
}

// Take returns and removes the login state
func (s *InMemoryLoginStateStore) Take(_ context.Context, state string) (*identity.LoginState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[state]
	if !ok {
		return nil, ErrLoginStateNotFound
	}
	delete(s.entries, state)
	if e.expired(time.Now()) {
		return nil, ErrLoginStateNotFound
	}
	ls := e.value
	return &ls, nil
}

var _ identity.LoginStateStore = (*InMemoryLoginStateStore)(nil)
