package auth

import (
	"context"
	"testing"
	"time"

	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemorySessionStore_RoundTrip(t *testing.T) {
	store := NewInMemorySessionStore()
	ctx := context.Background()
	session := identity.NewSession(identity.AuthModeDemo)

	require.NoError(t, store.Save(ctx, session, time.Hour))

	loaded, err := store.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, loaded.ID)

	// stored values are copies
	loaded.Subject = "mutated"
	again, err := store.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Subject)

	require.NoError(t, store.Delete(ctx, session.ID))
	_, err = store.Get(ctx, session.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestInMemorySessionStore_Expiry(t *testing.T) {
	store := NewInMemorySessionStore()
	ctx := context.Background()
	session := identity.NewSession(identity.AuthModeOIDC)

	require.NoError(t, store.Save(ctx, session, time.Millisecond))
	time.Sleep(10 * time.Millisecond)

	_, err := store.Get(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestInMemoryLoginStateStore_TakeOnce(t *testing.T) {
	store := NewInMemoryLoginStateStore()
	ctx := context.Background()
	state := &identity.LoginState{State: "abc", SessionID: "s1", CodeVerifier: "v", CreatedAt: time.Now()}

	require.NoError(t, store.Put(ctx, state, time.Minute))

	got, err := store.Take(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.SessionID)
	assert.Equal(t, "v", got.CodeVerifier)

	_, err = store.Take(ctx, "abc")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestInMemoryLoginStateStore_Expired(t *testing.T) {
	store := NewInMemoryLoginStateStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &identity.LoginState{State: "late"}, time.Millisecond))
	time.Sleep(10 * time.Millisecond)

	_, err := store.Take(ctx, "late")
	assert.ErrorIs(t, err, ErrLoginStateNotFound)
}
