package passreset

import (
	"context"
	"log/slog"
	"testing"
	"time"
	"vetgate/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(store TokenStore, accounts Accounts) *Manager {
	return New(entity.RealmAdmin, store, accounts, time.Hour, slog.Default())
}

func TestRequest_UnknownAddressIsSilent(t *testing.T) {
	store := NewMemoryStore()
	m := newTestManager(store, NewStaticAccount("admin", "admin@x.com", "pass"))

	token, err := m.Request(context.Background(), "nobody@x.com")
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Zero(t, store.Len())
}

func TestResetFlow(t *testing.T) {
	store := NewMemoryStore()
	account := NewStaticAccount("admin", "admin@x.com", "oldpass")
	m := newTestManager(store, account)
	ctx := context.Background()

	token, err := m.Request(ctx, "admin@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// verify gates the form without consuming
	require.NoError(t, m.Verify(ctx, token))
	require.NoError(t, m.Verify(ctx, token))

	require.NoError(t, m.Reset(ctx, token, "newpass"))
	assert.True(t, account.Check("admin", "newpass"))
	assert.False(t, account.Check("admin", "oldpass"))

	// second submit of the same token fails generically
	err = m.Reset(ctx, token, "again")
	assert.Error(t, err)
	assert.True(t, entity.IsInvalidToken(err))
	assert.True(t, account.Check("admin", "newpass"))

	assert.ErrorIs(t, m.Verify(ctx, token), entity.ErrNotFound)
}

func TestRequest_AddressCaseInsensitive(t *testing.T) {
	store := NewMemoryStore()
	m := newTestManager(store, NewStaticAccount("admin", "Admin@X.com", "pass"))

	token, err := m.Request(context.Background(), "ADMIN@x.COM")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestVerify_Expired(t *testing.T) {
	store := NewMemoryStore()
	m := newTestManager(store, NewStaticAccount("admin", "admin@x.com", "pass"))
	ctx := context.Background()

	base := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }
	token, err := m.Request(ctx, "admin@x.com")
	require.NoError(t, err)

	// expires_at == now is expired
	m.now = func() time.Time { return base.Add(time.Hour) }
	assert.ErrorIs(t, m.Verify(ctx, token), entity.ErrExpired)

	err = m.Reset(ctx, token, "newpass")
	assert.ErrorIs(t, err, entity.ErrExpired)
	assert.True(t, entity.IsInvalidToken(err))
}

func TestVerify_UnknownToken(t *testing.T) {
	m := newTestManager(NewMemoryStore(), NewStaticAccount("admin", "admin@x.com", "pass"))
	assert.ErrorIs(t, m.Verify(context.Background(), "no-such-token"), entity.ErrNotFound)
}

func TestCleanup_SweepsExpired(t *testing.T) {
	store := NewMemoryStore()
	m := newTestManager(store, NewStaticAccount("admin", "admin@x.com", "pass"))
	ctx := context.Background()

	base := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }
	_, err := m.Request(ctx, "admin@x.com")
	require.NoError(t, err)

	m.now = func() time.Time { return base.Add(2 * time.Hour) }
	n, err := m.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Zero(t, store.Len())
}

// usedStore pins the persisted-store branch where a consumed row still
// exists with used=1 instead of being deleted.
type usedStore struct {
	token entity.ResetToken
}

func (s *usedStore) SaveResetToken(_ context.Context, t *entity.ResetToken) error {
	s.token = *t
	return nil
}

func (s *usedStore) GetResetToken(_ context.Context, token string) (*entity.ResetToken, error) {
	if token != s.token.Token {
		return nil, entity.ErrNotFound
	}
	out := s.token
	return &out, nil
}

func (s *usedStore) ConsumeResetToken(_ context.Context, token string, now time.Time) (*entity.ResetToken, error) {
	if token != s.token.Token {
		return nil, entity.ErrNotFound
	}
	if s.token.Used {
		return nil, entity.ErrConsumed
	}
	if !now.Before(s.token.ExpiresAt) {
		return nil, entity.ErrExpired
	}
	s.token.Used = true
	out := s.token
	return &out, nil
}

func (s *usedStore) DeleteStaleResetTokens(_ context.Context, now time.Time) (int64, error) {
	if s.token.Used || !now.Before(s.token.ExpiresAt) {
		s.token = entity.ResetToken{}
		return 1, nil
	}
	return 0, nil
}

func TestPersistedStore_ConsumedTokenStaysDead(t *testing.T) {
	store := &usedStore{}
	account := NewStaticAccount("admin", "admin@x.com", "pass")
	m := newTestManager(store, account)
	ctx := context.Background()

	token, err := m.Request(ctx, "admin@x.com")
	require.NoError(t, err)

	require.NoError(t, m.Reset(ctx, token, "newpass"))

	assert.ErrorIs(t, m.Verify(ctx, token), entity.ErrConsumed)
	err = m.Reset(ctx, token, "again")
	assert.ErrorIs(t, err, entity.ErrConsumed)
	assert.True(t, account.Check("admin", "newpass"))
}
