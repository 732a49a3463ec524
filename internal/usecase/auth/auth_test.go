package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	userDomain "github.com/JaniM/variant-go-server/internal/domain/user"
	errs "github.com/JaniM/variant-go-server/internal/errors"
)

type memUserStorage struct {
	byToken map[string]userDomain.User
}

func newMemUserStorage() *memUserStorage {
	return &memUserStorage{byToken: make(map[string]userDomain.User)}
}

func (m *memUserStorage) FindByToken(_ context.Context, token string) (userDomain.User, error) {
	u, ok := m.byToken[token]
	if !ok {
		return userDomain.User{}, errs.ErrUserNotFound
	}
	return u, nil
}

func (m *memUserStorage) Save(_ context.Context, u userDomain.User) error {
	m.byToken[u.AuthToken] = u
	return nil
}

func (m *memUserStorage) UpdateNick(_ context.Context, id, nick string) error {
	for token, u := range m.byToken {
		if u.ID == id {
			u.Nick = nick
			m.byToken[token] = u
			return nil
		}
	}
	return errs.ErrUserNotFound
}

func TestIdentifyCreatesUser(t *testing.T) {
	a := NewUsecaseHandler(newMemUserStorage())

	u, err := a.Identify(context.Background(), "", "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.NotEmpty(t, u.AuthToken)
	assert.Equal(t, "alice", u.Nick)
}

func TestIdentifyReturnsExistingUser(t *testing.T) {
	a := NewUsecaseHandler(newMemUserStorage())

	first, err := a.Identify(context.Background(), "", "alice")
	require.NoError(t, err)

	second, err := a.Identify(context.Background(), first.AuthToken, "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "alice", second.Nick)
}

func TestIdentifyUpsertsNick(t *testing.T) {
	store := newMemUserStorage()
	a := NewUsecaseHandler(store)

	first, err := a.Identify(context.Background(), "", "alice")
	require.NoError(t, err)

	second, err := a.Identify(context.Background(), first.AuthToken, "alice2")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "alice2", second.Nick)

	stored, err := store.FindByToken(context.Background(), first.AuthToken)
	require.NoError(t, err)
	assert.Equal(t, "alice2", stored.Nick)
}

func TestIdentifyUnknownTokenMintsFreshOne(t *testing.T) {
	a := NewUsecaseHandler(newMemUserStorage())

	u, err := a.Identify(context.Background(), "stale-token", "bob")
	require.NoError(t, err)
	assert.NotEqual(t, "stale-token", u.AuthToken)
}

func TestAuthenticate(t *testing.T) {
	a := NewUsecaseHandler(newMemUserStorage())

	u, err := a.Identify(context.Background(), "", "alice")
	require.NoError(t, err)

	got, err := a.Authenticate(context.Background(), u.AuthToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = a.Authenticate(context.Background(), "nope")
	require.ErrorIs(t, err, errs.ErrAuthRequired)

	_, err = a.Authenticate(context.Background(), "")
	require.ErrorIs(t, err, errs.ErrAuthRequired)
}
