package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_PairRoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret", time.Minute, time.Hour)

	pair, err := m.GeneratePair("user-1", "a@b.c")
	require.NoError(t, err)

	access, err := m.Parse(pair.Access, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", access.UserID)
	assert.Equal(t, "a@b.c", access.Email)
	assert.NotEmpty(t, access.JTI())

	refresh, err := m.Parse(pair.Refresh, TokenTypeRefresh)
	require.NoError(t, err)
	assert.NotEqual(t, access.JTI(), refresh.JTI())
	assert.WithinDuration(t, time.Now().Add(time.Hour), refresh.ExpiresAtTime(), 5*time.Second)
}

func TestTokenManager_RejectsWrongType(t *testing.T) {
	m := NewTokenManager("test-secret", time.Minute, time.Hour)
	pair, err := m.GeneratePair("user-1", "a@b.c")
	require.NoError(t, err)

	_, err = m.Parse(pair.Access, TokenTypeRefresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestTokenManager_RejectsForeignSignature(t *testing.T) {
	issuer := NewTokenManager("secret-a", time.Minute, time.Hour)
	verifier := NewTokenManager("secret-b", time.Minute, time.Hour)

	token, err := issuer.GenerateAccessToken("user-1", "a@b.c")
	require.NoError(t, err)

	_, err = verifier.Parse(token, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	m := NewTokenManager("test-secret", time.Minute, time.Hour)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := m.GenerateAccessToken("user-1", "a@b.c")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Parse(token, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Parse("not-a-token", TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
