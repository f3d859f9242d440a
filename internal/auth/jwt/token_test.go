package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerRoundTrip(t *testing.T) {
	m := NewManager(TokenConfig{Secret: []byte("secret")})
	clientID := uuid.New()

	token, err := m.GenerateClientToken(clientID, "Ada")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, clientID, claims.ClientID)
	assert.Equal(t, "Ada", claims.DisplayName)
	assert.Equal(t, clientID.String(), claims.Subject)
	assert.Equal(t, "quizwhiz", claims.Issuer)
}

func TestManagerRejectsForeignSecret(t *testing.T) {
	issuer := NewManager(TokenConfig{Secret: []byte("one")})
	verifier := NewManager(TokenConfig{Secret: []byte("two")})

	token, err := issuer.GenerateClientToken(uuid.New(), "")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManagerExpiredToken(t *testing.T) {
	m := NewManager(TokenConfig{Secret: []byte("secret"), TTL: time.Minute})
	issued := time.Now().Add(-time.Hour)
	m.now = func() time.Time { return issued }

	token, err := m.GenerateClientToken(uuid.New(), "")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestManagerRejectsGarbage(t *testing.T) {
	m := NewManager(TokenConfig{Secret: []byte("secret")})
	_, err := m.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
