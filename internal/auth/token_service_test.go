package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	s, err := NewTokenService("super-secret", 24*time.Hour)
	require.NoError(t, err)
	return s
}

func TestIssueAndValidate_Success(t *testing.T) {
	t.Parallel()
	s := newTestTokenService(t)

	tok, err := s.Issue(42)
	require.NoError(t, err)

	userID, err := s.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)
}

func TestValidate_Missing(t *testing.T) {
	t.Parallel()
	s := newTestTokenService(t)

	_, err := s.Validate("")
	assert.ErrorIs(t, err, ErrTokenMissing)
}

func TestValidate_Expired(t *testing.T) {
	t.Parallel()
	s := newTestTokenService(t)
	past := s.WithClock(func() time.Time { return time.Now().Add(-25 * time.Hour) })

	tok, err := past.Issue(7)
	require.NoError(t, err)

	_, err = s.Validate(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidate_WrongSecret(t *testing.T) {
	t.Parallel()
	s := newTestTokenService(t)
	other, err := NewTokenService("other-secret", time.Hour)
	require.NoError(t, err)

	tok, err := other.Issue(1)
	require.NoError(t, err)

	_, err = s.Validate(tok)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidate_Malformed(t *testing.T) {
	t.Parallel()
	s := newTestTokenService(t)

	_, err := s.Validate("not.a.jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidate_TamperedPayload(t *testing.T) {
	t.Parallel()
	s := newTestTokenService(t)

	tok, err := s.Issue(1)
	require.NoError(t, err)
	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)

	forged, err := s.Issue(2)
	require.NoError(t, err)
	forgedParts := strings.Split(forged, ".")

	_, err = s.Validate(parts[0] + "." + forgedParts[1] + "." + parts[2])
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidate_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()
	s := newTestTokenService(t)

	claims := TokenClaims{
		UserID:    1,
		TokenType: accessTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("super-secret"))
	require.NoError(t, err)

	_, err = s.Validate(tok)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestNewTokenService_RequiresSecret(t *testing.T) {
	t.Parallel()
	_, err := NewTokenService("", time.Hour)
	assert.Error(t, err)
	_, err = NewTokenService("x", 0)
	assert.Error(t, err)
}

func TestIdentityContext(t *testing.T) {
	t.Parallel()

	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), Identity{UserID: 9})
	id, ok := IdentityFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, uint(9), id.UserID)
}

func TestPasswordHash(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, CheckPasswordHash("correct horse", hash))
	assert.False(t, CheckPasswordHash("battery staple", hash))

	_, err = HashPassword(strings.Repeat("a", 80))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}
