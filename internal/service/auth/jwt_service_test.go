package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskflow-api/internal/config"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:                   "0123456789abcdef0123456789abcdef",
		TokenLifetimeMinutes:        60,
		RefreshTokenLifetimeMinutes: 10080,
	}
}

func newTestService(t *testing.T, now time.Time) *hmacJWTService {
	t.Helper()

	svc, err := NewJWTService(testAuthConfig())
	require.NoError(t, err)

	impl, ok := svc.(*hmacJWTService)
	require.True(t, ok)
	impl.timeFunc = func() time.Time { return now }
	return impl
}

func TestNewJWTService_RejectsShortSecret(t *testing.T) {
	t.Parallel()

	cfg := testAuthConfig()
	cfg.JWTSecret = "too-short"

	svc, err := NewJWTService(cfg)

	assert.Nil(t, svc)
	assert.Error(t, err)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Now()
	svc := newTestService(t, now)
	userID := uuid.New()

	token, err := svc.GenerateToken(context.Background(), userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "access", claims.TokenType)
	assert.Equal(t, userID.String(), claims.Subject)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, time.Now())
	userID := uuid.New()

	token, err := svc.GenerateRefreshToken(context.Background(), userID)
	require.NoError(t, err)

	claims, err := svc.ValidateRefreshToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "refresh", claims.TokenType)
}

func TestTokenTypeEnforcement(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, time.Now())
	userID := uuid.New()

	access, err := svc.GenerateToken(context.Background(), userID)
	require.NoError(t, err)
	refresh, err := svc.GenerateRefreshToken(context.Background(), userID)
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), refresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	_, err = svc.ValidateRefreshToken(context.Background(), access)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestValidateToken_Expired(t *testing.T) {
	t.Parallel()

	issued := time.Now()
	svc := newTestService(t, issued)

	token, err := svc.GenerateToken(context.Background(), uuid.New())
	require.NoError(t, err)

	// Jump past the lifetime plus the allowed clock skew.
	svc.timeFunc = func() time.Time { return issued.Add(63 * time.Minute) }

	_, err = svc.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_WithinClockSkew(t *testing.T) {
	t.Parallel()

	issued := time.Now()
	svc := newTestService(t, issued)

	token, err := svc.GenerateToken(context.Background(), uuid.New())
	require.NoError(t, err)

	// One minute past expiry is within the two-minute skew allowance.
	svc.timeFunc = func() time.Time { return issued.Add(61 * time.Minute) }

	_, err = svc.ValidateToken(context.Background(), token)
	assert.NoError(t, err)
}

func TestValidateToken_Garbage(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, time.Now())

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := svc.ValidateToken(context.Background(), token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestValidateToken_WrongKey(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, time.Now())
	token, err := svc.GenerateToken(context.Background(), uuid.New())
	require.NoError(t, err)

	other := newTestService(t, time.Now())
	other.signingKey = []byte("ffffffffffffffffffffffffffffffff")

	_, err = other.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
