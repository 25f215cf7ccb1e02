package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hitoshi/summercamp/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func newTestTokenService(t *testing.T, clock *fakeClock) *TokenService {
	t.Helper()
	svc, err := NewTokenService(testSecret, WithClock(clock.Now))
	require.NoError(t, err)
	return svc
}

func TestNewTokenService_EmptySecret(t *testing.T) {
	svc, err := NewTokenService("")
	assert.Nil(t, svc)
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestTokenService_RoundTrip(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	svc := newTestTokenService(t, clock)

	identity := model.Identity{Email: "a@example.com", Name: "Alice"}
	token, err := svc.Issue(identity)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, identity, got)
}

func TestTokenService_Issue_SetsOneHourExpiry(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestTokenService(t, &fakeClock{t: now})

	token, err := svc.Issue(model.Identity{Email: "a@example.com"})
	require.NoError(t, err)

	claims := &Claims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.Equal(t, now.Unix(), claims.IssuedAt.Unix())
}

// 発行から1時間1秒後の検証は期限切れとして失敗する
func TestTokenService_Verify_Expired(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	svc := newTestTokenService(t, clock)

	token, err := svc.Issue(model.Identity{Email: "a@example.com"})
	require.NoError(t, err)

	clock.t = clock.t.Add(time.Hour + time.Second)
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenService_Verify_JustBeforeExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	svc := newTestTokenService(t, clock)

	token, err := svc.Issue(model.Identity{Email: "a@example.com"})
	require.NoError(t, err)

	clock.t = clock.t.Add(59 * time.Minute)
	_, err = svc.Verify(token)
	assert.NoError(t, err)
}

func TestTokenService_Verify_WrongSecret(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	issuer, err := NewTokenService("other-secret", WithClock(clock.Now))
	require.NoError(t, err)
	verifier := newTestTokenService(t, clock)

	token, err := issuer.Issue(model.Identity{Email: "a@example.com"})
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_Verify_Malformed(t *testing.T) {
	svc := newTestTokenService(t, &fakeClock{t: time.Now()})

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := svc.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", token)
	}
}

// HMAC以外の署名方式（none）は拒否する
func TestTokenService_Verify_RejectsNoneAlgorithm(t *testing.T) {
	now := time.Now()
	svc := newTestTokenService(t, &fakeClock{t: now})

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Email: "a@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_Verify_MissingEmail(t *testing.T) {
	svc := newTestTokenService(t, &fakeClock{t: time.Now()})

	token, err := svc.Issue(model.Identity{})
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
