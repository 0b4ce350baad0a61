package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestService(t *testing.T, clock *fakeClock, ttl time.Duration) *TokenService {
	t.Helper()
	s, err := NewTokenService("super-secret", ttl, WithClock(clock.Now))
	require.NoError(t, err)
	return s
}

func TestIssueAndValidate(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	s := newTestService(t, clock, time.Hour)

	for _, userID := range []string{"user-123", "6f1c2a4e-0000-4000-8000-000000000000", "ü"} {
		tok, err := s.Issue(userID)
		require.NoError(t, err)

		got, err := s.Validate(tok)
		require.NoError(t, err)
		assert.Equal(t, userID, got)
	}
}

func TestValidate_ExpiryBoundary(t *testing.T) {
	t.Parallel()

	issued := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: issued}
	s := newTestService(t, clock, time.Hour)

	tok, err := s.Issue("u1")
	require.NoError(t, err)

	expiry := issued.Add(time.Hour)

	clock.t = expiry.Add(-time.Nanosecond)
	got, err := s.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", got)

	clock.t = expiry
	_, err = s.Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	clock.t = expiry.Add(24 * time.Hour)
	_, err = s.Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_SubSecondIssueKeepsFullTTL(t *testing.T) {
	t.Parallel()

	issued := time.Date(2026, 3, 1, 10, 0, 0, 500_000_000, time.UTC)
	clock := &fakeClock{t: issued}
	s := newTestService(t, clock, time.Hour)

	tok, err := s.Issue("u1")
	require.NoError(t, err)

	clock.t = issued.Add(time.Hour)
	_, err = s.Validate(tok)
	assert.NoError(t, err, "valid for at least the TTL")

	clock.t = time.Date(2026, 3, 1, 11, 0, 1, 0, time.UTC)
	_, err = s.Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_WrongSecret(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Now()}
	issuer := newTestService(t, clock, time.Hour)
	tok, err := issuer.Issue("u2")
	require.NoError(t, err)

	rotated, err := NewTokenService("rotated-secret", time.Hour, WithClock(clock.Now))
	require.NoError(t, err)

	_, err = rotated.Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_Garbage(t *testing.T) {
	t.Parallel()

	s := newTestService(t, &fakeClock{t: time.Now()}, time.Hour)

	for _, garbage := range []string{"", "not.a.jwt", "a.b", "....", "eyJhbGciOiJIUzI1NiJ9.e30.", "\x00\xff"} {
		assert.NotPanics(t, func() {
			_, err := s.Validate(garbage)
			assert.ErrorIs(t, err, ErrInvalidToken, "token %q", garbage)
		})
	}
}

func TestValidate_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	s := newTestService(t, &fakeClock{t: time.Now()}, time.Hour)

	claims := jwt.RegisteredClaims{
		Subject:   "u3",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = s.Validate(none)
	assert.ErrorIs(t, err, ErrInvalidToken)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("super-secret"))
	require.NoError(t, err)
	_, err = s.Validate(hs512)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_MissingClaims(t *testing.T) {
	t.Parallel()

	s := newTestService(t, &fakeClock{t: time.Now()}, time.Hour)
	secret := []byte("super-secret")

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "u4"}).SignedString(secret)
	require.NoError(t, err)
	_, err = s.Validate(noExp)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(secret)
	require.NoError(t, err)
	_, err = s.Validate(noSub)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenService_Defaults(t *testing.T) {
	t.Parallel()

	_, err := NewTokenService("", time.Hour)
	assert.Error(t, err)

	s, err := NewTokenService("k", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, s.TTL())
}

func TestIssue_EmptyUserID(t *testing.T) {
	t.Parallel()

	s := newTestService(t, &fakeClock{t: time.Now()}, time.Hour)
	_, err := s.Issue("")
	assert.Error(t, err)
}
