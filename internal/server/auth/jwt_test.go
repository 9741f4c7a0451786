package auth

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/attendkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var issuedAt = time.Unix(1_700_000_000, 0)

func newFixedAuthority(secret string, at *time.Time) *SessionAuthority {
	a := NewSessionAuthority(secret, time.Hour)
	a.now = func() time.Time { return *at }
	return a
}

func TestIssueAndVerify_Success(t *testing.T) {
	t.Parallel()

	clock := issuedAt
	a := newFixedAuthority("super-secret", &clock)

	tok, err := a.Issue("alice")
	require.NoError(t, err)

	claims, err := a.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, issuedAt.Add(time.Hour), claims.ExpiresAt.Time)
	assert.Equal(t, issuedAt, claims.IssuedAt.Time)
}

func TestVerify_ExpiryBoundary(t *testing.T) {
	t.Parallel()

	clock := issuedAt
	a := newFixedAuthority("secret", &clock)

	tok, err := a.Issue("bob")
	require.NoError(t, err)

	clock = issuedAt.Add(time.Hour - time.Second)
	_, err = a.Verify(tok)
	require.NoError(t, err, "one second before expiry is still valid")

	clock = issuedAt.Add(time.Hour)
	_, err = a.Verify(tok)
	assert.ErrorIs(t, err, common.ErrTokenExpired, "exactly at expiry is expired")

	clock = issuedAt.Add(2 * time.Hour)
	_, err = a.Verify(tok)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	clock := issuedAt
	tok, err := newFixedAuthority("right-secret", &clock).Issue("u2")
	require.NoError(t, err)

	_, err = newFixedAuthority("wrong-secret", &clock).Verify(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_MissingAndMalformed(t *testing.T) {
	t.Parallel()

	a := NewSessionAuthority("k", time.Hour)

	_, err := a.Verify("")
	assert.ErrorIs(t, err, common.ErrMissingToken)

	_, err = a.Verify("   ")
	assert.ErrorIs(t, err, common.ErrMissingToken)

	_, err = a.Verify("not.a.jwt")
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	tok := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		Username:         "mallory",
	})
	s, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewSessionAuthority("k", time.Hour).Verify(s)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_RequiresExpiryAndUsername(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Username: "carol"}).SignedString(secret)
	require.NoError(t, err)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(secret)
	require.NoError(t, err)

	a := NewSessionAuthority("k", time.Hour)
	_, err = a.Verify(noExp)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
	_, err = a.Verify(noUser)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer   tok  ", "tok"},
		{"Basic dXNlcjpwYXNz", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BearerToken(tt.header), "header %q", tt.header)
	}
}
