// Package auth issues and verifies the signed, time-bound session tokens
// that gate the attendance endpoints. Tokens are HS256 JWTs carrying the
// username; nothing is stored server-side and there is no revocation.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/attendkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload: the standard registered claims plus the
// username of the authenticated identity.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// SessionAuthority signs and verifies session tokens with a process-wide
// secret fixed at startup.
type SessionAuthority struct {
	secretKey        []byte
	validityDuration time.Duration
	now              func() time.Time
}

func NewSessionAuthority(secretKey string, validityDuration time.Duration) *SessionAuthority {
	return &SessionAuthority{
		secretKey:        []byte(secretKey),
		validityDuration: validityDuration,
		now:              time.Now,
	}
}

// Issue returns a signed token for username that expires validityDuration
// from now.
func (a *SessionAuthority) Issue(username string) (string, error) {
	issuedAt := a.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(a.validityDuration)),
		},
		Username: username,
	})

	tokenString, err := token.SignedString(a.secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Verify checks the signature and expiry of tokenString.
//
// It returns common.ErrMissingToken for an empty token, common.ErrTokenExpired
// once the expiry instant is reached (the expiry second itself counts as
// expired) and common.ErrInvalidToken for anything malformed or badly signed.
func (a *SessionAuthority) Verify(tokenString string) (*Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, common.ErrMissingToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			return a.secretKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Username == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value. Anything else yields "".
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return ""
	}
	return strings.TrimSpace(token)
}
