package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sessionTokenIssuer = "investment-portal"

// ErrInvalidSessionToken is returned for any cookie value that fails
// signature, expiry, or shape checks.
var ErrInvalidSessionToken = errors.New("invalid session token")

// SessionClaims is the payload of the signed session cookie. It carries only
// the server-side session id; identity lives in the session store.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// SessionTokenSigner signs and verifies session cookie values with HS256.
type SessionTokenSigner struct {
	secret []byte
	now    func() time.Time
}

func NewSessionTokenSigner(secret string) *SessionTokenSigner {
	return &SessionTokenSigner{secret: []byte(secret), now: time.Now}
}

// Sign returns a cookie value for sessionID valid for ttl.
func (s *SessionTokenSigner) Sign(sessionID string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionTokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Parse verifies a cookie value and returns the session id it carries.
func (s *SessionTokenSigner) Parse(value string) (string, error) {
	claims := &SessionClaims{}

	token, err := jwt.ParseWithClaims(value, claims,
		func(token *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionTokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidSessionToken
	}

	if claims.SessionID == "" {
		return "", ErrInvalidSessionToken
	}

	return claims.SessionID, nil
}
