package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken covers every verification failure; callers never learn why
// a token was rejected.
var ErrInvalidToken = errors.New("invalid or expired token")

// Principal is the authenticated post behind a request.
type Principal struct {
	PostID uuid.UUID `json:"post_id"`
	Login  string    `json:"login"`
	Name   string    `json:"name"`
}

// Claims is the signed token payload.
type Claims struct {
	jwt.RegisteredClaims
	PostID string `json:"post_id"`
	Login  string `json:"login"`
	Name   string `json:"name"`
}

// Principal converts verified claims into a Principal.
func (c *Claims) Principal() (Principal, error) {
	id, err := uuid.Parse(c.PostID)
	if err != nil {
		return Principal{}, fmt.Errorf("post_id claim: %w", err)
	}
	return Principal{PostID: id, Login: c.Login, Name: c.Name}, nil
}

// TokenIssuer signs tokens for a principal.
type TokenIssuer interface {
	Issue(p Principal) (string, time.Time, error)
}

// TokenVerifier checks a token's signature and expiry.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

// TokenManager issues and verifies HS256 tokens.
type TokenManager struct {
	key    []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewTokenManager(key []byte, ttl time.Duration, issuer string) *TokenManager {
	return &TokenManager{key: key, ttl: ttl, issuer: issuer, now: time.Now}
}

func (m *TokenManager) Issue(p Principal) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.PostID.String(),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
		PostID: p.PostID.String(),
		Login:  p.Login,
		Name:   p.Name,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

func (m *TokenManager) Verify(tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return m.key, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := claims.Principal(); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
