package auth

import (
	"fmt"
	"time"

	"github.com/Spok95/labsched/internal/domain/users"
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UserID int64      `json:"uid"`
	Role   users.Role `json:"role"`
	Name   string     `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 access tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *Tokens) Issue(p Principal, name string) (string, error) {
	now := t.now()
	claims := &Claims{
		UserID: p.UserID,
		Role:   p.Role,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(p.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Parse verifies the signature and expiry and returns the principal.
func (t *Tokens) Parse(raw string) (Principal, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if _, err := users.ParseRole(string(claims.Role)); err != nil || claims.UserID <= 0 {
		return Principal{}, fmt.Errorf("%w: bad claims", ErrUnauthenticated)
	}
	return Principal{UserID: claims.UserID, Role: claims.Role}, nil
}
