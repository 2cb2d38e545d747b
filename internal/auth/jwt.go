package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"docverify/internal/models"
)

// DefaultTTL is how long an issued session token stays valid.
const DefaultTTL = 7 * 24 * time.Hour

var (
	// ErrInvalidToken covers malformed, unsigned, tampered and expired tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrNoSecret means the signing key is not configured.
	ErrNoSecret = errors.New("token secret unavailable")
)

type Claims struct {
	jwt.RegisteredClaims
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Role  models.Role `json:"role"`
}

// TokenService issues and validates stateless HS256 session tokens. There is
// no server-side record of issued tokens; expiry is the only way one ends.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *TokenService) TTL() time.Duration { return s.ttl }

func (s *TokenService) Issue(id models.Identity) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrNoSecret
	}
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   id.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Email: id.Email,
		Name:  id.Name,
		Role:  id.Role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Validate checks signature and expiry and returns the embedded identity.
// Any routine problem with the token yields ErrInvalidToken.
func (s *TokenService) Validate(raw string) (models.Identity, error) {
	if len(s.secret) == 0 {
		return models.Identity{}, ErrNoSecret
	}
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !tok.Valid {
		return models.Identity{}, ErrInvalidToken
	}
	role, ok := models.ParseRole(string(claims.Role))
	if !ok || claims.Email == "" {
		return models.Identity{}, ErrInvalidToken
	}
	return models.Identity{Email: claims.Email, Name: claims.Name, Role: role}, nil
}
