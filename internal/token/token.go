// Package token encodes and verifies the signed credential tokens presented
// by client applications. Tokens are ephemeral wire values; nothing here is
// persisted.
package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrExpiredToken is returned for a well-formed token past its
	// expiration. Callers translate it into a re-authenticate message,
	// distinct from the generic rejection for ErrMalformedToken.
	ErrExpiredToken = errors.New("token: expired")

	// ErrMalformedToken covers everything else: bad signature, wrong
	// algorithm, garbage input.
	ErrMalformedToken = errors.New("token: malformed")
)

// Claims is the signed payload: the client's internal identifier plus the
// registered expiration fields.
type Claims struct {
	ClientID string `json:"client_id"`
	jwt.RegisteredClaims
}

// Service signs and verifies HS256 tokens with a shared server secret.
type Service struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// Option configures Service behavior.
type Option func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the token service. The secret must be non-empty.
func NewService(secret, issuer string, opts ...Option) (*Service, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token: secret is required")
	}
	s := &Service{
		secret: []byte(secret),
		issuer: strings.TrimSpace(issuer),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Encode signs a token carrying clientID that expires ttl from now. The
// absolute expiration is returned so callers can expose it on the wire.
func (s *Service) Encode(clientID string, ttl time.Duration) (string, time.Time, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return "", time.Time{}, errors.New("token: client id is required")
	}

	now := s.now().UTC()
	expiresAt := now.Add(ttl)
	claims := Claims{
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   clientID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Decode verifies the signature and expiration and returns the claims.
func (s *Service) Decode(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrMalformedToken
	}

	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrMalformedToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now().UTC() }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrMalformedToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformedToken
	}
	if s.issuer != "" && claims.Issuer != s.issuer {
		return nil, ErrMalformedToken
	}
	if strings.TrimSpace(claims.ClientID) == "" {
		return nil, ErrMalformedToken
	}
	return claims, nil
}
