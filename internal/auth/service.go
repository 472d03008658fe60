// Package auth authenticates client applications via the client_credentials
// grant and validates the bearer tokens it issues.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"dmphub.org/internal/token"
)

const defaultTokenTTL = 24 * time.Hour

// errorKeyClientAuth is the key under which every authentication failure is
// reported. Callers inspect Result.Errors; authentication never raises.
const errorKeyClientAuth = "client_authentication"

// Service validates client-credential grants and issues tokens.
type Service struct {
	clients ClientStore
	tokens  *token.Service
	ttl     time.Duration
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithTokenTTL overrides the issued token lifetime.
func WithTokenTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewService constructs the authentication service.
func NewService(clients ClientStore, tokens *token.Service, opts ...ServiceOption) (*Service, error) {
	if clients == nil {
		return nil, errors.New("auth: client store is required")
	}
	if tokens == nil {
		return nil, errors.New("auth: token service is required")
	}
	s := &Service{clients: clients, tokens: tokens, ttl: defaultTokenTTL}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Result is the outcome of an authentication attempt. Either Token is set or
// Errors carries a human-readable message under client_authentication.
type Result struct {
	Token     string            `json:"token,omitempty"`
	ExpiresAt time.Time         `json:"expires_at"`
	Client    *Client           `json:"-"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// Authenticated reports whether the attempt produced a token.
func (r *Result) Authenticated() bool {
	return r != nil && r.Token != "" && len(r.Errors) == 0
}

func failure(msg string) *Result {
	return &Result{Errors: map[string]string{errorKeyClientAuth: msg}}
}

// Authenticate validates the grant and issues a token on success. Bad
// credentials are reported through Result.Errors, never as a Go error; the
// error return is reserved for infrastructure failures (store unreachable,
// signing failure).
func (s *Service) Authenticate(ctx context.Context, grant Grant) (*Result, error) {
	if grant.GrantType != GrantTypeClientCredentials {
		return failure("Invalid grant type."), nil
	}

	clientID := strings.TrimSpace(grant.ClientID)
	if clientID == "" || grant.ClientSecret == "" {
		return failure("Invalid client credentials."), nil
	}

	candidates, err := s.clients.FindByClientID(ctx, clientID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	// First candidate whose secret verifies wins.
	for _, c := range candidates {
		if VerifySecret(c.SecretHash, grant.ClientSecret) != nil {
			continue
		}
		tok, expiresAt, err := s.tokens.Encode(c.ID, s.ttl)
		if err != nil {
			return nil, err
		}
		return &Result{Token: tok, ExpiresAt: expiresAt, Client: c}, nil
	}

	return failure("Invalid client credentials."), nil
}

// AuthenticateToken resolves a bearer token back to its client. Expiration is
// surfaced as token.ErrExpiredToken so the boundary can ask the caller to
// re-authenticate.
func (s *Service) AuthenticateToken(ctx context.Context, raw string) (*Client, error) {
	claims, err := s.tokens.Decode(raw)
	if err != nil {
		return nil, err
	}
	client, err := s.clients.Find(ctx, claims.ClientID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, token.ErrMalformedToken
		}
		return nil, err
	}
	return client, nil
}
