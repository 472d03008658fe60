package auth

import "context"

// ClientStore describes persistence operations required for client
// authentication.
type ClientStore interface {
	// Find returns the client with the given internal id, or ErrNotFound.
	Find(ctx context.Context, id string) (*Client, error)
	// FindByClientID returns every client registered under the public
	// client_id. The id is expected unique in practice, but lookup does not
	// assume it.
	FindByClientID(ctx context.Context, clientID string) ([]*Client, error)
}
