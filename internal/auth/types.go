package auth

import "time"

// GrantTypeClientCredentials is the only grant the hub accepts.
const GrantTypeClientCredentials = "client_credentials"

// Client represents a registered application allowed to call the API.
type Client struct {
	ID         string    `json:"id"`
	ClientID   string    `json:"client_id"`
	SecretHash string    `json:"-"`
	Name       string    `json:"name"`
	UID        string    `json:"uid,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Grant is the credential payload presented to the token endpoint.
type Grant struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}
