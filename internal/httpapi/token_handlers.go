package httpapi

import (
	"net/http"
	"strings"
	"time"

	"dmphub.org/internal/audit"
	"dmphub.org/internal/auth"
)

// tokenResponse follows the OAuth token endpoint shape.
type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// handleToken exchanges client credentials for a bearer token. It accepts
// both a JSON body and a classic urlencoded OAuth form.
func (a *API) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	grant, err := grantFromRequest(w, r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := a.auth.Authenticate(r.Context(), grant)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "authentication unavailable")
		return
	}
	if !result.Authenticated() {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"errors": result.Errors,
		})
		return
	}

	_ = audit.LogEvent(r.Context(), "token.issue", map[string]any{
		"client_id": result.Client.ID,
	})

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: result.Token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(time.Until(result.ExpiresAt).Seconds()),
		ExpiresAt:   result.ExpiresAt,
	})
}

func grantFromRequest(w http.ResponseWriter, r *http.Request) (auth.Grant, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return auth.Grant{}, err
		}
		return auth.Grant{
			GrantType:    r.PostFormValue("grant_type"),
			ClientID:     r.PostFormValue("client_id"),
			ClientSecret: r.PostFormValue("client_secret"),
		}, nil
	}

	var req struct {
		GrantType    string `json:"grant_type"`
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		return auth.Grant{}, err
	}
	return auth.Grant{
		GrantType:    req.GrantType,
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
	}, nil
}
