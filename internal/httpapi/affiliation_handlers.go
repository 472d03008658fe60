package httpapi

import (
	"net/http"
	"strings"
	"time"

	"dmphub.org/internal/org"
)

// handleAffiliations serves typeahead lookups against the merged local and
// registry organization index.
func (a *API) handleAffiliations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	term := strings.TrimSpace(r.URL.Query().Get("search"))
	candidates, err := a.resolver.Search(r.Context(), term)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "affiliation search failed")
		return
	}
	if candidates == nil {
		candidates = []org.Candidate{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": candidates,
		"total": len(candidates),
		"as_of": time.Now().UTC().Format(time.RFC3339),
	})
}
