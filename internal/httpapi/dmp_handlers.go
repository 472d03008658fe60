package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"dmphub.org/internal/audit"
	"dmphub.org/internal/auth"
	"dmphub.org/internal/authz"
	"dmphub.org/internal/dmp"
)

type createDMPRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	DOI          string `json:"doi"`
	ProjectID    string `json:"project_id"`
	Contributors []struct {
		Name  string   `json:"name"`
		ORCID string   `json:"orcid"`
		Roles []string `json:"roles"`
	} `json:"contributors"`
}

func (a *API) handleDMPCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createDMP(w, r)
	default:
		methodNotAllowed(w, r, http.MethodPost)
	}
}

func (a *API) handleDMPResource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/dmps/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	a.showDMP(w, r, id)
}

// createDMP stores the plan and grants the submitting client access to it.
func (a *API) createDMP(w http.ResponseWriter, r *http.Request) {
	client, ok := auth.ClientFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing client identity")
		return
	}

	var req createDMPRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	plan := &dmp.DMP{
		Title:       req.Title,
		Description: req.Description,
		DOI:         req.DOI,
		ProjectID:   req.ProjectID,
	}
	if err := a.plans.Create(r.Context(), plan); err != nil {
		if errors.Is(err, dmp.ErrInvalidInput) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, "could not store plan")
		return
	}

	for _, c := range req.Contributors {
		contributor := &dmp.Contributor{
			DMPID: plan.ID,
			Name:  c.Name,
			ORCID: c.ORCID,
			Roles: c.Roles,
		}
		if err := a.plans.AddContributor(r.Context(), contributor); err != nil {
			if errors.Is(err, dmp.ErrInvalidInput) {
				writeError(w, r, http.StatusBadRequest, err.Error())
				return
			}
			writeError(w, r, http.StatusInternalServerError, "could not store contributor")
			return
		}
	}

	// The submitter is authorized on its own plan from the start.
	grant := a.authz.Authorize(r.Context(), plan, authz.Entity{Kind: authz.KindAPIClient, ID: client.ID})
	if grant == nil {
		writeError(w, r, http.StatusInternalServerError, "could not record authorization")
		return
	}

	_ = audit.LogEvent(r.Context(), "dmp.create", map[string]any{
		"dmp_id": plan.ID,
		"title":  plan.Title,
	})
	_ = audit.LogEvent(r.Context(), "authorization.create", map[string]any{
		"authorization_id": grant.ID,
		"dmp_id":           plan.ID,
	})

	w.Header().Set("Location", "/v1/dmps/"+plan.ID)
	writeJSON(w, http.StatusCreated, plan)
}

func (a *API) showDMP(w http.ResponseWriter, r *http.Request, id string) {
	plan, err := a.plans.Find(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, dmp.ErrNotFound):
			writeError(w, r, http.StatusNotFound, "plan not found")
		case errors.Is(err, dmp.ErrInvalidInput):
			writeError(w, r, http.StatusBadRequest, err.Error())
		default:
			writeError(w, r, http.StatusInternalServerError, "could not load plan")
		}
		return
	}

	actor := actorFromContext(r)
	if !a.authz.Authorized(r.Context(), plan, actor, authz.PermissionRead) {
		writeError(w, r, http.StatusForbidden, "access denied")
		return
	}

	writeJSON(w, http.StatusOK, plan)
}
