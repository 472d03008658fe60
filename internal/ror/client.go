// Package ror wraps the Research Organization Registry search API behind the
// org.Registry interface.
package ror

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"dmphub.org/internal/identifier"
	"dmphub.org/internal/org"
)

const defaultTimeout = 10 * time.Second

// Client queries the ROR organizations endpoint. Every outbound call passes
// through the limiter first; enrichment batches share the same client, so the
// budget is enforced in one place instead of scattered sleeps.
type Client struct {
	httpClient *http.Client
	baseURL    string
	enabled    bool
	limiter    *rate.Limiter
}

// Option configures Client behavior.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (useful for tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRateLimit caps outbound calls per second.
func WithRateLimit(perSec float64) Option {
	return func(c *Client) {
		if perSec > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSec), 1)
		}
	}
}

// New creates a registry client. An empty baseURL or enabled=false yields an
// inactive client that the resolver will skip.
func New(baseURL string, enabled bool, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		enabled:    enabled && strings.TrimSpace(baseURL) != "",
		limiter:    rate.NewLimiter(rate.Limit(2), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ org.Registry = (*Client)(nil)

// Active reports whether the registry should be consulted at all.
func (c *Client) Active() bool {
	return c != nil && c.enabled
}

// searchResponse mirrors the subset of the ROR payload the hub consumes.
type searchResponse struct {
	Items []struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		ExternalIDs struct {
			FundRef struct {
				Preferred string   `json:"preferred"`
				All       []string `json:"all"`
			} `json:"FundRef"`
		} `json:"external_ids"`
	} `json:"items"`
}

// Search queries the registry and normalizes results into candidates. Errors
// propagate to the caller, which treats them as an empty result.
func (c *Client) Search(ctx context.Context, term string) ([]org.Candidate, error) {
	if !c.Active() {
		return nil, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "/organizations?query=" + url.QueryEscape(term)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ror: unexpected status %d", resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	candidates := make([]org.Candidate, 0, len(payload.Items))
	for _, item := range payload.Items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			continue
		}
		cand := org.Candidate{
			Name:     name,
			SortName: org.SortName(name),
		}
		// ROR returns full URLs as ids; store the bare identifier.
		if cat, value, err := identifier.Normalize(item.ID); err == nil && cat == identifier.CategoryROR {
			cand.ROR = value
		}
		if fundref := item.ExternalIDs.FundRef.Preferred; fundref != "" {
			cand.Fundref = fundref
		} else if len(item.ExternalIDs.FundRef.All) > 0 {
			cand.Fundref = item.ExternalIDs.FundRef.All[0]
		}
		candidates = append(candidates, cand)
	}
	return candidates, nil
}
