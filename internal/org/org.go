// Package org resolves free-text organization names and external registry
// identifiers against persisted affiliation records.
package org

import (
	"context"
	"errors"
	"strings"
	"time"

	"dmphub.org/internal/identifier"
	"dmphub.org/internal/match"
)

// Provenance records which system asserted a piece of data.
const (
	ProvenanceROR    = "ror"    // mirrored from the ROR registry
	ProvenanceDMPHub = "dmphub" // free-text entry through this hub
)

// Identifier descriptor values (relationship of the id to its owner).
const (
	DescriptorIdentifiedBy   = "identified_by"
	DescriptorIsFundedBy     = "is_funded_by"
	DescriptorIsReferencedBy = "is_referenced_by"
)

var (
	ErrNotFound     = errors.New("org: not found")
	ErrInvalidInput = errors.New("org: invalid input")
)

// Identifiable tags the owning entity of an identifier. Any entity kind may
// carry identifiers; the kind string selects the repository that dereferences
// the id.
type Identifiable struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// Identifier is a typed external id attached to an entity. An entity may
// carry several identifiers of the same category from different provenances;
// the most recently added one of a category is authoritative.
type Identifier struct {
	ID         string              `json:"id"`
	Owner      Identifiable        `json:"owner"`
	Category   identifier.Category `json:"category"`
	Value      string              `json:"value"`
	Descriptor string              `json:"descriptor"`
	Provenance string              `json:"provenance"`
	CreatedAt  time.Time           `json:"created_at"`
}

// Organization is a persisted affiliation. Name uniqueness is enforced at
// resolution time via fuzzy matching, not by a store constraint, so racing
// creates can leave near-duplicate rows behind.
type Organization struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	SortName    string       `json:"sort_name"`
	Provenance  string       `json:"provenance"`
	Identifiers []Identifier `json:"identifiers,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// RORID returns the authoritative ROR id attached to the organization, if any.
func (o *Organization) RORID() string {
	return o.identifierValue(identifier.CategoryROR)
}

// FundrefID returns the authoritative Crossref funder id, if any.
func (o *Organization) FundrefID() string {
	return o.identifierValue(identifier.CategoryFundref)
}

func (o *Organization) identifierValue(cat identifier.Category) string {
	// Identifiers are loaded newest-first; the first hit wins.
	for _, id := range o.Identifiers {
		if id.Category == cat {
			return id.Value
		}
	}
	return ""
}

// Candidate is a ranked search result, serializable as-is on the wire.
type Candidate struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	SortName string `json:"sort_name"`
	ROR      string `json:"ror,omitempty"`
	Fundref  string `json:"fundref,omitempty"`
	Score    int    `json:"score"`
	Weight   int    `json:"weight"`
}

// Descriptor names an organization a caller selected or typed, optionally
// carrying the registry ids that came with it.
type Descriptor struct {
	Name    string `json:"name"`
	ROR     string `json:"ror,omitempty"`
	Fundref string `json:"fundref,omitempty"`
}

// SortName derives the comparison key used for deduplication and ordering.
func SortName(name string) string {
	return strings.ToLower(match.StripParenthetical(name))
}

// Store is the durable collaborator behind resolution.
type Store interface {
	// FindByIdentifier returns the organization owning the given external id,
	// or ErrNotFound.
	FindByIdentifier(ctx context.Context, category identifier.Category, value string) (*Organization, error)
	// SearchByName returns organizations whose name contains term,
	// case-insensitively.
	SearchByName(ctx context.Context, term string) ([]*Organization, error)
	// Create persists the organization together with its identifiers.
	Create(ctx context.Context, o *Organization) error
}

// Registry is the external registry collaborator (ROR). Failures degrade to
// empty results at the resolution boundary.
type Registry interface {
	Active() bool
	Search(ctx context.Context, term string) ([]Candidate, error)
}

// Cache memoizes ranked search results under a bounded TTL.
type Cache interface {
	Fetch(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) ([]Candidate, error)) ([]Candidate, error)
}
