package org

import (
	"context"
	"sort"
	"strings"
	"time"

	"dmphub.org/internal/identifier"
	"dmphub.org/internal/match"
	"dmphub.org/internal/obs"
)

const (
	// Candidates above this edit distance are discarded unless a substring
	// relationship vouches for them.
	defaultScoreThreshold = 25

	defaultCacheTTL = 24 * time.Hour

	cacheScope = "org_selection"

	minTermLength = 3
)

// Resolver combines local search, the external registry, deduplication and
// ranking into one candidate pipeline, plus the find-or-create path that
// turns a selected candidate back into a persisted organization.
type Resolver struct {
	store    Store
	registry Registry
	cache    Cache

	scoreThreshold int
	cacheTTL       time.Duration
}

// ResolverOption configures Resolver behavior.
type ResolverOption func(*Resolver)

// WithCache enables result caching keyed by (scope, term).
func WithCache(cache Cache, ttl time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.cache = cache
		if ttl > 0 {
			r.cacheTTL = ttl
		}
	}
}

// WithScoreThreshold overrides the acceptability threshold.
func WithScoreThreshold(threshold int) ResolverOption {
	return func(r *Resolver) {
		if threshold > 0 {
			r.scoreThreshold = threshold
		}
	}
}

// NewResolver constructs a resolver over the given collaborators. registry
// may be nil when external search is disabled.
func NewResolver(store Store, registry Registry, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store:          store,
		registry:       registry,
		scoreThreshold: defaultScoreThreshold,
		cacheTTL:       defaultCacheTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Search returns ranked affiliation candidates for term. Terms of fewer than
// three characters yield no results. When a local record matches term
// exactly, the external registry is not consulted.
func (r *Resolver) Search(ctx context.Context, term string) ([]Candidate, error) {
	term = strings.TrimSpace(term)
	if len(term) < minTermLength {
		return nil, nil
	}
	if r.cache == nil {
		return r.search(ctx, term)
	}
	key := cacheScope + ":" + strings.ToLower(term)
	return r.cache.Fetch(ctx, key, r.cacheTTL, func(ctx context.Context) ([]Candidate, error) {
		return r.search(ctx, term)
	})
}

func (r *Resolver) search(ctx context.Context, term string) ([]Candidate, error) {
	locals, err := r.store.SearchByName(ctx, term)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(locals))
	exact := false
	for _, o := range locals {
		candidates = append(candidates, Candidate{
			ID:       o.ID,
			Name:     o.Name,
			SortName: SortName(o.Name),
			ROR:      o.RORID(),
			Fundref:  o.FundrefID(),
		})
		if match.ExactMatch(term, o.Name) {
			exact = true
		}
	}

	// An exact local hit short-circuits the registry call: the caller already
	// has what it typed, and registry lookups cost latency and quota.
	if !exact && r.registry != nil && r.registry.Active() {
		external, err := r.registry.Search(ctx, term)
		if err != nil {
			obs.ObserveRegistrySearch("error")
		} else {
			obs.ObserveRegistrySearch("ok")
			candidates = append(candidates, external...)
		}
	} else {
		obs.ObserveRegistrySearch("skipped")
	}

	return r.rank(term, candidates), nil
}

// rank scores, filters, deduplicates and orders candidates. Input order is
// preserved through deduplication so local rows win over registry rows.
func (r *Resolver) rank(term string, candidates []Candidate) []Candidate {
	kept := candidates[:0]
	for _, c := range candidates {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		if c.SortName == "" {
			c.SortName = SortName(c.Name)
		}
		c.Score = match.Score(term, c.Name)
		c.Weight = match.Weight(term, c.Name)
		// A weak edit distance is tolerated when the substring relationship
		// is strong.
		if c.Score > r.scoreThreshold && c.Weight >= match.WeightFallback {
			continue
		}
		kept = append(kept, c)
	}

	deduped := deduplicate(kept)

	sort.SliceStable(deduped, func(i, j int) bool {
		if deduped[i].Weight != deduped[j].Weight {
			return deduped[i].Weight < deduped[j].Weight
		}
		return deduped[i].SortName < deduped[j].SortName
	})
	return deduped
}

// deduplicate drops later candidates that share a sort name or a ROR id with
// an earlier one.
func deduplicate(candidates []Candidate) []Candidate {
	seenName := make(map[string]struct{}, len(candidates))
	seenROR := make(map[string]struct{}, len(candidates))
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := seenName[c.SortName]; ok {
			continue
		}
		if c.ROR != "" {
			if _, ok := seenROR[c.ROR]; ok {
				continue
			}
			seenROR[c.ROR] = struct{}{}
		}
		seenName[c.SortName] = struct{}{}
		out = append(out, c)
	}
	return out
}

// ResolveOrCreate turns a descriptor back into a persisted organization.
// Lookup order: by registry id with an exact-name check, then by name, then a
// new row when allowCreate is set. Absence is nil, not an error.
func (r *Resolver) ResolveOrCreate(ctx context.Context, d Descriptor, allowCreate bool) (*Organization, error) {
	name := strings.TrimSpace(d.Name)

	if d.ROR != "" {
		found, err := r.store.FindByIdentifier(ctx, identifier.CategoryROR, d.ROR)
		if err != nil && err != ErrNotFound {
			return nil, err
		}
		// The name check protects against stale registry rows: a renamed
		// institution keeps its ROR id but must not shadow the new name.
		if found != nil && match.ExactMatch(found.Name, name) {
			return found, nil
		}
	}

	if name == "" {
		return nil, nil
	}

	locals, err := r.store.SearchByName(ctx, match.StripParenthetical(name))
	if err != nil {
		return nil, err
	}
	for _, o := range locals {
		if match.ExactMatch(o.Name, name) {
			return o, nil
		}
	}

	if !allowCreate {
		return nil, nil
	}

	o := &Organization{
		Name:       name,
		SortName:   SortName(name),
		Provenance: ProvenanceDMPHub,
	}
	if d.ROR != "" {
		o.Provenance = ProvenanceROR
		o.Identifiers = append(o.Identifiers, Identifier{
			Category:   identifier.CategoryROR,
			Value:      d.ROR,
			Descriptor: DescriptorIdentifiedBy,
			Provenance: ProvenanceROR,
		})
	}
	if d.Fundref != "" {
		o.Identifiers = append(o.Identifiers, Identifier{
			Category:   identifier.CategoryFundref,
			Value:      d.Fundref,
			Descriptor: DescriptorIsFundedBy,
			Provenance: ProvenanceROR,
		})
	}
	if err := r.store.Create(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}
