// Package authz decides whether an actor may act on a data management plan,
// and records which client application owns which plan. Checks are pure
// reads; only Authorize writes, and it is idempotent.
package authz

import (
	"context"
	"errors"
	"strings"
	"time"

	"dmphub.org/internal/dmp"
)

// EntityKind tags the actor side of an authorization. New kinds dereference
// through the store registered for them; there is no inheritance involved.
type EntityKind string

const (
	KindAPIClient EntityKind = "api_client"
	KindUser      EntityKind = "user"
)

// Resource kind protected by this service.
const kindDMP = "dmp"

// Permission names an action on a protected resource.
type Permission string

const (
	PermissionRead  Permission = "read"
	PermissionWrite Permission = "write"
)

var ErrInvalidInput = errors.New("authz: invalid input")

// Entity identifies an actor by kind and opaque id. For external OAuth
// identities the id is the identity's opaque id; their type is never touched.
type Entity struct {
	Kind EntityKind `json:"kind"`
	ID   string     `json:"id"`
}

func (e Entity) valid() bool {
	return e.Kind != "" && strings.TrimSpace(e.ID) != ""
}

// Actor is the authenticated caller being checked. User actors are matched to
// plan contributors through their ORCID; SuperUser short-circuits every check.
type Actor struct {
	Kind      EntityKind
	ID        string
	ORCID     string
	SuperUser bool
}

// Authorization links a client application to a plan it may read and write.
type Authorization struct {
	ID           string     `json:"id"`
	ResourceKind string     `json:"resource_kind"`
	ResourceID   string     `json:"resource_id"`
	EntityKind   EntityKind `json:"entity_kind"`
	EntityID     string     `json:"entity_id"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Store persists authorization links.
type Store interface {
	// Find returns the link for (resource, entity) or nil when absent.
	Find(ctx context.Context, resourceKind, resourceID string, kind EntityKind, entityID string) (*Authorization, error)
	// Create persists the link; creating an existing link is a no-op that
	// returns the persisted row.
	Create(ctx context.Context, a *Authorization) error
}

// Service evaluates access decisions.
type Service struct {
	store Store
	plans dmp.Store
}

// NewService constructs the authorization service.
func NewService(store Store, plans dmp.Store) (*Service, error) {
	if store == nil {
		return nil, errors.New("authz: store is required")
	}
	if plans == nil {
		return nil, errors.New("authz: plan store is required")
	}
	return &Service{store: store, plans: plans}, nil
}

// Authorized reports whether actor holds permission on the plan. Absent
// inputs and store failures evaluate to false; this never raises.
func (s *Service) Authorized(ctx context.Context, resource *dmp.DMP, actor *Actor, permission Permission) bool {
	if permission == "" || actor == nil || !resource.Persisted() {
		return false
	}
	if actor.SuperUser {
		return true
	}

	switch actor.Kind {
	case KindUser:
		return s.userAuthorized(ctx, resource, actor)
	case KindAPIClient:
		found, err := s.store.Find(ctx, kindDMP, resource.ID, KindAPIClient, actor.ID)
		return err == nil && found != nil
	default:
		return false
	}
}

// userAuthorized matches the user to a plan contributor via shared ORCID and
// requires a qualifying project role.
func (s *Service) userAuthorized(ctx context.Context, resource *dmp.DMP, actor *Actor) bool {
	orcid := strings.TrimSpace(actor.ORCID)
	if orcid == "" {
		return false
	}
	roles, err := s.plans.ContributorRoles(ctx, resource.ID, orcid)
	if err != nil {
		return false
	}
	for _, role := range roles {
		if role == dmp.RolePrimaryContact || role == dmp.RolePrincipalInvestigator {
			return true
		}
	}
	return false
}

// Authorize idempotently links a newly created plan to the application that
// created it. Returns nil without side effects when the plan is not persisted
// or the entity is not a valid application identity.
func (s *Service) Authorize(ctx context.Context, resource *dmp.DMP, entity Entity) *Authorization {
	if !resource.Persisted() || !entity.valid() || entity.Kind != KindAPIClient {
		return nil
	}

	existing, err := s.store.Find(ctx, kindDMP, resource.ID, entity.Kind, entity.ID)
	if err == nil && existing != nil {
		return existing
	}

	a := &Authorization{
		ResourceKind: kindDMP,
		ResourceID:   resource.ID,
		EntityKind:   entity.Kind,
		EntityID:     entity.ID,
	}
	if err := s.store.Create(ctx, a); err != nil {
		return nil
	}
	return a
}
