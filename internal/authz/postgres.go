package authz

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"dmphub.org/internal/ids"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Find(ctx context.Context, resourceKind, resourceID string, kind EntityKind, entityID string) (*Authorization, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, resource_kind, resource_id, entity_kind, entity_id, created_at
		from authorizations
		where resource_kind=$1 and resource_id=$2 and entity_kind=$3 and entity_id=$4
	`, resourceKind, resourceID, string(kind), entityID)

	var a Authorization
	var entityKind string
	if err := row.Scan(&a.ID, &a.ResourceKind, &a.ResourceID, &entityKind, &a.EntityID, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	a.EntityKind = EntityKind(entityKind)
	return &a, nil
}

func (s *PGStore) Create(ctx context.Context, a *Authorization) error {
	if a == nil {
		return ErrInvalidInput
	}
	if a.ID == "" {
		a.ID = ids.New()
	}
	// Racing creates for the same (resource, entity) pair collapse into one
	// row instead of erroring.
	_, err := s.db.ExecContext(ctx, `
		insert into authorizations(id, resource_kind, resource_id, entity_kind, entity_id, created_at)
		values($1,$2,$3,$4,$5,now())
		on conflict (resource_kind, resource_id, entity_kind, entity_id) do nothing
	`, a.ID, a.ResourceKind, a.ResourceID, string(a.EntityKind), a.EntityID)
	if err != nil {
		return err
	}
	a.CreatedAt = time.Now().UTC()
	return nil
}
