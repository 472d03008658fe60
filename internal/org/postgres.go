package org

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"dmphub.org/internal/identifier"
	"dmphub.org/internal/ids"
)

const kindOrganization = "organization"

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) FindByIdentifier(ctx context.Context, category identifier.Category, value string) (*Organization, error) {
	// The newest identifier of a category is authoritative.
	row := s.db.QueryRowContext(ctx, `
		select o.id, o.name, o.sort_name, o.provenance, o.created_at, o.updated_at
		from organizations o
		join identifiers i on i.owner_kind=$1 and i.owner_id=o.id
		where i.category=$2 and i.value=$3
		order by i.created_at desc
		limit 1
	`, kindOrganization, string(category), value)

	var o Organization
	if err := row.Scan(&o.ID, &o.Name, &o.SortName, &o.Provenance, &o.CreatedAt, &o.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.loadIdentifiers(ctx, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *PGStore) SearchByName(ctx context.Context, term string) ([]*Organization, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, name, sort_name, provenance, created_at, updated_at
		from organizations
		where name ilike '%' || $1 || '%'
		order by sort_name asc
		limit 50
	`, term)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Organization
	for rows.Next() {
		var o Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.SortName, &o.Provenance, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, o := range res {
		if err := s.loadIdentifiers(ctx, o); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (s *PGStore) Create(ctx context.Context, o *Organization) error {
	if o == nil || o.Name == "" {
		return ErrInvalidInput
	}
	if o.ID == "" {
		o.ID = ids.New()
	}
	if o.SortName == "" {
		o.SortName = SortName(o.Name)
	}
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		insert into organizations(id, name, sort_name, provenance, created_at, updated_at)
		values($1,$2,$3,$4,now(),now())
	`, o.ID, o.Name, o.SortName, o.Provenance); err != nil {
		return err
	}

	for i := range o.Identifiers {
		id := &o.Identifiers[i]
		if id.ID == "" {
			id.ID = ids.New()
		}
		id.Owner = Identifiable{Kind: kindOrganization, ID: o.ID}
		if _, err := tx.ExecContext(ctx, `
			insert into identifiers(id, owner_kind, owner_id, category, value, descriptor, provenance, created_at)
			values($1,$2,$3,$4,$5,$6,$7,now())
		`, id.ID, id.Owner.Kind, id.Owner.ID, string(id.Category), id.Value, id.Descriptor, id.Provenance); err != nil {
			return err
		}
		id.CreatedAt = now
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	o.CreatedAt = now
	o.UpdatedAt = now
	return nil
}

func (s *PGStore) loadIdentifiers(ctx context.Context, o *Organization) error {
	rows, err := s.db.QueryContext(ctx, `
		select id, category, value, descriptor, provenance, created_at
		from identifiers
		where owner_kind=$1 and owner_id=$2
		order by created_at desc
	`, kindOrganization, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id Identifier
		var category string
		if err := rows.Scan(&id.ID, &category, &id.Value, &id.Descriptor, &id.Provenance, &id.CreatedAt); err != nil {
			return err
		}
		id.Category = identifier.Category(category)
		id.Owner = Identifiable{Kind: kindOrganization, ID: o.ID}
		o.Identifiers = append(o.Identifiers, id)
	}
	return rows.Err()
}
