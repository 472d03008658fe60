package dmp

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

func (s *PGStore) Create(ctx context.Context, d *DMP) error {
	if d == nil || d.Title == "" {
		return ErrInvalidInput
	}
	if d.ID == "" {
		d.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx, `
		insert into dmps(id, title, description, doi, project_id, created_at, updated_at)
		values($1,$2,$3,$4,$5,now(),now())
	`, d.ID, d.Title, d.Description, d.DOI, d.ProjectID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	return nil
}

func (s *PGStore) Find(ctx context.Context, id string) (*DMP, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, title, description, doi, project_id, created_at, updated_at
		from dmps where id=$1
	`, id)
	var d DMP
	if err := row.Scan(&d.ID, &d.Title, &d.Description, &d.DOI, &d.ProjectID, &d.CreatedAt, &d.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (s *PGStore) ContributorRoles(ctx context.Context, dmpID, orcid string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		select r.role
		from contributors c
		join contributor_roles r on r.contributor_id=c.id
		where c.dmp_id=$1 and c.orcid=$2
	`, dmpID, orcid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (s *PGStore) AddContributor(ctx context.Context, c *Contributor) error {
	if c == nil || c.DMPID == "" {
		return ErrInvalidInput
	}
	if c.ID == "" {
		c.ID = ids.New()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		insert into contributors(id, dmp_id, name, orcid, created_at)
		values($1,$2,$3,$4,now())
	`, c.ID, c.DMPID, c.Name, c.ORCID); err != nil {
		return err
	}
	for _, role := range c.Roles {
		if _, err := tx.ExecContext(ctx, `
			insert into contributor_roles(contributor_id, role)
			values($1,$2)
			on conflict do nothing
		`, c.ID, role); err != nil {
			return err
		}
	}
	return tx.Commit()
}
