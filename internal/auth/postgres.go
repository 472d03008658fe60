package auth

import (
	"context"
	"database/sql"
	"errors"
)

var _ ClientStore = (*PGClientStore)(nil)

// PGClientStore implements ClientStore using PostgreSQL.
type PGClientStore struct {
	db *sql.DB
}

func NewPGClientStore(db *sql.DB) *PGClientStore {
	return &PGClientStore{db: db}
}

func (s *PGClientStore) Find(ctx context.Context, id string) (*Client, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, client_id, client_secret, name, uid, created_at, updated_at
		from api_clients where id=$1
	`, id)
	return scanClient(row)
}

func (s *PGClientStore) FindByClientID(ctx context.Context, clientID string) ([]*Client, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, client_id, client_secret, name, uid, created_at, updated_at
		from api_clients where client_id=$1
		order by created_at asc
	`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.ClientID, &c.SecretHash, &c.Name, &c.UID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, ErrNotFound
	}
	return res, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (*Client, error) {
	var c Client
	if err := row.Scan(&c.ID, &c.ClientID, &c.SecretHash, &c.Name, &c.UID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
