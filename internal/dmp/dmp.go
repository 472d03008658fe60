// Package dmp holds the data management plan records the hub protects.
package dmp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Contributor roles that qualify a person to act on a plan.
const (
	RolePrimaryContact        = "primary_contact"
	RolePrincipalInvestigator = "principal_investigator"
)

var (
	ErrNotFound     = errors.New("dmp: not found")
	ErrInvalidInput = errors.New("dmp: invalid input")
)

// DMP is a data management plan record. DOI is attached after minting by the
// external DOI collaborator and may be empty for drafts.
type DMP struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	DOI         string    `json:"doi,omitempty"`
	ProjectID   string    `json:"project_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Persisted reports whether the plan has been stored.
func (d *DMP) Persisted() bool {
	return d != nil && strings.TrimSpace(d.ID) != ""
}

// Contributor is a person attached to a plan's project with one or more
// roles, identified across systems by ORCID.
type Contributor struct {
	ID    string   `json:"id"`
	DMPID string   `json:"dmp_id"`
	Name  string   `json:"name"`
	ORCID string   `json:"orcid,omitempty"`
	Roles []string `json:"roles"`
}

// Store describes persistence operations for plans.
type Store interface {
	Create(ctx context.Context, d *DMP) error
	Find(ctx context.Context, id string) (*DMP, error)
	// ContributorRoles returns the project-level roles held on the plan by
	// the contributor carrying the given ORCID.
	ContributorRoles(ctx context.Context, dmpID, orcid string) ([]string, error)
	AddContributor(ctx context.Context, c *Contributor) error
}

// Service wraps Store with input validation.
type Service struct {
	store Store
}

func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, errors.New("dmp: store is required")
	}
	return &Service{store: store}, nil
}

func (s *Service) Create(ctx context.Context, d *DMP) error {
	if d == nil {
		return fmt.Errorf("%w: plan is required", ErrInvalidInput)
	}
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	d.DOI = strings.TrimSpace(d.DOI)
	d.ProjectID = strings.TrimSpace(d.ProjectID)
	return s.store.Create(ctx, d)
}

func (s *Service) Find(ctx context.Context, id string) (*DMP, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	return s.store.Find(ctx, id)
}

func (s *Service) AddContributor(ctx context.Context, c *Contributor) error {
	if c == nil || strings.TrimSpace(c.DMPID) == "" {
		return fmt.Errorf("%w: dmp_id is required", ErrInvalidInput)
	}
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return fmt.Errorf("%w: contributor name is required", ErrInvalidInput)
	}
	return s.store.AddContributor(ctx, c)
}
