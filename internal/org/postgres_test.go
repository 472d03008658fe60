package org

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"dmphub.org/internal/identifier"
)

func TestPGStoreFindByIdentifier(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("select o.id, o.name, o.sort_name, o.provenance").
		WithArgs("organization", "ror", "03yrm5c26").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "sort_name", "provenance", "created_at", "updated_at"}).
			AddRow("org-1", "Example University", "example university", "ror", now, now))
	mock.ExpectQuery("select id, category, value, descriptor, provenance, created_at").
		WithArgs("organization", "org-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "category", "value", "descriptor", "provenance", "created_at"}).
			AddRow("id-1", "ror", "03yrm5c26", DescriptorIdentifiedBy, "ror", now))

	store := NewPGStore(db)
	o, err := store.FindByIdentifier(context.Background(), identifier.CategoryROR, "03yrm5c26")
	if err != nil {
		t.Fatalf("FindByIdentifier: %v", err)
	}
	if o.ID != "org-1" || o.RORID() != "03yrm5c26" {
		t.Fatalf("unexpected organization: %+v", o)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreFindByIdentifierNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select o.id, o.name, o.sort_name, o.provenance").
		WithArgs("organization", "ror", "0missing1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "sort_name", "provenance", "created_at", "updated_at"}))

	store := NewPGStore(db)
	if _, err := store.FindByIdentifier(context.Background(), identifier.CategoryROR, "0missing1"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGStoreCreateWithIdentifiers(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("insert into organizations").
		WithArgs(sqlmock.AnyArg(), "Fresh University", "fresh university", ProvenanceROR).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("insert into identifiers").
		WithArgs(sqlmock.AnyArg(), "organization", sqlmock.AnyArg(), "ror", "0fresh001", DescriptorIdentifiedBy, ProvenanceROR).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	store := NewPGStore(db)
	o := &Organization{
		Name:       "Fresh University",
		Provenance: ProvenanceROR,
		Identifiers: []Identifier{{
			Category:   identifier.CategoryROR,
			Value:      "0fresh001",
			Descriptor: DescriptorIdentifiedBy,
			Provenance: ProvenanceROR,
		}},
	}
	if err := store.Create(context.Background(), o); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if o.ID == "" {
		t.Fatal("expected generated id")
	}
	if o.Identifiers[0].Owner.Kind != "organization" || o.Identifiers[0].Owner.ID != o.ID {
		t.Fatalf("identifier owner not set: %+v", o.Identifiers[0].Owner)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreCreateRejectsEmptyName(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	store := NewPGStore(db)
	if err := store.Create(context.Background(), &Organization{}); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
