package dmp

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestServiceCreateValidation(t *testing.T) {
	svc, err := NewService(NewPGStore(nil))
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Create(context.Background(), nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for nil plan, got %v", err)
	}
	if err := svc.Create(context.Background(), &DMP{Title: "   "}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank title, got %v", err)
	}
}

func TestPGStoreCreateAndFind(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("insert into dmps").
		WithArgs(sqlmock.AnyArg(), "Ocean Survey Plan", "", "10.1234/x", "proj-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewPGStore(db)
	d := &DMP{Title: "Ocean Survey Plan", DOI: "10.1234/x", ProjectID: "proj-1"}
	if err := store.Create(context.Background(), d); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if d.ID == "" {
		t.Fatal("expected generated id")
	}

	mock.ExpectQuery("select id, title, description, doi, project_id").
		WithArgs(d.ID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "doi", "project_id", "created_at", "updated_at"}).
			AddRow(d.ID, d.Title, "", d.DOI, d.ProjectID, d.CreatedAt, d.UpdatedAt))

	found, err := store.Find(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if found.Title != "Ocean Survey Plan" {
		t.Fatalf("unexpected plan: %+v", found)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreFindNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select id, title, description, doi, project_id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "doi", "project_id", "created_at", "updated_at"}))

	store := NewPGStore(db)
	if _, err := store.Find(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGStoreContributorRoles(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select r.role").
		WithArgs("dmp-1", "0000-0002-1825-0097").
		WillReturnRows(sqlmock.NewRows([]string{"role"}).
			AddRow(RolePrimaryContact).
			AddRow("data_curator"))

	store := NewPGStore(db)
	roles, err := store.ContributorRoles(context.Background(), "dmp-1", "0000-0002-1825-0097")
	if err != nil {
		t.Fatalf("ContributorRoles: %v", err)
	}
	if len(roles) != 2 || roles[0] != RolePrimaryContact {
		t.Fatalf("unexpected roles: %v", roles)
	}
}
