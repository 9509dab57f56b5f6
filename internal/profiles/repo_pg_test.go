package profiles

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var pgColumns = []string{"id", "name", "age", "gender", "blood_group", "medical_conditions", "health_insurance", "date_of_birth", "created_at", "updated_at"}

func newMock(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreateReturnsTimestamps(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	p := Profile{ID: "p-1", Name: "Asha", Age: "41", Gender: "F", BloodGroup: "B+", DateOfBirth: "1983-02-11"}

	mock.ExpectQuery("INSERT INTO profiles").
		WithArgs(p.ID, p.Name, p.Age, p.Gender, p.BloodGroup, "", "", p.DateOfBirth).
		WillReturnRows(sqlmock.NewRows(pgColumns).
			AddRow(p.ID, p.Name, p.Age, p.Gender, p.BloodGroup, "", "", p.DateOfBirth, now, now))

	got, err := repo.Create(context.Background(), p)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !got.CreatedAt.Equal(now) || got.Name != "Asha" {
		t.Fatalf("unexpected profile %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateMissingIsNotFound(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("UPDATE profiles SET").
		WithArgs("ghost", "n", "1", "g", "b", "", "", "d").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Update(context.Background(), Profile{ID: "ghost", Name: "n", Age: "1", Gender: "g", BloodGroup: "b", DateOfBirth: "d"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetAndList(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .+ FROM profiles WHERE id = \\$1").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(pgColumns))
	if _, err := repo.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	mock.ExpectQuery("SELECT .+ FROM profiles ORDER BY created_at DESC").
		WillReturnRows(sqlmock.NewRows(pgColumns).
			AddRow("b", "Bo", "30", "M", "O+", "", "", "1994-01-01", now, now).
			AddRow("a", "Al", "60", "M", "A-", "diabetes", "acme", "1964-01-01", now.Add(-time.Hour), now))
	all, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 || all[0].ID != "b" || all[1].MedicalConditions != "diabetes" {
		t.Fatalf("unexpected list %+v", all)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoDelete(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec("DELETE FROM profiles").WithArgs("p-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM profiles").WithArgs("p-1").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "p-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(context.Background(), "p-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
