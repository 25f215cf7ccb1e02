package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hitoshi/summercamp/internal/model"
)

var cartRowColumns = []string{
	"id", "student_email", "class_id", "name", "image",
	"instructor_name", "instructor_email", "price", "created_at",
}

func newCartRepoWithMock(t *testing.T) (*PostgresCartRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	repo := NewPostgresCartRepo(db)
	repo.now = func() time.Time { return fixedNow }
	return repo, mock
}

// 同じクラスを2回追加しても2件とも作成される
func TestPostgresCartRepo_Create_AllowsDuplicates(t *testing.T) {
	repo, mock := newCartRepoWithMock(t)

	for i := 0; i < 2; i++ {
		mock.ExpectExec(`INSERT INTO carts`).
			WithArgs(sqlmock.AnyArg(), "s@example.com", "c1", "", "", "", "", 20.0, fixedNow).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	first := &model.CartEntry{StudentEmail: "s@example.com", ClassID: "c1", Price: 20}
	second := &model.CartEntry{StudentEmail: "s@example.com", ClassID: "c1", Price: 20}
	if err := repo.Create(context.Background(), first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Create(context.Background(), second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ID == second.ID {
		t.Error("expected distinct IDs for duplicate entries")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresCartRepo_ListByStudent(t *testing.T) {
	repo, mock := newCartRepoWithMock(t)

	mock.ExpectQuery(`SELECT .* FROM carts WHERE student_email = \$1`).
		WithArgs("s@example.com").
		WillReturnRows(sqlmock.NewRows(cartRowColumns).
			AddRow("k1", "s@example.com", "c1", "A", "", "", "", 20.0, fixedNow))

	entries, err := repo.ListByStudent(context.Background(), "s@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].ClassID != "c1" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestPostgresCartRepo_DeleteByID(t *testing.T) {
	repo, mock := newCartRepoWithMock(t)

	mock.ExpectExec(`DELETE FROM carts WHERE id = \$1`).
		WithArgs("k1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := repo.DeleteByID(context.Background(), "k1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
}
