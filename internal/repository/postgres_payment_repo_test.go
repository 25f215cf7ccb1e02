package repository

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hitoshi/summercamp/internal/model"
)

func newPaymentRepoWithMock(t *testing.T) (*PostgresPaymentRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	repo := NewPostgresPaymentRepo(db)
	repo.now = func() time.Time { return fixedNow }
	return repo, mock
}

func newSettlePayment() *model.Payment {
	return &model.Payment{
		Email:         "s@example.com",
		Price:         42.5,
		TransactionID: "pi_123",
		CartEntryID:   "k1",
		ClassIDs:      []string{"c1"},
		ClassNames:    []string{"Watercolor"},
	}
}

func TestPostgresPaymentRepo_Settle_Commits(t *testing.T) {
	repo, mock := newPaymentRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO payments`).
		WithArgs(sqlmock.AnyArg(), "s@example.com", 42.5, "pi_123", "k1",
			sqlmock.AnyArg(), sqlmock.AnyArg(), fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM carts WHERE id = \$1 AND student_email = \$2`).
		WithArgs("k1", "s@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	payment := newSettlePayment()
	result, err := repo.Settle(context.Background(), payment)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.InsertResult.Acknowledged || result.InsertResult.InsertedID != payment.ID {
		t.Errorf("InsertResult = %+v", result.InsertResult)
	}
	if result.DeleteResult.DeletedCount != 1 {
		t.Errorf("DeletedCount = %d, want 1", result.DeleteResult.DeletedCount)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// カートエントリが既に無い場合も決済記録はコミットされる
func TestPostgresPaymentRepo_Settle_MissingCartEntryStillCommits(t *testing.T) {
	repo, mock := newPaymentRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO payments`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM carts`).
		WithArgs("k1", "s@example.com").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	result, err := repo.Settle(context.Background(), newSettlePayment())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.DeleteResult.DeletedCount != 0 {
		t.Errorf("DeletedCount = %d, want 0", result.DeleteResult.DeletedCount)
	}
	// 警告はサービス層がメトリクスと一緒に出す
	if logs.Len() != 0 {
		t.Errorf("repository should not log, got %s", logs.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// 挿入に失敗した場合はロールバックされ、カートエントリの削除は実行されない
func TestPostgresPaymentRepo_Settle_InsertFailureRollsBack(t *testing.T) {
	repo, mock := newPaymentRepoWithMock(t)

	insertErr := errors.New("insert failed")
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO payments`).
		WillReturnError(insertErr)
	mock.ExpectRollback()

	_, err := repo.Settle(context.Background(), newSettlePayment())
	if !errors.Is(err, insertErr) {
		t.Fatalf("expected wrapped insertErr, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresPaymentRepo_Settle_DeleteFailureRollsBack(t *testing.T) {
	repo, mock := newPaymentRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO payments`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM carts`).
		WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	if _, err := repo.Settle(context.Background(), newSettlePayment()); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresPaymentRepo_ListByEmail(t *testing.T) {
	repo, mock := newPaymentRepoWithMock(t)

	mock.ExpectQuery(`SELECT .* FROM payments WHERE email = \$1 ORDER BY created_at DESC`).
		WithArgs("s@example.com").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "price", "transaction_id", "cart_entry_id", "class_ids", "class_names", "created_at",
		}).AddRow("p1", "s@example.com", 42.5, "pi_123", "k1", "{c1,c2}", "{A,B}", fixedNow))

	payments, err := repo.ListByEmail(context.Background(), "s@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(payments) != 1 {
		t.Fatalf("len(payments) = %d, want 1", len(payments))
	}
	if got := payments[0].ClassIDs; len(got) != 2 || got[1] != "c2" {
		t.Errorf("ClassIDs = %v", got)
	}
}
