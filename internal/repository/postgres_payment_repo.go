package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/summercamp/internal/model"
	"github.com/lib/pq"
)

// PostgresPaymentRepo はPostgreSQLを使用した決済リポジトリ。
type PostgresPaymentRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresPaymentRepo はPostgresPaymentRepoを生成する。
func NewPostgresPaymentRepo(db *sql.DB) *PostgresPaymentRepo {
	return &PostgresPaymentRepo{db: db, now: time.Now}
}

// Settle は決済記録の挿入とカートエントリの削除を同一トランザクションで行う。
// 対象のカートエントリが存在しない場合も決済記録はコミットし、deletedCount=0 を返す。
func (r *PostgresPaymentRepo) Settle(ctx context.Context, payment *model.Payment) (*model.SettlementResult, error) {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	payment.CreatedAt = r.now()
	if payment.ClassIDs == nil {
		payment.ClassIDs = []string{}
	}
	if payment.ClassNames == nil {
		payment.ClassNames = []string{}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin settlement transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO payments (id, email, price, transaction_id, cart_entry_id, class_ids, class_names, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		payment.ID, payment.Email, payment.Price, payment.TransactionID, payment.CartEntryID,
		pq.Array(payment.ClassIDs), pq.Array(payment.ClassNames), payment.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert payment: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM carts WHERE id = $1 AND student_email = $2`,
		payment.CartEntryID, payment.Email,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to delete settled cart entry: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit settlement: %w", err)
	}

	return &model.SettlementResult{
		InsertResult: model.InsertResult{Acknowledged: true, InsertedID: payment.ID},
		DeleteResult: model.DeleteResult{Acknowledged: true, DeletedCount: deleted},
	}, nil
}

// ListByEmail は指定emailの決済履歴を新しい順に返す。
func (r *PostgresPaymentRepo) ListByEmail(ctx context.Context, email string) ([]*model.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, email, price, transaction_id, cart_entry_id, class_ids, class_names, created_at
		 FROM payments WHERE email = $1 ORDER BY created_at DESC`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	payments := []*model.Payment{}
	for rows.Next() {
		p := &model.Payment{}
		if err := rows.Scan(&p.ID, &p.Email, &p.Price, &p.TransactionID, &p.CartEntryID,
			pq.Array(&p.ClassIDs), pq.Array(&p.ClassNames), &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return payments, nil
}

var _ PaymentRepository = (*PostgresPaymentRepo)(nil)
