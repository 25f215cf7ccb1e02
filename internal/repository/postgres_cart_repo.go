package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/summercamp/internal/model"
)

const cartColumns = `id, student_email, class_id, name, image, instructor_name, instructor_email, price, created_at`

// PostgresCartRepo はPostgreSQLを使用したカートリポジトリ。
type PostgresCartRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresCartRepo はPostgresCartRepoを生成する。
func NewPostgresCartRepo(db *sql.DB) *PostgresCartRepo {
	return &PostgresCartRepo{db: db, now: time.Now}
}

func scanCartEntry(row rowScanner) (*model.CartEntry, error) {
	entry := &model.CartEntry{}
	err := row.Scan(
		&entry.ID, &entry.StudentEmail, &entry.ClassID, &entry.Name, &entry.Image,
		&entry.InstructorName, &entry.InstructorEmail, &entry.Price, &entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Create はカートエントリを作成する。
func (r *PostgresCartRepo) Create(ctx context.Context, entry *model.CartEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	entry.CreatedAt = r.now()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO carts (`+cartColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.StudentEmail, entry.ClassID, entry.Name, entry.Image,
		entry.InstructorName, entry.InstructorEmail, entry.Price, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create cart entry: %w", err)
	}
	return nil
}

// FindByID は指定IDのカートエントリを取得する。見つからない場合はnilを返す。
func (r *PostgresCartRepo) FindByID(ctx context.Context, id string) (*model.CartEntry, error) {
	entry, err := scanCartEntry(r.db.QueryRowContext(ctx,
		`SELECT `+cartColumns+` FROM carts WHERE id = $1`,
		id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find cart entry by ID: %w", err)
	}
	return entry, nil
}

// ListByStudent は受講生emailでカートエントリ一覧を追加順に返す。
func (r *PostgresCartRepo) ListByStudent(ctx context.Context, email string) ([]*model.CartEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+cartColumns+` FROM carts WHERE student_email = $1 ORDER BY created_at ASC`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart entries: %w", err)
	}
	defer rows.Close()

	entries := []*model.CartEntry{}
	for rows.Next() {
		entry, err := scanCartEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cart entries: %w", err)
	}
	return entries, nil
}

// DeleteByID は指定IDのカートエントリを削除し、削除件数を返す。
func (r *PostgresCartRepo) DeleteByID(ctx context.Context, id string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete cart entry: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

var _ CartRepository = (*PostgresCartRepo)(nil)
