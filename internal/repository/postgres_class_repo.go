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

const classColumns = `id, name, image, instructor_name, instructor_email, price, available_seat, description, status, created_at, updated_at`

// PostgresClassRepo はPostgreSQLを使用したクラスリポジトリ。
type PostgresClassRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresClassRepo はPostgresClassRepoを生成する。
func NewPostgresClassRepo(db *sql.DB) *PostgresClassRepo {
	return &PostgresClassRepo{db: db, now: time.Now}
}

func scanClass(row rowScanner) (*model.Class, error) {
	class := &model.Class{}
	var status string
	err := row.Scan(
		&class.ID, &class.Name, &class.Image, &class.InstructorName, &class.InstructorEmail,
		&class.Price, &class.AvailableSeat, &class.Description, &status,
		&class.CreatedAt, &class.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	class.Status = model.ClassStatus(status)
	return class, nil
}

// Create はクラスを作成する。IDとタイムスタンプが未設定の場合は付与する。
func (r *PostgresClassRepo) Create(ctx context.Context, class *model.Class) error {
	if class.ID == "" {
		class.ID = uuid.New().String()
	}
	if class.Status == "" {
		class.Status = model.ClassStatusPending
	}
	now := r.now()
	class.CreatedAt = now
	class.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO classes (`+classColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		class.ID, class.Name, class.Image, class.InstructorName, class.InstructorEmail,
		class.Price, class.AvailableSeat, class.Description, string(class.Status),
		class.CreatedAt, class.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create class: %w", err)
	}
	return nil
}

// FindByID は指定IDのクラスを取得する。見つからない場合はnilを返す。
func (r *PostgresClassRepo) FindByID(ctx context.Context, id string) (*model.Class, error) {
	class, err := scanClass(r.db.QueryRowContext(ctx,
		`SELECT `+classColumns+` FROM classes WHERE id = $1`,
		id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find class by ID: %w", err)
	}
	return class, nil
}

// List は全クラスを空席数の降順で返す。
func (r *PostgresClassRepo) List(ctx context.Context) ([]*model.Class, error) {
	return r.queryClasses(ctx,
		`SELECT `+classColumns+` FROM classes ORDER BY available_seat DESC, created_at ASC`)
}

// ListByInstructor は講師emailでクラス一覧を返す。
func (r *PostgresClassRepo) ListByInstructor(ctx context.Context, email string) ([]*model.Class, error) {
	return r.queryClasses(ctx,
		`SELECT `+classColumns+` FROM classes WHERE instructor_email = $1 ORDER BY created_at DESC`,
		email)
}

func (r *PostgresClassRepo) queryClasses(ctx context.Context, query string, args ...any) ([]*model.Class, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	defer rows.Close()

	classes := []*model.Class{}
	for rows.Next() {
		class, err := scanClass(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan class: %w", err)
		}
		classes = append(classes, class)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate classes: %w", err)
	}
	return classes, nil
}

// UpdateStatus はクラスの審査状態と空席数を更新する。
func (r *PostgresClassRepo) UpdateStatus(ctx context.Context, id string, status model.ClassStatus, availableSeat int) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE classes SET status = $1, available_seat = $2, updated_at = $3 WHERE id = $4`,
		string(status), availableSeat, r.now(), id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update class status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

var _ ClassRepository = (*PostgresClassRepo)(nil)
