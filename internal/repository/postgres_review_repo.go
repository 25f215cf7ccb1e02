package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/summercamp/internal/model"
)

// PostgresReviewRepo はPostgreSQLを使用したレビューリポジトリ。
type PostgresReviewRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresReviewRepo はPostgresReviewRepoを生成する。
func NewPostgresReviewRepo(db *sql.DB) *PostgresReviewRepo {
	return &PostgresReviewRepo{db: db, now: time.Now}
}

// Create はレビューを作成する。
func (r *PostgresReviewRepo) Create(ctx context.Context, review *model.Review) error {
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	review.CreatedAt = r.now()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reviews (id, name, email, image, rating, comment, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		review.ID, review.Name, review.Email, review.Image, review.Rating, review.Comment, review.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// List は全レビューを新しい順に返す。
func (r *PostgresReviewRepo) List(ctx context.Context) ([]*model.Review, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, image, rating, comment, created_at
		 FROM reviews ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []*model.Review{}
	for rows.Next() {
		review := &model.Review{}
		if err := rows.Scan(&review.ID, &review.Name, &review.Email, &review.Image,
			&review.Rating, &review.Comment, &review.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reviews: %w", err)
	}
	return reviews, nil
}

var _ ReviewRepository = (*PostgresReviewRepo)(nil)
