// Package review は受講生レビューのドメインロジックを提供する。
package review

import (
	"context"
	"fmt"

	"github.com/hitoshi/summercamp/internal/model"
	"github.com/hitoshi/summercamp/internal/repository"
)

// TextSanitizer はレビュー本文のサニタイズインターフェース。
type TextSanitizer interface {
	SanitizePlainText(raw string) string
}

// Service はレビューのサービス層。
type Service struct {
	reviewRepo repository.ReviewRepository
	sanitizer  TextSanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(reviewRepo repository.ReviewRepository, sanitizer TextSanitizer) *Service {
	return &Service{reviewRepo: reviewRepo, sanitizer: sanitizer}
}

// Give はレビューを投稿する。投稿者emailは呼び出し元で上書きする。
func (s *Service) Give(ctx context.Context, caller model.Identity, review model.Review) (*model.InsertResult, error) {
	if review.Rating < 1 || review.Rating > 5 {
		return nil, model.NewInvalidArgumentError("rating", review.Rating)
	}
	review.Comment = s.sanitizer.SanitizePlainText(review.Comment)
	if review.Comment == "" {
		return nil, model.NewInvalidArgumentError("comment", review.Comment)
	}

	review.ID = ""
	review.Email = caller.Email
	review.Name = s.sanitizer.SanitizePlainText(review.Name)
	if review.Name == "" {
		review.Name = caller.Name
	}

	if err := s.reviewRepo.Create(ctx, &review); err != nil {
		return nil, fmt.Errorf("レビューの投稿に失敗しました: %w", err)
	}
	return model.Inserted(review.ID), nil
}

// List は全レビューを新しい順に返す。
func (s *Service) List(ctx context.Context) ([]*model.Review, error) {
	reviews, err := s.reviewRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("レビュー一覧の取得に失敗しました: %w", err)
	}
	return reviews, nil
}
