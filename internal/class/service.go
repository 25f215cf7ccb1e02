// Package class は講師が開講するクラスのドメインロジックを提供する。
package class

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/summercamp/internal/model"
	"github.com/hitoshi/summercamp/internal/repository"
)

// URLValidator は外部URLの事前検証インターフェース。
type URLValidator interface {
	ValidateURL(rawURL string) error
}

// Sanitizer はクラス情報のサニタイズインターフェース。
type Sanitizer interface {
	SanitizeRichText(raw string) string
	SanitizePlainText(raw string) string
}

// Service はクラス管理のサービス層。
type Service struct {
	classRepo repository.ClassRepository
	urls      URLValidator
	sanitizer Sanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(classRepo repository.ClassRepository, urls URLValidator, sanitizer Sanitizer) *Service {
	return &Service{
		classRepo: classRepo,
		urls:      urls,
		sanitizer: sanitizer,
	}
}

// Create は講師のクラスを登録する。
// 講師emailは呼び出し元で上書きし、審査状態は常にpendingから始まる。
func (s *Service) Create(ctx context.Context, caller model.Identity, class model.Class) (*model.InsertResult, error) {
	class.Name = s.sanitizer.SanitizePlainText(class.Name)
	if class.Name == "" {
		return nil, model.NewInvalidArgumentError("name", class.Name)
	}
	if class.Price < 0 {
		return nil, model.NewInvalidArgumentError("price", class.Price)
	}
	if class.AvailableSeat < 0 {
		return nil, model.NewInvalidArgumentError("available_seat", class.AvailableSeat)
	}
	class.Image = strings.TrimSpace(class.Image)
	if class.Image != "" {
		if err := s.urls.ValidateURL(class.Image); err != nil {
			slog.Warn("rejected class image URL",
				slog.String("url", class.Image),
				slog.String("reason", err.Error()),
			)
			return nil, model.NewInvalidArgumentError("image", class.Image)
		}
	}

	class.ID = ""
	class.InstructorEmail = caller.Email
	class.InstructorName = s.sanitizer.SanitizePlainText(class.InstructorName)
	if class.InstructorName == "" {
		class.InstructorName = caller.Name
	}
	class.Description = s.sanitizer.SanitizeRichText(class.Description)
	class.Status = model.ClassStatusPending

	if err := s.classRepo.Create(ctx, &class); err != nil {
		return nil, fmt.Errorf("クラスの登録に失敗しました: %w", err)
	}

	slog.Info("class created",
		slog.String("class_id", class.ID),
		slog.String("instructor", class.InstructorEmail),
	)
	return model.Inserted(class.ID), nil
}

// List は全クラスを空席数の降順で返す。
func (s *Service) List(ctx context.Context) ([]*model.Class, error) {
	classes, err := s.classRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("クラス一覧の取得に失敗しました: %w", err)
	}
	return classes, nil
}

// ListByInstructor は講師のクラス一覧を返す。
func (s *Service) ListByInstructor(ctx context.Context, email string) ([]*model.Class, error) {
	classes, err := s.classRepo.ListByInstructor(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("クラス一覧の取得に失敗しました: %w", err)
	}
	return classes, nil
}

// Get は指定IDのクラスを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Class, error) {
	class, err := s.classRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("クラスの取得に失敗しました: %w", err)
	}
	if class == nil {
		return nil, model.NewClassNotFoundError(id)
	}
	return class, nil
}

// UpdateStatus はクラスの審査状態と空席数を更新する。
func (s *Service) UpdateStatus(ctx context.Context, id string, rawStatus string, availableSeat int) (*model.UpdateResult, error) {
	status, err := model.ParseClassStatus(rawStatus)
	if err != nil {
		return nil, err
	}
	if availableSeat < 0 {
		return nil, model.NewInvalidArgumentError("available_seat", availableSeat)
	}

	updated, err := s.classRepo.UpdateStatus(ctx, id, status, availableSeat)
	if err != nil {
		return nil, fmt.Errorf("クラスの更新に失敗しました: %w", err)
	}
	if !updated {
		return nil, model.NewClassNotFoundError(id)
	}

	slog.Info("class status changed",
		slog.String("class_id", id),
		slog.String("status", string(status)),
		slog.Int("available_seat", availableSeat),
	)
	return model.Updated(), nil
}
