// Package user はユーザーとロール管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/summercamp/internal/model"
	"github.com/hitoshi/summercamp/internal/repository"
)

// TextSanitizer はプレーンテキスト項目のサニタイズインターフェース。
type TextSanitizer interface {
	SanitizePlainText(raw string) string
}

// Service はユーザー管理のサービス層。
// ロールの変更はSetRoleのみで行い、Upsertではロールを変更しない。
type Service struct {
	userRepo  repository.UserRepository
	sanitizer TextSanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository, sanitizer TextSanitizer) *Service {
	return &Service{
		userRepo:  userRepo,
		sanitizer: sanitizer,
	}
}

// Upsert はログインごとに呼ばれるアカウント登録処理。
// emailのユーザーがいなければ作成し、いれば空でない項目のみ上書きする。
func (s *Service) Upsert(ctx context.Context, email string, doc model.UserDocument) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, model.NewInvalidArgumentError("email", email)
	}
	doc.Name = s.sanitizer.SanitizePlainText(doc.Name)
	doc.PhotoURL = strings.TrimSpace(doc.PhotoURL)

	user, err := s.userRepo.Upsert(ctx, email, doc)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの登録に失敗しました: %w", err)
	}
	return user, nil
}

// SetRole は指定ユーザーのロールを上書きする。
// ロールは student、instructor、admin のいずれかに限る。
func (s *Service) SetRole(ctx context.Context, id string, rawRole string) (*model.UpdateResult, error) {
	role, err := model.ParseRole(rawRole)
	if err != nil {
		return nil, err
	}

	updated, err := s.userRepo.UpdateRole(ctx, id, role)
	if err != nil {
		return nil, fmt.Errorf("ロールの更新に失敗しました: %w", err)
	}
	if !updated {
		return nil, model.NewUserNotFoundError()
	}

	slog.Info("user role changed",
		slog.String("user_id", id),
		slog.String("role", string(role)),
	)
	return model.Updated(), nil
}

// Delete はユーザーを削除する。
func (s *Service) Delete(ctx context.Context, id string) (*model.DeleteResult, error) {
	deleted, err := s.userRepo.DeleteByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}
	if !deleted {
		return nil, model.NewUserNotFoundError()
	}

	slog.Info("user deleted", slog.String("user_id", id))
	return model.Deleted(1), nil
}

// List は全ユーザーを返す。
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	return users, nil
}

// FindByEmail はemailでユーザーを取得する。
func (s *Service) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// ListByRole は指定ロールのユーザー一覧を返す。
func (s *Service) ListByRole(ctx context.Context, rawRole string) ([]*model.User, error) {
	role, err := model.ParseRole(rawRole)
	if err != nil {
		return nil, err
	}
	users, err := s.userRepo.ListByRole(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	return users, nil
}

// ListInstructors は講師一覧を返す。
func (s *Service) ListInstructors(ctx context.Context) ([]*model.User, error) {
	return s.ListByRole(ctx, string(model.RoleInstructor))
}

// IsAdmin は呼び出し元自身が管理者かどうかを返す。
// 問い合わせ対象のemailが呼び出し元と異なる場合は常にfalse。
func (s *Service) IsAdmin(ctx context.Context, caller model.Identity, email string) (bool, error) {
	return s.callerHasRole(ctx, caller, email, model.RoleAdmin)
}

// IsInstructor は呼び出し元自身が講師かどうかを返す。
func (s *Service) IsInstructor(ctx context.Context, caller model.Identity, email string) (bool, error) {
	return s.callerHasRole(ctx, caller, email, model.RoleInstructor)
}

func (s *Service) callerHasRole(ctx context.Context, caller model.Identity, email string, role model.Role) (bool, error) {
	if email != caller.Email {
		return false, nil
	}
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	return user.HasRole(role), nil
}
