// Package cart は受講生のカート操作のドメインロジックを提供する。
package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/hitoshi/summercamp/internal/model"
	"github.com/hitoshi/summercamp/internal/repository"
)

// ClassFinder はカート追加時のクラス存在確認インターフェース。
type ClassFinder interface {
	FindByID(ctx context.Context, id string) (*model.Class, error)
}

// Service はカート操作のサービス層。
// 全操作で呼び出し元とカートの所有者の一致を確認する。
type Service struct {
	cartRepo repository.CartRepository
	classes  ClassFinder
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(cartRepo repository.CartRepository, classes ClassFinder) *Service {
	return &Service{
		cartRepo: cartRepo,
		classes:  classes,
	}
}

// Add はカートにクラスを追加する。同じクラスの重複追加は許容する。
// student_emailが空の場合は呼び出し元で補い、他人のemailは拒否する。
// 表示用の項目が空の場合はクラス情報から補う。
func (s *Service) Add(ctx context.Context, caller model.Identity, entry model.CartEntry) (*model.InsertResult, error) {
	if entry.StudentEmail == "" {
		entry.StudentEmail = caller.Email
	}
	if entry.StudentEmail != caller.Email {
		return nil, model.NewForbiddenError()
	}
	entry.ClassID = strings.TrimSpace(entry.ClassID)
	if entry.ClassID == "" {
		return nil, model.NewInvalidArgumentError("class_id", entry.ClassID)
	}
	if entry.Price < 0 {
		return nil, model.NewInvalidArgumentError("price", entry.Price)
	}

	class, err := s.classes.FindByID(ctx, entry.ClassID)
	if err != nil {
		return nil, fmt.Errorf("クラスの取得に失敗しました: %w", err)
	}
	if class == nil {
		return nil, model.NewClassNotFoundError(entry.ClassID)
	}
	fillFromClass(&entry, class)

	entry.ID = ""
	if err := s.cartRepo.Create(ctx, &entry); err != nil {
		return nil, fmt.Errorf("カートへの追加に失敗しました: %w", err)
	}
	return model.Inserted(entry.ID), nil
}

func fillFromClass(entry *model.CartEntry, class *model.Class) {
	if entry.Name == "" {
		entry.Name = class.Name
	}
	if entry.Image == "" {
		entry.Image = class.Image
	}
	if entry.InstructorName == "" {
		entry.InstructorName = class.InstructorName
	}
	if entry.InstructorEmail == "" {
		entry.InstructorEmail = class.InstructorEmail
	}
	if entry.Price == 0 {
		entry.Price = class.Price
	}
}

// Remove は呼び出し元のカートエントリを削除する。
func (s *Service) Remove(ctx context.Context, caller model.Identity, id string) (*model.DeleteResult, error) {
	if _, err := s.Get(ctx, caller, id); err != nil {
		return nil, err
	}

	deleted, err := s.cartRepo.DeleteByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("カートエントリの削除に失敗しました: %w", err)
	}
	return model.Deleted(deleted), nil
}

// Get は呼び出し元のカートエントリを返す。他人のエントリは403とする。
func (s *Service) Get(ctx context.Context, caller model.Identity, id string) (*model.CartEntry, error) {
	entry, err := s.cartRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("カートエントリの取得に失敗しました: %w", err)
	}
	if entry == nil {
		return nil, model.NewCartEntryNotFoundError(id)
	}
	if entry.StudentEmail != caller.Email {
		return nil, model.NewForbiddenError()
	}
	return entry, nil
}

// ListByStudent は受講生のカートエントリ一覧を返す。
func (s *Service) ListByStudent(ctx context.Context, email string) ([]*model.CartEntry, error) {
	entries, err := s.cartRepo.ListByStudent(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("カートの取得に失敗しました: %w", err)
	}
	return entries, nil
}
