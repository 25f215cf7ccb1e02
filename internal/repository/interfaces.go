// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/summercamp/internal/model"
)

// UserRepository はユーザーとロールの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はemailでユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// List は全ユーザーを作成日時の昇順で返す。
	List(ctx context.Context) ([]*model.User, error)

	// ListByRole は指定ロールのユーザー一覧を返す。
	ListByRole(ctx context.Context, role model.Role) ([]*model.User, error)

	// Upsert はemailをキーにユーザーを作成または更新する。
	// 空のフィールドは既存値を上書きしない。roleは変更しない。
	Upsert(ctx context.Context, email string, doc model.UserDocument) (*model.User, error)

	// UpdateRole は指定IDのユーザーのロールを上書きする。
	// 該当ユーザーがいない場合はfalseを返す。
	UpdateRole(ctx context.Context, id string, role model.Role) (bool, error)

	// DeleteByID は指定IDのユーザーを削除する。
	// 該当ユーザーがいない場合はfalseを返す。
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// ClassRepository はクラスの永続化インターフェース。
type ClassRepository interface {
	// Create はクラスを作成する。
	Create(ctx context.Context, class *model.Class) error

	// FindByID は指定IDのクラスを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Class, error)

	// List は全クラスを空席数の降順で返す。
	List(ctx context.Context) ([]*model.Class, error)

	// ListByInstructor は講師emailでクラス一覧を返す。
	ListByInstructor(ctx context.Context, email string) ([]*model.Class, error)

	// UpdateStatus はクラスの審査状態と空席数を更新する。
	// 該当クラスがいない場合はfalseを返す。
	UpdateStatus(ctx context.Context, id string, status model.ClassStatus, availableSeat int) (bool, error)
}

// CartRepository はカートエントリの永続化インターフェース。
type CartRepository interface {
	// Create はカートエントリを作成する。重複チェックは行わない。
	Create(ctx context.Context, entry *model.CartEntry) error

	// FindByID は指定IDのカートエントリを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.CartEntry, error)

	// ListByStudent は受講生emailでカートエントリ一覧を返す。
	ListByStudent(ctx context.Context, email string) ([]*model.CartEntry, error)

	// DeleteByID は指定IDのカートエントリを削除し、削除件数を返す。
	DeleteByID(ctx context.Context, id string) (int64, error)
}

// PaymentRepository は決済記録の永続化インターフェース。
type PaymentRepository interface {
	// Settle は決済記録の挿入とカートエントリの削除を同一トランザクションで行う。
	// カートエントリは payment.CartEntryID かつ student_email = payment.Email で特定する。
	// 挿入に失敗した場合はロールバックし、カートエントリは残る。
	Settle(ctx context.Context, payment *model.Payment) (*model.SettlementResult, error)

	// ListByEmail は指定emailの決済履歴を新しい順に返す。
	ListByEmail(ctx context.Context, email string) ([]*model.Payment, error)
}

// ReviewRepository はレビューの永続化インターフェース。
type ReviewRepository interface {
	// Create はレビューを作成する。
	Create(ctx context.Context, review *model.Review) error

	// List は全レビューを新しい順に返す。
	List(ctx context.Context) ([]*model.Review, error)
}
