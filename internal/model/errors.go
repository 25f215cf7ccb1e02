// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, cart, payment, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthenticated   = "UNAUTHENTICATED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeInvalidArgument   = "INVALID_ARGUMENT"
	ErrCodeInvalidRole       = "INVALID_ROLE"
	ErrCodeUserNotFound      = "USER_NOT_FOUND"
	ErrCodeClassNotFound     = "CLASS_NOT_FOUND"
	ErrCodeCartEntryNotFound = "CART_ENTRY_NOT_FOUND"
	ErrCodeUpstreamFailure   = "UPSTREAM_FAILURE"
	ErrCodeRateLimited       = "RATE_LIMITED"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// NewUnauthenticatedError は認証失敗エラーを生成する。
// トークンの欠落・不正・期限切れを区別せずに返す。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  "Unauthorized Access",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "Forbidden Access",
		Category: "auth",
		Action:   "この操作を行う権限がありません。",
	}
}

// NewInvalidRequestError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewInvalidArgumentError は必須項目の欠落や範囲外の値を表すエラーを生成する。
func NewInvalidArgumentError(field string, value any) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidArgument,
		Message:  fmt.Sprintf("無効な値です: %s=%v", field, value),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewInvalidRoleError は許可されていないロール値のエラーを生成する。
func NewInvalidRoleError(role string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRole,
		Message:  fmt.Sprintf("無効なロールです: %s", role),
		Category: "validation",
		Action:   "ロールには student、instructor、admin のいずれかを指定してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewClassNotFoundError はクラスが見つからない場合のエラーを生成する。
func NewClassNotFoundError(classID string) *APIError {
	return &APIError{
		Code:     ErrCodeClassNotFound,
		Message:  fmt.Sprintf("指定されたクラスが見つかりません: %s", classID),
		Category: "class",
		Action:   "クラスIDを確認してください。",
	}
}

// NewCartEntryNotFoundError はカートエントリが見つからない場合のエラーを生成する。
func NewCartEntryNotFoundError(entryID string) *APIError {
	return &APIError{
		Code:     ErrCodeCartEntryNotFound,
		Message:  fmt.Sprintf("指定されたカートエントリが見つかりません: %s", entryID),
		Category: "cart",
		Action:   "カートの内容を再読み込みしてください。",
	}
}

// NewUpstreamFailureError は決済プロバイダー呼び出しの失敗エラーを生成する。
func NewUpstreamFailureError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamFailure,
		Message:  fmt.Sprintf("外部サービスの呼び出しに失敗しました: %s", reason),
		Category: "payment",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "Too many requests. Please try again later.",
		Category: "system",
		Action:   "Retry-Afterの秒数だけ待ってから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログのみに記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
