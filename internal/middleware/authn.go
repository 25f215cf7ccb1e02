package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/hitoshi/summercamp/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// callerContextKey はリクエストコンテキストに呼び出し元の識別情報を格納するためのキー。
var callerContextKey = contextKey("caller")

// TokenVerifier はアクセストークンの検証に必要なインターフェース。
type TokenVerifier interface {
	Verify(token string) (model.Identity, error)
}

// Authenticate はAuthorizationヘッダーのBearerトークンを検証するチェックを返す。
// ヘッダーの欠落・形式不正・検証失敗はいずれも401とする。
// ロールの参照は行わない。
func Authenticate(verifier TokenVerifier) Check {
	return func(r *http.Request) Decision {
		header := r.Header.Get("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return Reject(http.StatusUnauthorized, model.NewUnauthenticatedError())
		}

		identity, err := verifier.Verify(token)
		if err != nil {
			return Reject(http.StatusUnauthorized, model.NewUnauthenticatedError())
		}

		annotateCaller(r.Context(), identity.Email)
		return Proceed(ContextWithCaller(r.Context(), identity))
	}
}

// CallerFromContext はリクエストコンテキストから呼び出し元を取得する。
// 認証チェックを通過したリクエストでのみ有効。
func CallerFromContext(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(callerContextKey).(model.Identity)
	if !ok || identity.Email == "" {
		return model.Identity{}, false
	}
	return identity, true
}

// ContextWithCaller はコンテキストに呼び出し元を注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithCaller(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, callerContextKey, identity)
}

// mustCaller は呼び出し元を取得する。認証チェックより前に配置された場合はpanicする。
func mustCaller(r *http.Request) model.Identity {
	caller, ok := CallerFromContext(r.Context())
	if !ok {
		panic("middleware: authorization check placed before authentication")
	}
	return caller
}
