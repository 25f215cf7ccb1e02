package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/summercamp/internal/model"
)

// UserFinder はロール判定に必要なユーザー検索インターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// RequireRole は呼び出し元が指定ロールを持つことを検査するチェックを返す。
// ロールはリクエストごとにストアから読み直し、キャッシュしない。
// 認証チェックの後に配置すること。
func RequireRole(finder UserFinder, role model.Role) Check {
	return func(r *http.Request) Decision {
		caller := mustCaller(r)

		user, err := finder.FindByEmail(r.Context(), caller.Email)
		if err != nil {
			slog.Error("failed to look up caller role",
				slog.String("error", err.Error()),
				slog.String("required_role", string(role)),
			)
			return Reject(http.StatusInternalServerError, model.NewInternalError())
		}
		if !user.HasRole(role) {
			return Reject(http.StatusForbidden, model.NewForbiddenError())
		}

		return Proceed(r.Context())
	}
}

// RequireSelf はURLパラメータのemailが呼び出し元と一致することを検査するチェックを返す。
func RequireSelf(param string) Check {
	return func(r *http.Request) Decision {
		caller := mustCaller(r)
		if chi.URLParam(r, param) != caller.Email {
			return Reject(http.StatusForbidden, model.NewForbiddenError())
		}
		return Proceed(r.Context())
	}
}
