package middleware

import (
	"context"
	"net/http"

	"github.com/hitoshi/summercamp/internal/model"
)

// Decision はチェックの判定結果。ProceedかRejectのいずれか。
type Decision struct {
	ctx    context.Context
	status int
	err    *model.APIError
}

// Proceed は次のチェックへ進む判定を返す。
// ctxは後続のチェックとハンドラーに引き継がれる。
func Proceed(ctx context.Context) Decision {
	return Decision{ctx: ctx}
}

// Reject はリクエストを打ち切る判定を返す。
func Reject(status int, apiErr *model.APIError) Decision {
	return Decision{status: status, err: apiErr}
}

// Rejected は打ち切り判定かどうかを返す。
func (d Decision) Rejected() bool {
	return d.err != nil
}

// Status は打ち切り時のHTTPステータスを返す。
func (d Decision) Status() int {
	return d.status
}

// Err は打ち切り時のエラーを返す。
func (d Decision) Err() *model.APIError {
	return d.err
}

// Check はリクエストを検査して判定を返す。
type Check func(r *http.Request) Decision

// RejectObserver は打ち切りを観測するフック。メトリクス記録に使う。
type RejectObserver func(code string)

// Gate はチェックを左から順に適用するミドルウェアを返す。
// 最初のRejectで打ち切り、以降のチェックとハンドラーは実行しない。
func Gate(checks ...Check) func(next http.Handler) http.Handler {
	return ObservedGate(nil, checks...)
}

// ObservedGate はGateに打ち切りの観測フックを付けたもの。
func ObservedGate(observe RejectObserver, checks ...Check) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, check := range checks {
				d := check(r)
				if d.Rejected() {
					if observe != nil {
						observe(d.err.Code)
					}
					WriteErrorResponse(w, d.status, d.err)
					return
				}
				if d.ctx != nil {
					r = r.WithContext(d.ctx)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
