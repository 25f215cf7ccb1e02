package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/summercamp/internal/middleware"
	"github.com/hitoshi/summercamp/internal/model"
	"github.com/hitoshi/summercamp/internal/payment"
)

// --- モック定義 ---

type mockTokenIssuer struct {
	issueFn func(identity model.Identity) (string, error)
}

func (m *mockTokenIssuer) Issue(identity model.Identity) (string, error) {
	return m.issueFn(identity)
}

type mockUserService struct {
	upsertFn          func(ctx context.Context, email string, doc model.UserDocument) (*model.User, error)
	setRoleFn         func(ctx context.Context, id, rawRole string) (*model.UpdateResult, error)
	deleteFn          func(ctx context.Context, id string) (*model.DeleteResult, error)
	listFn            func(ctx context.Context) ([]*model.User, error)
	findByEmailFn     func(ctx context.Context, email string) (*model.User, error)
	listByRoleFn      func(ctx context.Context, rawRole string) ([]*model.User, error)
	listInstructorsFn func(ctx context.Context) ([]*model.User, error)
	isAdminFn         func(ctx context.Context, caller model.Identity, email string) (bool, error)
	isInstructorFn    func(ctx context.Context, caller model.Identity, email string) (bool, error)
}

func (m *mockUserService) Upsert(ctx context.Context, email string, doc model.UserDocument) (*model.User, error) {
	return m.upsertFn(ctx, email, doc)
}

func (m *mockUserService) SetRole(ctx context.Context, id, rawRole string) (*model.UpdateResult, error) {
	return m.setRoleFn(ctx, id, rawRole)
}

func (m *mockUserService) Delete(ctx context.Context, id string) (*model.DeleteResult, error) {
	return m.deleteFn(ctx, id)
}

func (m *mockUserService) List(ctx context.Context) ([]*model.User, error) {
	return m.listFn(ctx)
}

func (m *mockUserService) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.findByEmailFn(ctx, email)
}

func (m *mockUserService) ListByRole(ctx context.Context, rawRole string) ([]*model.User, error) {
	return m.listByRoleFn(ctx, rawRole)
}

func (m *mockUserService) ListInstructors(ctx context.Context) ([]*model.User, error) {
	return m.listInstructorsFn(ctx)
}

func (m *mockUserService) IsAdmin(ctx context.Context, caller model.Identity, email string) (bool, error) {
	return m.isAdminFn(ctx, caller, email)
}

func (m *mockUserService) IsInstructor(ctx context.Context, caller model.Identity, email string) (bool, error) {
	return m.isInstructorFn(ctx, caller, email)
}

type mockClassService struct {
	createFn           func(ctx context.Context, caller model.Identity, class model.Class) (*model.InsertResult, error)
	listFn             func(ctx context.Context) ([]*model.Class, error)
	listByInstructorFn func(ctx context.Context, email string) ([]*model.Class, error)
	getFn              func(ctx context.Context, id string) (*model.Class, error)
	updateStatusFn     func(ctx context.Context, id, rawStatus string, seat int) (*model.UpdateResult, error)
}

func (m *mockClassService) Create(ctx context.Context, caller model.Identity, class model.Class) (*model.InsertResult, error) {
	return m.createFn(ctx, caller, class)
}

func (m *mockClassService) List(ctx context.Context) ([]*model.Class, error) {
	return m.listFn(ctx)
}

func (m *mockClassService) ListByInstructor(ctx context.Context, email string) ([]*model.Class, error) {
	return m.listByInstructorFn(ctx, email)
}

func (m *mockClassService) Get(ctx context.Context, id string) (*model.Class, error) {
	return m.getFn(ctx, id)
}

func (m *mockClassService) UpdateStatus(ctx context.Context, id, rawStatus string, seat int) (*model.UpdateResult, error) {
	return m.updateStatusFn(ctx, id, rawStatus, seat)
}

type mockCartService struct {
	addFn           func(ctx context.Context, caller model.Identity, entry model.CartEntry) (*model.InsertResult, error)
	removeFn        func(ctx context.Context, caller model.Identity, id string) (*model.DeleteResult, error)
	getFn           func(ctx context.Context, caller model.Identity, id string) (*model.CartEntry, error)
	listByStudentFn func(ctx context.Context, email string) ([]*model.CartEntry, error)
}

func (m *mockCartService) Add(ctx context.Context, caller model.Identity, entry model.CartEntry) (*model.InsertResult, error) {
	return m.addFn(ctx, caller, entry)
}

func (m *mockCartService) Remove(ctx context.Context, caller model.Identity, id string) (*model.DeleteResult, error) {
	return m.removeFn(ctx, caller, id)
}

func (m *mockCartService) Get(ctx context.Context, caller model.Identity, id string) (*model.CartEntry, error) {
	return m.getFn(ctx, caller, id)
}

func (m *mockCartService) ListByStudent(ctx context.Context, email string) ([]*model.CartEntry, error) {
	return m.listByStudentFn(ctx, email)
}

type mockPaymentService struct {
	createIntentFn func(ctx context.Context, price *float64) (*payment.IntentResult, error)
	settleFn       func(ctx context.Context, caller model.Identity, p model.Payment) (*model.SettlementResult, error)
	historyFn      func(ctx context.Context, caller model.Identity, email string) ([]*model.Payment, error)
}

func (m *mockPaymentService) CreateIntent(ctx context.Context, price *float64) (*payment.IntentResult, error) {
	return m.createIntentFn(ctx, price)
}

func (m *mockPaymentService) Settle(ctx context.Context, caller model.Identity, p model.Payment) (*model.SettlementResult, error) {
	return m.settleFn(ctx, caller, p)
}

func (m *mockPaymentService) History(ctx context.Context, caller model.Identity, email string) ([]*model.Payment, error) {
	return m.historyFn(ctx, caller, email)
}

type mockReviewService struct {
	giveFn func(ctx context.Context, caller model.Identity, review model.Review) (*model.InsertResult, error)
	listFn func(ctx context.Context) ([]*model.Review, error)
}

func (m *mockReviewService) Give(ctx context.Context, caller model.Identity, review model.Review) (*model.InsertResult, error) {
	return m.giveFn(ctx, caller, review)
}

func (m *mockReviewService) List(ctx context.Context) ([]*model.Review, error) {
	return m.listFn(ctx)
}

// --- テストヘルパー ---

var testCaller = model.Identity{Email: "s@example.com", Name: "Sam"}

// newRequest はJSONボディ付きのリクエストを生成する。
// callerが空でなければ認証済みとしてコンテキストに格納する。
func newRequest(method, target string, body any, caller model.Identity) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if caller.Email != "" {
		req = req.WithContext(middleware.ContextWithCaller(req.Context(), caller))
	}
	return req
}

// withURLParams はchiのURLパラメータをリクエストに設定する。
func withURLParams(req *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response body: %v\nraw: %s", err, w.Body.String())
	}
	return v
}

func assertErrorCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Errorf("status = %d, want %d (body: %s)", w.Code, status, w.Body.String())
	}
	body := decodeBody[middleware.ErrorResponseBody](t, w)
	if body.Code != code {
		t.Errorf("code = %q, want %q", body.Code, code)
	}
}
