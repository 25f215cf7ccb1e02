package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/summercamp/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	Upsert(ctx context.Context, email string, doc model.UserDocument) (*model.User, error)
	SetRole(ctx context.Context, id string, rawRole string) (*model.UpdateResult, error)
	Delete(ctx context.Context, id string) (*model.DeleteResult, error)
	List(ctx context.Context) ([]*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	ListByRole(ctx context.Context, rawRole string) ([]*model.User, error)
	ListInstructors(ctx context.Context) ([]*model.User, error)
	IsAdmin(ctx context.Context, caller model.Identity, email string) (bool, error)
	IsInstructor(ctx context.Context, caller model.Identity, email string) (bool, error)
}

// UserHandler はユーザーとロール管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// ListUsers は全ユーザーを返す。
// GET /all-users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// GetUser はemailで1ユーザーを返す。
// GET /single-user/{email}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.FindByEmail(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// ListByRole は指定ロールのユーザーを返す。
// GET /users/role/{role}, GET /users/{role}
func (h *UserHandler) ListByRole(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListByRole(r.Context(), chi.URLParam(r, "role"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// ListInstructors は講師ロールのユーザーを返す。
// GET /all-instructors
func (h *UserHandler) ListInstructors(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListInstructors(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// UpsertUser はemailをキーにユーザーを登録または更新する。
// PUT /users/{email}
func (h *UserHandler) UpsertUser(w http.ResponseWriter, r *http.Request) {
	var doc model.UserDocument
	if !decodeJSON(w, r, &doc) {
		return
	}

	u, err := h.service.Upsert(r.Context(), chi.URLParam(r, "email"), doc)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// IsAdmin は呼び出し元が管理者かを返す。
// GET /user-admin/{email}, GET /users/admin/{email}
func (h *UserHandler) IsAdmin(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	admin, err := h.service.IsAdmin(r.Context(), caller, chi.URLParam(r, "email"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"admin": admin})
}

// IsInstructor は呼び出し元が講師かを返す。
// GET /user-instructor/{email}
func (h *UserHandler) IsInstructor(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	instructor, err := h.service.IsInstructor(r.Context(), caller, chi.URLParam(r, "email"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"instructor": instructor})
}

// MakeAdmin は指定ユーザーを管理者にする。
// PATCH /make-admin/{id}
func (h *UserHandler) MakeAdmin(w http.ResponseWriter, r *http.Request) {
	h.setRole(w, r, string(model.RoleAdmin))
}

// MakeInstructor は指定ユーザーを講師にする。
// PATCH /make-instructor/{id}
func (h *UserHandler) MakeInstructor(w http.ResponseWriter, r *http.Request) {
	h.setRole(w, r, string(model.RoleInstructor))
}

type setRoleRequest struct {
	Role string `json:"role"`
}

// SetRole はボディで指定したロールを設定する。
// PATCH /set-role/{id}
func (h *UserHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	var req setRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.setRole(w, r, req.Role)
}

func (h *UserHandler) setRole(w http.ResponseWriter, r *http.Request, role string) {
	result, err := h.service.SetRole(r.Context(), chi.URLParam(r, "id"), role)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// DeleteUser は指定ユーザーを削除する。
// DELETE /delete-user/{id}, DELETE /users/{id}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
