package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/summercamp/internal/model"
)

// ClassServiceInterface はクラスハンドラーが必要とするサービスインターフェース。
type ClassServiceInterface interface {
	Create(ctx context.Context, caller model.Identity, class model.Class) (*model.InsertResult, error)
	List(ctx context.Context) ([]*model.Class, error)
	ListByInstructor(ctx context.Context, email string) ([]*model.Class, error)
	Get(ctx context.Context, id string) (*model.Class, error)
	UpdateStatus(ctx context.Context, id string, rawStatus string, availableSeat int) (*model.UpdateResult, error)
}

// ClassHandler はクラスのHTTPハンドラー。
type ClassHandler struct {
	service ClassServiceInterface
}

// NewClassHandler はClassHandlerを生成する。
func NewClassHandler(service ClassServiceInterface) *ClassHandler {
	return &ClassHandler{service: service}
}

// ListClasses は全クラスを空席数の多い順に返す。
// GET /classes
func (h *ClassHandler) ListClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, classes)
}

// GetClass はクラス詳細を返す。
// GET /classes/{id}
func (h *ClassHandler) GetClass(w http.ResponseWriter, r *http.Request) {
	class, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, class)
}

// MyClasses は講師自身のクラス一覧を返す。
// GET /my-classes/{email}
func (h *ClassHandler) MyClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := h.service.ListByInstructor(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, classes)
}

// CreateClass はクラスを審査待ちとして登録する。
// POST /add-class
func (h *ClassHandler) CreateClass(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var class model.Class
	if !decodeJSON(w, r, &class) {
		return
	}

	result, err := h.service.Create(r.Context(), caller, class)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type updateClassRequest struct {
	Status        string `json:"status"`
	AvailableSeat *int   `json:"available_seat"`
}

// UpdateClass はクラスの審査状態と空席数を更新する。
// PATCH /update-class/{id}
func (h *ClassHandler) UpdateClass(w http.ResponseWriter, r *http.Request) {
	var req updateClassRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.AvailableSeat == nil {
		handleServiceError(w, model.NewInvalidArgumentError("available_seat", "<absent>"))
		return
	}

	result, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status, *req.AvailableSeat)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
