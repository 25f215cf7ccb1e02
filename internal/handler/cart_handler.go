package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/summercamp/internal/model"
)

// CartServiceInterface はカートハンドラーが必要とするサービスインターフェース。
type CartServiceInterface interface {
	Add(ctx context.Context, caller model.Identity, entry model.CartEntry) (*model.InsertResult, error)
	Remove(ctx context.Context, caller model.Identity, id string) (*model.DeleteResult, error)
	Get(ctx context.Context, caller model.Identity, id string) (*model.CartEntry, error)
	ListByStudent(ctx context.Context, email string) ([]*model.CartEntry, error)
}

// CartHandler はカートのHTTPハンドラー。
type CartHandler struct {
	service CartServiceInterface
}

// NewCartHandler はCartHandlerを生成する。
func NewCartHandler(service CartServiceInterface) *CartHandler {
	return &CartHandler{service: service}
}

// GetCart は受講生のカートを返す。
// GET /get-cart/{email}
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.listCart(w, r, chi.URLParam(r, "email"))
}

// MyCart は呼び出し元のカートを返す。
// GET /carts
func (h *CartHandler) MyCart(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	h.listCart(w, r, caller.Email)
}

func (h *CartHandler) listCart(w http.ResponseWriter, r *http.Request, email string) {
	entries, err := h.service.ListByStudent(r.Context(), email)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// GetCartItem はカートエントリ1件を返す。
// GET /cart-item/{id}
func (h *CartHandler) GetCartItem(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	entry, err := h.service.Get(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// AddToCart はカートにクラスを追加する。
// POST /carts
func (h *CartHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var entry model.CartEntry
	if !decodeJSON(w, r, &entry) {
		return
	}

	result, err := h.service.Add(r.Context(), caller, entry)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// RemoveFromCart はカートエントリを削除する。
// DELETE /carts/{id}
func (h *CartHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	result, err := h.service.Remove(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
