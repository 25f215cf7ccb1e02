package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/summercamp/internal/model"
)

// ReviewServiceInterface はレビューハンドラーが必要とするサービスインターフェース。
type ReviewServiceInterface interface {
	Give(ctx context.Context, caller model.Identity, review model.Review) (*model.InsertResult, error)
	List(ctx context.Context) ([]*model.Review, error)
}

// ReviewHandler はレビューのHTTPハンドラー。
type ReviewHandler struct {
	service ReviewServiceInterface
}

// NewReviewHandler はReviewHandlerを生成する。
func NewReviewHandler(service ReviewServiceInterface) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// GiveReview はレビューを投稿する。
// POST /give-review
func (h *ReviewHandler) GiveReview(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var review model.Review
	if !decodeJSON(w, r, &review) {
		return
	}

	result, err := h.service.Give(r.Context(), caller, review)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListReviews は全レビューを新しい順に返す。
// GET /user-review
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}
