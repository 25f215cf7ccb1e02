package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/summercamp/internal/model"
	"github.com/hitoshi/summercamp/internal/payment"
)

// PaymentServiceInterface は決済ハンドラーが必要とするサービスインターフェース。
type PaymentServiceInterface interface {
	CreateIntent(ctx context.Context, price *float64) (*payment.IntentResult, error)
	Settle(ctx context.Context, caller model.Identity, p model.Payment) (*model.SettlementResult, error)
	History(ctx context.Context, caller model.Identity, email string) ([]*model.Payment, error)
}

// PaymentHandler は決済のHTTPハンドラー。
type PaymentHandler struct {
	service PaymentServiceInterface
}

// NewPaymentHandler はPaymentHandlerを生成する。
func NewPaymentHandler(service PaymentServiceInterface) *PaymentHandler {
	return &PaymentHandler{service: service}
}

type paymentIntentRequest struct {
	Price *float64 `json:"price"`
}

// CreatePaymentIntent は価格に対する決済インテントを作成する。
// POST /create-payment-intent
func (h *PaymentHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req paymentIntentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.CreateIntent(r.Context(), req.Price)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SettlePayment は決済記録を保存し、購入したカートエントリを削除する。
// POST /payments
func (h *PaymentHandler) SettlePayment(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var p model.Payment
	if !decodeJSON(w, r, &p) {
		return
	}

	result, err := h.service.Settle(r.Context(), caller, p)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// PaymentHistory は決済履歴を返す。
// GET /payments?email=
func (h *PaymentHandler) PaymentHistory(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	payments, err := h.service.History(r.Context(), caller, r.URL.Query().Get("email"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}
