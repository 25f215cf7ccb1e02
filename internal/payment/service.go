// Package payment は決済インテントの作成と決済確定のドメインロジックを提供する。
package payment

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/summercamp/internal/metrics"
	"github.com/hitoshi/summercamp/internal/model"
	"github.com/hitoshi/summercamp/internal/repository"
)

// Recorder は決済関連のメトリクス記録インターフェース。
type Recorder interface {
	RecordPaymentIntent(outcome string, duration time.Duration)
	RecordSettlement(outcome string)
}

// Config は決済サービスの設定。
type Config struct {
	Currency string        // 既定 "usd"
	Timeout  time.Duration // プロバイダー呼び出しのタイムアウト
}

// IntentResult はクライアントに返す決済インテント情報。
type IntentResult struct {
	ClientSecret string `json:"clientSecret"`
}

// Service は決済のサービス層。
type Service struct {
	paymentRepo repository.PaymentRepository
	provider    Provider
	recorder    Recorder
	config      Config
	newKey      func() string
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(paymentRepo repository.PaymentRepository, provider Provider, recorder Recorder, config Config) *Service {
	if config.Currency == "" {
		config.Currency = "usd"
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if recorder == nil {
		recorder = metrics.NopCollector{}
	}
	return &Service{
		paymentRepo: paymentRepo,
		provider:    provider,
		recorder:    recorder,
		config:      config,
		newKey:      func() string { return uuid.New().String() },
	}
}

// ToMinorUnits は価格を最小通貨単位に変換する（round(price*100)）。
func ToMinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}

// CreateIntent は価格に対する決済インテントを作成し、client secretを返す。
// 価格が未指定または0以下の場合はプロバイダーを呼び出さない。
func (s *Service) CreateIntent(ctx context.Context, price *float64) (*IntentResult, error) {
	if price == nil || *price <= 0 || math.IsNaN(*price) || math.IsInf(*price, 0) {
		s.recorder.RecordPaymentIntent(metrics.IntentInvalidArgument, 0)
		return nil, model.NewInvalidArgumentError("price", describePrice(price))
	}
	amount := ToMinorUnits(*price)
	if amount <= 0 {
		s.recorder.RecordPaymentIntent(metrics.IntentInvalidArgument, 0)
		return nil, model.NewInvalidArgumentError("price", *price)
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()
	secret, err := s.provider.CreateIntent(ctx, IntentRequest{
		Amount:         amount,
		Currency:       s.config.Currency,
		IdempotencyKey: s.newKey(),
	})
	elapsed := time.Since(start)
	if err != nil {
		s.recorder.RecordPaymentIntent(metrics.IntentUpstreamFailure, elapsed)
		slog.Error("payment intent creation failed",
			slog.Int64("amount", amount),
			slog.String("error", err.Error()),
		)
		return nil, model.NewUpstreamFailureError("payment provider")
	}

	s.recorder.RecordPaymentIntent(metrics.IntentCreated, elapsed)
	return &IntentResult{ClientSecret: secret}, nil
}

func describePrice(price *float64) any {
	if price == nil {
		return "<absent>"
	}
	return *price
}

// Settle は決済記録を保存し、対応するカートエントリを同一トランザクションで削除する。
// カートエントリは cart_entry_id で指定する。未指定の場合は旧形式の _id を使う。
func (s *Service) Settle(ctx context.Context, caller model.Identity, payment model.Payment) (*model.SettlementResult, error) {
	if payment.Email == "" {
		payment.Email = caller.Email
	}
	if payment.Email != caller.Email {
		return nil, model.NewForbiddenError()
	}
	if payment.CartEntryID == "" {
		payment.CartEntryID = payment.ID
	}
	payment.CartEntryID = strings.TrimSpace(payment.CartEntryID)
	if payment.CartEntryID == "" {
		return nil, model.NewInvalidArgumentError("cart_entry_id", payment.CartEntryID)
	}
	if payment.Price < 0 || math.IsNaN(payment.Price) {
		return nil, model.NewInvalidArgumentError("price", payment.Price)
	}
	payment.ID = ""

	result, err := s.paymentRepo.Settle(ctx, &payment)
	if err != nil {
		s.recorder.RecordSettlement(metrics.SettlementFailed)
		return nil, fmt.Errorf("決済の確定に失敗しました: %w", err)
	}

	if result.DeleteResult.DeletedCount == 0 {
		// 決済済みの記録は残す。カート側は既に消えている
		s.recorder.RecordSettlement(metrics.SettlementCartMissing)
		slog.Warn("cart entry not found at settlement",
			slog.String("cart_entry_id", payment.CartEntryID),
			slog.String("email", payment.Email),
		)
	} else {
		s.recorder.RecordSettlement(metrics.SettlementCommitted)
	}

	slog.Info("payment settled",
		slog.String("payment_id", result.InsertResult.InsertedID),
		slog.String("transaction_id", payment.TransactionID),
		slog.Int64("cart_entries_deleted", result.DeleteResult.DeletedCount),
	)
	return result, nil
}

// History は決済履歴を返す。emailが空の場合は空配列を返す。
func (s *Service) History(ctx context.Context, caller model.Identity, email string) ([]*model.Payment, error) {
	if email == "" {
		return []*model.Payment{}, nil
	}
	if email != caller.Email {
		return nil, model.NewForbiddenError()
	}

	payments, err := s.paymentRepo.ListByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("決済履歴の取得に失敗しました: %w", err)
	}
	return payments, nil
}
