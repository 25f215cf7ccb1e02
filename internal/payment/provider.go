package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// IntentRequest は決済プロバイダーへのインテント作成要求。
type IntentRequest struct {
	Amount         int64  // 最小通貨単位
	Currency       string // ISO 4217 小文字
	IdempotencyKey string
}

// Provider は決済インテントを作成する外部プロバイダーのインターフェース。
// 戻り値はクライアントに渡すclient secretのみ。
type Provider interface {
	CreateIntent(ctx context.Context, req IntentRequest) (string, error)
}

// StripeConfig はStripeProviderの設定。
type StripeConfig struct {
	SecretKey         string
	HTTPClient        *http.Client
	APIURL            string // 空の場合はStripeの既定URL
	MaxNetworkRetries int64
}

// StripeProvider はStripeのPaymentIntents APIを使用するProvider実装。
type StripeProvider struct {
	api *client.API
}

// NewStripeProvider はStripeProviderを生成する。
func NewStripeProvider(cfg StripeConfig) (*StripeProvider, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("stripe secret key must not be empty")
	}

	backendCfg := &stripe.BackendConfig{
		HTTPClient:        cfg.HTTPClient,
		MaxNetworkRetries: stripe.Int64(cfg.MaxNetworkRetries),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}
	if cfg.APIURL != "" {
		backendCfg.URL = stripe.String(cfg.APIURL)
	}

	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendCfg),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendCfg),
	}

	return &StripeProvider{api: client.New(cfg.SecretKey, backends)}, nil
}

// CreateIntent はカード決済用のPaymentIntentを作成し、client secretを返す。
func (p *StripeProvider) CreateIntent(ctx context.Context, req IntentRequest) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.Amount),
		Currency:           stripe.String(req.Currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			return "", fmt.Errorf("stripe rejected payment intent (status %d, code %s): %w",
				stripeErr.HTTPStatusCode, stripeErr.Code, err)
		}
		return "", fmt.Errorf("failed to create payment intent: %w", err)
	}
	if pi.ClientSecret == "" {
		return "", errors.New("stripe returned payment intent without client secret")
	}
	return pi.ClientSecret, nil
}

var _ Provider = (*StripeProvider)(nil)
