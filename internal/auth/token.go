// Package auth はアクセストークンの発行と検証を提供する。
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hitoshi/summercamp/internal/model"
)

// DefaultTokenTTL はアクセストークンの有効期間。
const DefaultTokenTTL = time.Hour

// ErrInvalidToken はトークンの署名不正・形式不正・期限切れを表す。
// 期限切れの場合は jwt.ErrTokenExpired もラップする。
var ErrInvalidToken = errors.New("invalid access token")

// ErrEmptySecret は署名鍵が空のままTokenServiceを生成しようとした場合のエラー。
var ErrEmptySecret = errors.New("token signing secret must not be empty")

// Claims はアクセストークンに埋め込むクレーム。
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// TokenService はHS256署名のアクセストークンを発行・検証する。
// 検証はストアにアクセスしない純粋な処理。
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption はTokenServiceの生成オプション。
type TokenOption func(*TokenService)

// WithClock は現在時刻の取得関数を差し替える。テスト用。
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

// WithTTL は有効期間を差し替える。
func WithTTL(ttl time.Duration) TokenOption {
	return func(s *TokenService) { s.ttl = ttl }
}

// NewTokenService はTokenServiceを生成する。
// 署名鍵が空の場合は起動時エラーとしてErrEmptySecretを返す。
func NewTokenService(secret string, opts ...TokenOption) (*TokenService, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	s := &TokenService{
		secret: []byte(secret),
		ttl:    DefaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue は識別情報を埋め込んだトークンを発行する。
func (s *TokenService) Issue(identity model.Identity) (string, error) {
	now := s.now()
	claims := Claims{
		Email: identity.Email,
		Name:  identity.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify はトークンを検証し、埋め込まれた識別情報を返す。
func (s *TokenService) Verify(tokenString string) (model.Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return model.Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Email == "" {
		return model.Identity{}, ErrInvalidToken
	}

	return model.Identity{Email: claims.Email, Name: claims.Name}, nil
}
