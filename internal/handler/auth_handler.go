package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/summercamp/internal/model"
)

// TokenIssuer はトークン発行ハンドラーが必要とするインターフェース。
type TokenIssuer interface {
	Issue(identity model.Identity) (string, error)
}

// AuthHandler はトークン発行のHTTPハンドラー。
type AuthHandler struct {
	issuer TokenIssuer
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(issuer TokenIssuer) *AuthHandler {
	return &AuthHandler{issuer: issuer}
}

type tokenRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// IssueToken はクライアントが送った識別情報に対してアクセストークンを発行する。
// POST /jwt
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		handleServiceError(w, model.NewInvalidArgumentError("email", req.Email))
		return
	}

	token, err := h.issuer.Issue(model.Identity{Email: email, Name: strings.TrimSpace(req.Name)})
	if err != nil {
		slog.Error("failed to issue token", slog.String("error", err.Error()))
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}
