package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/summercamp/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの形式。
// errorとmessageは従来の {error: true, message} 形式を読むクライアント向けに残している。
type ErrorResponseBody struct {
	Error    bool   `json:"error"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// WriteErrorResponse はAPIErrorをstatusCodeで書き込む。
// ゲートの拒否とハンドラーのエラーは必ずこれを通す。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	if apiErr == nil {
		apiErr = model.NewInternalError()
	}
	body, _ := json.Marshal(ErrorResponseBody{
		Error:    true,
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})

	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Del("Content-Length")
	w.WriteHeader(statusCode)
	w.Write(append(body, '\n'))
}

// WriteInternalServerError は詳細を伏せた500を返す。原因はログにのみ残す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
}
