package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORSMiddleware_AllowedOrigin(t *testing.T) {
	handler := NewCORSMiddleware("http://localhost:5173")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/classes", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestCORSMiddleware_DisallowedOrigin(t *testing.T) {
	handler := NewCORSMiddleware("http://localhost:5173")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/classes", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin = %q, want empty", got)
	}
}

// プリフライトでAuthorizationヘッダーが許可されること
func TestCORSMiddleware_PreflightAllowsAuthorization(t *testing.T) {
	handlerCalled := false
	handler := NewCORSMiddleware("http://localhost:5173")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/carts", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if handlerCalled {
		t.Error("handler should not be called for preflight")
	}
	if w.Code >= 300 {
		t.Errorf("status = %d, want 2xx", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got != http.MethodDelete {
		t.Errorf("Access-Control-Allow-Methods = %q, want %q", got, http.MethodDelete)
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); got != "Authorization" {
		t.Errorf("Access-Control-Allow-Headers = %q, want %q", got, "Authorization")
	}
}
