package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/summercamp/internal/model"
)

// serveLogged はwrapで組み立てたハンドラーを1回呼び、出力されたログ1行を返す。
func serveLogged(t *testing.T, wrap func(mw func(http.Handler) http.Handler) http.Handler, req *http.Request) (map[string]interface{}, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	w := httptest.NewRecorder()
	wrap(NewLoggingMiddleware(logger)).ServeHTTP(w, req)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON log: %v\nraw: %s", err, buf.String())
	}
	return entry, w
}

func TestLoggingMiddleware_LogsRequestFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/payments?email=s@example.com", nil)
	entry, _ := serveLogged(t, func(mw func(http.Handler) http.Handler) http.Handler {
		return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		}))
	}, req)

	if entry["msg"] != "http_request" {
		t.Errorf("msg = %v, want http_request", entry["msg"])
	}
	if entry["method"] != "GET" {
		t.Errorf("method = %v, want GET", entry["method"])
	}
	// クエリ文字列は記録しない
	if entry["path"] != "/payments" {
		t.Errorf("path = %v, want /payments", entry["path"])
	}
	if entry["status"] != float64(200) {
		t.Errorf("status = %v, want 200", entry["status"])
	}
	if entry["bytes"] != float64(2) {
		t.Errorf("bytes = %v, want 2", entry["bytes"])
	}
	if d, ok := entry["duration_ms"].(float64); !ok || d < 0 {
		t.Errorf("duration_ms = %v, want >= 0", entry["duration_ms"])
	}
	if _, ok := entry["caller"]; ok {
		t.Errorf("caller should be absent for unauthenticated request, got %v", entry["caller"])
	}
}

func TestLoggingMiddleware_LevelFollowsStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusCreated, "INFO"},
		{http.StatusForbidden, "WARN"},
		{http.StatusNotFound, "WARN"},
		{http.StatusBadGateway, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			entry, _ := serveLogged(t, func(mw func(http.Handler) http.Handler) http.Handler {
				return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
				}))
			}, httptest.NewRequest(http.MethodGet, "/classes", nil))

			if entry["status"] != float64(tt.status) {
				t.Errorf("status = %v, want %d", entry["status"], tt.status)
			}
			if entry["level"] != tt.level {
				t.Errorf("level = %v, want %s", entry["level"], tt.level)
			}
		})
	}
}

func TestLoggingMiddleware_IncludesCaller(t *testing.T) {
	verifier := &mockTokenVerifier{
		verifyFn: func(token string) (model.Identity, error) {
			return model.Identity{Email: "a@example.com"}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/carts", nil)
	req.Header.Set("Authorization", "Bearer good")
	entry, _ := serveLogged(t, func(mw func(http.Handler) http.Handler) http.Handler {
		return mw(Gate(Authenticate(verifier))(okHandler()))
	}, req)

	if entry["caller"] != "a@example.com" {
		t.Errorf("caller = %v, want a@example.com", entry["caller"])
	}
}

func TestLoggingMiddleware_IncludesRoutePattern(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	r := chi.NewRouter()
	r.Use(NewLoggingMiddleware(logger))
	r.Get("/cart-item/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/cart-item/c-1", nil))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON log: %v\nraw: %s", err, buf.String())
	}
	if entry["route"] != "/cart-item/{id}" {
		t.Errorf("route = %v, want /cart-item/{id}", entry["route"])
	}
	if entry["path"] != "/cart-item/c-1" {
		t.Errorf("path = %v, want /cart-item/c-1", entry["path"])
	}
}

func TestLoggingMiddleware_IncludesRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/classes", nil)
	req.Header.Set(chimw.RequestIDHeader, "req-42")

	entry, w := serveLogged(t, func(mw func(http.Handler) http.Handler) http.Handler {
		return chimw.RequestID(mw(okHandler()))
	}, req)

	if entry["request_id"] != "req-42" {
		t.Errorf("request_id = %v, want req-42", entry["request_id"])
	}
	if got := w.Header().Get(chimw.RequestIDHeader); got != "req-42" {
		t.Errorf("response %s = %q, want req-42", chimw.RequestIDHeader, got)
	}
}
