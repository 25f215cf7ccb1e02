package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/summercamp/internal/metrics"
	"github.com/hitoshi/summercamp/internal/middleware"
	"github.com/hitoshi/summercamp/internal/model"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier      middleware.TokenVerifier
	RoleFinder         middleware.UserFinder
	CORSAllowedOrigins []string
	RateLimiter        *middleware.RateLimiter
	Logger             *slog.Logger

	// 運用
	HealthChecker   HealthChecker
	Metrics         metrics.MetricsCollector
	MetricsGatherer prometheus.Gatherer

	// ドメイン
	TokenIssuer    TokenIssuer
	UserService    UserServiceInterface
	ClassService   ClassServiceInterface
	CartService    CartServiceInterface
	PaymentService PaymentServiceInterface
	ReviewService  ReviewServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// 全ルート共通のミドルウェア実行順序:
//
//	RequestID → Logging → Recovery → Metrics → SecurityHeaders → CORS
//
// 保護ルートはさらにゲート（Authenticate → RequireRole/RequireSelf）と
// 呼び出し元単位のレート制限を通る。
func NewRouter(deps *RouterDeps) http.Handler {
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(metrics.Middleware(collector))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins...))

	observe := collector.RecordGateRejection
	deps.RateLimiter.OnLimited(observe)

	authn := middleware.Authenticate(deps.TokenVerifier)
	gate := func(checks ...middleware.Check) func(http.Handler) http.Handler {
		return middleware.ObservedGate(observe, checks...)
	}
	self := gate(middleware.RequireSelf("email"))

	healthHandler := NewHealthHandler(deps.HealthChecker)
	authHandler := NewAuthHandler(deps.TokenIssuer)
	userHandler := NewUserHandler(deps.UserService)
	classHandler := NewClassHandler(deps.ClassService)
	cartHandler := NewCartHandler(deps.CartService)
	paymentHandler := NewPaymentHandler(deps.PaymentService)
	reviewHandler := NewReviewHandler(deps.ReviewService)

	// --- 認証不要のルート ---
	r.Get("/", healthHandler.Root)
	r.Get("/health", healthHandler.Health)
	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	r.Post("/jwt", authHandler.IssueToken)

	r.Get("/classes", classHandler.ListClasses)
	r.Get("/classes/{id}", classHandler.GetClass)
	r.Get("/all-instructors", userHandler.ListInstructors)
	r.Get("/single-user/{email}", userHandler.GetUser)
	r.Get("/users/role/{role}", userHandler.ListByRole)
	r.Get("/users/{role}", userHandler.ListByRole)
	r.Get("/user-review", reviewHandler.ListReviews)

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(gate(authn))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/user-admin/{email}", userHandler.IsAdmin)
		r.Get("/users/admin/{email}", userHandler.IsAdmin)
		r.Get("/user-instructor/{email}", userHandler.IsInstructor)
		r.With(self).Put("/users/{email}", userHandler.UpsertUser)

		r.With(self).Get("/my-classes/{email}", classHandler.MyClasses)

		r.With(self).Get("/get-cart/{email}", cartHandler.GetCart)
		r.Get("/carts", cartHandler.MyCart)
		r.Post("/carts", cartHandler.AddToCart)
		r.Delete("/carts/{id}", cartHandler.RemoveFromCart)
		r.Get("/cart-item/{id}", cartHandler.GetCartItem)

		r.With(deps.RateLimiter.PaymentIntentMiddleware()).Post("/create-payment-intent", paymentHandler.CreatePaymentIntent)
		r.Post("/payments", paymentHandler.SettlePayment)
		r.Get("/payments", paymentHandler.PaymentHistory)

		r.Post("/give-review", reviewHandler.GiveReview)
	})

	// --- 管理者ルート ---
	r.Group(func(r chi.Router) {
		r.Use(gate(authn, middleware.RequireRole(deps.RoleFinder, model.RoleAdmin)))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/all-users", userHandler.ListUsers)
		r.Get("/users", userHandler.ListUsers)
		r.Patch("/make-admin/{id}", userHandler.MakeAdmin)
		r.Patch("/users/admin/{id}", userHandler.MakeAdmin)
		r.Patch("/make-instructor/{id}", userHandler.MakeInstructor)
		r.Patch("/set-role/{id}", userHandler.SetRole)
		r.Delete("/delete-user/{id}", userHandler.DeleteUser)
		r.Delete("/users/{id}", userHandler.DeleteUser)

		r.Patch("/update-class/{id}", classHandler.UpdateClass)
		r.Put("/update-class/{id}", classHandler.UpdateClass)
	})

	// --- 講師ルート ---
	r.Group(func(r chi.Router) {
		r.Use(gate(authn, middleware.RequireRole(deps.RoleFinder, model.RoleInstructor)))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Post("/add-class", classHandler.CreateClass)
		r.Post("/classes", classHandler.CreateClass)
	})

	return r
}
