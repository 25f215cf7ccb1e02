// Package app はアプリケーションの起動と依存関係のワイヤリングを行う。
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/summercamp/internal/auth"
	"github.com/hitoshi/summercamp/internal/cart"
	"github.com/hitoshi/summercamp/internal/class"
	"github.com/hitoshi/summercamp/internal/config"
	"github.com/hitoshi/summercamp/internal/database"
	"github.com/hitoshi/summercamp/internal/handler"
	"github.com/hitoshi/summercamp/internal/logger"
	"github.com/hitoshi/summercamp/internal/metrics"
	"github.com/hitoshi/summercamp/internal/middleware"
	"github.com/hitoshi/summercamp/internal/payment"
	"github.com/hitoshi/summercamp/internal/repository"
	"github.com/hitoshi/summercamp/internal/review"
	"github.com/hitoshi/summercamp/internal/security"
	"github.com/hitoshi/summercamp/internal/user"
)

// Init はアプリケーションの初期化を行う。
// .envと環境変数からConfigを読み込み、LOG_LEVELに従ってJSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルで再初期化する
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	root := NewRootCommand(w)
	root.SetArgs(args)
	return root.Execute()
}

// runCommand は設定を読み込み、指定モードで起動する。
func runCommand(w io.Writer, cmd Command) error {
	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, cfg)
	}
}

// buildRouter はDB接続から全依存関係をワイヤリングしたルーターを構築する。
// 戻り値のcleanupでバックグラウンドゴルーチンを停止する。
func buildRouter(db *sql.DB, healthChecker handler.HealthChecker, cfg *config.Config, registry *prometheus.Registry) (http.Handler, func(), error) {
	// 1. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	classRepo := repository.NewPostgresClassRepo(db)
	cartRepo := repository.NewPostgresCartRepo(db)
	paymentRepo := repository.NewPostgresPaymentRepo(db)
	reviewRepo := repository.NewPostgresReviewRepo(db)

	// 2. セキュリティサービスの初期化
	ssrfGuard := security.NewSSRFGuard(security.WithAllowedImageHosts(cfg.ClassImageHosts...))
	sanitizer := security.NewContentSanitizer()

	// 3. トークンと決済プロバイダー
	tokens, err := auth.NewTokenService(cfg.AccessTokenSecret)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create token service: %w", err)
	}

	provider, err := payment.NewStripeProvider(payment.StripeConfig{
		SecretKey:         cfg.PaymentSecretKey,
		HTTPClient:        paymentHTTPClient(ssrfGuard, cfg),
		APIURL:            cfg.PaymentAPIURL,
		MaxNetworkRetries: cfg.PaymentMaxRetries,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create payment provider: %w", err)
	}

	// 4. メトリクス
	collector := metrics.NewCollector(registry)

	// 5. ドメインサービスの初期化
	userService := user.NewService(userRepo, sanitizer)
	classService := class.NewService(classRepo, ssrfGuard, sanitizer)
	cartService := cart.NewService(cartRepo, classRepo)
	paymentService := payment.NewService(paymentRepo, provider, collector, payment.Config{
		Currency: cfg.PaymentCurrency,
		Timeout:  cfg.PaymentTimeout,
	})
	reviewService := review.NewService(reviewRepo, sanitizer)

	// 6. ルーターの構築（設定はreq/min単位）
	rateLimiter := middleware.NewRateLimiter(
		middleware.RateLimiterConfigPerMinute(cfg.RateLimitGeneral, cfg.RateLimitPaymentIntent),
	)

	router := handler.NewRouter(&handler.RouterDeps{
		TokenVerifier:      tokens,
		RoleFinder:         userRepo,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        rateLimiter,
		Logger:             slog.Default(),

		HealthChecker:   healthChecker,
		Metrics:         collector,
		MetricsGatherer: registry,

		TokenIssuer:    tokens,
		UserService:    userService,
		ClassService:   classService,
		CartService:    cartService,
		PaymentService: paymentService,
		ReviewService:  reviewService,
	})

	return router, rateLimiter.Stop, nil
}

// paymentHTTPClient は決済プロバイダー向けのHTTPクライアントを返す。
// 既定のプロバイダーURLではプライベートアドレスへの接続を拒否するクライアントを使う。
// PAYMENT_API_URLでローカルのモックサーバーを指定した場合は通常のクライアントを使う。
func paymentHTTPClient(guard security.SSRFGuardService, cfg *config.Config) *http.Client {
	if cfg.PaymentAPIURL != "" {
		return &http.Client{Timeout: cfg.PaymentTimeout}
	}
	return guard.NewSafeClient(cfg.PaymentTimeout)
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// ctxがキャンセルされるとグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	healthChecker := database.NewHealthChecker(db)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = healthChecker.Ping(pingCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	// 2. 依存関係のワイヤリング
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, "summercamp"),
	)

	router, cleanup, err := buildRouter(db, healthChecker, cfg, registry)
	if err != nil {
		return err
	}
	defer cleanup()

	// 3. HTTPサーバーの起動
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.PaymentTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	target := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(target)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
// 解析できないURLは全体を伏せる。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	u.RawQuery = ""
	return u.Redacted()
}
