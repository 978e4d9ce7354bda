package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/irwatch/internal/auth"
	"github.com/hitoshi/irwatch/internal/blog"
	"github.com/hitoshi/irwatch/internal/client"
	"github.com/hitoshi/irwatch/internal/config"
	"github.com/hitoshi/irwatch/internal/handler"
	"github.com/hitoshi/irwatch/internal/logger"
	"github.com/hitoshi/irwatch/internal/mailer"
	"github.com/hitoshi/irwatch/internal/metrics"
	"github.com/hitoshi/irwatch/internal/middleware"
	"github.com/hitoshi/irwatch/internal/model"
	"github.com/hitoshi/irwatch/internal/repository"
	"github.com/hitoshi/irwatch/internal/scrape"
	"github.com/hitoshi/irwatch/internal/security"
	"github.com/hitoshi/irwatch/internal/settings"
	"github.com/hitoshi/irwatch/internal/worker/automation"
	"github.com/hitoshi/irwatch/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、LOG_LEVELに従ってJSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. ログレベルを反映する
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}
	logger.SetupDefault(w, level)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("data_dir", cfg.DataDir),
	)

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := build(cfg, slog.Default())
	if err != nil {
		return err
	}

	switch cmd {
	case CommandWorker:
		return runWorker(ctx, cfg, c)
	case CommandRun:
		return runOnce(ctx, c, runTarget(args))
	default:
		return runServe(ctx, cfg, c)
	}
}

// components はコマンド間で共有する依存関係。
type components struct {
	logger   *slog.Logger
	store    *repository.FileStore
	registry *prometheus.Registry

	clients   *repository.JSONClientRepository
	companies repository.CompanyRepository
	settings  *repository.JSONSettingsRepository
	sessions  *repository.JSONSessionRepository

	collector *metrics.Collector
	runner    *automation.Runner
	scheduler *automation.Scheduler
	mailer    *mailer.SMTPMailer
}

// build はファイルストア・リポジトリ・スクレイパー・自動実行を組み立てる。
func build(cfg *config.Config, log *slog.Logger) (*components, error) {
	// 1. ファイルストア
	store, err := repository.NewFileStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open data dir: %w", err)
	}

	// 2. リポジトリの初期化
	c := &components{
		logger:    log,
		store:     store,
		registry:  prometheus.NewRegistry(),
		clients:   repository.NewJSONClientRepository(store),
		companies: repository.NewJSONCompanyRepository(store),
		settings:  repository.NewJSONSettingsRepository(store),
		sessions:  repository.NewJSONSessionRepository(store),
	}
	sentItems := repository.NewJSONSentItemRepository(store)

	// 3. メトリクス
	c.registry.MustRegister(collectors.NewGoCollector())
	c.collector = metrics.NewCollector(c.registry)

	// 4. スクレイパーとメール送信
	guard := security.NewPageGuard(cfg.FetchAllowPrivate)
	fetcher := scrape.NewFetcher(guard, c.collector, log, scrape.FetcherConfig{
		Timeout:     cfg.FetchTimeout,
		MaxBodySize: cfg.FetchMaxSize,
		UserAgent:   cfg.FetchUserAgent,
	})
	c.mailer = mailer.NewSMTPMailer(log, cfg.SMTPTimeout)

	// 5. 自動実行
	c.runner = automation.NewRunner(
		c.companies, c.settings, sentItems,
		fetcher, scrape.NewExtractor(), c.mailer, c.collector, log,
	)
	c.scheduler, err = automation.NewScheduler(c.runner, c.clients, c.settings, cfg.DefaultSchedule, log)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// runServe はAPIサーバーモードで起動する。
// 自動実行スケジューラとセッションクリーンアップも同じプロセスで動かす。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config, c *components) error {
	log := c.logger

	// 1. ドメインサービスの初期化
	authService := auth.NewService(
		repository.NewJSONUserRepository(c.store), c.sessions,
		auth.ServiceConfig{SessionMaxAge: cfg.SessionMaxAge}, log,
	)
	clientService := client.NewService(c.clients, c.store, c.scheduler, log)
	settingsService := settings.NewService(c.settings, security.NewTemplateSanitizer(), c.scheduler, log)
	blogService := blog.NewService(c.clients, c.companies, c.settings, log)
	operations := automation.NewOperations(c.settings, c.runner, c.mailer, c.collector, log)

	if !handler.PublicDirExists(cfg.PublicDir) {
		log.Warn("画面ファイルのディレクトリが見つかりません", slog.String("public_dir", cfg.PublicDir))
	}

	// 2. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitLogin), log,
	)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		SessionFinder:     c.sessions,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		CSRF: middleware.CSRFConfig{
			Enabled:      cfg.CSRFProtection,
			CookieSecure: cfg.CookieSecure,
		},

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},

		ClientService: clientService,

		Companies:  handler.NewListHandler[model.Company](c.companies, "Companies"),
		Recipients: handler.NewListHandler[model.Recipient](repository.NewJSONRecipientRepository(c.store), "Recipients"),
		Blogs:      handler.NewListHandler[model.Blog](repository.NewJSONBlogRepository(c.store), "Blogs"),

		SettingsService: settingsService,

		BlogSuggester: blogService,
		Operations:    operations,
		Status:        c.scheduler,

		MetricsHandler: metrics.Handler(c.registry),
		PublicDir:      cfg.PublicDir,
		Logger:         log,
	}

	router := handler.NewRouter(deps)

	// 3. バックグラウンドジョブの起動
	go startScheduler(ctx, c.scheduler, log)
	go startSessionCleanup(ctx, cfg, c)

	// 4. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // 自動実行テストは全企業の取得を待つ
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("API server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server listen error: %w", err)
	}
	log.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 自動実行スケジューラをメインgoroutineで実行し、シグナル受信で停止する。
func runWorker(ctx context.Context, cfg *config.Config, c *components) error {
	go startSessionCleanup(ctx, cfg, c)

	c.logger.Info("worker starting", slog.String("default_schedule", cfg.DefaultSchedule))

	if err := c.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("scheduler failed: %w", err)
	}

	c.logger.Info("worker stopped gracefully")
	return nil
}

// runOnce は指定テナントの自動実行を1回だけ行う。失敗時はエラーを返す。
func runOnce(ctx context.Context, c *components, clientID string) error {
	tenant, err := repository.ParseTenant(clientID)
	if err != nil {
		return err
	}

	report, err := c.runner.Run(ctx, tenant)
	if err != nil {
		return fmt.Errorf("automation run failed: %w", err)
	}

	c.logger.Info("automation run finished",
		slog.String("tenant", tenant.String()),
		slog.String("outcome", report.Outcome()),
		slog.Int("new_items", report.NewItems),
		slog.Bool("skipped", report.Skipped),
	)
	return nil
}

func startScheduler(ctx context.Context, scheduler *automation.Scheduler, log *slog.Logger) {
	if err := scheduler.Start(ctx); err != nil {
		log.Error("scheduler failed", slog.String("error", err.Error()))
	}
}

func startSessionCleanup(ctx context.Context, cfg *config.Config, c *components) {
	job := cleanup.NewCleanupJob(c.sessions, c.logger)
	job.Interval = cfg.SessionCleanupInterval
	job.Start(ctx)
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	httpClient := &http.Client{Timeout: 5 * time.Second}

	resp, err := httpClient.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
