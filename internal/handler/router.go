package handler

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/irwatch/internal/middleware"
	"github.com/hitoshi/irwatch/internal/model"
)

// publicPages は未ログインでも表示できる画面。
var publicPages = []string{"/login.html", "/register.html"}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRF              middleware.CSRFConfig

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// クライアント
	ClientService ClientServiceInterface

	// 一覧データ
	Companies  *ListHandler[model.Company]
	Recipients *ListHandler[model.Recipient]
	Blogs      *ListHandler[model.Blog]

	// 設定
	SettingsService SettingsServiceInterface

	// ブログ推薦・メール操作・実行状況
	BlogSuggester BlogSuggesterInterface
	Operations    OperationsInterface
	Status        StatusReporter

	// 運用
	MetricsHandler http.Handler
	PublicDir      string
	Logger         *slog.Logger
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CORS → CSRF → SessionMiddleware → RateLimitMiddleware(GeneralMiddleware)
//
// 認証ルート（/api/register, /api/login, /api/logout, /api/me）と公開画面はセッション検証の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	clientHandler := NewClientHandler(deps.ClientService)
	settingsHandler := NewSettingsHandler(deps.SettingsService)
	opsHandler := NewOperationsHandler(deps.BlogSuggester, deps.Operations, deps.Status)

	// --- 運用エンドポイント ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("OK"))
	})
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCSRFMiddleware(deps.CSRF, logger))

		// --- 認証不要のルート ---
		r.Get("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRF, logger).ServeHTTP)
		r.With(deps.RateLimiter.LoginMiddleware()).Post("/api/register", authHandler.Register)
		r.With(deps.RateLimiter.LoginMiddleware()).Post("/api/login", authHandler.Login)
		r.Get("/api/logout", authHandler.Logout)
		r.Get("/api/me", authHandler.Me)

		// --- 認証が必要なAPI ---
		// ミドルウェアスタック: Session → RateLimit(General)
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
			r.Use(deps.RateLimiter.GeneralMiddleware())

			// クライアント管理
			r.Route("/api/clients", func(r chi.Router) {
				r.Get("/", clientHandler.ListClients)
				r.Post("/", clientHandler.CreateClient)
				r.Delete("/{id}", clientHandler.DeleteClient)
			})

			// 一覧データ
			r.Get("/api/companies", deps.Companies.Get)
			r.Post("/api/companies", deps.Companies.Save)
			r.Get("/api/recipients", deps.Recipients.Get)
			r.Post("/api/recipients", deps.Recipients.Save)
			r.Get("/api/blogs", deps.Blogs.Get)
			r.Post("/api/blogs", deps.Blogs.Save)
			r.Post("/api/blogs/suggestions", opsHandler.BlogSuggestions)

			// 設定
			r.Route("/api/settings", func(r chi.Router) {
				r.Get("/", settingsHandler.GetSettings)
				r.Post("/email", settingsHandler.SaveEmail)
				r.Post("/schedule", settingsHandler.SaveSchedule)
				r.Post("/email-template", settingsHandler.SaveTemplate)
				r.Post("/blog-prompt", settingsHandler.SaveBlogPrompt)
			})

			// メール操作・実行状況
			r.Post("/api/test-email", opsHandler.TestEmail)
			r.Post("/api/test-automation", opsHandler.TestAutomation)
			r.Get("/api/automation/status", opsHandler.AutomationStatus)
		})

		// --- 画面 ---
		if deps.PublicDir != "" {
			files := http.FileServer(http.Dir(deps.PublicDir))
			for _, page := range publicPages {
				r.Method(http.MethodGet, page, files)
			}
			r.Group(func(r chi.Router) {
				r.Use(middleware.NewPageSessionMiddleware(deps.SessionFinder))
				r.Method(http.MethodGet, "/*", files)
			})
		}
	})

	return r
}

// PublicDirExists は画面ファイルのディレクトリが存在するかを返す。
func PublicDirExists(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}
