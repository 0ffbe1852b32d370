package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/clothtracker/internal/middleware"
)

// Pinger はヘルスチェックに必要なデータベース接続確認のインターフェース。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig
	Logger            *slog.Logger
	HTTPMetrics       middleware.HTTPMetricsRecorder

	// 認証
	AuthService AuthServiceInterface
	FlowFactory FlowFactory
	AuthConfig  AuthHandlerConfig

	// 衣類
	ClothService ClothServiceInterface

	// プロフィール・管理
	ProfileService ProfileServiceInterface
	AdminService   AdminServiceInterface

	// ユーザー
	UserService UserServiceInterface

	// セットアップ状態
	MailerConfigured   bool
	EmailConfirmations bool

	// ヘルスチェック
	DB Pinger

	// Prometheusスクレイプ用。nilの場合は/metricsを公開しない。
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → CORS
//
// 認証後ルート（/api/*とPUT /auth/password）にはさらに
// Session → RateLimit(General) → CSRF が適用される。
// メール送信を伴う認証前ルートにはIPキーの送信レート制限が適用される。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.HTTPMetrics))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.FlowFactory, deps.AuthConfig)
	clothHandler := NewClothHandler(deps.ClothService)
	profileHandler := NewProfileHandler(deps.ProfileService)
	adminHandler := NewAdminHandler(deps.AdminService)
	userHandler := NewUserHandler(deps.UserService)
	setupHandler := NewSetupHandler(deps.MailerConfigured, deps.EmailConfirmations)

	emailSendLimit := deps.RateLimiter.EmailSendMiddleware()

	// --- 認証不要のルート ---

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.With(emailSendLimit).Post("/signup", authHandler.Signup)
		r.With(emailSendLimit).Post("/forgot-password", authHandler.ForgotPassword)
		r.With(emailSendLimit).Post("/resend-confirmation", authHandler.ResendConfirmation)

		// ワンタイムコード
		r.Post("/otp/verify", authHandler.VerifyCode)
		r.With(emailSendLimit).Post("/otp/resend", authHandler.ResendCode)

		// メール内の確認リンク
		r.Get("/confirm", authHandler.Confirm)

		// セッション管理
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// セットアップ状態（ログイン前のガイド表示に使うため認証不要）
	r.Get("/api/setup/status", setupHandler.Status)

	// ヘルスチェック
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := deps.DB.PingContext(r.Context()); err != nil {
			slog.Error("healthcheck failed", slog.String("error", err.Error()))
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General) → CSRF
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		// CSRFトークン取得
		r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

		// パスワード変更（ログイン必須）
		r.Put("/auth/password", authHandler.UpdatePassword)

		// 衣類アイテム管理
		r.Route("/api/clothes", func(r chi.Router) {
			r.Get("/", clothHandler.List)
			r.Post("/", clothHandler.Add)

			r.Route("/{id}", func(r chi.Router) {
				r.Patch("/", clothHandler.Edit)
				r.Delete("/", clothHandler.Delete)
				r.Post("/move", clothHandler.Move)
			})
		})

		// プロフィール
		r.Route("/api/profile", func(r chi.Router) {
			r.Get("/", profileHandler.Get)
			r.Patch("/", profileHandler.Update)
		})

		// 管理画面
		r.Get("/api/admin/users", adminHandler.ListUsers)

		// ユーザー管理
		r.Delete("/api/users/me", userHandler.Withdraw)
	})

	return r
}
