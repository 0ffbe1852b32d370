package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/clothtracker/internal/auth"
	"github.com/hitoshi/clothtracker/internal/middleware"
	"github.com/hitoshi/clothtracker/internal/model"
)

const sessionCookieName = "session_id"

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	SignOut(ctx context.Context, sessionID string) error
	GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error)
	VerifyToken(ctx context.Context, token string, tokenType model.TokenType) (*model.Session, error)
	ResendConfirmation(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) error
}

// FlowFactory は認証フォームの状態機械を生成する。
// フローはリクエストごとに生成され、段階はクライアントが保持する。
type FlowFactory interface {
	NewFlow(variant auth.Variant, mode auth.Mode) (*auth.Flow, error)
	ResumeFlow(variant auth.Variant, mode auth.Mode, email string) (*auth.Flow, error)
}

// ServiceFlowFactory はauth.Serviceに対するFlowFactoryの実装。
type ServiceFlowFactory struct {
	Service *auth.Service
}

// NewFlow は初期段階のフローを生成する。
func (f *ServiceFlowFactory) NewFlow(variant auth.Variant, mode auth.Mode) (*auth.Flow, error) {
	return auth.NewFlow(f.Service, variant, mode)
}

// ResumeFlow はコード入力段階のフローを再構築する。
func (f *ServiceFlowFactory) ResumeFlow(variant auth.Variant, mode auth.Mode, email string) (*auth.Flow, error) {
	return auth.ResumeFlow(f.Service, variant, mode, email)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	BaseURL       string
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	flows   FlowFactory
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, flows FlowFactory, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		flows:   flows,
		config:  config,
	}
}

// flowResponse はフロー操作のレスポンス。
type flowResponse struct {
	Step        string `json:"step,omitempty"`
	Redirect    string `json:"redirect,omitempty"`
	Message     string `json:"message,omitempty"`
	MaskedEmail string `json:"masked_email,omitempty"`
}

// writeFlowResult はフロー結果をレスポンスに変換する。
// セッションが発行されている場合はHTTP Only Cookieを設定する。
func (h *AuthHandler) writeFlowResult(w http.ResponseWriter, result *auth.FlowResult) {
	if result.Session != nil {
		h.setSessionCookie(w, result.Session.ID)
	}
	writeJSON(w, http.StatusOK, flowResponse{
		Step:        string(result.Step),
		Redirect:    result.Redirect,
		Message:     result.Message,
		MaskedEmail: result.MaskedEmail,
	})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// variantOrDefault は省略時のフォーム種別を補う。
func variantOrDefault(v string, def auth.Variant) auth.Variant {
	if v == "" {
		return def
	}
	return auth.Variant(v)
}

// Signup は新規登録フローを開始する。
// POST /auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
		Variant  string `json:"variant"`
	}
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	flow, err := h.flows.NewFlow(variantOrDefault(req.Variant, auth.VariantLink), auth.ModeSignup)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := flow.SubmitIdentifier(r.Context(), auth.FlowInput{
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	h.writeFlowResult(w, result)
}

// Login はログインフローを開始する。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Variant  string `json:"variant"`
	}
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	flow, err := h.flows.NewFlow(variantOrDefault(req.Variant, auth.VariantHybrid), auth.ModeLogin)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := flow.SubmitIdentifier(r.Context(), auth.FlowInput{
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	h.writeFlowResult(w, result)
}

// ForgotPassword はパスワード再設定フローを開始する。
// POST /auth/forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email   string `json:"email"`
		Variant string `json:"variant"`
	}
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	flow, err := h.flows.NewFlow(variantOrDefault(req.Variant, auth.VariantLink), auth.ModeForgotPassword)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := flow.SubmitIdentifier(r.Context(), auth.FlowInput{
		Email: strings.TrimSpace(req.Email),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	h.writeFlowResult(w, result)
}

// modeOrDefault は省略時のモードを補う。
func modeOrDefault(m string) auth.Mode {
	if m == "" {
		return auth.ModeLogin
	}
	return auth.Mode(m)
}

// VerifyCode はワンタイムコードを検証する。
// POST /auth/otp/verify
func (h *AuthHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
		Mode  string `json:"mode"`
	}
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	flow, err := h.flows.ResumeFlow(auth.VariantOTP, modeOrDefault(req.Mode), strings.TrimSpace(req.Email))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := flow.SubmitCode(r.Context(), strings.TrimSpace(req.Code))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	h.writeFlowResult(w, result)
}

// ResendCode はワンタイムコードを再送する。
// POST /auth/otp/resend
func (h *AuthHandler) ResendCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Mode  string `json:"mode"`
	}
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	flow, err := h.flows.ResumeFlow(auth.VariantOTP, modeOrDefault(req.Mode), strings.TrimSpace(req.Email))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := flow.Resend(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	h.writeFlowResult(w, result)
}

// Confirm はメール内の確認リンクを処理する。
// GET /auth/confirm?token_hash=xxx&type=signup&next=/dashboard
//
// 検証成功時はセッションCookieを設定し、nextで指定されたパスへ
// リダイレクトする。失敗時はエラーパラメータ付きでトップへ戻す。
func (h *AuthHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token_hash")
	tokenType := model.TokenType(r.URL.Query().Get("type"))
	next := r.URL.Query().Get("next")

	if token == "" || !tokenType.IsValid() {
		h.redirectConfirmError(w, r)
		return
	}

	session, err := h.service.VerifyToken(r.Context(), token, tokenType)
	if err != nil {
		slog.Warn("confirmation failed", slog.String("error", err.Error()))
		h.redirectConfirmError(w, r)
		return
	}

	h.setSessionCookie(w, session.ID)

	// オープンリダイレクト防止: nextは自サイト内のパスのみ許可
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		next = "/dashboard"
	}
	http.Redirect(w, r, h.config.BaseURL+next, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) redirectConfirmError(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.config.BaseURL+"/?error=confirmation_error", http.StatusTemporaryRedirect)
}

// ResendConfirmation は確認メールを再送する。
// POST /auth/resend-confirmation
// 未登録・確認済みのアドレスでも200を返し、登録状況を漏らさない。
func (h *AuthHandler) ResendConfirmation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		handleServiceError(w, model.NewValidationError("メールアドレスを入力してください。"))
		return
	}

	if err := h.service.ResendConfirmation(r.Context(), email); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flowResponse{
		Message: "確認メールを送信しました。受信トレイを確認してください。",
	})
}

// Logout はセッションを破棄する。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil && cookie.Value != "" {
		if signOutErr := h.service.SignOut(r.Context(), cookie.Value); signOutErr != nil {
			slog.Error("failed to sign out", slog.String("error", signOutErr.Error()))
			// ログアウト失敗してもCookieはクリアする
		}
	}

	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, flowResponse{Redirect: "/"})
}

// Me は現在のログインユーザー情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		handleServiceError(w, model.NewUnauthorizedError())
		return
	}

	user, err := h.service.GetCurrentUser(r.Context(), cookie.Value)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":              user.ID,
		"email":           user.Email,
		"name":            user.Name,
		"email_confirmed": user.Confirmed(),
	})
}

// UpdatePassword はログイン中のユーザーのパスワードを変更する。
// PUT /auth/password（認証必須）
//
// current_passwordが空の場合は再設定フロー（recoveryリンク経由の
// セッション）として照合なしで更新する。
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		handleServiceError(w, model.NewUnauthorizedError())
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	if len(req.NewPassword) < 8 {
		handleServiceError(w, model.NewValidationError("パスワードは8文字以上で入力してください。"))
		return
	}

	if err := h.service.UpdatePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flowResponse{
		Message: "パスワードを変更しました。",
	})
}
