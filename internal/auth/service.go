// Package auth は認証機能を提供する。
//
// パスワード認証、ワンタイムコード（OTP）認証、確認リンク認証の
// 3種類の本人確認手段と、セッション管理を担う。コードとトークンの
// 本体は保存せず、HMAC-SHA256ダイジェストのみを永続化する。
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math/big"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/clothtracker/internal/mailer"
	"github.com/hitoshi/clothtracker/internal/model"
	"github.com/hitoshi/clothtracker/internal/repository"
)

// MetricsRecorder は認証イベントの計測インターフェース。nil可。
type MetricsRecorder interface {
	RecordAuthAttempt(flow, result string)
	RecordOTPSent()
	RecordEmailSent(kind string)
}

// ServiceConfig は認証サービスの動作設定。
type ServiceConfig struct {
	// SessionMaxAge はセッションの有効期間。
	SessionMaxAge time.Duration
	// OTPTTL はワンタイムコードの有効期間。
	OTPTTL time.Duration
	// OTPMaxAttempts はコード検証の最大試行回数。
	OTPMaxAttempts int
	// TokenTTL は確認リンクトークンの有効期間。
	TokenTTL time.Duration
	// BaseURL は確認リンクの基点URL。
	BaseURL string
	// EmailConfirmations がtrueの場合、パスワード登録後にメール確認を必須とする。
	EmailConfirmations bool
	// Secret はコード・トークンのダイジェスト計算に使う鍵。
	Secret string
}

// Service は認証サービス。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	otpRepo     repository.OTPRepository
	tokenRepo   repository.TokenRepository
	mailer      mailer.Mailer
	metrics     MetricsRecorder
	logger      *slog.Logger
	cfg         ServiceConfig
}

// NewService は認証サービスを生成する。metricsはnil可。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	otpRepo repository.OTPRepository,
	tokenRepo repository.TokenRepository,
	m mailer.Mailer,
	metrics MetricsRecorder,
	logger *slog.Logger,
	cfg ServiceConfig,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		otpRepo:     otpRepo,
		tokenRepo:   tokenRepo,
		mailer:      m,
		metrics:     metrics,
		logger:      logger,
		cfg:         cfg,
	}
}

// --- 乱数・ダイジェスト ---

// digest は秘密鍵付きのHMAC-SHA256ダイジェストを16進文字列で返す。
// コード・トークン本体をDBに置かないための変換。
func (s *Service) digest(value string) string {
	mac := hmac.New(sha256.New, []byte(s.cfg.Secret))
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}

// digestEqual はダイジェストを一定時間で比較する。
func digestEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// generateSessionID は暗号論的乱数からセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// generateOTPCode は6桁のワンタイムコードを生成する。先頭ゼロ埋めあり。
func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate otp code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// generateLinkToken は確認リンクに埋め込むトークンを生成する。
func generateLinkToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate link token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// buildConfirmLink は確認エンドポイントへのリンクを組み立てる。
// クエリにはトークン本体を載せ、検証時にサーバー側でダイジェスト化して
// 照合する。DBにはダイジェストしか存在しないため、DB側の漏洩では
// リンクを偽造できない。
func (s *Service) buildConfirmLink(token string, tokenType model.TokenType, next string) (string, error) {
	u, err := url.Parse(s.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	u.Path = "/auth/confirm"
	q := u.Query()
	q.Set("token_hash", token)
	q.Set("type", string(tokenType))
	if next != "" {
		q.Set("next", next)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *Service) recordAttempt(flow, result string) {
	if s.metrics != nil {
		s.metrics.RecordAuthAttempt(flow, result)
	}
}

func (s *Service) recordOTPSent() {
	if s.metrics != nil {
		s.metrics.RecordOTPSent()
	}
}

func (s *Service) recordEmailSent(kind string) {
	if s.metrics != nil {
		s.metrics.RecordEmailSent(kind)
	}
}

// --- セッション ---

func (s *Service) createSession(ctx context.Context, userID string, now time.Time) (*model.Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	session := &model.Session{
		ID:        id,
		UserID:    userID,
		ExpiresAt: now.Add(s.cfg.SessionMaxAge),
		CreatedAt: now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// SignOut はセッションを破棄する。存在しないセッションIDでもエラーにしない。
func (s *Service) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.sessionRepo.DeleteByID(ctx, sessionID)
}

// GetCurrentUser はセッションIDから現在のユーザーを取得する。
// セッションが無効な場合はUNAUTHORIZEDエラーを返す。
func (s *Service) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, model.NewUnauthorizedError()
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUnauthorizedError()
	}
	return user, nil
}

// --- パスワード認証 ---

// SignUpResult は新規登録の結果。
// メール確認が不要な設定の場合のみSessionが非nilになる。
type SignUpResult struct {
	User    *model.User
	Session *model.Session
	// ConfirmationRequired がtrueの場合、確認メールを送信済みで
	// リンクを開くまでパスワードログインはできない。
	ConfirmationRequired bool
}

// SignUp はメールアドレスとパスワードで新規登録する。
//
// メール確認が有効な場合は確認リンクを送信し、セッションは発行しない。
// 無効な場合は登録と同時に確認済みとし、セッションを発行する。
// メール確認が有効なのにメーラーが未設定の場合はCONFIG_REQUIREDエラーを返す。
func (s *Service) SignUp(ctx context.Context, email, password, name string) (*SignUpResult, error) {
	if s.cfg.EmailConfirmations && !s.mailer.Configured() {
		s.recordAttempt("signup", "config_required")
		return nil, model.NewConfigRequiredError("メール確認が有効ですが、SMTPが未設定です。SMTPを設定するか、EMAIL_CONFIRMATIONSを無効にしてください。")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if !s.cfg.EmailConfirmations {
		user.EmailConfirmedAt = &now
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		s.recordAttempt("signup", "failure")
		return nil, err
	}

	if !s.cfg.EmailConfirmations {
		session, err := s.createSession(ctx, user.ID, now)
		if err != nil {
			return nil, err
		}
		s.recordAttempt("signup", "success")
		return &SignUpResult{User: user, Session: session}, nil
	}

	if err := s.sendConfirmationLink(ctx, user, now); err != nil {
		return nil, err
	}
	s.recordAttempt("signup", "success")
	return &SignUpResult{User: user, ConfirmationRequired: true}, nil
}

func (s *Service) sendConfirmationLink(ctx context.Context, user *model.User, now time.Time) error {
	token, err := generateLinkToken()
	if err != nil {
		return err
	}

	record := &model.AuthToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		TokenHash: s.digest(token),
		Type:      model.TokenTypeSignup,
		ExpiresAt: now.Add(s.cfg.TokenTTL),
		CreatedAt: now,
	}
	if err := s.tokenRepo.Create(ctx, record); err != nil {
		return fmt.Errorf("failed to create signup token: %w", err)
	}

	link, err := s.buildConfirmLink(token, model.TokenTypeSignup, "/dashboard")
	if err != nil {
		return err
	}
	if err := s.mailer.SendConfirmationLink(ctx, user.Email, link); err != nil {
		return fmt.Errorf("failed to send confirmation mail: %w", err)
	}
	s.recordEmailSent("confirmation")
	return nil
}

// ResendConfirmation は確認メールを再送する。
// 未登録・確認済みのアドレスでも成功応答を返し、登録状況を漏らさない。
func (s *Service) ResendConfirmation(ctx context.Context, email string) error {
	if !s.mailer.Configured() {
		return model.NewConfigRequiredError("確認メールの送信にはSMTPの設定が必要です。")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || user.Confirmed() {
		return nil
	}
	return s.sendConfirmationLink(ctx, user, time.Now())
}

// SignInWithPassword はメールアドレスとパスワードでログインする。
//
// ユーザー不在とパスワード不一致は同一のエラーにまとめ、登録状況を漏らさない。
// メール未確認のユーザーはEMAIL_NOT_CONFIRMEDエラーとなる。
func (s *Service) SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		// タイミング差でユーザー不在を悟られないよう、ダミー比較を行う
		_ = bcrypt.CompareHashAndPassword(
			[]byte("$2a$10$000000000000000000000uGyiOiyoTv8D1I4dD1XNFCFZuGKBW1Ga"),
			[]byte(password),
		)
		s.recordAttempt("password", "failure")
		return nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.recordAttempt("password", "failure")
		return nil, model.NewInvalidCredentialsError()
	}

	if !user.Confirmed() {
		s.recordAttempt("password", "not_confirmed")
		return nil, model.NewEmailNotConfirmedError()
	}

	session, err := s.createSession(ctx, user.ID, time.Now())
	if err != nil {
		return nil, err
	}
	s.recordAttempt("password", "success")
	return session, nil
}

// UpdatePassword はログイン中のユーザーのパスワードを変更する。
// currentPasswordが空でない場合は照合する。再設定フロー（トークン検証後）では
// 照合なしで呼ばれる。変更後は通知メールを送る。
func (s *Service) UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	if currentPassword != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
			return model.NewCurrentPasswordMismatchError()
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	if err := s.userRepo.UpdatePassword(ctx, userID, string(hash), now); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if s.mailer.Configured() {
		if err := s.mailer.SendPasswordChangedNotice(ctx, user.Email); err != nil {
			// 通知の失敗で変更自体は取り消さない
			s.logger.Warn("failed to send password changed notice",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		} else {
			s.recordEmailSent("password_changed")
		}
	}
	return nil
}

// --- ワンタイムコード認証 ---

// SendCode はワンタイムコードを生成してメールで送付する。
//
// allowCreateがtrueの場合、未登録のアドレスにはパスワードなしで
// ユーザーを作成してから送る（コード検証がメール確認を兼ねる）。
// falseの場合、未登録のアドレスはUSER_NOT_FOUNDエラーとなる。
func (s *Service) SendCode(ctx context.Context, email string, allowCreate bool) error {
	if !s.mailer.Configured() {
		return model.NewConfigRequiredError("コードログインにはSMTPの設定が必要です。")
	}

	now := time.Now()
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		if !allowCreate {
			return model.NewUserNotFoundError()
		}
		user = &model.User{
			ID:        uuid.New().String(),
			Email:     email,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return err
		}
	}

	code, err := generateOTPCode()
	if err != nil {
		return err
	}

	record := &model.OTPCode{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Email:     email,
		CodeHash:  s.digest(code),
		ExpiresAt: now.Add(s.cfg.OTPTTL),
		CreatedAt: now,
	}
	if err := s.otpRepo.Create(ctx, record); err != nil {
		return fmt.Errorf("failed to create otp code: %w", err)
	}

	if err := s.mailer.SendOTPCode(ctx, email, code); err != nil {
		return fmt.Errorf("failed to send otp mail: %w", err)
	}
	s.recordOTPSent()
	s.recordEmailSent("otp")
	return nil
}

// VerifyCode はワンタイムコードを検証し、成功時にセッションを発行する。
//
// 不一致・期限切れ・試行超過はすべてCODE_MISMATCHエラーにまとめる。
// 検証成功はメールアドレスの所有確認でもあるため、未確認ユーザーは
// 確認済みに更新する。
func (s *Service) VerifyCode(ctx context.Context, email, code string) (*model.Session, error) {
	now := time.Now()
	record, err := s.otpRepo.FindActiveByEmail(ctx, email, now)
	if err != nil {
		return nil, fmt.Errorf("failed to find otp code: %w", err)
	}
	if record == nil {
		s.recordAttempt("otp", "failure")
		return nil, model.NewCodeMismatchError()
	}

	if record.Attempts >= s.cfg.OTPMaxAttempts {
		s.recordAttempt("otp", "failure")
		return nil, model.NewCodeMismatchError()
	}

	if !digestEqual(record.CodeHash, s.digest(code)) {
		if err := s.otpRepo.IncrementAttempts(ctx, record.ID); err != nil {
			return nil, fmt.Errorf("failed to increment otp attempts: %w", err)
		}
		s.recordAttempt("otp", "failure")
		return nil, model.NewCodeMismatchError()
	}

	if err := s.otpRepo.Consume(ctx, record.ID, now); err != nil {
		return nil, fmt.Errorf("failed to consume otp code: %w", err)
	}

	user, err := s.userRepo.FindByID(ctx, record.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	if !user.Confirmed() {
		if err := s.userRepo.ConfirmEmail(ctx, user.ID, now); err != nil {
			return nil, fmt.Errorf("failed to confirm email: %w", err)
		}
	}

	session, err := s.createSession(ctx, user.ID, now)
	if err != nil {
		return nil, err
	}
	s.recordAttempt("otp", "success")
	return session, nil
}

// --- 確認リンク ---

// VerifyToken は確認リンクのトークンと種別を検証する。
//
// 成功時はトークンを消費し、セッションを発行する。signupトークンは
// メールアドレスを確認済みにする。recoveryトークンで発行された
// セッションはパスワード再設定画面での変更操作に使われる。
func (s *Service) VerifyToken(ctx context.Context, token string, tokenType model.TokenType) (*model.Session, error) {
	if !tokenType.IsValid() {
		s.recordAttempt("link", "failure")
		return nil, model.NewTokenInvalidError()
	}

	now := time.Now()
	record, err := s.tokenRepo.FindByHash(ctx, s.digest(token), now)
	if err != nil {
		return nil, fmt.Errorf("failed to find auth token: %w", err)
	}
	if record == nil || record.Type != tokenType {
		s.recordAttempt("link", "failure")
		return nil, model.NewTokenInvalidError()
	}

	if err := s.tokenRepo.Consume(ctx, record.ID, now); err != nil {
		return nil, fmt.Errorf("failed to consume auth token: %w", err)
	}

	if record.Type == model.TokenTypeSignup {
		if err := s.userRepo.ConfirmEmail(ctx, record.UserID, now); err != nil {
			return nil, fmt.Errorf("failed to confirm email: %w", err)
		}
	}

	session, err := s.createSession(ctx, record.UserID, now)
	if err != nil {
		return nil, err
	}
	s.recordAttempt("link", "success")
	return session, nil
}

// SendResetLink はパスワード再設定リンクをメールで送付する。
// 未登録のアドレスにも成功応答を返し、登録状況を漏らさない。
func (s *Service) SendResetLink(ctx context.Context, email string) error {
	if !s.mailer.Configured() {
		return model.NewConfigRequiredError("パスワード再設定にはSMTPの設定が必要です。")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil
	}

	now := time.Now()
	token, err := generateLinkToken()
	if err != nil {
		return err
	}

	record := &model.AuthToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		TokenHash: s.digest(token),
		Type:      model.TokenTypeRecovery,
		ExpiresAt: now.Add(s.cfg.TokenTTL),
		CreatedAt: now,
	}
	if err := s.tokenRepo.Create(ctx, record); err != nil {
		return fmt.Errorf("failed to create recovery token: %w", err)
	}

	link, err := s.buildConfirmLink(token, model.TokenTypeRecovery, "/reset-password")
	if err != nil {
		return err
	}
	if err := s.mailer.SendResetLink(ctx, user.Email, link); err != nil {
		return fmt.Errorf("failed to send reset mail: %w", err)
	}
	s.recordEmailSent("reset")
	return nil
}
