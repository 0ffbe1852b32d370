package auth

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/clothtracker/internal/model"
)

// --- モック定義 ---

type mockUserRepo struct {
	findByIDFn       func(ctx context.Context, id string) (*model.User, error)
	findByEmailFn    func(ctx context.Context, email string) (*model.User, error)
	createFn         func(ctx context.Context, user *model.User) error
	updatePasswordFn func(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	confirmEmailFn   func(ctx context.Context, id string, confirmedAt time.Time) error
	deleteByIDFn     func(ctx context.Context, id string) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if m.updatePasswordFn != nil {
		return m.updatePasswordFn(ctx, id, passwordHash, updatedAt)
	}
	return nil
}

func (m *mockUserRepo) ConfirmEmail(ctx context.Context, id string, confirmedAt time.Time) error {
	if m.confirmEmailFn != nil {
		return m.confirmEmailFn(ctx, id, confirmedAt)
	}
	return nil
}

func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

type mockSessionRepo struct {
	createFn         func(ctx context.Context, session *model.Session) error
	findByIDFn       func(ctx context.Context, id string) (*model.Session, error)
	deleteByIDFn     func(ctx context.Context, id string) error
	deleteByUserIDFn func(ctx context.Context, userID string) error
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, session)
	}
	return nil
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

func (m *mockSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	if m.deleteByUserIDFn != nil {
		return m.deleteByUserIDFn(ctx, userID)
	}
	return nil
}

type mockOTPRepo struct {
	createFn            func(ctx context.Context, code *model.OTPCode) error
	findActiveByEmailFn func(ctx context.Context, email string, now time.Time) (*model.OTPCode, error)
	incrementAttemptsFn func(ctx context.Context, id string) error
	consumeFn           func(ctx context.Context, id string, consumedAt time.Time) error
	deleteByUserIDFn    func(ctx context.Context, userID string) error
}

func (m *mockOTPRepo) Create(ctx context.Context, code *model.OTPCode) error {
	if m.createFn != nil {
		return m.createFn(ctx, code)
	}
	return nil
}

func (m *mockOTPRepo) FindActiveByEmail(ctx context.Context, email string, now time.Time) (*model.OTPCode, error) {
	if m.findActiveByEmailFn != nil {
		return m.findActiveByEmailFn(ctx, email, now)
	}
	return nil, nil
}

func (m *mockOTPRepo) IncrementAttempts(ctx context.Context, id string) error {
	if m.incrementAttemptsFn != nil {
		return m.incrementAttemptsFn(ctx, id)
	}
	return nil
}

func (m *mockOTPRepo) Consume(ctx context.Context, id string, consumedAt time.Time) error {
	if m.consumeFn != nil {
		return m.consumeFn(ctx, id, consumedAt)
	}
	return nil
}

func (m *mockOTPRepo) DeleteByUserID(ctx context.Context, userID string) error {
	if m.deleteByUserIDFn != nil {
		return m.deleteByUserIDFn(ctx, userID)
	}
	return nil
}

type mockTokenRepo struct {
	createFn         func(ctx context.Context, token *model.AuthToken) error
	findByHashFn     func(ctx context.Context, tokenHash string, now time.Time) (*model.AuthToken, error)
	consumeFn        func(ctx context.Context, id string, consumedAt time.Time) error
	deleteByUserIDFn func(ctx context.Context, userID string) error
}

func (m *mockTokenRepo) Create(ctx context.Context, token *model.AuthToken) error {
	if m.createFn != nil {
		return m.createFn(ctx, token)
	}
	return nil
}

func (m *mockTokenRepo) FindByHash(ctx context.Context, tokenHash string, now time.Time) (*model.AuthToken, error) {
	if m.findByHashFn != nil {
		return m.findByHashFn(ctx, tokenHash, now)
	}
	return nil, nil
}

func (m *mockTokenRepo) Consume(ctx context.Context, id string, consumedAt time.Time) error {
	if m.consumeFn != nil {
		return m.consumeFn(ctx, id, consumedAt)
	}
	return nil
}

func (m *mockTokenRepo) DeleteByUserID(ctx context.Context, userID string) error {
	if m.deleteByUserIDFn != nil {
		return m.deleteByUserIDFn(ctx, userID)
	}
	return nil
}

// mockMailer は送信内容を記録するメーラー。
type mockMailer struct {
	configured    bool
	otpCodes      []string
	confirmLinks  []string
	resetLinks    []string
	changedNotice int
}

func (m *mockMailer) SendOTPCode(_ context.Context, to, code string) error {
	m.otpCodes = append(m.otpCodes, code)
	return nil
}

func (m *mockMailer) SendConfirmationLink(_ context.Context, to, link string) error {
	m.confirmLinks = append(m.confirmLinks, link)
	return nil
}

func (m *mockMailer) SendResetLink(_ context.Context, to, link string) error {
	m.resetLinks = append(m.resetLinks, link)
	return nil
}

func (m *mockMailer) SendPasswordChangedNotice(_ context.Context, to string) error {
	m.changedNotice++
	return nil
}

func (m *mockMailer) Configured() bool { return m.configured }

// --- ヘルパー ---

type testDeps struct {
	userRepo    *mockUserRepo
	sessionRepo *mockSessionRepo
	otpRepo     *mockOTPRepo
	tokenRepo   *mockTokenRepo
	mailer      *mockMailer
}

func newTestService(t *testing.T, deps *testDeps, cfg ServiceConfig) *Service {
	t.Helper()
	if cfg.SessionMaxAge == 0 {
		cfg.SessionMaxAge = 24 * time.Hour
	}
	if cfg.OTPTTL == 0 {
		cfg.OTPTTL = 10 * time.Minute
	}
	if cfg.OTPMaxAttempts == 0 {
		cfg.OTPMaxAttempts = 5
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.Secret == "" {
		cfg.Secret = "test-secret"
	}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return NewService(
		deps.userRepo, deps.sessionRepo, deps.otpRepo, deps.tokenRepo,
		deps.mailer, nil, logger, cfg,
	)
}

func newTestDeps() *testDeps {
	return &testDeps{
		userRepo:    &mockUserRepo{},
		sessionRepo: &mockSessionRepo{},
		otpRepo:     &mockOTPRepo{},
		tokenRepo:   &mockTokenRepo{},
		mailer:      &mockMailer{configured: true},
	}
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return string(h)
}

func assertAPIErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *model.APIError", err)
	}
	if apiErr.Code != code {
		t.Errorf("error code = %q, want %q", apiErr.Code, code)
	}
}

// --- テスト ---

// メール確認無効時のサインアップで即座にセッションが発行されることを検証
func TestSignUp_ConfirmationsDisabled_IssuesSession(t *testing.T) {
	deps := newTestDeps()
	var created *model.User
	deps.userRepo.createFn = func(_ context.Context, u *model.User) error {
		created = u
		return nil
	}
	svc := newTestService(t, deps, ServiceConfig{EmailConfirmations: false})

	result, err := svc.SignUp(context.Background(), "taro@example.com", "password123", "太郎")
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	if result.Session == nil {
		t.Fatal("expected session to be issued")
	}
	if result.ConfirmationRequired {
		t.Error("ConfirmationRequired should be false")
	}
	if created == nil || !created.Confirmed() {
		t.Error("user should be created as confirmed")
	}
	if len(deps.mailer.confirmLinks) != 0 {
		t.Error("no confirmation mail should be sent")
	}
}

// メール確認有効時のサインアップで確認メールが送られることを検証
func TestSignUp_ConfirmationsEnabled_SendsConfirmationLink(t *testing.T) {
	deps := newTestDeps()
	var createdToken *model.AuthToken
	deps.tokenRepo.createFn = func(_ context.Context, tk *model.AuthToken) error {
		createdToken = tk
		return nil
	}
	svc := newTestService(t, deps, ServiceConfig{EmailConfirmations: true})

	result, err := svc.SignUp(context.Background(), "taro@example.com", "password123", "太郎")
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	if result.Session != nil {
		t.Error("session should not be issued before confirmation")
	}
	if !result.ConfirmationRequired {
		t.Error("ConfirmationRequired should be true")
	}
	if len(deps.mailer.confirmLinks) != 1 {
		t.Fatalf("confirmation mails = %d, want 1", len(deps.mailer.confirmLinks))
	}
	if createdToken == nil || createdToken.Type != model.TokenTypeSignup {
		t.Error("signup token should be created")
	}
}

// メール確認有効かつメーラー未設定の場合にCONFIG_REQUIREDとなることを検証
func TestSignUp_ConfirmationsEnabledWithoutMailer_ConfigRequired(t *testing.T) {
	deps := newTestDeps()
	deps.mailer.configured = false
	svc := newTestService(t, deps, ServiceConfig{EmailConfirmations: true})

	_, err := svc.SignUp(context.Background(), "taro@example.com", "password123", "太郎")
	assertAPIErrorCode(t, err, model.ErrCodeConfigRequired)
}

// パスワードログイン成功でセッションが発行されることを検証
func TestSignInWithPassword_Success(t *testing.T) {
	deps := newTestDeps()
	now := time.Now()
	deps.userRepo.findByEmailFn = func(_ context.Context, email string) (*model.User, error) {
		return &model.User{
			ID:               "user-1",
			Email:            email,
			PasswordHash:     mustHash(t, "correct-password"),
			EmailConfirmedAt: &now,
		}, nil
	}
	svc := newTestService(t, deps, ServiceConfig{})

	session, err := svc.SignInWithPassword(context.Background(), "taro@example.com", "correct-password")
	if err != nil {
		t.Fatalf("SignInWithPassword() error = %v", err)
	}
	if session == nil || session.UserID != "user-1" {
		t.Errorf("session = %+v, want UserID user-1", session)
	}
}

// パスワード不一致とユーザー不在が同一のエラーになることを検証
func TestSignInWithPassword_InvalidCredentials(t *testing.T) {
	now := time.Now()

	deps := newTestDeps()
	deps.userRepo.findByEmailFn = func(_ context.Context, email string) (*model.User, error) {
		return &model.User{
			ID:               "user-1",
			PasswordHash:     mustHash(t, "correct-password"),
			EmailConfirmedAt: &now,
		}, nil
	}
	svc := newTestService(t, deps, ServiceConfig{})

	_, err := svc.SignInWithPassword(context.Background(), "taro@example.com", "wrong-password")
	assertAPIErrorCode(t, err, model.ErrCodeInvalidCredentials)

	// ユーザー不在でも同じコード
	deps2 := newTestDeps()
	svc2 := newTestService(t, deps2, ServiceConfig{})
	_, err = svc2.SignInWithPassword(context.Background(), "unknown@example.com", "whatever")
	assertAPIErrorCode(t, err, model.ErrCodeInvalidCredentials)
}

// メール未確認ユーザーのパスワードログインが拒否されることを検証
func TestSignInWithPassword_EmailNotConfirmed(t *testing.T) {
	deps := newTestDeps()
	deps.userRepo.findByEmailFn = func(_ context.Context, email string) (*model.User, error) {
		return &model.User{
			ID:           "user-1",
			PasswordHash: mustHash(t, "correct-password"),
		}, nil
	}
	svc := newTestService(t, deps, ServiceConfig{})

	_, err := svc.SignInWithPassword(context.Background(), "taro@example.com", "correct-password")
	assertAPIErrorCode(t, err, model.ErrCodeEmailNotConfirmed)
}

// 未登録アドレスへのコード送信（作成許可なし）がUSER_NOT_FOUNDとなることを検証
func TestSendCode_UnknownEmailWithoutCreate(t *testing.T) {
	deps := newTestDeps()
	svc := newTestService(t, deps, ServiceConfig{})

	err := svc.SendCode(context.Background(), "unknown@example.com", false)
	assertAPIErrorCode(t, err, model.ErrCodeUserNotFound)
}

// 未登録アドレスへのコード送信（作成許可あり）でユーザーが作成されることを検証
func TestSendCode_UnknownEmailWithCreate(t *testing.T) {
	deps := newTestDeps()
	var created *model.User
	deps.userRepo.createFn = func(_ context.Context, u *model.User) error {
		created = u
		return nil
	}
	var otpRecord *model.OTPCode
	deps.otpRepo.createFn = func(_ context.Context, c *model.OTPCode) error {
		otpRecord = c
		return nil
	}
	svc := newTestService(t, deps, ServiceConfig{})

	if err := svc.SendCode(context.Background(), "new@example.com", true); err != nil {
		t.Fatalf("SendCode() error = %v", err)
	}
	if created == nil {
		t.Fatal("user should be created")
	}
	if created.Confirmed() {
		t.Error("created user should be unconfirmed until code verification")
	}
	if otpRecord == nil {
		t.Fatal("otp record should be created")
	}
	if len(deps.mailer.otpCodes) != 1 {
		t.Fatalf("otp mails = %d, want 1", len(deps.mailer.otpCodes))
	}
	if len(deps.mailer.otpCodes[0]) != 6 {
		t.Errorf("otp code %q should have 6 digits", deps.mailer.otpCodes[0])
	}
}

// メーラー未設定のコード送信がCONFIG_REQUIREDとなることを検証
func TestSendCode_MailerNotConfigured(t *testing.T) {
	deps := newTestDeps()
	deps.mailer.configured = false
	svc := newTestService(t, deps, ServiceConfig{})

	err := svc.SendCode(context.Background(), "taro@example.com", true)
	assertAPIErrorCode(t, err, model.ErrCodeConfigRequired)
}

// 正しいコードの検証でセッション発行とメール確認が行われることを検証
func TestVerifyCode_Success(t *testing.T) {
	deps := newTestDeps()
	svc := newTestService(t, deps, ServiceConfig{})

	consumed := false
	confirmed := false
	deps.otpRepo.findActiveByEmailFn = func(_ context.Context, email string, _ time.Time) (*model.OTPCode, error) {
		return &model.OTPCode{
			ID:       "otp-1",
			UserID:   "user-1",
			Email:    email,
			CodeHash: svc.digest("123456"),
		}, nil
	}
	deps.otpRepo.consumeFn = func(_ context.Context, id string, _ time.Time) error {
		consumed = true
		return nil
	}
	deps.userRepo.findByIDFn = func(_ context.Context, id string) (*model.User, error) {
		return &model.User{ID: id, Email: "taro@example.com"}, nil
	}
	deps.userRepo.confirmEmailFn = func(_ context.Context, id string, _ time.Time) error {
		confirmed = true
		return nil
	}

	session, err := svc.VerifyCode(context.Background(), "taro@example.com", "123456")
	if err != nil {
		t.Fatalf("VerifyCode() error = %v", err)
	}
	if session == nil || session.UserID != "user-1" {
		t.Errorf("session = %+v, want UserID user-1", session)
	}
	if !consumed {
		t.Error("code should be consumed")
	}
	if !confirmed {
		t.Error("unconfirmed user should be confirmed by code verification")
	}
}

// 誤ったコードで試行回数が増え、CODE_MISMATCHとなることを検証
func TestVerifyCode_WrongCode_IncrementsAttempts(t *testing.T) {
	deps := newTestDeps()
	svc := newTestService(t, deps, ServiceConfig{})

	incremented := false
	deps.otpRepo.findActiveByEmailFn = func(_ context.Context, email string, _ time.Time) (*model.OTPCode, error) {
		return &model.OTPCode{
			ID:       "otp-1",
			UserID:   "user-1",
			CodeHash: svc.digest("123456"),
		}, nil
	}
	deps.otpRepo.incrementAttemptsFn = func(_ context.Context, id string) error {
		incremented = true
		return nil
	}

	_, err := svc.VerifyCode(context.Background(), "taro@example.com", "654321")
	assertAPIErrorCode(t, err, model.ErrCodeCodeMismatch)
	if !incremented {
		t.Error("attempts should be incremented on mismatch")
	}
}

// 試行回数超過のコードが正しくてもCODE_MISMATCHとなることを検証
func TestVerifyCode_TooManyAttempts(t *testing.T) {
	deps := newTestDeps()
	svc := newTestService(t, deps, ServiceConfig{OTPMaxAttempts: 3})

	deps.otpRepo.findActiveByEmailFn = func(_ context.Context, email string, _ time.Time) (*model.OTPCode, error) {
		return &model.OTPCode{
			ID:       "otp-1",
			UserID:   "user-1",
			CodeHash: svc.digest("123456"),
			Attempts: 3,
		}, nil
	}

	_, err := svc.VerifyCode(context.Background(), "taro@example.com", "123456")
	assertAPIErrorCode(t, err, model.ErrCodeCodeMismatch)
}

// 有効なコードが存在しない場合にCODE_MISMATCHとなることを検証
func TestVerifyCode_NoActiveCode(t *testing.T) {
	deps := newTestDeps()
	svc := newTestService(t, deps, ServiceConfig{})

	_, err := svc.VerifyCode(context.Background(), "taro@example.com", "123456")
	assertAPIErrorCode(t, err, model.ErrCodeCodeMismatch)
}

// signupトークンの検証でメール確認とセッション発行が行われることを検証
func TestVerifyToken_SignupToken_ConfirmsEmail(t *testing.T) {
	deps := newTestDeps()
	svc := newTestService(t, deps, ServiceConfig{})

	confirmed := false
	deps.tokenRepo.findByHashFn = func(_ context.Context, tokenHash string, _ time.Time) (*model.AuthToken, error) {
		if tokenHash != svc.digest("raw-token") {
			return nil, nil
		}
		return &model.AuthToken{
			ID:     "token-1",
			UserID: "user-1",
			Type:   model.TokenTypeSignup,
		}, nil
	}
	deps.userRepo.confirmEmailFn = func(_ context.Context, id string, _ time.Time) error {
		confirmed = true
		return nil
	}

	session, err := svc.VerifyToken(context.Background(), "raw-token", model.TokenTypeSignup)
	if err != nil {
		t.Fatalf("VerifyToken() error = %v", err)
	}
	if session == nil || session.UserID != "user-1" {
		t.Errorf("session = %+v, want UserID user-1", session)
	}
	if !confirmed {
		t.Error("signup token should confirm email")
	}
}

// トークン種別の不一致がTOKEN_INVALIDとなることを検証
func TestVerifyToken_TypeMismatch(t *testing.T) {
	deps := newTestDeps()
	svc := newTestService(t, deps, ServiceConfig{})

	deps.tokenRepo.findByHashFn = func(_ context.Context, tokenHash string, _ time.Time) (*model.AuthToken, error) {
		return &model.AuthToken{
			ID:     "token-1",
			UserID: "user-1",
			Type:   model.TokenTypeSignup,
		}, nil
	}

	_, err := svc.VerifyToken(context.Background(), "raw-token", model.TokenTypeRecovery)
	assertAPIErrorCode(t, err, model.ErrCodeTokenInvalid)
}

// 不明なトークンがTOKEN_INVALIDとなることを検証
func TestVerifyToken_UnknownToken(t *testing.T) {
	deps := newTestDeps()
	svc := newTestService(t, deps, ServiceConfig{})

	_, err := svc.VerifyToken(context.Background(), "unknown", model.TokenTypeSignup)
	assertAPIErrorCode(t, err, model.ErrCodeTokenInvalid)
}

// 未登録アドレスへの再設定リンク要求が成功応答になることを検証（登録状況の秘匿）
func TestSendResetLink_UnknownEmail_SilentlySucceeds(t *testing.T) {
	deps := newTestDeps()
	svc := newTestService(t, deps, ServiceConfig{})

	if err := svc.SendResetLink(context.Background(), "unknown@example.com"); err != nil {
		t.Fatalf("SendResetLink() error = %v", err)
	}
	if len(deps.mailer.resetLinks) != 0 {
		t.Error("no mail should be sent for unknown email")
	}
}

// 既存ユーザーへの再設定リンクにrecoveryトークンが使われることを検証
func TestSendResetLink_KnownEmail_SendsRecoveryLink(t *testing.T) {
	deps := newTestDeps()
	deps.userRepo.findByEmailFn = func(_ context.Context, email string) (*model.User, error) {
		return &model.User{ID: "user-1", Email: email}, nil
	}
	var createdToken *model.AuthToken
	deps.tokenRepo.createFn = func(_ context.Context, tk *model.AuthToken) error {
		createdToken = tk
		return nil
	}
	svc := newTestService(t, deps, ServiceConfig{})

	if err := svc.SendResetLink(context.Background(), "taro@example.com"); err != nil {
		t.Fatalf("SendResetLink() error = %v", err)
	}
	if len(deps.mailer.resetLinks) != 1 {
		t.Fatalf("reset mails = %d, want 1", len(deps.mailer.resetLinks))
	}
	if createdToken == nil || createdToken.Type != model.TokenTypeRecovery {
		t.Error("recovery token should be created")
	}
}

// 現在パスワードの不一致で変更が拒否されることを検証
func TestUpdatePassword_CurrentPasswordMismatch(t *testing.T) {
	deps := newTestDeps()
	deps.userRepo.findByIDFn = func(_ context.Context, id string) (*model.User, error) {
		return &model.User{ID: id, PasswordHash: mustHash(t, "old-password")}, nil
	}
	svc := newTestService(t, deps, ServiceConfig{})

	err := svc.UpdatePassword(context.Background(), "user-1", "wrong-password", "new-password1")
	assertAPIErrorCode(t, err, model.ErrCodeInvalidCredentials)
}

// 現在パスワード省略時（再設定フロー）は照合なしで更新されることを検証
func TestUpdatePassword_RecoveryFlow_SkipsCurrentPassword(t *testing.T) {
	deps := newTestDeps()
	deps.userRepo.findByIDFn = func(_ context.Context, id string) (*model.User, error) {
		return &model.User{ID: id, Email: "taro@example.com", PasswordHash: mustHash(t, "old-password")}, nil
	}
	updated := false
	deps.userRepo.updatePasswordFn = func(_ context.Context, id, hash string, _ time.Time) error {
		updated = true
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte("new-password1")) != nil {
			t.Error("stored hash should match new password")
		}
		return nil
	}
	svc := newTestService(t, deps, ServiceConfig{})

	if err := svc.UpdatePassword(context.Background(), "user-1", "", "new-password1"); err != nil {
		t.Fatalf("UpdatePassword() error = %v", err)
	}
	if !updated {
		t.Error("password should be updated")
	}
	if deps.mailer.changedNotice != 1 {
		t.Errorf("changed notices = %d, want 1", deps.mailer.changedNotice)
	}
}

// 無効なセッションIDでGetCurrentUserがUNAUTHORIZEDとなることを検証
func TestGetCurrentUser_InvalidSession(t *testing.T) {
	deps := newTestDeps()
	svc := newTestService(t, deps, ServiceConfig{})

	_, err := svc.GetCurrentUser(context.Background(), "nonexistent")
	assertAPIErrorCode(t, err, model.ErrCodeUnauthorized)
}

// ダイジェストが鍵と入力に対して決定的であることを検証
func TestDigest_Deterministic(t *testing.T) {
	deps := newTestDeps()
	svc := newTestService(t, deps, ServiceConfig{Secret: "key-a"})
	svc2 := newTestService(t, deps, ServiceConfig{Secret: "key-b"})

	if svc.digest("123456") != svc.digest("123456") {
		t.Error("digest should be deterministic")
	}
	if svc.digest("123456") == svc2.digest("123456") {
		t.Error("digest should depend on the secret")
	}
	if !digestEqual(svc.digest("123456"), svc.digest("123456")) {
		t.Error("digestEqual should match identical digests")
	}
}

// 確認リンクがtoken_hash・type・nextパラメータを含むことを検証
func TestBuildConfirmLink_Params(t *testing.T) {
	deps := newTestDeps()
	svc := newTestService(t, deps, ServiceConfig{BaseURL: "https://cloth.example.com"})

	link, err := svc.buildConfirmLink("raw-token", model.TokenTypeRecovery, "/reset-password")
	if err != nil {
		t.Fatalf("buildConfirmLink() error = %v", err)
	}
	for _, part := range []string{
		"https://cloth.example.com/auth/confirm",
		"token_hash=raw-token",
		"type=recovery",
		"next=%2Freset-password",
	} {
		if !contains(link, part) {
			t.Errorf("link %q should contain %q", link, part)
		}
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && bytes.Contains([]byte(s), []byte(substr))
}
