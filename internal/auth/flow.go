package auth

import (
	"context"
	"regexp"

	"github.com/hitoshi/clothtracker/internal/model"
)

// Variant は認証フォームの種別を表す。
type Variant string

const (
	// VariantPassword はパスワードのみの即時認証。
	VariantPassword Variant = "password"
	// VariantLink は確認リンクを必須とする認証。
	VariantLink Variant = "link"
	// VariantOTP はワンタイムコードのみの認証。
	VariantOTP Variant = "otp"
	// VariantHybrid はパスワードとコードを併用できる認証。
	// パスワードが入力されていればパスワード認証、空ならコード認証になる。
	VariantHybrid Variant = "hybrid"
)

// IsValid はフォーム種別が定義済みのいずれかであるかを返す。
func (v Variant) IsValid() bool {
	switch v {
	case VariantPassword, VariantLink, VariantOTP, VariantHybrid:
		return true
	}
	return false
}

// Mode は認証フローの目的を表す。
type Mode string

const (
	// ModeLogin は既存アカウントへのログイン。
	ModeLogin Mode = "login"
	// ModeSignup は新規登録。
	ModeSignup Mode = "signup"
	// ModeForgotPassword はパスワード再設定。
	ModeForgotPassword Mode = "forgot-password"
)

// IsValid はモードが定義済みのいずれかであるかを返す。
func (m Mode) IsValid() bool {
	switch m {
	case ModeLogin, ModeSignup, ModeForgotPassword:
		return true
	}
	return false
}

// Step はフロー内の進行段階を表す。
type Step string

const (
	// StepCollectingIdentifier はメールアドレス（と必要ならパスワード）の入力段階。
	StepCollectingIdentifier Step = "collecting-identifier"
	// StepCollectingCode はメールで送ったコードの入力段階。
	StepCollectingCode Step = "collecting-code"
)

// FlowInput はフローへの入力。段階によって使われる項目が異なる。
type FlowInput struct {
	Email    string
	Password string
	FullName string
	Code     string
}

// FlowResult はフロー操作の結果。
//
// Stepは次にUIが表示すべき段階。Redirectが非空の場合、認証は完了して
// おり、UIはその先へ遷移する。Sessionは認証完了時のみ非nil。
type FlowResult struct {
	Step        Step
	Redirect    string
	Message     string
	MaskedEmail string
	Session     *model.Session
}

// Flow は認証フォームの状態機械。
//
// 1リクエスト = 1操作のステートレスAPIの上で動くため、Flowは
// リクエストごとに生成され、段階はクライアントが保持して再開する。
type Flow struct {
	svc     *Service
	variant Variant
	mode    Mode
	step    Step
	email   string
}

// NewFlow は初期段階（collecting-identifier）のフローを生成する。
func NewFlow(svc *Service, variant Variant, mode Mode) (*Flow, error) {
	if !variant.IsValid() {
		return nil, model.NewValidationError("無効なフォーム種別です。")
	}
	if !mode.IsValid() {
		return nil, model.NewValidationError("無効なモードです。")
	}
	return &Flow{
		svc:     svc,
		variant: variant,
		mode:    mode,
		step:    StepCollectingIdentifier,
	}, nil
}

// ResumeFlow はコード入力段階からフローを再開する。
// コード検証・再送はこの形で再構築したフローに対して行う。
func ResumeFlow(svc *Service, variant Variant, mode Mode, email string) (*Flow, error) {
	f, err := NewFlow(svc, variant, mode)
	if err != nil {
		return nil, err
	}
	if email == "" {
		return nil, model.NewValidationError("メールアドレスを入力してください。")
	}
	f.step = StepCollectingCode
	f.email = email
	return f, nil
}

// Step は現在の段階を返す。
func (f *Flow) Step() Step { return f.step }

// SubmitIdentifier はメールアドレス（と必要ならパスワード）を受け付け、
// フォーム種別とモードに応じた認証操作を実行する。
//
// コード送信に進んだ場合はStepCollectingCodeとマスク済みメールアドレスを、
// 認証が完了した場合はRedirectとSessionを返す。
func (f *Flow) SubmitIdentifier(ctx context.Context, input FlowInput) (*FlowResult, error) {
	if f.step != StepCollectingIdentifier {
		return nil, model.NewValidationError("この操作は現在の段階では実行できません。")
	}
	if input.Email == "" {
		return nil, model.NewValidationError("メールアドレスを入力してください。")
	}

	switch f.mode {
	case ModeForgotPassword:
		return f.submitForgotPassword(ctx, input)
	case ModeSignup:
		return f.submitSignup(ctx, input)
	default:
		return f.submitLogin(ctx, input)
	}
}

func (f *Flow) submitLogin(ctx context.Context, input FlowInput) (*FlowResult, error) {
	// hybridではパスワードが入力されているかどうかで経路が決まる。
	// 空の場合のフォールバックは行わず、常に明示的なコード送信になる。
	usePassword := f.variant == VariantPassword || f.variant == VariantLink ||
		(f.variant == VariantHybrid && input.Password != "")

	if usePassword {
		if input.Password == "" {
			return nil, model.NewValidationError("パスワードを入力してください。")
		}
		session, err := f.svc.SignInWithPassword(ctx, input.Email, input.Password)
		if err != nil {
			return nil, err
		}
		return &FlowResult{
			Redirect: "/dashboard",
			Session:  session,
		}, nil
	}

	// otpログインは未登録アドレスにも送信し、検証成功時に登録を兼ねる
	if err := f.svc.SendCode(ctx, input.Email, true); err != nil {
		return nil, err
	}
	return f.advanceToCode(input.Email), nil
}

func (f *Flow) submitSignup(ctx context.Context, input FlowInput) (*FlowResult, error) {
	if f.variant == VariantOTP {
		if err := f.svc.SendCode(ctx, input.Email, true); err != nil {
			return nil, err
		}
		return f.advanceToCode(input.Email), nil
	}

	if input.Password == "" {
		return nil, model.NewValidationError("パスワードを入力してください。")
	}
	result, err := f.svc.SignUp(ctx, input.Email, input.Password, input.FullName)
	if err != nil {
		return nil, err
	}

	if result.ConfirmationRequired {
		return &FlowResult{
			Step:        StepCollectingIdentifier,
			Message:     "確認メールを送信しました。受信トレイのリンクを開いて登録を完了してください。",
			MaskedEmail: maskEmail(input.Email),
		}, nil
	}
	return &FlowResult{
		Redirect: "/dashboard",
		Session:  result.Session,
	}, nil
}

func (f *Flow) submitForgotPassword(ctx context.Context, input FlowInput) (*FlowResult, error) {
	if f.variant == VariantOTP || f.variant == VariantHybrid {
		// 再設定目的のコードは既存ユーザーにのみ送る
		if err := f.svc.SendCode(ctx, input.Email, false); err != nil {
			return nil, err
		}
		return f.advanceToCode(input.Email), nil
	}

	if err := f.svc.SendResetLink(ctx, input.Email); err != nil {
		return nil, err
	}
	return &FlowResult{
		Step:        StepCollectingIdentifier,
		Message:     "再設定メールを送信しました。受信トレイのリンクを開いてください。",
		MaskedEmail: maskEmail(input.Email),
	}, nil
}

func (f *Flow) advanceToCode(email string) *FlowResult {
	f.step = StepCollectingCode
	f.email = email
	return &FlowResult{
		Step:        StepCollectingCode,
		Message:     "コードを送信しました。メールを確認してください。",
		MaskedEmail: maskEmail(email),
	}
}

// SubmitCode は受信したワンタイムコードを検証する。
//
// 検証失敗時はエラーを返し、段階はStepCollectingCodeのまま変わらない。
// 成功時はモードに応じた遷移先とセッションを返す。
func (f *Flow) SubmitCode(ctx context.Context, code string) (*FlowResult, error) {
	if f.step != StepCollectingCode {
		return nil, model.NewValidationError("先にメールアドレスを送信してください。")
	}
	if code == "" {
		return nil, model.NewValidationError("コードを入力してください。")
	}

	session, err := f.svc.VerifyCode(ctx, f.email, code)
	if err != nil {
		return nil, err
	}

	redirect := "/dashboard"
	if f.mode == ModeForgotPassword {
		redirect = "/reset-password"
	}
	return &FlowResult{
		Redirect: redirect,
		Session:  session,
	}, nil
}

// Resend は同じメールアドレスに新しいコードを送り直す。
// 以前のコードはそのまま期限切れを待つが、有効なのは常に最新の1件のみ。
func (f *Flow) Resend(ctx context.Context) (*FlowResult, error) {
	if f.step != StepCollectingCode {
		return nil, model.NewValidationError("先にメールアドレスを送信してください。")
	}

	allowCreate := f.mode != ModeForgotPassword
	if err := f.svc.SendCode(ctx, f.email, allowCreate); err != nil {
		return nil, err
	}
	return &FlowResult{
		Step:        StepCollectingCode,
		Message:     "コードを再送しました。メールを確認してください。",
		MaskedEmail: maskEmail(f.email),
	}, nil
}

var maskEmailPattern = regexp.MustCompile(`^(.{2})(.*)(@.*)$`)

// maskEmail はメールアドレスのローカル部を先頭2文字だけ残してマスクする。
// 例: "taro@example.com" → "ta***@example.com"。
// ローカル部が2文字以下の場合はマスクせずそのまま返す。
func maskEmail(email string) string {
	m := maskEmailPattern.FindStringSubmatch(email)
	if m == nil || m[2] == "" {
		return email
	}
	return m[1] + "***" + m[3]
}
