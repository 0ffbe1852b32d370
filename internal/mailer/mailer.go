// Package mailer は認証メール（ワンタイムコード、確認リンク、
// パスワード再設定リンク）の送信を提供する。
package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"
)

// Mailer は認証メール送信のインターフェース。
type Mailer interface {
	// SendOTPCode は6桁のワンタイムコードを送信する。
	SendOTPCode(ctx context.Context, to, code string) error
	// SendConfirmationLink はアカウント有効化用の確認リンクを送信する。
	SendConfirmationLink(ctx context.Context, to, link string) error
	// SendResetLink はパスワード再設定リンクを送信する。
	SendResetLink(ctx context.Context, to, link string) error
	// SendPasswordChangedNotice はパスワード変更の通知を送信する。
	SendPasswordChangedNotice(ctx context.Context, to string) error
	// Configured は実際にメールを配送できる設定かどうかを返す。
	// falseの場合、メール必須のフローはセットアップ誘導エラーになる。
	Configured() bool
}

// --- メール本文 ---

func otpCodeBody(code string) (subject, body string) {
	subject = "【ClothTracker】ログインコード"
	body = fmt.Sprintf(
		"ClothTrackerのログインコードは %s です。\n\n"+
			"有効期限は10分間です。このコードを他人に教えないでください。\n"+
			"心当たりがない場合は、このメールを無視してください。\n",
		code,
	)
	return subject, body
}

func confirmationLinkBody(link string) (subject, body string) {
	subject = "【ClothTracker】メールアドレスの確認"
	body = fmt.Sprintf(
		"ClothTrackerへのご登録ありがとうございます。\n\n"+
			"以下のリンクを開いて、メールアドレスの確認を完了してください。\n\n%s\n\n"+
			"心当たりがない場合は、このメールを無視してください。\n",
		link,
	)
	return subject, body
}

func resetLinkBody(link string) (subject, body string) {
	subject = "【ClothTracker】パスワード再設定"
	body = fmt.Sprintf(
		"パスワード再設定のリクエストを受け付けました。\n\n"+
			"以下のリンクを開いて、新しいパスワードを設定してください。\n\n%s\n\n"+
			"心当たりがない場合は、このメールを無視してください。パスワードは変更されません。\n",
		link,
	)
	return subject, body
}

func passwordChangedBody() (subject, body string) {
	subject = "【ClothTracker】パスワードが変更されました"
	body = "アカウントのパスワードが変更されました。\n\n" +
		"心当たりがない場合は、すぐにパスワード再設定を行ってください。\n"
	return subject, body
}

// --- SMTP実装 ---

// SMTPConfig はSMTPメーラーの設定。
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer はgo-mailを使用したSMTP経由のメーラー。
type SMTPMailer struct {
	client *mail.Client
	from   string
}

// NewSMTPMailer はSMTPMailerを生成する。
// 認証情報が設定されている場合はSMTP PLAIN認証を使用する。
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &SMTPMailer{client: client, from: cfg.From}, nil
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

// SendOTPCode は6桁のワンタイムコードを送信する。
func (m *SMTPMailer) SendOTPCode(ctx context.Context, to, code string) error {
	subject, body := otpCodeBody(code)
	return m.send(ctx, to, subject, body)
}

// SendConfirmationLink はアカウント有効化用の確認リンクを送信する。
func (m *SMTPMailer) SendConfirmationLink(ctx context.Context, to, link string) error {
	subject, body := confirmationLinkBody(link)
	return m.send(ctx, to, subject, body)
}

// SendResetLink はパスワード再設定リンクを送信する。
func (m *SMTPMailer) SendResetLink(ctx context.Context, to, link string) error {
	subject, body := resetLinkBody(link)
	return m.send(ctx, to, subject, body)
}

// SendPasswordChangedNotice はパスワード変更の通知を送信する。
func (m *SMTPMailer) SendPasswordChangedNotice(ctx context.Context, to string) error {
	subject, body := passwordChangedBody()
	return m.send(ctx, to, subject, body)
}

// Configured は常にtrueを返す。
func (m *SMTPMailer) Configured() bool { return true }

// --- ログ出力フォールバック ---

// LogMailer はメールを送信せず、内容をログに出力するメーラー。
// SMTP未設定の開発環境用。Configured()はfalseを返すため、
// メール必須のフローはセットアップ誘導エラーになる。
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer はLogMailerを生成する。
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) log(kind, to, detail string) {
	m.logger.Warn("mail not sent (SMTP not configured)",
		slog.String("kind", kind),
		slog.String("to", to),
		slog.String("detail", detail),
	)
}

// SendOTPCode はコードをログに出力する。
func (m *LogMailer) SendOTPCode(_ context.Context, to, code string) error {
	m.log("otp_code", to, code)
	return nil
}

// SendConfirmationLink はリンクをログに出力する。
func (m *LogMailer) SendConfirmationLink(_ context.Context, to, link string) error {
	m.log("confirmation_link", to, link)
	return nil
}

// SendResetLink はリンクをログに出力する。
func (m *LogMailer) SendResetLink(_ context.Context, to, link string) error {
	m.log("reset_link", to, link)
	return nil
}

// SendPasswordChangedNotice は通知をログに出力する。
func (m *LogMailer) SendPasswordChangedNotice(_ context.Context, to string) error {
	m.log("password_changed", to, "")
	return nil
}

// Configured は常にfalseを返す。
func (m *LogMailer) Configured() bool { return false }

// compile-time interface checks
var (
	_ Mailer = (*SMTPMailer)(nil)
	_ Mailer = (*LogMailer)(nil)
)
