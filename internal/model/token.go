package model

import "time"

// OTPCode はメールで送付する6桁のワンタイムコードを表す。
// コード本体は保存せず、HMAC-SHA256ダイジェストのみを保持する。
type OTPCode struct {
	ID         string
	UserID     string
	Email      string
	CodeHash   string
	Attempts   int
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

// TokenType は確認リンクトークンの用途を表す。
type TokenType string

const (
	// TokenTypeSignup はアカウント有効化（メール確認）用トークン。
	TokenTypeSignup TokenType = "signup"
	// TokenTypeRecovery はパスワード再設定用トークン。
	TokenTypeRecovery TokenType = "recovery"
)

// IsValid はトークン種別が定義済みのいずれかであるかを返す。
func (t TokenType) IsValid() bool {
	return t == TokenTypeSignup || t == TokenTypeRecovery
}

// AuthToken はメールに埋め込む確認リンクトークンを表す。
// トークン本体は保存せず、ダイジェストのみを保持する。消費は一度きり。
type AuthToken struct {
	ID         string
	UserID     string
	TokenHash  string
	Type       TokenType
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
}
