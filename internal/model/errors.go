// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, wardrobe, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeEmailNotConfirmed  = "EMAIL_NOT_CONFIRMED"
	ErrCodeAlreadyRegistered  = "ALREADY_REGISTERED"
	ErrCodeCodeMismatch       = "CODE_MISMATCH"
	ErrCodeTokenInvalid       = "TOKEN_INVALID"
	ErrCodeConfigRequired     = "CONFIG_REQUIRED"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeInvalidCategory    = "INVALID_CATEGORY"
	ErrCodeItemNotFound       = "ITEM_NOT_FOUND"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
)

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認するか、ワンタイムコードでのログインをお試しください。",
	}
}

// NewCurrentPasswordMismatchError はパスワード変更時の現在パスワード不一致エラーを生成する。
func NewCurrentPasswordMismatchError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "現在のパスワードが正しくありません。",
		Category: "auth",
		Action:   "現在のパスワードを確認して再度お試しください。",
	}
}

// NewEmailNotConfirmedError はメール未確認エラーを生成する。
// パスワードログインでのみ発生し、確認メールの再送またはOTPログインへの誘導を含む。
func NewEmailNotConfirmedError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailNotConfirmed,
		Message:  "メールアドレスが未確認のためログインできません。",
		Category: "auth",
		Action:   "受信トレイの確認リンクを開くか、確認メールの再送またはコードログインをお試しください。",
	}
}

// NewAlreadyRegisteredError はメールアドレス重複エラーを生成する。
func NewAlreadyRegisteredError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyRegistered,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "auth",
		Action:   "ログインするか、パスワード再設定をお試しください。",
	}
}

// NewCodeMismatchError はワンタイムコード不一致・期限切れエラーを生成する。
// コード不一致と期限切れを区別しない（本人確認サービスの応答仕様に合わせる）。
func NewCodeMismatchError() *APIError {
	return &APIError{
		Code:     ErrCodeCodeMismatch,
		Message:  "コードが正しくないか、有効期限が切れています。",
		Category: "auth",
		Action:   "コードを確認するか、再送信ボタンで新しいコードを取得してください。",
	}
}

// NewTokenInvalidError は確認リンクトークンの無効エラーを生成する。
func NewTokenInvalidError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenInvalid,
		Message:  "確認リンクが無効か、有効期限が切れています。",
		Category: "auth",
		Action:   "確認メールを再送して新しいリンクをお試しください。",
	}
}

// NewConfigRequiredError はメール確認設定と選択フローの不整合エラーを生成する。
// デプロイ設定の問題でありアプリケーションの不具合ではないため、
// 対処手順への誘導をActionに含める。
func NewConfigRequiredError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeConfigRequired,
		Message:  fmt.Sprintf("サーバー設定の変更が必要です: %s", reason),
		Category: "system",
		Action:   "セットアップガイド（/api/setup/status）の手順に従って設定を確認してください。",
	}
}

// NewValidationError は入力値検証エラーを生成する。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  message,
		Category: "validation",
		Action:   "入力内容を修正して再度お試しください。",
	}
}

// NewInvalidCategoryError は無効な区分エラーを生成する。
func NewInvalidCategoryError(category string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCategory,
		Message:  fmt.Sprintf("無効な区分です: %s", category),
		Category: "validation",
		Action:   "区分には fresh、wearing、dirty のいずれかを指定してください。",
	}
}

// NewItemNotFoundError はアイテム未検出エラーを生成する。
func NewItemNotFoundError(itemID string) *APIError {
	return &APIError{
		Code:     ErrCodeItemNotFound,
		Message:  fmt.Sprintf("指定されたアイテムが見つかりません: %s", itemID),
		Category: "wardrobe",
		Action:   "一覧を再読み込みしてから再度お試しください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "メールアドレスを確認するか、新規登録してください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}
