// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// EmailConfirmedAtがnilの場合、メールアドレスは未確認。
type User struct {
	ID               string
	Email            string
	Name             string
	PasswordHash     string
	EmailConfirmedAt *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Confirmed はメールアドレスが確認済みかどうかを返す。
func (u *User) Confirmed() bool {
	return u.EmailConfirmedAt != nil
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Profile はユーザーと1対1で対応する公開プロフィールを表す。
// IDはusersテーブルのIDと同一。メールアドレスは不変で、
// 変更可能なのは表示名（FullName）のみ。
type Profile struct {
	ID        string
	Email     string
	FullName  string
	AvatarURL string
	CreatedAt time.Time
	UpdatedAt time.Time
}
