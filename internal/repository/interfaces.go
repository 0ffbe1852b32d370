// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/clothtracker/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	// メールアドレスが重複している場合はALREADY_REGISTEREDエラーを返す。
	Create(ctx context.Context, user *model.User) error

	// UpdatePassword はパスワードハッシュを更新する。
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error

	// ConfirmEmail はメール確認日時を記録する。確認済みの場合は上書きしない。
	ConfirmEmail(ctx context.Context, id string, confirmedAt time.Time) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するprofiles、sessions等はCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// ProfileRepository はプロフィールデータの永続化インターフェース。
type ProfileRepository interface {
	// FindByID は指定ユーザーIDのプロフィールを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Profile, error)

	// Create はプロフィールを作成する。
	Create(ctx context.Context, profile *model.Profile) error

	// UpdateFullName は表示名を更新する。メールアドレスは不変。
	UpdateFullName(ctx context.Context, id, fullName string, updatedAt time.Time) error

	// ListAll は全プロフィールをcreated_at降順で返す。管理画面用。
	ListAll(ctx context.Context) ([]*model.Profile, error)
}

// ClothRepository は衣類アイテムの永続化インターフェース。
// ユーザーデータ分離のため、全クエリにuser_id条件を付与する。
type ClothRepository interface {
	// FindByID は指定ユーザーが所有するアイテムを取得する。
	// 見つからない場合（他ユーザー所有を含む）はnilを返す。
	FindByID(ctx context.Context, userID, itemID string) (*model.ClothItem, error)

	// ListByUserID はユーザーの全アイテムをcreated_at降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.ClothItem, error)

	// Create はアイテムを作成する。
	Create(ctx context.Context, item *model.ClothItem) error

	// UpdateFields は可変フィールド（名前・色・種類等）を上書きする。区分は変更しない。
	UpdateFields(ctx context.Context, userID, itemID string, fields model.ClothFields, updatedAt time.Time) error

	// UpdateCategory はアイテムの区分を更新する。
	// 現在と同じ区分への更新も許可される（冪等な無操作）。
	UpdateCategory(ctx context.Context, userID, itemID string, category model.Category, updatedAt time.Time) error

	// Delete は指定ユーザーが所有するアイテムを削除する。
	Delete(ctx context.Context, userID, itemID string) error

	// DeleteByUserID はユーザーの全アイテムを削除する。退会処理用。
	DeleteByUserID(ctx context.Context, userID string) error
}

// OTPRepository はワンタイムコードの永続化インターフェース。
type OTPRepository interface {
	// Create はコードレコードを作成する。
	Create(ctx context.Context, code *model.OTPCode) error

	// FindActiveByEmail は指定メールアドレスの未消費かつ未期限切れの
	// 最新コードを取得する。見つからない場合はnilを返す。
	FindActiveByEmail(ctx context.Context, email string, now time.Time) (*model.OTPCode, error)

	// IncrementAttempts は検証試行回数を1増やす。
	IncrementAttempts(ctx context.Context, id string) error

	// Consume はコードを消費済みにする。
	Consume(ctx context.Context, id string, consumedAt time.Time) error

	// DeleteByUserID はユーザーの全コードを削除する。退会処理用。
	DeleteByUserID(ctx context.Context, userID string) error
}

// TokenRepository は確認リンクトークンの永続化インターフェース。
type TokenRepository interface {
	// Create はトークンレコードを作成する。
	Create(ctx context.Context, token *model.AuthToken) error

	// FindByHash はダイジェストでトークンを検索する。
	// 消費済み・期限切れの場合はnilを返す。
	FindByHash(ctx context.Context, tokenHash string, now time.Time) (*model.AuthToken, error)

	// Consume はトークンを消費済みにする。
	Consume(ctx context.Context, id string, consumedAt time.Time) error

	// DeleteByUserID はユーザーの全トークンを削除する。退会処理用。
	DeleteByUserID(ctx context.Context, userID string) error
}
