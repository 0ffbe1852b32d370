package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/clothtracker/internal/model"
)

// PostgresTokenRepo はPostgreSQLを使用した確認リンクトークンリポジトリ。
type PostgresTokenRepo struct {
	db *sql.DB
}

// NewPostgresTokenRepo はPostgresTokenRepoを生成する。
func NewPostgresTokenRepo(db *sql.DB) *PostgresTokenRepo {
	return &PostgresTokenRepo{db: db}
}

// Create はトークンレコードを作成する。
func (r *PostgresTokenRepo) Create(ctx context.Context, token *model.AuthToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO auth_tokens (id, user_id, token_hash, token_type, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		token.ID, token.UserID, token.TokenHash, string(token.Type),
		token.ExpiresAt, token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert auth token: %w", err)
	}
	return nil
}

// FindByHash はダイジェストでトークンを検索する。
// 消費済み・期限切れの場合はnilを返す。
func (r *PostgresTokenRepo) FindByHash(ctx context.Context, tokenHash string, now time.Time) (*model.AuthToken, error) {
	token := &model.AuthToken{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, token_hash, token_type, expires_at, consumed_at, created_at
		 FROM auth_tokens
		 WHERE token_hash = $1 AND consumed_at IS NULL AND expires_at > $2`,
		tokenHash, now,
	).Scan(&token.ID, &token.UserID, &token.TokenHash, &token.Type,
		&token.ExpiresAt, &token.ConsumedAt, &token.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find auth token: %w", err)
	}

	return token, nil
}

// Consume はトークンを消費済みにする。
func (r *PostgresTokenRepo) Consume(ctx context.Context, id string, consumedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE auth_tokens SET consumed_at = $2 WHERE id = $1 AND consumed_at IS NULL`,
		id, consumedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to consume auth token: %w", err)
	}
	return nil
}

// DeleteByUserID はユーザーの全トークンを削除する。退会処理用。
func (r *PostgresTokenRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM auth_tokens WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user auth tokens: %w", err)
	}
	return nil
}

// compile-time interface check
var _ TokenRepository = (*PostgresTokenRepo)(nil)
