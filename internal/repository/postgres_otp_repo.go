package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/clothtracker/internal/model"
)

// PostgresOTPRepo はPostgreSQLを使用したワンタイムコードリポジトリ。
type PostgresOTPRepo struct {
	db *sql.DB
}

// NewPostgresOTPRepo はPostgresOTPRepoを生成する。
func NewPostgresOTPRepo(db *sql.DB) *PostgresOTPRepo {
	return &PostgresOTPRepo{db: db}
}

// Create はコードレコードを作成する。
func (r *PostgresOTPRepo) Create(ctx context.Context, code *model.OTPCode) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO otp_codes (id, user_id, email, code_hash, attempts, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		code.ID, code.UserID, code.Email, code.CodeHash,
		code.Attempts, code.ExpiresAt, code.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert otp code: %w", err)
	}
	return nil
}

// FindActiveByEmail は指定メールアドレスの未消費かつ未期限切れの
// 最新コードを取得する。見つからない場合はnilを返す。
// 再送信で複数レコードが存在する場合、有効なのは最新の1件のみ。
func (r *PostgresOTPRepo) FindActiveByEmail(ctx context.Context, email string, now time.Time) (*model.OTPCode, error) {
	code := &model.OTPCode{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, email, code_hash, attempts, expires_at, consumed_at, created_at
		 FROM otp_codes
		 WHERE email = $1 AND consumed_at IS NULL AND expires_at > $2
		 ORDER BY created_at DESC
		 LIMIT 1`,
		email, now,
	).Scan(&code.ID, &code.UserID, &code.Email, &code.CodeHash,
		&code.Attempts, &code.ExpiresAt, &code.ConsumedAt, &code.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find otp code: %w", err)
	}

	return code, nil
}

// IncrementAttempts は検証試行回数を1増やす。
func (r *PostgresOTPRepo) IncrementAttempts(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE otp_codes SET attempts = attempts + 1 WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to increment otp attempts: %w", err)
	}
	return nil
}

// Consume はコードを消費済みにする。
func (r *PostgresOTPRepo) Consume(ctx context.Context, id string, consumedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE otp_codes SET consumed_at = $2 WHERE id = $1 AND consumed_at IS NULL`,
		id, consumedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to consume otp code: %w", err)
	}
	return nil
}

// DeleteByUserID はユーザーの全コードを削除する。退会処理用。
func (r *PostgresOTPRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM otp_codes WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user otp codes: %w", err)
	}
	return nil
}

// compile-time interface check
var _ OTPRepository = (*PostgresOTPRepo)(nil)
