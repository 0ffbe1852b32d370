// Package cleanup は認証データの自動削除ジョブを提供する。
// 期限切れセッション、消費済み・期限切れのワンタイムコードと
// 確認リンクトークンを定期バッチで削除する。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// CleanupJob は期限切れ認証データの自動削除ジョブ。
// 定期実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	db     Executor
	logger *slog.Logger
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(db Executor, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		db:     db,
		logger: logger,
	}
}

// Run は期限切れの認証データを削除する。
//
// 対象は期限切れセッション、消費済みまたは期限切れのワンタイムコード、
// 消費済みまたは期限切れの確認リンクトークン。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	sessions, err := j.deleteExpired(ctx,
		`DELETE FROM sessions WHERE expires_at < now()`)
	if err != nil {
		return fmt.Errorf("セッションクリーンアップの実行に失敗: %w", err)
	}

	otpCodes, err := j.deleteExpired(ctx,
		`DELETE FROM otp_codes WHERE consumed_at IS NOT NULL OR expires_at < now()`)
	if err != nil {
		return fmt.Errorf("ワンタイムコードクリーンアップの実行に失敗: %w", err)
	}

	tokens, err := j.deleteExpired(ctx,
		`DELETE FROM auth_tokens WHERE consumed_at IS NOT NULL OR expires_at < now()`)
	if err != nil {
		return fmt.Errorf("トークンクリーンアップの実行に失敗: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("認証データクリーンアップジョブが完了しました",
		slog.Int64("deleted_sessions", sessions),
		slog.Int64("deleted_otp_codes", otpCodes),
		slog.Int64("deleted_tokens", tokens),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

func (j *CleanupJob) deleteExpired(ctx context.Context, query string) (int64, error) {
	result, err := j.db.ExecContext(ctx, query)
	if err != nil {
		j.logger.Error("クリーンアップクエリの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return 0, err
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除件数の取得に失敗: %w", err)
	}
	return deleted, nil
}
