// Package user はユーザーアカウントのライフサイクル管理を提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/clothtracker/internal/model"
	"github.com/hitoshi/clothtracker/internal/repository"
)

// Service はユーザーアカウント管理サービス。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	clothRepo   repository.ClothRepository
	otpRepo     repository.OTPRepository
	tokenRepo   repository.TokenRepository
	logger      *slog.Logger
}

// NewService はユーザーアカウント管理サービスを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	clothRepo repository.ClothRepository,
	otpRepo repository.OTPRepository,
	tokenRepo repository.TokenRepository,
	logger *slog.Logger,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		clothRepo:   clothRepo,
		otpRepo:     otpRepo,
		tokenRepo:   tokenRepo,
		logger:      logger,
	}
}

// Withdraw は退会処理としてユーザーと関連データを全て削除する。
//
// 衣類アイテム、ワンタイムコード、トークン、セッションの順で削除した後、
// ユーザー本体を削除する。プロフィールはユーザー削除時にCASCADEで消える。
// 途中で失敗した場合、ユーザー本体は残るため再実行で完遂できる。
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	if err := s.clothRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete cloth items: %w", err)
	}
	if err := s.otpRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete otp codes: %w", err)
	}
	if err := s.tokenRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete auth tokens: %w", err)
	}
	if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info("user withdrawn", slog.String("user_id", userID))
	return nil
}
