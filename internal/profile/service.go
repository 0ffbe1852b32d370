// Package profile はユーザープロフィールの管理機能を提供する。
package profile

import (
	"context"
	"time"

	"github.com/hitoshi/clothtracker/internal/model"
	"github.com/hitoshi/clothtracker/internal/repository"
	"github.com/hitoshi/clothtracker/internal/security"
)

// Service はプロフィール管理サービス。
type Service struct {
	profileRepo repository.ProfileRepository
	userRepo    repository.UserRepository
	sanitizer   security.FieldSanitizerService
}

// NewService はプロフィール管理サービスを生成する。
func NewService(profileRepo repository.ProfileRepository, userRepo repository.UserRepository, sanitizer security.FieldSanitizerService) *Service {
	return &Service{
		profileRepo: profileRepo,
		userRepo:    userRepo,
		sanitizer:   sanitizer,
	}
}

// Get はユーザーのプロフィールを取得する。
//
// レコードが存在しない場合は、ユーザー情報から初期プロフィールを
// その場で作成して返す（遅延作成）。登録経路によってはプロフィール
// 作成を経ずにユーザーだけが存在するため。
func (s *Service) Get(ctx context.Context, userID string) (*model.Profile, error) {
	p, err := s.profileRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	now := time.Now()
	p = &model.Profile{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.profileRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateFullName は表示名を更新し、更新後のプロフィールを返す。
// メールアドレスは変更できない。
func (s *Service) UpdateFullName(ctx context.Context, userID, fullName string) (*model.Profile, error) {
	// 未作成でも更新対象が存在するよう、先に遅延作成を通す
	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}

	fullName = s.sanitizer.Sanitize(fullName)
	if fullName == "" {
		return nil, model.NewValidationError("表示名を入力してください。")
	}

	if err := s.profileRepo.UpdateFullName(ctx, userID, fullName, time.Now()); err != nil {
		return nil, err
	}
	return s.profileRepo.FindByID(ctx, userID)
}

// ListAll は全ユーザーのプロフィールを登録の新しい順で返す。管理画面用。
func (s *Service) ListAll(ctx context.Context) ([]*model.Profile, error) {
	return s.profileRepo.ListAll(ctx)
}
