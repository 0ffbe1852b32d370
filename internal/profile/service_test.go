package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/clothtracker/internal/model"
	"github.com/hitoshi/clothtracker/internal/security"
)

// --- モック定義 ---

type mockProfileRepo struct {
	findByIDFn       func(ctx context.Context, id string) (*model.Profile, error)
	createFn         func(ctx context.Context, profile *model.Profile) error
	updateFullNameFn func(ctx context.Context, id, fullName string, updatedAt time.Time) error
	listAllFn        func(ctx context.Context) ([]*model.Profile, error)
}

func (m *mockProfileRepo) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockProfileRepo) Create(ctx context.Context, profile *model.Profile) error {
	if m.createFn != nil {
		return m.createFn(ctx, profile)
	}
	return nil
}

func (m *mockProfileRepo) UpdateFullName(ctx context.Context, id, fullName string, updatedAt time.Time) error {
	if m.updateFullNameFn != nil {
		return m.updateFullNameFn(ctx, id, fullName, updatedAt)
	}
	return nil
}

func (m *mockProfileRepo) ListAll(ctx context.Context) ([]*model.Profile, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx)
	}
	return nil, nil
}

type mockUserRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error { return nil }

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	return nil
}

func (m *mockUserRepo) ConfirmEmail(ctx context.Context, id string, confirmedAt time.Time) error {
	return nil
}

func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) error { return nil }

func newTestService(profileRepo *mockProfileRepo, userRepo *mockUserRepo) *Service {
	return NewService(profileRepo, userRepo, security.NewFieldSanitizer())
}

func assertAPIErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *model.APIError", err)
	}
	if apiErr.Code != code {
		t.Errorf("error code = %q, want %q", apiErr.Code, code)
	}
}

// --- テスト ---

// 既存プロフィールがそのまま返ることを検証
func TestGet_ReturnsExistingProfile(t *testing.T) {
	createCalled := false
	profileRepo := &mockProfileRepo{
		findByIDFn: func(_ context.Context, id string) (*model.Profile, error) {
			return &model.Profile{ID: id, Email: "taro@example.com", FullName: "太郎"}, nil
		},
		createFn: func(_ context.Context, _ *model.Profile) error {
			createCalled = true
			return nil
		},
	}
	svc := newTestService(profileRepo, &mockUserRepo{})

	p, err := svc.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if p.FullName != "太郎" {
		t.Errorf("FullName = %q, want 太郎", p.FullName)
	}
	if createCalled {
		t.Error("existing profile must not trigger lazy creation")
	}
}

// プロフィール未作成時にユーザー情報から遅延作成されることを検証
func TestGet_LazilyCreatesFromUser(t *testing.T) {
	var created *model.Profile
	profileRepo := &mockProfileRepo{
		createFn: func(_ context.Context, p *model.Profile) error {
			created = p
			return nil
		},
	}
	userRepo := &mockUserRepo{
		findByIDFn: func(_ context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Email: "taro@example.com", Name: "太郎"}, nil
		},
	}
	svc := newTestService(profileRepo, userRepo)

	p, err := svc.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if created == nil {
		t.Fatal("profile should be lazily created")
	}
	if created.ID != "user-1" || created.Email != "taro@example.com" || created.FullName != "太郎" {
		t.Errorf("created = %+v", created)
	}
	if p.ID != "user-1" {
		t.Errorf("returned profile ID = %q, want user-1", p.ID)
	}
}

// 存在しないユーザーのプロフィール取得が未検出となることを検証
func TestGet_UserNotFound(t *testing.T) {
	svc := newTestService(&mockProfileRepo{}, &mockUserRepo{})

	_, err := svc.Get(context.Background(), "missing")
	assertAPIErrorCode(t, err, model.ErrCodeUserNotFound)
}

// 表示名の更新がサニタイズを通して保存されることを検証
func TestUpdateFullName_SanitizesAndSaves(t *testing.T) {
	var saved string
	profileRepo := &mockProfileRepo{
		findByIDFn: func(_ context.Context, id string) (*model.Profile, error) {
			return &model.Profile{ID: id, FullName: saved}, nil
		},
		updateFullNameFn: func(_ context.Context, id, fullName string, _ time.Time) error {
			saved = fullName
			return nil
		},
	}
	svc := newTestService(profileRepo, &mockUserRepo{})

	if _, err := svc.UpdateFullName(context.Background(), "user-1", "<b>太郎</b> "); err != nil {
		t.Fatalf("UpdateFullName() error = %v", err)
	}
	if saved != "太郎" {
		t.Errorf("saved full name = %q, want 太郎", saved)
	}
}

// サニタイズ後に空になる表示名が拒否されることを検証
func TestUpdateFullName_EmptyRejected(t *testing.T) {
	profileRepo := &mockProfileRepo{
		findByIDFn: func(_ context.Context, id string) (*model.Profile, error) {
			return &model.Profile{ID: id}, nil
		},
	}
	svc := newTestService(profileRepo, &mockUserRepo{})

	_, err := svc.UpdateFullName(context.Background(), "user-1", "<script></script>")
	assertAPIErrorCode(t, err, model.ErrCodeValidationFailed)
}

// 存在しないユーザーの表示名更新が未検出となることを検証
func TestUpdateFullName_UserNotFound(t *testing.T) {
	svc := newTestService(&mockProfileRepo{}, &mockUserRepo{})

	_, err := svc.UpdateFullName(context.Background(), "missing", "太郎")
	assertAPIErrorCode(t, err, model.ErrCodeUserNotFound)
}

// 全プロフィール一覧の取得を検証
func TestListAll(t *testing.T) {
	profileRepo := &mockProfileRepo{
		listAllFn: func(_ context.Context) ([]*model.Profile, error) {
			return []*model.Profile{{ID: "a"}, {ID: "b"}}, nil
		},
	}
	svc := newTestService(profileRepo, &mockUserRepo{})

	profiles, err := svc.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(profiles) != 2 {
		t.Errorf("profiles = %d, want 2", len(profiles))
	}
}
