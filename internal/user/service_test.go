package user

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/hitoshi/clothtracker/internal/model"
)

// --- モック定義 ---
// 退会処理で呼ばれるメソッドだけを差し替え、呼び出し順を記録する。

type mockUserRepo struct {
	calls      *[]string
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

func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) error {
	*m.calls = append(*m.calls, "user")
	return nil
}

type mockSessionRepo struct {
	calls          *[]string
	deleteByUserFn func(ctx context.Context, userID string) error
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error { return nil }

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	return nil, nil
}

func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error { return nil }

func (m *mockSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	if m.deleteByUserFn != nil {
		return m.deleteByUserFn(ctx, userID)
	}
	*m.calls = append(*m.calls, "session")
	return nil
}

type mockClothRepo struct {
	calls *[]string
}

func (m *mockClothRepo) FindByID(ctx context.Context, userID, itemID string) (*model.ClothItem, error) {
	return nil, nil
}

func (m *mockClothRepo) ListByUserID(ctx context.Context, userID string) ([]*model.ClothItem, error) {
	return nil, nil
}

func (m *mockClothRepo) Create(ctx context.Context, item *model.ClothItem) error { return nil }

func (m *mockClothRepo) UpdateFields(ctx context.Context, userID, itemID string, fields model.ClothFields, updatedAt time.Time) error {
	return nil
}

func (m *mockClothRepo) UpdateCategory(ctx context.Context, userID, itemID string, category model.Category, updatedAt time.Time) error {
	return nil
}

func (m *mockClothRepo) Delete(ctx context.Context, userID, itemID string) error { return nil }

func (m *mockClothRepo) DeleteByUserID(ctx context.Context, userID string) error {
	*m.calls = append(*m.calls, "cloth")
	return nil
}

type mockOTPRepo struct {
	calls *[]string
}

func (m *mockOTPRepo) Create(ctx context.Context, code *model.OTPCode) error { return nil }

func (m *mockOTPRepo) FindActiveByEmail(ctx context.Context, email string, now time.Time) (*model.OTPCode, error) {
	return nil, nil
}

func (m *mockOTPRepo) IncrementAttempts(ctx context.Context, id string) error { return nil }

func (m *mockOTPRepo) Consume(ctx context.Context, id string, consumedAt time.Time) error {
	return nil
}

func (m *mockOTPRepo) DeleteByUserID(ctx context.Context, userID string) error {
	*m.calls = append(*m.calls, "otp")
	return nil
}

type mockTokenRepo struct {
	calls *[]string
}

func (m *mockTokenRepo) Create(ctx context.Context, token *model.AuthToken) error { return nil }

func (m *mockTokenRepo) FindByHash(ctx context.Context, tokenHash string, now time.Time) (*model.AuthToken, error) {
	return nil, nil
}

func (m *mockTokenRepo) Consume(ctx context.Context, id string, consumedAt time.Time) error {
	return nil
}

func (m *mockTokenRepo) DeleteByUserID(ctx context.Context, userID string) error {
	*m.calls = append(*m.calls, "token")
	return nil
}

type testDeps struct {
	calls       []string
	userRepo    *mockUserRepo
	sessionRepo *mockSessionRepo
	clothRepo   *mockClothRepo
	otpRepo     *mockOTPRepo
	tokenRepo   *mockTokenRepo
}

func newTestDeps() *testDeps {
	d := &testDeps{}
	d.userRepo = &mockUserRepo{calls: &d.calls}
	d.sessionRepo = &mockSessionRepo{calls: &d.calls}
	d.clothRepo = &mockClothRepo{calls: &d.calls}
	d.otpRepo = &mockOTPRepo{calls: &d.calls}
	d.tokenRepo = &mockTokenRepo{calls: &d.calls}
	return d
}

func newTestService(d *testDeps) *Service {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return NewService(d.userRepo, d.sessionRepo, d.clothRepo, d.otpRepo, d.tokenRepo, logger)
}

// --- テスト ---

// 退会処理が関連データをユーザー本体より先に削除することを検証
func TestWithdraw_DeletesRelatedDataFirst(t *testing.T) {
	deps := newTestDeps()
	deps.userRepo.findByIDFn = func(_ context.Context, id string) (*model.User, error) {
		return &model.User{ID: id, Email: "taro@example.com"}, nil
	}
	svc := newTestService(deps)

	if err := svc.Withdraw(context.Background(), "user-1"); err != nil {
		t.Fatalf("Withdraw() error = %v", err)
	}

	want := []string{"cloth", "otp", "token", "session", "user"}
	if len(deps.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", deps.calls, want)
	}
	for i, name := range want {
		if deps.calls[i] != name {
			t.Errorf("calls[%d] = %q, want %q", i, deps.calls[i], name)
		}
	}
}

// 存在しないユーザーの退会が未検出となることを検証
func TestWithdraw_UserNotFound(t *testing.T) {
	deps := newTestDeps()
	svc := newTestService(deps)

	err := svc.Withdraw(context.Background(), "missing")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Fatalf("error = %v, want USER_NOT_FOUND", err)
	}
	if len(deps.calls) != 0 {
		t.Errorf("no deletion should occur: %v", deps.calls)
	}
}

// 途中の削除失敗でユーザー本体が残ることを検証
func TestWithdraw_FailureKeepsUserRecord(t *testing.T) {
	deps := newTestDeps()
	deps.userRepo.findByIDFn = func(_ context.Context, id string) (*model.User, error) {
		return &model.User{ID: id}, nil
	}
	deps.sessionRepo.deleteByUserFn = func(_ context.Context, _ string) error {
		return errors.New("db down")
	}
	svc := newTestService(deps)

	err := svc.Withdraw(context.Background(), "user-1")
	if err == nil {
		t.Fatal("Withdraw() should propagate the repository error")
	}
	for _, c := range deps.calls {
		if c == "user" {
			t.Error("user record must not be deleted after a failure")
		}
	}
}
