package repository

import "testing"

// 各リポジトリがインターフェースを満たすことをコンパイル時に確認する。
var (
	_ UserRepository    = (*PostgresUserRepo)(nil)
	_ SessionRepository = (*PostgresSessionRepo)(nil)
	_ ProfileRepository = (*PostgresProfileRepo)(nil)
	_ ClothRepository   = (*PostgresClothRepo)(nil)
	_ OTPRepository     = (*PostgresOTPRepo)(nil)
	_ TokenRepository   = (*PostgresTokenRepo)(nil)
)

// 各コンストラクタが非nilのリポジトリを返すことを検証
func TestNewRepos_ReturnNonNil(t *testing.T) {
	if NewPostgresUserRepo(nil) == nil {
		t.Error("NewPostgresUserRepo returned nil")
	}
	if NewPostgresSessionRepo(nil) == nil {
		t.Error("NewPostgresSessionRepo returned nil")
	}
	if NewPostgresProfileRepo(nil) == nil {
		t.Error("NewPostgresProfileRepo returned nil")
	}
	if NewPostgresClothRepo(nil) == nil {
		t.Error("NewPostgresClothRepo returned nil")
	}
	if NewPostgresOTPRepo(nil) == nil {
		t.Error("NewPostgresOTPRepo returned nil")
	}
	if NewPostgresTokenRepo(nil) == nil {
		t.Error("NewPostgresTokenRepo returned nil")
	}
}
