package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/clothtracker_test")
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("BASE_URL", "http://localhost:8080")
}

// 必須環境変数が全て設定されている場合に読み込みが成功することを検証
func TestLoad_Success(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DatabaseURL != "postgres://localhost/clothtracker_test" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.SessionSecret != "test-secret" {
		t.Errorf("SessionSecret = %q", cfg.SessionSecret)
	}
}

// 必須環境変数の欠落がエラーになることを検証
func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("BASE_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should fail when required variables are missing")
	}
	if !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Errorf("error = %v, should name DATABASE_URL", err)
	}
}

// 任意項目のデフォルト値を検証
func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.SessionMaxAge != 86400 {
		t.Errorf("SessionMaxAge = %d, want 86400", cfg.SessionMaxAge)
	}
	if !cfg.EmailConfirmations {
		t.Error("EmailConfirmations should default to true")
	}
	if cfg.OTPTTL != 10*time.Minute {
		t.Errorf("OTPTTL = %v, want 10m", cfg.OTPTTL)
	}
	if cfg.OTPMaxAttempts != 5 {
		t.Errorf("OTPMaxAttempts = %d, want 5", cfg.OTPMaxAttempts)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL = %v, want 24h", cfg.TokenTTL)
	}
	if cfg.SMTPPort != 587 {
		t.Errorf("SMTPPort = %d, want 587", cfg.SMTPPort)
	}
	if cfg.RateLimitGeneral != 120 {
		t.Errorf("RateLimitGeneral = %d, want 120", cfg.RateLimitGeneral)
	}
	if cfg.RateLimitEmailSend != 5 {
		t.Errorf("RateLimitEmailSend = %d, want 5", cfg.RateLimitEmailSend)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.CleanupInterval != time.Hour {
		t.Errorf("CleanupInterval = %v, want 1h", cfg.CleanupInterval)
	}
	if cfg.CORSAllowedOrigin != "http://localhost:3000" {
		t.Errorf("CORSAllowedOrigin = %q", cfg.CORSAllowedOrigin)
	}
}

// CookieSecureがBASE_URLのスキームから導出されることを検証
func TestLoad_CookieSecure_DerivedFromBaseURL(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CookieSecure {
		t.Error("CookieSecure should be false for http BASE_URL")
	}

	t.Setenv("BASE_URL", "https://cloth.example.com")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.CookieSecure {
		t.Error("CookieSecure should be true for https BASE_URL")
	}
}

// 環境変数による上書きを検証
func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("EMAIL_CONFIRMATIONS", "false")
	t.Setenv("OTP_TTL", "5m")
	t.Setenv("OTP_MAX_ATTEMPTS", "3")
	t.Setenv("SMTP_HOST", "smtp.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.EmailConfirmations {
		t.Error("EmailConfirmations should be false")
	}
	if cfg.OTPTTL != 5*time.Minute {
		t.Errorf("OTPTTL = %v, want 5m", cfg.OTPTTL)
	}
	if cfg.OTPMaxAttempts != 3 {
		t.Errorf("OTPMaxAttempts = %d, want 3", cfg.OTPMaxAttempts)
	}
	if cfg.SMTPHost != "smtp.example.com" {
		t.Errorf("SMTPHost = %q", cfg.SMTPHost)
	}
}

// 不正な値はデフォルトにフォールバックすることを検証
func TestLoad_InvalidValuesFallBack(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SESSION_MAX_AGE", "not-a-number")
	t.Setenv("OTP_TTL", "bogus")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SessionMaxAge != 86400 {
		t.Errorf("SessionMaxAge = %d, want default 86400", cfg.SessionMaxAge)
	}
	if cfg.OTPTTL != 10*time.Minute {
		t.Errorf("OTPTTL = %v, want default 10m", cfg.OTPTTL)
	}
}
