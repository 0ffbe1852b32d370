package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func newTestRateLimiter(t *testing.T, config RateLimiterConfig) *RateLimiter {
	t.Helper()
	rl := NewRateLimiter(config)
	t.Cleanup(rl.Stop)
	return rl
}

// バースト超過で429が返ることを検証
func TestGeneralMiddleware_BurstExceeded(t *testing.T) {
	rl := newTestRateLimiter(t, RateLimiterConfig{
		GeneralRate:     rate.Limit(1.0 / 60.0),
		GeneralBurst:    2,
		EmailSendRate:   rate.Limit(1),
		EmailSendBurst:  1,
		CleanupInterval: time.Minute,
	})

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/clothes", nil)
		req = req.WithContext(ContextWithUserID(req.Context(), "user-1"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := do(); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	rec := do()
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header should be set")
	}
}

// ユーザーごとに独立して制限されることを検証
func TestGeneralMiddleware_PerUserIsolation(t *testing.T) {
	rl := newTestRateLimiter(t, RateLimiterConfig{
		GeneralRate:     rate.Limit(1.0 / 60.0),
		GeneralBurst:    1,
		EmailSendRate:   rate.Limit(1),
		EmailSendBurst:  1,
		CleanupInterval: time.Minute,
	})

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(userID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/clothes", nil)
		req = req.WithContext(ContextWithUserID(req.Context(), userID))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := do("user-1"); rec.Code != http.StatusOK {
		t.Fatalf("user-1 first request: status = %d, want 200", rec.Code)
	}
	if rec := do("user-1"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("user-1 second request: status = %d, want 429", rec.Code)
	}
	if rec := do("user-2"); rec.Code != http.StatusOK {
		t.Errorf("user-2 should not be affected: status = %d, want 200", rec.Code)
	}

	if got := rl.GeneralLimiterCount(); got != 2 {
		t.Errorf("GeneralLimiterCount() = %d, want 2", got)
	}
}

// ユーザーID未設定のリクエストが401になることを検証
func TestGeneralMiddleware_MissingUserID(t *testing.T) {
	rl := newTestRateLimiter(t, DefaultRateLimiterConfig())

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/clothes", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

// 送信系制限が接続元IPをキーにすることを検証
func TestEmailSendMiddleware_KeyedByIP(t *testing.T) {
	rl := newTestRateLimiter(t, RateLimiterConfig{
		GeneralRate:     rate.Limit(1),
		GeneralBurst:    1,
		EmailSendRate:   rate.Limit(1.0 / 60.0),
		EmailSendBurst:  1,
		CleanupInterval: time.Minute,
	})

	handler := rl.EmailSendMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/otp", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := do("192.0.2.1:1234"); rec.Code != http.StatusOK {
		t.Fatalf("first request: status = %d, want 200", rec.Code)
	}
	// 同一IPの別ポートも同じキーに落ちる
	if rec := do("192.0.2.1:5678"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("same IP: status = %d, want 429", rec.Code)
	}
	if rec := do("192.0.2.2:1234"); rec.Code != http.StatusOK {
		t.Errorf("different IP: status = %d, want 200", rec.Code)
	}

	if got := rl.EmailSendLimiterCount(); got != 2 {
		t.Errorf("EmailSendLimiterCount() = %d, want 2", got)
	}
}

// 期限切れエントリのクリーンアップを検証
func TestLimiterPool_Cleanup(t *testing.T) {
	pool := newLimiterPool(rate.Limit(1), 1)
	pool.get("stale")
	pool.get("fresh")

	pool.mu.Lock()
	pool.limiters["stale"].lastAccess = time.Now().Add(-time.Hour)
	pool.mu.Unlock()

	pool.cleanup(time.Now(), 10*time.Minute)

	if got := pool.count(); got != 1 {
		t.Errorf("count() = %d after cleanup, want 1", got)
	}
}
