package middleware

import "net/http"

// NewSecurityHeadersMiddleware は全レスポンス共通のセキュリティヘッダーを
// 付与するミドルウェアを返す。JSON APIのためフレーム埋め込みは全面拒否し、
// カメラ等のブラウザ機能は一切要求しない。
func NewSecurityHeadersMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			next.ServeHTTP(w, r)
		})
	}
}
