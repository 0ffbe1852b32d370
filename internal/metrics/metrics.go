// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層とミドルウェアから利用する。
type MetricsCollector interface {
	RecordAuthAttempt(flow, result string)
	RecordOTPSent()
	RecordEmailSent(kind string)
	RecordWardrobeMutation(op string)
	RecordHTTPStatus(statusCode int)
	ObserveRequestDuration(method, path string, seconds float64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	authAttempts      *prometheus.CounterVec
	otpSent           prometheus.Counter
	emailsSent        *prometheus.CounterVec
	wardrobeMutations *prometheus.CounterVec
	httpStatus        *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clothtracker_auth_attempts_total",
			Help: "認証試行の合計数（フロー種別・結果別）",
		}, []string{"flow", "result"}),
		otpSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clothtracker_otp_sent_total",
			Help: "送信されたワンタイムコードの合計数",
		}),
		emailsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clothtracker_emails_sent_total",
			Help: "送信されたメールの合計数（種別別）",
		}, []string{"kind"}),
		wardrobeMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clothtracker_wardrobe_mutations_total",
			Help: "衣類アイテムの変更操作の合計数（操作別）",
		}, []string{"op"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clothtracker_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clothtracker_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}

	reg.MustRegister(
		c.authAttempts,
		c.otpSent,
		c.emailsSent,
		c.wardrobeMutations,
		c.httpStatus,
		c.requestDuration,
	)

	return c
}

// RecordAuthAttempt は認証試行を記録する。
func (c *Collector) RecordAuthAttempt(flow, result string) {
	c.authAttempts.WithLabelValues(flow, result).Inc()
}

// RecordOTPSent はワンタイムコードの送信を記録する。
func (c *Collector) RecordOTPSent() {
	c.otpSent.Inc()
}

// RecordEmailSent はメール送信を記録する。
func (c *Collector) RecordEmailSent(kind string) {
	c.emailsSent.WithLabelValues(kind).Inc()
}

// RecordWardrobeMutation は衣類アイテムの変更操作を記録する。
func (c *Collector) RecordWardrobeMutation(op string) {
	c.wardrobeMutations.WithLabelValues(op).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// ObserveRequestDuration はHTTPリクエストの処理時間を記録する。
func (c *Collector) ObserveRequestDuration(method, path string, seconds float64) {
	c.requestDuration.WithLabelValues(method, path).Observe(seconds)
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
