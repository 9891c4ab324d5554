// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordLoginAttempt(provider string, success bool)
	RecordTokenVerificationFailure()
	RecordHTTPStatus(statusCode int)
	RecordAILatency(duration time.Duration)
	RecordWordsCreated(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	loginAttempts   *prometheus.CounterVec
	tokenVerifyFail prometheus.Counter
	httpStatus      *prometheus.CounterVec
	aiLatency       prometheus.Histogram
	wordsCreated    prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lexiflow_login_attempts_total",
			Help: "プロバイダー別・結果別のOAuthログイン試行数",
		}, []string{"provider", "result"}),
		tokenVerifyFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lexiflow_token_verification_failures_total",
			Help: "セッショントークン検証失敗の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lexiflow_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		aiLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lexiflow_ai_request_latency_seconds",
			Help:    "Gemini APIリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		wordsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lexiflow_words_created_total",
			Help: "登録された単語の合計数",
		}),
	}

	reg.MustRegister(
		c.loginAttempts,
		c.tokenVerifyFail,
		c.httpStatus,
		c.aiLatency,
		c.wordsCreated,
	)

	return c
}

// RecordLoginAttempt はOAuthログイン試行をプロバイダー別・結果別に記録する。
func (c *Collector) RecordLoginAttempt(provider string, success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.loginAttempts.WithLabelValues(provider, result).Inc()
}

// RecordTokenVerificationFailure はトークン検証失敗を記録する。
func (c *Collector) RecordTokenVerificationFailure() {
	c.tokenVerifyFail.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordAILatency はGemini APIリクエストのレイテンシを記録する。
func (c *Collector) RecordAILatency(duration time.Duration) {
	c.aiLatency.Observe(duration.Seconds())
}

// RecordWordsCreated は登録された単語数を記録する。
func (c *Collector) RecordWordsCreated(count int) {
	c.wordsCreated.Add(float64(count))
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
