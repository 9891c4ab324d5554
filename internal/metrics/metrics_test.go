package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordLoginAttempt_IncrementsCounterWithLabels はログイン試行カウンタがラベル付きで増加することを検証する。
func TestRecordLoginAttempt_IncrementsCounterWithLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLoginAttempt("github", true)
	c.RecordLoginAttempt("github", true)
	c.RecordLoginAttempt("google", false)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "lexiflow_login_attempts_total" {
			found = true
			if len(mf.GetMetric()) != 2 {
				t.Fatalf("expected 2 label combinations, got %d", len(mf.GetMetric()))
			}
			for _, m := range mf.GetMetric() {
				labels := map[string]string{}
				for _, l := range m.GetLabel() {
					labels[l.GetName()] = l.GetValue()
				}
				val := m.GetCounter().GetValue()
				switch {
				case labels["provider"] == "github" && labels["result"] == "success":
					if val != 2 {
						t.Errorf("login_attempts{github,success} = %v, want 2", val)
					}
				case labels["provider"] == "google" && labels["result"] == "failure":
					if val != 1 {
						t.Errorf("login_attempts{google,failure} = %v, want 1", val)
					}
				default:
					t.Errorf("unexpected label combination: %v", labels)
				}
			}
		}
	}
	if !found {
		t.Error("lexiflow_login_attempts_total metric not found")
	}
}

// TestRecordTokenVerificationFailure_IncrementsCounter はトークン検証失敗カウンタが増加することを検証する。
func TestRecordTokenVerificationFailure_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordTokenVerificationFailure()
	c.RecordTokenVerificationFailure()
	c.RecordTokenVerificationFailure()

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "lexiflow_token_verification_failures_total" {
			found = true
			val := mf.GetMetric()[0].GetCounter().GetValue()
			if val != 3 {
				t.Errorf("token_verification_failures_total = %v, want 3", val)
			}
		}
	}
	if !found {
		t.Error("lexiflow_token_verification_failures_total metric not found")
	}
}

// TestRecordHTTPStatus_IncrementsCounterWithLabel はHTTPステータスカウンタがラベル付きで増加することを検証する。
func TestRecordHTTPStatus_IncrementsCounterWithLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(401)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "lexiflow_http_status_total" {
			found = true
			if len(mf.GetMetric()) != 2 {
				t.Fatalf("expected 2 label combinations, got %d", len(mf.GetMetric()))
			}
			for _, m := range mf.GetMetric() {
				label := m.GetLabel()[0].GetValue()
				val := m.GetCounter().GetValue()
				switch label {
				case "200":
					if val != 2 {
						t.Errorf("http_status_total{status_code=200} = %v, want 2", val)
					}
				case "401":
					if val != 1 {
						t.Errorf("http_status_total{status_code=401} = %v, want 1", val)
					}
				default:
					t.Errorf("unexpected label value: %s", label)
				}
			}
		}
	}
	if !found {
		t.Error("lexiflow_http_status_total metric not found")
	}
}

// TestRecordAILatency_ObservesHistogram はAIレイテンシのヒストグラムに値が記録されることを検証する。
func TestRecordAILatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordAILatency(500 * time.Millisecond)
	c.RecordAILatency(3 * time.Second)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "lexiflow_ai_request_latency_seconds" {
			found = true
			h := mf.GetMetric()[0].GetHistogram()
			if h.GetSampleCount() != 2 {
				t.Errorf("sample_count = %d, want 2", h.GetSampleCount())
			}
			// 合計は0.5 + 3.0 = 3.5秒
			if h.GetSampleSum() < 3.4 || h.GetSampleSum() > 3.6 {
				t.Errorf("sample_sum = %v, want ~3.5", h.GetSampleSum())
			}
		}
	}
	if !found {
		t.Error("lexiflow_ai_request_latency_seconds metric not found")
	}
}

// TestRecordWordsCreated_IncrementsCounter は単語登録カウンタが増加することを検証する。
func TestRecordWordsCreated_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordWordsCreated(1)
	c.RecordWordsCreated(4)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "lexiflow_words_created_total" {
			found = true
			val := mf.GetMetric()[0].GetCounter().GetValue()
			if val != 5 {
				t.Errorf("words_created_total = %v, want 5", val)
			}
		}
	}
	if !found {
		t.Error("lexiflow_words_created_total metric not found")
	}
}

// TestMetricsHandler_ReturnsPrometheusFormat は/metricsエンドポイントがPrometheus形式で返すことを検証する。
func TestMetricsHandler_ReturnsPrometheusFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	// いくつかのメトリクスを記録
	c.RecordLoginAttempt("github", true)
	c.RecordTokenVerificationFailure()
	c.RecordHTTPStatus(200)
	c.RecordAILatency(500 * time.Millisecond)
	c.RecordWordsCreated(3)

	handler := Handler(reg)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	bodyStr := string(body)

	// Prometheus形式のメトリクスが含まれていることを確認
	expectedMetrics := []string{
		"lexiflow_login_attempts_total",
		"lexiflow_token_verification_failures_total",
		"lexiflow_http_status_total",
		"lexiflow_ai_request_latency_seconds",
		"lexiflow_words_created_total",
	}

	for _, metric := range expectedMetrics {
		if !strings.Contains(bodyStr, metric) {
			t.Errorf("response body does not contain %q", metric)
		}
	}
}

// TestCollector_ImplementsMetricsCollectorInterface はCollectorがMetricsCollectorインターフェースを実装することを検証する。
func TestCollector_ImplementsMetricsCollectorInterface(t *testing.T) {
	reg := prometheus.NewRegistry()
	var _ MetricsCollector = NewCollector(reg)
}
