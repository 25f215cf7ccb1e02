// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 決済インテント作成の結果ラベル
const (
	IntentCreated         = "created"
	IntentInvalidArgument = "invalid_argument"
	IntentUpstreamFailure = "upstream_failure"
)

// 決済確定の結果ラベル
const (
	SettlementCommitted   = "committed"
	SettlementCartMissing = "cart_missing"
	SettlementFailed      = "failed"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPRequest(method string, statusCode int, duration time.Duration)
	RecordGateRejection(code string)
	RecordPaymentIntent(outcome string, duration time.Duration)
	RecordSettlement(outcome string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests   *prometheus.CounterVec
	httpLatency    prometheus.Histogram
	gateRejections *prometheus.CounterVec
	paymentIntents *prometheus.CounterVec
	intentLatency  prometheus.Histogram
	settlements    *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "summercamp_http_requests_total",
			Help: "メソッドとステータスコード別のHTTPリクエスト数",
		}, []string{"method", "status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "summercamp_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		gateRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "summercamp_gate_rejections_total",
			Help: "認証・認可・レート制限で打ち切ったリクエスト数",
		}, []string{"code"}),
		paymentIntents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "summercamp_payment_intents_total",
			Help: "結果別の決済インテント作成数",
		}, []string{"outcome"}),
		intentLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "summercamp_payment_intent_latency_seconds",
			Help:    "決済プロバイダー呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "summercamp_settlements_total",
			Help: "結果別の決済確定数",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.gateRejections,
		c.paymentIntents,
		c.intentLatency,
		c.settlements,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストの結果と処理時間を記録する。
func (c *Collector) RecordHTTPRequest(method string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.Observe(duration.Seconds())
}

// RecordGateRejection はゲートでの打ち切りをエラーコード別に記録する。
func (c *Collector) RecordGateRejection(code string) {
	c.gateRejections.WithLabelValues(code).Inc()
}

// RecordPaymentIntent は決済インテント作成の結果を記録する。
// プロバイダーを呼び出さなかった場合のdurationは0で、レイテンシには含めない。
func (c *Collector) RecordPaymentIntent(outcome string, duration time.Duration) {
	c.paymentIntents.WithLabelValues(outcome).Inc()
	if duration > 0 {
		c.intentLatency.Observe(duration.Seconds())
	}
}

// RecordSettlement は決済確定の結果を記録する。
func (c *Collector) RecordSettlement(outcome string) {
	c.settlements.WithLabelValues(outcome).Inc()
}

// statusRecorder はhttp.ResponseWriterをラップし、ステータスコードを記録する。
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

// Middleware は全リクエストの件数と処理時間を記録するミドルウェアを返す。
func Middleware(c MetricsCollector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)
			c.RecordHTTPRequest(r.Method, rec.statusCode, time.Since(start))
		})
	}
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// NopCollector は何も記録しないMetricsCollector。テストやメトリクス無効時に使う。
type NopCollector struct{}

func (NopCollector) RecordHTTPRequest(string, int, time.Duration) {}
func (NopCollector) RecordGateRejection(string)                   {}
func (NopCollector) RecordPaymentIntent(string, time.Duration)    {}
func (NopCollector) RecordSettlement(string)                      {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = NopCollector{}
)
