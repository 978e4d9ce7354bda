// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 実行結果ラベル（irwatch_runs_total の outcome）。
const (
	OutcomeSent       = "sent"
	OutcomeNoNewItems = "no_new_items"
	OutcomeFailed     = "failed"
)

// 企業ごとの結果ラベル（irwatch_company_results_total の result）。
const (
	ResultNew        = "new"
	ResultSuppressed = "suppressed"
	ResultMiss       = "miss"
	ResultError      = "error"
)

// メール種別ラベル（irwatch_emails_sent_total の kind）。
const (
	EmailDigest = "digest"
	EmailTest   = "test"
)

// MetricsCollector はメトリクス収集のインターフェース。
// スクレイパーと自動実行ワーカーから利用する。
type MetricsCollector interface {
	RecordRun(outcome string)
	RecordCompanyResult(result string)
	RecordHTTPStatus(statusCode int)
	RecordFetchLatency(duration time.Duration)
	RecordEmailSent(kind string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	runs           *prometheus.CounterVec
	companyResults *prometheus.CounterVec
	httpStatus     *prometheus.CounterVec
	fetchLatency   prometheus.Histogram
	emailsSent     *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "irwatch_runs_total",
			Help: "自動実行の結果別の合計数",
		}, []string{"outcome"}),
		companyResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "irwatch_company_results_total",
			Help: "企業ごとのスクレイプ結果別の合計数",
		}, []string{"result"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "irwatch_http_status_total",
			Help: "IRページ取得のHTTPステータスコード別レスポンス数",
		}, []string{"status_code"}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "irwatch_fetch_latency_seconds",
			Help:    "IRページ取得のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		emailsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "irwatch_emails_sent_total",
			Help: "種別ごとのメール送信数",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		c.runs,
		c.companyResults,
		c.httpStatus,
		c.fetchLatency,
		c.emailsSent,
	)

	return c
}

// RecordRun は1回の自動実行の結果を記録する。
func (c *Collector) RecordRun(outcome string) {
	c.runs.WithLabelValues(outcome).Inc()
}

// RecordCompanyResult は企業1社分のスクレイプ結果を記録する。
func (c *Collector) RecordCompanyResult(result string) {
	c.companyResults.WithLabelValues(result).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordFetchLatency はページ取得のレイテンシを記録する。
func (c *Collector) RecordFetchLatency(duration time.Duration) {
	c.fetchLatency.Observe(duration.Seconds())
}

// RecordEmailSent はメール送信を記録する。
func (c *Collector) RecordEmailSent(kind string) {
	c.emailsSent.WithLabelValues(kind).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// NopCollector は何も記録しないMetricsCollector。CLIの単発実行とテストで使用する。
type NopCollector struct{}

func (NopCollector) RecordRun(string) {}
func (NopCollector) RecordCompanyResult(string) {}
func (NopCollector) RecordHTTPStatus(int) {}
func (NopCollector) RecordFetchLatency(time.Duration) {}
func (NopCollector) RecordEmailSent(string) {}
