// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 同期結果のラベル値
const (
	SyncResultCreated   = "created"
	SyncResultDuplicate = "duplicate"
	SyncResultInvalid   = "invalid"
	SyncResultNotFound  = "not_found"
	SyncResultError     = "error"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 歩数同期サービス、照合ジョブ、HTTPミドルウェアから利用する。
type MetricsCollector interface {
	RecordSync(result string)
	RecordPointsCredited(points int)
	RecordSyncLatency(duration time.Duration)
	RecordCreditsReconciled(target string, count int)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	syncTotal         *prometheus.CounterVec
	pointsCredited    prometheus.Counter
	syncLatency       prometheus.Histogram
	creditsReconciled *prometheus.CounterVec
	httpStatus        *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		syncTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stepclub_sync_total",
			Help: "結果別の歩数同期リクエスト数",
		}, []string{"result"}),
		pointsCredited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stepclub_points_credited_total",
			Help: "新規の歩数記録で獲得されたポイントの合計",
		}),
		syncLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stepclub_sync_latency_seconds",
			Help:    "歩数同期処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		creditsReconciled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stepclub_credits_reconciled_total",
			Help: "照合ジョブが再適用したクレジット数",
		}, []string{"target"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stepclub_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.syncTotal,
		c.pointsCredited,
		c.syncLatency,
		c.creditsReconciled,
		c.httpStatus,
	)

	return c
}

// RecordSync は同期結果を記録する。
func (c *Collector) RecordSync(result string) {
	c.syncTotal.WithLabelValues(result).Inc()
}

// RecordPointsCredited は獲得ポイントを加算する。
func (c *Collector) RecordPointsCredited(points int) {
	if points <= 0 {
		return
	}
	c.pointsCredited.Add(float64(points))
}

// RecordSyncLatency は同期処理のレイテンシを記録する。
func (c *Collector) RecordSyncLatency(duration time.Duration) {
	c.syncLatency.Observe(duration.Seconds())
}

// RecordCreditsReconciled は照合ジョブによる再適用数を記録する。targetは"user"または"club"。
func (c *Collector) RecordCreditsReconciled(target string, count int) {
	c.creditsReconciled.WithLabelValues(target).Add(float64(count))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// NopCollector は何も記録しないMetricsCollector。
// メトリクスを公開しないテストや、collector未指定時の既定値として使う。
type NopCollector struct{}

func (NopCollector) RecordSync(string)                   {}
func (NopCollector) RecordPointsCredited(int)            {}
func (NopCollector) RecordSyncLatency(time.Duration)     {}
func (NopCollector) RecordCreditsReconciled(string, int) {}
func (NopCollector) RecordHTTPStatus(int)                {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = NopCollector{}
)
