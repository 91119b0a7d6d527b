package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EncodeRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trihash_encode_requests_total",
		Help: "Total number of encode requests (cached or computed)",
	})
	EncodeDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "trihash_encode_duration_ms",
		Help:    "Encode duration in milliseconds, cache lookups included",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 50},
	})
	EncodeErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trihash_encode_errors_total",
		Help: "Total encode failures by error kind",
	}, []string{"kind"})
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trihash_cache_hits_total",
		Help: "Total cache hits by layer (lru, redis)",
	}, []string{"layer"})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trihash_cache_misses_total",
		Help: "Total lookups that missed every cache layer",
	})
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trihash_http_requests_total",
		Help: "Total API requests by route and status class",
	}, []string{"route", "code"})
	IngestRowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trihash_ingest_rows_total",
		Help: "Ingested rows by result (ok, skipped)",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(EncodeRequestsTotal)
	prometheus.MustRegister(EncodeDurationMs)
	prometheus.MustRegister(EncodeErrorsTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(IngestRowsTotal)
}

// 文档注释：返回 Prometheus 指标监听器
// 背景：统一暴露注册指标到 /metrics 路径，供 Prometheus 抓取；在主入口挂载。
func Handler() http.Handler { return promhttp.Handler() }
