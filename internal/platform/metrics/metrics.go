// Package metrics 定义 Prometheus 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bizledger_http_requests_total",
	Help: "HTTP requests by method, route and status.",
}, []string{"method", "route", "status"})

var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "bizledger_http_request_duration_seconds",
	Help:    "HTTP request latency by route.",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "route"})

var LedgerWrites = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bizledger_ledger_writes_total",
	Help: "Ledger entry write operations by operation and result.",
}, []string{"op", "result"})

var BalancesRecomputed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "bizledger_balances_recomputed_total",
	Help: "Ledger entries whose balance snapshot was rewritten after a delete.",
})

var AggregatedRows = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "bizledger_aggregated_rows",
	Help:    "Rows returned per customer ledger aggregation.",
	Buckets: prometheus.ExponentialBuckets(1, 4, 8),
})

// ObserveWrite 记录一次写操作的结果
func ObserveWrite(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	LedgerWrites.WithLabelValues(op, result).Inc()
}
