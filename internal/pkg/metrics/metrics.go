package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposed on /metrics. InitMetrics must run before any handler
// increments them; repeated calls are no-ops so tests can call it freely.
var (
	HTTPRequestsTotal *prometheus.CounterVec
	AuthFailuresTotal prometheus.Counter
	TodoOpsTotal      *prometheus.CounterVec

	initOnce sync.Once
)

// InitMetrics registers all collectors with the default registry.
func InitMetrics() {
	initOnce.Do(func() {
		HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "donelist_http_requests_total",
			Help: "HTTP requests by method and status code.",
		}, []string{"method", "status"})

		AuthFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "donelist_auth_failures_total",
			Help: "Rejected bearer tokens and failed logins.",
		})

		TodoOpsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "donelist_todo_ops_total",
			Help: "Todo operations by kind (list/create/update/delete).",
		}, []string{"op"})

		prometheus.MustRegister(HTTPRequestsTotal, AuthFailuresTotal, TodoOpsTotal)
	})
}
