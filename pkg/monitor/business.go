package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds the mediation-core metrics
type BusinessMetrics struct {
	RequestsTotal         *prometheus.CounterVec
	RequestErrorsTotal    *prometheus.CounterVec
	ActionsCreatedTotal   *prometheus.CounterVec
	ActionsCompletedTotal *prometheus.CounterVec
	ApprovalLatency       *prometheus.HistogramVec
	PendingActions        prometheus.Gauge
	ConnectedPages        prometheus.Gauge
}

// Global Metrics Instance
var Business *BusinessMetrics

// Init registers the business metrics
func Init() {
	if Business != nil {
		return
	}
	Business = &BusinessMetrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_provider_requests_total",
			Help: "The total number of provider requests dispatched",
		}, []string{"method"}),
		RequestErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_provider_request_errors_total",
			Help: "The total number of provider requests answered with an error",
		}, []string{"method", "code"}),
		ActionsCreatedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_actions_created_total",
			Help: "The total number of approval actions created",
		}, []string{"method"}),
		ActionsCompletedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_actions_completed_total",
			Help: "The total number of actions reaching a terminal status",
		}, []string{"method", "status"}),
		ApprovalLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wallet_approval_latency_seconds",
			Help:    "Time between action creation and terminal status",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"method"}),
		PendingActions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "wallet_pending_actions",
			Help: "Number of actions currently awaiting user approval",
		}),
		ConnectedPages: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "wallet_connected_pages",
			Help: "Number of pages with an open event subscription",
		}),
	}
}
