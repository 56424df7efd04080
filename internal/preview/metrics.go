package preview

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsOnce      sync.Once
	messagesTotal    *prometheus.CounterVec
	droppedUpdates   *prometheus.CounterVec
	activeSessions   prometheus.Gauge
	saveDurationSecs *prometheus.HistogramVec
)

func initMetrics() {
	metricsOnce.Do(func() {
		messagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sitebuilder",
			Subsystem: "preview",
			Name:      "messages_total",
			Help:      "Preview protocol messages by direction and type",
		}, []string{"direction", "type"})

		droppedUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sitebuilder",
			Subsystem: "preview",
			Name:      "dropped_messages_total",
			Help:      "Preview messages that could not be built or delivered",
		}, []string{"reason"})

		activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "sitebuilder",
			Subsystem: "preview",
			Name:      "sessions",
			Help:      "Open preview sessions",
		})

		saveDurationSecs = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sitebuilder",
			Subsystem: "preview",
			Name:      "save_duration_seconds",
			Help:      "Duration of content saves issued by preview sessions",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"})
	})
}
