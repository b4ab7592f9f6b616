package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveSessions    prometheus.Gauge
	SessionEvents     *prometheus.CounterVec
	Turns             *prometheus.CounterVec
	TurnLatency       prometheus.Histogram
	RemindersSet      *prometheus.CounterVec
	RemindersFired    prometheus.Counter
	WSMessages        *prometheus.CounterVec
	AttachmentsStaged *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of chat sessions currently held in memory.",
		}),
		SessionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session lifecycle events by type.",
		}, []string{"event"}),
		Turns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Completed chat turns by outcome.",
		}, []string{"outcome"}),
		TurnLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_latency_ms",
			Help:      "End-to-end turn latency in milliseconds.",
			Buckets:   []float64{100, 300, 700, 1500, 3000, 6000, 12000, 30000},
		}),
		RemindersSet: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_set_total",
			Help:      "Reminders created, by where they ended up.",
		}, []string{"target"}),
		RemindersFired: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_fired_total",
			Help:      "Local reminders that reached their fire time.",
		}),
		WSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket messages by direction and type.",
		}, []string{"direction", "type"}),
		AttachmentsStaged: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attachments_staged_total",
			Help:      "Attachments staged for the next turn, by kind.",
		}, []string{"kind"}),
	}
}

func (m *Metrics) ObserveTurnLatency(d time.Duration) {
	m.TurnLatency.Observe(float64(d.Milliseconds()))
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
