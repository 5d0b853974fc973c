package task

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments scheduler activity. All methods are safe on a nil
// receiver, so instrumentation is strictly optional: pass nil to
// NewScheduler and every update becomes a no-op.
type Metrics struct {
	submitted *prometheus.CounterVec
	finished  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	pending   prometheus.Gauge
	running   prometheus.Gauge
	swept     prometheus.Counter
}

// NewMetrics registers the scheduler metric family on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		submitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vibeedit",
			Subsystem: "scheduler",
			Name:      "tasks_submitted_total",
			Help:      "Tasks accepted by Submit, labeled by task name.",
		}, []string{"name"}),
		finished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vibeedit",
			Subsystem: "scheduler",
			Name:      "tasks_finished_total",
			Help:      "Tasks that reached a terminal state, labeled by task name and final status.",
		}, []string{"name", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vibeedit",
			Subsystem: "scheduler",
			Name:      "task_duration_seconds",
			Help:      "Wall time from claim to terminal state.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 14),
		}, []string{"name"}),
		pending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "vibeedit",
			Subsystem: "scheduler",
			Name:      "tasks_pending",
			Help:      "Tasks currently waiting for a worker.",
		}),
		running: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "vibeedit",
			Subsystem: "scheduler",
			Name:      "tasks_running",
			Help:      "Tasks currently executing on a worker.",
		}),
		swept: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "vibeedit",
			Subsystem: "scheduler",
			Name:      "tasks_swept_total",
			Help:      "Terminal tasks removed by retention sweeps.",
		}),
	}
}

func (m *Metrics) taskSubmitted(name string) {
	if m == nil {
		return
	}
	m.submitted.WithLabelValues(name).Inc()
	m.pending.Inc()
}

func (m *Metrics) taskClaimed() {
	if m == nil {
		return
	}
	m.pending.Dec()
	m.running.Inc()
}

func (m *Metrics) taskFinished(name string, status Status, d time.Duration) {
	if m == nil {
		return
	}
	m.running.Dec()
	m.finished.WithLabelValues(name, string(status)).Inc()
	m.duration.WithLabelValues(name).Observe(d.Seconds())
}

func (m *Metrics) taskCancelled(name string) {
	if m == nil {
		return
	}
	m.pending.Dec()
	m.finished.WithLabelValues(name, string(StatusCancelled)).Inc()
}

func (m *Metrics) tasksSwept(count int) {
	if m == nil || count == 0 {
		return
	}
	m.swept.Add(float64(count))
}
