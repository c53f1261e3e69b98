// Package metrics exposes Prometheus metrics for HTTP traffic, votes,
// acceptances, notifications and the background task queue.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/phrazzld/answers-api/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "answers"

// Metrics holds the application's collectors. The zero value is not
// usable; create one with New.
type Metrics struct {
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	votes         *prometheus.CounterVec
	accepted      prometheus.Counter
	notifications prometheus.Counter
	taskFailures  *prometheus.CounterVec
	registerer    prometheus.Registerer
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on reg.
func New(reg prometheus.Registerer) *Metrics {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	f := promauto.With(reg)
	return &Metrics{
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		votes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_cast_total",
			Help:      "Votes recorded, by kind. Changing a vote counts again.",
		}, []string{"kind"}),
		accepted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_accepted_total",
			Help:      "Successful answer acceptances.",
		}),
		notifications: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_created_total",
			Help:      "Notifications delivered to question authors.",
		}),
		taskFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tasks",
			Name:      "failed_total",
			Help:      "Background tasks that ended in failure, by task type.",
		}, []string{"type"}),
		registerer: reg,
	}
}

// ObserveHTTPRequest records one handled request.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// VoteCast counts a recorded vote.
func (m *Metrics) VoteCast(kind domain.VoteKind) {
	m.votes.WithLabelValues(string(kind)).Inc()
}

// AnswerAccepted counts an acceptance.
func (m *Metrics) AnswerAccepted() {
	m.accepted.Inc()
}

// NotificationCreated counts a delivered notification.
func (m *Metrics) NotificationCreated() {
	m.notifications.Inc()
}

// TaskFailed counts a failed background task.
func (m *Metrics) TaskFailed(taskType string) {
	m.taskFailures.WithLabelValues(taskType).Inc()
}

// RegisterQueueDepth exposes depth as the current task queue length.
func (m *Metrics) RegisterQueueDepth(depth func() int) {
	promauto.With(m.registerer).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "tasks",
		Name:      "queue_depth",
		Help:      "Tasks waiting in the in-memory queue.",
	}, func() float64 { return float64(depth()) })
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
