package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"salonbook/backend/internal/domain"
	"salonbook/backend/internal/service/scheduling"
)

const namespace = "salonbook"

var (
	once sync.Once

	schedulingDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduling_decisions_total",
			Help:      "Count of conflict checks by check, outcome and reason.",
		},
		[]string{"check", "outcome", "reason"},
	)

	statusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointment_transitions_total",
			Help:      "Count of committed appointment status changes.",
		},
		[]string{"from", "to"},
	)

	calendarCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calendar_cache_lookups_total",
			Help:      "Count of calendar cache lookups by result.",
		},
		[]string{"result"},
	)

	httpRequests = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status code.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "code"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(schedulingDecisions, statusTransitions, calendarCache, httpRequests)
	})
}

// Recorder adapts the package counters to the service observer hooks.
type Recorder struct{}

func (Recorder) ObserveDecision(check string, outcome scheduling.Outcome, reason scheduling.Reason) {
	schedulingDecisions.WithLabelValues(check, string(outcome), string(reason)).Inc()
}

func (Recorder) ObserveTransition(from, to domain.AppointmentStatus) {
	statusTransitions.WithLabelValues(string(from), string(to)).Inc()
}

func (Recorder) ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	calendarCache.WithLabelValues(result).Inc()
}

func ObserveHTTPRequest(method, route string, code int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Observe(elapsed.Seconds())
}
