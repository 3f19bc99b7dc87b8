package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"salonbook/backend/internal/domain"
	"salonbook/backend/internal/service/scheduling"
)

func TestRecorder(t *testing.T) {
	Register()
	Register()

	r := Recorder{}
	before := testutil.ToFloat64(schedulingDecisions.WithLabelValues(scheduling.CheckBooking, string(scheduling.Reject), string(scheduling.ReasonOverlap)))
	r.ObserveDecision(scheduling.CheckBooking, scheduling.Reject, scheduling.ReasonOverlap)
	after := testutil.ToFloat64(schedulingDecisions.WithLabelValues(scheduling.CheckBooking, string(scheduling.Reject), string(scheduling.ReasonOverlap)))
	assert.Equal(t, before+1, after)

	r.ObserveTransition(domain.StatusPending, domain.StatusConfirmed)
	assert.GreaterOrEqual(t, testutil.ToFloat64(statusTransitions.WithLabelValues("pending", "confirmed")), 1.0)

	r.ObserveCacheLookup(true)
	r.ObserveCacheLookup(false)
	assert.GreaterOrEqual(t, testutil.ToFloat64(calendarCache.WithLabelValues("hit")), 1.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(calendarCache.WithLabelValues("miss")), 1.0)

	ObserveHTTPRequest("GET", "/healthz", 200, 5*time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(httpRequests, "salonbook_http_request_duration_seconds"))
}
