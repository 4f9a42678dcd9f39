package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveUpstream(t *testing.T) {
	UpstreamRequests.Reset()

	ObserveUpstream("lighter", "latest_rates", time.Now(), nil)
	ObserveUpstream("lighter", "latest_rates", time.Now(), errors.New("boom"))
	ObserveUpstream("lighter", "latest_rates", time.Now(), nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(UpstreamRequests.WithLabelValues("lighter", "latest_rates", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(UpstreamRequests.WithLabelValues("lighter", "latest_rates", OutcomeError)))
}

func TestObserveCache(t *testing.T) {
	CacheLookups.Reset()

	ObserveCache(true)
	ObserveCache(false)
	ObserveCache(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(CacheLookups.WithLabelValues("miss")))
}

func TestObserveIngest(t *testing.T) {
	IngestRuns.Reset()
	IngestLastSuccess.Set(0)

	now := time.Unix(1_700_000_000, 0)
	ObserveIngest(now, nil)
	ObserveIngest(now.Add(time.Minute), errors.New("upstream down"))

	assert.Equal(t, 1.0, testutil.ToFloat64(IngestRuns.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(IngestRuns.WithLabelValues(OutcomeError)))
	assert.Equal(t, float64(now.Unix()), testutil.ToFloat64(IngestLastSuccess))
}

func TestHandlerExposesCollectors(t *testing.T) {
	LiveSessions.Set(3)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "perpdash_chart_live_sessions 3")
}
