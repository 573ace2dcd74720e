package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestRecorderCountsOutcomes checks counters per outcome label.
func TestRecorderCountsOutcomes(t *testing.T) {
	r := NewRecorder()
	r.ObserveRequest(OutcomeSucceeded, 2*time.Second, 1024)
	r.ObserveRequest(OutcomeFailed, time.Second, 0)
	r.ObserveRejected()
	r.ObserveRejected()

	if got := testutil.ToFloat64(r.submissions.WithLabelValues(OutcomeSucceeded)); got != 1 {
		t.Fatalf("succeeded = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.submissions.WithLabelValues(OutcomeRejected)); got != 2 {
		t.Fatalf("rejected = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.resultBytes); got != 1024 {
		t.Fatalf("bytes = %v, want 1024", got)
	}
	if got := testutil.CollectAndCount(r.requestDuration); got != 2 {
		t.Fatalf("duration series = %d, want 2", got)
	}
}

// TestRecorderInFlight checks the gauge returns to zero.
func TestRecorderInFlight(t *testing.T) {
	r := NewRecorder()
	done := r.Begin()
	if got := testutil.ToFloat64(r.inFlight); got != 1 {
		t.Fatalf("in flight = %v, want 1", got)
	}
	done()
	if got := testutil.ToFloat64(r.inFlight); got != 0 {
		t.Fatalf("in flight = %v, want 0", got)
	}
}

// TestRecorderHandler checks the exposition endpoint lists merge metrics.
func TestRecorderHandler(t *testing.T) {
	r := NewRecorder()
	r.ObserveRejected()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, Path, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `merge_submissions_total{outcome="rejected"} 1`) {
		t.Fatalf("metrics body missing rejected counter:\n%s", rec.Body.String())
	}
}
