package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/rawbin/pkg/codec"
	"github.com/ssargent/rawbin/pkg/convert"
	"github.com/ssargent/rawbin/pkg/reconcile"
)

func convertedOutcome(corrected bool) convert.Outcome {
	res := reconcile.Result{Expected: 400, Actual: 400, Final: 400, DurationSeconds: 10}
	h := codec.NewHeader(40, time.Unix(0, 0), time.Unix(10, 0), "v1", "SN", 10)
	if corrected {
		res = reconcile.Result{Expected: 400, Actual: 350, Final: 320, DurationSeconds: 8, Corrected: true}
		h = codec.NewHeader(40, time.Unix(0, 0), time.Unix(10, 0), "v1", "SN", 8)
	}
	return convert.Outcome{
		Input:   "in.csv",
		Output:  "in.bin",
		Status:  convert.StatusConverted,
		Result:  &convert.Result{Header: h, Reconcile: res},
		Elapsed: 250 * time.Millisecond,
	}
}

func TestNewMetrics_IndependentRegistries(t *testing.T) {
	// Registering twice in one process must not panic
	m1 := NewMetrics()
	m2 := NewMetrics()
	assert.NotSame(t, m1.Registry(), m2.Registry())
}

func TestObserveConversion(t *testing.T) {
	m := NewMetrics()

	m.ObserveConversion(convertedOutcome(false))
	m.ObserveConversion(convertedOutcome(true))
	m.ObserveConversion(convert.Outcome{Status: convert.StatusSkipped, Reason: "hidden file"})
	m.ObserveConversion(convert.Outcome{
		Status: convert.StatusFailed,
		Err:    &convert.Error{Kind: convert.HeaderParseError, Err: errors.New("bad banner")},
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.conversionsTotal.WithLabelValues("converted", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.conversionsTotal.WithLabelValues("skipped", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.conversionsTotal.WithLabelValues("failed", "header parse error")))

	assert.Equal(t, 720.0, testutil.ToFloat64(m.recordsWritten))
	assert.Equal(t, float64(4800+3840), testutil.ToFloat64(m.payloadBytes))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.truncationsTotal))
	assert.Equal(t, 30.0, testutil.ToFloat64(m.droppedRecords))
	assert.Equal(t, 1, testutil.CollectAndCount(m.conversionDuration))
}

func TestInstrumentHandler(t *testing.T) {
	m := NewMetrics()
	handler := m.InstrumentHandler("GET", "/teapot", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	handler(rr, httptest.NewRequest("GET", "/teapot", nil))

	assert.Equal(t, http.StatusTeapot, rr.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/teapot", "418")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.httpRequestsInFlight.WithLabelValues("GET", "/teapot")))
}

func TestInstrumentAuthMiddleware(t *testing.T) {
	m := NewMetrics()
	deny := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-API-Key") != "good" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
	handler := m.InstrumentAuthMiddleware(deny)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for _, key := range []string{"good", "bad", ""} {
		req := httptest.NewRequest("GET", "/", nil)
		if key != "" {
			req.Header.Set("X-API-Key", key)
		}
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(m.authRequestsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authRequestsTotal.WithLabelValues("error")))
}

func TestHandler(t *testing.T) {
	m := NewMetrics()
	m.RecordHealthCheck(true)
	m.ObserveConversion(convertedOutcome(false))

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "rawbin_health_checks_total")
	assert.Contains(t, string(body), "rawbin_records_written_total 400")
}
