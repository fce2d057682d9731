package observability

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestObserveAPICountsRequestsAndServerErrors(t *testing.T) {
	m := NewMetrics()
	m.ObserveAPI("GET", "/v1/courses", 200, 20*time.Millisecond)
	m.ObserveAPI("GET", "/v1/courses", 200, 30*time.Millisecond)
	m.ObserveAPI("POST", "/v1/orders/:id/pay", 500, time.Second)

	if got := m.apiRequests.Value("GET", "/v1/courses", "200"); got != 2 {
		t.Fatalf("requests: want=2 got=%v", got)
	}
	if got := m.apiReqError.Value("/v1/orders/:id/pay"); got != 1 {
		t.Fatalf("errors: want=1 got=%v", got)
	}
	if got := m.apiReqError.Value("/v1/courses"); got != 0 {
		t.Fatalf("errors: want=0 got=%v", got)
	}
}

func TestWritePrometheusExposition(t *testing.T) {
	m := NewMetrics()
	m.IncCheckout("paid")
	m.IncQuizAttempt(true)
	m.IncQuizAttempt(false)
	m.ObserveAPI("GET", "/healthcheck", 200, 5*time.Millisecond)

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"# TYPE ch_checkout_total counter",
		`ch_checkout_total{outcome="paid"} 1.000000`,
		`ch_quiz_attempts_total{result="failed"} 1.000000`,
		`ch_api_request_duration_seconds_bucket{method="GET",route="/healthcheck",le="0.01"} 1`,
		`ch_api_request_duration_seconds_bucket{method="GET",route="/healthcheck",le="+Inf"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/", 200, time.Millisecond)
	m.IncCheckout("paid")
	m.APIInflightInc()

	rec := httptest.NewRecorder()
	m.WriteHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: want=503 got=%d", rec.Code)
	}
}

func TestLabelEscaping(t *testing.T) {
	got := labelString([]string{"route"}, []string{`a"b`})
	if got != `{route="a\"b"}` {
		t.Fatalf("unexpected label string %s", got)
	}
	if withLe("", "1") != `{le="1"}` {
		t.Fatalf("unexpected le label")
	}
}
