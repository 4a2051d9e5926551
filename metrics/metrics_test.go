package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.ObserveRequest("join-challenge", http.MethodPost, http.StatusOK)
	m.ObserveRequest("join-challenge", http.MethodPost, http.StatusOK)
	m.ObserveRequest("join-challenge", http.MethodPost, http.StatusBadRequest)
	m.ObserveBackend("get_challenge", "ok")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ActionRequests.WithLabelValues("join-challenge", "POST", "OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActionRequests.WithLabelValues("join-challenge", "POST", "Bad Request")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendRequests.WithLabelValues("get_challenge", "ok")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveBuild("side-bet", 120*time.Millisecond)
	m.ObserveRPC("getLatestBlockhash", 30*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `blinks_transaction_build_seconds_count{action="side-bet"} 1`)
	assert.Contains(t, string(body), `blinks_solana_rpc_call_latency_seconds_count{method="getLatestBlockhash"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestInstancesAreIsolated(t *testing.T) {
	a, b := New(), New()
	a.ObserveBackend("x", "ok")
	assert.Equal(t, 0.0, testutil.ToFloat64(b.BackendRequests.WithLabelValues("x", "ok")))
}
