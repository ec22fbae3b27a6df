package prometheus

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goCred "github.com/MrEthical07/goCred"
	"github.com/MrEthical07/goCred/store/memory"
)

type fakeSource struct {
	snapshot goCred.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() goCred.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                    { return f.dropped }

func TestCollectNothingWhenDisabled(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{
		snapshot: goCred.MetricsSnapshot{
			Counters:   map[goCred.MetricID]uint64{},
			Histograms: map[goCred.MetricID][]uint64{},
		},
	})

	assert.Zero(t, testutil.CollectAndCount(c))
}

func TestCollectCountersAndHistogram(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{
		snapshot: goCred.MetricsSnapshot{
			Counters: map[goCred.MetricID]uint64{
				goCred.MetricSigninSuccess: 7,
			},
			Histograms: map[goCred.MetricID][]uint64{
				goCred.MetricResolveLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	expected := `
# HELP gocred_signin_success_total Signins that issued a credential.
# TYPE gocred_signin_success_total counter
gocred_signin_success_total 7
# HELP gocred_audit_dropped_total Dropped audit events due to dispatcher backpressure.
# TYPE gocred_audit_dropped_total counter
gocred_audit_dropped_total 2
# HELP gocred_resolve_latency_seconds Resolve latency.
# TYPE gocred_resolve_latency_seconds histogram
gocred_resolve_latency_seconds_bucket{le="0.005"} 1
gocred_resolve_latency_seconds_bucket{le="0.01"} 3
gocred_resolve_latency_seconds_bucket{le="0.025"} 6
gocred_resolve_latency_seconds_bucket{le="0.05"} 10
gocred_resolve_latency_seconds_bucket{le="0.1"} 15
gocred_resolve_latency_seconds_bucket{le="0.25"} 21
gocred_resolve_latency_seconds_bucket{le="0.5"} 28
gocred_resolve_latency_seconds_bucket{le="+Inf"} 36
gocred_resolve_latency_seconds_sum 0
gocred_resolve_latency_seconds_count 36
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"gocred_signin_success_total",
		"gocred_audit_dropped_total",
		"gocred_resolve_latency_seconds",
	)
	require.NoError(t, err)
}

func TestCollectorLint(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{
		snapshot: goCred.MetricsSnapshot{
			Counters: map[goCred.MetricID]uint64{goCred.MetricLogout: 1},
		},
	})

	problems, err := testutil.CollectAndLint(c)
	require.NoError(t, err)
	assert.Empty(t, problems)
}

func TestHandlerServesEngineMetrics(t *testing.T) {
	cfg := goCred.DefaultConfig()
	cfg.Token.Secret = []byte("0123456789abcdef0123456789abcdef")
	store := memory.New()
	t.Cleanup(store.Close)

	engine, err := goCred.New().WithConfig(cfg).WithUserStore(store).Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	ctx := context.Background()
	_, err = engine.Signup(ctx, goCred.SignupRequest{Name: "A", Email: "a@x.io", Password: "pw"})
	require.NoError(t, err)
	res, err := engine.Signin(ctx, "a@x.io", "pw")
	require.NoError(t, err)
	_, err = engine.Resolve(ctx, res.Credential)
	require.NoError(t, err)

	srv := httptest.NewServer(NewCollector(engine).Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := string(body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, out, "gocred_signup_success_total 1")
	assert.Contains(t, out, "gocred_token_issued_total 1")
	assert.Contains(t, out, "gocred_resolve_success_total 1")
	assert.Contains(t, out, `gocred_resolve_latency_seconds_bucket{le="+Inf"} 1`)
}
