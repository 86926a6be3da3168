package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probe(t *testing.T, fn http.HandlerFunc) (int, probeResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	fn(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	var resp probeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestReadyGate(t *testing.T) {
	h := New()

	assert.False(t, h.IsReady())
	code, resp := probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Contains(t, resp.Checks, "_readiness")

	h.SetReady(true)
	assert.True(t, h.IsReady())
	code, resp = probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", resp.Status)

	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestLiveEndpointHealthyByDefault(t *testing.T) {
	h := New()
	h.AddLivenessCheck("noop", time.Second, func(context.Context) error { return nil })

	code, resp := probe(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", resp.Status)
}

func TestFailureThreshold(t *testing.T) {
	c := newCheck("db", time.Second, func(context.Context) error {
		return errors.New("connection refused")
	})

	// One or two failures keep the check healthy.
	c.run(context.Background())
	c.run(context.Background())
	healthy, _ := c.state()
	assert.True(t, healthy)

	// The third consecutive failure trips it.
	c.run(context.Background())
	healthy, lastErr := c.state()
	assert.False(t, healthy)
	assert.EqualError(t, lastErr, "connection refused")
}

func TestRecoveryAfterSuccess(t *testing.T) {
	fail := true
	c := newCheck("db", time.Second, func(context.Context) error {
		if fail {
			return errors.New("down")
		}
		return nil
	})

	for i := 0; i < 3; i++ {
		c.run(context.Background())
	}
	healthy, _ := c.state()
	require.False(t, healthy)

	fail = false
	c.run(context.Background())
	healthy, _ = c.state()
	assert.True(t, healthy)
}

func TestUnhealthyReadinessCheckBlocksReady(t *testing.T) {
	h := New()
	h.AddReadinessCheck("db", time.Second, func(context.Context) error {
		return errors.New("no route to host")
	})
	h.SetReady(true)

	// Trip the check past its failure threshold.
	for i := 0; i < 3; i++ {
		h.readiness[0].run(context.Background())
	}

	assert.False(t, h.IsReady())
	code, resp := probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "no route to host", resp.Checks["db"])
}

func TestStartRunsChecks(t *testing.T) {
	ran := make(chan struct{}, 1)
	h := New()
	h.AddLivenessCheck("signal", time.Second, func(context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})

	h.Start(context.Background(), time.Hour)
	defer h.Stop()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("check did not run after Start")
	}
}

func TestCheckTimeout(t *testing.T) {
	c := newCheck("slow", 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	done := make(chan struct{})
	go func() {
		c.run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("check did not respect its timeout")
	}
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(1_000_000)(context.Background()))
	assert.Error(t, GoroutineCountCheck(0)(context.Background()))
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestPingCheck(t *testing.T) {
	ok := PingCheck(pingFunc(func(context.Context) error { return nil }))
	assert.NoError(t, ok(context.Background()))

	down := PingCheck(pingFunc(func(context.Context) error { return errors.New("down") }))
	assert.Error(t, down(context.Background()))
}
