package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"toolusage/internal/domain"
)

func TestServeObservability_Metrics(t *testing.T) {
	port := freePort(t)

	registry := prometheus.NewRegistry()
	metrics := NewPrometheusMetrics(registry)
	metrics.SetCatalogSize(3)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- ServeObservability(ctx, domain.ObservabilityConfig{
			ListenAddress: fmt.Sprintf("127.0.0.1:%d", port),
			Metrics:       true,
		}, registry, nil, zap.NewNop())
	}()

	url := fmt.Sprintf("http://127.0.0.1:%d/metrics", port)
	waitForHTTPStatus(t, url, http.StatusOK, false)

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "toolusage_catalog_entries 3")

	cancel()

	select {
	case err := <-errChan:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop in time")
	}
}

func TestServeObservability_Disabled(t *testing.T) {
	err := ServeObservability(context.Background(), domain.ObservabilityConfig{}, nil, nil, nil)
	require.NoError(t, err)
}

func TestServeObservability_PortInUse(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skip test due to listen error: %v", err)
	}
	defer listener.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err = ServeObservability(ctx, domain.ObservabilityConfig{
		ListenAddress: listener.Addr().String(),
		Metrics:       true,
	}, prometheus.NewRegistry(), nil, zap.NewNop())
	code, ok := domain.CodeFrom(err)
	require.True(t, ok)
	require.Equal(t, domain.CodeUnavailable, code)
}

func TestServeObservability_Healthz(t *testing.T) {
	port := freePort(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracker := NewHealthTracker()
	beat := tracker.Register("test-loop", 200*time.Millisecond)

	errChan := make(chan error, 1)
	go func() {
		errChan <- ServeObservability(ctx, domain.ObservabilityConfig{
			ListenAddress: fmt.Sprintf("127.0.0.1:%d", port),
			Healthz:       true,
		}, nil, tracker, zap.NewNop())
	}()

	beat.Beat()
	waitForHTTPStatus(t, fmt.Sprintf("http://127.0.0.1:%d/healthz", port), http.StatusOK, true)
	waitForHTTPStatus(t, fmt.Sprintf("http://127.0.0.1:%d/healthz", port), http.StatusServiceUnavailable, true)

	cancel()

	select {
	case err := <-errChan:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop in time")
	}
}

func TestHealthTracker_Report(t *testing.T) {
	now := time.Unix(1000, 0)
	tracker := NewHealthTracker()
	tracker.now = func() time.Time { return now }

	fast := tracker.Register("collect", time.Minute)
	tracker.Register("watch", 0)

	report := tracker.Report()
	require.Equal(t, "ok", report.Status)
	require.Len(t, report.Loops, 2)
	require.Equal(t, "collect", report.Loops[0].Name)

	now = now.Add(2 * time.Minute)
	report = tracker.Report()
	require.Equal(t, "degraded", report.Status)
	require.False(t, report.Loops[0].Healthy)
	require.True(t, report.Loops[1].Healthy)

	fast.Beat()
	require.Equal(t, "ok", tracker.Report().Status)
}

func TestHealthTracker_ServeHTTPNil(t *testing.T) {
	var tracker *HealthTracker
	recorder := httptest.NewRecorder()
	tracker.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.JSONEq(t, `{"status":"ok"}`, recorder.Body.String())
}

func freePort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skip test due to listen error: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	_ = listener.Close()
	return port
}

func waitForHTTPStatus(t *testing.T, url string, status int, expectJSON bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		if resp.StatusCode != status {
			return false
		}
		if expectJSON {
			var report HealthReport
			if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
				return false
			}
		}
		return true
	}, 5*time.Second, 20*time.Millisecond)
}
