package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"toolusage/internal/domain"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// ServeObservability serves /metrics and /healthz on cfg.ListenAddress until ctx is
// canceled. It returns nil at once when both endpoints are disabled.
func ServeObservability(ctx context.Context, cfg domain.ObservabilityConfig, gatherer prometheus.Gatherer, health *HealthTracker, logger *zap.Logger) error {
	if !cfg.Metrics && !cfg.Healthz {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	addr := cfg.ListenAddress
	if addr == "" {
		addr = domain.DefaultObservabilityListenAddress
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return domain.E(domain.CodeUnavailable, "telemetry.serve", "listen on "+addr, err)
	}

	mux := http.NewServeMux()
	if cfg.Metrics {
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	if cfg.Healthz {
		mux.Handle("/healthz", health)
	}
	server := &http.Server{Handler: mux, ReadHeaderTimeout: readHeaderTimeout}

	logger.Info("observability endpoint listening",
		zap.String("addr", listener.Addr().String()),
		zap.Bool("metrics", cfg.Metrics),
		zap.Bool("healthz", cfg.Healthz),
	)
	served := make(chan error, 1)
	go func() {
		served <- server.Serve(listener)
	}()

	select {
	case err := <-served:
		return domain.Wrap(domain.CodeUnavailable, "telemetry.serve", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("observability endpoint shutdown", zap.Error(err))
		return err
	}
	if err := <-served; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("observability endpoint stopped")
	return nil
}

// ServeHTTP writes the health report. A nil tracker always reports ok.
func (t *HealthTracker) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	report := HealthReport{Status: "ok"}
	if t != nil {
		report = t.Report()
	}
	status := http.StatusOK
	if report.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(report)
}
