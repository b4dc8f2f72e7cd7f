package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gmaps_leads_runs_total",
			Help: "Total number of extraction runs by outcome",
		},
		[]string{"status"},
	)

	LeadsExtracted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gmaps_leads_extracted_total",
			Help: "Total number of leads extracted from result cards",
		},
	)

	ItemsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gmaps_leads_items_skipped_total",
			Help: "Result cards discarded because clicking or reading them failed",
		},
	)

	FieldFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gmaps_leads_field_fallbacks_total",
			Help: "Fields replaced by their default value",
		},
		[]string{"field"},
	)

	ScrollRounds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gmaps_leads_scroll_rounds",
			Help:    "Number of scrolls needed per run",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
		},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gmaps_leads_run_duration_seconds",
			Help:    "Duration of extraction runs in seconds",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
		},
	)
)

// RecordRun updates the run counters once a run has finished
func RecordRun(status string, started time.Time) {
	RunsTotal.WithLabelValues(status).Inc()
	RunDuration.Observe(time.Since(started).Seconds())
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv *http.Server
}

// NewServer prepares a server exposing /metrics on addr
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// Run serves until ctx is done, then shuts the server down
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", s.srv.Addr).Info("Metrics server listening")
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}
