// Package metrics exports round timings and column outcomes to Prometheus.
// A nil *Recorder records nothing.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Phases of a round.
const (
	PhaseBroadcast = "broadcast"
	PhaseGather    = "gather"
	PhaseWall      = "wall"
	PhaseBuild     = "build"
	PhaseCalc      = "calc"
	PhaseStore     = "store"
)

type Recorder struct {
	Registry *prometheus.Registry

	phases  *prometheus.HistogramVec
	columns *prometheus.CounterVec
	rounds  prometheus.Counter
	imbal   prometheus.Gauge
}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		Registry: reg,
		phases: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "selinv",
			Name:      "phase_seconds",
			Help:      "Duration of the phases of a selected inversion round.",
			Buckets:   prometheus.ExponentialBuckets(1e-4, 4, 12),
		}, []string{"phase"}),
		columns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "selinv",
			Name:      "columns_total",
			Help:      "Columns processed, by outcome.",
		}, []string{"status"}),
		rounds: f.NewCounter(prometheus.CounterOpts{
			Namespace: "selinv",
			Name:      "rounds_total",
			Help:      "Completed rounds.",
		}),
		imbal: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "selinv",
			Name:      "partition_imbalance",
			Help:      "Largest worker share of nonzeros over the mean share in the last round.",
		}),
	}
}

func (r *Recorder) ObservePhase(phase string, d time.Duration) {
	if r == nil {
		return
	}
	r.phases.WithLabelValues(phase).Observe(d.Seconds())
}

func (r *Recorder) CountColumns(status string, n int) {
	if r == nil || n == 0 {
		return
	}
	r.columns.WithLabelValues(status).Add(float64(n))
}

func (r *Recorder) RoundDone(imbalance float64) {
	if r == nil {
		return
	}
	r.rounds.Inc()
	r.imbal.Set(imbalance)
}

// Serve exposes the registry on addr until ctx is done.
func (r *Recorder) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	ctxzap.Extract(ctx).Info("serving metrics", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
