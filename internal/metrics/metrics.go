// Package metrics exposes the engine's Prometheus metrics: a dedicated
// registry plus a small set of chunk-outcome counters and latency
// histograms, and a /metrics HTTP endpoint.
package metrics

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "orbitcdc"

var (
	// Registry is a dedicated Prometheus registry for all orbit-cdc metrics.
	Registry = prometheus.NewRegistry()

	// ChunkTotal counts chunks emitted by a Stream, grouped by how the
	// cut was decided.
	ChunkTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_total",
			Help:      "Total chunks emitted, by cut outcome",
		},
		[]string{"outcome"}, // boundary | forced | final
	)

	// ChunkLengthBytes distributes emitted chunk sizes.
	ChunkLengthBytes = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_length_bytes",
			Help:      "Size in bytes of emitted chunks",
			Buckets:   prometheus.ExponentialBuckets(1024, 2, 12), // 1KiB .. 2MiB
		},
	)

	// StreamDuration measures wall-clock time spent in Stream.Next calls
	// that produced a chunk, including any time Next spent blocked in the
	// upstream read; time between Next calls is not measured.
	StreamDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_stream_duration_ms",
			Help:      "Duration of a single Stream.Next call in milliseconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50, 100, 500},
		},
	)

	// StreamErrorsTotal counts upstream read failures surfaced as IOError.
	StreamErrorsTotal = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_stream_errors_total",
			Help:      "Total upstream read failures surfaced by a Stream",
		},
	)

	// Up is a liveness gauge for the running process.
	Up = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "up",
			Help:      "1 if the process is running and healthy",
		},
	)
)

func init() {
	Registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	Registry.MustRegister(prometheus.NewGoCollector())
	Up.Set(1)
}

// ObserveChunk records a single emitted chunk: its cut outcome, its
// length, and how long the Next call that produced it took.
func ObserveChunk(outcome string, length uint32, start time.Time) {
	ChunkTotal.WithLabelValues(outcome).Inc()
	ChunkLengthBytes.Observe(float64(length))
	elapsed := float64(time.Since(start)) / float64(time.Millisecond)
	StreamDuration.Observe(elapsed)
}

// ObserveStreamError records an upstream read failure.
func ObserveStreamError() {
	StreamErrorsTotal.Inc()
}

// Serve starts the /metrics HTTP endpoint on addr, blocking until ctx
// is cancelled or the server fails. It shuts down gracefully on
// cancellation.
func Serve(ctx context.Context, addr string, logger *log.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = log.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(Registry, promhttp.HandlerOpts{EnableOpenMetrics: true}))

	srv := &http.Server{Addr: addr, Handler: mux}

	idleClosed := make(chan struct{})
	go func() {
		defer close(idleClosed)
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()

	logger.Printf("[metrics] listening on %s", addr)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		<-idleClosed
		return nil
	}

	return err
}
