// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package metrics exports frame statistics to prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Frames collects per frame statistics. A nil *Frames records nothing.
type Frames struct {
	frames      prometheus.Counter
	duration    prometheus.Histogram
	recreations prometheus.Counter
	triangles   prometheus.Gauge
	errors      *prometheus.CounterVec
}

// NewFrames registers the frame metrics with reg.
func NewFrames(namespace string, reg prometheus.Registerer) (*Frames, error) {
	f := &Frames{
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Frames submitted to the swapchain.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_duration_seconds",
			Help:      "Time spent updating and rendering one frame.",
			Buckets:   []float64{0.0005, 0.001, 0.002, 0.004, 0.008, 0.016, 0.033, 0.066, 0.1, 0.25},
		}),
		recreations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swapchain_recreations_total",
			Help:      "Swapchain recreations after resizes or stale surfaces.",
		}),
		triangles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "world_triangles",
			Help:      "Triangles in the current world mesh.",
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frame_errors_total",
			Help:      "Frames that failed, by stage.",
		}, []string{"stage"}),
	}
	for _, c := range []prometheus.Collector{f.frames, f.duration, f.recreations, f.triangles, f.errors} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Frame records one rendered frame that took d.
func (f *Frames) Frame(d time.Duration) {
	if f == nil {
		return
	}
	f.frames.Inc()
	f.duration.Observe(d.Seconds())
}

// Recreated records a swapchain recreation.
func (f *Frames) Recreated() {
	if f == nil {
		return
	}
	f.recreations.Inc()
}

// Triangles records the size of the world mesh.
func (f *Frames) Triangles(n int) {
	if f == nil {
		return
	}
	f.triangles.Set(float64(n))
}

// Error records a failed frame stage.
func (f *Frames) Error(stage string) {
	if f == nil {
		return
	}
	f.errors.WithLabelValues(stage).Inc()
}

// Serve exposes the gatherer on addr under /metrics until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, logger logrus.FieldLogger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			logger.WithError(err).Warn("metrics server shutdown")
		}
	}()

	logger.WithField("address", addr).Info("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
