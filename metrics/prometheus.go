// Package metrics provides Prometheus metrics for model decoding
package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/zlabs/elu_browser/elu"
)

var (
	DecodeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elu_decode_total",
			Help: "Total number of decoded model files",
		},
		[]string{"version", "result"},
	)

	DecodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "elu_decode_duration_seconds",
			Help:    "Time taken to decode a model file",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"result"},
	)

	MeshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elu_meshes_total",
			Help: "Total number of decoded meshes",
		},
		[]string{"format", "kind"},
	)

	WarningsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elu_warnings_total",
			Help: "Total number of recoverable decode anomalies",
		},
		[]string{"kind"},
	)

	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elu_exports_total",
			Help: "Total number of scene exports",
		},
		[]string{"format", "result"},
	)
)

// Result names the outcome of a decode for the result label.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, elu.ErrBadMagic):
		return "bad_magic"
	case errors.Is(err, elu.ErrUnsupportedVersion):
		return "unsupported_version"
	case errors.Is(err, elu.ErrTruncatedInput):
		return "truncated"
	case errors.Is(err, elu.ErrMalformedNameEncoding):
		return "malformed_name"
	case errors.Is(err, elu.ErrIndexOutOfRange):
		return "index_out_of_range"
	default:
		return "error"
	}
}

// ObserveDecode records one Decode call. s is nil when err is set.
func ObserveDecode(s *elu.Scene, err error, took time.Duration) {
	result := Result(err)
	DecodeDuration.WithLabelValues(result).Observe(took.Seconds())

	if s == nil {
		DecodeTotal.WithLabelValues("unknown", result).Inc()
		return
	}
	DecodeTotal.WithLabelValues(s.Version.String(), result).Inc()
	for _, m := range s.Meshes {
		MeshesTotal.WithLabelValues(m.Format.String(), m.Kind.String()).Inc()
	}
	for _, w := range s.Warnings {
		WarningsTotal.WithLabelValues(w.Kind.String()).Inc()
	}
}

func ObserveExport(format string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	ExportsTotal.WithLabelValues(format, result).Inc()
}
