// Package metrics provides Prometheus counters for the mzTab codec.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the codec counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	LinesEncoded   *prometheus.CounterVec
	LinesDecoded   *prometheus.CounterVec
	DecodeFailures *prometheus.CounterVec
}

// New creates the counters and registers them with reg. A nil reg leaves them
// unregistered.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LinesEncoded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mztab_lines_encoded_total",
				Help: "Total number of lines written, by line prefix",
			},
			[]string{"prefix"},
		),
		LinesDecoded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mztab_lines_decoded_total",
				Help: "Total number of lines read, by line prefix",
			},
			[]string{"prefix"},
		),
		DecodeFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mztab_decode_failures_total",
				Help: "Total number of recoverable decode failures, by kind",
			},
			[]string{"kind"},
		),
	}
}

// LineEncoded counts one written line.
func (m *Metrics) LineEncoded(prefix string) {
	if m == nil {
		return
	}
	m.LinesEncoded.WithLabelValues(prefix).Inc()
}

// LineDecoded counts one read line.
func (m *Metrics) LineDecoded(prefix string) {
	if m == nil {
		return
	}
	m.LinesDecoded.WithLabelValues(prefix).Inc()
}

// DecodeFailure counts one recoverable failure.
func (m *Metrics) DecodeFailure(kind string) {
	if m == nil {
		return
	}
	m.DecodeFailures.WithLabelValues(kind).Inc()
}
