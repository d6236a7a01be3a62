// Package metrics records decode outcomes as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/geal-ai/grib2msm"
)

// Recorder holds the decode metrics of one process.
type Recorder struct {
	reg      *prometheus.Registry
	messages prometheus.Counter
	fields   prometheus.Counter
	failures *prometheus.CounterVec
	duration prometheus.Histogram
	mean     *prometheus.GaugeVec
}

// New registers the decode metrics on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		messages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "msm",
			Name:      "messages_decoded_total",
			Help:      "Messages decoded successfully.",
		}),
		fields: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "msm",
			Name:      "fields_decoded_total",
			Help:      "Fields decoded across all messages.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "msm",
			Name:      "decode_failures_total",
			Help:      "Failed decodes by error kind.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "msm",
			Name:      "decode_duration_seconds",
			Help:      "Wall time per message decode.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		mean: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "msm",
			Name:      "field_mean",
			Help:      "Mean of the last decoded field per parameter and level.",
		}, []string{"parameter", "level"}),
	}
	r.reg.MustRegister(r.messages, r.fields, r.failures, r.duration, r.mean)
	return r
}

// Registry exposes the underlying registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// Observe records the outcome of decoding one message. label names a field's
// parameter and level; it is only called on success.
func (r *Recorder) Observe(msg *grib2msm.Message, err error, took time.Duration, label func(*grib2msm.Field) (string, string)) {
	r.duration.Observe(took.Seconds())
	if err != nil {
		r.failures.WithLabelValues(Kind(err)).Inc()
		return
	}
	r.messages.Inc()
	r.fields.Add(float64(len(msg.Fields)))
	if label == nil {
		return
	}
	for i := range msg.Fields {
		f := &msg.Fields[i]
		_, _, mean := f.Stats()
		param, level := label(f)
		r.mean.WithLabelValues(param, level).Set(mean)
	}
}

// WriteTextfile writes the current metrics in the node_exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	return errors.Wrapf(prometheus.WriteToTextfile(path, r.reg), "write metrics %s", path)
}

var kinds = []struct {
	err  error
	name string
}{
	{grib2msm.ErrTruncatedInput, "truncated"},
	{grib2msm.ErrUnsupportedTemplate, "unsupported_template"},
	{grib2msm.ErrMalformedSentinel, "malformed_sentinel"},
	{grib2msm.ErrUnexpectedSection, "unexpected_section"},
	{grib2msm.ErrSectionLength, "section_length"},
	{grib2msm.ErrUnsupportedScanMode, "unsupported_scan_mode"},
	{grib2msm.ErrUnsupportedBitmap, "unsupported_bitmap"},
	{grib2msm.ErrInvalidGrid, "invalid_grid"},
	{grib2msm.ErrInvalidPacking, "invalid_packing"},
}

// Kind classifies err by the decoder error it wraps, or "other".
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "other"
}
