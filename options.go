package grib2msm

import "go.uber.org/zap"

// DefaultMaxGridPoints caps ni*nj. MSM's largest grid is 481×505.
const DefaultMaxGridPoints = 1 << 22

// Option configures Decode.
type Option func(*options)

type options struct {
	logger        *zap.Logger
	captureRaw    bool
	maxGridPoints int
}

func defaultOptions() *options {
	return &options{
		logger:        zap.NewNop(),
		maxGridPoints: DefaultMaxGridPoints,
	}
}

// WithLogger sets the logger used for per-section debug output.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRawCapture makes every DataRepresentation keep the verbatim R/E/D bytes.
func WithRawCapture(on bool) Option {
	return func(o *options) { o.captureRaw = on }
}

// WithMaxGridPoints overrides DefaultMaxGridPoints. Non-positive values are ignored.
func WithMaxGridPoints(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxGridPoints = n
		}
	}
}
