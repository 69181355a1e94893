package service

import "time"

type options struct {
	now          func() time.Time
	pollInterval time.Duration
}

// Option customizes services created by NewServices
type Option func(*options)

// WithClock replaces time.Now, e.g. for stable dry-run timestamps in tests
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithPollInterval sets how often the processor looks for pending runs
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		now:          time.Now,
		pollInterval: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
