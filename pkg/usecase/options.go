package usecase

import (
	"context"
	"io"
	"log/slog"
	"time"
)

const DefaultProviderTimeout = 10 * time.Second

type options struct {
	timeout time.Duration
	log     *slog.Logger
}

// Option tunes a manager at construction.
type Option func(*options)

// WithProviderTimeout bounds every provider call the manager makes. Zero or
// negative disables the bound and leaves the caller's context in charge.
func WithProviderTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithLogger sets the logger. Managers log to nowhere by default.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{timeout: DefaultProviderTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = discardLogger()
	}
	return o
}

func (o options) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, o.timeout)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
