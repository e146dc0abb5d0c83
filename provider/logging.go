package provider

import (
	"context"
	"time"

	"github.com/kbukum/watershed/logger"
)

// WithLogging returns a Middleware that logs each Execute call with the
// provider name, duration and outcome. Failures log at warn; the caller
// decides whether they are fatal to the run.
func WithLogging[I, O any](log *logger.Logger) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		return &loggingRR[I, O]{inner: inner, log: log}
	}
}

type loggingRR[I, O any] struct {
	inner RequestResponse[I, O]
	log   *logger.Logger
}

func (l *loggingRR[I, O]) Name() string                         { return l.inner.Name() }
func (l *loggingRR[I, O]) IsAvailable(ctx context.Context) bool { return l.inner.IsAvailable(ctx) }

func (l *loggingRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	log := l.log.WithContext(ctx)
	fields := map[string]interface{}{"provider": l.inner.Name()}
	for k, v := range describe(input) {
		fields[k] = v
	}
	log.Debug("provider call started", fields)

	start := time.Now()
	output, err := l.inner.Execute(ctx, input)
	logger.MergeWithDuration(fields, time.Since(start))

	if err != nil {
		log.Warn("provider call failed", logger.MergeWithError(fields, err))
	} else {
		log.Debug("provider call finished", fields)
	}
	return output, err
}
