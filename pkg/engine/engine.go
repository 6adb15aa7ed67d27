package engine

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-dynform/pkg/metrics"
	"github.com/goliatone/go-dynform/pkg/visibility"
	"github.com/goliatone/go-dynform/pkg/visibility/expr"
)

// Engine evaluates schemas. It holds no per-form state and is safe to share
// between sessions and goroutines.
type Engine struct {
	logger    zerolog.Logger
	metrics   *metrics.Collector
	evaluator visibility.Evaluator
	extras    map[string]any
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for schema faults and submission failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics records evaluations, faults and submissions on the collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(e *Engine) {
		e.metrics = collector
	}
}

// WithEvaluator replaces the visibleWhen expression evaluator.
func WithEvaluator(evaluator visibility.Evaluator) Option {
	return func(e *Engine) {
		if evaluator != nil {
			e.evaluator = evaluator
		}
	}
}

// WithExtras exposes additional facts to visibleWhen expressions under the
// `extras.` prefix.
func WithExtras(extras map[string]any) Option {
	return func(e *Engine) {
		e.extras = extras
	}
}

// New builds an Engine. Without options it logs nothing and records no
// metrics.
func New(options ...Option) *Engine {
	e := &Engine{
		logger:    zerolog.Nop(),
		evaluator: expr.New(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

var defaultEngine = New()

// Default returns the shared engine used by the package-level helpers.
func Default() *Engine {
	return defaultEngine
}

// Logger returns the engine's logger.
func (e *Engine) Logger() zerolog.Logger {
	return e.logger
}

// Metrics returns the engine's collector, which may be nil.
func (e *Engine) Metrics() *metrics.Collector {
	return e.metrics
}

// guard runs fn, converting a panic into an error.
func guard[T any](fn func() (T, error)) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			out = zero
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func (e *Engine) fault(kind, fieldID, msg string, err error) {
	e.metrics.Fault(kind)
	e.logger.Error().Err(err).Str("field", fieldID).Str("kind", kind).Msg(msg)
}
