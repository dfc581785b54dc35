// Package resilient decorates an ai.Embedder with a per-call timeout and a
// circuit breaker. Every failure it returns wraps core.ErrEmbeddingProvider.
package resilient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/jobsift/ai"
	"github.com/poiesic/jobsift/core"
	"github.com/sony/gobreaker"
)

// ErrEmbedderRequired is returned by Wrap when no embedder is given.
var ErrEmbedderRequired = errors.New("embedder required")

// callerDoneError marks a failure that happened after the caller's own
// context ended, so the breaker does not count it.
type callerDoneError struct {
	err error
}

func (e *callerDoneError) Error() string { return e.err.Error() }
func (e *callerDoneError) Unwrap() error { return e.err }

// Embedder guards calls to an inner ai.Embedder.
type Embedder struct {
	inner   ai.Embedder
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger

	breakerName     string
	breakerFailures int
	breakerCooldown time.Duration
}

var _ ai.Embedder = (*Embedder)(nil)

// Option configures an Embedder.
type Option func(*Embedder) error

// WithTimeout bounds each provider call. Zero disables the timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(e *Embedder) error {
		if timeout < 0 {
			return fmt.Errorf("timeout cannot be negative: %s", timeout)
		}
		e.timeout = timeout
		return nil
	}
}

// WithBreaker opens the circuit after the given number of consecutive failures
// and keeps it open for cooldown. failures of 0 disables the breaker.
func WithBreaker(name string, failures int, cooldown time.Duration) Option {
	return func(e *Embedder) error {
		if failures < 0 {
			return fmt.Errorf("breaker failures cannot be negative: %d", failures)
		}
		e.breakerName = name
		e.breakerFailures = failures
		e.breakerCooldown = cooldown
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Embedder) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// Wrap returns inner guarded by the configured timeout and breaker.
func Wrap(inner ai.Embedder, opts ...Option) (ai.Embedder, error) {
	return newEmbedder(inner, opts...)
}

func newEmbedder(inner ai.Embedder, opts ...Option) (*Embedder, error) {
	if inner == nil {
		return nil, ErrEmbedderRequired
	}
	e := &Embedder{
		inner:       inner,
		logger:      slog.Default(),
		breakerName: "embedding",
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.logger = e.logger.With("component", "resilient-embedder")

	if e.breakerFailures > 0 {
		threshold := uint32(e.breakerFailures)
		e.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        e.breakerName,
			MaxRequests: 1,
			Timeout:     e.breakerCooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				e.logger.Warn("embedding circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			},
			// A caller giving up is not a provider failure
			IsSuccessful: func(err error) bool {
				var gone *callerDoneError
				return err == nil || errors.Is(err, context.Canceled) || errors.As(err, &gone)
			},
		})
	}
	return e, nil
}

// EmbedText embeds a single text.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	v, err := e.call(ctx, func(ctx context.Context) (any, error) {
		return e.inner.EmbedText(ctx, text)
	})
	if err != nil {
		return nil, err
	}
	return v.([]float32), nil
}

// EmbedTexts embeds a batch of texts.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	v, err := e.call(ctx, func(ctx context.Context) (any, error) {
		return e.inner.EmbedTexts(ctx, texts)
	})
	if err != nil {
		return nil, err
	}
	return v.([][]float32), nil
}

// State reports the breaker state: "closed", "half-open", "open" or "disabled".
func (e *Embedder) State() string {
	if e.breaker == nil {
		return "disabled"
	}
	return e.breaker.State().String()
}

func (e *Embedder) call(ctx context.Context, fn func(context.Context) (any, error)) (any, error) {
	guarded := func() (any, error) {
		callCtx := ctx
		if e.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, e.timeout)
			defer cancel()
		}
		v, err := fn(callCtx)
		if err != nil && ctx.Err() != nil {
			return nil, &callerDoneError{err: err}
		}
		if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("call exceeded %s: %w", e.timeout, context.DeadlineExceeded)
		}
		return v, err
	}

	var (
		v   any
		err error
	)
	if e.breaker != nil {
		v, err = e.breaker.Execute(guarded)
	} else {
		v, err = guarded()
	}
	if err != nil {
		e.logger.Debug("embedding call failed", "err", err)
		return nil, fmt.Errorf("%w: %w", core.ErrEmbeddingProvider, err)
	}
	return v, nil
}
