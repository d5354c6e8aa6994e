// Package resilience adapts the circuit breaker pattern used for outbound
// HTTP calls elsewhere in this codebase into a generic guard around any
// fallible operation, here the Postgres-backed projection repository.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"

	apperrors "github.com/utafrali/inventory-es/pkg/errors"
)

// Config configures a Breaker's trip/reset behavior.
type Config struct {
	// Name identifies this breaker in metrics and logs.
	Name string

	// MaxRequests is the number of requests allowed through while half-open.
	MaxRequests uint32

	// Interval is the period after which closed-state counters reset. Zero
	// means counters are never cleared while closed.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing half-open.
	Timeout time.Duration

	// FailureRatio is the fraction of failed requests that trips the breaker.
	FailureRatio float64

	// MinRequests is the minimum sample size before FailureRatio is evaluated.
	MinRequests uint32
}

// DefaultConfig returns sensible defaults for a named breaker, matching the
// defaults used elsewhere in this codebase for outbound HTTP calls.
func DefaultConfig(name string) Config {
	return Config{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

var (
	breakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "inventory_circuit_breaker_state",
			Help: "Current state of a named circuit breaker (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

func init() {
	prometheus.MustRegister(breakerState)
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// Breaker wraps an arbitrary operation — not just an HTTP round trip — with
// CLOSED / OPEN / HALF_OPEN circuit breaking, so any collaborator (the
// projection store, in this codebase) can be shielded from cascading
// failure the same way outbound HTTP calls are.
type Breaker struct {
	name string
	cb   *gobreaker.CircuitBreaker[any]
	log  *slog.Logger
}

// New returns a Breaker configured by cfg.
func New(cfg Config, log *slog.Logger) *Breaker {
	if log == nil {
		log = slog.Default()
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	}

	breakerState.WithLabelValues(cfg.Name).Set(0)

	return &Breaker{
		name: cfg.Name,
		cb:   gobreaker.NewCircuitBreaker[any](settings),
		log:  log,
	}
}

// Execute runs fn through the breaker. When the breaker is open, fn is never
// called and a CircuitOpen AppError is returned instead.
func (b *Breaker) Execute(ctx context.Context, fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			b.log.WarnContext(ctx, "circuit breaker rejected call",
				slog.String("breaker", b.name),
				slog.String("reason", err.Error()),
			)
			return nil, apperrors.CircuitOpen(b.name + " is temporarily unavailable")
		}
		return nil, err
	}
	return result, nil
}

// State returns the breaker's current state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
