package resilience

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// ErrOpenCircuit is returned while a breaker is refusing calls.
var ErrOpenCircuit = errors.New("resilience: circuit breaker open")

// State of a breaker.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// BreakerConfig tunes a Breaker. Zero fields take the defaults noted.
type BreakerConfig struct {
	// Target labels metrics and logs, e.g. "sheets".
	Target string
	// Window is how many recent outcomes are kept (20).
	Window int
	// MinRequests must be observed in the window before it can trip (5).
	MinRequests int
	// FailureRatio at or above which the breaker opens (0.5).
	FailureRatio float64
	// OpenFor is the cool-off before probing again (30s).
	OpenFor time.Duration
	// HalfOpenProbes is how many successes close the breaker again (1).
	HalfOpenProbes int
	Logger         *zerolog.Logger
	Now            func() time.Time
}

// Breaker guards one upstream. Outcomes are kept in a fixed ring so old
// failures age out as new calls complete.
type Breaker struct {
	cfg BreakerConfig

	mu       sync.Mutex
	state    State
	ring     []bool
	next     int
	filled   int
	failed   int
	openedAt time.Time
	inFlight int
	probesOK int
}

// NewBreaker returns a closed breaker.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.Window <= 0 {
		cfg.Window = 20
	}
	if cfg.MinRequests <= 0 {
		cfg.MinRequests = 5
	}
	if cfg.MinRequests > cfg.Window {
		cfg.MinRequests = cfg.Window
	}
	if cfg.FailureRatio <= 0 {
		cfg.FailureRatio = 0.5
	}
	if cfg.FailureRatio > 1 {
		cfg.FailureRatio = 1
	}
	if cfg.OpenFor <= 0 {
		cfg.OpenFor = 30 * time.Second
	}
	if cfg.HalfOpenProbes <= 0 {
		cfg.HalfOpenProbes = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.Target = strings.TrimSpace(cfg.Target)
	if cfg.Target == "" {
		cfg.Target = "default"
	}
	b := &Breaker{cfg: cfg, ring: make([]bool, cfg.Window)}
	b.publishState()
	return b
}

// Target returns the label the breaker reports under.
func (b *Breaker) Target() string { return b.cfg.Target }

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Allow reports whether a call may proceed. Every true result must be
// followed by exactly one Report.
func (b *Breaker) Allow(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		if b.cfg.Now().Sub(b.openedAt) < b.cfg.OpenFor {
			return false
		}
		b.moveLocked(ctx, HalfOpen)
		b.inFlight = 1
		return true
	case HalfOpen:
		if b.inFlight+b.probesOK >= b.cfg.HalfOpenProbes {
			return false
		}
		b.inFlight++
		return true
	default:
		return true
	}
}

// Report records the outcome of an allowed call.
func (b *Breaker) Report(ctx context.Context, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		return
	case HalfOpen:
		if b.inFlight > 0 {
			b.inFlight--
		}
		if !success {
			b.moveLocked(ctx, Open)
			return
		}
		b.probesOK++
		if b.probesOK >= b.cfg.HalfOpenProbes {
			b.moveLocked(ctx, Closed)
		}
		return
	}

	if b.filled == len(b.ring) {
		if !b.ring[b.next] {
			b.failed--
		}
	} else {
		b.filled++
	}
	b.ring[b.next] = success
	if !success {
		b.failed++
	}
	b.next = (b.next + 1) % len(b.ring)

	if b.filled < b.cfg.MinRequests {
		return
	}
	if float64(b.failed)/float64(b.filled) >= b.cfg.FailureRatio {
		b.moveLocked(ctx, Open)
	}
}

// Do runs fn when the breaker allows it and reports whether fn failed.
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	if !b.Allow(ctx) {
		return ErrOpenCircuit
	}
	err := fn(ctx)
	b.Report(ctx, err == nil)
	return err
}

func (b *Breaker) moveLocked(ctx context.Context, next State) {
	prev := b.state
	if prev == next {
		return
	}
	b.state = next
	b.inFlight, b.probesOK = 0, 0
	switch next {
	case Open:
		b.openedAt = b.cfg.Now()
	case Closed:
		b.openedAt = time.Time{}
		b.next, b.filled, b.failed = 0, 0, 0
	}
	b.publishState()

	BreakerTransitions.WithLabelValues(b.cfg.Target, prev.String(), next.String()).Inc()
	if next == Open {
		BreakerOpenedTotal.WithLabelValues(b.cfg.Target).Inc()
	}
	evt := b.logger(ctx).Info().
		Str("target", b.cfg.Target).
		Str("from_state", prev.String()).
		Str("to_state", next.String())
	if span := trace.SpanContextFromContext(ctx); span.IsValid() {
		evt = evt.Str("trace_id", span.TraceID().String())
	}
	evt.Msg("breaker_transition")
}

func (b *Breaker) publishState() {
	BreakerState.WithLabelValues(b.cfg.Target).Set(float64(b.state))
}

func (b *Breaker) logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	if b.cfg.Logger != nil {
		return b.cfg.Logger
	}
	nop := zerolog.Nop()
	return &nop
}
