package postalcode

import (
	"context"
	"log/slog"
	"time"
)

// Lookup outcomes reported to the Observer.
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeEmpty    = "empty"
)

// Observer records per-provider lookup results (see telemetry.LookupMetrics).
type Observer interface {
	ObserveLookup(provider, outcome string, duration time.Duration)
}

// Resolver asks the primary provider and, only when it has no answer, the
// fallback. There are no retries and nothing is cached.
type Resolver struct {
	primary  Provider
	fallback Provider
	observer Observer
	logger   *slog.Logger
}

var _ Lookup = (*Resolver)(nil)

// NewResolver creates a Resolver. observer and logger may be nil.
func NewResolver(primary, fallback Provider, observer Observer, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		primary:  primary,
		fallback: fallback,
		observer: observer,
		logger:   logger,
	}
}

// Resolve returns the first canonical address produced by the providers.
func (r *Resolver) Resolve(ctx context.Context, code string) (*Address, error) {
	if addr, ok := r.try(ctx, r.primary, code); ok {
		return &addr, nil
	}

	r.logger.Debug("primary provider had no answer, falling back",
		slog.String("postal_code", code),
		slog.String("primary", r.primary.Name()),
		slog.String("fallback", r.fallback.Name()),
	)

	if addr, ok := r.try(ctx, r.fallback, code); ok {
		return &addr, nil
	}

	return nil, ErrPostalCodeNotFound.WithOp("postalcode.resolve")
}

func (r *Resolver) try(ctx context.Context, p Provider, code string) (Address, bool) {
	start := time.Now()
	payload := p.Fetch(ctx, code)
	addr, ok := p.Normalize(payload)

	outcome := OutcomeFound
	switch {
	case payload.Empty():
		outcome = OutcomeEmpty
	case !ok:
		outcome = OutcomeNotFound
	}
	if r.observer != nil {
		r.observer.ObserveLookup(p.Name(), outcome, time.Since(start))
	}

	return addr, ok
}
