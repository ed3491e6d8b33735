package constraints

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aristath/sentinel-constraints/internal/modules/series"
)

// Definition is the declarative form of a constraint, as read from a
// constraint set file.
type Definition struct {
	Kind        string
	Limit       *float64              // fixed limit
	LimitSeries map[time.Time]float64 // per-period limit; exclusive with Limit
	Fraction    *float64              // max_trade ADV fraction
}

// Data carries construction-time series that definitions refer to.
type Data struct {
	ADV *series.Table
}

// Factory builds a constraint from its definition.
type Factory func(def Definition, data Data) (Constraint, error)

// Registry maps constraint kinds to factories. New kinds are added with
// Register; aggregation never depends on concrete kinds.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a registry with every built-in kind registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(KindLongOnly, func(def Definition, _ Data) (Constraint, error) {
		return NewLongOnly(), noLimit(def)
	})
	r.Register(KindLongCash, func(def Definition, _ Data) (Constraint, error) {
		return NewLongCash(), noLimit(def)
	})
	r.Register(KindDollarNeutral, func(def Definition, _ Data) (Constraint, error) {
		return NewDollarNeutral(), noLimit(def)
	})
	r.Register(KindLeverageLimit, limitFactory(func(l Limit) Constraint { return NewLeverageLimit(l) }))
	r.Register(KindMaxWeights, limitFactory(func(l Limit) Constraint { return NewMaxWeights(l) }))
	r.Register(KindMinWeights, limitFactory(func(l Limit) Constraint { return NewMinWeights(l) }))
	r.Register(KindMaxActiveWeight, limitFactory(func(l Limit) Constraint { return NewMaxActiveWeight(l) }))
	r.Register(KindMaxTrade, buildMaxTrade)
	return r
}

// Register adds a factory for kind, replacing any existing one.
func (r *Registry) Register(kind string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[kind] = f
}

// Kinds returns the registered kinds in alphabetical order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Build creates the constraint for def.
func (r *Registry) Build(def Definition, data Data) (Constraint, error) {
	r.mu.RLock()
	f, ok := r.factories[def.Kind]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown constraint kind %q", def.Kind)
	}
	c, err := f(def, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", def.Kind, err)
	}
	return c, nil
}

// BuildAll creates constraints for every definition, in order.
func (r *Registry) BuildAll(defs []Definition, data Data) ([]Constraint, error) {
	out := make([]Constraint, 0, len(defs))
	for i, def := range defs {
		c, err := r.Build(def, data)
		if err != nil {
			return nil, fmt.Errorf("constraint %d: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func limitFactory(build func(Limit) Constraint) Factory {
	return func(def Definition, _ Data) (Constraint, error) {
		if def.Fraction != nil {
			return nil, fmt.Errorf("fraction is only valid for %s", KindMaxTrade)
		}
		l, err := def.limit()
		if err != nil {
			return nil, err
		}
		return build(l), nil
	}
}

func buildMaxTrade(def Definition, data Data) (Constraint, error) {
	if def.Limit != nil || def.LimitSeries != nil {
		return nil, fmt.Errorf("limits are not valid for %s", KindMaxTrade)
	}
	if data.ADV == nil {
		return nil, fmt.Errorf("an ADV table is required")
	}
	var opts []MaxTradeOption
	if def.Fraction != nil {
		if *def.Fraction <= 0 {
			return nil, fmt.Errorf("fraction must be positive, got %g", *def.Fraction)
		}
		opts = append(opts, WithMaxFraction(*def.Fraction))
	}
	return NewMaxTrade(data.ADV, opts...), nil
}

func (def Definition) limit() (Limit, error) {
	switch {
	case def.Limit != nil && def.LimitSeries != nil:
		return Limit{}, fmt.Errorf("limit and limit series are exclusive")
	case def.Limit != nil:
		return FixedLimit(*def.Limit), nil
	case def.LimitSeries != nil:
		s, err := series.New(def.LimitSeries)
		if err != nil {
			return Limit{}, err
		}
		return SeriesLimit(s), nil
	}
	return Limit{}, fmt.Errorf("a limit or limit series is required")
}

func noLimit(def Definition) error {
	if def.Limit != nil || def.LimitSeries != nil || def.Fraction != nil {
		return fmt.Errorf("takes no parameters")
	}
	return nil
}
