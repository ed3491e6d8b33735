package constraints

import (
	"fmt"

	"github.com/aristath/sentinel-constraints/pkg/expr"
)

// Weights is a weight vector over the asset universe followed by one cash
// slot. The cash slot is always last; use Cash and Assets instead of indexing.
type Weights struct {
	vec *expr.Affine
}

// NewWeights wraps an expression whose final entry is cash.
func NewWeights(e *expr.Affine) (Weights, error) {
	if e == nil || e.Len() == 0 {
		return Weights{}, fmt.Errorf("weights need at least the cash slot")
	}
	return Weights{vec: e}, nil
}

// WeightsOf returns the variable as a weight vector with cash last.
func WeightsOf(v expr.Var) Weights {
	return Weights{vec: v.Expr()}
}

// ConstWeights returns constant weights; the final value is cash.
func ConstWeights(values ...float64) Weights {
	if len(values) == 0 {
		return Weights{}
	}
	return Weights{vec: expr.Const(values...)}
}

// IsZero reports whether w is the zero value (no vector supplied).
func (w Weights) IsZero() bool {
	return w.vec == nil
}

// Len returns the number of entries including cash.
func (w Weights) Len() int {
	if w.vec == nil {
		return 0
	}
	return w.vec.Len()
}

// NumAssets returns the number of non-cash entries.
func (w Weights) NumAssets() int {
	if w.vec == nil {
		return 0
	}
	return w.vec.Len() - 1
}

// All returns every entry, cash included.
func (w Weights) All() *expr.Affine {
	return w.vec
}

// Assets returns the non-cash entries, or nil when the universe is empty.
func (w Weights) Assets() *expr.Affine {
	if w.NumAssets() == 0 {
		return nil
	}
	return w.vec.Slice(0, w.NumAssets())
}

// Cash returns the cash entry.
func (w Weights) Cash() *expr.Affine {
	return w.vec.At(w.NumAssets())
}
