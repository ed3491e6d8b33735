package expr

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Term is one coefficient of an affine row.
type Term struct {
	Col  int
	Coef float64
}

// Row is a single affine function: sum(Coef * x[Col]) + Const.
// Terms are sorted by column and hold no zero coefficients.
type Row struct {
	Terms []Term
	Const float64
}

// Affine is a vector of affine functions of the decision vector.
// Affine values are immutable; every operation returns a new expression.
type Affine struct {
	rows []Row
}

// Const returns a constant expression with the given entries.
func Const(values ...float64) *Affine {
	if len(values) == 0 {
		panic(ErrZeroLength)
	}
	rows := make([]Row, len(values))
	for i, v := range values {
		rows[i] = Row{Const: v}
	}
	return &Affine{rows: rows}
}

// Len returns the number of entries.
func (a *Affine) Len() int {
	return len(a.rows)
}

// Rows returns a copy of the affine rows.
func (a *Affine) Rows() []Row {
	out := make([]Row, len(a.rows))
	for i, r := range a.rows {
		out[i] = Row{Terms: append([]Term(nil), r.Terms...), Const: r.Const}
	}
	return out
}

// Curvature is CurvatureConstant when no entry depends on a variable and
// CurvatureAffine otherwise.
func (a *Affine) Curvature() Curvature {
	for _, r := range a.rows {
		if len(r.Terms) > 0 {
			return CurvatureAffine
		}
	}
	return CurvatureConstant
}

// At returns entry i as a scalar expression.
func (a *Affine) At(i int) *Affine {
	if i < 0 || i >= len(a.rows) {
		panic(ErrShape)
	}
	return a.Slice(i, i+1)
}

// Slice returns entries [i, j).
func (a *Affine) Slice(i, j int) *Affine {
	if i < 0 || j > len(a.rows) || i >= j {
		panic(ErrShape)
	}
	rows := make([]Row, j-i)
	for k := range rows {
		src := a.rows[i+k]
		rows[k] = Row{Terms: append([]Term(nil), src.Terms...), Const: src.Const}
	}
	return &Affine{rows: rows}
}

// Scale multiplies every entry by k.
func (a *Affine) Scale(k float64) *Affine {
	rows := make([]Row, len(a.rows))
	for i, r := range a.rows {
		terms := make([]Term, 0, len(r.Terms))
		if k != 0 {
			for _, t := range r.Terms {
				terms = append(terms, Term{Col: t.Col, Coef: k * t.Coef})
			}
		}
		rows[i] = Row{Terms: terms, Const: k * r.Const}
	}
	return &Affine{rows: rows}
}

// Add returns a + b. A scalar operand is broadcast.
func (a *Affine) Add(b *Affine) *Affine {
	return combine(a, b, 1)
}

// Sub returns a - b. A scalar operand is broadcast.
func (a *Affine) Sub(b *Affine) *Affine {
	return combine(a, b, -1)
}

// Sum returns the scalar sum of all entries.
func (a *Affine) Sum() *Affine {
	acc := map[int]float64{}
	var c float64
	for _, r := range a.rows {
		for _, t := range r.Terms {
			acc[t.Col] += t.Coef
		}
		c += r.Const
	}
	return &Affine{rows: []Row{{Terms: sortedTerms(acc), Const: c}}}
}

// Eval evaluates the expression at x. x may be nil for constant expressions.
func (a *Affine) Eval(x mat.Vector) (*mat.VecDense, error) {
	out := mat.NewVecDense(len(a.rows), nil)
	for i, r := range a.rows {
		v := r.Const
		for _, t := range r.Terms {
			if x == nil || t.Col >= x.Len() {
				return nil, fmt.Errorf("expression references column %d outside the point", t.Col)
			}
			v += t.Coef * x.AtVec(t.Col)
		}
		out.SetVec(i, v)
	}
	return out, nil
}

func (a *Affine) String() string {
	parts := make([]string, len(a.rows))
	for i, r := range a.rows {
		parts[i] = r.String()
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (r Row) String() string {
	var b strings.Builder
	for i, t := range r.Terms {
		if i > 0 {
			b.WriteString(" + ")
		}
		if t.Coef != 1 {
			b.WriteString(formatFloat(t.Coef))
			b.WriteString("*")
		}
		fmt.Fprintf(&b, "x%d", t.Col)
	}
	if r.Const != 0 || len(r.Terms) == 0 {
		if len(r.Terms) > 0 {
			b.WriteString(" + ")
		}
		b.WriteString(formatFloat(r.Const))
	}
	return b.String()
}

func combine(a, b *Affine, sign float64) *Affine {
	n, ok := broadcastLen(a.Len(), b.Len())
	if !ok {
		panic(ErrShape)
	}
	rows := make([]Row, n)
	for i := range rows {
		ra := a.rows[broadcastIndex(a.Len(), i)]
		rb := b.rows[broadcastIndex(b.Len(), i)]
		acc := make(map[int]float64, len(ra.Terms)+len(rb.Terms))
		for _, t := range ra.Terms {
			acc[t.Col] += t.Coef
		}
		for _, t := range rb.Terms {
			acc[t.Col] += sign * t.Coef
		}
		rows[i] = Row{Terms: sortedTerms(acc), Const: ra.Const + sign*rb.Const}
	}
	return &Affine{rows: rows}
}

func sortedTerms(acc map[int]float64) []Term {
	terms := make([]Term, 0, len(acc))
	for col, coef := range acc {
		if coef != 0 {
			terms = append(terms, Term{Col: col, Coef: coef})
		}
	}
	sort.Slice(terms, func(i, j int) bool { return terms[i].Col < terms[j].Col })
	return terms
}

// broadcastLen returns the result length of an elementwise operation on
// operands of length m and n, where a length one operand is broadcast.
func broadcastLen(m, n int) (int, bool) {
	switch {
	case m == n:
		return m, true
	case m == 1:
		return n, true
	case n == 1:
		return m, true
	}
	return 0, false
}

func broadcastIndex(n, i int) int {
	if n == 1 {
		return 0
	}
	return i
}
