package expr

import (
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// DefaultTolerance is the residual above which a relation entry counts as
// violated.
const DefaultTolerance = 1e-9

// Op is a relational operator.
type Op int

const (
	LessEq Op = iota
	GreaterEq
	Equal
)

func (o Op) String() string {
	switch o {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	case Equal:
		return "=="
	default:
		return "?"
	}
}

// Relation is an elementwise (in)equality between two expressions. A length
// one side is broadcast against the other.
type Relation struct {
	Lhs Expr
	Op  Op
	Rhs Expr
}

// Le returns lhs <= rhs.
func Le(lhs, rhs Expr) Relation {
	return newRelation(lhs, LessEq, rhs)
}

// Ge returns lhs >= rhs.
func Ge(lhs, rhs Expr) Relation {
	return newRelation(lhs, GreaterEq, rhs)
}

// Eq returns lhs == rhs.
func Eq(lhs, rhs Expr) Relation {
	return newRelation(lhs, Equal, rhs)
}

func newRelation(lhs Expr, op Op, rhs Expr) Relation {
	if _, ok := broadcastLen(lhs.Len(), rhs.Len()); !ok {
		panic(ErrShape)
	}
	return Relation{Lhs: lhs, Op: op, Rhs: rhs}
}

// Len returns the number of scalar relations after broadcasting.
func (r Relation) Len() int {
	n, _ := broadcastLen(r.Lhs.Len(), r.Rhs.Len())
	return n
}

// DCP reports whether the relation defines a convex set under disciplined
// convex programming rules: convex <= concave, concave >= convex, and
// affine == affine.
func (r Relation) DCP() bool {
	lc, rc := r.Lhs.Curvature(), r.Rhs.Curvature()
	switch r.Op {
	case LessEq:
		return lc.IsConvex() && rc.IsConcave()
	case GreaterEq:
		return lc.IsConcave() && rc.IsConvex()
	case Equal:
		return lc.IsAffine() && rc.IsAffine()
	}
	return false
}

// Residual returns, per entry, how far the relation is from holding at x.
// Entries are positive when violated: lhs-rhs for <=, rhs-lhs for >=, and
// |lhs-rhs| for ==.
func (r Relation) Residual(x mat.Vector) (*mat.VecDense, error) {
	lhs, err := r.Lhs.Eval(x)
	if err != nil {
		return nil, fmt.Errorf("evaluate left side of %s: %w", r, err)
	}
	rhs, err := r.Rhs.Eval(x)
	if err != nil {
		return nil, fmt.Errorf("evaluate right side of %s: %w", r, err)
	}

	n := r.Len()
	lhs, rhs = broadcastVec(lhs, n), broadcastVec(rhs, n)

	res := mat.NewVecDense(n, nil)
	switch r.Op {
	case LessEq:
		res.SubVec(lhs, rhs)
	case GreaterEq:
		res.SubVec(rhs, lhs)
	case Equal:
		res.SubVec(lhs, rhs)
		raw := res.RawVector().Data
		for i := range raw {
			raw[i] = math.Abs(raw[i])
		}
	}
	return res, nil
}

// Violations returns the indices of entries whose residual exceeds tol.
// A NaN residual counts as violated.
func (r Relation) Violations(x mat.Vector, tol float64) ([]int, error) {
	res, err := r.Residual(x)
	if err != nil {
		return nil, err
	}
	var out []int
	for i := 0; i < res.Len(); i++ {
		v := res.AtVec(i)
		if v > tol || math.IsNaN(v) {
			out = append(out, i)
		}
	}
	return out, nil
}

// Satisfied reports whether every entry holds within tol at x.
func (r Relation) Satisfied(x mat.Vector, tol float64) (bool, error) {
	v, err := r.Violations(x, tol)
	if err != nil {
		return false, err
	}
	return len(v) == 0, nil
}

func (r Relation) String() string {
	return fmt.Sprintf("%s %s %s", r.Lhs, r.Op, r.Rhs)
}

func broadcastVec(v *mat.VecDense, n int) *mat.VecDense {
	if v.Len() == n {
		return v
	}
	out := mat.NewVecDense(n, nil)
	s := v.AtVec(0)
	for i := 0; i < n; i++ {
		out.SetVec(i, s)
	}
	return out
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
