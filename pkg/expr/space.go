// Package expr provides a small vector expression algebra over decision
// variables, in the disciplined convex programming style consumed by convex
// solvers.
//
// Decision variables are allocated from a Space as contiguous column ranges of
// one stacked decision vector. Expressions are built from variables and
// constants, and relations between expressions are the constraints handed to a
// solver. A relation can also be evaluated at a point, which is how
// feasibility of a candidate solution is checked.
//
// Shape misuse (mismatched lengths, out of range slices) is a programmer error
// and panics with ErrShape, following the gonum convention.
package expr

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrShape is the panic value for mismatched expression lengths.
	ErrShape = errors.New("expr: dimension mismatch")
	// ErrZeroLength is the panic value for empty expressions.
	ErrZeroLength = errors.New("expr: zero length expression")
)

// Var is a handle to a decision variable allocated from a Space.
type Var struct {
	Name   string
	Offset int // first column in the stacked decision vector
	Size   int
}

// Expr returns the identity affine expression over the variable's columns.
func (v Var) Expr() *Affine {
	rows := make([]Row, v.Size)
	for i := range rows {
		rows[i] = Row{Terms: []Term{{Col: v.Offset + i, Coef: 1}}}
	}
	return &Affine{rows: rows}
}

// Space allocates decision variables. A Space is built by a single caller
// (typically once per period) and is not safe for concurrent mutation.
type Space struct {
	vars  []Var
	index map[string]int
	size  int
}

// NewSpace creates an empty variable space.
func NewSpace() *Space {
	return &Space{index: make(map[string]int)}
}

// NewVar allocates a variable of the given size. Names must be unique.
func (s *Space) NewVar(name string, size int) (Var, error) {
	if size < 1 {
		return Var{}, fmt.Errorf("variable %q: size must be positive, got %d", name, size)
	}
	if _, exists := s.index[name]; exists {
		return Var{}, fmt.Errorf("variable %q already allocated", name)
	}

	v := Var{Name: name, Offset: s.size, Size: size}
	s.index[name] = len(s.vars)
	s.vars = append(s.vars, v)
	s.size += size
	return v, nil
}

// Size returns the length of the stacked decision vector.
func (s *Space) Size() int {
	return s.size
}

// Vars returns the allocated variables in allocation order.
func (s *Space) Vars() []Var {
	out := make([]Var, len(s.vars))
	copy(out, s.vars)
	return out
}

// Lookup returns the variable with the given name.
func (s *Space) Lookup(name string) (Var, bool) {
	i, ok := s.index[name]
	if !ok {
		return Var{}, false
	}
	return s.vars[i], true
}

// Assign builds a point in the space from per-variable values. Every
// allocated variable must be assigned.
func (s *Space) Assign(values map[string][]float64) (*mat.VecDense, error) {
	if s.size == 0 {
		return nil, fmt.Errorf("space has no variables")
	}

	x := mat.NewVecDense(s.size, nil)
	for _, v := range s.vars {
		vals, ok := values[v.Name]
		if !ok {
			return nil, fmt.Errorf("variable %q is not assigned", v.Name)
		}
		if len(vals) != v.Size {
			return nil, fmt.Errorf("variable %q has size %d, got %d values", v.Name, v.Size, len(vals))
		}
		for i, val := range vals {
			x.SetVec(v.Offset+i, val)
		}
	}
	for name := range values {
		if _, ok := s.index[name]; !ok {
			return nil, fmt.Errorf("unknown variable %q", name)
		}
	}
	return x, nil
}
