package expr

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Curvature classifies an expression under disciplined convex programming
// rules.
type Curvature int

const (
	CurvatureConstant Curvature = iota
	CurvatureAffine
	CurvatureConvex
	CurvatureConcave
	CurvatureUnknown
)

func (c Curvature) String() string {
	switch c {
	case CurvatureConstant:
		return "constant"
	case CurvatureAffine:
		return "affine"
	case CurvatureConvex:
		return "convex"
	case CurvatureConcave:
		return "concave"
	default:
		return "unknown"
	}
}

// IsConvex reports whether c is constant, affine or convex.
func (c Curvature) IsConvex() bool {
	return c == CurvatureConstant || c == CurvatureAffine || c == CurvatureConvex
}

// IsConcave reports whether c is constant, affine or concave.
func (c Curvature) IsConcave() bool {
	return c == CurvatureConstant || c == CurvatureAffine || c == CurvatureConcave
}

// IsAffine reports whether c is constant or affine.
func (c Curvature) IsAffine() bool {
	return c == CurvatureConstant || c == CurvatureAffine
}

// Expr is a vector valued expression over the decision vector.
type Expr interface {
	Len() int
	Curvature() Curvature
	// Eval evaluates the expression at x. x may be nil when the expression
	// is constant.
	Eval(x mat.Vector) (*mat.VecDense, error)
	String() string
}

// AbsExpr is the elementwise absolute value of its argument.
type AbsExpr struct {
	Arg Expr
}

// Abs returns the elementwise absolute value of e.
func Abs(e Expr) *AbsExpr {
	return &AbsExpr{Arg: e}
}

func (a *AbsExpr) Len() int { return a.Arg.Len() }

func (a *AbsExpr) Curvature() Curvature {
	switch c := a.Arg.Curvature(); c {
	case CurvatureConstant:
		return CurvatureConstant
	case CurvatureAffine:
		return CurvatureConvex
	default:
		return CurvatureUnknown
	}
}

func (a *AbsExpr) Eval(x mat.Vector) (*mat.VecDense, error) {
	v, err := a.Arg.Eval(x)
	if err != nil {
		return nil, err
	}
	raw := v.RawVector().Data
	for i := range raw {
		raw[i] = math.Abs(raw[i])
	}
	return v, nil
}

func (a *AbsExpr) String() string {
	return fmt.Sprintf("abs(%s)", a.Arg)
}

// Norm1Expr is the scalar L1 norm of its argument.
type Norm1Expr struct {
	Arg Expr
}

// Norm1 returns the L1 norm of e, the sum of absolute values of its entries.
func Norm1(e Expr) *Norm1Expr {
	return &Norm1Expr{Arg: e}
}

func (n *Norm1Expr) Len() int { return 1 }

func (n *Norm1Expr) Curvature() Curvature {
	switch c := n.Arg.Curvature(); c {
	case CurvatureConstant:
		return CurvatureConstant
	case CurvatureAffine:
		return CurvatureConvex
	default:
		return CurvatureUnknown
	}
}

func (n *Norm1Expr) Eval(x mat.Vector) (*mat.VecDense, error) {
	v, err := n.Arg.Eval(x)
	if err != nil {
		return nil, err
	}
	return mat.NewVecDense(1, []float64{floats.Norm(v.RawVector().Data, 1)}), nil
}

func (n *Norm1Expr) String() string {
	return fmt.Sprintf("norm1(%s)", n.Arg)
}

// ScaledExpr multiplies its argument by a constant factor.
type ScaledExpr struct {
	Factor float64
	Arg    Expr
}

// Scale returns k * e. A negative factor flips the curvature of e.
func Scale(k float64, e Expr) Expr {
	if a, ok := e.(*Affine); ok {
		return a.Scale(k)
	}
	return &ScaledExpr{Factor: k, Arg: e}
}

func (s *ScaledExpr) Len() int { return s.Arg.Len() }

func (s *ScaledExpr) Curvature() Curvature {
	c := s.Arg.Curvature()
	switch {
	case s.Factor == 0:
		return CurvatureConstant
	case s.Factor > 0:
		return c
	}
	switch c {
	case CurvatureConvex:
		return CurvatureConcave
	case CurvatureConcave:
		return CurvatureConvex
	}
	return c
}

func (s *ScaledExpr) Eval(x mat.Vector) (*mat.VecDense, error) {
	v, err := s.Arg.Eval(x)
	if err != nil {
		return nil, err
	}
	v.ScaleVec(s.Factor, v)
	return v, nil
}

func (s *ScaledExpr) String() string {
	return fmt.Sprintf("%s*%s", formatFloat(s.Factor), s.Arg)
}
