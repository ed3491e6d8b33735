package optimization

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Violation lists the entries of one relation that do not hold.
type Violation struct {
	Source    string    `json:"constraint" msgpack:"constraint"`
	Relation  string    `json:"relation" msgpack:"relation"`
	Indices   []int     `json:"indices" msgpack:"indices"`
	Residuals []float64 `json:"residuals" msgpack:"residuals"`
}

// Report is the result of checking a period's feasible set at a point.
type Report struct {
	Period     time.Time   `json:"period" msgpack:"period"`
	Feasible   bool        `json:"feasible" msgpack:"feasible"`
	Checked    int         `json:"checked" msgpack:"checked"`
	Violations []Violation `json:"violations" msgpack:"violations"`
	Skipped    []string    `json:"skipped,omitempty" msgpack:"skipped,omitempty"`
}

// Check evaluates every relation at x. Relations over constants only may be
// checked with a nil x. An entry is violated when its residual exceeds tol.
func (p *PeriodConstraints) Check(x mat.Vector, tol float64) (*Report, error) {
	report := &Report{Period: p.Period, Violations: []Violation{}}
	for _, s := range p.Skipped {
		report.Skipped = append(report.Skipped, s.Source)
	}

	for _, e := range p.Entries {
		for _, r := range e.Relations {
			res, err := r.Residual(x)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", e.Source, err)
			}
			report.Checked += res.Len()

			idx, err := r.Violations(x, tol)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", e.Source, err)
			}
			if len(idx) == 0 {
				continue
			}
			residuals := make([]float64, len(idx))
			for i, j := range idx {
				residuals[i] = res.AtVec(j)
			}
			report.Violations = append(report.Violations, Violation{
				Source:    e.Source,
				Relation:  r.String(),
				Indices:   idx,
				Residuals: residuals,
			})
		}
	}

	report.Feasible = len(report.Violations) == 0
	return report, nil
}
