package testing

import (
	"sync"
	"time"

	"github.com/aristath/sentinel-constraints/internal/modules/constraints"
	"github.com/aristath/sentinel-constraints/pkg/expr"
)

// MockConstraint is a constraints.Constraint returning canned relations.
type MockConstraint struct {
	mu        sync.RWMutex
	name      string
	relations []expr.Relation
	err       error
	calls     []time.Time
}

// NewMockConstraint creates a mock constraint labelled name.
func NewMockConstraint(name string) *MockConstraint {
	return &MockConstraint{name: name}
}

// SetRelations sets the relations to return
func (m *MockConstraint) SetRelations(rels ...expr.Relation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relations = rels
}

// SetError sets the error to return
func (m *MockConstraint) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Estimate records the period and returns the canned result.
func (m *MockConstraint) Estimate(t time.Time, _ constraints.State) ([]expr.Relation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, t)
	if m.err != nil {
		return nil, m.err
	}
	return m.relations, nil
}

// Calls returns the periods Estimate was called with.
func (m *MockConstraint) Calls() []time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]time.Time(nil), m.calls...)
}

func (m *MockConstraint) String() string {
	return m.name
}
