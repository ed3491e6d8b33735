// Package di provides dependency injection wiring and initialization.
package di

import (
	"github.com/aristath/sentinel-constraints/internal/config"
	"github.com/aristath/sentinel-constraints/internal/database"
	"github.com/aristath/sentinel-constraints/internal/modules/constraints"
	"github.com/aristath/sentinel-constraints/internal/modules/historical"
	"github.com/aristath/sentinel-constraints/internal/modules/optimization"
)

// Container holds all application dependencies
type Container struct {
	// Databases
	HistoryDB *database.DB

	// Repositories
	HistoryRepo *historical.Repository

	// Constraint set
	ConstraintSet     *config.ConstraintSet
	ConstraintSetHash string
	Registry          *constraints.Registry
	Constraints       []constraints.Constraint

	// Services
	ADVBuilder *historical.ADVBuilder
	Aggregator *optimization.Aggregator
}

// Close releases every resource held by the container
func (c *Container) Close() error {
	if c == nil || c.HistoryDB == nil {
		return nil
	}
	return c.HistoryDB.Close()
}
