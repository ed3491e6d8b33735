package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/sentinel-constraints/internal/config"
	"github.com/aristath/sentinel-constraints/internal/modules/constraints"
	"github.com/aristath/sentinel-constraints/internal/modules/historical"
	"github.com/aristath/sentinel-constraints/internal/modules/optimization"
)

// InitializeServices loads the constraint set and builds the aggregator
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	set := config.DefaultConstraintSet()
	if cfg.ConstraintsFile != "" {
		loaded, err := config.LoadConstraintsFile(cfg.ConstraintsFile)
		if err != nil {
			return fmt.Errorf("failed to load constraint set: %w", err)
		}
		set = loaded
	} else {
		log.Info().Msg("No constraint file configured, using long_only and long_cash")
	}

	hash, err := set.Hash()
	if err != nil {
		return fmt.Errorf("failed to hash constraint set: %w", err)
	}
	container.ConstraintSet = set
	container.ConstraintSetHash = hash

	var data constraints.Data
	container.ADVBuilder = historical.NewADVBuilder(container.HistoryRepo, set.ADV.Window, log)
	if set.NeedsADV() {
		adv, err := container.ADVBuilder.Build(ctx, set.Universe, nil)
		if err != nil {
			return fmt.Errorf("failed to build ADV table: %w", err)
		}
		data.ADV = adv
	}

	defs, err := set.Definitions()
	if err != nil {
		return err
	}

	container.Registry = constraints.DefaultRegistry()
	cs, err := container.Registry.BuildAll(defs, data)
	if err != nil {
		return fmt.Errorf("failed to build constraints: %w", err)
	}
	container.Constraints = cs

	policy, err := optimization.ParseLookupPolicy(cfg.LookupPolicy)
	if err != nil {
		return err
	}
	container.Aggregator = optimization.NewAggregator(log, optimization.Options{
		Policy:  policy,
		Workers: cfg.EvaluationWorkers,
	}, cs...)

	log.Info().
		Strs("constraints", container.Aggregator.Names()).
		Str("config_hash", hash).
		Str("lookup_policy", policy.String()).
		Msg("Constraint set loaded")

	return nil
}
