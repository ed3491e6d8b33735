package config

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aristath/sentinel-constraints/internal/modules/constraints"
)

// limitSeriesLayout is the date format of limit_series keys
const limitSeriesLayout = "2006-01-02"

// ConstraintSet is the on-disk constraint set
type ConstraintSet struct {
	Universe    []string          `yaml:"universe" json:"universe"`
	ADV         ADVConfig         `yaml:"adv" json:"adv"`
	Constraints []ConstraintEntry `yaml:"constraints" json:"constraints"`
}

// ADVConfig configures the ADV table built for max_trade
type ADVConfig struct {
	Window int `yaml:"window" json:"window"`
}

// ConstraintEntry is one constraint of the set
type ConstraintEntry struct {
	Kind        string             `yaml:"kind" json:"kind"`
	Limit       *float64           `yaml:"limit,omitempty" json:"limit,omitempty"`
	LimitSeries map[string]float64 `yaml:"limit_series,omitempty" json:"limit_series,omitempty"`
	Fraction    *float64           `yaml:"fraction,omitempty" json:"fraction,omitempty"`
}

// ValidationError reports an invalid constraint set field
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// DefaultConstraintSet is used when no constraint file is configured
func DefaultConstraintSet() *ConstraintSet {
	return &ConstraintSet{
		Constraints: []ConstraintEntry{
			{Kind: constraints.KindLongOnly},
			{Kind: constraints.KindLongCash},
		},
	}
}

// LoadConstraintsFile reads and validates a YAML constraint set.
// Unknown fields are rejected.
func LoadConstraintsFile(path string) (*ConstraintSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read constraint file: %w", err)
	}
	return ParseConstraintSet(data)
}

// ParseConstraintSet decodes and validates a YAML constraint set.
func ParseConstraintSet(data []byte) (*ConstraintSet, error) {
	var set ConstraintSet
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&set); err != nil {
		return nil, fmt.Errorf("failed to decode constraint file: %w", err)
	}

	if err := set.Validate(); err != nil {
		return nil, err
	}
	return &set, nil
}

// Validate checks the set without building constraints.
func (s *ConstraintSet) Validate() error {
	seen := make(map[string]struct{}, len(s.Universe))
	for i, isin := range s.Universe {
		field := fmt.Sprintf("universe[%d]", i)
		if isin == "" {
			return ValidationError{field, "required"}
		}
		if _, dup := seen[isin]; dup {
			return ValidationError{field, fmt.Sprintf("duplicate asset %s", isin)}
		}
		seen[isin] = struct{}{}
	}

	if s.ADV.Window < 0 {
		return ValidationError{"adv.window", "must be >= 0"}
	}

	if len(s.Constraints) == 0 {
		return ValidationError{"constraints", "at least one constraint is required"}
	}

	for i, c := range s.Constraints {
		prefix := fmt.Sprintf("constraints[%d]", i)
		if c.Kind == "" {
			return ValidationError{prefix + ".kind", "required"}
		}
		if c.Limit != nil && (math.IsNaN(*c.Limit) || math.IsInf(*c.Limit, 0)) {
			return ValidationError{prefix + ".limit", "must be finite"}
		}
		for key, v := range c.LimitSeries {
			if _, err := time.Parse(limitSeriesLayout, key); err != nil {
				return ValidationError{prefix + ".limit_series", fmt.Sprintf("invalid date %q, want YYYY-MM-DD", key)}
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return ValidationError{prefix + ".limit_series", fmt.Sprintf("value for %s must be finite", key)}
			}
		}
		if c.Fraction != nil && (*c.Fraction <= 0 || *c.Fraction > 1) {
			return ValidationError{prefix + ".fraction", "must be in (0, 1]"}
		}
		if c.Kind == constraints.KindMaxTrade && len(s.Universe) == 0 {
			return ValidationError{"universe", "required by max_trade"}
		}
	}

	return nil
}

// NeedsADV reports whether any entry is a max_trade constraint.
func (s *ConstraintSet) NeedsADV() bool {
	for _, c := range s.Constraints {
		if c.Kind == constraints.KindMaxTrade {
			return true
		}
	}
	return false
}

// Definitions converts the entries into registry definitions. Limit series
// dates are UTC midnight.
func (s *ConstraintSet) Definitions() ([]constraints.Definition, error) {
	defs := make([]constraints.Definition, 0, len(s.Constraints))
	for i, c := range s.Constraints {
		def := constraints.Definition{
			Kind:     c.Kind,
			Limit:    c.Limit,
			Fraction: c.Fraction,
		}
		if c.LimitSeries != nil {
			def.LimitSeries = make(map[time.Time]float64, len(c.LimitSeries))
			for key, v := range c.LimitSeries {
				t, err := time.Parse(limitSeriesLayout, key)
				if err != nil {
					return nil, ValidationError{fmt.Sprintf("constraints[%d].limit_series", i), err.Error()}
				}
				def.LimitSeries[t] = v
			}
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// Hash returns the SHA-256 of the set's JSON encoding. Universe order is
// significant since it fixes the asset columns.
func (s *ConstraintSet) Hash() (string, error) {
	// json.Marshal sorts map keys, so limit_series encodes deterministically.
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
