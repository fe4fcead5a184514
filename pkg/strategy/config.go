package strategy

import (
	"fmt"
	"math"
	"time"

	"github.com/absmach/fedround/pkg/fl"
	"github.com/absmach/fedround/pkg/roundconfig"
)

const DefaultRoundTimeout = 5 * time.Minute

type Config struct {
	FractionFit         float64
	FractionEvaluate    float64
	MinFitClients       int
	MinEvaluateClients  int
	MinAvailableClients int
	// AcceptFailures keeps a round going when some selected participants
	// fail; when false any failure abandons the round at collection.
	AcceptFailures bool
	RoundTimeout   time.Duration

	OnFitConfig                roundconfig.FitConfigFunc
	OnEvaluateConfig           roundconfig.EvaluateConfigFunc
	FitMetricsAggregation      fl.MetricsAggregationFunc
	EvaluateMetricsAggregation fl.MetricsAggregationFunc
}

// DefaultConfig samples every participant of a pool of at least three and
// takes its round payloads from gen.
func DefaultConfig(gen roundconfig.Generator) Config {
	return Config{
		FractionFit:                1.0,
		FractionEvaluate:           1.0,
		MinFitClients:              3,
		MinEvaluateClients:         3,
		MinAvailableClients:        3,
		AcceptFailures:             true,
		RoundTimeout:               DefaultRoundTimeout,
		OnFitConfig:                gen.Fit,
		OnEvaluateConfig:           gen.Evaluate,
		FitMetricsAggregation:      fl.WeightedAverage,
		EvaluateMetricsAggregation: fl.WeightedAverage,
	}
}

func (c Config) Validate() error {
	switch {
	case math.IsNaN(c.FractionFit) || c.FractionFit < 0 || c.FractionFit > 1:
		return fmt.Errorf("%w: fraction_fit must be in [0, 1], got %v", fl.ErrConfiguration, c.FractionFit)
	case math.IsNaN(c.FractionEvaluate) || c.FractionEvaluate < 0 || c.FractionEvaluate > 1:
		return fmt.Errorf("%w: fraction_evaluate must be in [0, 1], got %v", fl.ErrConfiguration, c.FractionEvaluate)
	case c.MinFitClients < 0, c.MinEvaluateClients < 0, c.MinAvailableClients < 0:
		return fmt.Errorf("%w: participant minimums must not be negative", fl.ErrConfiguration)
	case c.FractionFit == 0 && c.MinFitClients == 0:
		return fmt.Errorf("%w: fit phase would select no participants", fl.ErrConfiguration)
	case c.RoundTimeout <= 0:
		return fmt.Errorf("%w: round timeout must be positive, got %s", fl.ErrConfiguration, c.RoundTimeout)
	case c.OnFitConfig == nil:
		return fmt.Errorf("%w: fit config function is not set", fl.ErrConfiguration)
	case c.OnEvaluateConfig == nil:
		return fmt.Errorf("%w: evaluate config function is not set", fl.ErrConfiguration)
	}

	return nil
}

// EvaluateEnabled reports whether rounds include an evaluate phase.
func (c Config) EvaluateEnabled() bool {
	return c.FractionEvaluate > 0 || c.MinEvaluateClients > 0
}
