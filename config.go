package fedround

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/absmach/fedround/pkg/fl"
	"github.com/absmach/fedround/pkg/participant"
	"github.com/absmach/fedround/pkg/roundconfig"
	"github.com/absmach/fedround/pkg/scheduler"
	"github.com/absmach/fedround/pkg/storage"
	"github.com/absmach/fedround/pkg/strategy"
	"github.com/pelletier/go-toml"
)

const (
	SamplerSeeded     = "seeded"
	SamplerRoundRobin = "round_robin"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Strategy    StrategyConfig      `toml:"strategy"`
	Session     SessionConfig       `toml:"session"`
	Model       ModelConfig         `toml:"model"`
	RoundConfig roundconfig.Options `toml:"round_config"`
	Storage     storage.Config      `toml:"storage"`
	Simulation  SimulationConfig    `toml:"simulation"`
}

type StrategyConfig struct {
	FractionFit         float64 `toml:"fraction_fit"`
	FractionEvaluate    float64 `toml:"fraction_evaluate"`
	MinFitClients       int     `toml:"min_fit_clients"`
	MinEvaluateClients  int     `toml:"min_evaluate_clients"`
	MinAvailableClients int     `toml:"min_available_clients"`
	AcceptFailures      bool    `toml:"accept_failures"`
	RoundTimeout        string  `toml:"round_timeout"`
	Sampler             string  `toml:"sampler"`
	Seed                uint64  `toml:"seed"`
}

type SessionConfig struct {
	Sessions            int    `toml:"sessions"`
	Rounds              int    `toml:"rounds"`
	Pause               string `toml:"pause"`
	WaitForParticipants string `toml:"wait_for_participants"`
}

// ModelConfig describes the model every session starts from. Shapes lists
// the tensor shapes of the zero-initialised global parameters.
type ModelConfig struct {
	Architecture string             `toml:"architecture"`
	Classes      []fl.Class         `toml:"classes"`
	Optimizer    string             `toml:"optimizer"`
	Hyperparams  map[string]float64 `toml:"hyperparams"`
	Shapes       [][]int            `toml:"shapes"`
}

type SimulationConfig struct {
	Clients     int                         `toml:"clients"`
	Participant participant.SyntheticConfig `toml:"participant"`
}

func DefaultConfig() Config {
	synthetic := participant.DefaultSyntheticConfig()

	return Config{
		Strategy: StrategyConfig{
			FractionFit:         1.0,
			FractionEvaluate:    1.0,
			MinFitClients:       3,
			MinEvaluateClients:  3,
			MinAvailableClients: 3,
			AcceptFailures:      true,
			RoundTimeout:        "5m",
			Sampler:             SamplerSeeded,
			Seed:                10,
		},
		Session: SessionConfig{
			Sessions:            10,
			Rounds:              10,
			Pause:               "1s",
			WaitForParticipants: "1m",
		},
		Model: ModelConfig{
			Architecture: "resnet18",
			Classes: []fl.Class{
				{Name: "NORMAL", Label: 0},
				{Name: "AMD", Label: 1},
			},
			Optimizer: "AdamW",
			Hyperparams: map[string]float64{
				"lr":           0.0001,
				"weight_decay": 0.0001,
				"beta1":        0.9,
				"beta2":        0.999,
			},
			Shapes: [][]int{{synthetic.Features}, {1}},
		},
		RoundConfig: roundconfig.DefaultOptions(),
		Storage: storage.Config{
			Type:       "memory",
			FileDir:    "./data/checkpoints",
			SQLitePath: "./fedround.db",
			BadgerPath: "./data/badger",
		},
		Simulation: SimulationConfig{
			Clients:     3,
			Participant: synthetic,
		},
	}
}

// LoadConfig reads a TOML file over DefaultConfig; keys absent from the file
// keep their default values.
func LoadConfig(path string) (Config, error) {
	return LoadConfigOver(DefaultConfig(), path)
}

// LoadConfigOver reads a TOML file over base. Keys present in the file win;
// every other value is taken from base.
func LoadConfigOver(base Config, path string) (Config, error) {
	cfg := base

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("error reading config file: %w", err)
	}

	tree, err := toml.Load(string(data))
	if err != nil {
		return Config{}, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := tree.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := c.StrategyConfig(); err != nil {
		return err
	}
	if c.Strategy.Sampler != SamplerSeeded && c.Strategy.Sampler != SamplerRoundRobin {
		return fmt.Errorf("%w: unknown sampler %q", ErrInvalidConfig, c.Strategy.Sampler)
	}
	if c.Session.Sessions < 1 || c.Session.Rounds < 1 {
		return fmt.Errorf("%w: sessions and rounds must be positive", ErrInvalidConfig)
	}
	for _, d := range []string{c.Session.Pause, c.Session.WaitForParticipants} {
		if _, err := parseDuration(d); err != nil {
			return err
		}
	}
	if len(c.Model.Shapes) == 0 {
		return fmt.Errorf("%w: model has no tensors", ErrInvalidConfig)
	}
	for _, shape := range c.Model.Shapes {
		for _, dim := range shape {
			if dim < 1 {
				return fmt.Errorf("%w: tensor shape %v", ErrInvalidConfig, shape)
			}
		}
	}
	if c.Simulation.Clients < 0 {
		return fmt.Errorf("%w: simulation clients must not be negative", ErrInvalidConfig)
	}

	return nil
}

// StrategyConfig converts the file settings into a strategy configuration
// using the round payload generator built from RoundConfig.
func (c Config) StrategyConfig() (strategy.Config, error) {
	timeout, err := parseDuration(c.Strategy.RoundTimeout)
	if err != nil {
		return strategy.Config{}, err
	}

	cfg := strategy.DefaultConfig(roundconfig.NewGenerator(c.RoundConfig))
	cfg.FractionFit = c.Strategy.FractionFit
	cfg.FractionEvaluate = c.Strategy.FractionEvaluate
	cfg.MinFitClients = c.Strategy.MinFitClients
	cfg.MinEvaluateClients = c.Strategy.MinEvaluateClients
	cfg.MinAvailableClients = c.Strategy.MinAvailableClients
	cfg.AcceptFailures = c.Strategy.AcceptFailures
	cfg.RoundTimeout = timeout

	if err := cfg.Validate(); err != nil {
		return strategy.Config{}, err
	}

	return cfg, nil
}

func (c Config) NewSampler() scheduler.Sampler {
	if c.Strategy.Sampler == SamplerRoundRobin {
		return scheduler.NewRoundRobin()
	}

	return scheduler.NewSeeded(c.Strategy.Seed)
}

// InitialState is the zero model every session starts from.
func (c Config) InitialState() fl.GlobalModelState {
	return fl.GlobalModelState{
		Parameters: fl.Zeros(c.Model.Shapes...),
		Descriptor: fl.Descriptor{
			Architecture: c.Model.Architecture,
			Classes:      c.Model.Classes,
			Optimizer:    c.Model.Optimizer,
			Hyperparams:  c.Model.Hyperparams,
		}.Clone(),
	}
}

func (c SessionConfig) PauseDuration() time.Duration {
	d, _ := parseDuration(c.Pause)

	return d
}

func (c SessionConfig) WaitDuration() time.Duration {
	d, _ := parseDuration(c.WaitForParticipants)

	return d
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: negative duration %s", ErrInvalidConfig, s)
	}

	return d, nil
}
