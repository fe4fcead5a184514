// Package roundconfig produces the per-round configuration payloads sent to
// participants during the fit and evaluate phases.
package roundconfig

import (
	"fmt"

	"github.com/absmach/fedround/pkg/fl"
)

// Mode tells participants whether the monitored metric improves downwards or
// upwards.
type Mode string

const (
	ModeMin Mode = "min"
	ModeMax Mode = "max"
)

func (m Mode) Valid() bool {
	return m == ModeMin || m == ModeMax
}

type FitConfig struct {
	CurrentRound   int    `json:"current_round"    cbor:"current_round"`
	MaxEpochs      int    `json:"max_epochs"       cbor:"max_epochs"`
	Patience       int    `json:"patience"         cbor:"patience"`
	Monitor        string `json:"monitor"          cbor:"monitor"`
	Mode           Mode   `json:"mode"             cbor:"mode"`
	ShareBatchNorm bool   `json:"share_batch_norm" cbor:"share_batch_norm"`
	Clients        int    `json:"clients"          cbor:"clients"`
	TrainBatchSize int    `json:"train_batch_size" cbor:"train_batch_size"`
	LogNSteps      int    `json:"log_n_steps"      cbor:"log_n_steps"`
}

func (c FitConfig) Validate() error {
	switch {
	case c.CurrentRound < 1:
		return fmt.Errorf("%w: current_round must be at least 1, got %d", fl.ErrConfiguration, c.CurrentRound)
	case c.MaxEpochs < 1:
		return fmt.Errorf("%w: max_epochs must be positive, got %d", fl.ErrConfiguration, c.MaxEpochs)
	case c.Patience < 0:
		return fmt.Errorf("%w: patience must not be negative, got %d", fl.ErrConfiguration, c.Patience)
	case c.Monitor == "":
		return fmt.Errorf("%w: monitor is empty", fl.ErrConfiguration)
	case !c.Mode.Valid():
		return fmt.Errorf("%w: unknown mode %q", fl.ErrConfiguration, c.Mode)
	case c.Clients < 1:
		return fmt.Errorf("%w: clients must be positive, got %d", fl.ErrConfiguration, c.Clients)
	case c.TrainBatchSize < 1:
		return fmt.Errorf("%w: train_batch_size must be positive, got %d", fl.ErrConfiguration, c.TrainBatchSize)
	case c.LogNSteps < 0:
		return fmt.Errorf("%w: log_n_steps must not be negative, got %d", fl.ErrConfiguration, c.LogNSteps)
	}

	return nil
}

type EvaluateConfig struct {
	MaxEpochs      int `json:"max_epochs"       cbor:"max_epochs"`
	BatchSize      int `json:"batch_size"       cbor:"batch_size"`
	CurrentRound   int `json:"current_round"    cbor:"current_round"`
	MaxRound       int `json:"max_round"        cbor:"max_round"`
	Clients        int `json:"clients"          cbor:"clients"`
	TrainBatchSize int `json:"train_batch_size" cbor:"train_batch_size"`
}

func (c EvaluateConfig) Validate() error {
	switch {
	case c.CurrentRound < 1:
		return fmt.Errorf("%w: current_round must be at least 1, got %d", fl.ErrConfiguration, c.CurrentRound)
	case c.MaxEpochs < 1:
		return fmt.Errorf("%w: max_epochs must be positive, got %d", fl.ErrConfiguration, c.MaxEpochs)
	case c.BatchSize < 1:
		return fmt.Errorf("%w: batch_size must be positive, got %d", fl.ErrConfiguration, c.BatchSize)
	case c.MaxRound < 1:
		return fmt.Errorf("%w: max_round must be positive, got %d", fl.ErrConfiguration, c.MaxRound)
	case c.Clients < 1:
		return fmt.Errorf("%w: clients must be positive, got %d", fl.ErrConfiguration, c.Clients)
	case c.TrainBatchSize < 1:
		return fmt.Errorf("%w: train_batch_size must be positive, got %d", fl.ErrConfiguration, c.TrainBatchSize)
	}

	return nil
}

// Payload carries the configuration of exactly one phase.
type Payload struct {
	Phase    fl.Phase
	Fit      FitConfig
	Evaluate EvaluateConfig
}

func (p Payload) Validate() error {
	switch p.Phase {
	case fl.PhaseFit:
		return p.Fit.Validate()
	case fl.PhaseEvaluate:
		return p.Evaluate.Validate()
	default:
		return fmt.Errorf("%w: unknown phase %q", fl.ErrConfiguration, p.Phase)
	}
}

type (
	FitConfigFunc      func(round int) FitConfig
	EvaluateConfigFunc func(round int) EvaluateConfig
)
