package fl

import (
	"maps"
	"math"
	"slices"
	"time"
)

type Phase string

const (
	PhaseFit      Phase = "fit"
	PhaseEvaluate Phase = "evaluate"
)

// Tensor is a dense row-major array of model weights.
type Tensor struct {
	Shape []int     `json:"shape" cbor:"shape"`
	Data  []float64 `json:"data"  cbor:"data"`
}

func (t Tensor) Clone() Tensor {
	return Tensor{
		Shape: slices.Clone(t.Shape),
		Data:  slices.Clone(t.Data),
	}
}

// Parameters is the ordered list of tensors making up a model.
type Parameters []Tensor

func (p Parameters) Clone() Parameters {
	if p == nil {
		return nil
	}
	out := make(Parameters, len(p))
	for i := range p {
		out[i] = p[i].Clone()
	}

	return out
}

// SameShape reports whether both parameter lists have the same number of
// tensors and each tensor position holds the same number of values.
func (p Parameters) SameShape(other Parameters) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if len(p[i].Data) != len(other[i].Data) {
			return false
		}
		if !slices.Equal(p[i].Shape, other[i].Shape) {
			return false
		}
	}

	return true
}

// Finite reports whether every value is neither NaN nor infinite.
func (p Parameters) Finite() bool {
	for _, t := range p {
		for _, v := range t.Data {
			if !isFinite(v) {
				return false
			}
		}
	}

	return true
}

// FiniteMetrics reports whether no metric value is NaN or infinite.
func FiniteMetrics(metrics map[string]float64) bool {
	for _, v := range metrics {
		if !isFinite(v) {
			return false
		}
	}

	return true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Zeros builds zero-filled parameters for the given tensor shapes.
func Zeros(shapes ...[]int) Parameters {
	params := make(Parameters, len(shapes))
	for i, shape := range shapes {
		size := 1
		for _, d := range shape {
			size *= d
		}
		params[i] = Tensor{
			Shape: slices.Clone(shape),
			Data:  make([]float64, size),
		}
	}

	return params
}

type Class struct {
	Name  string `json:"name"  toml:"name"`
	Label int    `json:"label" toml:"label"`
}

// Descriptor identifies the model a session trains. The coordinator never
// interprets it beyond handing it to participants and checkpoints.
type Descriptor struct {
	Architecture string             `json:"architecture"`
	Classes      []Class            `json:"classes,omitempty"`
	Optimizer    string             `json:"optimizer,omitempty"`
	Hyperparams  map[string]float64 `json:"hyperparams,omitempty"`
}

func (d Descriptor) Clone() Descriptor {
	return Descriptor{
		Architecture: d.Architecture,
		Classes:      slices.Clone(d.Classes),
		Optimizer:    d.Optimizer,
		Hyperparams:  maps.Clone(d.Hyperparams),
	}
}

// GlobalModelState is the shared model owned by a strategy. Version counts
// applied fit rounds and Round is the index of the last applied round.
type GlobalModelState struct {
	Version    int        `json:"version"`
	Round      int        `json:"round"`
	Parameters Parameters `json:"parameters"`
	Descriptor Descriptor `json:"descriptor"`
}

func (s GlobalModelState) Clone() GlobalModelState {
	return GlobalModelState{
		Version:    s.Version,
		Round:      s.Round,
		Parameters: s.Parameters.Clone(),
		Descriptor: s.Descriptor.Clone(),
	}
}

type FitResult struct {
	ParticipantID string             `json:"participant_id"        cbor:"participant_id"`
	Parameters    Parameters         `json:"parameters"            cbor:"parameters"`
	NumExamples   int                `json:"num_examples"          cbor:"num_examples"`
	Metrics       map[string]float64 `json:"metrics,omitempty"     cbor:"metrics,omitempty"`
}

type EvaluateResult struct {
	ParticipantID string             `json:"participant_id"        cbor:"participant_id"`
	Loss          float64            `json:"loss"                  cbor:"loss"`
	NumExamples   int                `json:"num_examples"          cbor:"num_examples"`
	Metrics       map[string]float64 `json:"metrics,omitempty"     cbor:"metrics,omitempty"`
}

// Failure records a participant that did not contribute to a round.
type Failure struct {
	ParticipantID string `json:"participant_id"`
	Reason        string `json:"reason"`
	Err           error  `json:"-"`
}

type RoundOutcome struct {
	Round        int                `json:"round"`
	Phase        Phase              `json:"phase"`
	Parameters   Parameters         `json:"parameters,omitempty"`
	Loss         float64            `json:"loss,omitempty"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
	Contributors int                `json:"contributors"`
	Invited      int                `json:"invited"`
	Failures     []Failure          `json:"failures,omitempty"`
}

type RoundStatus string

const (
	RoundCompleted                RoundStatus = "completed"
	RoundInsufficientParticipants RoundStatus = "insufficient_participants"
	RoundNoContributors           RoundStatus = "no_contributors"
	RoundFailed                   RoundStatus = "failed"
)

type RoundRecord struct {
	SessionID    string             `json:"session_id"`
	Round        int                `json:"round"`
	Phase        Phase              `json:"phase"`
	Status       RoundStatus        `json:"status"`
	Contributors int                `json:"contributors"`
	Invited      int                `json:"invited"`
	Loss         float64            `json:"loss"`
	Metrics      map[string]float64 `json:"metrics"`
	Error        string             `json:"error"`
	StartedAt    time.Time          `json:"started_at"`
	FinishedAt   time.Time          `json:"finished_at"`
}

type Checkpoint struct {
	SessionID string           `json:"session_id"`
	State     GlobalModelState `json:"state"`
	CreatedAt time.Time        `json:"created_at"`
}
