// Package strategy runs federated rounds: it selects participants, hands
// them the round configuration, collects their results and folds the
// aggregate into the global model it owns.
package strategy

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/absmach/fedround/pkg/fl"
	"github.com/absmach/fedround/pkg/participant"
	"github.com/absmach/fedround/pkg/roundconfig"
	"github.com/absmach/fedround/pkg/scheduler"
)

type Strategy struct {
	cfg     Config
	sampler scheduler.Sampler
	logger  *slog.Logger
	sm      *StateMachine

	// roundMu serializes phases; mu guards state.
	roundMu sync.Mutex
	mu      sync.RWMutex
	state   fl.GlobalModelState
}

func New(cfg Config, initial fl.GlobalModelState, sampler scheduler.Sampler, logger *slog.Logger) (*Strategy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sampler == nil {
		sampler = scheduler.NewSeeded(0)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Strategy{
		cfg:     cfg,
		sampler: sampler,
		logger:  logger,
		sm:      NewStateMachine(),
		state:   initial.Clone(),
	}, nil
}

func (s *Strategy) Config() Config {
	return s.cfg
}

// State returns a copy of the global model.
func (s *Strategy) State() fl.GlobalModelState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state.Clone()
}

func (s *Strategy) Phase() State {
	return s.sm.Current()
}

// SelectParticipants samples max(minCount, ceil(fraction*len(pool)))
// participants. It fails without selecting anyone when the pool is smaller
// than minCount or than the configured minimum of available participants.
// A pool listing the same participant ID twice is a configuration error.
func (s *Strategy) SelectParticipants(round int, pool []participant.Proxy, fraction float64, minCount int) ([]participant.Proxy, error) {
	seen := make(map[string]struct{}, len(pool))
	for _, p := range pool {
		if _, ok := seen[p.ID()]; ok {
			return nil, fmt.Errorf("%w: participant %s appears more than once in round %d", fl.ErrConfiguration, p.ID(), round)
		}
		seen[p.ID()] = struct{}{}
	}

	if len(pool) < minCount {
		return nil, fmt.Errorf("%w: round %d needs %d participants, %d available",
			fl.ErrInsufficientParticipants, round, minCount, len(pool))
	}
	if len(pool) < s.cfg.MinAvailableClients {
		return nil, fmt.Errorf("%w: round %d needs %d available participants, %d available",
			fl.ErrInsufficientParticipants, round, s.cfg.MinAvailableClients, len(pool))
	}

	n := scheduler.SampleSize(len(pool), fraction, minCount)
	if n == 0 {
		return nil, fmt.Errorf("%w: round %d selects no participants", fl.ErrInsufficientParticipants, round)
	}

	return s.sampler.Sample(round, pool, n), nil
}

// ConfigureRound builds and validates the payload of one phase.
func (s *Strategy) ConfigureRound(round int, phase fl.Phase) (roundconfig.Payload, error) {
	if round < 1 {
		return roundconfig.Payload{}, fmt.Errorf("%w: round must be at least 1, got %d", fl.ErrConfiguration, round)
	}

	payload := roundconfig.Payload{Phase: phase}
	var current int
	switch phase {
	case fl.PhaseFit:
		payload.Fit = s.cfg.OnFitConfig(round)
		current = payload.Fit.CurrentRound
	case fl.PhaseEvaluate:
		payload.Evaluate = s.cfg.OnEvaluateConfig(round)
		current = payload.Evaluate.CurrentRound
	}
	if err := payload.Validate(); err != nil {
		return roundconfig.Payload{}, err
	}
	if current != round {
		return roundconfig.Payload{}, fmt.Errorf("%w: %s config for round %d reports current_round %d",
			fl.ErrConfiguration, phase, round, current)
	}

	return payload, nil
}

// Apply replaces the global parameters with those of a fit outcome. Evaluate
// outcomes leave the model untouched. Outcomes must arrive in increasing
// round order.
func (s *Strategy) Apply(outcome fl.RoundOutcome) error {
	switch outcome.Phase {
	case fl.PhaseEvaluate:
		return nil
	case fl.PhaseFit:
	default:
		return fmt.Errorf("%w: unknown phase %q", fl.ErrConfiguration, outcome.Phase)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if outcome.Round <= s.state.Round {
		return fmt.Errorf("%w: round %d, last applied %d", fl.ErrStaleRound, outcome.Round, s.state.Round)
	}
	if len(s.state.Parameters) > 0 && !outcome.Parameters.SameShape(s.state.Parameters) {
		return fmt.Errorf("%w: round %d outcome does not match the global model", fl.ErrShapeMismatch, outcome.Round)
	}
	if !outcome.Parameters.Finite() {
		return fmt.Errorf("%w: round %d outcome", fl.ErrNonFinite, outcome.Round)
	}

	s.state.Parameters = outcome.Parameters.Clone()
	s.state.Round = outcome.Round
	s.state.Version++

	return nil
}
