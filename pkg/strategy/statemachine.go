package strategy

import (
	"fmt"
	"slices"
	"sync"

	"github.com/absmach/fedround/pkg/fl"
)

type State uint8

const (
	Idle State = iota
	Selecting
	Dispatching
	Collecting
	Aggregating
	Applied
	InsufficientParticipants
	NoContributors
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Selecting:
		return "selecting"
	case Dispatching:
		return "dispatching"
	case Collecting:
		return "collecting"
	case Aggregating:
		return "aggregating"
	case Applied:
		return "applied"
	case InsufficientParticipants:
		return "insufficient_participants"
	case NoContributors:
		return "no_contributors"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// IsTerminal reports whether s ends a phase. Every terminal state leads back
// to Idle.
func (s State) IsTerminal() bool {
	switch s {
	case Applied, InsufficientParticipants, NoContributors, Failed:
		return true
	default:
		return false
	}
}

var transitions = map[State][]State{
	Idle:                     {Selecting},
	Selecting:                {Dispatching, InsufficientParticipants, Failed},
	Dispatching:              {Collecting, Failed},
	Collecting:               {Aggregating, InsufficientParticipants, NoContributors, Failed},
	Aggregating:              {Applied, NoContributors, Failed},
	Applied:                  {Idle},
	InsufficientParticipants: {Idle},
	NoContributors:           {Idle},
	Failed:                   {Idle},
}

func ValidTransition(from, to State) bool {
	allowed, ok := transitions[from]
	if !ok {
		return false
	}

	return slices.Contains(allowed, to)
}

// StateMachine tracks the phase a strategy is in.
type StateMachine struct {
	mu    sync.Mutex
	state State
}

func NewStateMachine() *StateMachine {
	return &StateMachine{state: Idle}
}

func (sm *StateMachine) Current() State {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return sm.state
}

func (sm *StateMachine) Transition(to State) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !ValidTransition(sm.state, to) {
		return fmt.Errorf("%w: %s -> %s", fl.ErrInvalidStateTransition, sm.state, to)
	}
	sm.state = to

	return nil
}

// Finish moves into the terminal state to and then back to Idle.
func (sm *StateMachine) Finish(to State) error {
	if !to.IsTerminal() {
		return fmt.Errorf("%w: %s is not terminal", fl.ErrInvalidStateTransition, to)
	}
	if err := sm.Transition(to); err != nil {
		return err
	}

	return sm.Transition(Idle)
}
