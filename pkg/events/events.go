// Package events publishes coordinator progress for external observers.
package events

import (
	"context"
	"time"

	"github.com/absmach/fedround/pkg/fl"
)

type Type string

const (
	RunStarted      Type = "run.started"
	RunFinished     Type = "run.finished"
	SessionStarted  Type = "session.started"
	SessionFinished Type = "session.finished"
	RoundFinished   Type = "round.finished"
	ModelApplied    Type = "model.applied"
)

type Event struct {
	Type         Type               `json:"type"`
	RunID        string             `json:"run_id"`
	SessionID    string             `json:"session_id,omitempty"`
	Round        int                `json:"round,omitempty"`
	Phase        fl.Phase           `json:"phase,omitempty"`
	Status       string             `json:"status,omitempty"`
	Version      int                `json:"version,omitempty"`
	Contributors int                `json:"contributors,omitempty"`
	Invited      int                `json:"invited,omitempty"`
	Loss         float64            `json:"loss,omitempty"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
	Error        string             `json:"error,omitempty"`
	Timestamp    time.Time          `json:"timestamp"`
}

// FromRound builds a RoundFinished event from a round record.
func FromRound(runID string, rec fl.RoundRecord) Event {
	return Event{
		Type:         RoundFinished,
		RunID:        runID,
		SessionID:    rec.SessionID,
		Round:        rec.Round,
		Phase:        rec.Phase,
		Status:       string(rec.Status),
		Contributors: rec.Contributors,
		Invited:      rec.Invited,
		Loss:         rec.Loss,
		Metrics:      rec.Metrics,
		Error:        rec.Error,
		Timestamp:    rec.FinishedAt,
	}
}

// Emitter delivers events. Emission is best effort: callers log errors and
// carry on.
type Emitter interface {
	Emit(ctx context.Context, ev Event) error
}

type noop struct{}

func NewNoop() Emitter {
	return noop{}
}

func (noop) Emit(context.Context, Event) error {
	return nil
}
