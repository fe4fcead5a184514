package coordinator

import (
	"context"
	"time"

	"github.com/absmach/fedround/pkg/fl"
)

type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// URL is the base address of a remote participant. Participants
	// without one are served in process.
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ParticipantPage struct {
	Offset       uint64        `json:"offset"`
	Limit        uint64        `json:"limit"`
	Total        uint64        `json:"total"`
	Participants []Participant `json:"participants"`
}

type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

type SessionStatus string

const (
	SessionCompleted SessionStatus = "completed"
	SessionAborted   SessionStatus = "aborted"
	SessionCancelled SessionStatus = "cancelled"
)

// SessionReport summarises one independent training session.
type SessionReport struct {
	SessionID string        `json:"session_id"`
	Index     int           `json:"index"`
	Status    SessionStatus `json:"status"`
	// CompletedRounds counts rounds whose phases all succeeded.
	CompletedRounds int       `json:"completed_rounds"`
	SkippedRounds   int       `json:"skipped_rounds"`
	FinalVersion    int       `json:"final_version"`
	FinalLoss       float64   `json:"final_loss,omitempty"`
	Error           string    `json:"error,omitempty"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
}

type Run struct {
	ID         string          `json:"id"`
	Status     RunStatus       `json:"status"`
	Sessions   []SessionReport `json:"sessions"`
	Error      string          `json:"error,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at,omitzero"`
}

type RunPage struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
	Total  uint64 `json:"total"`
	Runs   []Run  `json:"runs"`
}

// Service is the control plane of the coordinator.
type Service interface {
	RegisterParticipant(ctx context.Context, p Participant) (Participant, error)
	ListParticipants(ctx context.Context, offset, limit uint64) (ParticipantPage, error)
	RemoveParticipant(ctx context.Context, id string) error

	// StartRun launches the configured sessions in the background. Only one
	// run may be active at a time.
	StartRun(ctx context.Context) (Run, error)
	GetRun(ctx context.Context, id string) (Run, error)
	ListRuns(ctx context.Context, offset, limit uint64) (RunPage, error)
	// WaitRun blocks until the run finishes or ctx is done.
	WaitRun(ctx context.Context, id string) (Run, error)

	ListRounds(ctx context.Context, sessionID string) ([]fl.RoundRecord, error)
	ListModels(ctx context.Context, sessionID string) ([]int, error)
	GetModel(ctx context.Context, sessionID string, version int) (fl.Checkpoint, error)

	Shutdown(ctx context.Context) error
}
