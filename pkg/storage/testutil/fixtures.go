package testutil

import (
	"time"

	"github.com/absmach/fedround/pkg/fl"
)

func TestCheckpoint(sessionID string, version int) fl.Checkpoint {
	return fl.Checkpoint{
		SessionID: sessionID,
		State: fl.GlobalModelState{
			Version: version,
			Round:   version,
			Parameters: fl.Parameters{
				{Shape: []int{2, 2}, Data: []float64{0.1, 0.2, 0.3, float64(version)}},
				{Shape: []int{2}, Data: []float64{-1, 1}},
			},
			Descriptor: fl.Descriptor{
				Architecture: "resnet18",
				Classes:      []fl.Class{{Name: "NORMAL", Label: 0}, {Name: "AMD", Label: 1}},
				Optimizer:    "adamw",
				Hyperparams:  map[string]float64{"lr": 0.001, "weight_decay": 0.01},
			},
		},
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestRoundRecord(sessionID string, round int, phase fl.Phase) fl.RoundRecord {
	started := time.Now().UTC().Truncate(time.Millisecond)

	return fl.RoundRecord{
		SessionID:    sessionID,
		Round:        round,
		Phase:        phase,
		Status:       fl.RoundCompleted,
		Contributors: 3,
		Invited:      3,
		Loss:         0.25,
		Metrics:      map[string]float64{"val_loss": 0.25},
		StartedAt:    started,
		FinishedAt:   started.Add(2 * time.Second),
	}
}
