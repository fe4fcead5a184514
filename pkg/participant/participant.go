// Package participant defines how the coordinator talks to training
// participants and keeps track of the ones currently available.
package participant

import (
	"context"

	"github.com/absmach/fedround/pkg/fl"
	"github.com/absmach/fedround/pkg/roundconfig"
)

type FitIns struct {
	Parameters fl.Parameters         `json:"parameters" cbor:"parameters"`
	Config     roundconfig.FitConfig `json:"config"     cbor:"config"`
}

type EvaluateIns struct {
	Parameters fl.Parameters              `json:"parameters" cbor:"parameters"`
	Config     roundconfig.EvaluateConfig `json:"config"     cbor:"config"`
}

// Client is the participant-side learner.
type Client interface {
	Fit(ctx context.Context, ins FitIns) (fl.FitResult, error)
	Evaluate(ctx context.Context, ins EvaluateIns) (fl.EvaluateResult, error)
}

// Proxy is the coordinator-side handle of one participant. Implementations
// must honour ctx cancellation where the underlying transport allows it.
type Proxy interface {
	ID() string
	Client
}
