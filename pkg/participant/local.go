package participant

import (
	"context"

	"github.com/absmach/fedround/pkg/fl"
)

var _ Proxy = (*localProxy)(nil)

type localProxy struct {
	id     string
	client Client
}

// NewLocalProxy wraps an in-process client. Parameters are copied on the way
// in and results are stamped with id.
func NewLocalProxy(id string, client Client) Proxy {
	return &localProxy{id: id, client: client}
}

func (p *localProxy) ID() string {
	return p.id
}

func (p *localProxy) Fit(ctx context.Context, ins FitIns) (fl.FitResult, error) {
	ins.Parameters = ins.Parameters.Clone()
	res, err := p.client.Fit(ctx, ins)
	if err != nil {
		return fl.FitResult{}, err
	}
	res.ParticipantID = p.id

	return res, nil
}

func (p *localProxy) Evaluate(ctx context.Context, ins EvaluateIns) (fl.EvaluateResult, error) {
	ins.Parameters = ins.Parameters.Clone()
	res, err := p.client.Evaluate(ctx, ins)
	if err != nil {
		return fl.EvaluateResult{}, err
	}
	res.ParticipantID = p.id

	return res, nil
}
