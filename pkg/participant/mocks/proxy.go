package mocks

import (
	"context"

	"github.com/absmach/fedround/pkg/fl"
	"github.com/absmach/fedround/pkg/participant"
	"github.com/stretchr/testify/mock"
)

var _ participant.Proxy = (*Proxy)(nil)

// Proxy is a testify mock of participant.Proxy.
type Proxy struct {
	mock.Mock

	Name string
}

func NewProxy(id string) *Proxy {
	return &Proxy{Name: id}
}

func (m *Proxy) ID() string {
	return m.Name
}

func (m *Proxy) Fit(ctx context.Context, ins participant.FitIns) (fl.FitResult, error) {
	args := m.Called(ctx, ins)

	return args.Get(0).(fl.FitResult), args.Error(1)
}

func (m *Proxy) Evaluate(ctx context.Context, ins participant.EvaluateIns) (fl.EvaluateResult, error) {
	args := m.Called(ctx, ins)

	return args.Get(0).(fl.EvaluateResult), args.Error(1)
}
