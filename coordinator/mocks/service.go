package mocks

import (
	"context"

	"github.com/absmach/fedround/coordinator"
	"github.com/absmach/fedround/pkg/fl"
	"github.com/stretchr/testify/mock"
)

var _ coordinator.Service = (*Service)(nil)

// Service is a testify mock of coordinator.Service.
type Service struct {
	mock.Mock
}

func (m *Service) RegisterParticipant(ctx context.Context, p coordinator.Participant) (coordinator.Participant, error) {
	args := m.Called(ctx, p)

	return args.Get(0).(coordinator.Participant), args.Error(1)
}

func (m *Service) ListParticipants(ctx context.Context, offset, limit uint64) (coordinator.ParticipantPage, error) {
	args := m.Called(ctx, offset, limit)

	return args.Get(0).(coordinator.ParticipantPage), args.Error(1)
}

func (m *Service) RemoveParticipant(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

func (m *Service) StartRun(ctx context.Context) (coordinator.Run, error) {
	args := m.Called(ctx)

	return args.Get(0).(coordinator.Run), args.Error(1)
}

func (m *Service) GetRun(ctx context.Context, id string) (coordinator.Run, error) {
	args := m.Called(ctx, id)

	return args.Get(0).(coordinator.Run), args.Error(1)
}

func (m *Service) ListRuns(ctx context.Context, offset, limit uint64) (coordinator.RunPage, error) {
	args := m.Called(ctx, offset, limit)

	return args.Get(0).(coordinator.RunPage), args.Error(1)
}

func (m *Service) WaitRun(ctx context.Context, id string) (coordinator.Run, error) {
	args := m.Called(ctx, id)

	return args.Get(0).(coordinator.Run), args.Error(1)
}

func (m *Service) ListRounds(ctx context.Context, sessionID string) ([]fl.RoundRecord, error) {
	args := m.Called(ctx, sessionID)

	records, _ := args.Get(0).([]fl.RoundRecord)

	return records, args.Error(1)
}

func (m *Service) ListModels(ctx context.Context, sessionID string) ([]int, error) {
	args := m.Called(ctx, sessionID)

	versions, _ := args.Get(0).([]int)

	return versions, args.Error(1)
}

func (m *Service) GetModel(ctx context.Context, sessionID string, version int) (fl.Checkpoint, error) {
	args := m.Called(ctx, sessionID, version)

	return args.Get(0).(fl.Checkpoint), args.Error(1)
}

func (m *Service) Shutdown(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
