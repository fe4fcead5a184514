package middleware

import (
	"context"
	"time"

	"github.com/absmach/fedround/coordinator"
	"github.com/absmach/fedround/pkg/fl"
	"github.com/go-kit/kit/metrics"
)

var _ coordinator.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     coordinator.Service
}

func Metrics(counter metrics.Counter, latency metrics.Histogram, svc coordinator.Service) coordinator.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) observe(method string, begin time.Time) {
	mm.counter.With("method", method).Add(1)
	mm.latency.With("method", method).Observe(time.Since(begin).Seconds())
}

func (mm *metricsMiddleware) RegisterParticipant(ctx context.Context, p coordinator.Participant) (coordinator.Participant, error) {
	defer mm.observe("register-participant", time.Now())

	return mm.svc.RegisterParticipant(ctx, p)
}

func (mm *metricsMiddleware) ListParticipants(ctx context.Context, offset, limit uint64) (coordinator.ParticipantPage, error) {
	defer mm.observe("list-participants", time.Now())

	return mm.svc.ListParticipants(ctx, offset, limit)
}

func (mm *metricsMiddleware) RemoveParticipant(ctx context.Context, id string) error {
	defer mm.observe("remove-participant", time.Now())

	return mm.svc.RemoveParticipant(ctx, id)
}

func (mm *metricsMiddleware) StartRun(ctx context.Context) (coordinator.Run, error) {
	defer mm.observe("start-run", time.Now())

	return mm.svc.StartRun(ctx)
}

func (mm *metricsMiddleware) GetRun(ctx context.Context, id string) (coordinator.Run, error) {
	defer mm.observe("get-run", time.Now())

	return mm.svc.GetRun(ctx, id)
}

func (mm *metricsMiddleware) ListRuns(ctx context.Context, offset, limit uint64) (coordinator.RunPage, error) {
	defer mm.observe("list-runs", time.Now())

	return mm.svc.ListRuns(ctx, offset, limit)
}

func (mm *metricsMiddleware) WaitRun(ctx context.Context, id string) (coordinator.Run, error) {
	defer mm.observe("wait-run", time.Now())

	return mm.svc.WaitRun(ctx, id)
}

func (mm *metricsMiddleware) ListRounds(ctx context.Context, sessionID string) ([]fl.RoundRecord, error) {
	defer mm.observe("list-rounds", time.Now())

	return mm.svc.ListRounds(ctx, sessionID)
}

func (mm *metricsMiddleware) ListModels(ctx context.Context, sessionID string) ([]int, error) {
	defer mm.observe("list-models", time.Now())

	return mm.svc.ListModels(ctx, sessionID)
}

func (mm *metricsMiddleware) GetModel(ctx context.Context, sessionID string, version int) (fl.Checkpoint, error) {
	defer mm.observe("get-model", time.Now())

	return mm.svc.GetModel(ctx, sessionID, version)
}

func (mm *metricsMiddleware) Shutdown(ctx context.Context) error {
	defer mm.observe("shutdown", time.Now())

	return mm.svc.Shutdown(ctx)
}
