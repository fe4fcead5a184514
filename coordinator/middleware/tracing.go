package middleware

import (
	"context"

	"github.com/absmach/fedround/coordinator"
	"github.com/absmach/fedround/pkg/fl"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var _ coordinator.Service = (*tracing)(nil)

type tracing struct {
	tracer trace.Tracer
	svc    coordinator.Service
}

func Tracing(tracer trace.Tracer, svc coordinator.Service) coordinator.Service {
	return &tracing{tracer, svc}
}

func (tm *tracing) RegisterParticipant(ctx context.Context, p coordinator.Participant) (coordinator.Participant, error) {
	ctx, span := tm.tracer.Start(ctx, "register-participant", trace.WithAttributes(
		attribute.String("id", p.ID),
		attribute.String("url", p.URL),
	))
	defer span.End()

	return tm.svc.RegisterParticipant(ctx, p)
}

func (tm *tracing) ListParticipants(ctx context.Context, offset, limit uint64) (coordinator.ParticipantPage, error) {
	ctx, span := tm.tracer.Start(ctx, "list-participants", trace.WithAttributes(
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer span.End()

	return tm.svc.ListParticipants(ctx, offset, limit)
}

func (tm *tracing) RemoveParticipant(ctx context.Context, id string) error {
	ctx, span := tm.tracer.Start(ctx, "remove-participant", trace.WithAttributes(
		attribute.String("id", id),
	))
	defer span.End()

	return tm.svc.RemoveParticipant(ctx, id)
}

func (tm *tracing) StartRun(ctx context.Context) (coordinator.Run, error) {
	ctx, span := tm.tracer.Start(ctx, "start-run")
	defer span.End()

	return tm.svc.StartRun(ctx)
}

func (tm *tracing) GetRun(ctx context.Context, id string) (coordinator.Run, error) {
	ctx, span := tm.tracer.Start(ctx, "get-run", trace.WithAttributes(
		attribute.String("id", id),
	))
	defer span.End()

	return tm.svc.GetRun(ctx, id)
}

func (tm *tracing) ListRuns(ctx context.Context, offset, limit uint64) (coordinator.RunPage, error) {
	ctx, span := tm.tracer.Start(ctx, "list-runs", trace.WithAttributes(
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer span.End()

	return tm.svc.ListRuns(ctx, offset, limit)
}

func (tm *tracing) WaitRun(ctx context.Context, id string) (coordinator.Run, error) {
	ctx, span := tm.tracer.Start(ctx, "wait-run", trace.WithAttributes(
		attribute.String("id", id),
	))
	defer span.End()

	return tm.svc.WaitRun(ctx, id)
}

func (tm *tracing) ListRounds(ctx context.Context, sessionID string) ([]fl.RoundRecord, error) {
	ctx, span := tm.tracer.Start(ctx, "list-rounds", trace.WithAttributes(
		attribute.String("session_id", sessionID),
	))
	defer span.End()

	return tm.svc.ListRounds(ctx, sessionID)
}

func (tm *tracing) ListModels(ctx context.Context, sessionID string) ([]int, error) {
	ctx, span := tm.tracer.Start(ctx, "list-models", trace.WithAttributes(
		attribute.String("session_id", sessionID),
	))
	defer span.End()

	return tm.svc.ListModels(ctx, sessionID)
}

func (tm *tracing) GetModel(ctx context.Context, sessionID string, version int) (fl.Checkpoint, error) {
	ctx, span := tm.tracer.Start(ctx, "get-model", trace.WithAttributes(
		attribute.String("session_id", sessionID),
		attribute.Int("version", version),
	))
	defer span.End()

	return tm.svc.GetModel(ctx, sessionID, version)
}

func (tm *tracing) Shutdown(ctx context.Context) error {
	ctx, span := tm.tracer.Start(ctx, "shutdown")
	defer span.End()

	return tm.svc.Shutdown(ctx)
}
