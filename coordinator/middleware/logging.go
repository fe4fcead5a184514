package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/absmach/fedround/coordinator"
	"github.com/absmach/fedround/pkg/fl"
)

var _ coordinator.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    coordinator.Service
}

func Logging(logger *slog.Logger, svc coordinator.Service) coordinator.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) RegisterParticipant(ctx context.Context, p coordinator.Participant) (resp coordinator.Participant, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("participant",
				slog.String("id", resp.ID),
				slog.String("name", resp.Name),
				slog.String("url", p.URL),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Register participant failed", args...)

			return
		}
		lm.logger.Info("Register participant completed successfully", args...)
	}(time.Now())

	return lm.svc.RegisterParticipant(ctx, p)
}

func (lm *loggingMiddleware) ListParticipants(ctx context.Context, offset, limit uint64) (resp coordinator.ParticipantPage, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Uint64("offset", offset),
			slog.Uint64("limit", limit),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List participants failed", args...)

			return
		}
		lm.logger.Info("List participants completed successfully", args...)
	}(time.Now())

	return lm.svc.ListParticipants(ctx, offset, limit)
}

func (lm *loggingMiddleware) RemoveParticipant(ctx context.Context, id string) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("participant",
				slog.String("id", id),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Remove participant failed", args...)

			return
		}
		lm.logger.Info("Remove participant completed successfully", args...)
	}(time.Now())

	return lm.svc.RemoveParticipant(ctx, id)
}

func (lm *loggingMiddleware) StartRun(ctx context.Context) (resp coordinator.Run, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("run",
				slog.String("id", resp.ID),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Start run failed", args...)

			return
		}
		lm.logger.Info("Start run completed successfully", args...)
	}(time.Now())

	return lm.svc.StartRun(ctx)
}

func (lm *loggingMiddleware) GetRun(ctx context.Context, id string) (resp coordinator.Run, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("run",
				slog.String("id", id),
				slog.String("status", string(resp.Status)),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get run failed", args...)

			return
		}
		lm.logger.Info("Get run completed successfully", args...)
	}(time.Now())

	return lm.svc.GetRun(ctx, id)
}

func (lm *loggingMiddleware) ListRuns(ctx context.Context, offset, limit uint64) (resp coordinator.RunPage, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Uint64("offset", offset),
			slog.Uint64("limit", limit),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List runs failed", args...)

			return
		}
		lm.logger.Info("List runs completed successfully", args...)
	}(time.Now())

	return lm.svc.ListRuns(ctx, offset, limit)
}

func (lm *loggingMiddleware) WaitRun(ctx context.Context, id string) (resp coordinator.Run, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("run",
				slog.String("id", id),
				slog.String("status", string(resp.Status)),
				slog.Int("sessions", len(resp.Sessions)),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Wait run failed", args...)

			return
		}
		lm.logger.Info("Wait run completed successfully", args...)
	}(time.Now())

	return lm.svc.WaitRun(ctx, id)
}

func (lm *loggingMiddleware) ListRounds(ctx context.Context, sessionID string) (resp []fl.RoundRecord, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("session_id", sessionID),
			slog.Int("rounds", len(resp)),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List rounds failed", args...)

			return
		}
		lm.logger.Info("List rounds completed successfully", args...)
	}(time.Now())

	return lm.svc.ListRounds(ctx, sessionID)
}

func (lm *loggingMiddleware) ListModels(ctx context.Context, sessionID string) (resp []int, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("session_id", sessionID),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List models failed", args...)

			return
		}
		lm.logger.Info("List models completed successfully", args...)
	}(time.Now())

	return lm.svc.ListModels(ctx, sessionID)
}

func (lm *loggingMiddleware) GetModel(ctx context.Context, sessionID string, version int) (resp fl.Checkpoint, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("model",
				slog.String("session_id", sessionID),
				slog.Int("version", version),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get model failed", args...)

			return
		}
		lm.logger.Info("Get model completed successfully", args...)
	}(time.Now())

	return lm.svc.GetModel(ctx, sessionID, version)
}

func (lm *loggingMiddleware) Shutdown(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Shutdown failed", args...)

			return
		}
		lm.logger.Info("Shutdown completed successfully", args...)
	}(time.Now())

	return lm.svc.Shutdown(ctx)
}
