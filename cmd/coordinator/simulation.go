package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/absmach/fedround/coordinator"
	"github.com/absmach/fedround/pkg/participant"
)

const availabilityPoll = 500 * time.Millisecond

var errRunFailed = errors.New("training run did not complete")

// newProxyFactory reaches participants that registered a URL over HTTP and
// serves the others in process with a synthetic client. Every in-process
// participant gets its own data seed.
func newProxyFactory(remote coordinator.ProxyFactory, synthetic participant.SyntheticConfig) coordinator.ProxyFactory {
	var (
		mu   sync.Mutex
		next = synthetic.DataSeed
	)

	return func(p coordinator.Participant) (participant.Proxy, error) {
		if p.URL != "" {
			return remote(p)
		}

		mu.Lock()
		cfg := synthetic
		cfg.DataSeed = next
		next++
		mu.Unlock()

		client, err := participant.NewSyntheticClient(cfg)
		if err != nil {
			return nil, err
		}

		return participant.NewLocalProxy(p.ID, client), nil
	}
}

// simulate registers in-process participants, runs one training run to the
// end and reports how its sessions went.
func simulate(ctx context.Context, svc coordinator.Service, clients int, logger *slog.Logger) error {
	for i := range clients {
		if _, err := svc.RegisterParticipant(ctx, coordinator.Participant{ID: fmt.Sprintf("sim-%02d", i)}); err != nil {
			return fmt.Errorf("failed to register simulated participant: %w", err)
		}
	}

	run, err := svc.StartRun(ctx)
	if err != nil {
		return err
	}

	run, err = svc.WaitRun(ctx, run.ID)
	if err != nil {
		return err
	}

	for _, s := range run.Sessions {
		logger.Info("session report",
			slog.String("session_id", s.SessionID),
			slog.String("status", string(s.Status)),
			slog.Int("completed_rounds", s.CompletedRounds),
			slog.Int("skipped_rounds", s.SkippedRounds),
			slog.Int("final_version", s.FinalVersion),
			slog.Float64("final_loss", s.FinalLoss),
		)
	}

	if run.Status != coordinator.RunCompleted {
		return fmt.Errorf("%w: run %s is %s: %s", errRunFailed, run.ID, run.Status, run.Error)
	}

	return nil
}

// autostart starts a run once enough participants have registered.
func autostart(ctx context.Context, svc coordinator.Service, pool *participant.Pool, minParticipants int, logger *slog.Logger) error {
	if err := pool.WaitFor(ctx, minParticipants, availabilityPoll); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}

		return err
	}

	run, err := svc.StartRun(ctx)
	if err != nil {
		return err
	}
	logger.Info("training run started automatically", slog.String("run_id", run.ID), slog.Int("participants", pool.Len()))

	return nil
}
