package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/0x6flab/namegenerator"
	pkgerrors "github.com/absmach/fedround/pkg/errors"
	"github.com/absmach/fedround/pkg/fl"
	"github.com/absmach/fedround/pkg/participant"
	"github.com/absmach/fedround/pkg/storage"
	"github.com/google/uuid"
)

var namegen = namegenerator.NewGenerator()

// ProxyFactory builds the coordinator-side handle of a registered
// participant.
type ProxyFactory func(p Participant) (participant.Proxy, error)

// HTTPProxies reaches every participant at its URL.
func HTTPProxies(timeout time.Duration) ProxyFactory {
	return func(p Participant) (participant.Proxy, error) {
		if p.URL == "" {
			return nil, fmt.Errorf("participant %s has no url: %w", p.ID, pkgerrors.ErrMalformed)
		}

		return participant.NewHTTPProxy(p.ID, p.URL, timeout), nil
	}
}

type service struct {
	participantsDB storage.Storage
	runsDB         storage.Storage
	pool           *participant.Pool
	newProxy       ProxyFactory
	loop           *Loop
	store          fl.CheckpointStore
	logger         *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	active string
	done   map[string]chan struct{}
}

// NewService returns the control plane. Runs execute loop against pool;
// store may be nil when checkpoints are not kept.
func NewService(participantsDB, runsDB storage.Storage, pool *participant.Pool, newProxy ProxyFactory, loop *Loop, store fl.CheckpointStore, logger *slog.Logger) Service {
	ctx, cancel := context.WithCancel(context.Background())

	return &service{
		participantsDB: participantsDB,
		runsDB:         runsDB,
		pool:           pool,
		newProxy:       newProxy,
		loop:           loop,
		store:          store,
		logger:         logger,
		ctx:            ctx,
		cancel:         cancel,
		done:           make(map[string]chan struct{}),
	}
}

func (svc *service) RegisterParticipant(ctx context.Context, p Participant) (Participant, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Name == "" {
		p.Name = namegen.Generate()
	}
	if p.URL != "" {
		if _, err := url.ParseRequestURI(p.URL); err != nil {
			return Participant{}, errors.Join(pkgerrors.ErrMalformed, err)
		}
	}
	p.CreatedAt = time.Now()

	proxy, err := svc.newProxy(p)
	if err != nil {
		return Participant{}, err
	}
	if err := svc.participantsDB.Create(ctx, p.ID, p); err != nil {
		return Participant{}, err
	}
	if err := svc.pool.Add(proxy); err != nil {
		_ = svc.participantsDB.Delete(ctx, p.ID)

		return Participant{}, err
	}

	return p, nil
}

func (svc *service) ListParticipants(ctx context.Context, offset, limit uint64) (ParticipantPage, error) {
	data, total, err := svc.participantsDB.List(ctx, offset, limit)
	if err != nil {
		return ParticipantPage{}, err
	}

	participants := make([]Participant, len(data))
	for i := range data {
		p, ok := data[i].(Participant)
		if !ok {
			return ParticipantPage{}, pkgerrors.ErrInvalidData
		}
		participants[i] = p
	}

	return ParticipantPage{
		Offset:       offset,
		Limit:        limit,
		Total:        total,
		Participants: participants,
	}, nil
}

func (svc *service) RemoveParticipant(ctx context.Context, id string) error {
	if err := svc.pool.Remove(id); err != nil {
		return err
	}

	return svc.participantsDB.Delete(ctx, id)
}

func (svc *service) StartRun(ctx context.Context) (Run, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.active != "" {
		return Run{}, fmt.Errorf("run %s: %w", svc.active, pkgerrors.ErrRunInProgress)
	}
	if err := svc.ctx.Err(); err != nil {
		return Run{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return Run{}, err
	}
	run := Run{
		ID:        id.String(),
		Status:    RunRunning,
		Sessions:  []SessionReport{},
		StartedAt: time.Now(),
	}
	if err := svc.runsDB.Create(ctx, run.ID, run); err != nil {
		return Run{}, err
	}

	done := make(chan struct{})
	svc.active = run.ID
	svc.done[run.ID] = done

	svc.wg.Add(1)
	go svc.execute(run, done)

	return run, nil
}

func (svc *service) execute(run Run, done chan struct{}) {
	defer svc.wg.Done()
	defer close(done)

	reports, err := svc.loop.Run(svc.ctx, run.ID)

	run.Sessions = reports
	run.FinishedAt = time.Now()
	run.Status = runStatus(reports, err)
	if err != nil {
		run.Error = err.Error()
	}

	if err := svc.runsDB.Update(context.Background(), run.ID, run); err != nil {
		svc.logger.Error("failed to save run", slog.String("run_id", run.ID), slog.Any("error", err))
	}

	svc.mu.Lock()
	svc.active = ""
	svc.mu.Unlock()

	svc.logger.Info("run finished",
		slog.String("run_id", run.ID),
		slog.String("status", string(run.Status)),
		slog.Int("sessions", len(reports)),
	)
}

// runStatus is failed only when every session aborted.
func runStatus(reports []SessionReport, err error) RunStatus {
	if err != nil {
		return RunCancelled
	}
	if len(reports) == 0 {
		return RunCompleted
	}
	for _, r := range reports {
		if r.Status != SessionAborted {
			return RunCompleted
		}
	}

	return RunFailed
}

func (svc *service) GetRun(ctx context.Context, id string) (Run, error) {
	data, err := svc.runsDB.Get(ctx, id)
	if err != nil {
		return Run{}, err
	}
	run, ok := data.(Run)
	if !ok {
		return Run{}, pkgerrors.ErrInvalidData
	}

	return run, nil
}

func (svc *service) ListRuns(ctx context.Context, offset, limit uint64) (RunPage, error) {
	data, total, err := svc.runsDB.List(ctx, offset, limit)
	if err != nil {
		return RunPage{}, err
	}

	runs := make([]Run, len(data))
	for i := range data {
		r, ok := data[i].(Run)
		if !ok {
			return RunPage{}, pkgerrors.ErrInvalidData
		}
		runs[i] = r
	}

	return RunPage{
		Offset: offset,
		Limit:  limit,
		Total:  total,
		Runs:   runs,
	}, nil
}

func (svc *service) WaitRun(ctx context.Context, id string) (Run, error) {
	svc.mu.Lock()
	done, ok := svc.done[id]
	svc.mu.Unlock()

	if ok {
		select {
		case <-done:
		case <-ctx.Done():
			return Run{}, ctx.Err()
		}
	}

	return svc.GetRun(ctx, id)
}

func (svc *service) ListRounds(ctx context.Context, sessionID string) ([]fl.RoundRecord, error) {
	if svc.store == nil {
		return nil, pkgerrors.ErrNotFound
	}

	return svc.store.ListRounds(ctx, sessionID)
}

func (svc *service) ListModels(ctx context.Context, sessionID string) ([]int, error) {
	if svc.store == nil {
		return nil, pkgerrors.ErrNotFound
	}

	return svc.store.ListModels(ctx, sessionID)
}

func (svc *service) GetModel(ctx context.Context, sessionID string, version int) (fl.Checkpoint, error) {
	if svc.store == nil {
		return fl.Checkpoint{}, pkgerrors.ErrNotFound
	}
	if version < 0 {
		return fl.Checkpoint{}, fmt.Errorf("model version %d: %w", version, pkgerrors.ErrMalformed)
	}

	return svc.store.LoadModel(ctx, sessionID, version)
}

// Shutdown cancels the active run and waits for it to wind down.
func (svc *service) Shutdown(ctx context.Context) error {
	svc.cancel()

	stopped := make(chan struct{})
	go func() {
		svc.wg.Wait()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
