package storage

import (
	"context"
	"errors"
	"fmt"

	pkgerrors "github.com/absmach/fedround/pkg/errors"
	"github.com/absmach/fedround/pkg/fl"
)

var _ fl.CheckpointStore = (*memoryCheckpointStore)(nil)

type memoryCheckpointStore struct {
	models Storage
	rounds Storage
}

// NewMemoryCheckpointStore keeps checkpoints and round records in two
// in-memory key value stores. Stored values are deep copies.
func NewMemoryCheckpointStore() fl.CheckpointStore {
	return &memoryCheckpointStore{
		models: NewInMemoryStorage(),
		rounds: NewInMemoryStorage(),
	}
}

func (s *memoryCheckpointStore) SaveModel(ctx context.Context, cp fl.Checkpoint) error {
	if cp.SessionID == "" {
		return pkgerrors.ErrEmptyKey
	}
	cp.State = cp.State.Clone()

	return upsert(ctx, s.models, modelKey(cp.SessionID, cp.State.Version), cp)
}

func (s *memoryCheckpointStore) LoadModel(ctx context.Context, sessionID string, version int) (fl.Checkpoint, error) {
	data, err := s.models.Get(ctx, modelKey(sessionID, version))
	switch {
	case errors.Is(err, pkgerrors.ErrNotFound):
		return fl.Checkpoint{}, fl.ErrCheckpointNotFound
	case err != nil:
		return fl.Checkpoint{}, err
	}
	cp, ok := data.(fl.Checkpoint)
	if !ok {
		return fl.Checkpoint{}, pkgerrors.ErrInvalidData
	}
	cp.State = cp.State.Clone()

	return cp, nil
}

func (s *memoryCheckpointStore) ListModels(ctx context.Context, sessionID string) ([]int, error) {
	values, err := s.models.ListPrefix(ctx, sessionPrefix("model", sessionID))
	if err != nil {
		return nil, err
	}

	versions := make([]int, 0, len(values))
	for _, v := range values {
		cp, ok := v.(fl.Checkpoint)
		if !ok {
			return nil, pkgerrors.ErrInvalidData
		}
		versions = append(versions, cp.State.Version)
	}

	return versions, nil
}

func (s *memoryCheckpointStore) SaveRound(ctx context.Context, rec fl.RoundRecord) error {
	if rec.SessionID == "" {
		return pkgerrors.ErrEmptyKey
	}

	return upsert(ctx, s.rounds, roundKey(rec.SessionID, rec.Round, rec.Phase), rec)
}

func (s *memoryCheckpointStore) ListRounds(ctx context.Context, sessionID string) ([]fl.RoundRecord, error) {
	values, err := s.rounds.ListPrefix(ctx, sessionPrefix("round", sessionID))
	if err != nil {
		return nil, err
	}

	records := make([]fl.RoundRecord, 0, len(values))
	for _, v := range values {
		rec, ok := v.(fl.RoundRecord)
		if !ok {
			return nil, pkgerrors.ErrInvalidData
		}
		records = append(records, rec)
	}
	fl.SortRounds(records)

	return records, nil
}

func (s *memoryCheckpointStore) Close() error {
	return nil
}

func upsert(ctx context.Context, s Storage, key string, value any) error {
	err := s.Create(ctx, key, value)
	if errors.Is(err, pkgerrors.ErrEntityExists) {
		return s.Update(ctx, key, value)
	}

	return err
}

func sessionPrefix(kind, sessionID string) string {
	return kind + "/" + sessionID + "/"
}

func modelKey(sessionID string, version int) string {
	return fmt.Sprintf("%s%010d", sessionPrefix("model", sessionID), version)
}

func roundKey(sessionID string, round int, phase fl.Phase) string {
	return fmt.Sprintf("%s%010d/%s", sessionPrefix("round", sessionID), round, phase)
}
