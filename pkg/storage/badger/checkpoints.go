package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/absmach/fedround/pkg/fl"
)

type checkpointRepo struct {
	db *Database
}

// NewCheckpointRepository stores checkpoints as JSON under
// model:<session>:<version> and round records under
// round:<session>:<round>:<phase>. Closing the repository closes db.
func NewCheckpointRepository(db *Database) fl.CheckpointStore {
	return &checkpointRepo{db: db}
}

func (r *checkpointRepo) SaveModel(_ context.Context, cp fl.Checkpoint) error {
	val, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	return r.db.set(modelKey(cp.SessionID, cp.State.Version), val)
}

func (r *checkpointRepo) LoadModel(_ context.Context, sessionID string, version int) (fl.Checkpoint, error) {
	val, err := r.db.get(modelKey(sessionID, version))
	if errors.Is(err, ErrNotFound) {
		return fl.Checkpoint{}, fl.ErrCheckpointNotFound
	}
	if err != nil {
		return fl.Checkpoint{}, err
	}

	var cp fl.Checkpoint
	if err := json.Unmarshal(val, &cp); err != nil {
		return fl.Checkpoint{}, fmt.Errorf("unmarshal error: %w", err)
	}

	return cp, nil
}

func (r *checkpointRepo) ListModels(_ context.Context, sessionID string) ([]int, error) {
	values, err := r.db.listWithPrefix([]byte("model:" + sessionID + ":"))
	if err != nil {
		return nil, err
	}

	versions := make([]int, 0, len(values))
	for _, val := range values {
		var cp fl.Checkpoint
		if err := json.Unmarshal(val, &cp); err != nil {
			return nil, fmt.Errorf("unmarshal error: %w", err)
		}
		versions = append(versions, cp.State.Version)
	}

	return versions, nil
}

func (r *checkpointRepo) SaveRound(_ context.Context, rec fl.RoundRecord) error {
	val, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	return r.db.set(roundKey(rec.SessionID, rec.Round, rec.Phase), val)
}

func (r *checkpointRepo) ListRounds(_ context.Context, sessionID string) ([]fl.RoundRecord, error) {
	values, err := r.db.listWithPrefix([]byte("round:" + sessionID + ":"))
	if err != nil {
		return nil, err
	}

	records := make([]fl.RoundRecord, 0, len(values))
	for _, val := range values {
		var rec fl.RoundRecord
		if err := json.Unmarshal(val, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal error: %w", err)
		}
		records = append(records, rec)
	}
	fl.SortRounds(records)

	return records, nil
}

func (r *checkpointRepo) Close() error {
	return r.db.Close()
}

// Versions and rounds are zero padded so key order matches numeric order.
func modelKey(sessionID string, version int) []byte {
	return fmt.Appendf(nil, "model:%s:%010d", sessionID, version)
}

func roundKey(sessionID string, round int, phase fl.Phase) []byte {
	return fmt.Appendf(nil, "round:%s:%010d:%s", sessionID, round, phase)
}
