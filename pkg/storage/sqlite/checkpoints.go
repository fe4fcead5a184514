package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/absmach/fedround/pkg/fl"
)

type checkpointRepo struct {
	db *Database
}

// NewCheckpointRepository returns a store over the models and rounds tables.
// Closing the repository closes db.
func NewCheckpointRepository(db *Database) fl.CheckpointStore {
	return &checkpointRepo{db: db}
}

type dbModel struct {
	SessionID string    `db:"session_id"`
	Version   int       `db:"version"`
	Round     int       `db:"round"`
	State     []byte    `db:"state"`
	CreatedAt time.Time `db:"created_at"`
}

type dbRound struct {
	SessionID    string         `db:"session_id"`
	Round        int            `db:"round"`
	Phase        string         `db:"phase"`
	Status       string         `db:"status"`
	Contributors int            `db:"contributors"`
	Invited      int            `db:"invited"`
	Loss         float64        `db:"loss"`
	Metrics      []byte         `db:"metrics"`
	Error        sql.NullString `db:"error"`
	StartedAt    time.Time      `db:"started_at"`
	FinishedAt   time.Time      `db:"finished_at"`
}

func (r *checkpointRepo) SaveModel(ctx context.Context, cp fl.Checkpoint) error {
	state, err := json.Marshal(cp.State)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	query := `INSERT OR REPLACE INTO models (session_id, version, round, state, created_at)
		VALUES (:session_id, :version, :round, :state, :created_at)`
	row := dbModel{
		SessionID: cp.SessionID,
		Version:   cp.State.Version,
		Round:     cp.State.Round,
		State:     state,
		CreatedAt: cp.CreatedAt,
	}
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return nil
}

func (r *checkpointRepo) LoadModel(ctx context.Context, sessionID string, version int) (fl.Checkpoint, error) {
	var row dbModel
	query := `SELECT session_id, version, round, state, created_at FROM models WHERE session_id = ? AND version = ?`
	if err := r.db.GetContext(ctx, &row, query, sessionID, version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fl.Checkpoint{}, fl.ErrCheckpointNotFound
		}

		return fl.Checkpoint{}, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	var state fl.GlobalModelState
	if err := json.Unmarshal(row.State, &state); err != nil {
		return fl.Checkpoint{}, fmt.Errorf("%w: %w", ErrDBScan, err)
	}

	return fl.Checkpoint{
		SessionID: row.SessionID,
		State:     state,
		CreatedAt: row.CreatedAt,
	}, nil
}

func (r *checkpointRepo) ListModels(ctx context.Context, sessionID string) ([]int, error) {
	versions := []int{}
	query := `SELECT version FROM models WHERE session_id = ? ORDER BY version`
	if err := r.db.SelectContext(ctx, &versions, query, sessionID); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return versions, nil
}

func (r *checkpointRepo) SaveRound(ctx context.Context, rec fl.RoundRecord) error {
	metrics, err := json.Marshal(rec.Metrics)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	query := `INSERT OR REPLACE INTO rounds
		(session_id, round, phase, status, contributors, invited, loss, metrics, error, started_at, finished_at)
		VALUES (:session_id, :round, :phase, :status, :contributors, :invited, :loss, :metrics, :error, :started_at, :finished_at)`
	row := dbRound{
		SessionID:    rec.SessionID,
		Round:        rec.Round,
		Phase:        string(rec.Phase),
		Status:       string(rec.Status),
		Contributors: rec.Contributors,
		Invited:      rec.Invited,
		Loss:         rec.Loss,
		Metrics:      metrics,
		Error:        sql.NullString{String: rec.Error, Valid: rec.Error != ""},
		StartedAt:    rec.StartedAt,
		FinishedAt:   rec.FinishedAt,
	}
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return nil
}

func (r *checkpointRepo) ListRounds(ctx context.Context, sessionID string) ([]fl.RoundRecord, error) {
	var rows []dbRound
	query := `SELECT session_id, round, phase, status, contributors, invited, loss, metrics, error, started_at, finished_at
		FROM rounds WHERE session_id = ?`
	if err := r.db.SelectContext(ctx, &rows, query, sessionID); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	records := make([]fl.RoundRecord, 0, len(rows))
	for _, row := range rows {
		rec := fl.RoundRecord{
			SessionID:    row.SessionID,
			Round:        row.Round,
			Phase:        fl.Phase(row.Phase),
			Status:       fl.RoundStatus(row.Status),
			Contributors: row.Contributors,
			Invited:      row.Invited,
			Loss:         row.Loss,
			Error:        row.Error.String,
			StartedAt:    row.StartedAt,
			FinishedAt:   row.FinishedAt,
		}
		if len(row.Metrics) > 0 {
			if err := json.Unmarshal(row.Metrics, &rec.Metrics); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrDBScan, err)
			}
		}
		records = append(records, rec)
	}
	fl.SortRounds(records)

	return records, nil
}

func (r *checkpointRepo) Close() error {
	return r.db.Close()
}
