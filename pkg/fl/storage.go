package fl

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

var ErrCheckpointNotFound = errors.New("checkpoint not found")

// CheckpointStore persists applied models and round records per session.
type CheckpointStore interface {
	SaveModel(ctx context.Context, cp Checkpoint) error
	LoadModel(ctx context.Context, sessionID string, version int) (Checkpoint, error)
	ListModels(ctx context.Context, sessionID string) ([]int, error)
	SaveRound(ctx context.Context, rec RoundRecord) error
	ListRounds(ctx context.Context, sessionID string) ([]RoundRecord, error)
	Close() error
}

var _ CheckpointStore = (*FileStore)(nil)

// FileStore keeps one directory per session holding model_v<N>.json and
// round_<N>_<phase>.json files.
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	return &FileStore{dir: dir}, nil
}

func (s *FileStore) SaveModel(_ context.Context, cp Checkpoint) error {
	sessionDir, err := s.sessionDir(cp.SessionID, true)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	modelFile := filepath.Join(sessionDir, fmt.Sprintf("model_v%d.json", cp.State.Version))

	return writeJSON(modelFile, cp)
}

func (s *FileStore) LoadModel(_ context.Context, sessionID string, version int) (Checkpoint, error) {
	sessionDir, err := s.sessionDir(sessionID, false)
	if err != nil {
		return Checkpoint{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	modelFile := filepath.Join(sessionDir, fmt.Sprintf("model_v%d.json", version))
	data, err := os.ReadFile(modelFile)
	if errors.Is(err, os.ErrNotExist) {
		return Checkpoint{}, ErrCheckpointNotFound
	}
	if err != nil {
		return Checkpoint{}, fmt.Errorf("failed to read model file: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, fmt.Errorf("failed to unmarshal model: %w", err)
	}

	return cp, nil
}

func (s *FileStore) ListModels(_ context.Context, sessionID string) ([]int, error) {
	sessionDir, err := s.sessionDir(sessionID, false)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := readDir(sessionDir)
	if err != nil {
		return nil, err
	}

	versions := []int{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		var version int
		if _, err := fmt.Sscanf(entry.Name(), "model_v%d.json", &version); err == nil {
			versions = append(versions, version)
		}
	}
	slices.Sort(versions)

	return versions, nil
}

func (s *FileStore) SaveRound(_ context.Context, rec RoundRecord) error {
	sessionDir, err := s.sessionDir(rec.SessionID, true)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	roundFile := filepath.Join(sessionDir, fmt.Sprintf("round_%d_%s.json", rec.Round, sanitizeID(string(rec.Phase))))

	return writeJSON(roundFile, rec)
}

func (s *FileStore) ListRounds(_ context.Context, sessionID string) ([]RoundRecord, error) {
	sessionDir, err := s.sessionDir(sessionID, false)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := readDir(sessionDir)
	if err != nil {
		return nil, err
	}

	records := []RoundRecord{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "round_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(sessionDir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read round file: %w", err)
		}
		var rec RoundRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal round record: %w", err)
		}
		records = append(records, rec)
	}
	SortRounds(records)

	return records, nil
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) sessionDir(sessionID string, create bool) (string, error) {
	sanitized := sanitizeID(sessionID)
	if sanitized == "" {
		return "", fmt.Errorf("invalid session id: %q", sessionID)
	}

	dir := filepath.Join(s.dir, sanitized)
	if create {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create session directory: %w", err)
		}
	}

	return dir, nil
}

// SortRounds orders records by round index, fit before evaluate.
func SortRounds(records []RoundRecord) {
	slices.SortFunc(records, func(a, b RoundRecord) int {
		if c := cmp.Compare(a.Round, b.Round); c != 0 {
			return c
		}

		return cmp.Compare(phaseOrder(a.Phase), phaseOrder(b.Phase))
	})
}

func phaseOrder(p Phase) int {
	if p == PhaseFit {
		return 0
	}

	return 1
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}

	return os.Rename(tmp, path)
}

func readDir(dir string) ([]fs.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	return entries, err
}

// sanitizeID keeps only characters that are safe inside a file name.
func sanitizeID(id string) string {
	var b strings.Builder
	for _, r := range id {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}

	return b.String()
}
