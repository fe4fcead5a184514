package storage

import (
	"fmt"

	"github.com/absmach/fedround/pkg/fl"
	"github.com/absmach/fedround/pkg/storage/badger"
	"github.com/absmach/fedround/pkg/storage/sqlite"
)

type Config struct {
	Type string `env:"FEDROUND_STORAGE_TYPE" envDefault:"memory" toml:"type"`

	FileDir    string `env:"FEDROUND_FILE_DIR"    envDefault:"./data/checkpoints" toml:"file_dir"`
	SQLitePath string `env:"FEDROUND_SQLITE_PATH" envDefault:"./fedround.db"      toml:"sqlite_path"`
	BadgerPath string `env:"FEDROUND_BADGER_PATH" envDefault:"./data/badger"      toml:"badger_path"`
}

// NewCheckpointStore opens the checkpoint store selected by cfg.Type.
func NewCheckpointStore(cfg Config) (fl.CheckpointStore, error) {
	switch cfg.Type {
	case "memory", "":
		return NewMemoryCheckpointStore(), nil
	case "file":
		return fl.NewFileStore(cfg.FileDir)
	case "sqlite":
		db, err := sqlite.NewDatabase(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}

		return sqlite.NewCheckpointRepository(db), nil
	case "badger":
		db, err := badger.NewDatabase(cfg.BadgerPath)
		if err != nil {
			return nil, err
		}

		return badger.NewCheckpointRepository(db), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, cfg.Type)
	}
}
