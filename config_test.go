package fedround_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/absmach/fedround"
	"github.com/absmach/fedround/pkg/fl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := fedround.DefaultConfig()
	require.NoError(t, cfg.Validate())

	scfg, err := cfg.StrategyConfig()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, scfg.RoundTimeout)
	assert.Equal(t, 3, scfg.MinAvailableClients)
	assert.True(t, scfg.AcceptFailures)
	assert.Equal(t, 1, scfg.OnFitConfig(1).CurrentRound)

	assert.Equal(t, 10, cfg.Session.Sessions)
	assert.Equal(t, 10, cfg.Session.Rounds)
	assert.Equal(t, time.Second, cfg.Session.PauseDuration())

	state := cfg.InitialState()
	assert.Equal(t, "resnet18", state.Descriptor.Architecture)
	assert.Equal(t, []fl.Class{{Name: "NORMAL", Label: 0}, {Name: "AMD", Label: 1}}, state.Descriptor.Classes)
	assert.Zero(t, state.Version)
	require.Len(t, state.Parameters, 2)

	state.Descriptor.Hyperparams["lr"] = 1
	assert.NotEqual(t, 1.0, cfg.Model.Hyperparams["lr"])
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
[strategy]
fraction_fit = 0.5
min_fit_clients = 2
round_timeout = "30s"
sampler = "round_robin"

[session]
sessions = 2
rounds = 4
`)

	cfg, err := fedround.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.Strategy.FractionFit)
	assert.Equal(t, 2, cfg.Strategy.MinFitClients)
	assert.Equal(t, 2, cfg.Session.Sessions)
	assert.Equal(t, 4, cfg.Session.Rounds)

	scfg, err := cfg.StrategyConfig()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, scfg.RoundTimeout)

	// Sections missing from the file keep their defaults.
	assert.Equal(t, "resnet18", cfg.Model.Architecture)
	assert.Equal(t, "memory", cfg.Storage.Type)
	assert.Equal(t, 3, cfg.Simulation.Clients)
}

func TestLoadConfigOver(t *testing.T) {
	t.Parallel()

	base := fedround.DefaultConfig()
	base.Storage.Type = "sqlite"
	base.Storage.SQLitePath = "/var/lib/fedround/env.db"

	cfg, err := fedround.LoadConfigOver(base, writeConfig(t, "[session]\nrounds = 2\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Session.Rounds)
	assert.Equal(t, "sqlite", cfg.Storage.Type)
	assert.Equal(t, "/var/lib/fedround/env.db", cfg.Storage.SQLitePath)

	cfg, err = fedround.LoadConfigOver(base, writeConfig(t, "[storage]\ntype = \"badger\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "badger", cfg.Storage.Type)
	assert.Equal(t, "/var/lib/fedround/env.db", cfg.Storage.SQLitePath)
	assert.Equal(t, base.Storage.BadgerPath, cfg.Storage.BadgerPath)
}

func TestLoadConfigErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc    string
		content string
	}{
		{desc: "invalid toml", content: "[strategy\nfraction_fit = "},
		{desc: "fraction out of range", content: "[strategy]\nfraction_fit = 1.5\n"},
		{desc: "invalid timeout", content: "[strategy]\nround_timeout = \"soon\"\n"},
		{desc: "unknown sampler", content: "[strategy]\nsampler = \"random\"\n"},
		{desc: "zero rounds", content: "[session]\nrounds = 0\n"},
		{desc: "negative pause", content: "[session]\npause = \"-1s\"\n"},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			_, err := fedround.LoadConfig(writeConfig(t, tc.content))
			assert.Error(t, err)
		})
	}

	_, err := fedround.LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cfg := fedround.DefaultConfig()
	cfg.Model.Shapes = [][]int{{0}}
	assert.ErrorIs(t, cfg.Validate(), fedround.ErrInvalidConfig)

	cfg = fedround.DefaultConfig()
	cfg.Model.Shapes = nil
	assert.ErrorIs(t, cfg.Validate(), fedround.ErrInvalidConfig)

	cfg = fedround.DefaultConfig()
	cfg.Strategy.MinFitClients = -1
	assert.ErrorIs(t, cfg.Validate(), fl.ErrConfiguration)
}
