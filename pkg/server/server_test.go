package server_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/absmach/fedround/pkg/server"
	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigListensOnAllInterfaces(t *testing.T) {
	var cfg server.Config
	require.NoError(t, env.ParseWithOptions(&cfg, env.Options{Prefix: "FEDROUND_SERVER_TEST_"}))
	assert.Empty(t, cfg.Host)
	cfg.Port = "8080"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	base := server.NewBaseServer(ctx, cancel, "test", cfg, slog.New(slog.DiscardHandler))
	assert.Equal(t, ":8080", base.Address)
}
