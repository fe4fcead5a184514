package tracing_test

import (
	"context"
	"net/url"
	"testing"

	"github.com/absmach/fedround/pkg/tracing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	tp, err := tracing.NewProvider(ctx, "coordinator", url.URL{}, "id", 1)
	require.NoError(t, err)
	assert.NoError(t, tp.Shutdown(ctx))

	_, err = tracing.NewProvider(ctx, "coordinator", url.URL{Scheme: "udp", Host: "localhost:4318"}, "id", 1)
	assert.Error(t, err)

	_, err = tracing.NewProvider(ctx, "", url.URL{Scheme: "http", Host: "localhost:4318"}, "id", 1)
	assert.Error(t, err)
}
