package participant_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/absmach/fedround/pkg/fl"
	"github.com/absmach/fedround/pkg/participant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockingClient struct{}

func (blockingClient) Fit(ctx context.Context, _ participant.FitIns) (fl.FitResult, error) {
	<-ctx.Done()

	return fl.FitResult{}, ctx.Err()
}

func (blockingClient) Evaluate(_ context.Context, _ participant.EvaluateIns) (fl.EvaluateResult, error) {
	return fl.EvaluateResult{}, errors.New("evaluation crashed")
}

func newServer(t *testing.T, client participant.Client) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(participant.MakeHandler(client, slog.New(slog.DiscardHandler), "test"))
	t.Cleanup(srv.Close)

	return srv
}

func TestHTTPProxyRoundTrip(t *testing.T) {
	t.Parallel()

	client := newSynthetic(t, 3)
	srv := newServer(t, client)
	proxy := participant.NewHTTPProxy("remote-1", srv.URL+"/", 5*time.Second)
	assert.Equal(t, "remote-1", proxy.ID())

	ctx := context.Background()
	ins := participant.FitIns{Parameters: client.InitialParameters(), Config: generator.Fit(1)}

	remote, err := proxy.Fit(ctx, ins)
	require.NoError(t, err)
	local, err := client.Fit(ctx, ins)
	require.NoError(t, err)

	assert.Equal(t, "remote-1", remote.ParticipantID)
	assert.Equal(t, local.NumExamples, remote.NumExamples)
	assert.Equal(t, local.Parameters, remote.Parameters)

	eval, err := proxy.Evaluate(ctx, participant.EvaluateIns{Parameters: remote.Parameters, Config: generator.Evaluate(1)})
	require.NoError(t, err)
	assert.Equal(t, "remote-1", eval.ParticipantID)
	assert.Positive(t, eval.NumExamples)
}

func TestHTTPProxyFailures(t *testing.T) {
	t.Parallel()

	srv := newServer(t, blockingClient{})

	t.Run("participant error", func(t *testing.T) {
		proxy := participant.NewHTTPProxy("p", srv.URL, 5*time.Second)
		_, err := proxy.Evaluate(context.Background(), participant.EvaluateIns{Config: generator.Evaluate(1)})
		assert.ErrorIs(t, err, fl.ErrParticipantFailure)
		assert.Contains(t, err.Error(), "evaluation crashed")
	})

	t.Run("deadline", func(t *testing.T) {
		proxy := participant.NewHTTPProxy("p", srv.URL, 0)
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := proxy.Fit(ctx, participant.FitIns{Config: generator.Fit(1)})
		assert.ErrorIs(t, err, fl.ErrParticipantTimeout)
	})

	t.Run("invalid config rejected by server", func(t *testing.T) {
		proxy := participant.NewHTTPProxy("p", srv.URL, 5*time.Second)
		cfg := generator.Fit(1)
		cfg.MaxEpochs = 0
		_, err := proxy.Fit(context.Background(), participant.FitIns{Config: cfg})
		assert.ErrorIs(t, err, fl.ErrParticipantFailure)
		assert.Contains(t, err.Error(), "400")
	})

	t.Run("unreachable", func(t *testing.T) {
		proxy := participant.NewHTTPProxy("p", "http://127.0.0.1:1", time.Second)
		_, err := proxy.Fit(context.Background(), participant.FitIns{Config: generator.Fit(1)})
		assert.Error(t, err)
	})
}

func TestHandlerRejectsJSON(t *testing.T) {
	t.Parallel()

	srv := newServer(t, blockingClient{})

	resp, err := http.Post(srv.URL+"/fit", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

	health, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}
