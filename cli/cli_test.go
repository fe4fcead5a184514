package cli_test

import (
	"bytes"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/absmach/fedround/cli"
	"github.com/absmach/fedround/coordinator"
	"github.com/absmach/fedround/coordinator/api"
	"github.com/absmach/fedround/coordinator/mocks"
	pkgerrors "github.com/absmach/fedround/pkg/errors"
	"github.com/absmach/fedround/pkg/fl"
	"github.com/absmach/fedround/pkg/sdk"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) *mocks.Service {
	t.Helper()

	color.NoColor = true
	svc := new(mocks.Service)
	ts := httptest.NewServer(api.MakeHandler(svc, slog.New(slog.DiscardHandler), "cli"))
	t.Cleanup(ts.Close)
	cli.SetSDK(sdk.NewSDK(sdk.Config{CoordinatorURL: ts.URL}))

	return svc
}

func execute(cmd *cobra.Command, args ...string) (string, string) {
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	_ = cmd.Execute()

	return stdout.String(), stderr.String()
}

func TestParticipantsCmd(t *testing.T) {
	svc := setup(t)

	svc.On("RegisterParticipant", mock.Anything, coordinator.Participant{ID: "site-a", URL: "http://10.0.0.2:9000"}).
		Return(coordinator.Participant{ID: "site-a", Name: "brave-lovelace", URL: "http://10.0.0.2:9000", CreatedAt: time.Now()}, nil)
	svc.On("ListParticipants", mock.Anything, uint64(0), uint64(10)).
		Return(coordinator.ParticipantPage{Limit: 10, Total: 1, Participants: []coordinator.Participant{{ID: "site-a"}}}, nil)
	svc.On("RemoveParticipant", mock.Anything, "site-a").Return(nil)
	svc.On("RemoveParticipant", mock.Anything, "site-b").Return(pkgerrors.ErrNotFound)

	out, errOut := execute(cli.NewParticipantsCmd(), "register", "http://10.0.0.2:9000", "--id", "site-a")
	assert.Empty(t, errOut)
	assert.Contains(t, out, "brave-lovelace")

	out, _ = execute(cli.NewParticipantsCmd(), "list")
	assert.Contains(t, out, `"total": 1`)

	out, _ = execute(cli.NewParticipantsCmd(), "remove", "site-a")
	assert.Contains(t, out, "ok")

	_, errOut = execute(cli.NewParticipantsCmd(), "remove", "site-b")
	assert.Contains(t, errOut, "error")
	assert.Contains(t, errOut, "404")

	out, _ = execute(cli.NewParticipantsCmd(), "register")
	assert.Contains(t, out, "usage: register <url>")
}

func TestRunsCmd(t *testing.T) {
	svc := setup(t)

	running := coordinator.Run{ID: "r1", Status: coordinator.RunRunning, StartedAt: time.Now()}
	completed := running
	completed.Status = coordinator.RunCompleted
	completed.FinishedAt = time.Now()

	svc.On("StartRun", mock.Anything).Return(running, nil)
	svc.On("GetRun", mock.Anything, "r1").Return(running, nil).Once()
	svc.On("GetRun", mock.Anything, "r1").Return(completed, nil)
	svc.On("ListRuns", mock.Anything, uint64(0), uint64(10)).Return(coordinator.RunPage{Limit: 10, Total: 1, Runs: []coordinator.Run{running}}, nil)

	out, _ := execute(cli.NewRunsCmd(), "start")
	assert.Contains(t, out, `"status": "running"`)

	out, _ = execute(cli.NewRunsCmd(), "wait", "r1", "--interval", "10ms")
	assert.Contains(t, out, `"status": "completed"`)

	out, _ = execute(cli.NewRunsCmd(), "list")
	assert.Contains(t, out, `"id": "r1"`)
	svc.AssertNumberOfCalls(t, "GetRun", 2)
}

func TestSessionCmds(t *testing.T) {
	svc := setup(t)

	svc.On("ListRounds", mock.Anything, "s1").Return([]fl.RoundRecord{{SessionID: "s1", Round: 1, Phase: fl.PhaseFit, Status: fl.RoundCompleted}}, nil)
	svc.On("ListModels", mock.Anything, "s1").Return([]int{0, 1}, nil)
	svc.On("GetModel", mock.Anything, "s1", 1).Return(fl.Checkpoint{SessionID: "s1", State: fl.GlobalModelState{Version: 1}}, nil)

	out, _ := execute(cli.NewRoundsCmd(), "s1")
	assert.Contains(t, out, `"phase": "fit"`)

	out, _ = execute(cli.NewModelsCmd(), "list", "s1")
	assert.Contains(t, out, "0")
	assert.Contains(t, out, "1")

	out, _ = execute(cli.NewModelsCmd(), "view", "s1", "1")
	assert.Contains(t, out, `"version": 1`)

	_, errOut := execute(cli.NewModelsCmd(), "view", "s1", "latest")
	require.Contains(t, errOut, "error")
	svc.AssertNotCalled(t, "GetModel", mock.Anything, "s1", 0)
}
