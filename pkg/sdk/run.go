package sdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/absmach/fedround/pkg/fl"
)

const (
	runsEndpoint     = "/runs"
	sessionsEndpoint = "/sessions"
)

type SessionReport struct {
	SessionID       string    `json:"session_id"`
	Index           int       `json:"index"`
	Status          string    `json:"status"`
	CompletedRounds int       `json:"completed_rounds"`
	SkippedRounds   int       `json:"skipped_rounds"`
	FinalVersion    int       `json:"final_version"`
	FinalLoss       float64   `json:"final_loss"`
	Error           string    `json:"error,omitempty"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
}

type Run struct {
	ID         string          `json:"id"`
	Status     string          `json:"status"`
	Sessions   []SessionReport `json:"sessions,omitempty"`
	Error      string          `json:"error,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at,omitzero"`
}

type RunPage struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
	Total  uint64 `json:"total"`
	Runs   []Run  `json:"runs"`
}

func (sdk *fedSDK) StartRun() (Run, error) {
	url := sdk.coordinatorURL + runsEndpoint + "/"

	body, err := sdk.processRequest(http.MethodPost, url, nil, http.StatusCreated)
	if err != nil {
		return Run{}, err
	}

	var run Run
	if err := json.Unmarshal(body, &run); err != nil {
		return Run{}, err
	}

	return run, nil
}

func (sdk *fedSDK) GetRun(id string) (Run, error) {
	url := sdk.coordinatorURL + runsEndpoint + "/" + id

	var run Run
	if err := sdk.get(url, &run); err != nil {
		return Run{}, err
	}

	return run, nil
}

func (sdk *fedSDK) ListRuns(offset, limit uint64) (RunPage, error) {
	url := sdk.coordinatorURL + runsEndpoint + "/" + pageQuery(offset, limit)

	var page RunPage
	if err := sdk.get(url, &page); err != nil {
		return RunPage{}, err
	}

	return page, nil
}

func (sdk *fedSDK) ListRounds(sessionID string) ([]fl.RoundRecord, error) {
	url := fmt.Sprintf("%s%s/%s/rounds", sdk.coordinatorURL, sessionsEndpoint, sessionID)

	var res struct {
		Rounds []fl.RoundRecord `json:"rounds"`
	}
	if err := sdk.get(url, &res); err != nil {
		return nil, err
	}

	return res.Rounds, nil
}

func (sdk *fedSDK) ListModels(sessionID string) ([]int, error) {
	url := fmt.Sprintf("%s%s/%s/models", sdk.coordinatorURL, sessionsEndpoint, sessionID)

	var res struct {
		Versions []int `json:"versions"`
	}
	if err := sdk.get(url, &res); err != nil {
		return nil, err
	}

	return res.Versions, nil
}

func (sdk *fedSDK) GetModel(sessionID string, version int) (fl.Checkpoint, error) {
	url := fmt.Sprintf("%s%s/%s/models/%d", sdk.coordinatorURL, sessionsEndpoint, sessionID, version)

	var cp fl.Checkpoint
	if err := sdk.get(url, &cp); err != nil {
		return fl.Checkpoint{}, err
	}

	return cp, nil
}
