package sdk

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/absmach/fedround/pkg/fl"
)

const CTJSON string = "application/json"

var (
	ErrUnexpectedStatus = errors.New("unexpected response code")
	ErrConflict         = errors.New("entity already exists")
)

type PageMetadata struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

type SDK interface {
	// RegisterParticipant registers a participant reachable at its URL.
	//
	// example:
	//  p := sdk.Participant{
	//    URL: "http://10.0.0.2:9000",
	//  }
	//  p, _ := sdk.RegisterParticipant(p)
	//  fmt.Println(p)
	RegisterParticipant(p Participant) (Participant, error)

	// ListParticipants lists registered participants.
	//
	// example:
	//  page, _ := sdk.ListParticipants(0, 10)
	//  fmt.Println(page)
	ListParticipants(offset, limit uint64) (ParticipantPage, error)

	// RemoveParticipant removes a participant from the pool.
	//
	// example:
	//  _ := sdk.RemoveParticipant("b1d10738-c5d7-4ff1-8f4d-b9328ce6f040")
	RemoveParticipant(id string) error

	// StartRun starts a training run over the registered participants.
	//
	// example:
	//  run, _ := sdk.StartRun()
	//  fmt.Println(run.ID)
	StartRun() (Run, error)

	// GetRun gets a run by id.
	//
	// example:
	//  run, _ := sdk.GetRun("0192e5a4-7c1e-7a54-9d0b-4b7d3a2f5c11")
	//  fmt.Println(run.Status)
	GetRun(id string) (Run, error)

	// ListRuns lists runs, oldest first.
	//
	// example:
	//  page, _ := sdk.ListRuns(0, 10)
	ListRuns(offset, limit uint64) (RunPage, error)

	// ListRounds lists the round records of a session.
	//
	// example:
	//  rounds, _ := sdk.ListRounds("0192e5a4-7c1e-7a54-9d0b-4b7d3a2f5c11-01")
	ListRounds(sessionID string) ([]fl.RoundRecord, error)

	// ListModels lists the checkpointed model versions of a session.
	//
	// example:
	//  versions, _ := sdk.ListModels("0192e5a4-7c1e-7a54-9d0b-4b7d3a2f5c11-01")
	ListModels(sessionID string) ([]int, error)

	// GetModel gets one checkpointed model version.
	//
	// example:
	//  cp, _ := sdk.GetModel("0192e5a4-7c1e-7a54-9d0b-4b7d3a2f5c11-01", 3)
	//  fmt.Println(cp.State.Parameters)
	GetModel(sessionID string, version int) (fl.Checkpoint, error)
}

type fedSDK struct {
	coordinatorURL string
	client         *http.Client
}

type Config struct {
	CoordinatorURL  string
	TLSVerification bool
}

func NewSDK(cfg Config) SDK {
	return &fedSDK{
		coordinatorURL: strings.TrimSuffix(cfg.CoordinatorURL, "/"),
		client: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: !cfg.TLSVerification,
				},
			},
		},
	}
}

func (sdk *fedSDK) processRequest(method, reqURL string, data []byte, expectedRespCode int) ([]byte, error) {
	req, err := http.NewRequest(method, reqURL, bytes.NewReader(data))
	if err != nil {
		return []byte{}, err
	}

	req.Header.Add("Content-Type", CTJSON)

	resp, err := sdk.client.Do(req)
	if err != nil {
		return []byte{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return []byte{}, err
	}

	if resp.StatusCode != expectedRespCode {
		return []byte{}, statusError(resp.StatusCode, body)
	}

	return body, nil
}

func statusError(code int, body []byte) error {
	var res struct {
		Error string `json:"error"`
	}
	err := fmt.Errorf("%w: %d", ErrUnexpectedStatus, code)
	if json.Unmarshal(body, &res) == nil && res.Error != "" {
		err = fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, code, res.Error)
	}
	if code == http.StatusConflict {
		return errors.Join(ErrConflict, err)
	}

	return err
}

func (sdk *fedSDK) get(url string, v any) error {
	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return err
	}

	return json.Unmarshal(body, v)
}

func pageQuery(offset, limit uint64) string {
	queries := make([]string, 0)
	if offset > 0 {
		queries = append(queries, fmt.Sprintf("offset=%d", offset))
	}
	if limit > 0 {
		queries = append(queries, fmt.Sprintf("limit=%d", limit))
	}
	if len(queries) == 0 {
		return ""
	}

	return "?" + strings.Join(queries, "&")
}
