package api

import (
	"net/http"

	"github.com/absmach/fedround/coordinator"
	"github.com/absmach/fedround/pkg/api"
	"github.com/absmach/fedround/pkg/fl"
)

var (
	_ api.Response = (*participantResponse)(nil)
	_ api.Response = (*listParticipantsResponse)(nil)
	_ api.Response = (*removeParticipantResponse)(nil)
	_ api.Response = (*runResponse)(nil)
	_ api.Response = (*listRunsResponse)(nil)
	_ api.Response = (*listRoundsResponse)(nil)
	_ api.Response = (*listModelsResponse)(nil)
	_ api.Response = (*modelResponse)(nil)
)

type participantResponse struct {
	coordinator.Participant
}

func (res participantResponse) Code() int {
	return http.StatusCreated
}

func (res participantResponse) Headers() map[string]string {
	return map[string]string{
		"Location": "/participants/" + res.ID,
	}
}

func (res participantResponse) Empty() bool {
	return false
}

type listParticipantsResponse struct {
	coordinator.ParticipantPage
}

func (res listParticipantsResponse) Code() int {
	return http.StatusOK
}

func (res listParticipantsResponse) Headers() map[string]string {
	return map[string]string{}
}

func (res listParticipantsResponse) Empty() bool {
	return false
}

type removeParticipantResponse struct{}

func (res removeParticipantResponse) Code() int {
	return http.StatusNoContent
}

func (res removeParticipantResponse) Headers() map[string]string {
	return map[string]string{}
}

func (res removeParticipantResponse) Empty() bool {
	return true
}

type runResponse struct {
	coordinator.Run
	created bool
}

func (res runResponse) Code() int {
	if res.created {
		return http.StatusCreated
	}

	return http.StatusOK
}

func (res runResponse) Headers() map[string]string {
	if res.created {
		return map[string]string{
			"Location": "/runs/" + res.ID,
		}
	}

	return map[string]string{}
}

func (res runResponse) Empty() bool {
	return false
}

type listRunsResponse struct {
	coordinator.RunPage
}

func (res listRunsResponse) Code() int {
	return http.StatusOK
}

func (res listRunsResponse) Headers() map[string]string {
	return map[string]string{}
}

func (res listRunsResponse) Empty() bool {
	return false
}

type listRoundsResponse struct {
	SessionID string           `json:"session_id"`
	Rounds    []fl.RoundRecord `json:"rounds"`
}

func (res listRoundsResponse) Code() int {
	return http.StatusOK
}

func (res listRoundsResponse) Headers() map[string]string {
	return map[string]string{}
}

func (res listRoundsResponse) Empty() bool {
	return false
}

type listModelsResponse struct {
	SessionID string `json:"session_id"`
	Versions  []int  `json:"versions"`
}

func (res listModelsResponse) Code() int {
	return http.StatusOK
}

func (res listModelsResponse) Headers() map[string]string {
	return map[string]string{}
}

func (res listModelsResponse) Empty() bool {
	return false
}

type modelResponse struct {
	fl.Checkpoint
}

func (res modelResponse) Code() int {
	return http.StatusOK
}

func (res modelResponse) Headers() map[string]string {
	return map[string]string{}
}

func (res modelResponse) Empty() bool {
	return false
}
