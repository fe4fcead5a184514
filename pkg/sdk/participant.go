package sdk

import (
	"encoding/json"
	"net/http"
	"time"
)

const participantsEndpoint = "/participants"

type Participant struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name,omitempty"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

type ParticipantPage struct {
	Offset       uint64        `json:"offset"`
	Limit        uint64        `json:"limit"`
	Total        uint64        `json:"total"`
	Participants []Participant `json:"participants"`
}

func (sdk *fedSDK) RegisterParticipant(p Participant) (Participant, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return Participant{}, err
	}

	url := sdk.coordinatorURL + participantsEndpoint + "/"

	body, err := sdk.processRequest(http.MethodPost, url, data, http.StatusCreated)
	if err != nil {
		return Participant{}, err
	}

	var res Participant
	if err := json.Unmarshal(body, &res); err != nil {
		return Participant{}, err
	}

	return res, nil
}

func (sdk *fedSDK) ListParticipants(offset, limit uint64) (ParticipantPage, error) {
	url := sdk.coordinatorURL + participantsEndpoint + "/" + pageQuery(offset, limit)

	var page ParticipantPage
	if err := sdk.get(url, &page); err != nil {
		return ParticipantPage{}, err
	}

	return page, nil
}

func (sdk *fedSDK) RemoveParticipant(id string) error {
	url := sdk.coordinatorURL + participantsEndpoint + "/" + id

	_, err := sdk.processRequest(http.MethodDelete, url, nil, http.StatusNoContent)

	return err
}
