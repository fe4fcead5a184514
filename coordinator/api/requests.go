package api

import (
	"github.com/absmach/fedround/pkg/api"
	pkgerrors "github.com/absmach/fedround/pkg/errors"
)

type registerParticipantReq struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	URL  string `json:"url"`
}

func (req registerParticipantReq) validate() error {
	if req.URL == "" {
		return pkgerrors.ErrMalformed
	}

	return nil
}

type entityReq struct {
	id string
}

func (req entityReq) validate() error {
	if req.id == "" {
		return pkgerrors.ErrEmptyKey
	}

	return nil
}

type listEntityReq struct {
	offset, limit uint64
}

func (req listEntityReq) validate() error {
	if req.limit > api.MaxLimitSize || req.limit < 1 {
		return api.ErrLimitSize
	}

	return nil
}

type modelReq struct {
	sessionID string
	version   int
}

func (req modelReq) validate() error {
	if req.sessionID == "" {
		return pkgerrors.ErrEmptyKey
	}
	if req.version < 0 {
		return pkgerrors.ErrMalformed
	}

	return nil
}
