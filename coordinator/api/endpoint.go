package api

import (
	"context"
	"errors"

	"github.com/absmach/fedround/coordinator"
	"github.com/absmach/fedround/pkg/api"
	pkgerrors "github.com/absmach/fedround/pkg/errors"
	"github.com/go-kit/kit/endpoint"
)

func registerParticipantEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(registerParticipantReq)
		if !ok {
			return participantResponse{}, errors.Join(api.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return participantResponse{}, errors.Join(api.ErrValidation, err)
		}

		p, err := svc.RegisterParticipant(ctx, coordinator.Participant{
			ID:   req.ID,
			Name: req.Name,
			URL:  req.URL,
		})
		if err != nil {
			return participantResponse{}, err
		}

		return participantResponse{Participant: p}, nil
	}
}

func listParticipantsEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(listEntityReq)
		if !ok {
			return listParticipantsResponse{}, errors.Join(api.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return listParticipantsResponse{}, errors.Join(api.ErrValidation, err)
		}

		page, err := svc.ListParticipants(ctx, req.offset, req.limit)
		if err != nil {
			return listParticipantsResponse{}, err
		}

		return listParticipantsResponse{ParticipantPage: page}, nil
	}
}

func removeParticipantEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(entityReq)
		if !ok {
			return removeParticipantResponse{}, errors.Join(api.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return removeParticipantResponse{}, errors.Join(api.ErrValidation, err)
		}

		if err := svc.RemoveParticipant(ctx, req.id); err != nil {
			return removeParticipantResponse{}, err
		}

		return removeParticipantResponse{}, nil
	}
}

func startRunEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		run, err := svc.StartRun(ctx)
		if err != nil {
			return runResponse{}, err
		}

		return runResponse{Run: run, created: true}, nil
	}
}

func getRunEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(entityReq)
		if !ok {
			return runResponse{}, errors.Join(api.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return runResponse{}, errors.Join(api.ErrValidation, err)
		}

		run, err := svc.GetRun(ctx, req.id)
		if err != nil {
			return runResponse{}, err
		}

		return runResponse{Run: run}, nil
	}
}

func listRunsEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(listEntityReq)
		if !ok {
			return listRunsResponse{}, errors.Join(api.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return listRunsResponse{}, errors.Join(api.ErrValidation, err)
		}

		page, err := svc.ListRuns(ctx, req.offset, req.limit)
		if err != nil {
			return listRunsResponse{}, err
		}

		return listRunsResponse{RunPage: page}, nil
	}
}

func listRoundsEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(entityReq)
		if !ok {
			return listRoundsResponse{}, errors.Join(api.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return listRoundsResponse{}, errors.Join(api.ErrValidation, err)
		}

		rounds, err := svc.ListRounds(ctx, req.id)
		if err != nil {
			return listRoundsResponse{}, err
		}

		return listRoundsResponse{SessionID: req.id, Rounds: rounds}, nil
	}
}

func listModelsEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(entityReq)
		if !ok {
			return listModelsResponse{}, errors.Join(api.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return listModelsResponse{}, errors.Join(api.ErrValidation, err)
		}

		versions, err := svc.ListModels(ctx, req.id)
		if err != nil {
			return listModelsResponse{}, err
		}

		return listModelsResponse{SessionID: req.id, Versions: versions}, nil
	}
}

func getModelEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(modelReq)
		if !ok {
			return modelResponse{}, errors.Join(api.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return modelResponse{}, errors.Join(api.ErrValidation, err)
		}

		cp, err := svc.GetModel(ctx, req.sessionID, req.version)
		if err != nil {
			return modelResponse{}, err
		}

		return modelResponse{Checkpoint: cp}, nil
	}
}
