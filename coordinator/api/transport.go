package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/absmach/fedround/coordinator"
	"github.com/absmach/fedround/pkg/api"
	pkgerrors "github.com/absmach/fedround/pkg/errors"
	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	participantIDKey = "participantID"
	runIDKey         = "runID"
	sessionIDKey     = "sessionID"
	versionKey       = "version"
)

func MakeHandler(svc coordinator.Service, logger *slog.Logger, instanceID string) http.Handler {
	mux := chi.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(api.LoggingErrorEncoder(logger, api.EncodeError)),
	}

	mux.Route("/participants", func(r chi.Router) {
		r.Post("/", otelhttp.NewHandler(kithttp.NewServer(
			registerParticipantEndpoint(svc),
			decodeRegisterParticipantReq,
			api.EncodeResponse,
			opts...,
		), "register-participant").ServeHTTP)
		r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
			listParticipantsEndpoint(svc),
			decodeListEntityReq,
			api.EncodeResponse,
			opts...,
		), "list-participants").ServeHTTP)
		r.Delete("/{participantID}", otelhttp.NewHandler(kithttp.NewServer(
			removeParticipantEndpoint(svc),
			decodeEntityReq(participantIDKey),
			api.EncodeResponse,
			opts...,
		), "remove-participant").ServeHTTP)
	})

	mux.Route("/runs", func(r chi.Router) {
		r.Post("/", otelhttp.NewHandler(kithttp.NewServer(
			startRunEndpoint(svc),
			kithttp.NopRequestDecoder,
			api.EncodeResponse,
			opts...,
		), "start-run").ServeHTTP)
		r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
			listRunsEndpoint(svc),
			decodeListEntityReq,
			api.EncodeResponse,
			opts...,
		), "list-runs").ServeHTTP)
		r.Get("/{runID}", otelhttp.NewHandler(kithttp.NewServer(
			getRunEndpoint(svc),
			decodeEntityReq(runIDKey),
			api.EncodeResponse,
			opts...,
		), "get-run").ServeHTTP)
	})

	mux.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/rounds", otelhttp.NewHandler(kithttp.NewServer(
			listRoundsEndpoint(svc),
			decodeEntityReq(sessionIDKey),
			api.EncodeResponse,
			opts...,
		), "list-rounds").ServeHTTP)
		r.Get("/models", otelhttp.NewHandler(kithttp.NewServer(
			listModelsEndpoint(svc),
			decodeEntityReq(sessionIDKey),
			api.EncodeResponse,
			opts...,
		), "list-models").ServeHTTP)
		r.Get("/models/{version}", otelhttp.NewHandler(kithttp.NewServer(
			getModelEndpoint(svc),
			decodeModelReq,
			api.EncodeResponse,
			opts...,
		), "get-model").ServeHTTP)
	})

	mux.Get("/health", api.Health("coordinator", instanceID))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func decodeRegisterParticipantReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Join(api.ErrValidation, api.ErrUnsupportedContentType)
	}

	var req registerParticipantReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Join(err, api.ErrValidation, pkgerrors.ErrMalformed)
	}

	return req, nil
}

func decodeEntityReq(key string) kithttp.DecodeRequestFunc {
	return func(_ context.Context, r *http.Request) (any, error) {
		return entityReq{
			id: chi.URLParam(r, key),
		}, nil
	}
}

func decodeListEntityReq(_ context.Context, r *http.Request) (any, error) {
	o, err := api.ReadUintQuery(r, api.OffsetKey, api.DefOffset)
	if err != nil {
		return nil, errors.Join(api.ErrValidation, err)
	}

	l, err := api.ReadUintQuery(r, api.LimitKey, api.DefLimit)
	if err != nil {
		return nil, errors.Join(api.ErrValidation, err)
	}

	return listEntityReq{
		offset: o,
		limit:  l,
	}, nil
}

func decodeModelReq(_ context.Context, r *http.Request) (any, error) {
	version, err := strconv.Atoi(chi.URLParam(r, versionKey))
	if err != nil {
		return nil, errors.Join(api.ErrValidation, pkgerrors.ErrMalformed, err)
	}

	return modelReq{
		sessionID: chi.URLParam(r, sessionIDKey),
		version:   version,
	}, nil
}
