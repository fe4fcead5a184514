package participant

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/absmach/fedround/pkg/api"
	"github.com/fxamacker/cbor/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// MakeHandler serves client over HTTP for NewHTTPProxy.
func MakeHandler(client Client, logger *slog.Logger, instanceID string) http.Handler {
	mux := chi.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(api.LoggingErrorEncoder(logger, api.EncodeError)),
	}

	mux.Post(fitEndpoint, otelhttp.NewHandler(kithttp.NewServer(
		makeFitEndpoint(client),
		decodeFitReq,
		encodeCBORResponse,
		opts...,
	), "fit").ServeHTTP)
	mux.Post(evaluateEndpoint, otelhttp.NewHandler(kithttp.NewServer(
		makeEvaluateEndpoint(client),
		decodeEvaluateReq,
		encodeCBORResponse,
		opts...,
	), "evaluate").ServeHTTP)

	mux.Get("/health", api.Health("participant", instanceID))

	return mux
}

func makeFitEndpoint(client Client) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		ins, ok := request.(FitIns)
		if !ok {
			return nil, api.ErrValidation
		}

		return client.Fit(ctx, ins)
	}
}

func makeEvaluateEndpoint(client Client) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		ins, ok := request.(EvaluateIns)
		if !ok {
			return nil, api.ErrValidation
		}

		return client.Evaluate(ctx, ins)
	}
}

func decodeFitReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), ContentTypeCBOR) {
		return nil, errors.Join(api.ErrValidation, api.ErrUnsupportedContentType)
	}

	var ins FitIns
	if err := cbor.NewDecoder(r.Body).Decode(&ins); err != nil {
		return nil, errors.Join(err, api.ErrValidation)
	}
	if err := ins.Config.Validate(); err != nil {
		return nil, err
	}

	return ins, nil
}

func decodeEvaluateReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), ContentTypeCBOR) {
		return nil, errors.Join(api.ErrValidation, api.ErrUnsupportedContentType)
	}

	var ins EvaluateIns
	if err := cbor.NewDecoder(r.Body).Decode(&ins); err != nil {
		return nil, errors.Join(err, api.ErrValidation)
	}
	if err := ins.Config.Validate(); err != nil {
		return nil, err
	}

	return ins, nil
}

func encodeCBORResponse(_ context.Context, w http.ResponseWriter, response any) error {
	w.Header().Set("Content-Type", ContentTypeCBOR)
	w.WriteHeader(http.StatusOK)

	return cbor.NewEncoder(w).Encode(response)
}
