package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	pkgerrors "github.com/absmach/fedround/pkg/errors"
	"github.com/absmach/fedround/pkg/fl"
	kithttp "github.com/go-kit/kit/transport/http"
)

const (
	OffsetKey = "offset"
	LimitKey  = "limit"
	DefOffset = 0
	DefLimit  = 100

	ContentType = "application/json"

	MaxLimitSize = 100
)

var (
	ErrValidation             = errors.New("request validation failed")
	ErrUnsupportedContentType = errors.New("unsupported content type")
	ErrInvalidQueryParams     = errors.New("invalid query parameters")
	ErrLimitSize              = errors.New("limit exceeds maximum size")
)

// Response is implemented by endpoint responses that control their status
// code and headers.
type Response interface {
	Code() int
	Headers() map[string]string
	Empty() bool
}

type errorRes struct {
	Error string `json:"error"`
}

func EncodeResponse(_ context.Context, w http.ResponseWriter, response any) error {
	if ar, ok := response.(Response); ok {
		for k, v := range ar.Headers() {
			w.Header().Set(k, v)
		}
		w.Header().Set("Content-Type", ContentType)
		w.WriteHeader(ar.Code())

		if ar.Empty() {
			return nil
		}
	}

	return json.NewEncoder(w).Encode(response)
}

func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(StatusCode(err))

	if err := json.NewEncoder(w).Encode(errorRes{Error: err.Error()}); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// StatusCode maps domain errors to HTTP status codes.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrUnsupportedContentType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrInvalidQueryParams),
		errors.Is(err, ErrLimitSize),
		errors.Is(err, pkgerrors.ErrEmptyKey),
		errors.Is(err, pkgerrors.ErrMalformed),
		errors.Is(err, pkgerrors.ErrInvalidData),
		errors.Is(err, fl.ErrConfiguration),
		errors.Is(err, fl.ErrShapeMismatch):
		return http.StatusBadRequest
	case errors.Is(err, pkgerrors.ErrNotFound),
		errors.Is(err, fl.ErrCheckpointNotFound):
		return http.StatusNotFound
	case errors.Is(err, pkgerrors.ErrEntityExists),
		errors.Is(err, pkgerrors.ErrRunInProgress):
		return http.StatusConflict
	case errors.Is(err, fl.ErrInsufficientParticipants):
		return http.StatusPreconditionFailed
	case errors.Is(err, fl.ErrParticipantTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// LoggingErrorEncoder logs server side failures before encoding them.
func LoggingErrorEncoder(logger *slog.Logger, enc kithttp.ErrorEncoder) kithttp.ErrorEncoder {
	return func(ctx context.Context, err error, w http.ResponseWriter) {
		if StatusCode(err) >= http.StatusInternalServerError {
			logger.Warn("request failed", "error", err)
		}
		enc(ctx, err, w)
	}
}

// ReadUintQuery reads a non-negative integer query parameter.
func ReadUintQuery(r *http.Request, key string, def uint64) (uint64, error) {
	vals := r.URL.Query()[key]
	if len(vals) > 1 {
		return 0, ErrInvalidQueryParams
	}
	if len(vals) == 0 || vals[0] == "" {
		return def, nil
	}

	val, err := strconv.ParseUint(vals[0], 10, 64)
	if err != nil {
		return 0, errors.Join(ErrInvalidQueryParams, err)
	}

	return val, nil
}

type healthRes struct {
	Status     string `json:"status"`
	Service    string `json:"service"`
	InstanceID string `json:"instance_id"`
	Time       string `json:"time"`
}

// Health serves the liveness probe of a service instance.
func Health(service, instanceID string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", ContentType)
		w.WriteHeader(http.StatusOK)

		_ = json.NewEncoder(w).Encode(healthRes{
			Status:     "pass",
			Service:    service,
			InstanceID: instanceID,
			Time:       time.Now().UTC().Format(time.RFC3339),
		})
	}
}
