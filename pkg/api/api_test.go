package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/absmach/fedround/pkg/api"
	pkgerrors "github.com/absmach/fedround/pkg/errors"
	"github.com/absmach/fedround/pkg/fl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createdRes struct {
	ID string `json:"id"`
}

func (createdRes) Code() int                  { return http.StatusCreated }
func (createdRes) Headers() map[string]string { return map[string]string{"Location": "/runs/1"} }
func (createdRes) Empty() bool                { return false }

func TestEncodeResponse(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	require.NoError(t, api.EncodeResponse(context.Background(), rec, createdRes{ID: "1"}))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/runs/1", rec.Header().Get("Location"))
	assert.Equal(t, api.ContentType, rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":"1"}`, rec.Body.String())
}

func TestEncodeError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		code int
	}{
		{err: pkgerrors.ErrNotFound, code: http.StatusNotFound},
		{err: fmt.Errorf("load: %w", fl.ErrCheckpointNotFound), code: http.StatusNotFound},
		{err: errors.Join(api.ErrValidation, api.ErrUnsupportedContentType), code: http.StatusUnsupportedMediaType},
		{err: errors.Join(api.ErrValidation, errors.New("bad json")), code: http.StatusBadRequest},
		{err: pkgerrors.ErrRunInProgress, code: http.StatusConflict},
		{err: pkgerrors.ErrEntityExists, code: http.StatusConflict},
		{err: fl.ErrInsufficientParticipants, code: http.StatusPreconditionFailed},
		{err: errors.New("boom"), code: http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			api.EncodeError(context.Background(), tc.err, rec)
			assert.Equal(t, tc.code, rec.Code)

			var body map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tc.err.Error(), body["error"])
		})
	}
}

func TestReadUintQuery(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc  string
		query string
		want  uint64
		err   error
	}{
		{desc: "default", query: "", want: 10},
		{desc: "value", query: "?limit=5", want: 5},
		{desc: "negative", query: "?limit=-1", err: api.ErrInvalidQueryParams},
		{desc: "repeated", query: "?limit=1&limit=2", err: api.ErrInvalidQueryParams},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodGet, "/runs"+tc.query, nil)
			got, err := api.ReadUintQuery(r, api.LimitKey, 10)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	api.Health("coordinator", "abc")(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "coordinator", body["service"])
	assert.Equal(t, "abc", body["instance_id"])
}
