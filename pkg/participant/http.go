package participant

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/absmach/fedround/pkg/fl"
	"github.com/fxamacker/cbor/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	ContentTypeCBOR = "application/cbor"

	fitEndpoint      = "/fit"
	evaluateEndpoint = "/evaluate"

	maxErrorBody = 4096
)

var _ Proxy = (*httpProxy)(nil)

type httpProxy struct {
	id      string
	baseURL string
	client  *http.Client
}

// NewHTTPProxy reaches a participant served by MakeHandler at baseURL.
// timeout bounds a single request; a zero timeout relies on ctx alone.
func NewHTTPProxy(id, baseURL string, timeout time.Duration) Proxy {
	return &httpProxy{
		id:      id,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		},
	}
}

func (p *httpProxy) ID() string {
	return p.id
}

func (p *httpProxy) Fit(ctx context.Context, ins FitIns) (fl.FitResult, error) {
	var res fl.FitResult
	if err := p.call(ctx, fitEndpoint, ins, &res); err != nil {
		return fl.FitResult{}, err
	}
	res.ParticipantID = p.id

	return res, nil
}

func (p *httpProxy) Evaluate(ctx context.Context, ins EvaluateIns) (fl.EvaluateResult, error) {
	var res fl.EvaluateResult
	if err := p.call(ctx, evaluateEndpoint, ins, &res); err != nil {
		return fl.EvaluateResult{}, err
	}
	res.ParticipantID = p.id

	return res, nil
}

func (p *httpProxy) call(ctx context.Context, endpoint string, in, out any) error {
	data, err := cbor.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", ContentTypeCBOR)
	req.Header.Set("Accept", ContentTypeCBOR)

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return fmt.Errorf("%w: %s: %w", fl.ErrParticipantTimeout, p.id, err)
		}

		return fmt.Errorf("%w: %s: %w", fl.ErrParticipantFailure, p.id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return fmt.Errorf("%w: %s: unexpected response code %d: %s",
			fl.ErrParticipantFailure, p.id, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := cbor.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: decode %s response: %w", fl.ErrParticipantFailure, p.id, endpoint, err)
	}

	return nil
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }

	return errors.As(err, &te) && te.Timeout()
}
