package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-booklet-session/authmodel"
	"github.com/jrsteele09/go-booklet-session/internal/errors"
	"github.com/jrsteele09/go-booklet-session/internal/logging"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	RequestIDHeader = "X-Request-ID"

	refreshPath           = "/api/auth/refresh-token"
	loginPasswordPath     = "/api/auth/login-password"
	loginOTPPath          = "/api/auth/login-otp"
	sendOTPPath           = "/api/auth/send-otp"
	recoverAccountPath    = "/api/auth/recover-account"
	deactivateAccountPath = "/api/auth/deactivate-account"
	deleteAccountPath     = "/api/auth/delete-account"
	activatePath          = "/api/user/activate"

	maxErrorBody = 1 << 20
)

// Client talks to the Career Booklet auth service through the API gateway.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

type ClientOption func(*Client)

// WithTransport sets the round tripper that the instrumented transport wraps
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.httpClient.Transport = otelhttp.NewTransport(rt)
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

func New(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   10 * time.Second,
		},
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do sends one request. A non-2xx status yields *authmodel.APIError, an undecodable
// success body yields ErrInvalidResponse and anything else is a transport failure.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(err, "failed to encode request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to build request for %s", path)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrapf(err, "request to %s failed", path)
	}
	defer resp.Body.Close()

	logger := logging.From(ctx, c.logger)
	logger.Debug().
		Str("method", method).
		Str("path", path).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Msg("[authclient do] auth service responded")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(errors.ErrInvalidResponse, "failed to decode %s response: %s", path, err.Error())
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &authmodel.APIError{StatusCode: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return apiErr
	}
	var payload authmodel.ErrorResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		apiErr.Detail = strings.TrimSpace(string(raw))
		return apiErr
	}
	apiErr.Detail = payload.Text()
	apiErr.MFARequired = payload.IsMFARequired()
	return apiErr
}
