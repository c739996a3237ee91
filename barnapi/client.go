// Package barnapi is the client for the remote barn API, the service that
// owns barn records. The web UI never stores barns itself.
package barnapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"galpones/models"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// RequestIDHeader carries a per-request id so API logs can be matched
// with ours.
const RequestIDHeader = "X-Request-ID"

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// Secret signs service tokens. Requests go out unauthenticated when empty.
	Secret string
	// Observe, when set, is told about every round trip. Status is zero
	// when the request never got a response.
	Observe func(method string, status int, elapsed time.Duration)
}

// Client is a resty-backed implementation of the barn API contract.
type Client struct {
	http    *resty.Client
	tokens  *TokenSource
	observe func(method string, status int, elapsed time.Duration)
}

// APIError is returned when the barn API answers with a non-2xx status.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("barn api error: status=%d, message=%s", e.Status, e.Message)
}

// IsNotFound reports whether err is an APIError for an unknown barn.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// errorBody is the error payload of the barn API.
type errorBody struct {
	Error string `json:"error"`
}

// NewClient builds a barn API client.
func NewClient(opts Options) *Client {
	c := &Client{http: resty.New(), observe: opts.Observe}
	if opts.Secret != "" {
		c.tokens = NewTokenSource([]byte(opts.Secret))
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c.http.
		SetBaseURL(strings.TrimSuffix(opts.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	c.http.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		req.SetHeader(RequestIDHeader, uuid.New().String())
		if c.tokens == nil {
			return nil
		}
		token, err := c.tokens.Token()
		if err != nil {
			return serr.Wrap(err, "failed to obtain service token")
		}
		req.SetAuthToken(token)
		return nil
	})

	return c
}

// Create posts a new barn and returns the stored record.
func (c *Client) Create(ctx context.Context, draft models.BarnDraft) (models.Barn, error) {
	if err := draft.Validate(); err != nil {
		return models.Barn{}, serr.Wrap(err, "refusing to create invalid barn")
	}
	return c.send(ctx, http.MethodPost, "/barns", draft)
}

// Update replaces the barn identified by id with draft.
func (c *Client) Update(ctx context.Context, id int64, draft models.BarnDraft) (models.Barn, error) {
	if err := draft.Validate(); err != nil {
		return models.Barn{}, serr.Wrap(err, "refusing to update invalid barn", "barn_id", strconv.FormatInt(id, 10))
	}
	return c.send(ctx, http.MethodPut, barnPath(id), draft)
}

// Delete removes the barn identified by id and returns the removed record.
func (c *Client) Delete(ctx context.Context, id int64) (models.Barn, error) {
	return c.send(ctx, http.MethodDelete, barnPath(id), nil)
}

// List returns every barn known to the API.
func (c *Client) List(ctx context.Context) ([]models.Barn, error) {
	var barns []models.Barn
	if err := c.execute(ctx, http.MethodGet, "/barns", nil, &barns); err != nil {
		return nil, err
	}
	return barns, nil
}

func (c *Client) send(ctx context.Context, method, path string, body any) (models.Barn, error) {
	var barn models.Barn
	if err := c.execute(ctx, method, path, body, &barn); err != nil {
		return models.Barn{}, err
	}
	return barn, nil
}

// execute performs one request, decoding a 2xx body into result. Non-2xx
// answers come back as *APIError.
func (c *Client) execute(ctx context.Context, method, path string, body, result any) error {
	apiErr := new(errorBody)

	req := c.http.R().
		SetContext(ctx).
		SetResult(result).
		SetError(apiErr)
	if body != nil {
		req.SetBody(body)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	elapsed := time.Since(start)
	if err != nil {
		c.record(method, 0, elapsed)
		return serr.Wrap(err, "barn api request failed", "method", method, "path", path)
	}
	c.record(method, resp.StatusCode(), elapsed)

	logger.Debug("Barn API call",
		"method", method,
		"path", path,
		"status", resp.StatusCode(),
		"duration", elapsed,
	)

	if resp.IsError() {
		return newAPIError(resp, apiErr)
	}
	return nil
}

func (c *Client) record(method string, status int, elapsed time.Duration) {
	if c.observe != nil {
		c.observe(method, status, elapsed)
	}
}

func newAPIError(resp *resty.Response, body *errorBody) *APIError {
	message := body.Error
	if message == "" {
		message = http.StatusText(resp.StatusCode())
	}
	return &APIError{Status: resp.StatusCode(), Message: message}
}

func barnPath(id int64) string {
	return "/barns/" + strconv.FormatInt(id, 10)
}
