package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// StatusError is returned for any non-2xx backend response. The request layer
// does not retry; callers decide what a failure means.
type StatusError struct {
	StatusCode int
	Method     string
	Path       string
	Body       string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
}

// IsAuthError reports whether err represents an authentication failure
// (401-equivalent). The caller is expected to clear credentials and send the
// user back to login; the request layer only detects the condition.
func IsAuthError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized
}

// Client performs the network operations against the REST backend. The bearer
// token from the configured TokenSource is attached to every request when
// present. Failed requests surface as errors; the rejection reason is opaque
// to this layer and propagated upward.
type Client struct {
	baseURL       string
	http          *http.Client
	tokens        TokenSource
	onAuthFailure func()
	log           logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTokenSource sets the bearer token source.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithAuthFailureHandler registers a callback invoked after a 401 response,
// once the stored token has been cleared. Typically used to route to login.
func WithAuthFailureHandler(fn func()) Option {
	return func(c *Client) { c.onAuthFailure = fn }
}

// WithLogger sets the logger used for request logging.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient creates a Client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s payload: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			if Expired(token, time.Now()) {
				c.log.WithField("path", path).Warn("bearer token is expired")
			}
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       path,
			Body:       string(data),
		}
		if resp.StatusCode == http.StatusUnauthorized {
			if clearable, ok := c.tokens.(ClearableTokenSource); ok {
				clearable.Clear()
			}
			if c.onAuthFailure != nil {
				c.onAuthFailure()
			}
		}
		c.log.WithFields(logrus.Fields{
			"method": method,
			"path":   path,
			"status": resp.StatusCode,
		}).Warn("request failed")
		return nil, statusErr
	}

	c.log.WithFields(logrus.Fields{
		"method": method,
		"path":   path,
		"status": resp.StatusCode,
	}).Debug("request completed")

	return data, nil
}

// Get performs a GET request and decodes the JSON response into T.
func Get[T any](ctx context.Context, c *Client, path string) (T, error) {
	var out T
	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode GET %s response: %w", path, err)
	}
	return out, nil
}

// Post performs a POST request with a JSON payload and decodes the created
// entity (including any server-assigned id) into R.
func Post[P, R any](ctx context.Context, c *Client, path string, payload P) (R, error) {
	var out R
	data, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return out, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &out); err != nil {
			return out, fmt.Errorf("decode POST %s response: %w", path, err)
		}
	}
	return out, nil
}

// Patch performs a PATCH request with a partial JSON payload and decodes the
// updated entity into R.
func Patch[P, R any](ctx context.Context, c *Client, path string, payload P) (R, error) {
	var out R
	data, err := c.do(ctx, http.MethodPatch, path, payload)
	if err != nil {
		return out, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &out); err != nil {
			return out, fmt.Errorf("decode PATCH %s response: %w", path, err)
		}
	}
	return out, nil
}

// Delete performs a DELETE request. The response body, if any, is discarded.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.do(ctx, http.MethodDelete, path, nil)
	return err
}
