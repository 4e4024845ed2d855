package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// RevalidatePath is the side-channel endpoint that asks the server-rendering
// layer to regenerate a named page.
const RevalidatePath = "/api/revalidate"

// Revalidator triggers regeneration of server-rendered pages after mutations
// that affect them. The endpoint is guarded by a shared secret passed as a
// query parameter.
type Revalidator struct {
	host   string
	secret string
	http   *http.Client
	log    logrus.FieldLogger
}

// NewRevalidator creates a Revalidator for the rendering host. A nil
// Revalidator is valid and revalidates nothing, for deployments without
// server-rendered pages.
func NewRevalidator(host, secret string, opts ...RevalidatorOption) *Revalidator {
	r := &Revalidator{
		host:   host,
		secret: secret,
		http:   &http.Client{Timeout: 30 * time.Second},
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RevalidatorOption configures a Revalidator.
type RevalidatorOption func(*Revalidator)

// WithRevalidatorHTTPClient replaces the underlying http.Client.
func WithRevalidatorHTTPClient(hc *http.Client) RevalidatorOption {
	return func(r *Revalidator) { r.http = hc }
}

// WithRevalidatorLogger sets the logger.
func WithRevalidatorLogger(log logrus.FieldLogger) RevalidatorOption {
	return func(r *Revalidator) { r.log = log }
}

// Revalidate requests regeneration of each named route. It returns the first
// failure but keeps going through the remaining routes; a page that fails to
// regenerate keeps serving its last good render.
func (r *Revalidator) Revalidate(ctx context.Context, routes []string) error {
	if r == nil {
		return nil
	}

	var firstErr error
	for _, route := range routes {
		if err := r.revalidateOne(ctx, route); err != nil {
			r.log.WithField("route", route).WithError(err).Warn("revalidation failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (r *Revalidator) revalidateOne(ctx context.Context, route string) error {
	query := url.Values{}
	query.Set("path", route)
	query.Set("secret", r.secret)
	target := r.host + RevalidatePath + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build revalidate request for %s: %w", route, err)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return fmt.Errorf("revalidate %s: %w", route, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			StatusCode: resp.StatusCode,
			Method:     http.MethodGet,
			Path:       RevalidatePath,
			Body:       route,
		}
	}
	return nil
}
