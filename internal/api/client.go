package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"echolog/internal/domain"
	"echolog/internal/logger"
)

// retryWindow bounds total retry time for one logical request. Only
// transport errors and 5xx responses are retried.
const retryWindow = 8 * time.Second

// Client is the EchoLog backend REST client. The session is passed
// explicitly on every call; the client holds no ambient auth state.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
	retry   time.Duration
}

// Option customizes client construction.
type Option func(*Client)

// WithRetryWindow overrides the total transient-retry budget.
func WithRetryWindow(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.retry = d
		}
	}
}

// New builds a backend client for the given base URL.
func New(baseURL string, httpClient *http.Client, log *logger.Logger, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = logger.Discard()
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		log:     log,
		retry:   retryWindow,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// do performs one backend request with bearer auth and transient
// retries, decoding a JSON response into out when non-nil.
func (c *Client) do(ctx context.Context, session domain.Session, method, path, contentType string, payload []byte, out any) error {
	operation := func() error {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return backoff.Permanent(err)
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		if session.Token != "" {
			req.Header.Set("Authorization", "Bearer "+session.Token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			// transport failure, retryable
			return err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return backoff.Permanent(ErrUnauthorized)
		case resp.StatusCode >= 500:
			return &Error{
				Kind:       KindServerError,
				StatusCode: resp.StatusCode,
				Message:    "backend request failed",
				Body:       truncateBody(string(respBody)),
			}
		case resp.StatusCode >= 400:
			return backoff.Permanent(&Error{
				Kind:       KindInvalidRequest,
				StatusCode: resp.StatusCode,
				Message:    "backend rejected the request",
				Body:       truncateBody(string(respBody)),
			})
		}

		if out != nil {
			if err := json.Unmarshal(respBody, out); err != nil {
				return backoff.Permanent(fmt.Errorf("decode %s %s response: %w", method, path, err))
			}
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.retry

	err := backoff.Retry(operation, backoff.WithContext(bo, ctx))
	if err == nil {
		return nil
	}

	var apiErr *Error
	if errors.Is(err, ErrUnauthorized) || errors.As(err, &apiErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	c.log.WithError(err).WithField("path", path).Warn("backend unreachable")
	return &Error{
		Kind:    KindNetworkUnavailable,
		Message: "backend is unreachable",
		Err:     err,
	}
}

// getJSON issues an authenticated GET and decodes the response.
func (c *Client) getJSON(ctx context.Context, session domain.Session, path string, out any) error {
	return c.do(ctx, session, http.MethodGet, path, "", nil, out)
}

// postJSON issues an authenticated JSON POST and decodes the response.
func (c *Client) postJSON(ctx context.Context, session domain.Session, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return c.do(ctx, session, http.MethodPost, path, "application/json", payload, out)
}

// truncateBody bounds error payloads carried in typed errors.
func truncateBody(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= 4096 {
		return s
	}
	return s[:4096] + "..."
}
