// Package eventstore is the HTTP client for the Event Store REST API.
package eventstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/inkbook/studio/internal/domain/entities"
	"github.com/inkbook/studio/internal/infrastructure/logger"
	"github.com/inkbook/studio/internal/ports"
)

// StatusError is a non-2xx answer from the Event Store.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// Unwrap maps well-known statuses onto domain errors.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return entities.ErrEventNotFound
	case http.StatusConflict:
		return entities.ErrVersionConflict
	case http.StatusUnauthorized:
		return entities.ErrUnauthorized
	case http.StatusForbidden:
		return entities.ErrForbidden
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return entities.ErrValidation
	default:
		return nil
	}
}

// Client talks to one Event Store on behalf of one bearer token.
type Client struct {
	baseURL *url.URL
	token   string
	http    *http.Client
	logger  *logger.Logger
}

var _ ports.EventStore = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the client logger.
func WithLogger(l *logger.Logger) ClientOption {
	return func(c *Client) { c.logger = l.WithComponent("eventstore") }
}

// NewClient creates a client for the API rooted at baseURL, e.g.
// http://localhost:8080/api/v1.
func NewClient(baseURL, token string, timeout time.Duration, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse event store url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("event store url %q must be http or https", baseURL)
	}

	c := &Client{
		baseURL: u,
		token:   token,
		http:    &http.Client{Timeout: timeout},
		logger:  logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// List returns every event of a user.
func (c *Client) List(ctx context.Context, userID string) ([]entities.Event, error) {
	var events []entities.Event
	if err := c.do(ctx, http.MethodGet, "/events/"+url.PathEscape(userID), nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Create stores a new event and returns it with its assigned id.
func (c *Client) Create(ctx context.Context, req ports.CreateEventRequest) (entities.Event, error) {
	var created entities.Event
	if err := c.do(ctx, http.MethodPost, "/events", req, &created); err != nil {
		return entities.Event{}, err
	}
	return created, nil
}

// Update replaces the full record of an event. The event's Version must
// match the stored one.
func (c *Client) Update(ctx context.Context, e entities.Event) (entities.Event, error) {
	body := ports.UpdateEventRequest{
		Title:       e.Title,
		Description: e.Description,
		Date:        e.Date,
		Time:        e.Time,
		Color:       e.Color,
		Version:     e.Version,
	}
	var updated entities.Event
	if err := c.do(ctx, http.MethodPut, "/events/"+url.PathEscape(e.ID), body, &updated); err != nil {
		return entities.Event{}, err
	}
	return updated, nil
}

// Delete removes an event.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/events/"+url.PathEscape(id), nil, nil)
}

// ExportICS downloads the iCalendar feed of a user.
func (c *Client) ExportICS(ctx context.Context, userID string, w io.Writer) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/events/"+url.PathEscape(userID)+"/ics", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/calendar")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET ics: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(req, resp); err != nil {
		return err
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("read ics: %w", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		r = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, r)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warnw("Event store request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debugw("Event store request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if err := checkStatus(req, resp); err != nil {
		return err
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func checkStatus(req *http.Request, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	se := &StatusError{Method: req.Method, Path: req.URL.Path, StatusCode: resp.StatusCode}
	var payload ports.ErrorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Message != "" {
		se.Message = payload.Message
	} else {
		se.Message = strings.TrimSpace(string(raw))
	}
	return se
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
