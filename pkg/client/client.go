// Package client is the remote entity store: it implements the collection
// interfaces over the CRM HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jordanlanch/salescrm/pkg/domain"
	"github.com/jordanlanch/salescrm/pkg/models"
	"github.com/jordanlanch/salescrm/pkg/store"
)

// Client talks to the CRM API with a bearer token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a client for the API at baseURL. A nil httpClient gets a
// client with a 30 second timeout.
func New(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		token:   token,
		http:    httpClient,
	}
}

// Collections returns the four collections served by the API.
func (c *Client) Collections() store.Collections {
	return store.Collections{
		Leads:      &Collection[models.Lead, models.LeadPatch]{c: c, path: store.LeadsName, singular: store.Leads.Singular},
		Deals:      &Collection[models.Deal, models.DealPatch]{c: c, path: store.DealsName, singular: store.Deals.Singular},
		Activities: &Collection[models.Activity, models.ActivityPatch]{c: c, path: store.ActivitiesName, singular: store.Activities.Singular},
		Events:     &Collection[models.CalendarEvent, models.EventPatch]{c: c, path: store.EventsName, singular: store.Events.Singular},
	}
}

// Stats fetches the dashboard counters computed by the server.
func (c *Client) Stats(ctx context.Context) (models.DashboardStats, error) {
	var stats models.DashboardStats
	err := c.do(ctx, http.MethodGet, "/dashboard/stats", nil, &stats, "Dashboard")
	return stats, err
}

// do sends one request and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any, resource string) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.NewNetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return statusError(resp, resource)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.NewNetworkError(fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

// statusError turns an API error response back into a domain error.
func statusError(resp *http.Response, resource string) error {
	var body models.ErrorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body)

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		msg := body.Message
		if msg == "" {
			msg = "Invalid request data"
		}
		return domain.NewValidationError(msg)
	case resp.StatusCode == http.StatusUnauthorized:
		return domain.NewUnauthorizedError()
	case resp.StatusCode == http.StatusNotFound:
		return domain.NewNotFoundError(resource)
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 502:
		return domain.NewNetworkError(fmt.Errorf("server returned %d %s", resp.StatusCode, body.Error))
	default:
		return domain.NewInternalError(fmt.Errorf("server returned %d %s", resp.StatusCode, body.Error))
	}
}
