// Package billing adapts the platform billing REST API to the resolver's
// SubscriptionQuerier interface.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/storelens-ai/storelens/domains/entitlements/be/service"
)

const defaultRequestTimeout = 5 * time.Second

// Client queries the billing API's per-shop subscription listing.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a Client against the given billing API base URL.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("billing base url is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse billing base url: %w", err)
	}
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type subscriptionPayload struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Test   bool   `json:"test"`
}

type subscriptionsResponse struct {
	Subscriptions []subscriptionPayload `json:"subscriptions"`
}

// Subscriptions lists the shop's current subscriptions with status.
func (c *Client) Subscriptions(ctx context.Context, shopDomain string, cred service.Credential) ([]service.Subscription, error) {
	endpoint := fmt.Sprintf("%s/shops/%s/subscriptions", c.baseURL, url.PathEscape(shopDomain))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build subscriptions request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions for %q: %w", shopDomain, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("query subscriptions for %q: status %d: %s", shopDomain, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload subscriptionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode subscriptions for %q: %w", shopDomain, err)
	}

	subs := make([]service.Subscription, 0, len(payload.Subscriptions))
	for _, sub := range payload.Subscriptions {
		subs = append(subs, service.Subscription{
			ID:     sub.ID,
			Name:   sub.Name,
			Status: sub.Status,
			IsTest: sub.Test,
		})
	}
	return subs, nil
}

// Ensure interface compliance.
var _ service.SubscriptionQuerier = (*Client)(nil)
