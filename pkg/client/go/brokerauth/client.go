// Package brokerauth is a small client for the broker authentication and
// authorization HTTP backend, in the style of the teacher's arasauth
// client package: a single Client type, one method per endpoint, a shared
// request helper. Unlike the teacher's client, requests are form-encoded
// and responses are plaintext, matching the broker's own wire contract —
// there is no JSON envelope to unmarshal here.
package brokerauth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to a running broker-auth server for integration tests.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new broker-auth client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Verdict is the parsed form of a plaintext "allow [tags...]" / "deny"
// response body.
type Verdict struct {
	Allow bool
	Tags  []string
}

func parseVerdict(body string) Verdict {
	body = strings.TrimSpace(body)
	if body == "deny" || body == "" {
		return Verdict{Allow: false}
	}
	fields := strings.Fields(body)
	if fields[0] != "allow" {
		return Verdict{Allow: false}
	}
	return Verdict{Allow: true, Tags: fields[1:]}
}

func (c *Client) post(ctx context.Context, path string, form url.Values) (Verdict, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return Verdict{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Verdict{}, fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Verdict{}, fmt.Errorf("reading response from %s: %w", path, err)
	}

	return parseVerdict(string(body)), nil
}

// CheckUser calls /user.
func (c *Client) CheckUser(ctx context.Context, username, password string) (Verdict, error) {
	return c.post(ctx, "/user", url.Values{
		"username": {username},
		"password": {password},
	})
}

// CheckVhost calls /vhost.
func (c *Client) CheckVhost(ctx context.Context, username, vhost, ip string) (Verdict, error) {
	return c.post(ctx, "/vhost", url.Values{
		"username": {username},
		"vhost":    {vhost},
		"ip":       {ip},
	})
}

// CheckResource calls /resource.
func (c *Client) CheckResource(ctx context.Context, username, vhost, kind, name, permission string) (Verdict, error) {
	return c.post(ctx, "/resource", url.Values{
		"username":   {username},
		"vhost":      {vhost},
		"resource":   {kind},
		"name":       {name},
		"permission": {permission},
	})
}

// CheckTopic calls /topic.
func (c *Client) CheckTopic(ctx context.Context, username, vhost, name, routingKey string) (Verdict, error) {
	return c.post(ctx, "/topic", url.Values{
		"username":    {username},
		"vhost":       {vhost},
		"resource":    {"topic"},
		"name":        {name},
		"permission":  {"read"},
		"routing_key": {routingKey},
	})
}
