/**
 * @description
 * This package provides a client for the identity provider's token
 * introspection endpoint. It resolves a bearer access token to the user it
 * belongs to; an invalid or expired token is rejected by the provider with a
 * non-success status.
 *
 * @dependencies
 * - context, encoding/json, fmt, io, net/http, time: Standard Go libraries.
 */
package authclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Client is a client for the identity provider's auth API.
type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

// Identity is the resolved owner of a bearer token.
type Identity struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
}

// NewClient creates a new identity provider client.
func NewClient(baseURL, serviceKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		serviceKey: serviceKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// IntrospectToken resolves a bearer token to the identity it belongs to.
func (c *Client) IntrospectToken(ctx context.Context, token string) (*Identity, error) {
	url := fmt.Sprintf("%s/auth/v1/user", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", c.serviceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("Identity provider rejected token: status %d", resp.StatusCode)
		return nil, fmt.Errorf("identity provider error: status %d", resp.StatusCode)
	}

	var identity Identity
	if err := json.Unmarshal(respBody, &identity); err != nil {
		return nil, fmt.Errorf("failed to unmarshal introspection response: %w", err)
	}
	if identity.UserID == "" {
		return nil, fmt.Errorf("introspection response carried no user id")
	}
	return &identity, nil
}
