// Package checkout is the HTTP client for the hosted-checkout payment API:
// connected accounts, onboarding links, checkout sessions and session
// retrieval. The success handler re-reads the session from here instead of
// trusting anything the browser sends back.
package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/decorent/decorent/internal/models"
)

// Client talks to the payment provider's REST API.
type Client struct {
	secretKey  string
	apiURL     string
	httpClient *http.Client
}

// NewClient returns a Client authenticated with the platform's secret key.
func NewClient(apiURL, secretKey string) *Client {
	return &Client{
		secretKey:  secretKey,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", resp.Status, models.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// CreateAccount creates a connected express account for a provider.
func (c *Client) CreateAccount(ctx context.Context, reqParams CreateAccountRequest) (*Account, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/accounts", reqParams)
	if err != nil {
		return nil, err
	}
	var account Account
	if err := c.do(req, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// CreateAccountLink returns the onboarding URL for a connected account.
func (c *Client) CreateAccountLink(ctx context.Context, reqParams CreateAccountLinkRequest) (*Link, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/account_links", reqParams)
	if err != nil {
		return nil, err
	}
	var link Link
	if err := c.do(req, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// CreateLoginLink returns a one-time express-dashboard login URL for an
// onboarded connected account.
func (c *Client) CreateLoginLink(ctx context.Context, accountID string) (*Link, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/accounts/"+accountID+"/login_links", nil)
	if err != nil {
		return nil, err
	}
	var link Link
	if err := c.do(req, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// CreateSession creates a hosted checkout session.
func (c *Client) CreateSession(ctx context.Context, reqParams CreateSessionRequest) (*Session, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/checkout/sessions", reqParams)
	if err != nil {
		return nil, err
	}
	var session Session
	if err := c.do(req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSession retrieves a checkout session by id.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/checkout/sessions/"+sessionID, nil)
	if err != nil {
		return nil, err
	}
	var session Session
	if err := c.do(req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}
