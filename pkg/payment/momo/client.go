package momo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Client talks to the MTN MoMo collection API. Access tokens are cached and
// refreshed ahead of expiry; RefreshToken may also be driven by a scheduler.
type Client struct {
	config     Config
	httpClient *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates a new MoMo collection client with the given configuration
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
	}, nil
}

// GetConfig returns the client configuration
func (c *Client) GetConfig() Config {
	return c.config
}

// RequestToPay asks the payer's phone to approve a collection. referenceID
// becomes the X-Reference-Id header and is the only handle for later status
// polls, so callers must persist it before dispatching.
func (c *Client) RequestToPay(ctx context.Context, referenceID string, req RequestToPayRequest) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	url := c.config.BaseURL + "/collection/v1_0/requesttopay"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("X-Reference-Id", referenceID)
	httpReq.Header.Set("X-Target-Environment", c.config.TargetEnv)
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", c.config.SubscriptionKey)
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.CallbackURL != "" {
		httpReq.Header.Set("X-Callback-Url", c.config.CallbackURL)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	// the API acknowledges a dispatched request with 202 and an empty body
	if resp.StatusCode == http.StatusAccepted {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, string(body))
	case http.StatusBadRequest, http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrInvalidRequest, string(body))
	default:
		return fmt.Errorf("%w: status %d, body: %s", ErrPaymentFailed, resp.StatusCode, string(body))
	}
}

// GetPaymentStatus polls the collection status for a previously dispatched
// request-to-pay.
func (c *Client) GetPaymentStatus(ctx context.Context, referenceID string) (*RequestToPayStatus, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	url := c.config.BaseURL + "/collection/v1_0/requesttopay/" + referenceID
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("X-Target-Environment", c.config.TargetEnv)
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", c.config.SubscriptionKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrReferenceNotFound, referenceID)
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, string(body))
	default:
		return nil, fmt.Errorf("%w: status %d, body: %s", ErrPaymentFailed, resp.StatusCode, string(body))
	}

	var status RequestToPayStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status response: %w", err)
	}
	return &status, nil
}

// RefreshToken forces a new access token regardless of the cached expiry.
func (c *Client) RefreshToken(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshTokenLocked(ctx)
}

// token returns the cached access token, refreshing it when it is within a
// minute of expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken == "" || time.Until(c.tokenExpiry) < time.Minute {
		if err := c.refreshTokenLocked(ctx); err != nil {
			return "", err
		}
	}
	return c.accessToken, nil
}

func (c *Client) refreshTokenLocked(ctx context.Context) error {
	url := c.config.BaseURL + "/collection/token/"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create token request: %w", err)
	}
	httpReq.SetBasicAuth(c.config.APIUser, c.config.APIKey)
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", c.config.SubscriptionKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: token request failed with status %d, body: %s", ErrUnauthorized, resp.StatusCode, string(body))
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return fmt.Errorf("failed to unmarshal token response: %w", err)
	}

	c.accessToken = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return nil
}
