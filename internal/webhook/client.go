package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// LinkingResult is the first element of the start-linking webhook response.
type LinkingResult struct {
	RedirectURL        string `json:"redirect_url"`
	ConnectedAccountID string `json:"connected_account_id"`
}

// Client calls the two automation webhooks: one starts the account-linking
// flow, the other notifies the downstream pipeline that an account linked.
type Client struct {
	httpClient      *http.Client
	startLinkingURL string
	notifyURL       string
}

// NewClient builds a webhook client with a bounded request timeout.
func NewClient(startLinkingURL, notifyURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient:      &http.Client{Timeout: timeout},
		startLinkingURL: startLinkingURL,
		notifyURL:       notifyURL,
	}
}

// StartLinking asks the provider to begin the OAuth-style flow for userID.
// The webhook answers with a JSON array whose first element carries the
// redirect URL and the provisional account id.
func (c *Client) StartLinking(ctx context.Context, userID string) (LinkingResult, error) {
	payload := map[string]string{"user_id": userID}
	body, err := c.post(ctx, c.startLinkingURL, payload)
	if err != nil {
		return LinkingResult{}, fmt.Errorf("start linking webhook: %w", err)
	}

	var results []LinkingResult
	if err := json.Unmarshal(body, &results); err != nil {
		return LinkingResult{}, fmt.Errorf("parse start linking response: %w", err)
	}
	if len(results) == 0 {
		return LinkingResult{}, fmt.Errorf("start linking response is empty")
	}
	return results[0], nil
}

// NotifyLinked reports a completed link to the downstream pipeline. Only
// success or failure matters; the response body is discarded.
func (c *Client) NotifyLinked(ctx context.Context, accountID, userID string) error {
	payload := map[string]string{
		"connected_account_id": accountID,
		"entity_id":            userID,
	}
	if _, err := c.post(ctx, c.notifyURL, payload); err != nil {
		return fmt.Errorf("notification webhook: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, url string, payload any) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return body, nil
}
