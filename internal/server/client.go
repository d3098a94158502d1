package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/tubetune/internal/engine"
	"github.com/desertthunder/tubetune/internal/shared"
)

// Client talks to a running daemon's push channel over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the daemon listening on addr (host:port or a full URL).
func NewClient(addr string, client *http.Client) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	base := strings.TrimRight(addr, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{baseURL: base, httpClient: client}
}

// Push sends a configuration update and waits for the receipt.
func (c *Client) Push(ctx context.Context, u engine.ConfigUpdate) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to marshal update: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/config", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, status, err := c.do(req)
	if err != nil {
		return err
	}

	var reply Reply
	if err := json.Unmarshal(body, &reply); err != nil {
		return fmt.Errorf("%w: unreadable receipt (HTTP %d)", shared.ErrServiceUnavailable, status)
	}
	if reply.Status != replyOK.Status {
		return fmt.Errorf("%w: %s", shared.ErrInvalidInput, reply.Error)
	}
	return nil
}

// Status fetches the daemon's engine snapshot.
func (c *Client) Status(ctx context.Context) (engine.Snapshot, error) {
	var snap engine.Snapshot

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status", nil)
	if err != nil {
		return snap, fmt.Errorf("failed to create request: %w", err)
	}

	body, status, err := c.do(req)
	if err != nil {
		return snap, err
	}
	if status != http.StatusOK {
		return snap, fmt.Errorf("%w: HTTP %d", shared.ErrEngineNotRunning, status)
	}
	if err := json.Unmarshal(body, &snap); err != nil {
		return snap, fmt.Errorf("failed to decode status: %w", err)
	}
	return snap, nil
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}
