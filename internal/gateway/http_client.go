package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// HTTPConfig holds gateway connection configuration
type HTTPConfig struct {
	BaseURL string
	APIKey  string
}

// httpClient implements Client against the gateway's REST API
type httpClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

// NewHTTPClient creates a gateway client talking to the remote API
func NewHTTPClient(cfg HTTPConfig, logger *slog.Logger) Client {
	return &httpClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

type sendTextRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

type sendTextResponse struct {
	Key struct {
		ID string `json:"id"`
	} `json:"key"`
	Message string `json:"message"`
}

type connectionStateResponse struct {
	Instance struct {
		State string `json:"state"`
	} `json:"instance"`
}

// SendMessage posts one text message through the named instance
func (c *httpClient) SendMessage(ctx context.Context, instance, phone, content string) (*SendResult, error) {
	body, err := json.Marshal(sendTextRequest{Number: phone, Text: content})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal send request: %w", err)
	}

	url := fmt.Sprintf("%s/message/sendText/%s", c.baseURL, instance)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("gateway rejected send: status %d: %s", resp.StatusCode, detail)
	}

	var out sendTextResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode send response: %w", err)
	}

	c.logger.Debug("message accepted by gateway",
		slog.String("instance", instance),
		slog.String("gateway_message_id", out.Key.ID),
	)

	return &SendResult{MessageID: out.Key.ID}, nil
}

// InstanceStatus polls the gateway for the instance's connection state
func (c *httpClient) InstanceStatus(ctx context.Context, instance string) (InstanceState, error) {
	url := fmt.Sprintf("%s/instance/connectionState/%s", c.baseURL, instance)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return InstanceDisconnected, fmt.Errorf("failed to build status request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return InstanceDisconnected, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return InstanceDisconnected, fmt.Errorf("gateway status check failed: status %d", resp.StatusCode)
	}

	var out connectionStateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return InstanceDisconnected, fmt.Errorf("failed to decode status response: %w", err)
	}

	return mapInstanceState(out.Instance.State), nil
}
