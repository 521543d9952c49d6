package httpmanager

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/arkade-os/tgpay/internal/core/domain"
	"github.com/arkade-os/tgpay/internal/core/ports"
)

const (
	validatePath = "/v1/validate"

	maxRetries = 5
)

type validateRequest struct {
	EventId       string `json:"event_id"`
	Payload       []byte `json:"payload"`
	SignatureData []byte `json:"signature_data"`
}

type errorResponse struct {
	Message string `json:"message"`
}

type client struct {
	url        string
	httpClient *http.Client
	baseDelay  time.Duration
}

// NewClient returns a manager service delegating envelope validation to a remote manager
// reachable at baseUrl.
func NewClient(baseUrl string) (ports.ManagerService, error) {
	if baseUrl == "" {
		return nil, fmt.Errorf("missing manager url")
	}
	if !strings.HasPrefix(baseUrl, "http://") && !strings.HasPrefix(baseUrl, "https://") {
		return nil, fmt.Errorf("invalid manager url %s: missing http(s) scheme", baseUrl)
	}
	return &client{
		url: strings.TrimSuffix(baseUrl, "/") + validatePath,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseDelay: 100 * time.Millisecond,
	}, nil
}

func (c *client) Validate(
	ctx context.Context, envelope domain.Envelope, signatureData []byte,
) error {
	payload, err := json.Marshal(validateRequest{
		EventId:       envelope.EventId,
		Payload:       envelope.Payload,
		SignatureData: signatureData,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	for attempt := range maxRetries {
		req, err := http.NewRequestWithContext(ctx, "POST", c.url, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if attempt < maxRetries-1 {
				if err := c.wait(ctx, attempt); err != nil {
					return err
				}
				continue
			}
			return fmt.Errorf("failed to reach manager after %d attempts: %w", maxRetries, err)
		}

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}

		if resp.StatusCode >= 500 && attempt < maxRetries-1 {
			if err := c.wait(ctx, attempt); err != nil {
				return err
			}
			continue
		}

		return fmt.Errorf(
			"manager rejected envelope %s with status %d: %s",
			envelope.EventId, resp.StatusCode, errorMessage(body),
		)
	}

	return fmt.Errorf("failed to reach manager after %d attempts", maxRetries)
}

func (c *client) wait(ctx context.Context, attempt int) error {
	delay := c.baseDelay * time.Duration(1<<uint(attempt))
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func errorMessage(body []byte) string {
	var resp errorResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Message != "" {
		return resp.Message
	}
	return strings.TrimSpace(string(body))
}
