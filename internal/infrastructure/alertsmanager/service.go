package alertsmanager

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/arkade-os/tgpay/internal/core/ports"
)

const (
	serviceName = "tgpay"
	severity    = "info"

	maxRetries = 5
)

type Alert struct {
	Labels      map[string]string `json:"labels"`
	Annotations map[string]string `json:"annotations"`
	StartsAt    time.Time         `json:"startsAt"`
}

type service struct {
	baseUrl    string
	httpClient *http.Client
	baseDelay  time.Duration
}

func NewService(alertManagerURL string) ports.Alerts {
	return &service{
		baseUrl: alertManagerURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseDelay: 100 * time.Millisecond,
	}
}

func (s *service) Publish(ctx context.Context, topic ports.Topic, message any) error {
	labels := map[string]string{
		"alertname": string(topic),
		"service":   serviceName,
		"severity":  severity,
	}

	desc := ""
	annotations := map[string]string{}
	switch topic {
	case ports.UserRegistered:
		annotations["firing_title"] = "👤 User Registered"
		m, ok := message.(ports.UserRegisteredAlert)
		if !ok {
			return fmt.Errorf("invalid message type: %T", message)
		}
		desc = formatUserRegisteredAlert(m)
		labels["tg_handle"] = m.Handle
	case ports.PaymentSent:
		annotations["firing_title"] = "💸 Payment Sent"
		m, ok := message.(ports.PaymentSentAlert)
		if !ok {
			return fmt.Errorf("invalid message type: %T", message)
		}
		desc = formatPaymentSentAlert(m)
		labels["from_tg"] = m.FromHandle
		labels["to_tg"] = m.ToHandle
		labels["denom"] = m.Denom
	default:
		annotations["firing_title"] = fmt.Sprintf("🔔 %s", topic)
		desc = formatGenericAlert(map[string]any{"event": message})
	}

	annotations["description"] = desc
	alert := Alert{
		Labels:      labels,
		Annotations: annotations,
		StartsAt:    time.Now(),
	}

	if err := s.sendAlert(ctx, alert); err != nil {
		return fmt.Errorf("failed to send alert to AlertManager: %w", err)
	}

	return nil
}

func (s *service) sendAlert(ctx context.Context, alerts Alert) error {
	payload, err := json.Marshal([]Alert{alerts})
	if err != nil {
		return fmt.Errorf("failed to marshal alerts: %w", err)
	}

	for attempt := range maxRetries {
		req, err := http.NewRequestWithContext(ctx, "POST", s.baseUrl, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			// Network error - retry with backoff
			if attempt < maxRetries-1 {
				if err := s.wait(ctx, attempt); err != nil {
					return err
				}
				continue
			}
			return fmt.Errorf("failed to send alert after %d attempts: %w", maxRetries, err)
		}
		_ = resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}

		// Retry on 5xx (server errors), but not on 4xx (client errors)
		if resp.StatusCode >= 500 && attempt < maxRetries-1 {
			if err := s.wait(ctx, attempt); err != nil {
				return err
			}
			continue
		}

		return fmt.Errorf(
			"failed to send alert to AlertManager with status %d after %d attempts",
			resp.StatusCode, attempt+1,
		)
	}

	return fmt.Errorf("failed to send alert after %d attempts", maxRetries)
}

// exponential: 100ms, 200ms, 400ms, 800ms
func (s *service) wait(ctx context.Context, attempt int) error {
	delay := s.baseDelay * time.Duration(1<<uint(attempt))
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func formatUserRegisteredAlert(data ports.UserRegisteredAlert) string {
	lines := []string{
		fmt.Sprintf("*Telegram:* @%s", data.Handle),
		fmt.Sprintf("*Address:* `%s`", data.Address),
	}
	return strings.Join(lines, "\n")
}

func formatPaymentSentAlert(data ports.PaymentSentAlert) string {
	lines := make([]string, 0)
	lines = append(lines, fmt.Sprintf("*Amount:* %s %s", data.Amount, data.Denom))
	lines = append(lines, "\n*From:*")
	lines = append(lines, fmt.Sprintf("• Telegram: @%s", data.FromHandle))
	lines = append(lines, fmt.Sprintf("• Address: `%s`", data.FromAddress))
	lines = append(lines, "\n*To:*")
	lines = append(lines, fmt.Sprintf("• Telegram: @%s", data.ToHandle))
	if data.Escrowed {
		lines = append(lines, "• Held in escrow until the recipient registers")
	} else {
		lines = append(lines, fmt.Sprintf("• Address: `%s`", data.ToAddress))
	}
	return strings.Join(lines, "\n")
}

func formatGenericAlert(data map[string]any) string {
	lines := make([]string, 0)
	for key, value := range data {
		lines = append(lines, fmt.Sprintf("• %s: %v", key, value))
	}
	return strings.Join(lines, "\n")
}
