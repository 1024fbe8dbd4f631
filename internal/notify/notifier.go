package notify

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

// Notifier delivers a short text message to a phone number.
type Notifier interface {
	Send(ctx context.Context, phone, message string) error
}

// New returns an HTTP gateway notifier when a gateway URL is configured, and
// the logging fallback otherwise. The fallback is an accepted degraded mode:
// the code is still visible to an operator through the logs.
func New(gatewayURL, apiKey string, timeout time.Duration) Notifier {
	if gatewayURL == "" {
		slog.Warn("sms gateway not configured, falling back to log notifier")
		return LogNotifier{}
	}
	return &HTTPNotifier{
		url:    gatewayURL,
		apiKey: apiKey,
		httpc:  &http.Client{Timeout: timeout},
	}
}

// LogNotifier surfaces the message through the service log instead of SMS.
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, phone, message string) error {
	slog.Warn("sms delivery skipped (no gateway configured)", "phone", phone, "message", message)
	return nil
}

// HTTPNotifier posts the message to a JSON SMS gateway.
type HTTPNotifier struct {
	url    string
	apiKey string
	httpc  *http.Client
}

type smsPayload struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

func (n *HTTPNotifier) Send(ctx context.Context, phone, message string) error {
	payload, err := json.Marshal(smsPayload{To: phone, Body: message})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if n.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+n.apiKey)
	}

	resp, err := n.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms gateway status=%d body=%s", resp.StatusCode, slurp)
	}
	return nil
}
