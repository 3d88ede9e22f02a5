package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go"
)

// Gateway is the payment reconciliation adapter. The engine depends on the
// capture/refund result, never on provider internals; the capture outcome
// arrives later through the payment webhook.
type Gateway interface {
	// Capture initiates a charge and returns the provider transaction id.
	Capture(ctx context.Context, amount float64, currency string, metadata map[string]string) (string, error)
	// Refund compensates a confirmation that arrived after expiry.
	Refund(ctx context.Context, transactionID string) (string, error)
	Provider() string
}

type HTTPGatewayConfig struct {
	BaseURL  string
	APIKey   string
	Name     string
	Attempts uint
	Delay    time.Duration
}

// HTTPGateway talks to the payment provider over its REST API.
type HTTPGateway struct {
	cfg    HTTPGatewayConfig
	client *http.Client
}

func NewHTTPGateway(cfg HTTPGatewayConfig) *HTTPGateway {
	if cfg.Attempts == 0 {
		cfg.Attempts = 3
	}
	if cfg.Delay == 0 {
		cfg.Delay = 200 * time.Millisecond
	}
	return &HTTPGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *HTTPGateway) Provider() string {
	return g.cfg.Name
}

type captureRequest struct {
	Amount   float64           `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type captureResponse struct {
	TransactionID string `json:"transaction_id"`
}

type refundResponse struct {
	RefundID string `json:"refund_id"`
}

func (g *HTTPGateway) Capture(ctx context.Context, amount float64, currency string, metadata map[string]string) (string, error) {
	body, err := json.Marshal(captureRequest{Amount: amount, Currency: currency, Metadata: metadata})
	if err != nil {
		return "", err
	}

	var out captureResponse
	err = retry.Do(
		func() error {
			return g.post(ctx, "/v1/captures", body, &out)
		},
		retry.Attempts(g.cfg.Attempts),
		retry.Delay(g.cfg.Delay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", err
	}
	if out.TransactionID == "" {
		return "", fmt.Errorf("gateway returned empty transaction id")
	}
	return out.TransactionID, nil
}

func (g *HTTPGateway) Refund(ctx context.Context, transactionID string) (string, error) {
	var out refundResponse
	err := retry.Do(
		func() error {
			return g.post(ctx, "/v1/refunds/"+transactionID, nil, &out)
		},
		retry.Attempts(g.cfg.Attempts),
		retry.Delay(g.cfg.Delay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", err
	}
	return out.RefundID, nil
}

func (g *HTTPGateway) post(ctx context.Context, path string, body []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return retry.Unrecoverable(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("gateway %s: status %d", path, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		// Client errors never become valid on retry.
		return retry.Unrecoverable(fmt.Errorf("gateway %s: status %d: %s", path, resp.StatusCode, string(raw)))
	}

	return json.Unmarshal(raw, out)
}
