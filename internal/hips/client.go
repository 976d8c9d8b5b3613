package hips

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Client calls the Hips REST API. Outbound requests carry a bounded timeout
// and run behind a circuit breaker so a degraded provider surfaces as a
// checkout notice instead of a hung page.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*OrderResponse]
	logger  *zap.SugaredLogger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.SugaredLogger) *Client {
	breaker := gobreaker.NewCircuitBreaker[*OrderResponse](gobreaker.Settings{
		Name:        "hips-orders",
		MaxRequests: 3,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: breaker,
		logger:  logger,
	}
}

// CreateOrder posts the payment request to /orders. A response carrying an
// error field is returned as a *ProviderError.
func (c *Client) CreateOrder(ctx context.Context, request *PaymentRequest) (*OrderResponse, error) {
	return c.breaker.Execute(func() (*OrderResponse, error) {
		return c.createOrder(ctx, request)
	})
}

func (c *Client) createOrder(ctx context.Context, request *PaymentRequest) (*OrderResponse, error) {
	body, err := json.Marshal(request)

	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))

	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)

	if err != nil {
		return nil, fmt.Errorf("hips orders request failed: %w", err)
	}

	defer resp.Body.Close()

	var orderResponse OrderResponse

	if err := json.NewDecoder(resp.Body).Decode(&orderResponse); err != nil {
		return nil, fmt.Errorf("failed to decode hips response (status %d): %w", resp.StatusCode, err)
	}

	if orderResponse.Error != nil {
		c.logger.Warnw("hips api error", "status", resp.StatusCode, "message", orderResponse.Error.Message)
		return nil, &ProviderError{Message: orderResponse.Error.Message}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("hips orders request returned status %d", resp.StatusCode)
	}

	return &orderResponse, nil
}
