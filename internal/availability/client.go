// Package availability предоставляет клиент внешней системы пересчёта
// доступности меню. Пересчёт запрашивается после списания склада; его
// отказ логируется вызывающей стороной и не отменяет оформление заказа.
package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Client инкапсулирует HTTP-взаимодействие с системой пересчёта доступности.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type resyncResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// NewClient создаёт клиент пересчёта доступности по указанному адресу.
// Транзиентные сетевые ошибки ретраятся на уровне транспорта.
func NewClient(baseURL string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = 5 * time.Second
	rc.Logger = nil

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: rc.StandardClient(),
	}
}

// Recompute запрашивает пересчёт доступности меню указанного ларька.
func (c *Client) Recompute(ctx context.Context, stallID int64) error {
	if c == nil || c.baseURL == "" {
		return fmt.Errorf("availability client not configured")
	}

	base := c.baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	url := fmt.Sprintf("%s/api/stalls/%d/availability", base, stallID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result resyncResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if !result.Success {
		return fmt.Errorf("recompute failed: %s", result.Error)
	}
	return nil
}
