package orderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nvimer/plaet-kitchen/internal/adapter/logger"
	"github.com/nvimer/plaet-kitchen/internal/domain"
	"github.com/nvimer/plaet-kitchen/internal/interfaces"
)

// APIError is a non-2xx answer from the order service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("order service returned %d", e.StatusCode)
	}
	return fmt.Sprintf("order service returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to the order service kitchen endpoints. It implements
// interfaces.OrderSource.
type Client struct {
	baseURL    string
	terminal   string
	httpClient *http.Client
	logger     logger.Logger
}

// TerminalHeader names the board terminal that issued a request.
const TerminalHeader = "X-Terminal-Name"

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Nop(),
	}
}

// WithTerminal makes the client sign stage changes with the terminal name.
func (c *Client) WithTerminal(name string) *Client {
	c.terminal = name
	return c
}

func (c *Client) WithLogger(lgr logger.Logger) *Client {
	if lgr != nil {
		c.logger = lgr
	}
	return c
}

// FetchKitchenOrders lists the kitchen orders. An order the board cannot
// read is logged and left out so the rest of the kitchen stays visible.
func (c *Client) FetchKitchenOrders(ctx context.Context) ([]domain.Order, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("order service client not configured")
	}

	var payload interfaces.OrderListResource
	if err := c.do(ctx, http.MethodGet, "/kitchen/orders", nil, &payload); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(payload.Orders))
	for _, res := range payload.Orders {
		o, err := res.ToDomain()
		if err != nil {
			c.logger.Error("order_skipped", "Skipping unreadable order", "", map[string]interface{}{
				"order_id": res.ID,
				"stage":    res.Stage,
			}, err)
			continue
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (c *Client) UpdateOrderStage(ctx context.Context, orderID string, stage domain.Stage) (*domain.Order, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("order service client not configured")
	}
	if orderID == "" || !stage.Valid() {
		return nil, fmt.Errorf("missing stage transition information")
	}

	path := fmt.Sprintf("/kitchen/orders/%s/stage", url.PathEscape(orderID))
	var res interfaces.OrderResource
	if err := c.do(ctx, http.MethodPatch, path, interfaces.UpdateStageRequest{Stage: stage}, &res); err != nil {
		return nil, err
	}

	o, err := res.ToDomain()
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, dest interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.terminal != "" {
		req.Header.Set(TerminalHeader, c.terminal)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload)

	apiErr := &APIError{StatusCode: resp.StatusCode, Message: payload.Error}
	if resp.StatusCode == http.StatusNotFound {
		return errors.Join(domain.ErrOrderNotFound, apiErr)
	}
	return apiErr
}
