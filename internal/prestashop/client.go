package prestashop

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/judev-jbg/confirmation-invoice/internal/config"
	"go.uber.org/zap"
)

// Client talks to the PrestaShop webservice API. Authentication is
// HTTP basic with the API key as username and an empty password.
type Client struct {
	baseURL    string
	username   string
	password   string
	employeeID int
	payments   []string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new PrestaShop API client
func NewClient(cfg config.PrestaShopConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.APIURL, "/"),
		username:   cfg.Username,
		password:   cfg.Password,
		employeeID: cfg.EmployeeID,
		payments:   cfg.Payments,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// get performs an authenticated GET and returns the response body.
// JSON output is requested through the output_format parameter.
func (c *Client) get(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("output_format", "JSON")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.URL.RawQuery = params.Encode()
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 256))
	}

	return body, nil
}

// post performs an authenticated POST with the given content type
func (c *Client) post(ctx context.Context, rawURL, contentType string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(string(payload)))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 256))
	}

	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
