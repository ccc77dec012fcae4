package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/judev-jbg/confirmation-invoice/internal/models"
	"go.uber.org/zap"
)

// TemplateClient obtains the HTML body for a customer email from the
// template API.
type TemplateClient struct {
	apiURL     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewTemplateClient creates a new template API client
func NewTemplateClient(apiURL string, client *http.Client, logger *zap.Logger) *TemplateClient {
	return &TemplateClient{
		apiURL:     apiURL,
		httpClient: client,
		logger:     logger,
	}
}

// Generate returns the rendered HTML body for the given order context
func (t *TemplateClient) Generate(ctx context.Context, order models.Order, customer models.Customer, address models.AddressRecord) (string, error) {
	t.logger.Debug("Generating email template", zap.String("reference", order.Reference))

	payload, err := json.Marshal(map[string]any{
		"order":    order,
		"customer": customer,
		"address":  address,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal template payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build template request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("template request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read template response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("template API returned status %d: %s", resp.StatusCode, body)
	}

	var result struct {
		Body struct {
			HTML string `json:"html"`
		} `json:"body"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse template response: %w", err)
	}
	if result.Body.HTML == "" {
		return "", fmt.Errorf("template response missing body.html field")
	}

	t.logger.Info("Email template generated", zap.String("reference", order.Reference))
	return result.Body.HTML, nil
}
