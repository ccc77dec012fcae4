package pdf

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/judev-jbg/confirmation-invoice/internal/models"
	"go.uber.org/zap"
)

// Generator renders invoice data to a PDF through the external render
// API. The API answers with the document base64-encoded in body.pdf.
type Generator struct {
	apiURL     string
	httpClient *http.Client
	validator  *Validator
	logger     *zap.Logger
}

// Option configures a Generator
type Option func(*Generator)

// WithValidator makes the generator reject render results that do not
// open as a well-formed PDF
func WithValidator(v *Validator) Option {
	return func(g *Generator) { g.validator = v }
}

// NewGenerator creates a new PDF generator client
func NewGenerator(apiURL string, client *http.Client, logger *zap.Logger, opts ...Option) *Generator {
	g := &Generator{
		apiURL:     apiURL,
		httpClient: client,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate renders the invoice and returns the PDF bytes
func (g *Generator) Generate(ctx context.Context, invoice *models.InvoiceData) ([]byte, error) {
	g.logger.Debug("Generating invoice PDF", zap.String("invoice_number", invoice.DisplayNumber()))

	payload, err := json.Marshal(map[string]any{"data": invoice})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal invoice data: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read render response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("render API returned status %d: %s", resp.StatusCode, body)
	}

	var result struct {
		Body struct {
			PDF string `json:"pdf"`
		} `json:"body"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse render response: %w", err)
	}
	if result.Body.PDF == "" {
		return nil, fmt.Errorf("render response missing body.pdf field")
	}

	pdfBytes, err := base64.StdEncoding.DecodeString(result.Body.PDF)
	if err != nil {
		return nil, fmt.Errorf("failed to decode PDF content: %w", err)
	}

	if g.validator != nil {
		if err := g.validator.Validate(pdfBytes); err != nil {
			return nil, fmt.Errorf("rendered PDF failed validation: %w", err)
		}
	}

	g.logger.Info("PDF generated",
		zap.String("invoice_number", invoice.DisplayNumber()),
		zap.Int("bytes", len(pdfBytes)))

	return pdfBytes, nil
}
