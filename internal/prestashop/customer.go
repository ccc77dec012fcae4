package prestashop

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/judev-jbg/confirmation-invoice/internal/models"
	"go.uber.org/zap"
)

// GetCustomer resolves a customer reference to a customer record. The
// reference is either an absolute resource URL (xlink style) or a bare
// customer id.
func (c *Client) GetCustomer(ctx context.Context, ref string) (*models.Customer, error) {
	if ref == "" {
		return nil, fmt.Errorf("customer reference is empty")
	}

	endpoint := ref
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		endpoint = c.baseURL + "/customers/" + ref
	}

	c.logger.Debug("Fetching customer data", zap.String("url", endpoint))

	body, err := c.get(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch customer: %w", err)
	}

	var envelope struct {
		Customer  *rawCustomer  `json:"customer"`
		Customers []rawCustomer `json:"customers"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse customer response: %w", err)
	}

	raw := envelope.Customer
	if raw == nil && len(envelope.Customers) > 0 {
		raw = &envelope.Customers[0]
	}
	if raw == nil {
		return nil, fmt.Errorf("customer not found: %s", ref)
	}

	return &models.Customer{
		ID:        raw.ID.String(),
		FirstName: raw.FirstName,
		LastName:  raw.LastName,
		Email:     raw.Email,
	}, nil
}

type rawCustomer struct {
	ID        json.Number `json:"id"`
	FirstName string      `json:"firstname"`
	LastName  string      `json:"lastname"`
	Email     string      `json:"email"`
}
