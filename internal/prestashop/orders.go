package prestashop

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/judev-jbg/confirmation-invoice/internal/models"
	"go.uber.org/zap"
)

// rawOrder mirrors the webservice order shape. Identifier fields come
// back as numbers or strings depending on the shop version, so they
// decode through json.Number.
type rawOrder struct {
	ID             json.Number `json:"id"`
	Reference      string      `json:"reference"`
	IDCustomer     json.Number `json:"id_customer"`
	Payment        string      `json:"payment"`
	CurrentState   json.Number `json:"current_state"`
	ShippingNumber *string     `json:"shipping_number"`
}

// GetOrdersPendingInvoice returns orders sitting in the "in
// preparation" state whose payment method is on the allow-list. An
// empty batch is a normal result, not an error.
func (c *Client) GetOrdersPendingInvoice(ctx context.Context) ([]models.Order, error) {
	params := url.Values{}
	params.Set("filter[payment]", "["+strings.Join(c.payments, "|")+"]")
	params.Set("filter[current_state]", fmt.Sprintf("[%d]", models.StateInPreparation))
	params.Set("display", "full")

	endpoint := c.baseURL + "/orders"
	c.logger.Info("Fetching pending orders", zap.String("url", endpoint))

	body, err := c.get(ctx, endpoint, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}

	orders, err := normalizeOrders(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse orders response: %w", err)
	}

	c.logger.Info("Found pending orders", zap.Int("count", len(orders)))
	return orders, nil
}

// normalizeOrders coerces the webservice response into one canonical
// slice. The API answers with {"orders": [...]}, {"orders": {...}} for
// a single match, {"order": {...}}, or an empty array/object when
// nothing matches.
func normalizeOrders(body []byte) ([]models.Order, error) {
	var envelope struct {
		Orders json.RawMessage `json:"orders"`
		Order  json.RawMessage `json:"order"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		// An empty filter result is a bare [] at top level
		var empty []json.RawMessage
		if json.Unmarshal(body, &empty) == nil && len(empty) == 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("unexpected response shape: %w", err)
	}

	raw := envelope.Orders
	if len(raw) == 0 {
		raw = envelope.Order
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var rawOrders []rawOrder
	if err := json.Unmarshal(raw, &rawOrders); err != nil {
		// Single result comes back as an object, not a list
		var single rawOrder
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, fmt.Errorf("orders field is neither list nor object: %w", err)
		}
		rawOrders = []rawOrder{single}
	}

	orders := make([]models.Order, 0, len(rawOrders))
	for _, ro := range rawOrders {
		orders = append(orders, ro.toOrder())
	}
	return orders, nil
}

func (ro rawOrder) toOrder() models.Order {
	shipping := ""
	if ro.ShippingNumber != nil {
		shipping = *ro.ShippingNumber
	}
	return models.Order{
		ID:             ro.ID.String(),
		Reference:      ro.Reference,
		CustomerRef:    ro.IDCustomer.String(),
		Payment:        ro.Payment,
		CurrentState:   ro.CurrentState.String(),
		ShippingNumber: shipping,
	}
}
