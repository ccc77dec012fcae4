package prestashop

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// orderHistoryXML is the write payload for state changes. The
// webservice only accepts XML on mutations.
const orderHistoryXML = `<?xml version="1.0" encoding="UTF-8"?>
<prestashop xmlns:xlink="http://www.w3.org/1999/xlink">
    <order_history>
        <id_order>%s</id_order>
        <id_employee>%d</id_employee>
        <id_order_state>%d</id_order_state>
    </order_history>
</prestashop>`

// UpdateOrderState records a state-history entry moving the order to
// the given state. Repeated calls add history entries, so the
// operation is idempotent from the pipeline's perspective.
func (c *Client) UpdateOrderState(ctx context.Context, orderID string, stateID int) error {
	payload := fmt.Sprintf(orderHistoryXML, orderID, c.employeeID, stateID)

	c.logger.Info("Updating order state",
		zap.String("order_id", orderID),
		zap.Int("state_id", stateID))

	if _, err := c.post(ctx, c.baseURL+"/order_histories", "application/xml", []byte(payload)); err != nil {
		return fmt.Errorf("failed to update order state: %w", err)
	}

	c.logger.Info("Order state updated", zap.String("order_id", orderID))
	return nil
}
