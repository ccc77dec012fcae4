package prestashop

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/judev-jbg/confirmation-invoice/internal/config"
	"github.com/judev-jbg/confirmation-invoice/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNormalizeOrders(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    []models.Order
		wantErr bool
	}{
		{
			name: "list of orders",
			body: `{"orders":[
				{"id":1001,"reference":"REF123","id_customer":55,"payment":"PayPal","current_state":4,"shipping_number":"TRK1"},
				{"id":"1002","reference":"REF456","id_customer":"56","payment":"Redsys","current_state":"4"}
			]}`,
			want: []models.Order{
				{ID: "1001", Reference: "REF123", CustomerRef: "55", Payment: "PayPal", CurrentState: "4", ShippingNumber: "TRK1"},
				{ID: "1002", Reference: "REF456", CustomerRef: "56", Payment: "Redsys", CurrentState: "4"},
			},
		},
		{
			name: "single order as object under orders",
			body: `{"orders":{"id":1001,"reference":"REF123","id_customer":55,"payment":"PayPal","current_state":4}}`,
			want: []models.Order{
				{ID: "1001", Reference: "REF123", CustomerRef: "55", Payment: "PayPal", CurrentState: "4"},
			},
		},
		{
			name: "singular order key",
			body: `{"order":{"id":1001,"reference":"REF123","id_customer":55,"payment":"PayPal","current_state":4}}`,
			want: []models.Order{
				{ID: "1001", Reference: "REF123", CustomerRef: "55", Payment: "PayPal", CurrentState: "4"},
			},
		},
		{
			name: "empty top-level array",
			body: `[]`,
			want: nil,
		},
		{
			name: "empty object",
			body: `{}`,
			want: nil,
		},
		{
			name: "null orders",
			body: `{"orders":null}`,
			want: nil,
		},
		{
			name: "null shipping number defaults to empty",
			body: `{"orders":[{"id":1001,"reference":"REF123","id_customer":55,"payment":"PayPal","current_state":4,"shipping_number":null}]}`,
			want: []models.Order{
				{ID: "1001", Reference: "REF123", CustomerRef: "55", Payment: "PayPal", CurrentState: "4"},
			},
		},
		{
			name:    "not json",
			body:    `<html>error</html>`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeOrders([]byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(config.PrestaShopConfig{
		APIURL:     srv.URL,
		Username:   "test-key",
		EmployeeID: 5,
		Payments:   []string{"PayPal", "Redsys"},
		Timeout:    5 * time.Second,
	}, zap.NewNop())
}

func TestGetOrdersPendingInvoice(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders", r.URL.Path)

		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "test-key", user)

		q := r.URL.Query()
		assert.Equal(t, "JSON", q.Get("output_format"))
		assert.Equal(t, "[PayPal|Redsys]", q.Get("filter[payment]"))
		assert.Equal(t, "[4]", q.Get("filter[current_state]"))
		assert.Equal(t, "full", q.Get("display"))

		w.Write([]byte(`{"orders":[{"id":1001,"reference":"REF123","id_customer":55,"payment":"PayPal","current_state":4}]}`))
	})

	orders, err := client.GetOrdersPendingInvoice(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "REF123", orders[0].Reference)
}

func TestGetOrdersPendingInvoiceServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	})

	_, err := client.GetOrdersPendingInvoice(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestGetCustomer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/customers/55", r.URL.Path)
		w.Write([]byte(`{"customer":{"id":55,"firstname":"Jane","lastname":"Roe","email":"jane@example.com"}}`))
	})

	customer, err := client.GetCustomer(context.Background(), "55")
	require.NoError(t, err)
	assert.Equal(t, "55", customer.ID)
	assert.Equal(t, "Jane", customer.FirstName)
	assert.Equal(t, "jane@example.com", customer.Email)
}

func TestGetCustomerListEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"customers":[{"id":"55","firstname":"Jane","lastname":"Roe","email":"jane@example.com"}]}`))
	})

	customer, err := client.GetCustomer(context.Background(), "55")
	require.NoError(t, err)
	assert.Equal(t, "55", customer.ID)
}

func TestGetCustomerEmptyRef(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := client.GetCustomer(context.Background(), "")
	assert.Error(t, err)
}

func TestUpdateOrderState(t *testing.T) {
	var received string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/order_histories", r.URL.Path)
		assert.Equal(t, "application/xml", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		received = string(body)

		w.WriteHeader(http.StatusCreated)
	})

	err := client.UpdateOrderState(context.Background(), "1001", models.StateInvoiceSent)
	require.NoError(t, err)

	assert.True(t, strings.Contains(received, "<id_order>1001</id_order>"))
	assert.True(t, strings.Contains(received, "<id_employee>5</id_employee>"))
	assert.True(t, strings.Contains(received, "<id_order_state>23</id_order_state>"))
}
