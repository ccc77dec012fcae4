package models

// Order state identifiers in the PrestaShop workflow
const (
	StateInPreparation = 4  // "Preparación en curso"
	StateInvoiceSent   = 23 // "Factura enviada"
)

// AllowedPayments is the default payment-method allow-list. Orders paid
// by any other rail (cash on delivery, unconfirmed transfers) are not
// eligible for invoice confirmation.
var AllowedPayments = []string{
	"PayPal",
	"Redsys",
	"PayPal with fee",
	"Pagos por transferencia bancaria",
}

// Order is a PrestaShop order awaiting invoice confirmation. The
// pipeline treats it as read-only except for the state advance at the
// end of a successful run.
type Order struct {
	ID             string `json:"id"`
	Reference      string `json:"reference"`
	CustomerRef    string `json:"customer_ref"`
	Payment        string `json:"payment"`
	CurrentState   string `json:"current_state"`
	ShippingNumber string `json:"shipping_number"`
}

// Customer is the order's customer as returned by the customer lookup.
type Customer struct {
	ID        string `json:"id"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
}
