package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ArtifactFile is a located invoice artifact in the document store.
type ArtifactFile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	ModifiedTime string `json:"modifiedTime"`
	Size         int64  `json:"size,string,omitempty"`
}

// InvoiceLine is a single billed line inside the invoice artifact.
type InvoiceLine struct {
	Concept  string      `json:"concepto"`
	Quantity json.Number `json:"cantidad"`
	Price    json.Number `json:"precio"`
	Total    json.Number `json:"total"`
}

// InvoiceData holds the decoded invoice artifact. Field names follow
// the JSON produced by the billing export; numeric fields arrive both
// quoted and unquoted so they decode through json.Number.
type InvoiceData struct {
	ID       string        `json:"id"`
	Number   json.Number   `json:"num_factura"`
	Year     json.Number   `json:"año_factura"`
	Customer string        `json:"cliente"`
	Postcode string        `json:"cod_postal"`
	City     string        `json:"ciudad"`
	Total    json.Number   `json:"total"`
	Lines    []InvoiceLine `json:"lineas,omitempty"`
}

// DisplayNumber composes the customer-facing invoice number from the
// sequence number and year, e.g. "0042-2026".
func (d *InvoiceData) DisplayNumber() string {
	return fmt.Sprintf("%s-%s", d.Number.String(), d.Year.String())
}

// AddressRecord is the address block handed to the email template. Pure
// derivation from the invoice fields, built once per order.
type AddressRecord struct {
	Customer      string `json:"customer"`
	Postcode      string `json:"postcode"`
	City          string `json:"city"`
	InvoiceNumber string `json:"num_invoice"`
}

// NewAddressRecord derives the address record for an invoice.
func NewAddressRecord(d *InvoiceData) AddressRecord {
	return AddressRecord{
		Customer:      d.Customer,
		Postcode:      d.Postcode,
		City:          d.City,
		InvoiceNumber: d.DisplayNumber(),
	}
}

// LedgerEntry is one row of the sent-invoices ledger, keyed by the
// artifact file name.
type LedgerEntry struct {
	FileName      string
	InvoiceID     string
	InvoiceNumber string
	SentAt        time.Time
}

// ArtifactName derives the expected artifact file name for an order
// reference, e.g. "factura_REF123.json".
func ArtifactName(reference string) string {
	return fmt.Sprintf("factura_%s.json", reference)
}
