// Package ledger records which invoices have been emailed. One row per
// invoice, keyed by the artifact file name: a write updates the first
// row with a matching key or appends a new one, so repeating a write
// never creates duplicates.
package ledger

import (
	"context"

	"github.com/judev-jbg/confirmation-invoice/internal/models"
)

// timestampLayout is the human-readable format used in the ledger
const timestampLayout = "2006-01-02 15:04"

// Ledger appends or updates one sent-invoice row by key
type Ledger interface {
	AppendOrUpdate(ctx context.Context, entry models.LedgerEntry) error
}

// rowValues flattens an entry into the ledger's four columns
func rowValues(entry models.LedgerEntry) []string {
	return []string{
		entry.FileName,
		entry.InvoiceID,
		entry.InvoiceNumber,
		entry.SentAt.Format(timestampLayout),
	}
}
