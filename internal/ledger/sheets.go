package ledger

import (
	"context"
	"fmt"

	"github.com/judev-jbg/confirmation-invoice/internal/models"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsLedger keeps the sent-invoices ledger in a Google Sheets
// spreadsheet, columns A:D = file name, invoice id, invoice number,
// timestamp.
type SheetsLedger struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
	logger        *zap.Logger
}

// NewSheetsLedger creates a ledger backed by Google Sheets
func NewSheetsLedger(ctx context.Context, credentialsFile, spreadsheetID, sheetName string, logger *zap.Logger) (*SheetsLedger, error) {
	svc, err := sheets.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	logger.Info("Sheets ledger initialized",
		zap.String("spreadsheet_id", spreadsheetID),
		zap.String("sheet_name", sheetName))

	return &SheetsLedger{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger,
	}, nil
}

// AppendOrUpdate writes one row keyed by the artifact file name
func (l *SheetsLedger) AppendOrUpdate(ctx context.Context, entry models.LedgerEntry) error {
	row, err := l.findRowByKey(ctx, entry.FileName)
	if err != nil {
		return fmt.Errorf("failed to look up ledger key %q: %w", entry.FileName, err)
	}

	values := make([]any, 0, 4)
	for _, v := range rowValues(entry) {
		values = append(values, v)
	}
	body := &sheets.ValueRange{Values: [][]any{values}}

	if row > 0 {
		rangeName := fmt.Sprintf("%s!A%d:D%d", l.sheetName, row, row)
		_, err = l.svc.Spreadsheets.Values.Update(l.spreadsheetID, rangeName, body).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to update ledger row %d: %w", row, err)
		}
		l.logger.Info("Ledger row updated",
			zap.String("key", entry.FileName),
			zap.Int("row", row))
		return nil
	}

	rangeName := fmt.Sprintf("%s!A:D", l.sheetName)
	_, err = l.svc.Spreadsheets.Values.Append(l.spreadsheetID, rangeName, body).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append ledger row: %w", err)
	}

	l.logger.Info("Ledger row appended",
		zap.String("key", entry.FileName),
		zap.String("invoice_number", entry.InvoiceNumber))
	return nil
}

// findRowByKey scans the key column top to bottom and returns the
// 1-based row of the first match, or 0 when the key is absent
func (l *SheetsLedger) findRowByKey(ctx context.Context, key string) (int, error) {
	rangeName := fmt.Sprintf("%s!A:A", l.sheetName)

	result, err := l.svc.Spreadsheets.Values.Get(l.spreadsheetID, rangeName).
		Context(ctx).
		Do()
	if err != nil {
		return 0, err
	}

	for idx, row := range result.Values {
		if len(row) > 0 && fmt.Sprint(row[0]) == key {
			return idx + 1, nil
		}
	}
	return 0, nil
}
