package ledger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/judev-jbg/confirmation-invoice/internal/models"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// WorkbookLedger keeps the sent-invoices ledger in a local xlsx
// workbook. Used on dev machines where no Google credentials with
// write access are configured; the column layout matches the Sheets
// backend.
type WorkbookLedger struct {
	path      string
	sheetName string
	logger    *zap.Logger
}

// NewWorkbookLedger creates a ledger backed by a local workbook. The
// file is created on first write.
func NewWorkbookLedger(path, sheetName string, logger *zap.Logger) (*WorkbookLedger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	logger.Info("Workbook ledger initialized",
		zap.String("path", path),
		zap.String("sheet_name", sheetName))

	return &WorkbookLedger{
		path:      path,
		sheetName: sheetName,
		logger:    logger,
	}, nil
}

// AppendOrUpdate writes one row keyed by the artifact file name
func (l *WorkbookLedger) AppendOrUpdate(_ context.Context, entry models.LedgerEntry) error {
	f, err := l.open()
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(l.sheetName)
	if err != nil {
		return fmt.Errorf("failed to read ledger sheet: %w", err)
	}

	target := 0
	for idx, row := range rows {
		if len(row) > 0 && row[0] == entry.FileName {
			target = idx + 1
			break
		}
	}
	if target == 0 {
		target = len(rows) + 1
	}

	for col, value := range rowValues(entry) {
		cell, err := excelize.CoordinatesToCellName(col+1, target)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetCellValue(l.sheetName, cell, value); err != nil {
			return fmt.Errorf("failed to set cell %s: %w", cell, err)
		}
	}

	if err := f.SaveAs(l.path); err != nil {
		return fmt.Errorf("failed to save ledger workbook: %w", err)
	}

	l.logger.Info("Ledger row written",
		zap.String("key", entry.FileName),
		zap.Int("row", target))
	return nil
}

// open returns the workbook, creating it with the ledger sheet when it
// does not exist yet
func (l *WorkbookLedger) open() (*excelize.File, error) {
	if _, err := os.Stat(l.path); os.IsNotExist(err) {
		f := excelize.NewFile()
		index, err := f.NewSheet(l.sheetName)
		if err != nil {
			return nil, fmt.Errorf("failed to create ledger sheet: %w", err)
		}
		f.SetActiveSheet(index)
		if l.sheetName != "Sheet1" {
			if err := f.DeleteSheet("Sheet1"); err != nil {
				return nil, fmt.Errorf("failed to drop default sheet: %w", err)
			}
		}
		return f, nil
	}

	f, err := excelize.OpenFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger workbook: %w", err)
	}
	return f, nil
}
