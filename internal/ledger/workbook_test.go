package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/judev-jbg/confirmation-invoice/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func testEntry(fileName, number string, sentAt time.Time) models.LedgerEntry {
	return models.LedgerEntry{
		FileName:      fileName,
		InvoiceID:     "9034",
		InvoiceNumber: number,
		SentAt:        sentAt,
	}
}

func readRows(t *testing.T, path, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestWorkbookLedgerAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facturas.xlsx")
	l, err := NewWorkbookLedger(path, "Facturas", zap.NewNop())
	require.NoError(t, err)

	sentAt := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	require.NoError(t, l.AppendOrUpdate(context.Background(), testEntry("factura_REF123.json", "37-2025", sentAt)))
	require.NoError(t, l.AppendOrUpdate(context.Background(), testEntry("factura_REF456.json", "38-2025", sentAt)))

	rows := readRows(t, path, "Facturas")
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"factura_REF123.json", "9034", "37-2025", "2026-03-14 10:30"}, rows[0])
	assert.Equal(t, "factura_REF456.json", rows[1][0])
}

func TestWorkbookLedgerUpdateExistingKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facturas.xlsx")
	l, err := NewWorkbookLedger(path, "Facturas", zap.NewNop())
	require.NoError(t, err)

	first := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	second := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)

	require.NoError(t, l.AppendOrUpdate(context.Background(), testEntry("factura_REF123.json", "37-2025", first)))
	require.NoError(t, l.AppendOrUpdate(context.Background(), testEntry("factura_REF123.json", "37-2025", second)))

	// Re-sending the same invoice overwrites its row instead of adding one
	rows := readRows(t, path, "Facturas")
	require.Len(t, rows, 1)
	assert.Equal(t, "2026-03-15 09:00", rows[0][3])
}

func TestRowValues(t *testing.T) {
	sentAt := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	values := rowValues(testEntry("factura_REF123.json", "37-2025", sentAt))
	assert.Equal(t, []string{"factura_REF123.json", "9034", "37-2025", "2026-03-14 10:30"}, values)
}
