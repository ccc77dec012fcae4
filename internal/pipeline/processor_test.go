package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/judev-jbg/confirmation-invoice/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSource struct {
	orders       []models.Order
	ordersErr    error
	customers    map[string]*models.Customer
	customerErr  error
	stateUpdates []string
	stateErr     error
}

func (f *fakeSource) GetOrdersPendingInvoice(ctx context.Context) ([]models.Order, error) {
	return f.orders, f.ordersErr
}

func (f *fakeSource) GetCustomer(ctx context.Context, ref string) (*models.Customer, error) {
	if f.customerErr != nil {
		return nil, f.customerErr
	}
	c, ok := f.customers[ref]
	if !ok {
		return nil, fmt.Errorf("customer %s not found", ref)
	}
	return c, nil
}

func (f *fakeSource) UpdateOrderState(ctx context.Context, orderID string, stateID int) error {
	f.stateUpdates = append(f.stateUpdates, fmt.Sprintf("%s:%d", orderID, stateID))
	return f.stateErr
}

type fakeStore struct {
	files     map[string]*models.ArtifactFile
	contents  map[string][]byte
	searchErr error
	downloads []string
}

func (f *fakeStore) SearchFileByName(ctx context.Context, name string) (*models.ArtifactFile, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.files[name], nil
}

func (f *fakeStore) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	f.downloads = append(f.downloads, fileID)
	content, ok := f.contents[fileID]
	if !ok {
		return nil, fmt.Errorf("file %s not found", fileID)
	}
	return content, nil
}

type fakeRenderer struct {
	pdf   []byte
	errOn int // 1-based call number that fails, 0 for never
	calls int
}

func (f *fakeRenderer) Generate(ctx context.Context, invoice *models.InvoiceData) ([]byte, error) {
	f.calls++
	if f.errOn != 0 && f.calls == f.errOn {
		return nil, errors.New("render service unavailable")
	}
	return f.pdf, nil
}

type sentMail struct {
	order   models.Order
	address models.AddressRecord
	pdf     []byte
}

type fakeMailer struct {
	sent   []sentMail
	err    error
	onSend func()
}

func (f *fakeMailer) SendInvoice(ctx context.Context, order models.Order, customer models.Customer, address models.AddressRecord, pdfContent []byte) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{order: order, address: address, pdf: pdfContent})
	if f.onSend != nil {
		f.onSend()
	}
	return nil
}

type fakeLedger struct {
	entries []models.LedgerEntry
	err     error
}

func (f *fakeLedger) AppendOrUpdate(ctx context.Context, entry models.LedgerEntry) error {
	f.entries = append(f.entries, entry)
	return f.err
}

type alert struct {
	severity string
	title    string
	message  string
	fields   map[string]string
}

type fakeNotifier struct {
	alerts []alert
}

func (f *fakeNotifier) Info(ctx context.Context, title, message string, fields map[string]string) {
	f.alerts = append(f.alerts, alert{"info", title, message, fields})
}

func (f *fakeNotifier) Success(ctx context.Context, title, message string, fields map[string]string) {
	f.alerts = append(f.alerts, alert{"success", title, message, fields})
}

func (f *fakeNotifier) Warning(ctx context.Context, title, message string, fields map[string]string) {
	f.alerts = append(f.alerts, alert{"warning", title, message, fields})
}

func (f *fakeNotifier) Critical(ctx context.Context, title, message string, fields map[string]string) {
	f.alerts = append(f.alerts, alert{"critical", title, message, fields})
}

func (f *fakeNotifier) bySeverity(severity string) []alert {
	var out []alert
	for _, a := range f.alerts {
		if a.severity == severity {
			out = append(out, a)
		}
	}
	return out
}

type fakeRecorder struct {
	runID    int64
	started  int
	results  []OrderResult
	finished []string
}

func (f *fakeRecorder) RunStarted(ctx context.Context, startedAt time.Time) (int64, error) {
	f.started++
	return f.runID, nil
}

func (f *fakeRecorder) OrderProcessed(ctx context.Context, runID int64, result OrderResult) error {
	f.results = append(f.results, result)
	return nil
}

func (f *fakeRecorder) RunFinished(ctx context.Context, runID int64, outcome Outcome, failure string) error {
	f.finished = append(f.finished, failure)
	return nil
}

func artifactJSON(id, number, year string) []byte {
	return []byte(fmt.Sprintf(`{"data":{"id":"%s","num_factura":"%s","año_factura":"%s","cliente":"Jane Roe","cod_postal":"28001","ciudad":"Madrid"}}`, id, number, year))
}

func testOrder(id, reference string) models.Order {
	return models.Order{
		ID:           id,
		Reference:    reference,
		CustomerRef:  "c-" + id,
		Payment:      "PayPal",
		CurrentState: "4",
	}
}

type fixture struct {
	source   *fakeSource
	store    *fakeStore
	renderer *fakeRenderer
	mailer   *fakeMailer
	ledger   *fakeLedger
	notifier *fakeNotifier
}

func newFixture(orders ...models.Order) *fixture {
	f := &fixture{
		source: &fakeSource{
			orders:    orders,
			customers: map[string]*models.Customer{},
		},
		store: &fakeStore{
			files:    map[string]*models.ArtifactFile{},
			contents: map[string][]byte{},
		},
		renderer: &fakeRenderer{pdf: []byte("%PDF-1.4 test")},
		mailer:   &fakeMailer{},
		ledger:   &fakeLedger{},
		notifier: &fakeNotifier{},
	}
	for _, o := range orders {
		f.source.customers[o.CustomerRef] = &models.Customer{
			ID:        o.CustomerRef,
			FirstName: "Jane",
			LastName:  "Roe",
			Email:     "jane@example.com",
		}
	}
	return f
}

// addArtifact registers a parseable invoice artifact for the order
func (f *fixture) addArtifact(reference, invoiceID, number, year string) {
	name := models.ArtifactName(reference)
	fileID := "drive-" + reference
	f.store.files[name] = &models.ArtifactFile{ID: fileID, Name: name}
	f.store.contents[fileID] = artifactJSON(invoiceID, number, year)
}

func (f *fixture) processor(opts ...Option) *Processor {
	return NewProcessor(f.source, f.store, f.renderer, f.mailer, f.ledger, f.notifier, zap.NewNop(), opts...)
}

func TestRunFullSuccess(t *testing.T) {
	f := newFixture(testOrder("1001", "REF123"))
	f.addArtifact("REF123", "9034", "37", "2025")

	sentAt := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	p := f.processor(WithClock(func() time.Time { return sentAt }))

	outcome, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Outcome{Processed: 1, Succeeded: 1, Errored: 0, Skipped: 0}, outcome)

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "REF123", f.mailer.sent[0].order.Reference)
	assert.Equal(t, "37-2025", f.mailer.sent[0].address.InvoiceNumber)
	assert.Equal(t, f.renderer.pdf, f.mailer.sent[0].pdf)

	require.Len(t, f.source.stateUpdates, 1)
	assert.Equal(t, fmt.Sprintf("1001:%d", models.StateInvoiceSent), f.source.stateUpdates[0])

	require.Len(t, f.ledger.entries, 1)
	entry := f.ledger.entries[0]
	assert.Equal(t, "factura_REF123.json", entry.FileName)
	assert.Equal(t, "9034", entry.InvoiceID)
	assert.Equal(t, "37-2025", entry.InvoiceNumber)
	assert.Equal(t, sentAt, entry.SentAt)

	success := f.notifier.bySeverity("success")
	require.Len(t, success, 1)
	assert.Contains(t, success[0].message, "Procesados: 1 | Exitosos: 1 | Errores: 0 | Omitidos: 0")
	assert.Empty(t, f.notifier.bySeverity("warning"))
}

func TestRunArtifactMissingSkipsOrder(t *testing.T) {
	f := newFixture(testOrder("1001", "REF123"))
	// no artifact registered

	outcome, err := f.processor().Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Outcome{Processed: 1, Skipped: 1}, outcome)
	assert.Empty(t, f.store.downloads)
	assert.Empty(t, f.mailer.sent)
	assert.Empty(t, f.ledger.entries)
	assert.Empty(t, f.source.stateUpdates)

	// A not-yet-exported invoice is routine, it must not raise warnings
	assert.Empty(t, f.notifier.bySeverity("warning"))
	assert.Len(t, f.notifier.bySeverity("success"), 1)
}

func TestRunCustomerFetchFailure(t *testing.T) {
	f := newFixture(testOrder("1001", "REF123"))
	f.addArtifact("REF123", "9034", "37", "2025")
	f.source.customerErr = errors.New("api timeout")

	outcome, err := f.processor().Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Outcome{Processed: 1, Errored: 1}, outcome)
	assert.Empty(t, f.mailer.sent)
	assert.Empty(t, f.ledger.entries)
	assert.Empty(t, f.source.stateUpdates)

	warnings := f.notifier.bySeverity("warning")
	require.Len(t, warnings, 2) // per-order alert plus run summary
	assert.Contains(t, warnings[0].title, "REF123")
	assert.Contains(t, warnings[0].message, "fetch_customer")
	assert.Equal(t, "1001", warnings[0].fields["order_id"])
}

func TestRunPartialFailureContinuesBatch(t *testing.T) {
	f := newFixture(testOrder("1001", "REF123"), testOrder("1002", "REF456"))
	f.addArtifact("REF123", "9034", "37", "2025")
	f.addArtifact("REF456", "9035", "38", "2025")
	f.renderer.errOn = 2

	outcome, err := f.processor().Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Outcome{Processed: 2, Succeeded: 1, Errored: 1, Skipped: 0}, outcome)

	// First order went all the way through
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "REF123", f.mailer.sent[0].order.Reference)

	warnings := f.notifier.bySeverity("warning")
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0].title, "REF456")
	assert.Contains(t, warnings[1].message, "Procesados: 2 | Exitosos: 1 | Errores: 1 | Omitidos: 0")
	assert.Empty(t, f.notifier.bySeverity("success"))
}

func TestRunLedgerFailureStillSucceeds(t *testing.T) {
	f := newFixture(testOrder("1001", "REF123"))
	f.addArtifact("REF123", "9034", "37", "2025")
	f.ledger.err = errors.New("quota exceeded")

	outcome, err := f.processor().Run(context.Background())
	require.NoError(t, err)

	// The customer got their invoice, so the order counts as succeeded
	// even though the ledger write failed
	assert.Equal(t, Outcome{Processed: 1, Succeeded: 1}, outcome)
	assert.Len(t, f.ledger.entries, 1)
	assert.Len(t, f.source.stateUpdates, 1)
	assert.Empty(t, f.notifier.bySeverity("warning"))
}

func TestRunStateAdvanceFailureStillSucceeds(t *testing.T) {
	f := newFixture(testOrder("1001", "REF123"))
	f.addArtifact("REF123", "9034", "37", "2025")
	f.source.stateErr = errors.New("webservice error")

	outcome, err := f.processor().Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Outcome{Processed: 1, Succeeded: 1}, outcome)
	// The ledger write still runs after a state-advance failure
	assert.Len(t, f.ledger.entries, 1)
}

func TestRunEmptyArtifactErrors(t *testing.T) {
	f := newFixture(testOrder("1001", "REF123"))
	name := models.ArtifactName("REF123")
	f.store.files[name] = &models.ArtifactFile{ID: "drive-REF123", Name: name}
	f.store.contents["drive-REF123"] = []byte{}

	outcome, err := f.processor().Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Outcome{Processed: 1, Errored: 1}, outcome)
	assert.Empty(t, f.mailer.sent)
}

func TestRunBatchFetchFailureIsFatal(t *testing.T) {
	f := newFixture()
	f.source.ordersErr = errors.New("connection refused")

	outcome, err := f.processor().Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, Outcome{}, outcome)

	critical := f.notifier.bySeverity("critical")
	require.Len(t, critical, 1)
	assert.Contains(t, critical[0].message, "connection refused")
}

func TestRunEmptyBatch(t *testing.T) {
	f := newFixture()

	outcome, err := f.processor().Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Outcome{}, outcome)
	require.Len(t, f.notifier.alerts, 1)
	assert.Equal(t, "info", f.notifier.alerts[0].severity)
}

func TestRunCancellationStopsBetweenOrders(t *testing.T) {
	f := newFixture(
		testOrder("1001", "REF123"),
		testOrder("1002", "REF456"),
		testOrder("1003", "REF789"),
	)
	f.addArtifact("REF123", "9034", "37", "2025")
	f.addArtifact("REF456", "9035", "38", "2025")
	f.addArtifact("REF789", "9036", "39", "2025")

	ctx, cancel := context.WithCancel(context.Background())
	f.mailer.onSend = cancel

	outcome, err := f.processor().Run(ctx)
	require.NoError(t, err)

	// First order completed, the rest never started
	assert.Equal(t, Outcome{Processed: 1, Succeeded: 1}, outcome)
	assert.Len(t, f.mailer.sent, 1)
}

func TestRunRecordsHistory(t *testing.T) {
	f := newFixture(testOrder("1001", "REF123"), testOrder("1002", "REF456"))
	f.addArtifact("REF123", "9034", "37", "2025")
	// REF456 has no artifact, gets skipped

	rec := &fakeRecorder{runID: 42}
	outcome, err := f.processor(WithRecorder(rec)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Outcome{Processed: 2, Succeeded: 1, Skipped: 1}, outcome)
	assert.Equal(t, 1, rec.started)
	require.Len(t, rec.results, 2)
	assert.Equal(t, OrderSucceeded, rec.results[0].Status)
	assert.Equal(t, OrderSkipped, rec.results[1].Status)
	require.Len(t, rec.finished, 1)
	assert.Empty(t, rec.finished[0])
}

func TestParseArtifact(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{
			name:    "quoted numbers",
			content: `{"data":{"id":"1","num_factura":"37","año_factura":"2025"}}`,
			want:    "37-2025",
		},
		{
			name:    "unquoted numbers",
			content: `{"data":{"id":"1","num_factura":37,"año_factura":2025}}`,
			want:    "37-2025",
		},
		{
			name:    "not json",
			content: `factura`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invoice, err := parseArtifact([]byte(tt.content))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, invoice.DisplayNumber())
		})
	}
}
