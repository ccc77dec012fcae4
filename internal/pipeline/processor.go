// Package pipeline implements the per-order invoice confirmation
// sequence and its run-level aggregation. Orders are processed one at
// a time; a failure inside one order stops that order only, and the
// batch carries on with the next.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/judev-jbg/confirmation-invoice/internal/models"
	"github.com/judev-jbg/confirmation-invoice/internal/notify"
	"go.uber.org/zap"
)

// OrderSource supplies eligible orders, customer lookups and the state
// advance mutation
type OrderSource interface {
	GetOrdersPendingInvoice(ctx context.Context) ([]models.Order, error)
	GetCustomer(ctx context.Context, ref string) (*models.Customer, error)
	UpdateOrderState(ctx context.Context, orderID string, stateID int) error
}

// ArtifactStore locates and retrieves invoice artifacts. A missing
// artifact is reported as (nil, nil), not as an error.
type ArtifactStore interface {
	SearchFileByName(ctx context.Context, name string) (*models.ArtifactFile, error)
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
}

// Renderer converts invoice data into a PDF
type Renderer interface {
	Generate(ctx context.Context, invoice *models.InvoiceData) ([]byte, error)
}

// Mailer composes and delivers the invoice email
type Mailer interface {
	SendInvoice(ctx context.Context, order models.Order, customer models.Customer, address models.AddressRecord, pdfContent []byte) error
}

// Ledger records one row per emailed invoice
type Ledger interface {
	AppendOrUpdate(ctx context.Context, entry models.LedgerEntry) error
}

// Recorder persists run history. All methods are best-effort: a
// recording failure never affects the run.
type Recorder interface {
	RunStarted(ctx context.Context, startedAt time.Time) (int64, error)
	OrderProcessed(ctx context.Context, runID int64, result OrderResult) error
	RunFinished(ctx context.Context, runID int64, outcome Outcome, failure string) error
}

// Processor drives one batch run over all eligible orders
type Processor struct {
	source   OrderSource
	store    ArtifactStore
	renderer Renderer
	mailer   Mailer
	ledger   Ledger
	notifier notify.Notifier
	recorder Recorder
	now      func() time.Time
	logger   *zap.Logger
}

// Option configures a Processor
type Option func(*Processor)

// WithRecorder attaches a run-history recorder
func WithRecorder(r Recorder) Option {
	return func(p *Processor) { p.recorder = r }
}

// WithClock overrides the time source (for testing)
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// NewProcessor creates a new pipeline processor
func NewProcessor(
	source OrderSource,
	store ArtifactStore,
	renderer Renderer,
	mailer Mailer,
	ledger Ledger,
	notifier notify.Notifier,
	logger *zap.Logger,
	opts ...Option,
) *Processor {
	p := &Processor{
		source:   source,
		store:    store,
		renderer: renderer,
		mailer:   mailer,
		ledger:   ledger,
		notifier: notifier,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one batch over all currently eligible orders. A failure
// fetching the batch is run-fatal and returns an error; per-order
// failures are absorbed into the outcome counters. Cancellation stops
// the batch between orders, leaving committed side effects in place.
func (p *Processor) Run(ctx context.Context) (Outcome, error) {
	var outcome Outcome

	p.logger.Info("Starting invoice confirmation run")
	runID := p.recordRunStarted(ctx)

	orders, err := p.source.GetOrdersPendingInvoice(ctx)
	if err != nil {
		p.logger.Error("Failed to fetch pending orders", zap.Error(err))
		p.notifier.Critical(ctx,
			"Error crítico en confirmación de facturas",
			fmt.Sprintf("El proceso falló: %v", err),
			map[string]string{"error": err.Error()})
		p.recordRunFinished(ctx, runID, outcome, err.Error())
		return outcome, fmt.Errorf("failed to fetch pending orders: %w", err)
	}

	if len(orders) == 0 {
		p.logger.Info("No orders pending invoice confirmation")
		p.notifier.Info(ctx,
			"Confirmación de Facturas",
			"No hay pedidos pendientes de confirmación de factura", nil)
		p.recordRunFinished(ctx, runID, outcome, "")
		return outcome, nil
	}

	p.logger.Info("Processing orders", zap.Int("count", len(orders)))

	for _, order := range orders {
		if ctx.Err() != nil {
			p.logger.Warn("Run interrupted, stopping between orders",
				zap.Int("processed", outcome.Processed))
			break
		}

		result := p.processOrder(ctx, order)
		outcome.record(result.Status)
		p.recordOrderProcessed(ctx, runID, result)

		if result.Status == OrderErrored {
			p.notifier.Warning(ctx,
				fmt.Sprintf("Error procesando pedido %s", order.Reference),
				result.Error,
				map[string]string{
					"order_id":        order.ID,
					"order_reference": order.Reference,
					"error":           result.Error,
				})
		}
	}

	p.logger.Info("Run completed",
		zap.Int("processed", outcome.Processed),
		zap.Int("succeeded", outcome.Succeeded),
		zap.Int("errored", outcome.Errored),
		zap.Int("skipped", outcome.Skipped))

	if outcome.HasErrors() {
		p.notifier.Warning(ctx,
			"Confirmación de Facturas - Completado con errores",
			outcome.Summary(), nil)
	} else {
		p.notifier.Success(ctx,
			"Confirmación de Facturas - Completado",
			outcome.Summary(), nil)
	}

	p.recordRunFinished(ctx, runID, outcome, "")
	return outcome, nil
}

// processOrder runs the ordered step sequence for one order. Each step
// has an explicit exit: artifact-not-present skips the order, a hard
// failure from download through delivery errors it, and state-advance
// or ledger failures after delivery only log a warning.
func (p *Processor) processOrder(ctx context.Context, order models.Order) OrderResult {
	log := p.logger.With(
		zap.String("order_id", order.ID),
		zap.String("reference", order.Reference))

	log.Info("Processing order")

	fileName := models.ArtifactName(order.Reference)

	// Locate artifact
	artifact, err := p.store.SearchFileByName(ctx, fileName)
	if err != nil {
		return p.errored(log, order, "locate_artifact", err)
	}
	if artifact == nil {
		log.Info("Invoice artifact not present yet, skipping",
			zap.String("file_name", fileName))
		return OrderResult{OrderID: order.ID, Reference: order.Reference, Status: OrderSkipped}
	}

	// Download artifact
	content, err := p.store.DownloadFile(ctx, artifact.ID)
	if err != nil {
		return p.errored(log, order, "download_artifact", err)
	}
	if len(content) == 0 {
		return p.errored(log, order, "download_artifact", fmt.Errorf("artifact %s is empty", artifact.Name))
	}

	// Parse artifact
	invoice, err := parseArtifact(content)
	if err != nil {
		return p.errored(log, order, "parse_artifact", err)
	}
	log.Info("Invoice artifact loaded", zap.String("invoice_number", invoice.DisplayNumber()))

	// Fetch customer
	if order.CustomerRef == "" {
		return p.errored(log, order, "fetch_customer", fmt.Errorf("order has no customer reference"))
	}
	customer, err := p.source.GetCustomer(ctx, order.CustomerRef)
	if err != nil {
		return p.errored(log, order, "fetch_customer", err)
	}

	// Build address record (pure derivation, cannot fail)
	address := models.NewAddressRecord(invoice)

	// Render PDF
	pdfContent, err := p.renderer.Generate(ctx, invoice)
	if err != nil {
		return p.errored(log, order, "render_pdf", err)
	}

	// Deliver email
	if err := p.mailer.SendInvoice(ctx, order, *customer, address, pdfContent); err != nil {
		return p.errored(log, order, "deliver_email", err)
	}

	// Advance order state. The customer already has their invoice, so
	// a failure here must not mark the order errored: reprocessing it
	// on the next run would send a duplicate email.
	if err := p.source.UpdateOrderState(ctx, order.ID, models.StateInvoiceSent); err != nil {
		log.Warn("Failed to update order state (non-critical)", zap.Error(err))
	}

	// Write ledger row. Same reasoning: delivery is the success
	// criterion, the ledger failure is reported but not fatal.
	entry := models.LedgerEntry{
		FileName:      fileName,
		InvoiceID:     invoice.ID,
		InvoiceNumber: invoice.DisplayNumber(),
		SentAt:        p.now(),
	}
	if err := p.ledger.AppendOrUpdate(ctx, entry); err != nil {
		log.Warn("Failed to write ledger row (non-critical)", zap.Error(err))
	}

	log.Info("Order processed successfully",
		zap.String("invoice_number", invoice.DisplayNumber()))
	return OrderResult{OrderID: order.ID, Reference: order.Reference, Status: OrderSucceeded}
}

// errored classifies a hard per-order failure
func (p *Processor) errored(log *zap.Logger, order models.Order, step string, err error) OrderResult {
	wrapped := fmt.Errorf("%s: %w", step, err)
	log.Error("Order processing failed",
		zap.String("step", step),
		zap.Error(err))
	return OrderResult{
		OrderID:   order.ID,
		Reference: order.Reference,
		Status:    OrderErrored,
		Error:     wrapped.Error(),
	}
}

// parseArtifact decodes the invoice artifact. The billing export wraps
// the invoice fields in a "data" envelope.
func parseArtifact(content []byte) (*models.InvoiceData, error) {
	var envelope struct {
		Data models.InvoiceData `json:"data"`
	}
	if err := json.Unmarshal(content, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode invoice artifact: %w", err)
	}
	return &envelope.Data, nil
}

func (p *Processor) recordRunStarted(ctx context.Context) int64 {
	if p.recorder == nil {
		return 0
	}
	runID, err := p.recorder.RunStarted(ctx, p.now())
	if err != nil {
		p.logger.Warn("Failed to record run start", zap.Error(err))
		return 0
	}
	return runID
}

func (p *Processor) recordOrderProcessed(ctx context.Context, runID int64, result OrderResult) {
	if p.recorder == nil || runID == 0 {
		return
	}
	if err := p.recorder.OrderProcessed(ctx, runID, result); err != nil {
		p.logger.Warn("Failed to record order result", zap.Error(err))
	}
}

func (p *Processor) recordRunFinished(ctx context.Context, runID int64, outcome Outcome, failure string) {
	if p.recorder == nil || runID == 0 {
		return
	}
	if err := p.recorder.RunFinished(ctx, runID, outcome, failure); err != nil {
		p.logger.Warn("Failed to record run completion", zap.Error(err))
	}
}
