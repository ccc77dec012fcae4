package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/judev-jbg/confirmation-invoice/internal/config"
	"github.com/judev-jbg/confirmation-invoice/internal/drive"
	"github.com/judev-jbg/confirmation-invoice/internal/email"
	"github.com/judev-jbg/confirmation-invoice/internal/ledger"
	"github.com/judev-jbg/confirmation-invoice/internal/notify"
	"github.com/judev-jbg/confirmation-invoice/internal/pdf"
	"github.com/judev-jbg/confirmation-invoice/internal/pipeline"
	"github.com/judev-jbg/confirmation-invoice/internal/prestashop"
	"go.uber.org/zap"
)

// Container wires the pipeline's external collaborators from
// configuration. Both entrypoints build one and hand the processor to
// their run loop.
type Container struct {
	PrestaShop *prestashop.Client
	Drive      *drive.Service
	Renderer   *pdf.Generator
	Mailer     *email.Sender
	Ledger     ledger.Ledger
	Notifier   notify.Notifier
	Processor  *pipeline.Processor

	logger *zap.Logger
}

// NewContainer initializes all collaborators and the pipeline
// processor. opts are forwarded to the processor (run recorder, clock).
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...pipeline.Option) (*Container, error) {
	c := &Container{logger: logger}

	c.PrestaShop = prestashop.NewClient(cfg.PrestaShop, logger)

	driveSvc, err := drive.NewService(ctx, cfg.Google.CredentialsFile, cfg.Google.DriveFolderID, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize drive service: %w", err)
	}
	c.Drive = driveSvc

	var pdfOpts []pdf.Option
	if cfg.PDF.Validate {
		pdfOpts = append(pdfOpts, pdf.WithValidator(pdf.NewValidator(logger)))
	}
	c.Renderer = pdf.NewGenerator(cfg.PDF.APIURL, &http.Client{Timeout: cfg.PDF.Timeout}, logger, pdfOpts...)

	templates := email.NewTemplateClient(cfg.Email.TemplateAPIURL, &http.Client{Timeout: cfg.Email.Timeout}, logger)
	c.Mailer = email.NewSender(cfg.Email, cfg.IsProduction(), templates, logger)

	switch cfg.Ledger.Backend {
	case "workbook":
		c.Ledger, err = ledger.NewWorkbookLedger(cfg.Ledger.WorkbookPath, cfg.Google.SheetName, logger)
	default:
		c.Ledger, err = ledger.NewSheetsLedger(ctx, cfg.Google.CredentialsFile, cfg.Google.SheetID, cfg.Google.SheetName, logger)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ledger: %w", err)
	}

	if cfg.Lark.AppID != "" {
		c.Notifier = notify.NewLarkNotifier(cfg.Lark, logger)
	} else {
		logger.Info("Lark alerting not configured, alerts go to the log only")
		c.Notifier = notify.NewLogNotifier(logger)
	}

	c.Processor = pipeline.NewProcessor(
		c.PrestaShop,
		c.Drive,
		c.Renderer,
		c.Mailer,
		c.Ledger,
		c.Notifier,
		logger,
		opts...,
	)

	logger.Info("Service container initialized",
		zap.String("environment", cfg.Environment),
		zap.String("ledger_backend", cfg.Ledger.Backend))

	return c, nil
}
