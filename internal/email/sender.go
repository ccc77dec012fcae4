package email

import (
	"context"
	"fmt"
	"io"

	"github.com/judev-jbg/confirmation-invoice/internal/config"
	"github.com/judev-jbg/confirmation-invoice/internal/models"
	"github.com/judev-jbg/confirmation-invoice/pkg/utils"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// TemplateGenerator produces the HTML body for an invoice email
type TemplateGenerator interface {
	Generate(ctx context.Context, order models.Order, customer models.Customer, address models.AddressRecord) (string, error)
}

// MessageSender delivers a composed message. Satisfied by
// *gomail.Dialer, narrowed so tests can capture messages instead of
// opening SMTP connections.
type MessageSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Sender composes and delivers invoice emails to customers over SMTP.
// Outside production all mail is redirected to the test inbox; in
// production a blind copy goes to the configured BCC address.
type Sender struct {
	templates    TemplateGenerator
	dialer       MessageSender
	senderEmail  string
	bccEmail     string
	devTestEmail string
	production   bool
	logger       *zap.Logger
}

// NewSender creates a new invoice email sender
func NewSender(cfg config.EmailConfig, production bool, templates TemplateGenerator, logger *zap.Logger) *Sender {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SenderEmail, cfg.SenderPassword)

	return &Sender{
		templates:    templates,
		dialer:       dialer,
		senderEmail:  cfg.SenderEmail,
		bccEmail:     cfg.BCCEmail,
		devTestEmail: cfg.DevTestEmail,
		production:   production,
		logger:       logger,
	}
}

// NewSenderWithDialer creates a sender with an explicit message sender
func NewSenderWithDialer(cfg config.EmailConfig, production bool, templates TemplateGenerator, dialer MessageSender, logger *zap.Logger) *Sender {
	s := NewSender(cfg, production, templates, logger)
	s.dialer = dialer
	return s
}

// SendInvoice generates the HTML body and delivers the invoice email
// with the PDF attached
func (s *Sender) SendInvoice(ctx context.Context, order models.Order, customer models.Customer, address models.AddressRecord, pdfContent []byte) error {
	html, err := s.templates.Generate(ctx, order, customer, address)
	if err != nil {
		return fmt.Errorf("failed to generate email template: %w", err)
	}

	recipient := customer.Email
	if recipient == "" {
		return fmt.Errorf("customer %s has no email address", customer.ID)
	}
	if err := utils.ValidateEmail(recipient); err != nil {
		return fmt.Errorf("customer %s: %w", customer.ID, err)
	}

	if !s.production && s.devTestEmail != "" {
		s.logger.Info("Dev mode: redirecting email",
			zap.String("original_recipient", recipient),
			zap.String("redirect_to", s.devTestEmail))
		recipient = s.devTestEmail
	}

	subject := fmt.Sprintf("Factura de tu pedido %s", order.Reference)

	firstName := customer.FirstName
	if firstName == "" {
		firstName = "Cliente"
	}
	attachmentName := fmt.Sprintf("Factura %s - %s.pdf", address.InvoiceNumber, firstName)

	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", subject)
	if s.production && s.bccEmail != "" {
		m.SetHeader("Bcc", s.bccEmail)
	}
	m.SetBody("text/html", html)
	m.Attach(attachmentName,
		gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(pdfContent)
			return err
		}),
		gomail.SetHeader(map[string][]string{"Content-Type": {"application/pdf"}}),
	)

	s.logger.Info("Sending invoice email",
		zap.String("reference", order.Reference),
		zap.String("recipient", recipient),
		zap.String("attachment", attachmentName))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send invoice email: %w", err)
	}

	s.logger.Info("Invoice email sent",
		zap.String("reference", order.Reference),
		zap.String("invoice_number", address.InvoiceNumber))

	return nil
}
