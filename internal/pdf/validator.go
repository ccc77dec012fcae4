package pdf

import (
	"fmt"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// Validator checks that a rendered byte stream is an openable PDF with
// at least one page. The render API occasionally returns a truncated
// document on timeout, which would otherwise only surface as a
// customer complaint.
type Validator struct {
	logger *zap.Logger
}

// NewValidator creates a new PDF validator
func NewValidator(logger *zap.Logger) *Validator {
	return &Validator{logger: logger}
}

// Validate returns an error if content is not a well-formed PDF
func (v *Validator) Validate(content []byte) error {
	if len(content) == 0 {
		return fmt.Errorf("empty document")
	}

	doc, err := fitz.NewFromMemory(content)
	if err != nil {
		return fmt.Errorf("document does not open as PDF: %w", err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	if pages < 1 {
		return fmt.Errorf("document has no pages")
	}

	v.logger.Debug("PDF validated", zap.Int("pages", pages))
	return nil
}
