package pdf

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/judev-jbg/confirmation-invoice/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testInvoice() *models.InvoiceData {
	return &models.InvoiceData{
		ID:     "9034",
		Number: json.Number("37"),
		Year:   json.Number("2025"),
	}
}

func TestGenerate(t *testing.T) {
	pdfContent := []byte("%PDF-1.4 test document")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload struct {
			Data models.InvoiceData `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "37-2025", payload.Data.DisplayNumber())

		fmt.Fprintf(w, `{"body":{"pdf":"%s"}}`, base64.StdEncoding.EncodeToString(pdfContent))
	}))
	defer srv.Close()

	g := NewGenerator(srv.URL, srv.Client(), zap.NewNop())
	got, err := g.Generate(context.Background(), testInvoice())
	require.NoError(t, err)
	assert.Equal(t, pdfContent, got)
}

func TestGenerateMissingPDFField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"body":{}}`))
	}))
	defer srv.Close()

	g := NewGenerator(srv.URL, srv.Client(), zap.NewNop())
	_, err := g.Generate(context.Background(), testInvoice())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "body.pdf")
}

func TestGenerateInvalidBase64(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"body":{"pdf":"not base64!!"}}`))
	}))
	defer srv.Close()

	g := NewGenerator(srv.URL, srv.Client(), zap.NewNop())
	_, err := g.Generate(context.Background(), testInvoice())
	assert.Error(t, err)
}

func TestGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "render failed", http.StatusBadGateway)
	}))
	defer srv.Close()

	g := NewGenerator(srv.URL, srv.Client(), zap.NewNop())
	_, err := g.Generate(context.Background(), testInvoice())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
