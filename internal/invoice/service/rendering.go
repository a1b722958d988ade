package service

import (
	"context"
	"errors"
	"strings"

	"github.com/gosimple/slug"
	"github.com/smallbiznis/quickinvoice/internal/invoice/render"
	"github.com/smallbiznis/quickinvoice/internal/providers/pdf"
	"github.com/smallbiznis/quickinvoice/internal/wizard/domain"
)

const (
	contentTypePDF  = "application/pdf"
	contentTypeHTML = "text/html; charset=utf-8"
)

var (
	errRendererNotConfigured = errors.New("renderer_not_configured")
	errPDFNotConfigured      = errors.New("pdf_provider_not_configured")
	errEmptyDocument         = errors.New("empty_document")
)

func (s *Service) render(ctx context.Context, snapshot domain.Snapshot, format domain.Format) ([]byte, string, error) {
	switch format {
	case domain.FormatHTML:
		html, err := s.renderHTML(snapshot)
		if err != nil {
			return nil, "", err
		}
		return []byte(html), contentTypeHTML, nil
	case domain.FormatPDF, "":
		if s.pdf == nil {
			return nil, "", errPDFNotConfigured
		}
		body, err := s.pdf.RenderInvoice(ctx, snapshot, pdf.Options{Accent: s.accent()})
		if err != nil {
			return nil, "", err
		}
		if len(body) == 0 {
			return nil, "", errEmptyDocument
		}
		return body, contentTypePDF, nil
	default:
		return nil, "", domain.ErrInvalidFormat
	}
}

func (s *Service) renderHTML(snapshot domain.Snapshot) (string, error) {
	if s.renderer == nil {
		return "", errRendererNotConfigured
	}
	return s.renderer.RenderHTML(render.RenderInput{
		Snapshot:    snapshot,
		Accent:      s.accent(),
		GeneratedAt: s.clock.Now(),
	})
}

// Filename derives a download name such as "aix-000001-bob.pdf".
func Filename(snapshot domain.Snapshot, format domain.Format) string {
	base := slug.Make(strings.TrimSpace(snapshot.Meta.InvoiceNumber + " " + snapshot.Customer.Name))
	if base == "" {
		base = "invoice"
	}
	ext := string(format)
	if ext == "" {
		ext = string(domain.FormatPDF)
	}
	return base + "." + ext
}
