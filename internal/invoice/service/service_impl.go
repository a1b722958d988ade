package service

import (
	"context"
	"time"

	"github.com/smallbiznis/quickinvoice/internal/clock"
	"github.com/smallbiznis/quickinvoice/internal/config"
	"github.com/smallbiznis/quickinvoice/internal/invoice/render"
	obslogger "github.com/smallbiznis/quickinvoice/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/quickinvoice/internal/observability/metrics"
	"github.com/smallbiznis/quickinvoice/internal/observability/tracing"
	"github.com/smallbiznis/quickinvoice/internal/providers/pdf"
	"github.com/smallbiznis/quickinvoice/internal/wizard/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log      *zap.Logger
	Renderer render.Renderer
	PDF      pdf.Provider
	Defaults *config.InvoiceDefaultsHolder `optional:"true"`
	Metrics  *obsmetrics.Metrics           `optional:"true"`
	Clock    clock.Clock                   `optional:"true"`
}

// Service renders wizard snapshots into documents.
type Service struct {
	log      *zap.Logger
	renderer render.Renderer
	pdf      pdf.Provider
	defaults *config.InvoiceDefaultsHolder
	metrics  *obsmetrics.Metrics
	tracer   trace.Tracer
	clock    clock.Clock
}

func NewService(p ServiceParam) domain.Generator {
	return newService(p)
}

func newService(p ServiceParam) *Service {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		log:      log.Named("invoice.service"),
		renderer: p.Renderer,
		pdf:      p.PDF,
		defaults: p.Defaults,
		metrics:  p.Metrics,
		tracer:   otel.Tracer("quickinvoice/invoice"),
		clock:    clk,
	}
}

// Generate renders snapshot in the requested format. Failures come back as
// *domain.RenderError.
func (s *Service) Generate(ctx context.Context, snapshot domain.Snapshot, format domain.Format) (domain.Document, error) {
	ctx, span := s.tracer.Start(ctx, "invoice.generate", trace.WithAttributes(tracing.SafeAttributes(
		attribute.String("invoice.format", string(format)),
		attribute.Int("invoice.item_count", len(snapshot.Items)),
		attribute.String("invoice.currency", string(snapshot.Meta.Currency)),
	)...))
	defer span.End()

	start := time.Now()
	body, contentType, err := s.render(ctx, snapshot, format)
	s.metrics.RecordRenderDuration(ctx, string(format), time.Since(start))

	if err != nil {
		span.RecordError(tracing.SafeError(err))
		span.SetStatus(codes.Error, "render failed")
		s.metrics.RecordGenerate(ctx, string(format), obsmetrics.OutcomeRenderFailed)
		obslogger.WithContext(ctx, s.log).Error("invoice render failed",
			zap.String("format", string(format)),
			zap.String("invoice_number", snapshot.Meta.InvoiceNumber),
			zap.Error(err),
		)
		return domain.Document{}, &domain.RenderError{Err: err}
	}

	s.metrics.RecordGenerate(ctx, string(format), obsmetrics.OutcomeOK)
	obslogger.WithContext(ctx, s.log).Info("invoice rendered",
		zap.String("format", string(format)),
		zap.String("invoice_number", snapshot.Meta.InvoiceNumber),
		zap.Int("items", len(snapshot.Items)),
		zap.Int("bytes", len(body)),
	)

	return domain.Document{
		Filename:    Filename(snapshot, format),
		ContentType: contentType,
		Body:        body,
	}, nil
}

func (s *Service) accent() string {
	if s.defaults == nil {
		return config.DefaultInvoiceDefaults().AccentColor
	}
	return s.defaults.Get().AccentColor
}
