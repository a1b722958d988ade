package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

const (
	OutcomeOK           = "ok"
	OutcomeBlocked      = "blocked"
	OutcomeRenderFailed = "render_failed"
)

// Metrics exposes wizard instruments.
type Metrics struct {
	sessionsCreated metric.Int64Counter
	transitions     metric.Int64Counter
	generations     metric.Int64Counter
	renderDuration  metric.Float64Histogram
	rateLimited     metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New creates the wizard instruments on provider.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "quickinvoice"
	}
	meter := provider.Meter(name)

	sessionsCreated, err := meter.Int64Counter("quickinvoice_wizard_sessions_created_total")
	if err != nil {
		return nil, err
	}
	transitions, err := meter.Int64Counter("quickinvoice_wizard_transitions_total")
	if err != nil {
		return nil, err
	}
	generations, err := meter.Int64Counter("quickinvoice_invoice_generate_total")
	if err != nil {
		return nil, err
	}
	renderDuration, err := meter.Float64Histogram("quickinvoice_invoice_render_duration_seconds", metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	rateLimited, err := meter.Int64Counter("quickinvoice_rate_limit_denied_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		sessionsCreated: sessionsCreated,
		transitions:     transitions,
		generations:     generations,
		renderDuration:  renderDuration,
		rateLimited:     rateLimited,
	}, nil
}

func (m *Metrics) RecordSessionCreated(ctx context.Context) {
	if m == nil {
		return
	}
	m.sessionsCreated.Add(ctx, 1)
}

// RecordTransition counts a navigation intent and whether it moved the wizard.
func (m *Metrics) RecordTransition(ctx context.Context, intent, step string, moved bool) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if !moved {
		outcome = OutcomeBlocked
	}
	attrs := FilterAttributes(
		attribute.String("intent", strings.TrimSpace(intent)),
		attribute.String("step", strings.TrimSpace(step)),
		attribute.String("outcome", outcome),
	)
	m.transitions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordGenerate(ctx context.Context, format, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("format", strings.TrimSpace(format)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.generations.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordRenderDuration(ctx context.Context, format string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("format", strings.TrimSpace(format)))
	m.renderDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordRateLimitDenied(ctx context.Context, endpoint string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("endpoint", strings.TrimSpace(endpoint)))
	m.rateLimited.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"intent":      {},
	"step":        {},
	"outcome":     {},
	"format":      {},
	"endpoint":    {},
	"status_code": {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
