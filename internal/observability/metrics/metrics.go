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

// Metrics exposes application-level instruments.
type Metrics struct {
	recipesCreated      metric.Int64Counter
	invitationsCreated  metric.Int64Counter
	invitationsAccepted metric.Int64Counter
	invitationsRevoked  metric.Int64Counter
	importsProcessed    metric.Int64Counter
	rateLimitAllowed    metric.Int64Counter
	rateLimitDenied     metric.Int64Counter
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

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "platebook"
	}
	meter := provider.Meter(name)

	recipesCreated, err := meter.Int64Counter("platebook_recipes_created_total")
	if err != nil {
		return nil, err
	}
	invitationsCreated, err := meter.Int64Counter("platebook_invitations_created_total")
	if err != nil {
		return nil, err
	}
	invitationsAccepted, err := meter.Int64Counter("platebook_invitations_accepted_total")
	if err != nil {
		return nil, err
	}
	invitationsRevoked, err := meter.Int64Counter("platebook_invitations_revoked_total")
	if err != nil {
		return nil, err
	}
	importsProcessed, err := meter.Int64Counter("platebook_imports_processed_total")
	if err != nil {
		return nil, err
	}
	rateLimitAllowed, err := meter.Int64Counter("platebook_rate_limit_allowed_total")
	if err != nil {
		return nil, err
	}
	rateLimitDenied, err := meter.Int64Counter("platebook_rate_limit_denied_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		recipesCreated:      recipesCreated,
		invitationsCreated:  invitationsCreated,
		invitationsAccepted: invitationsAccepted,
		invitationsRevoked:  invitationsRevoked,
		importsProcessed:    importsProcessed,
		rateLimitAllowed:    rateLimitAllowed,
		rateLimitDenied:     rateLimitDenied,
	}, nil
}

// RecordRecipeCreated increments recipe creation counts.
func (m *Metrics) RecordRecipeCreated(ctx context.Context, bookID, category string, ocrSource bool) {
	if m == nil {
		return
	}
	source := "manual"
	if ocrSource {
		source = "ocr"
	}
	attrs := FilterAttributes(
		attribute.String("book_id", strings.TrimSpace(bookID)),
		attribute.String("category", strings.TrimSpace(category)),
		attribute.String("source", source),
	)
	m.recipesCreated.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordInvitationCreated increments invitation creation counts.
func (m *Metrics) RecordInvitationCreated(ctx context.Context, bookID, role string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("book_id", strings.TrimSpace(bookID)),
		attribute.String("role", strings.TrimSpace(role)),
	)
	m.invitationsCreated.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordInvitationAccepted increments invitation accept counts.
func (m *Metrics) RecordInvitationAccepted(ctx context.Context, bookID, role string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("book_id", strings.TrimSpace(bookID)),
		attribute.String("role", strings.TrimSpace(role)),
	)
	m.invitationsAccepted.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordInvitationRevoked increments invitation revoke counts.
func (m *Metrics) RecordInvitationRevoked(ctx context.Context, bookID string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("book_id", strings.TrimSpace(bookID)))
	m.invitationsRevoked.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordImportProcessed increments processed import counts.
func (m *Metrics) RecordImportProcessed(ctx context.Context, status string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("status", strings.TrimSpace(status)))
	m.importsProcessed.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRateLimitAllowed increments rate limit allow counts.
func (m *Metrics) RecordRateLimitAllowed(ctx context.Context, userID, endpoint string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("user_id", strings.TrimSpace(userID)),
		attribute.String("endpoint", strings.TrimSpace(endpoint)),
	)
	m.rateLimitAllowed.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRateLimitDenied increments rate limit deny counts.
func (m *Metrics) RecordRateLimitDenied(ctx context.Context, userID, endpoint, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("user_id", strings.TrimSpace(userID)),
		attribute.String("endpoint", strings.TrimSpace(endpoint)),
		attribute.String("reason", strings.TrimSpace(reason)),
	)
	m.rateLimitDenied.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
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
	"book_id":     {},
	"user_id":     {},
	"endpoint":    {},
	"status_code": {},
	"category":    {},
	"role":        {},
	"source":      {},
	"status":      {},
	"reason":      {},
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
