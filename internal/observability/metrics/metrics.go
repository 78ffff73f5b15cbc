// Package metrics exposes application-level instruments for checkout and
// membership flows.
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
	ordersCreated      metric.Int64Counter
	allocatorRetries   metric.Int64Counter
	allocatorExhausted metric.Int64Counter
	membershipPayments metric.Int64Counter
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
		name = "comercia"
	}
	meter := provider.Meter(name)

	ordersCreated, err := meter.Int64Counter("comercia_orders_created_total")
	if err != nil {
		return nil, err
	}
	allocatorRetries, err := meter.Int64Counter("comercia_order_number_retries_total")
	if err != nil {
		return nil, err
	}
	allocatorExhausted, err := meter.Int64Counter("comercia_order_number_exhausted_total")
	if err != nil {
		return nil, err
	}
	membershipPayments, err := meter.Int64Counter("comercia_membership_payments_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ordersCreated:      ordersCreated,
		allocatorRetries:   allocatorRetries,
		allocatorExhausted: allocatorExhausted,
		membershipPayments: membershipPayments,
	}, nil
}

// RecordOrderCreated increments checkout completion counts.
func (m *Metrics) RecordOrderCreated(ctx context.Context, orgID, paymentMethod string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("org_id", strings.TrimSpace(orgID)),
		attribute.String("payment_method", strings.TrimSpace(paymentMethod)),
	)
	m.ordersCreated.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordAllocatorRetry increments order-number retry counts.
func (m *Metrics) RecordAllocatorRetry(ctx context.Context, orgID string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("org_id", strings.TrimSpace(orgID)))
	m.allocatorRetries.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordAllocatorExhausted increments exhausted retry-budget counts.
func (m *Metrics) RecordAllocatorExhausted(ctx context.Context, orgID string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("org_id", strings.TrimSpace(orgID)))
	m.allocatorExhausted.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordMembershipPayment increments membership payment counts.
func (m *Metrics) RecordMembershipPayment(ctx context.Context, orgID string, planless bool) {
	if m == nil {
		return
	}
	planAttr := "plan"
	if planless {
		planAttr = "planless"
	}
	attrs := FilterAttributes(
		attribute.String("org_id", strings.TrimSpace(orgID)),
		attribute.String("plan_kind", planAttr),
	)
	m.membershipPayments.Add(ctx, 1, metric.WithAttributes(attrs...))
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
	"org_id":         {},
	"endpoint":       {},
	"status_code":    {},
	"payment_method": {},
	"plan_kind":      {},
	"reason":         {},
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
