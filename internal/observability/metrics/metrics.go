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
	ingestedRecords metric.Int64Counter
	pipelineRuns    metric.Int64Counter
	recordsRouted   metric.Int64Counter
	ragAccounts     metric.Int64Counter
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

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "orderpulse"
	}
	meter := provider.Meter(name)

	ingested, err := meter.Int64Counter("orderpulse_ingested_records_total",
		metric.WithDescription("Input records loaded per stream"))
	if err != nil {
		return nil, err
	}
	runs, err := meter.Int64Counter("orderpulse_pipeline_runs_total",
		metric.WithDescription("Pipeline runs by final status"))
	if err != nil {
		return nil, err
	}
	routed, err := meter.Int64Counter("orderpulse_records_routed_total",
		metric.WithDescription("Validated records routed to result or holding"))
	if err != nil {
		return nil, err
	}
	rag, err := meter.Int64Counter("orderpulse_rag_accounts_total",
		metric.WithDescription("Accounts classified per RAG tier"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ingestedRecords: ingested,
		pipelineRuns:    runs,
		recordsRouted:   routed,
		ragAccounts:     rag,
	}, nil
}

func (m *Metrics) AddIngested(ctx context.Context, stream string, n int) {
	if m == nil || m.ingestedRecords == nil {
		return
	}
	m.ingestedRecords.Add(ctx, int64(n), metric.WithAttributes(attribute.String("stream", stream)))
}

func (m *Metrics) IncPipelineRun(ctx context.Context, status string) {
	if m == nil || m.pipelineRuns == nil {
		return
	}
	m.pipelineRuns.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func (m *Metrics) AddRouted(ctx context.Context, stream string, reason string, n int) {
	if m == nil || m.recordsRouted == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String("stream", stream)}
	if reason != "" {
		attrs = append(attrs, attribute.String("hold_reason", reason))
	}
	m.recordsRouted.Add(ctx, int64(n), metric.WithAttributes(attrs...))
}

func (m *Metrics) AddRAG(ctx context.Context, status string, n int) {
	if m == nil || m.ragAccounts == nil {
		return
	}
	m.ragAccounts.Add(ctx, int64(n), metric.WithAttributes(attribute.String("rag_status", status)))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "", "grpc":
		return otlpmetricgrpc.New(context.Background(),
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	case "http", "http/protobuf":
		return otlpmetrichttp.New(context.Background(),
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported otlp metrics protocol %q", protocol)
	}
}
