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
	scoringRuns     metric.Int64Counter
	accountsScored  metric.Int64Counter
	cohortsReported metric.Int64Counter
	runDuration     metric.Float64Histogram
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
		name = "pulse"
	}
	meter := provider.Meter(name)

	scoringRuns, err := meter.Int64Counter("pulse_scoring_runs_total")
	if err != nil {
		return nil, err
	}
	accountsScored, err := meter.Int64Counter("pulse_accounts_scored_total")
	if err != nil {
		return nil, err
	}
	cohortsReported, err := meter.Int64Counter("pulse_cohorts_reported_total")
	if err != nil {
		return nil, err
	}
	runDuration, err := meter.Float64Histogram("pulse_scoring_run_duration_ms")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		scoringRuns:     scoringRuns,
		accountsScored:  accountsScored,
		cohortsReported: cohortsReported,
		runDuration:     runDuration,
	}, nil
}

// RecordRun records one scoring run with its outcome and duration.
func (m *Metrics) RecordRun(ctx context.Context, analysis string, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("analysis", strings.TrimSpace(analysis)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.scoringRuns.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.runDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordAccountsScored records how many accounts one run produced.
func (m *Metrics) RecordAccountsScored(ctx context.Context, analysis string, count int) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("analysis", strings.TrimSpace(analysis)))
	m.accountsScored.Add(ctx, int64(count), metric.WithAttributes(attrs...))
}

// RecordCohortsReported records how many cohorts one run produced.
func (m *Metrics) RecordCohortsReported(ctx context.Context, count int) {
	if m == nil {
		return
	}
	m.cohortsReported.Add(ctx, int64(count))
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
	"analysis":    {},
	"outcome":     {},
	"status_code": {},
	"endpoint":    {},
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
