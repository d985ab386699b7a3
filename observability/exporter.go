package observability

// https://opentelemetry.io/docs/languages/go/exporters/

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/multierr"

	"github.com/benz9527/xavl/lib/infra"
)

var (
	ErrUnknownMeterExporter = errors.New("[observability] unknown meter exporter")
	ErrInvalidMeterOption   = errors.New("[observability] invalid meter provider option")
)

type MeterExporterKind uint8

const (
	// ConsoleMeterExporter serves for test/dev environment.
	ConsoleMeterExporter MeterExporterKind = iota
	// PrometheusMeterExporter serves for the product environment, the stats
	// metrics are fetched by HTTP from the default prometheus registry.
	PrometheusMeterExporter
	_meterExporterMax
)

func (kind MeterExporterKind) String() string {
	switch kind {
	case ConsoleMeterExporter:
		return "console"
	case PrometheusMeterExporter:
		return "prometheus"
	default:
	}
	return "unknown"
}

type meterProviderCfg struct {
	interval       time.Duration
	timeout        time.Duration
	stdoutOpts     []stdoutmetric.Option
	isRuntimeStats bool
	runtimeName    string
}

type MeterProviderOption func(*meterProviderCfg) error

func WithMeterExportInterval(interval, timeout time.Duration) MeterProviderOption {
	return func(cfg *meterProviderCfg) error {
		if interval <= 0 || timeout <= 0 {
			return infra.WrapErrorStackWithMessage(ErrInvalidMeterOption, "non-positive export interval or timeout")
		}
		cfg.interval, cfg.timeout = interval, timeout
		return nil
	}
}

// WithMeterStdoutOptions only applies to the console exporter.
func WithMeterStdoutOptions(opts ...stdoutmetric.Option) MeterProviderOption {
	return func(cfg *meterProviderCfg) error {
		cfg.stdoutOpts = append(cfg.stdoutOpts, opts...)
		return nil
	}
}

// WithMeterRuntimeStats reports the goroutines and the process runtime stats
// along with the tree stats.
func WithMeterRuntimeStats(name string) MeterProviderOption {
	return func(cfg *meterProviderCfg) error {
		cfg.isRuntimeStats = true
		cfg.runtimeName = name
		return nil
	}
}

func newConsoleMetricsReader(cfg *meterProviderCfg) (metric.Reader, error) {
	exporter, err := stdoutmetric.New(cfg.stdoutOpts...)
	if err != nil {
		return nil, err
	}
	return metric.NewPeriodicReader(
		exporter,
		metric.WithInterval(cfg.interval),
		metric.WithTimeout(cfg.timeout),
	), nil
}

func newPrometheusMetricsReader() (metric.Reader, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, err
	}
	return exporter, nil
}

// InitMeterProvider installs the global meter provider backed by the exporter
// kind. The returned callback flushes and shuts down the provider.
func InitMeterProvider(kind MeterExporterKind, opts ...MeterProviderOption) (func(ctx context.Context) error, error) {
	if kind >= _meterExporterMax {
		return nil, infra.WrapErrorStack(ErrUnknownMeterExporter)
	}
	cfg := &meterProviderCfg{
		interval: 60 * time.Second,
		timeout:  30 * time.Second,
	}
	for _, o := range opts {
		if o == nil {
			continue
		}
		if err := o(cfg); err != nil {
			return nil, err
		}
	}

	var (
		reader metric.Reader
		err    error
	)
	switch kind {
	case ConsoleMeterExporter:
		reader, err = newConsoleMetricsReader(cfg)
	case PrometheusMeterExporter:
		reader, err = newPrometheusMetricsReader()
	default:
	}
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "create "+kind.String()+" meter exporter")
	}

	mp := metric.NewMeterProvider(metric.WithReader(reader))
	otel.SetMeterProvider(mp)
	if cfg.isRuntimeStats {
		if err = startRuntimeStats(mp, cfg.runtimeName); err != nil {
			return nil, multierr.Append(err, mp.Shutdown(context.Background()))
		}
	}
	return mp.Shutdown, nil
}

// NewManualMeterProvider serves for the tests, the metrics are collected on
// demand by the reader.
func NewManualMeterProvider() (*metric.MeterProvider, *metric.ManualReader) {
	reader := metric.NewManualReader()
	return metric.NewMeterProvider(metric.WithReader(reader)), reader
}

// ShutdownOnDone runs the shutdown callback once the ctx is done.
func ShutdownOnDone(ctx context.Context, shutdown func(ctx context.Context) error) {
	if shutdown == nil {
		return
	}
	go func() {
		<-ctx.Done()
		_ = shutdown(context.Background())
	}()
}
