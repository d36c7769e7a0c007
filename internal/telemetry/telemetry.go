// Package telemetry exports import metrics through OpenTelemetry.
//
// Telemetry is off by default. When off, a no-op meter provider is installed
// and PassMetrics records nothing.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"prax-go/internal/config"
)

const instrumentationScope = "prax-go"

// Provider owns the installed meter provider.
type Provider struct {
	enabled  bool
	shutdown []func(context.Context) error
}

// Init installs the global meter provider described by cfg.
func Init(ctx context.Context, cfg config.TelemetryConfig, serviceName string) (*Provider, error) {
	if !cfg.Enabled {
		otel.SetMeterProvider(metricnoop.NewMeterProvider())
		return &Provider{}, nil
	}

	res := resource.NewSchemaless(attribute.String("service.name", serviceName))
	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	if cfg.Stdout {
		exp, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("telemetry: stdout exporter: %w", err)
		}
		interval := time.Duration(cfg.IntervalS) * time.Second
		if interval <= 0 {
			interval = time.Minute
		}
		opts = append(opts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(interval)),
		))
	}

	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)
	return &Provider{enabled: true, shutdown: []func(context.Context) error{mp.Shutdown}}, nil
}

// Enabled reports whether a real meter provider is installed.
func (p *Provider) Enabled() bool { return p.enabled }

// Meter returns a meter from the global provider.
func (p *Provider) Meter() metric.Meter {
	return otel.Meter(instrumentationScope)
}

// Shutdown flushes pending metrics and stops the providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range p.shutdown {
		errs = append(errs, fn(ctx))
	}
	p.shutdown = nil
	return errors.Join(errs...)
}
