package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// InitProvider installs a process-wide OpenTelemetry MeterProvider as the
// global provider, tagged with serviceName, so DefaultMetrics() (and
// anything else that calls otel.GetMeterProvider()) picks it up. Returns a
// shutdown function to call from main() on exit, grounded on the same
// init/shutdown-function shape as Glyphoxa's observe.InitProvider, minus its
// Prometheus/tracing scaffolding (see DESIGN.md for why those weren't wired
// here).
func InitProvider(serviceName string) (shutdown func(context.Context) error, err error) {
	res := resource.NewSchemaless(attribute.String("service.name", serviceName))
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res))
	otel.SetMeterProvider(mp)

	var once sync.Once
	var shutdownErr error
	return func(ctx context.Context) error {
		once.Do(func() { shutdownErr = mp.Shutdown(ctx) })
		return shutdownErr
	}, nil
}
