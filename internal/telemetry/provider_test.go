package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestInitProvider_SetsGlobalMeterProvider(t *testing.T) {
	shutdown, err := InitProvider("test-service")
	if err != nil {
		t.Fatalf("InitProvider: %v", err)
	}
	defer shutdown(context.Background())

	if otel.GetMeterProvider() == nil {
		t.Fatal("expected a global meter provider to be set")
	}
}

func TestInitProvider_ShutdownIsIdempotent(t *testing.T) {
	shutdown, err := InitProvider("test-service")
	if err != nil {
		t.Fatalf("InitProvider: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("first shutdown: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("second shutdown should not error: %v", err)
	}
}
