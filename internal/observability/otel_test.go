package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/ewg-studio/go-site-backend/internal/config"
)

// saveGlobals restores the process-wide tracer provider and propagator after
// the test, since SetupOTel mutates both.
func saveGlobals(t *testing.T) {
	t.Helper()
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
}

func tracingConfig(insecure bool, name string) config.OTELConfig {
	return config.OTELConfig{
		Enabled:     true,
		Insecure:    insecure,
		Endpoint:    "localhost:4317",
		ServiceName: name,
		SampleRatio: 1.0,
	}
}

func TestSetupOTel_DisabledIsNoOp(t *testing.T) {
	saveGlobals(t)

	shutdown, err := SetupOTel(context.Background(), config.OTELConfig{Enabled: false}, "v0")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if shutdown == nil {
		t.Fatalf("expected non-nil shutdown func")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("no-op shutdown returned error: %v", err)
	}
}

func TestSetupOTel_InstallsProvider(t *testing.T) {
	for _, tc := range []struct {
		name     string
		insecure bool
	}{
		{"insecure", true},
		{"tls", false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			saveGlobals(t)

			shutdown, err := SetupOTel(context.Background(), tracingConfig(tc.insecure, "site-"+tc.name), "v1.2.3")
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			defer func() { _ = shutdown(context.Background()) }()

			if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
				t.Fatalf("expected *sdktrace.TracerProvider, got %T", otel.GetTracerProvider())
			}

			// Round-trip the propagator and record a span as a smoke check.
			carrier := propagation.MapCarrier{}
			ctx, span := otel.Tracer("test").Start(context.Background(), "span")
			span.End()
			otel.GetTextMapPropagator().Inject(ctx, carrier)
			_ = otel.GetTextMapPropagator().Extract(context.Background(), carrier)
		})
	}
}

func TestSetupOTel_CanceledContextStillSucceeds(t *testing.T) {
	saveGlobals(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // exporter init is lazy; setup must not fail

	shutdown, err := SetupOTel(ctx, tracingConfig(true, "site-canceled"), "v0")
	if err != nil {
		t.Fatalf("unexpected err with canceled ctx: %v", err)
	}
	_ = shutdown(context.Background())
}

func TestSetupOTel_FailuresLeaveGlobalsUntouched(t *testing.T) {
	stubExporterErr := func(t *testing.T) {
		orig := newOTLPExporterFn
		t.Cleanup(func() { newOTLPExporterFn = orig })
		newOTLPExporterFn = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
			return nil, errors.New("exporter down")
		}
	}
	stubResourceErr := func(t *testing.T) {
		orig := newServiceResourceFn
		t.Cleanup(func() { newServiceResourceFn = orig })
		newServiceResourceFn = func(ctx context.Context, serviceName, version string) (*resource.Resource, error) {
			return nil, errors.New("resource down")
		}
	}

	for _, tc := range []struct {
		name string
		stub func(*testing.T)
	}{
		{"exporter error", stubExporterErr},
		{"resource error", stubResourceErr},
	} {
		t.Run(tc.name, func(t *testing.T) {
			saveGlobals(t)
			tc.stub(t)

			prevTP := otel.GetTracerProvider()
			prevProp := otel.GetTextMapPropagator()

			if _, err := SetupOTel(context.Background(), tracingConfig(true, "site"), "v0"); err == nil {
				t.Fatalf("expected error, got nil")
			}
			if otel.GetTracerProvider() != prevTP {
				t.Fatalf("tracer provider changed on failure")
			}
			if otel.GetTextMapPropagator() != prevProp {
				t.Fatalf("propagator changed on failure")
			}
		})
	}
}

func TestSetupOTel_ShutdownCompletes(t *testing.T) {
	saveGlobals(t)

	shutdown, err := SetupOTel(context.Background(), tracingConfig(true, "site-shutdown"), "v1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown returned error: %v", err)
	}
}
