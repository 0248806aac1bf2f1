package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/cogniflow/config"
)

// Tests here swap the global providers, so none of them run in parallel.
func restoreGlobals(t *testing.T) {
	t.Helper()
	tp, mp, prop := otel.GetTracerProvider(), otel.GetMeterProvider(), otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetMeterProvider(mp)
		otel.SetTextMapPropagator(prop)
	})
}

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	restoreGlobals(t)
	rec := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	return rec
}

func TestInit(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.TelemetryConfig
		wantSDK bool
	}{
		{name: "disabled keeps noop", cfg: config.TelemetryConfig{Enabled: false}},
		{
			name: "enabled installs sdk providers",
			cfg: config.TelemetryConfig{
				Enabled:      true,
				OTLPEndpoint: "localhost:4317",
				ServiceName:  "cogniflow-test",
				SampleRate:   0.5,
			},
			wantSDK: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restoreGlobals(t)

			p, err := Init(tt.cfg, zaptest.NewLogger(t))
			require.NoError(t, err)
			require.NotNil(t, p)
			t.Cleanup(func() {
				// No collector is listening; export errors are expected.
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = p.Shutdown(ctx)
			})

			_, tpIsSDK := otel.GetTracerProvider().(*sdktrace.TracerProvider)
			_, mpIsSDK := otel.GetMeterProvider().(*sdkmetric.MeterProvider)
			assert.Equal(t, tt.wantSDK, p.tp != nil)
			assert.Equal(t, tt.wantSDK, p.mp != nil)
			assert.Equal(t, tt.wantSDK, tpIsSDK)
			assert.Equal(t, tt.wantSDK, mpIsSDK)
			if tt.wantSDK {
				assert.ElementsMatch(t,
					[]string{"traceparent", "tracestate", "baggage"},
					otel.GetTextMapPropagator().Fields())
			}
		})
	}
}

func TestInit_NilLogger(t *testing.T) {
	restoreGlobals(t)
	p, err := Init(config.TelemetryConfig{}, nil)
	require.NoError(t, err)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestProviders_ShutdownNil(t *testing.T) {
	var p *Providers
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestStartSpan_CarriesAttributesAndParent(t *testing.T) {
	rec := recordSpans(t)

	ctx, parent := StartSpan(context.Background(), "cognition.sequential_thinking",
		attribute.String("tool.name", "sequential_thinking"))
	_, child := StartSpan(ctx, "thinking.step", attribute.Int("thought", 1))
	EndSpan(child, nil)
	EndSpan(parent, nil)

	ended := rec.Ended()
	require.Len(t, ended, 2)
	step, tool := ended[0], ended[1]
	assert.Equal(t, "thinking.step", step.Name())
	assert.Equal(t, tool.SpanContext().SpanID(), step.Parent().SpanID())
	assert.Contains(t, tool.Attributes(), attribute.String("tool.name", "sequential_thinking"))
	assert.Equal(t, InstrumentationName, tool.InstrumentationScope().Name)
}

func TestEndSpan_Status(t *testing.T) {
	rec := recordSpans(t)

	_, failed := StartSpan(context.Background(), "cognition.reason")
	EndSpan(failed, assert.AnError)
	_, ok := StartSpan(context.Background(), "cognition.memory_store")
	EndSpan(ok, nil)

	ended := rec.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, assert.AnError.Error(), ended[0].Status().Description)
	require.Len(t, ended[0].Events(), 1)
	assert.Equal(t, "exception", ended[0].Events()[0].Name)
	assert.Equal(t, codes.Unset, ended[1].Status().Code)
	assert.Empty(t, ended[1].Events())
}

func TestBuildVersion(t *testing.T) {
	// Test binaries report (devel).
	assert.Equal(t, "dev", buildVersion())
}
