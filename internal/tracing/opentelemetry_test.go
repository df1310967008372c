package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	oteltrace "go.opentelemetry.io/otel/trace"
)

func TestDefaultTracingConfig(t *testing.T) {
	config := DefaultTracingConfig()

	assert.Equal(t, "nexmosms", config.ServiceName)
	assert.Equal(t, "dev", config.ServiceVersion)
	assert.Equal(t, 0.1, config.SampleRate)
	assert.False(t, config.Enabled)
	assert.True(t, config.UseStdout)
	assert.Equal(t, 5, config.ShutdownTimeoutSec)
	assert.NoError(t, config.Validate())
}

func TestTracingConfig_Validate(t *testing.T) {
	tests := []struct {
		name     string
		config   TracingConfig
		errorMsg string
	}{
		{"disabled skips validation", TracingConfig{}, ""},
		{"valid stdout", TracingConfig{Enabled: true, ServiceName: "svc", SampleRate: 1, UseStdout: true}, ""},
		{"valid otlp", TracingConfig{Enabled: true, ServiceName: "svc", SampleRate: 0.5, OTLPEndpoint: "collector:4318"}, ""},
		{"missing service name", TracingConfig{Enabled: true, UseStdout: true}, "service_name is required"},
		{"negative sample rate", TracingConfig{Enabled: true, ServiceName: "svc", SampleRate: -0.1, UseStdout: true}, "sample_rate"},
		{"sample rate above one", TracingConfig{Enabled: true, ServiceName: "svc", SampleRate: 1.5, UseStdout: true}, "sample_rate"},
		{"otlp without endpoint", TracingConfig{Enabled: true, ServiceName: "svc", SampleRate: 1}, "otlp_endpoint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.errorMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestTracingManager_Disabled(t *testing.T) {
	tm := NewTracingManager(TracingConfig{Enabled: false}, logrus.New())

	require.NoError(t, tm.Initialize(context.Background()))
	assert.NoError(t, tm.Shutdown(context.Background()))
}

func TestTracingManager_InvalidConfig(t *testing.T) {
	tm := NewTracingManager(TracingConfig{Enabled: true}, nil)

	err := tm.Initialize(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid tracing config")
}

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = provider.Shutdown(context.Background())
	})
	return recorder
}

func TestStartSpan_RecordsAttributes(t *testing.T) {
	recorder := installRecorder(t)

	ctx, span := StartSpan(context.Background(), "account.balance", attribute.String("command", "getBalance"))
	AddSpanAttributes(ctx, attribute.Bool("cache_hit", true))
	assert.NotEmpty(t, GetOtelTraceID(ctx))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "account.balance", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.String("command", "getBalance"))
	assert.Contains(t, ended[0].Attributes(), attribute.Bool("cache_hit", true))
}

func TestStartClientSpan_Kind(t *testing.T) {
	recorder := installRecorder(t)

	_, span := StartClientSpan(context.Background(), "gateway.sendSMS")
	span.End()

	require.Len(t, recorder.Ended(), 1)
	assert.Equal(t, oteltrace.SpanKindClient, recorder.Ended()[0].SpanKind())
}

func TestRecordError(t *testing.T) {
	recorder := installRecorder(t)

	_, span := StartSpan(context.Background(), "gateway.getBalance")
	RecordError(span, errors.New("connection refused"))
	RecordError(span, nil)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "connection refused", ended[0].Status().Description)
	assert.Len(t, ended[0].Events(), 1)
}

func TestGetOtelTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, GetOtelTraceID(context.Background()))
}
