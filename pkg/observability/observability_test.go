package observability

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestConnectorTracer_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))

	tracer := NewConnectorTracer("opensky")
	ctx, span := tracer.StartSpan(context.Background(), "cycle")
	span.SetAttribute("records.fetched", 600)
	span.SetAttribute("limit", int64(300))
	span.SetAttribute("incremental", false)

	_, child := NewSpan(ctx, "fetch")
	child.RecordError(errors.New("timeout"))
	child.End()

	span.RecordError(nil)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 2)

	assert.Equal(t, "fetch", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, ended[1].SpanContext().SpanID(), ended[0].Parent().SpanID())

	assert.Equal(t, "opensky.cycle", ended[1].Name())
	assert.Equal(t, codes.Ok, ended[1].Status().Code)

	attrs := map[string]interface{}{}
	for _, kv := range ended[1].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, "opensky", attrs["connector.name"])
	assert.Equal(t, int64(600), attrs["records.fetched"])
	assert.Equal(t, false, attrs["incremental"])
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracing_Stdout(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := InitTracing(TracingConfig{Enabled: true, ServiceVersion: "test", Writer: &buf})
	require.NoError(t, err)

	_, span := NewSpan(context.Background(), "opensky.cycle")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "opensky.cycle")
}
