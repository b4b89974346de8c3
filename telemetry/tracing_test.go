package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTracingWithoutEndpoint(t *testing.T) {
	prev := otel.GetTracerProvider()
	defer otel.SetTracerProvider(prev)

	shutdown, err := InitTracing(context.Background(), "", "cairotrace-test", "dev")
	require.NoError(t, err)
	_, span := Start(context.Background(), SpanRun)
	require.True(t, span.SpanContext().IsValid())
	span.End()
	require.NoError(t, shutdown(context.Background()))
}

func TestSpanNestingAndErrors(t *testing.T) {
	prev := otel.GetTracerProvider()
	defer otel.SetTracerProvider(prev)

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	otel.SetTracerProvider(tp)

	ctx, parent := Start(context.Background(), SpanRun, attribute.Int("program.bytes", 12))
	_, child := Start(ctx, SpanToolchain)
	End(child, errors.New("exit status 1"))
	End(parent, nil)

	ended := rec.Ended()
	require.Len(t, ended, 2)
	require.Equal(t, SpanToolchain, ended[0].Name())
	require.Equal(t, codes.Error, ended[0].Status().Code)
	require.Equal(t, parent.SpanContext().SpanID(), ended[0].Parent().SpanID())
	require.Equal(t, SpanRun, ended[1].Name())
	require.Equal(t, codes.Unset, ended[1].Status().Code)
}
