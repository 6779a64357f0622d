package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNilObservabilityIsNoOp(t *testing.T) {
	var o *Observability
	ctx := context.Background()

	o.RecordJobProcessed(ctx, "match-providers", "completed")
	o.RecordJobDuration(ctx, "match-providers", time.Second, "completed")
	o.RecordTopScore(ctx, 21)

	spanCtx, span := o.StartSpan(ctx, "noop")
	assert.Equal(t, ctx, spanCtx)
	assert.False(t, span.IsRecording())
	EndSpan(span, errors.New("ignored"))

	assert.NoError(t, o.Shutdown(ctx))
}

// New registers on the default Prometheus registry, so it runs once here.
func TestNew(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	o, err := New("coach-matching-test", WithSpanProcessor(recorder))
	require.NoError(t, err)
	ctx := context.Background()

	o.RecordJobProcessed(ctx, "match-providers", "completed")
	o.RecordJobDuration(ctx, "match-providers", 15*time.Millisecond, "completed")
	o.RecordTopScore(ctx, 21)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "jobs_processed_total")

	_, okSpan := o.StartSpan(ctx, "match-providers.execute", attribute.String("request_id", "r-1"))
	EndSpan(okSpan, nil)
	_, failed := o.StartSpan(ctx, "refresh-provider-catalog.execute")
	EndSpan(failed, errors.New("source down"))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "match-providers.execute", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("request_id", "r-1"))
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "source down", spans[1].Status().Description)

	assert.NoError(t, o.Shutdown(ctx))
}
