package telemetry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveHTTP("GET", "/", "200", time.Millisecond)
		m.PlanGenerated("1day")
		m.ExplanationFallback()
		m.ObserveTextGen("openai", time.Second, nil)
		m.ChatTurn()
		m.HistoryWrite("1day", errors.New("disk full"))
	})
}

func TestMetricsCollect(t *testing.T) {
	m := NewMetrics()
	m.PlanGenerated("7day")
	m.PlanGenerated("7day")
	m.ExplanationFallback()
	m.ChatTurn()
	m.HistoryWrite("1day", nil)
	m.HistoryWrite("1day", errors.New("disk full"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.plansGenerated.WithLabelValues("7day")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.explanationFallbacks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.chatTurns))

	expected := `
# HELP dietplanner_history_writes_total History appends by kind and outcome.
# TYPE dietplanner_history_writes_total counter
dietplanner_history_writes_total{kind="1day",outcome="error"} 1
dietplanner_history_writes_total{kind="1day",outcome="ok"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry, strings.NewReader(expected), "dietplanner_history_writes_total"))
}

func TestInitTracingDisabled(t *testing.T) {
	tracer, shutdown, err := InitTracing(context.Background(), OtelConfig{ServiceName: "test"})
	require.NoError(t, err)
	require.NotNil(t, tracer)

	_, span := tracer.Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()

	assert.NoError(t, shutdown(context.Background()))
}
