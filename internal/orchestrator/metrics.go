package orchestrator

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// InstrumentationName is the name used for OTEL instrumentation.
const InstrumentationName = "github.com/fyrsmithlabs/orchestrd/internal/orchestrator"

// Metrics provides OpenTelemetry metrics for the orchestrator.
type Metrics struct {
	decisionsTotal  metric.Int64Counter
	stagesTotal     metric.Int64Counter
	interruptsTotal metric.Int64Counter
	sessionsTotal   metric.Int64Counter
	stageDuration   metric.Float64Histogram

	initialized bool
}

// NewMetrics creates a Metrics instance with the provided meter. If meter
// is nil, the global meter provider is used.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = otel.Meter(InstrumentationName)
	}

	m := &Metrics{}
	var err error

	m.decisionsTotal, err = meter.Int64Counter(
		"orchestrator.decisions.total",
		metric.WithDescription("Total number of supervisor routing decisions"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, err
	}

	m.stagesTotal, err = meter.Int64Counter(
		"orchestrator.stages.total",
		metric.WithDescription("Total number of stage executions"),
		metric.WithUnit("{stage}"),
	)
	if err != nil {
		return nil, err
	}

	m.interruptsTotal, err = meter.Int64Counter(
		"orchestrator.interrupts.total",
		metric.WithDescription("Total number of pipeline suspensions"),
		metric.WithUnit("{interrupt}"),
	)
	if err != nil {
		return nil, err
	}

	m.sessionsTotal, err = meter.Int64Counter(
		"orchestrator.sessions.total",
		metric.WithDescription("Total number of sessions started"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, err
	}

	m.stageDuration, err = meter.Float64Histogram(
		"orchestrator.stage.duration.seconds",
		metric.WithDescription("Duration of stage execution in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.5, 1, 5, 10, 30, 60, 120, 300, 600),
	)
	if err != nil {
		return nil, err
	}

	m.initialized = true
	return m, nil
}

// RecordDecision records one supervisor routing decision.
func (m *Metrics) RecordDecision(ctx context.Context, next string, terminal bool) {
	if m == nil || !m.initialized {
		return
	}
	m.decisionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("next", next),
		attribute.Bool("terminal", terminal),
	))
}

// RecordStage records one completed stage execution.
func (m *Metrics) RecordStage(ctx context.Context, stage string, duration time.Duration, rounds int) {
	if m == nil || !m.initialized {
		return
	}
	attrs := metric.WithAttributes(attribute.String("stage", stage))
	m.stagesTotal.Add(ctx, 1, attrs)
	m.stageDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordInterrupt records a pipeline suspension.
func (m *Metrics) RecordInterrupt(ctx context.Context, stage string) {
	if m == nil || !m.initialized {
		return
	}
	m.interruptsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordSessionStart records a new session.
func (m *Metrics) RecordSessionStart(ctx context.Context) {
	if m == nil || !m.initialized {
		return
	}
	m.sessionsTotal.Add(ctx, 1)
}
