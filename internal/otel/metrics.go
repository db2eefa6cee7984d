package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "agentd"

// Metrics holds all OTEL metric instruments for agentd.
// All counters are cumulative (monotonic) and safe for concurrent use.
type Metrics struct {
	// Launches, partitioned by exec-session mode and resolution source.
	Launches metric.Int64Counter
	// Stops, partitioned by outcome (cleaned true/false).
	Stops metric.Int64Counter
	// Resolutions, partitioned by the tier that produced the target.
	Resolutions metric.Int64Counter
	// Observed, job artifacts seen by the monitor, partitioned by state.
	Observed metric.Int64Counter
}

// NewMetrics creates all metric instruments. Returns no-op instruments
// when no MeterProvider is registered (safe to call unconditionally).
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.Launches, err = meter.Int64Counter("jobs.launched",
		metric.WithDescription("Jobs handed off to the external runner, partitioned by exec mode and resolution source"))
	if err != nil {
		return nil, err
	}

	m.Stops, err = meter.Int64Counter("jobs.stopped",
		metric.WithDescription("Stop requests delegated to the external stopper, partitioned by outcome"))
	if err != nil {
		return nil, err
	}

	m.Resolutions, err = meter.Int64Counter("target.resolutions",
		metric.WithDescription("Target resolutions partitioned by the priority tier that satisfied them"))
	if err != nil {
		return nil, err
	}

	m.Observed, err = meter.Int64Counter("jobs.observed",
		metric.WithDescription("Job artifacts seen by the monitor refresh, partitioned by state"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordLaunch records one job handoff.
func (m *Metrics) RecordLaunch(ctx context.Context, execMode, source string) {
	if m == nil {
		return
	}
	m.Launches.Add(ctx, 1, metric.WithAttributes(
		attribute.String("job.exec_mode", execMode),
		attribute.String("job.resolution_source", source),
	))
	m.Resolutions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("job.resolution_source", source),
	))
}

// RecordObserved records one job artifact seen during a monitor refresh.
func (m *Metrics) RecordObserved(ctx context.Context, state string) {
	if m == nil {
		return
	}
	m.Observed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("job.state", state),
	))
}

// RecordStop records one stop delegation.
func (m *Metrics) RecordStop(ctx context.Context, cleaned bool) {
	if m == nil {
		return
	}
	m.Stops.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("job.cleaned", cleaned),
	))
}
