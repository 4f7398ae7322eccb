// Package metrics records streaming-session counters through the
// OpenTelemetry metrics API. Tests should build their own instance with
// NewMetrics and a ManualReader-backed provider.
package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/leonardotrapani/micstream"

type Metrics struct {
	// SamplesSent counts float32 samples written to the server.
	SamplesSent metric.Int64Counter

	// MessagesSent counts binary messages written to the server.
	MessagesSent metric.Int64Counter

	// Responses counts response messages read back.
	Responses metric.Int64Counter

	// Errors counts transport errors. Use with attribute.String("op", "read"|"write").
	Errors metric.Int64Counter

	// RoundTrip is the time from the start of a send to its response.
	RoundTrip metric.Float64Histogram

	// ActiveSessions is the number of sessions currently streaming.
	ActiveSessions metric.Int64UpDownCounter
}

// roundTripBuckets are in seconds.
var roundTripBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5,
}

func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.SamplesSent, err = m.Int64Counter("micstream.samples.sent",
		metric.WithDescription("Audio samples written to the server."),
	); err != nil {
		return nil, err
	}
	if met.MessagesSent, err = m.Int64Counter("micstream.messages.sent",
		metric.WithDescription("Binary audio messages written to the server."),
	); err != nil {
		return nil, err
	}
	if met.Responses, err = m.Int64Counter("micstream.responses",
		metric.WithDescription("Response messages received from the server."),
	); err != nil {
		return nil, err
	}
	if met.Errors, err = m.Int64Counter("micstream.transport.errors",
		metric.WithDescription("Transport errors by operation."),
	); err != nil {
		return nil, err
	}
	if met.RoundTrip, err = m.Float64Histogram("micstream.round_trip.duration",
		metric.WithDescription("Latency from send to response."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(roundTripBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("micstream.active_sessions",
		metric.WithDescription("Number of live streaming sessions."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// Default returns the package-level instance bound to the global meter
// provider.
func Default() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("metrics: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordSend counts one message of n samples.
func (m *Metrics) RecordSend(ctx context.Context, n int) {
	m.MessagesSent.Add(ctx, 1)
	m.SamplesSent.Add(ctx, int64(n))
}

func (m *Metrics) RecordResponse(ctx context.Context, seconds float64) {
	m.Responses.Add(ctx, 1)
	m.RoundTrip.Record(ctx, seconds)
}

func (m *Metrics) RecordError(ctx context.Context, op string) {
	m.Errors.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}
