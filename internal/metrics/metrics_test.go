package metrics

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumOf(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	m := findMetric(rm, name)
	if m == nil {
		t.Fatalf("metric %q not found", name)
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("metric %q is %T, want Sum[int64]", name, m.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestRecordSend(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordSend(ctx, 2560)
	m.RecordSend(ctx, 256)

	rm := collect(t, reader)
	if got := sumOf(t, rm, "micstream.messages.sent"); got != 2 {
		t.Errorf("messages.sent = %d, want 2", got)
	}
	if got := sumOf(t, rm, "micstream.samples.sent"); got != 2816 {
		t.Errorf("samples.sent = %d, want 2816", got)
	}
}

func TestRecordResponse(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordResponse(ctx, 0.02)
	m.RecordResponse(ctx, 0.3)

	rm := collect(t, reader)
	if got := sumOf(t, rm, "micstream.responses"); got != 2 {
		t.Errorf("responses = %d, want 2", got)
	}

	h := findMetric(rm, "micstream.round_trip.duration")
	if h == nil {
		t.Fatal("round trip histogram not found")
	}
	hist, ok := h.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("round trip is %T", h.Data)
	}
	if len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 2 {
		t.Errorf("round trip data points = %+v", hist.DataPoints)
	}
}

func TestRecordErrorAttributes(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordError(ctx, "read")
	m.RecordError(ctx, "read")
	m.RecordError(ctx, "write")

	rm := collect(t, reader)
	met := findMetric(rm, "micstream.transport.errors")
	if met == nil {
		t.Fatal("errors metric not found")
	}
	sum := met.Data.(metricdata.Sum[int64])

	byOp := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key("op"))
		byOp[v.AsString()] = dp.Value
	}
	if byOp["read"] != 2 || byOp["write"] != 1 {
		t.Errorf("errors by op = %v, want read=2 write=1", byOp)
	}
}

func TestActiveSessions(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.ActiveSessions.Add(ctx, 1)
	m.ActiveSessions.Add(ctx, 1)
	m.ActiveSessions.Add(ctx, -1)

	if got := sumOf(t, collect(t, reader), "micstream.active_sessions"); got != 1 {
		t.Errorf("active_sessions = %d, want 1", got)
	}
}

func TestDefault(t *testing.T) {
	if Default() == nil {
		t.Fatal("Default() returned nil")
	}
	if Default() != Default() {
		t.Error("Default() should return the same instance")
	}
}

func TestInitProviderServesMetrics(t *testing.T) {
	p, err := InitProvider("127.0.0.1:0")
	if err != nil {
		t.Fatalf("InitProvider() error = %v", err)
	}
	defer p.Shutdown(context.Background())

	m, err := NewMetrics(p.MeterProvider)
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	m.RecordSend(context.Background(), 10)

	resp, err := http.Get("http://" + p.Addr + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), "micstream_samples_sent") {
		t.Errorf("/metrics does not expose samples counter:\n%s", body)
	}
}

func TestInitProviderWithoutListener(t *testing.T) {
	p, err := InitProvider("")
	if err != nil {
		t.Fatalf("InitProvider() error = %v", err)
	}
	if p.Addr != "" {
		t.Errorf("Addr = %q, want empty", p.Addr)
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}
