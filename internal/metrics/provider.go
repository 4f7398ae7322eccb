package metrics

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Provider is the installed SDK meter provider and, when a listen address
// was given, the HTTP server exposing /metrics.
type Provider struct {
	MeterProvider *sdkmetric.MeterProvider
	Addr          string

	server *http.Server
}

// InitProvider installs an SDK meter provider backed by a Prometheus
// exporter as the global provider. When listen is non-empty the metrics are
// served at http://listen/metrics.
func InitProvider(listen string) (*Provider, error) {
	registry := prometheus.NewRegistry()
	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(mp)
	p := &Provider{MeterProvider: mp}

	if listen == "" {
		return p, nil
	}

	ln, err := net.Listen("tcp", listen)
	if err != nil {
		_ = mp.Shutdown(context.Background())
		return nil, fmt.Errorf("listen for metrics on %s: %w", listen, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	p.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	p.Addr = ln.Addr().String()

	go func() {
		if err := p.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Metrics: server error: %v", err)
		}
	}()
	log.Printf("Metrics: serving on http://%s/metrics", p.Addr)
	return p, nil
}

// Shutdown stops the HTTP server and flushes the meter provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	if p.server != nil {
		if err := p.server.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := p.MeterProvider.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
