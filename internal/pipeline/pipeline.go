package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/leonardotrapani/micstream/internal/metrics"
)

type Status string

const (
	Idle             Status = "idle"
	Capturing        Status = "capturing"
	Draining         Status = "draining"
	Sending          Status = "sending"
	AwaitingResponse Status = "awaiting_response"
	Sleeping         Status = "sleeping"
	Stopped          Status = "stopped"
)

// Capturer delivers samples into a Source between Start and Stop.
type Capturer interface {
	Start() error
	Stop() error
}

type Transport interface {
	Send(samples []float32) error
	ReceiveOne() (string, error)
	Close() error
}

type Source interface {
	IsEmpty() bool
	DrainInto(dst []float32) []float32
}

type Config struct {
	// PollInterval is the pause after every exchange.
	PollInterval time.Duration
	// InitialWait is the pause between starting capture and the first
	// buffer check. Zero checks immediately.
	InitialWait time.Duration
}

func DefaultConfig() Config {
	return Config{
		PollInterval: 100 * time.Millisecond,
		InitialWait:  100 * time.Millisecond,
	}
}

// Result summarises one run.
type Result struct {
	Iterations  int
	SamplesSent int
	Responses   int
	ReadErrors  int
}

type Option func(*Pipeline)

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// Pipeline drains a Source into a Transport while a Capturer fills it.
type Pipeline struct {
	config    Config
	capture   Capturer
	transport Transport
	source    Source
	metrics   *metrics.Metrics

	mu     sync.RWMutex
	status Status
}

func New(config Config, capture Capturer, transport Transport, source Source, opts ...Option) *Pipeline {
	p := &Pipeline{
		config:    config,
		capture:   capture,
		transport: transport,
		source:    source,
		status:    Idle,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = metrics.Default()
	}
	return p
}

func (p *Pipeline) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

func (p *Pipeline) setStatus(s Status) {
	p.mu.Lock()
	p.status = s
	p.mu.Unlock()
}

// Run starts capture and exchanges buffered samples with the transport until
// the buffer is empty at the top of an iteration, a send fails, or ctx is
// cancelled. Capture is stopped and the transport closed on every path.
// A cancelled context is not an error.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	var res Result
	defer p.cleanup()

	if err := p.capture.Start(); err != nil {
		return res, fmt.Errorf("start capture: %w", err)
	}
	p.setStatus(Capturing)
	log.Printf("Pipeline: Capture started")

	if !p.sleep(ctx, p.config.InitialWait) {
		log.Printf("Pipeline: Context cancelled before first exchange")
		return res, nil
	}

	var samples []float32
	for {
		if ctx.Err() != nil {
			log.Printf("Pipeline: Context cancelled, stopping")
			return res, nil
		}
		if p.source.IsEmpty() {
			log.Printf("Pipeline: Buffer empty, stopping after %d iterations", res.Iterations)
			return res, nil
		}
		res.Iterations++

		p.setStatus(Draining)
		samples = p.source.DrainInto(samples)

		p.setStatus(Sending)
		start := time.Now()
		if err := p.transport.Send(samples); err != nil {
			if ctx.Err() != nil {
				// the connection was closed by the stop request
				log.Printf("Pipeline: Context cancelled during send, stopping")
				return res, nil
			}
			p.metrics.RecordError(ctx, "write")
			log.Printf("Pipeline: Send failed: %v", err)
			return res, err
		}
		res.SamplesSent += len(samples)
		p.metrics.RecordSend(ctx, len(samples))

		p.setStatus(AwaitingResponse)
		response, err := p.transport.ReceiveOne()
		if err != nil {
			res.ReadErrors++
			p.metrics.RecordError(ctx, "read")
			log.Printf("Pipeline: Receive failed, continuing: %v", err)
		} else {
			res.Responses++
			p.metrics.RecordResponse(ctx, time.Since(start).Seconds())
			log.Printf("Pipeline: Sent %d samples, response %q", len(samples), response)
		}

		p.setStatus(Sleeping)
		if !p.sleep(ctx, p.config.PollInterval) {
			log.Printf("Pipeline: Context cancelled, stopping")
			return res, nil
		}
	}
}

// sleep reports false if ctx ended first.
func (p *Pipeline) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (p *Pipeline) cleanup() {
	if err := p.capture.Stop(); err != nil {
		log.Printf("Pipeline: Error stopping capture: %v", err)
	}
	if err := p.transport.Close(); err != nil {
		log.Printf("Pipeline: Error closing transport: %v", err)
	}
	p.setStatus(Stopped)
}
