// Package session wires one streaming run together: response log, capture,
// transport and the pipeline loop. Resources are released in reverse order
// of acquisition on every path.
package session

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/leonardotrapani/micstream/internal/buffer"
	"github.com/leonardotrapani/micstream/internal/config"
	"github.com/leonardotrapani/micstream/internal/metrics"
	"github.com/leonardotrapani/micstream/internal/pipeline"
	"github.com/leonardotrapani/micstream/internal/recording"
	"github.com/leonardotrapani/micstream/internal/transport"
)

type Session struct {
	config  *config.Config
	host    recording.Host
	metrics *metrics.Metrics

	mu       sync.RWMutex
	pipeline *pipeline.Pipeline
}

type Option func(*Session)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

func New(cfg *config.Config, host recording.Host, opts ...Option) *Session {
	s := &Session{config: cfg, host: host}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.Default()
	}
	return s
}

// Target is the server URL this session streams to.
func (s *Session) Target() string {
	return s.config.ToTransportConfig().URL()
}

// Status reports the pipeline state, or idle before the loop starts.
func (s *Session) Status() pipeline.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pipeline == nil {
		return pipeline.Idle
	}
	return s.pipeline.Status()
}

// Run performs one session. Setup errors are returned before any audio is
// captured; a failed send ends the loop with the WriteError.
func (s *Session) Run(ctx context.Context) (pipeline.Result, error) {
	responses, err := transport.OpenResponseLog(s.config.ToLogConfig())
	if err != nil {
		return pipeline.Result{}, fmt.Errorf("open response log: %w", err)
	}
	defer responses.Close()

	samples := buffer.New(s.config.Audio.SampleRate)

	rec, err := recording.Open(s.config.ToRecordingConfig(), s.host, samples)
	if err != nil {
		return pipeline.Result{}, err
	}
	defer rec.Close()

	client, err := transport.Dial(ctx, s.config.ToTransportConfig(), responses)
	if err != nil {
		return pipeline.Result{}, err
	}
	defer client.Close()

	// A stop request must not wait on a peer that never replies: closing the
	// connection fails the blocked read and the loop sees the cancellation.
	stopClose := context.AfterFunc(ctx, func() { client.Close() })
	defer stopClose()

	log.Printf("Session: streaming %s to %s", rec.Device().Name, s.Target())

	p := pipeline.New(s.config.ToPipelineConfig(), rec, client, samples, pipeline.WithMetrics(s.metrics))
	s.mu.Lock()
	s.pipeline = p
	s.mu.Unlock()

	s.metrics.ActiveSessions.Add(ctx, 1)
	defer s.metrics.ActiveSessions.Add(context.WithoutCancel(ctx), -1)

	res, err := p.Run(ctx)
	log.Printf("Session: finished after %d iterations, %d samples sent, %d responses, %d read errors",
		res.Iterations, res.SamplesSent, res.Responses, res.ReadErrors)
	return res, err
}

// Summary formats a result for notifications.
func Summary(res pipeline.Result) string {
	return fmt.Sprintf("%d samples sent, %d responses, %d read errors", res.SamplesSent, res.Responses, res.ReadErrors)
}
