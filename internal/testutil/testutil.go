package testutil

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/leonardotrapani/micstream/internal/config"
	"github.com/leonardotrapani/micstream/internal/recording"
	"github.com/leonardotrapani/micstream/internal/transport"
)

// TestConfig returns a valid configuration whose response log lives in a
// temp dir and whose server points at addr (host:port, may be empty).
func TestConfig(t *testing.T, addr string) *config.Config {
	t.Helper()
	c := config.DefaultConfig()
	c.Log.ResponseLog = filepath.Join(t.TempDir(), "host.log")
	c.Notifications.Type = "none"
	c.Stream.PollInterval = 5 * time.Millisecond
	c.Stream.InitialWait = 0
	c.Server.HandshakeTimeout = 2 * time.Second

	if addr != "" {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			t.Fatalf("bad server address %q: %v", addr, err)
		}
		n, err := strconv.Atoi(port)
		if err != nil {
			t.Fatalf("bad server port %q: %v", port, err)
		}
		c.Server.Host = host
		c.Server.Port = n
	}
	return c
}

// CreateTempConfigFile creates a temporary config file for testing
func CreateTempConfigFile(t *testing.T, configContent string) string {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to create temp config file: %v", err)
	}
	return configPath
}

// TestContext returns a context with timeout for testing
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// WaitForCondition waits for a condition to be true or times out
func WaitForCondition(t *testing.T, condition func() bool, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for !condition() {
		if time.Now().After(deadline) {
			t.Fatalf("Condition not met within %v", timeout)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// MockHost is a recording.Host with one default input device. When its
// stream starts it delivers BatchesOnStart callback batches of BatchSize
// samples synchronously, then Continuous batches keep arriving every
// Interval until the stream stops.
type MockHost struct {
	BatchesOnStart int
	BatchSize      int
	Continuous     bool
	Interval       time.Duration
	InitErr        error
	OpenErr        error

	mu         sync.Mutex
	callback   func([]float32)
	stop       chan struct{}
	wg         sync.WaitGroup
	Starts     int
	Stops      int
	Terminates int
}

func NewMockHost(batches, size int) *MockHost {
	return &MockHost{BatchesOnStart: batches, BatchSize: size, Interval: 2 * time.Millisecond}
}

func (h *MockHost) Initialize() error { return h.InitErr }

func (h *MockHost) Terminate() error {
	h.mu.Lock()
	h.Terminates++
	h.mu.Unlock()
	return nil
}

func (h *MockHost) Devices() ([]recording.Device, error) {
	return []recording.Device{{Index: 0, Name: "Mock Mic", MaxInputChannels: 1, DefaultSampleRate: 20000, IsDefault: true}}, nil
}

func (h *MockHost) DefaultInputDevice() (recording.Device, error) {
	devices, _ := h.Devices()
	return devices[0], nil
}

func (h *MockHost) OpenInputStream(params recording.StreamParams, cb func([]float32)) (recording.Stream, error) {
	if h.OpenErr != nil {
		return nil, h.OpenErr
	}
	h.mu.Lock()
	h.callback = cb
	h.mu.Unlock()
	return (*mockStream)(h), nil
}

func (h *MockHost) batch() []float32 {
	b := make([]float32, h.BatchSize)
	for i := range b {
		b[i] = float32(i) / float32(h.BatchSize)
	}
	return b
}

// Counts returns how often the stream was started and stopped.
func (h *MockHost) Counts() (starts, stops int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Starts, h.Stops
}

type mockStream MockHost

func (s *mockStream) Start() error {
	h := (*MockHost)(s)
	h.mu.Lock()
	h.Starts++
	cb := h.callback
	h.stop = make(chan struct{})
	stop := h.stop
	h.mu.Unlock()

	batch := h.batch()
	for range h.BatchesOnStart {
		cb(batch)
	}

	if h.Continuous {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			ticker := time.NewTicker(h.Interval)
			defer ticker.Stop()
			for {
				select {
				case <-stop:
					return
				case <-ticker.C:
					cb(batch)
				}
			}
		}()
	}
	return nil
}

func (s *mockStream) Stop() error {
	h := (*MockHost)(s)
	h.mu.Lock()
	h.Stops++
	if h.stop != nil {
		close(h.stop)
		h.stop = nil
	}
	h.mu.Unlock()
	h.wg.Wait()
	return nil
}

func (s *mockStream) Close() error { return nil }

// ACKServer is a WebSocket server that answers every binary message with
// "ACK" and records the sample count of each message.
type ACKServer struct {
	*httptest.Server

	mu       sync.Mutex
	messages []int
}

func NewACKServer(t *testing.T) *ACKServer {
	t.Helper()
	s := &ACKServer{}
	upgrader := websocket.Upgrader{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if mt != websocket.BinaryMessage {
				continue
			}
			samples, err := transport.DecodeSamples(data)
			if err != nil {
				conn.WriteMessage(websocket.TextMessage, []byte("ERR "+err.Error()))
				continue
			}
			s.mu.Lock()
			s.messages = append(s.messages, len(samples))
			s.mu.Unlock()
			if err := conn.WriteMessage(websocket.TextMessage, []byte("ACK")); err != nil {
				return
			}
		}
	}))
	t.Cleanup(s.Close)
	return s
}

// Addr is the server's host:port.
func (s *ACKServer) Addr() string {
	return s.Listener.Addr().String()
}

// Messages returns the sample count of every message received so far.
func (s *ACKServer) Messages() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.messages...)
}

// NewSilentServer starts a WebSocket server that reads every message and
// never answers. It returns the server's host:port.
func NewSilentServer(t *testing.T) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv.Listener.Addr().String()
}
