package transport

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// mockServer starts a websocket server that runs handler for each connection.
// The returned func reports the Host header of the last upgrade request.
func mockServer(t *testing.T, handler func(*websocket.Conn)) (*httptest.Server, func() string) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	var mu sync.Mutex
	var host string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		host = r.Host
		mu.Unlock()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(server.Close)
	return server, func() string {
		mu.Lock()
		defer mu.Unlock()
		return host
	}
}

func configFor(t *testing.T, server *httptest.Server) Config {
	t.Helper()
	addr := server.Listener.Addr().(*net.TCPAddr)
	config := DefaultConfig()
	config.Host = addr.IP.String()
	config.Port = addr.Port
	config.HandshakeTimeout = 2 * time.Second
	return config
}

// ackHandler answers every binary message with "ACK".
func ackHandler(received chan<- []float32) func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if mt != websocket.BinaryMessage {
				conn.WriteMessage(websocket.TextMessage, []byte("ERR not binary"))
				continue
			}
			samples, err := DecodeSamples(data)
			if err != nil {
				conn.WriteMessage(websocket.TextMessage, []byte("ERR "+err.Error()))
				continue
			}
			if received != nil {
				received <- samples
			}
			conn.WriteMessage(websocket.TextMessage, []byte("ACK"))
		}
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines
}

func TestSendReceiveRoundTrip(t *testing.T) {
	received := make(chan []float32, 1)
	server, _ := mockServer(t, ackHandler(received))

	logPath := filepath.Join(t.TempDir(), "host.log")
	responses, err := OpenResponseLog(LogConfig{Path: logPath, MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("OpenResponseLog() error = %v", err)
	}
	defer responses.Close()

	client, err := Dial(context.Background(), configFor(t, server), responses)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer client.Close()

	samples := []float32{0.25, -0.5, 1, 0}
	if err := client.Send(samples); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	select {
	case got := <-received:
		if len(got) != len(samples) {
			t.Fatalf("server got %d samples, want %d", len(got), len(samples))
		}
		for i := range got {
			if got[i] != samples[i] {
				t.Errorf("sample %d = %v, want %v", i, got[i], samples[i])
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive message")
	}

	resp, err := client.ReceiveOne()
	if err != nil {
		t.Fatalf("ReceiveOne() error = %v", err)
	}
	if resp != "ACK" {
		t.Errorf("ReceiveOne() = %q, want ACK", resp)
	}

	responses.Close()
	lines := readLines(t, logPath)
	if len(lines) != 1 || lines[0] != "ACK" {
		t.Errorf("response log = %q, want [ACK]", lines)
	}
}

func TestDialHandshakeHost(t *testing.T) {
	server, host := mockServer(t, func(conn *websocket.Conn) {
		conn.ReadMessage()
	})

	config := configFor(t, server)
	config.HandshakeHost = "127.0.0.1:8765"

	client, err := Dial(context.Background(), config, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	client.Close()

	if got := host(); got != "127.0.0.1:8765" {
		t.Errorf("server saw Host %q, want 127.0.0.1:8765", got)
	}
}

func TestDialErrors(t *testing.T) {
	t.Run("refused connection", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("listen: %v", err)
		}
		port := ln.Addr().(*net.TCPAddr).Port
		ln.Close()

		config := DefaultConfig()
		config.Host = "127.0.0.1"
		config.Port = port

		_, err = Dial(context.Background(), config, nil)
		var connErr *ConnectionError
		if !errors.As(err, &connErr) {
			t.Fatalf("expected ConnectionError, got %T: %v", err, err)
		}
	})

	t.Run("unresolvable host", func(t *testing.T) {
		config := DefaultConfig()
		config.Host = "micstream-test.invalid"

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, err := Dial(ctx, config, nil)
		var connErr *ConnectionError
		if !errors.As(err, &connErr) {
			t.Fatalf("expected ConnectionError, got %T: %v", err, err)
		}
	})

	t.Run("upgrade rejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "not a websocket endpoint", http.StatusNotFound)
		}))
		defer server.Close()

		_, err := Dial(context.Background(), configFor(t, server), nil)
		var hsErr *HandshakeError
		if !errors.As(err, &hsErr) {
			t.Fatalf("expected HandshakeError, got %T: %v", err, err)
		}
		if hsErr.Status != http.StatusNotFound {
			t.Errorf("Status = %d, want 404", hsErr.Status)
		}
	})
}

func TestReceiveOneAfterPeerClose(t *testing.T) {
	server, _ := mockServer(t, func(conn *websocket.Conn) {
		conn.ReadMessage()
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "bye"))
	})

	client, err := Dial(context.Background(), configFor(t, server), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer client.Close()

	if err := client.Send([]float32{1}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	_, err = client.ReceiveOne()
	var readErr *ReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("expected ReadError, got %T: %v", err, err)
	}
	if IsFatal(err) {
		t.Error("read errors must not be fatal")
	}

	_, err = client.ReceiveOne()
	if !errors.Is(err, ErrReadFailed) {
		t.Errorf("second ReceiveOne() error = %v, want ErrReadFailed", err)
	}
}

func TestReadTimeout(t *testing.T) {
	server, _ := mockServer(t, func(conn *websocket.Conn) {
		// read but never answer
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	config := configFor(t, server)
	config.ReadTimeout = 50 * time.Millisecond

	client, err := Dial(context.Background(), config, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer client.Close()

	if err := client.Send([]float32{1, 2}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	start := time.Now()
	_, err = client.ReceiveOne()
	var readErr *ReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("expected ReadError, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("ReceiveOne() ignored the read timeout")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	closed := make(chan int, 1)
	server, _ := mockServer(t, func(conn *websocket.Conn) {
		_, _, err := conn.ReadMessage()
		var ce *websocket.CloseError
		if errors.As(err, &ce) {
			closed <- ce.Code
		}
	})

	client, err := Dial(context.Background(), configFor(t, server), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	select {
	case code := <-closed:
		if code != websocket.CloseNormalClosure {
			t.Errorf("close code = %d, want %d", code, websocket.CloseNormalClosure)
		}
	case <-time.After(2 * time.Second):
		t.Error("server did not observe close frame")
	}

	err = client.Send([]float32{1})
	var writeErr *WriteError
	if !errors.As(err, &writeErr) || !errors.Is(err, ErrClosed) {
		t.Errorf("Send() after Close() = %v, want WriteError wrapping ErrClosed", err)
	}
	if !IsFatal(err) {
		t.Error("write errors must be fatal")
	}

	_, err = client.ReceiveOne()
	if !errors.Is(err, ErrClosed) {
		t.Errorf("ReceiveOne() after Close() = %v, want ErrClosed", err)
	}
}

func TestEncodeSamples(t *testing.T) {
	samples := []float32{1, -1, 0.5}
	payload := EncodeSamples(nil, samples)
	if len(payload) != 12 {
		t.Fatalf("payload length = %d, want 12", len(payload))
	}
	// 1.0f little-endian
	if payload[0] != 0x00 || payload[1] != 0x00 || payload[2] != 0x80 || payload[3] != 0x3f {
		t.Errorf("1.0 encoded as % x", payload[:4])
	}

	reused := EncodeSamples(payload, []float32{2})
	if len(reused) != 4 {
		t.Errorf("reused payload length = %d, want 4", len(reused))
	}

	if _, err := DecodeSamples([]byte{1, 2, 3}); err == nil {
		t.Error("DecodeSamples() should reject partial samples")
	}
}

func TestConfigURL(t *testing.T) {
	config := Config{Host: "3.106.211.104", Port: 8765}
	if got := config.URL(); got != "ws://3.106.211.104:8765/" {
		t.Errorf("URL() = %q", got)
	}
	config.Path = "/audio"
	if got := config.URL(); !strings.HasSuffix(got, ":8765/audio") {
		t.Errorf("URL() = %q", got)
	}
}
