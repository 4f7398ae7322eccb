package transport

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"math"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	closeWait       = 5 * time.Second
	maxResponseSize = 1 << 20
)

type Config struct {
	Host string
	Port int
	// HandshakeHost overrides the Host header sent with the upgrade request.
	// Empty means host:port.
	HandshakeHost    string
	Path             string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	// ReadTimeout bounds ReceiveOne. Zero waits forever.
	ReadTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Host:             "127.0.0.1",
		Port:             8765,
		Path:             "/",
		HandshakeTimeout: 10 * time.Second,
	}
}

func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c Config) URL() string {
	path := c.Path
	if path == "" {
		path = "/"
	}
	u := url.URL{Scheme: "ws", Host: c.Addr(), Path: path}
	return u.String()
}

// Client is one websocket session carrying audio to the server and one
// response back per message. Send and ReceiveOne are meant to be called
// from a single goroutine, strictly alternating.
type Client struct {
	config    Config
	responses *ResponseLog

	mu      sync.Mutex // guards conn
	conn    *websocket.Conn
	payload []byte

	readFailed atomic.Bool
	closeOnce  sync.Once
	closeErr   error
}

// Dial resolves the endpoint, opens the TCP connection and upgrades it to a
// websocket. Responses read later are appended to responses when it is
// non-nil.
func Dial(ctx context.Context, config Config, responses *ResponseLog) (*Client, error) {
	addr := config.Addr()

	addrs, err := net.DefaultResolver.LookupHost(ctx, config.Host)
	if err != nil {
		return nil, &ConnectionError{Addr: addr, Err: err}
	}

	var dialErr error
	dialer := websocket.Dialer{
		HandshakeTimeout: config.HandshakeTimeout,
		NetDialContext: func(ctx context.Context, network, _ string) (net.Conn, error) {
			conn, err := dialAny(ctx, network, addrs, config.Port)
			dialErr = err
			return conn, err
		},
	}

	headers := http.Header{}
	if config.HandshakeHost != "" {
		headers.Set("Host", config.HandshakeHost)
	}

	wsURL := config.URL()
	log.Printf("Transport: connecting to %s", wsURL)
	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if dialErr != nil {
			return nil, &ConnectionError{Addr: addr, Err: dialErr}
		}
		hsErr := &HandshakeError{URL: wsURL, Err: err}
		if resp != nil {
			hsErr.Status = resp.StatusCode
			log.Printf("Transport: handshake failed with status %d", resp.StatusCode)
		}
		return nil, hsErr
	}
	conn.SetReadLimit(maxResponseSize)

	log.Printf("Transport: connected to %s", wsURL)
	return &Client{
		config:    config,
		responses: responses,
		conn:      conn,
	}, nil
}

// dialAny tries each resolved address in order and returns the first
// connection that succeeds.
func dialAny(ctx context.Context, network string, addrs []string, port int) (net.Conn, error) {
	var d net.Dialer
	var errs []error
	for _, a := range addrs {
		conn, err := d.DialContext(ctx, network, net.JoinHostPort(a, strconv.Itoa(port)))
		if err == nil {
			return conn, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("no addresses to dial")
	}
	return nil, errors.Join(errs...)
}

func (c *Client) current() *websocket.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

// Send writes samples as one binary message of little-endian float32s.
func (c *Client) Send(samples []float32) error {
	conn := c.current()
	if conn == nil {
		return &WriteError{Err: ErrClosed}
	}

	c.payload = EncodeSamples(c.payload, samples)
	if c.config.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, c.payload); err != nil {
		return &WriteError{Err: err}
	}
	return nil
}

// ReceiveOne blocks until one complete message arrives and returns it as
// text. The response is appended to the response log.
func (c *Client) ReceiveOne() (string, error) {
	conn := c.current()
	if conn == nil {
		return "", &ReadError{Err: ErrClosed}
	}
	if c.readFailed.Load() {
		return "", &ReadError{Err: ErrReadFailed}
	}

	if c.config.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		c.readFailed.Store(true)
		return "", &ReadError{Err: err}
	}

	response := string(data)
	if c.responses != nil {
		if err := c.responses.Append(response); err != nil {
			log.Printf("Transport: %v", err)
		}
	}
	return response, nil
}

// Close sends a normal-closure frame and closes the socket. Only the first
// call does anything.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		conn := c.conn
		c.conn = nil
		c.mu.Unlock()
		if conn == nil {
			return
		}

		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWait)); err != nil &&
			!errors.Is(err, websocket.ErrCloseSent) {
			log.Printf("Transport: close frame not sent: %v", err)
		}
		c.closeErr = conn.Close()
		log.Printf("Transport: connection closed")
	})
	return c.closeErr
}

// EncodeSamples appends the little-endian IEEE-754 encoding of samples to
// dst[:0].
func EncodeSamples(dst []byte, samples []float32) []byte {
	n := len(samples) * 4
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	for i, s := range samples {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(s))
	}
	return dst
}

// DecodeSamples is the inverse of EncodeSamples.
func DecodeSamples(payload []byte) ([]float32, error) {
	if len(payload)%4 != 0 {
		return nil, fmt.Errorf("payload length %d is not a multiple of 4", len(payload))
	}
	out := make([]float32, len(payload)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[i*4:]))
	}
	return out, nil
}
