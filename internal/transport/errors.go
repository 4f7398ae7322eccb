package transport

import "errors"

var (
	// ErrClosed is wrapped in a WriteError or ReadError when the client has
	// already been closed.
	ErrClosed = errors.New("connection closed")

	// ErrReadFailed is returned by ReceiveOne after the connection has
	// failed a read. The websocket state is unusable from then on.
	ErrReadFailed = errors.New("connection failed a previous read")
)

// ConnectionError reports a failure to resolve the endpoint or open the
// TCP connection.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	if e == nil || e.Err == nil {
		return "connection error"
	}
	return "connect " + e.Addr + ": " + e.Err.Error()
}

func (e *ConnectionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// HandshakeError reports a failed websocket upgrade.
type HandshakeError struct {
	URL    string
	Status int
	Err    error
}

func (e *HandshakeError) Error() string {
	if e == nil || e.Err == nil {
		return "handshake error"
	}
	return "handshake " + e.URL + ": " + e.Err.Error()
}

func (e *HandshakeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WriteError is fatal for the session: the connection is presumed dead.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	if e == nil || e.Err == nil {
		return "write error"
	}
	return "write: " + e.Err.Error()
}

func (e *WriteError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ReadError is not fatal; the streaming loop logs it and keeps going.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string {
	if e == nil || e.Err == nil {
		return "read error"
	}
	return "read: " + e.Err.Error()
}

func (e *ReadError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsFatal reports whether err should end a streaming session. Only read
// errors are tolerated.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var readErr *ReadError
	return !errors.As(err, &readErr)
}
