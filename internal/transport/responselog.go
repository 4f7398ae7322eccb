package transport

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

type LogConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	Compress   bool
}

func DefaultLogConfig() LogConfig {
	return LogConfig{
		Path:       "host.log",
		MaxSizeMB:  50,
		MaxBackups: 3,
	}
}

// ResponseLog appends one line per server response.
type ResponseLog struct {
	mu     sync.Mutex
	w      io.WriteCloser
	lines  int
	closed bool
}

// OpenResponseLog opens (or creates) the append-only response log. The file
// is rotated by lumberjack once it outgrows MaxSizeMB.
func OpenResponseLog(config LogConfig) (*ResponseLog, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("response log path is empty")
	}
	if dir := filepath.Dir(config.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create response log directory: %w", err)
		}
	}

	lj := &lumberjack.Logger{
		Filename:   config.Path,
		MaxSize:    config.MaxSizeMB,
		MaxBackups: config.MaxBackups,
		Compress:   config.Compress,
	}
	// lumberjack opens lazily; an empty write surfaces permission errors now
	// instead of on the first response.
	if _, err := lj.Write(nil); err != nil {
		return nil, fmt.Errorf("open response log %s: %w", config.Path, err)
	}
	return NewResponseLog(lj), nil
}

func NewResponseLog(w io.WriteCloser) *ResponseLog {
	return &ResponseLog{w: w}
}

var lineEscaper = strings.NewReplacer("\n", `\n`, "\r", `\r`)

// Append writes response as a single line. Embedded line breaks are escaped
// so one response always maps to one line.
func (l *ResponseLog) Append(response string) error {
	line := lineEscaper.Replace(response) + "\n"

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return fmt.Errorf("response log closed")
	}
	if _, err := io.WriteString(l.w, line); err != nil {
		return fmt.Errorf("append response: %w", err)
	}
	l.lines++
	return nil
}

func (l *ResponseLog) Lines() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lines
}

func (l *ResponseLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.w.Close()
}
