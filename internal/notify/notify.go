package notify

import (
	"fmt"
	"log"
	"os/exec"
)

const appName = "micstream"

type Notifier interface {
	SessionStarted(target string)
	SessionEnded(summary string)
	Error(msg string)
}

// New returns the notifier for a notifications.type value. Disabled or
// unknown types yield Nop.
func New(kind string, enabled bool) Notifier {
	if !enabled {
		return Nop{}
	}
	switch kind {
	case "desktop":
		return Desktop{}
	case "log":
		return Log{}
	default:
		return Nop{}
	}
}

// execCommand is replaced in tests.
var execCommand = exec.Command

type Desktop struct{}

func (d Desktop) SessionStarted(target string) {
	d.Notify("Streaming Started", fmt.Sprintf("Sending microphone audio to %s", target))
}

func (d Desktop) SessionEnded(summary string) {
	d.Notify("Streaming Stopped", summary)
}

func (Desktop) Error(msg string) {
	cmd := execCommand("notify-send", "-a", appName, "-u", "critical", "micstream Error", msg)
	if err := cmd.Run(); err != nil {
		log.Printf("Failed to send error notification: %v", err)
	}
}

func (Desktop) Notify(title, message string) {
	cmd := execCommand("notify-send", "-a", appName, title, message)
	if err := cmd.Run(); err != nil {
		log.Printf("Failed to send notification: %v", err)
	}
}

// Log writes notifications to the standard logger.
type Log struct{}

func (l Log) SessionStarted(target string) {
	l.Notify("Streaming Started", "target "+target)
}

func (l Log) SessionEnded(summary string) {
	l.Notify("Streaming Stopped", summary)
}

func (Log) Error(msg string) {
	log.Printf("micstream Error: %s", msg)
}

func (Log) Notify(title, message string) {
	log.Printf("micstream: %s: %s", title, message)
}

// Nop is a Notifier that does absolutely nothing.
// Useful in unit tests or headless builds.
type Nop struct{}

func (Nop) SessionStarted(string) {}
func (Nop) SessionEnded(string)   {}
func (Nop) Error(string)          {}
