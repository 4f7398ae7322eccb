package daemon

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/leonardotrapani/micstream/internal/bus"
	"github.com/leonardotrapani/micstream/internal/config"
	"github.com/leonardotrapani/micstream/internal/notify"
	"github.com/leonardotrapani/micstream/internal/pipeline"
	"github.com/leonardotrapani/micstream/internal/session"
)

type Status string

const (
	Idle      Status = "idle"
	Streaming Status = "streaming"
)

// Runner is one streaming session.
type Runner interface {
	Run(ctx context.Context) (pipeline.Result, error)
	Status() pipeline.Status
	Target() string
}

type RunnerFunc func(cfg *config.Config) Runner

type ConfigSource interface {
	GetConfig() *config.Config
}

type active struct {
	runner Runner
	cancel context.CancelFunc
	done   chan struct{}
}

type Daemon struct {
	toggleMu  sync.Mutex // serializes toggles
	mu        sync.Mutex
	configs   ConfigSource
	newRunner RunnerFunc
	notifier  notify.Notifier

	ctx    context.Context
	cancel context.CancelFunc

	session *active
}

// New returns a daemon that starts sessions built by newRunner from the
// current config. A nil notifier selects one from each session's config.
func New(configs ConfigSource, newRunner RunnerFunc, n notify.Notifier) *Daemon {
	ctx, cancel := context.WithCancel(context.Background())
	return &Daemon{
		configs:   configs,
		newRunner: newRunner,
		notifier:  n,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (d *Daemon) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.session == nil {
		return Idle
	}
	return Streaming
}

func (d *Daemon) Run() error {
	if err := bus.CheckExistingDaemon(); err != nil {
		return err
	}

	ln, err := bus.Listen()
	if err != nil {
		return err
	}
	defer ln.Close()

	if err := bus.CreatePidFile(); err != nil {
		return fmt.Errorf("failed to create PID file: %w", err)
	}
	defer bus.RemovePidFile()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			log.Printf("Received signal %v, shutting down gracefully", sig)
			d.cancel()
		case <-d.ctx.Done():
		}
	}()

	// Close the listener when context is done
	go func() {
		<-d.ctx.Done()
		ln.Close()
	}()

	log.Printf("Daemon started, listening on socket")

	for {
		c, err := ln.Accept()
		if err != nil {
			if d.ctx.Err() != nil {
				log.Printf("Shutdown requested")
				d.stopSession()
				return nil
			}
			log.Printf("Accept error: %v", err)
			d.stopSession()
			return fmt.Errorf("accept failed: %w", err)
		}
		go d.handle(c)
	}
}

func (d *Daemon) handle(c net.Conn) {
	defer c.Close()

	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		log.Printf("Client read error: %v", err)
		fmt.Fprintf(c, "ERR read_error: %v\n", err)
		return
	}
	if len(line) == 0 {
		fmt.Fprint(c, "ERR empty\n")
		return
	}
	cmd := line[0]

	switch cmd {
	case bus.CmdToggle:
		fmt.Fprintf(c, "OK %s\n", d.toggle())
	case bus.CmdStatus:
		fmt.Fprintf(c, "STATUS %s\n", d.describe())
	case bus.CmdVersion:
		fmt.Fprintf(c, "STATUS proto=%s\n", bus.ProtoVer)
	case bus.CmdQuit:
		fmt.Fprint(c, "OK quitting\n")
		d.cancel()
	default:
		log.Printf("Unknown command: %c", cmd)
		fmt.Fprintf(c, "ERR unknown=%q\n", cmd)
	}
}

func (d *Daemon) describe() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.session == nil {
		return fmt.Sprintf("status=%s", Idle)
	}
	return fmt.Sprintf("status=%s state=%s target=%s", Streaming, d.session.runner.Status(), d.session.runner.Target())
}

// toggle starts a session when idle and stops the running one otherwise.
// It reports which of the two happened.
func (d *Daemon) toggle() string {
	d.toggleMu.Lock()
	defer d.toggleMu.Unlock()

	d.mu.Lock()
	running := d.session != nil
	d.mu.Unlock()

	if running {
		d.stopSession()
		return "stopped"
	}
	d.startSession()
	return "started"
}

func (d *Daemon) startSession() {
	cfg := d.configs.GetConfig()
	n := d.notifier
	if n == nil {
		n = notify.New(cfg.Notifications.Type, cfg.Notifications.Enabled)
	}

	runner := d.newRunner(cfg)
	ctx, cancel := context.WithCancel(d.ctx)
	a := &active{runner: runner, cancel: cancel, done: make(chan struct{})}

	d.mu.Lock()
	d.session = a
	d.mu.Unlock()

	log.Printf("Daemon: starting session to %s", runner.Target())
	go n.SessionStarted(runner.Target())

	go func() {
		defer close(a.done)
		res, err := runner.Run(ctx)

		d.mu.Lock()
		if d.session == a {
			d.session = nil
		}
		d.mu.Unlock()
		cancel()

		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Daemon: session failed: %v", err)
			n.Error(err.Error())
			return
		}
		n.SessionEnded(session.Summary(res))
	}()
}

// stopSession cancels the running session, if any, and waits for its
// cleanup to finish.
func (d *Daemon) stopSession() {
	d.mu.Lock()
	a := d.session
	d.mu.Unlock()
	if a == nil {
		return
	}
	a.cancel()
	<-a.done
}
