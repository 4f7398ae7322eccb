package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/leonardotrapani/micstream/internal/bus"
	"github.com/leonardotrapani/micstream/internal/config"
	"github.com/leonardotrapani/micstream/internal/daemon"
	"github.com/leonardotrapani/micstream/internal/metrics"
	"github.com/leonardotrapani/micstream/internal/recording"
	"github.com/leonardotrapani/micstream/internal/session"
	"github.com/leonardotrapani/micstream/internal/tui"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var configPath string

var rootCmd = &cobra.Command{
	Use:          "micstream",
	Short:        "Stream microphone audio to a WebSocket server",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: user config dir)")

	rootCmd.AddCommand(
		streamCmd(),
		devicesCmd(),
		configureCmd(),
		serveCmd(),
		toggleCmd(),
		statusCmd(),
		versionCmd(),
		stopCmd(),
	)
}

// streamFlags override config values for one foreground run.
type streamFlags struct {
	host        string
	port        int
	device      int
	responseLog string
}

func (f streamFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = f.host
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = f.port
	}
	if cmd.Flags().Changed("device") {
		cfg.Audio.Device = f.device
	}
	if cmd.Flags().Changed("response-log") {
		cfg.Log.ResponseLog = f.responseLog
	}
}

func streamCmd() *cobra.Command {
	var flags streamFlags

	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Capture from the microphone and stream until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			flags.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			provider, err := metrics.InitProvider(cfg.Metrics.Listen)
			if err != nil {
				return err
			}
			defer shutdownMetrics(provider)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s := session.New(cfg, recording.NewPortAudioHost())
			res, err := s.Run(ctx)
			if err != nil {
				return fmt.Errorf("stream to %s failed: %w", s.Target(), err)
			}
			fmt.Println(session.Summary(res))
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.host, "host", "", "Server host")
	cmd.Flags().IntVar(&flags.port, "port", 0, "Server port")
	cmd.Flags().IntVar(&flags.device, "device", -1, "Input device index (-1 = system default)")
	cmd.Flags().StringVar(&flags.responseLog, "response-log", "", "File receiving server responses")

	return cmd
}

func devicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio input devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := recording.Devices(recording.NewPortAudioHost())
			if err != nil {
				return fmt.Errorf("failed to list devices: %w", err)
			}
			fmt.Println(tui.RenderDevices(devices))
			return nil
		},
	}
}

func configureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Interactive configuration setup",
		Long: `Interactive configuration wizard for micstream.
Lets you pick the input device, the streaming server, timing,
the response log, notifications and the metrics endpoint.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure()
		},
	}
}

func runConfigure() error {
	path := configPath
	if path == "" {
		p, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// The wizard still works without an audio backend; the device is then
	// entered by index.
	devices, err := recording.Devices(recording.NewPortAudioHost())
	if err != nil {
		log.Printf("Configure: could not list input devices: %v", err)
	}

	result, err := tui.Run(cfg, devices)
	if err != nil {
		return fmt.Errorf("configuration wizard error: %w", err)
	}
	if result.Cancelled {
		fmt.Println("Configuration cancelled.")
		return nil
	}

	if err := result.Config.Validate(); err != nil {
		fmt.Printf("Configuration validation failed: %v\n", err)
		return err
	}
	if err := config.Save(path, result.Config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println(tui.StyleSuccess.Render("Configuration saved to " + path))
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  micstream stream          stream in the foreground")
	fmt.Println("  micstream serve           run the daemon, then 'micstream toggle'")
	return nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := config.NewManager(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			manager.OnReload(func(cfg *config.Config) {
				log.Printf("Daemon: configuration reloaded, next session streams to %s", cfg.ToTransportConfig().URL())
			})

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if err := manager.StartWatching(ctx); err != nil {
				log.Printf("Daemon: config hot reload disabled: %v", err)
			}
			defer manager.Stop()

			// The endpoint address is fixed for the daemon's lifetime.
			provider, err := metrics.InitProvider(manager.GetConfig().Metrics.Listen)
			if err != nil {
				return err
			}
			defer shutdownMetrics(provider)

			host := recording.NewPortAudioHost()
			d := daemon.New(manager, func(cfg *config.Config) daemon.Runner {
				return session.New(cfg, host)
			}, nil)
			return d.Run()
		},
	}
}

func busCmd(use, short string, cmd byte, action string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(c *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(cmd)
			if err != nil {
				return fmt.Errorf("failed to %s: %w", action, err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func toggleCmd() *cobra.Command {
	return busCmd("toggle", "Start or stop streaming in the daemon", bus.CmdToggle, "toggle streaming")
}

func statusCmd() *cobra.Command {
	return busCmd("status", "Get current streaming status", bus.CmdStatus, "get status")
}

func versionCmd() *cobra.Command {
	return busCmd("version", "Get protocol version", bus.CmdVersion, "get version")
}

func stopCmd() *cobra.Command {
	return busCmd("stop", "Stop the daemon", bus.CmdQuit, "stop daemon")
}

func shutdownMetrics(p *metrics.Provider) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.Shutdown(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.Printf("Metrics: shutdown error: %v", err)
	}
}
