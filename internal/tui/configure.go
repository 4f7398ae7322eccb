package tui

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/leonardotrapani/micstream/internal/config"
	"github.com/leonardotrapani/micstream/internal/recording"
)

// ConfigureResult holds the configuration result from the TUI
type ConfigureResult struct {
	Config    *config.Config
	Cancelled bool
}

type ConfigSection string

const (
	SectionAudio         ConfigSection = "audio"
	SectionServer        ConfigSection = "server"
	SectionStream        ConfigSection = "stream"
	SectionNotifications ConfigSection = "notifications"
	SectionMetrics       ConfigSection = "metrics"
	SectionSaveExit      ConfigSection = "save"
	SectionDiscardExit   ConfigSection = "discard"
)

// Run shows the section menu until the user saves or discards. devices
// feeds the input device picker and may be empty when no audio backend is
// available.
func Run(existing *config.Config, devices []recording.Device) (*ConfigureResult, error) {
	cfg := config.DefaultConfig()
	if existing != nil {
		c := *existing
		cfg = &c
	}

	for {
		clearScreen()
		fmt.Println(Logo())
		fmt.Println()

		section, err := selectSection(cfg)
		if err != nil {
			return &ConfigureResult{Cancelled: true}, nil
		}

		switch section {
		case SectionSaveExit:
			confirmed, err := showSummary(cfg)
			if err != nil {
				return &ConfigureResult{Cancelled: true}, nil
			}
			if confirmed {
				return &ConfigureResult{Config: cfg}, nil
			}
		case SectionDiscardExit:
			return &ConfigureResult{Cancelled: true}, nil
		case SectionAudio:
			_ = editAudio(cfg, devices)
		case SectionServer:
			_ = editServer(cfg)
		case SectionStream:
			_ = editStream(cfg)
		case SectionNotifications:
			_ = editNotifications(cfg)
		case SectionMetrics:
			_ = editMetrics(cfg)
		}
	}
}

func selectSection(cfg *config.Config) (ConfigSection, error) {
	options := []huh.Option[ConfigSection]{
		huh.NewOption(formatAudioLabel(cfg), SectionAudio),
		huh.NewOption(formatServerLabel(cfg), SectionServer),
		huh.NewOption(formatStreamLabel(cfg), SectionStream),
		huh.NewOption(formatNotificationsLabel(cfg), SectionNotifications),
		huh.NewOption(formatMetricsLabel(cfg), SectionMetrics),
		huh.NewOption("Save & Exit", SectionSaveExit),
		huh.NewOption("Discard & Exit", SectionDiscardExit),
	}

	var selected ConfigSection
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[ConfigSection]().
				Title("Configuration Menu").
				Description("↑/↓ navigate • enter select • esc cancel").
				Options(options...).
				Value(&selected),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return "", err
	}
	return selected, nil
}

func formatAudioLabel(cfg *config.Config) string {
	return fmt.Sprintf("Audio: device %s, %d Hz, %d frames", deviceLabel(cfg.Audio.Device), cfg.Audio.SampleRate, cfg.Audio.FramesPerBuffer)
}

func formatServerLabel(cfg *config.Config) string {
	return "Server: " + cfg.ToTransportConfig().URL()
}

func formatStreamLabel(cfg *config.Config) string {
	return fmt.Sprintf("Stream: poll %s, log %s", cfg.Stream.PollInterval, cfg.Log.ResponseLog)
}

func formatNotificationsLabel(cfg *config.Config) string {
	return "Notifications: " + notificationsLabel(cfg.Notifications.Enabled, cfg.Notifications.Type)
}

func formatMetricsLabel(cfg *config.Config) string {
	return "Metrics: " + metricsLabel(cfg.Metrics.Listen)
}

func showSummary(cfg *config.Config) (bool, error) {
	fmt.Println()
	fmt.Println(StyleHeader.Render("Configuration Summary"))
	fmt.Println()
	fmt.Print(summaryText(cfg))
	fmt.Println()

	var confirm bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save this configuration?").
				Affirmative("Save").
				Negative("Back").
				Value(&confirm),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return false, err
	}
	return confirm, nil
}

func summaryText(cfg *config.Config) string {
	rows := []struct{ label, value string }{
		{"Device:", deviceLabel(cfg.Audio.Device)},
		{"Sample rate:", fmt.Sprintf("%d Hz", cfg.Audio.SampleRate)},
		{"Frames/buffer:", fmt.Sprintf("%d", cfg.Audio.FramesPerBuffer)},
		{"Server:", cfg.ToTransportConfig().URL()},
		{"Read timeout:", durationLabel(cfg.Server.ReadTimeout)},
		{"Poll interval:", cfg.Stream.PollInterval.String()},
		{"Initial wait:", durationLabel(cfg.Stream.InitialWait)},
		{"Response log:", cfg.Log.ResponseLog},
		{"Notifications:", notificationsLabel(cfg.Notifications.Enabled, cfg.Notifications.Type)},
		{"Metrics:", metricsLabel(cfg.Metrics.Listen)},
	}
	var s string
	for _, r := range rows {
		s += fmt.Sprintf("  %s %s\n", StyleLabel.Render(r.label), r.value)
	}
	return s
}
