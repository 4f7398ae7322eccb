package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/leonardotrapani/micstream/internal/config"
	"github.com/leonardotrapani/micstream/internal/recording"
)

func deviceOptions(devices []recording.Device) []huh.Option[int] {
	options := []huh.Option[int]{huh.NewOption("System default", -1)}
	for _, d := range devices {
		label := fmt.Sprintf("#%d %s (%s)", d.Index, d.Name, d.HostAPI)
		if d.IsDefault {
			label += " [default]"
		}
		options = append(options, huh.NewOption(label, d.Index))
	}
	return options
}

func editAudio(cfg *config.Config, devices []recording.Device) error {
	device := cfg.Audio.Device
	deviceText := strconv.Itoa(device)
	rate := strconv.Itoa(cfg.Audio.SampleRate)
	frames := strconv.Itoa(cfg.Audio.FramesPerBuffer)

	var deviceField huh.Field
	if len(devices) > 0 {
		deviceField = huh.NewSelect[int]().
			Title("Input Device").
			Options(deviceOptions(devices)...).
			Value(&device)
	} else {
		deviceField = huh.NewInput().
			Title("Input Device Index").
			Description("No devices detected; -1 uses the system default").
			Value(&deviceText).
			Validate(validateDeviceIndex)
	}

	form := huh.NewForm(
		huh.NewGroup(
			deviceField,
			huh.NewInput().
				Title("Sample Rate").
				Description("Samples per second captured from the device").
				Placeholder("20000").
				Value(&rate).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("Frames Per Buffer").
				Description("Samples delivered per capture callback").
				Placeholder("256").
				Value(&frames).
				Validate(validatePositiveInt),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	if len(devices) == 0 {
		device = atoi(deviceText)
	}
	cfg.Audio.Device = device
	cfg.Audio.SampleRate = atoi(rate)
	cfg.Audio.FramesPerBuffer = atoi(frames)
	return nil
}

func editServer(cfg *config.Config) error {
	host := cfg.Server.Host
	port := strconv.Itoa(cfg.Server.Port)
	path := cfg.Server.Path
	handshake := cfg.Server.HandshakeTimeout.String()
	read := cfg.Server.ReadTimeout.String()

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Server Host").
				Placeholder("127.0.0.1").
				Value(&host).
				Validate(validateNotEmpty),
			huh.NewInput().
				Title("Server Port").
				Placeholder("8765").
				Value(&port).
				Validate(validatePort),
			huh.NewInput().
				Title("Path").
				Placeholder("/").
				Value(&path),
			huh.NewInput().
				Title("Handshake Timeout").
				Description("e.g. 10s").
				Value(&handshake).
				Validate(validateDuration(false)),
			huh.NewInput().
				Title("Read Timeout").
				Description("How long to wait for each reply, 0s waits forever").
				Value(&read).
				Validate(validateDuration(true)),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Server.Host = strings.TrimSpace(host)
	cfg.Server.Port = atoi(port)
	cfg.Server.Path = strings.TrimSpace(path)
	if cfg.Server.Path == "" {
		cfg.Server.Path = "/"
	}
	cfg.Server.HandshakeTimeout = parseDuration(handshake)
	cfg.Server.ReadTimeout = parseDuration(read)
	return nil
}

func editStream(cfg *config.Config) error {
	poll := cfg.Stream.PollInterval.String()
	wait := cfg.Stream.InitialWait.String()
	logPath := cfg.Log.ResponseLog
	maxSize := strconv.Itoa(cfg.Log.MaxSizeMB)
	backups := strconv.Itoa(cfg.Log.MaxBackups)
	compress := cfg.Log.Compress

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Poll Interval").
				Description("Pause between buffer checks").
				Placeholder("100ms").
				Value(&poll).
				Validate(validateDuration(false)),
			huh.NewInput().
				Title("Initial Wait").
				Description("Pause after capture starts, 0s checks immediately").
				Placeholder("100ms").
				Value(&wait).
				Validate(validateDuration(true)),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Response Log").
				Description("File that receives one line per server reply").
				Placeholder("host.log").
				Value(&logPath).
				Validate(validateNotEmpty),
			huh.NewInput().
				Title("Max Size (MB)").
				Description("Rotate after this size, 0 never rotates").
				Value(&maxSize).
				Validate(validateNonNegativeInt),
			huh.NewInput().
				Title("Max Backups").
				Value(&backups).
				Validate(validateNonNegativeInt),
			huh.NewConfirm().
				Title("Compress rotated logs?").
				Value(&compress),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Stream.PollInterval = parseDuration(poll)
	cfg.Stream.InitialWait = parseDuration(wait)
	cfg.Log.ResponseLog = strings.TrimSpace(logPath)
	cfg.Log.MaxSizeMB = atoi(maxSize)
	cfg.Log.MaxBackups = atoi(backups)
	cfg.Log.Compress = compress
	return nil
}

func editNotifications(cfg *config.Config) error {
	kind := cfg.Notifications.Type
	if !cfg.Notifications.Enabled {
		kind = "none"
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Notifications").
				Description("How session start, end and failure are reported").
				Options(
					huh.NewOption("Desktop (notify-send)", "desktop"),
					huh.NewOption("Log only", "log"),
					huh.NewOption("Off", "none"),
				).
				Value(&kind),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Notifications.Type = kind
	cfg.Notifications.Enabled = kind != "none"
	return nil
}

func editMetrics(cfg *config.Config) error {
	listen := cfg.Metrics.Listen

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Metrics Listen Address").
				Description("Serves Prometheus /metrics, leave empty to disable").
				Placeholder("127.0.0.1:9464").
				Value(&listen),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Metrics.Listen = strings.TrimSpace(listen)
	return nil
}
