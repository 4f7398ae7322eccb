package config

import "fmt"

func (c *Config) Validate() error {
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("invalid audio.sample_rate: %d", c.Audio.SampleRate)
	}
	if c.Audio.Channels != 1 {
		return fmt.Errorf("invalid audio.channels: %d (only mono is supported)", c.Audio.Channels)
	}
	if c.Audio.FramesPerBuffer <= 0 {
		return fmt.Errorf("invalid audio.frames_per_buffer: %d", c.Audio.FramesPerBuffer)
	}
	if c.Audio.Device < -1 {
		return fmt.Errorf("invalid audio.device: %d (use -1 for the default device)", c.Audio.Device)
	}

	if c.Server.Host == "" {
		return fmt.Errorf("invalid server.host: empty")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", c.Server.Port)
	}
	if c.Server.HandshakeTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.ReadTimeout < 0 {
		return fmt.Errorf("invalid server timeouts: must not be negative")
	}

	if c.Stream.PollInterval <= 0 {
		return fmt.Errorf("invalid stream.poll_interval: %v", c.Stream.PollInterval)
	}
	if c.Stream.InitialWait < 0 {
		return fmt.Errorf("invalid stream.initial_wait: %v", c.Stream.InitialWait)
	}

	if c.Log.ResponseLog == "" {
		return fmt.Errorf("invalid log.response_log: empty")
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 {
		return fmt.Errorf("invalid log rotation: sizes must not be negative")
	}

	switch c.Notifications.Type {
	case "desktop", "log", "none":
	default:
		return fmt.Errorf("invalid notifications.type: %s (must be desktop, log, or none)", c.Notifications.Type)
	}

	return nil
}
