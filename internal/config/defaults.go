package config

import "time"

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Audio: AudioConfig{
			Device:          -1,
			SampleRate:      20000,
			Channels:        1,
			FramesPerBuffer: 256,
		},
		Server: ServerConfig{
			Host:             "127.0.0.1",
			Port:             8765,
			Path:             "/",
			HandshakeTimeout: 10 * time.Second,
		},
		Stream: StreamConfig{
			PollInterval: 100 * time.Millisecond,
			InitialWait:  100 * time.Millisecond,
		},
		Log: LogConfig{
			ResponseLog: "host.log",
			MaxSizeMB:   50,
			MaxBackups:  3,
		},
		Notifications: NotificationsConfig{
			Enabled: true,
			Type:    "log",
		},
	}
}
