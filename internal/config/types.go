package config

import "time"

type Config struct {
	Audio         AudioConfig         `toml:"audio"`
	Server        ServerConfig        `toml:"server"`
	Stream        StreamConfig        `toml:"stream"`
	Log           LogConfig           `toml:"log"`
	Notifications NotificationsConfig `toml:"notifications"`
	Metrics       MetricsConfig       `toml:"metrics"`
}

type AudioConfig struct {
	Device          int `toml:"device"` // -1 or out of range selects the system default
	SampleRate      int `toml:"sample_rate"`
	Channels        int `toml:"channels"`
	FramesPerBuffer int `toml:"frames_per_buffer"`
}

type ServerConfig struct {
	Host             string        `toml:"host"`
	Port             int           `toml:"port"`
	HandshakeHost    string        `toml:"handshake_host"` // Host header, empty uses host:port
	Path             string        `toml:"path"`
	HandshakeTimeout time.Duration `toml:"handshake_timeout"`
	WriteTimeout     time.Duration `toml:"write_timeout"`
	ReadTimeout      time.Duration `toml:"read_timeout"` // 0 waits forever
}

type StreamConfig struct {
	PollInterval time.Duration `toml:"poll_interval"`
	InitialWait  time.Duration `toml:"initial_wait"`
}

type LogConfig struct {
	ResponseLog string `toml:"response_log"`
	MaxSizeMB   int    `toml:"max_size_mb"`
	MaxBackups  int    `toml:"max_backups"`
	Compress    bool   `toml:"compress"`
}

type NotificationsConfig struct {
	Enabled bool   `toml:"enabled"`
	Type    string `toml:"type"` // "desktop", "log", "none"
}

type MetricsConfig struct {
	Listen string `toml:"listen"` // empty disables the /metrics endpoint
}
