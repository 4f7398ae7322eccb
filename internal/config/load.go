package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const envPrefix = "MICSTREAM_"

func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}

	dir := filepath.Join(configDir, "micstream")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the TOML file at path, or the default location when path is
// empty. A missing file yields the defaults. Values from a .env file in the
// working directory and MICSTREAM_* environment variables are applied on top.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	config := DefaultConfig()

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		log.Printf("Config: %s not found, using defaults", path)
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat config file %s: %w", path, err)
	} else {
		log.Printf("Config: loading configuration from %s", path)
		if _, err := toml.DecodeFile(path, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Config: failed to load .env: %v", err)
	}
	if err := config.applyEnv(); err != nil {
		return nil, err
	}

	log.Printf("Config: configuration loaded successfully")
	return config, nil
}

func (c *Config) applyEnv() error {
	if v, ok := lookupEnv("HOST"); ok {
		c.Server.Host = v
	}
	if v, ok := lookupEnv("RESPONSE_LOG"); ok {
		c.Log.ResponseLog = v
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"PORT", &c.Server.Port},
		{"DEVICE", &c.Audio.Device},
		{"SAMPLE_RATE", &c.Audio.SampleRate},
		{"FRAMES_PER_BUFFER", &c.Audio.FramesPerBuffer},
	}
	for _, e := range ints {
		v, ok := lookupEnv(e.name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %q", envPrefix, e.name, v)
		}
		*e.dst = n
	}

	if v, ok := lookupEnv("READ_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sREAD_TIMEOUT: %q", envPrefix, v)
		}
		c.Server.ReadTimeout = d
	}
	return nil
}

func lookupEnv(name string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Save writes c to path as commented TOML, creating the directory if needed.
func Save(path string, c *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	content := fmt.Sprintf(`# micstream configuration
# Changes are picked up by a running daemon at the start of the next session.

# Microphone capture
[audio]
  device = %d                  # PortAudio input device index (-1 = system default)
  sample_rate = %d             # Samples per second
  channels = %d                # Only mono (1) is supported
  frames_per_buffer = %d       # Samples delivered per capture callback

# Streaming server
[server]
  host = %q
  port = %d
  handshake_host = %q          # Host header for the upgrade request (empty = host:port)
  path = %q
  handshake_timeout = %q
  write_timeout = %q           # "0s" = no deadline
  read_timeout = %q            # "0s" = wait for a response forever

# Orchestrator timing
[stream]
  poll_interval = %q           # Pause after every exchange
  initial_wait = %q            # Pause after capture starts before the first check

# Response log
[log]
  response_log = %q
  max_size_mb = %d
  max_backups = %d
  compress = %t

# Session notifications
[notifications]
  enabled = %t
  type = %q                    # "desktop", "log", "none"

# Prometheus endpoint
[metrics]
  listen = %q                  # e.g. "127.0.0.1:9464" (empty = disabled)
`,
		c.Audio.Device, c.Audio.SampleRate, c.Audio.Channels, c.Audio.FramesPerBuffer,
		c.Server.Host, c.Server.Port, c.Server.HandshakeHost, c.Server.Path,
		c.Server.HandshakeTimeout.String(), c.Server.WriteTimeout.String(), c.Server.ReadTimeout.String(),
		c.Stream.PollInterval.String(), c.Stream.InitialWait.String(),
		c.Log.ResponseLog, c.Log.MaxSizeMB, c.Log.MaxBackups, c.Log.Compress,
		c.Notifications.Enabled, c.Notifications.Type,
		c.Metrics.Listen,
	)

	if _, err := file.WriteString(content); err != nil {
		return fmt.Errorf("failed to write config content: %w", err)
	}
	return nil
}
