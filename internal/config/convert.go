package config

import (
	"github.com/leonardotrapani/micstream/internal/pipeline"
	"github.com/leonardotrapani/micstream/internal/recording"
	"github.com/leonardotrapani/micstream/internal/transport"
)

func (c *Config) ToRecordingConfig() recording.Config {
	return recording.Config{
		Device:          c.Audio.Device,
		SampleRate:      c.Audio.SampleRate,
		Channels:        c.Audio.Channels,
		FramesPerBuffer: c.Audio.FramesPerBuffer,
	}
}

func (c *Config) ToTransportConfig() transport.Config {
	return transport.Config{
		Host:             c.Server.Host,
		Port:             c.Server.Port,
		HandshakeHost:    c.Server.HandshakeHost,
		Path:             c.Server.Path,
		HandshakeTimeout: c.Server.HandshakeTimeout,
		WriteTimeout:     c.Server.WriteTimeout,
		ReadTimeout:      c.Server.ReadTimeout,
	}
}

func (c *Config) ToLogConfig() transport.LogConfig {
	return transport.LogConfig{
		Path:       c.Log.ResponseLog,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		Compress:   c.Log.Compress,
	}
}

func (c *Config) ToPipelineConfig() pipeline.Config {
	return pipeline.Config{
		PollInterval: c.Stream.PollInterval,
		InitialWait:  c.Stream.InitialWait,
	}
}
