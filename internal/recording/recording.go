package recording

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultDevice selects the host's default input device.
const DefaultDevice = -1

type Config struct {
	Device          int
	SampleRate      int
	Channels        int
	FramesPerBuffer int
}

func DefaultConfig() Config {
	return Config{
		Device:          DefaultDevice,
		SampleRate:      20000,
		Channels:        1,
		FramesPerBuffer: 256,
	}
}

// Device describes one input device as reported by the host.
type Device struct {
	Index             int
	Name              string
	HostAPI           string
	MaxInputChannels  int
	DefaultSampleRate float64
	LowInputLatency   time.Duration
	IsDefault         bool
}

type StreamParams struct {
	Device          Device
	Channels        int
	SampleRate      float64
	FramesPerBuffer int
	Latency         time.Duration
}

type Stream interface {
	Start() error
	Stop() error
	Close() error
}

// Host is the audio subsystem. PortAudioHost is the production
// implementation; callbacks run on the host's real-time thread.
type Host interface {
	Initialize() error
	Terminate() error
	Devices() ([]Device, error)
	DefaultInputDevice() (Device, error)
	OpenInputStream(params StreamParams, callback func(in []float32)) (Stream, error)
}

// Sink receives captured samples. It is called from the real-time thread
// and must not block.
type Sink interface {
	Append(samples []float32)
}

type Recorder struct {
	config Config
	host   Host
	target Sink
	device Device

	recording atomic.Bool
	batches   atomic.Uint64

	mu     sync.Mutex // guards stream and closed
	stream Stream
	closed bool
}

// Open initializes host, picks the configured input device and opens a mono
// float32 stream that feeds target. Nothing is captured until Start.
func Open(config Config, host Host, target Sink) (*Recorder, error) {
	if err := config.validate(); err != nil {
		return nil, &StreamOpenError{Device: "config", Err: err}
	}

	if err := host.Initialize(); err != nil {
		return nil, &DeviceError{Op: "initialize", Err: err}
	}

	device, err := selectDevice(host, config.Device)
	if err != nil {
		_ = host.Terminate()
		return nil, err
	}

	r := &Recorder{
		config: config,
		host:   host,
		target: target,
		device: device,
	}

	params := StreamParams{
		Device:          device,
		Channels:        config.Channels,
		SampleRate:      float64(config.SampleRate),
		FramesPerBuffer: config.FramesPerBuffer,
		Latency:         device.LowInputLatency,
	}
	stream, err := host.OpenInputStream(params, r.capture)
	if err != nil {
		_ = host.Terminate()
		return nil, &StreamOpenError{Device: device.Name, Err: err}
	}
	r.stream = stream

	log.Printf("Recording: opened device #%d %q at %d Hz, %d frames per buffer",
		device.Index, device.Name, config.SampleRate, config.FramesPerBuffer)
	return r, nil
}

func selectDevice(host Host, index int) (Device, error) {
	devices, err := host.Devices()
	if err != nil {
		return Device{}, &DeviceError{Op: "list devices", Err: err}
	}

	if index >= 0 && index < len(devices) {
		return devices[index], nil
	}
	if index != DefaultDevice {
		log.Printf("Recording: device index %d out of range (%d devices), using default input", index, len(devices))
	}

	device, err := host.DefaultInputDevice()
	if err != nil {
		return Device{}, &DeviceError{Op: "default input", Err: err}
	}
	if device.MaxInputChannels < 1 {
		return Device{}, &DeviceError{Op: "default input", Err: ErrNoDevice}
	}
	return device, nil
}

// capture runs on the audio thread: append and count, nothing else.
func (r *Recorder) capture(in []float32) {
	r.target.Append(in)
	r.batches.Add(1)
}

func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.stream == nil {
		return fmt.Errorf("recorder closed")
	}
	if r.recording.Load() {
		return fmt.Errorf("already recording")
	}
	if err := r.stream.Start(); err != nil {
		return fmt.Errorf("start input stream: %w", err)
	}
	r.recording.Store(true)
	return nil
}

// Stop ends capture callbacks. Calling it when not recording is a no-op.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopLocked()
}

func (r *Recorder) stopLocked() error {
	if !r.recording.Load() {
		return nil
	}
	r.recording.Store(false)
	if err := r.stream.Stop(); err != nil {
		return fmt.Errorf("stop input stream: %w", err)
	}
	return nil
}

// Close stops capture, closes the stream and releases the host. It is safe
// to call more than once.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var firstErr error
	if err := r.stopLocked(); err != nil {
		firstErr = err
	}
	if r.stream != nil {
		if err := r.stream.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close input stream: %w", err)
		}
		r.stream = nil
	}
	if err := r.host.Terminate(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("terminate audio host: %w", err)
	}

	log.Printf("Recording: closed after %d callback batches", r.batches.Load())
	return firstErr
}

func (r *Recorder) IsRecording() bool {
	return r.recording.Load()
}

func (r *Recorder) Device() Device {
	return r.device
}

// Batches reports how many callback batches have been delivered.
func (r *Recorder) Batches() uint64 {
	return r.batches.Load()
}

// Devices lists the input-capable devices of host.
func Devices(host Host) ([]Device, error) {
	if err := host.Initialize(); err != nil {
		return nil, &DeviceError{Op: "initialize", Err: err}
	}
	defer host.Terminate()

	all, err := host.Devices()
	if err != nil {
		return nil, &DeviceError{Op: "list devices", Err: err}
	}
	var inputs []Device
	for _, d := range all {
		if d.MaxInputChannels > 0 {
			inputs = append(inputs, d)
		}
	}
	return inputs, nil
}

func (c Config) validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("invalid SampleRate: %d", c.SampleRate)
	}
	if c.Channels != 1 {
		return fmt.Errorf("invalid Channels: %d (only mono capture is supported)", c.Channels)
	}
	if c.FramesPerBuffer <= 0 {
		return fmt.Errorf("invalid FramesPerBuffer: %d", c.FramesPerBuffer)
	}
	return nil
}
