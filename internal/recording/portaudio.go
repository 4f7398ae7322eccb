package recording

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// PortAudioHost adapts github.com/gordonklaus/portaudio to Host.
type PortAudioHost struct{}

func NewPortAudioHost() *PortAudioHost {
	return &PortAudioHost{}
}

func (PortAudioHost) Initialize() error {
	return portaudio.Initialize()
}

func (PortAudioHost) Terminate() error {
	return portaudio.Terminate()
}

func (PortAudioHost) Devices() ([]Device, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}

	def, _ := portaudio.DefaultInputDevice()
	devices := make([]Device, 0, len(infos))
	for _, info := range infos {
		devices = append(devices, toDevice(info, def))
	}
	return devices, nil
}

func (PortAudioHost) DefaultInputDevice() (Device, error) {
	info, err := portaudio.DefaultInputDevice()
	if err != nil {
		return Device{}, err
	}
	return toDevice(info, info), nil
}

func (PortAudioHost) OpenInputStream(params StreamParams, callback func(in []float32)) (Stream, error) {
	info, err := lookupDevice(params.Device.Index)
	if err != nil {
		return nil, err
	}

	p := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   info,
			Channels: params.Channels,
			Latency:  params.Latency,
		},
		SampleRate:      params.SampleRate,
		FramesPerBuffer: params.FramesPerBuffer,
		Flags:           portaudio.ClipOff,
	}

	stream, err := portaudio.OpenStream(p, callback)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

func lookupDevice(index int) (*portaudio.DeviceInfo, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		if info.Index == index {
			return info, nil
		}
	}
	return nil, fmt.Errorf("device index %d not found", index)
}

func toDevice(info, def *portaudio.DeviceInfo) Device {
	d := Device{
		Index:             info.Index,
		Name:              info.Name,
		MaxInputChannels:  info.MaxInputChannels,
		DefaultSampleRate: info.DefaultSampleRate,
		LowInputLatency:   info.DefaultLowInputLatency,
		IsDefault:         def != nil && def.Index == info.Index,
	}
	if info.HostApi != nil {
		d.HostAPI = info.HostApi.Name
	}
	return d
}
