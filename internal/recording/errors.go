package recording

import "errors"

// ErrNoDevice is wrapped in a DeviceError when the host reports no usable
// input device.
var ErrNoDevice = errors.New("no input device available")

// DeviceError reports a failure to initialize the audio host or to find an
// input device. Capture never started.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	if e == nil || e.Err == nil {
		return "audio device error"
	}
	return "audio device: " + e.Op + ": " + e.Err.Error()
}

func (e *DeviceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// StreamOpenError reports that the host rejected the stream parameters.
type StreamOpenError struct {
	Device string
	Err    error
}

func (e *StreamOpenError) Error() string {
	if e == nil || e.Err == nil {
		return "open input stream"
	}
	return "open input stream on " + e.Device + ": " + e.Err.Error()
}

func (e *StreamOpenError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsSetupError reports whether err came from opening the capture engine.
func IsSetupError(err error) bool {
	var dev *DeviceError
	var open *StreamOpenError
	return errors.As(err, &dev) || errors.As(err, &open)
}
