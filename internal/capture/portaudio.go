package capture

import (
	"context"
	"fmt"
	"strings"

	"github.com/gordonklaus/portaudio"
)

type portAudioMicrophone struct {
	stream *portaudio.Stream
}

// NewMicrophone creates a new PortAudio-based microphone
func NewMicrophone() (Microphone, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return &portAudioMicrophone{}, nil
}

func (p *portAudioMicrophone) Start(ctx context.Context, deviceID string, sampleRate, framesPerBuffer int, out chan<- []float32) error {
	// Find device
	var device *portaudio.DeviceInfo
	if deviceID == "" {
		var err error
		device, err = portaudio.DefaultInputDevice()
		if err != nil {
			return fmt.Errorf("failed to get default input device: %w", classifyDeviceError(err))
		}
	} else {
		devices, err := portaudio.Devices()
		if err != nil {
			return fmt.Errorf("failed to enumerate devices: %w", classifyDeviceError(err))
		}
		for _, d := range devices {
			if d.Name == deviceID {
				device = d
				break
			}
		}
	}

	if device == nil {
		return fmt.Errorf("device %q: %w", deviceID, ErrDeviceUnavailable)
	}

	// Open stream: mono, specified sample rate, float32
	buffer := make([]float32, framesPerBuffer)
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: 1,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      float64(sampleRate),
		FramesPerBuffer: framesPerBuffer,
	}, buffer)

	if err != nil {
		return fmt.Errorf("failed to open audio stream: %w", classifyDeviceError(err))
	}

	p.stream = stream

	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start audio stream: %w", classifyDeviceError(err))
	}

	// Read loop
	go func() {
		defer stream.Close()
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if err := stream.Read(); err != nil {
					return
				}
				// Copy buffer and send
				samples := make([]float32, len(buffer))
				copy(samples, buffer)

				select {
				case out <- samples:
				case <-ctx.Done():
					return
				default:
					// Drop if channel full (backpressure)
				}
			}
		}
	}()

	return nil
}

func (p *portAudioMicrophone) Stop() error {
	if p.stream != nil {
		return p.stream.Stop()
	}
	return nil
}

func (p *portAudioMicrophone) ListDevices() ([]Device, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	result := make([]Device, 0, len(devices))
	defaultDevice, _ := portaudio.DefaultInputDevice()

	for _, d := range devices {
		if d.MaxInputChannels > 0 {
			result = append(result, Device{
				ID:      d.Name,
				Name:    d.Name,
				Default: d == defaultDevice,
			})
		}
	}

	return result, nil
}

func (p *portAudioMicrophone) Close() error {
	if p.stream != nil {
		p.stream.Close()
	}
	portaudio.Terminate()
	return nil
}

// classifyDeviceError maps PortAudio failures onto the capture taxonomy so
// callers can tell a refused grant from absent hardware. The device-level
// detail is kept for logs.
func classifyDeviceError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permission") || strings.Contains(msg, "denied") || strings.Contains(msg, "access"):
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	case strings.Contains(msg, "no device") || strings.Contains(msg, "not found") || strings.Contains(msg, "no default"):
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	default:
		return err
	}
}
