package capture

import (
	"context"
	"image"
)

// Facing selects which side the camera points at.
type Facing string

const (
	FacingUser        Facing = "user"
	FacingEnvironment Facing = "environment"
)

// Flip returns the opposite facing.
func (f Facing) Flip() Facing {
	if f == FacingEnvironment {
		return FacingUser
	}
	return FacingEnvironment
}

// Frame is one unit of captured media ready for transport: a PCM audio
// chunk or an encoded still image, tagged with its MIME type.
type Frame struct {
	MIME string
	Data []byte
}

// Microphone defines the interface for audio capture
type Microphone interface {
	Start(ctx context.Context, deviceID string, sampleRate, framesPerBuffer int, out chan<- []float32) error
	Stop() error
	ListDevices() ([]Device, error)
	Close() error
}

// Camera owns a video input device. Once open it acts as a FrameSource
// for the video tap.
type Camera interface {
	Open(facing Facing) error
	Frame() (image.Image, error)
	Close() error
}

// FrameSource is the render target the video tap reads from each tick.
// A nil image means the device has not produced a frame yet.
type FrameSource interface {
	Frame() (image.Image, error)
}

// Device represents an audio input device
type Device struct {
	ID      string
	Name    string
	Default bool
}
