// Package playback owns the audio output device and schedules decoded
// segments for gapless sequential playback.
package playback

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// Output defines the interface for the speaker device
type Output interface {
	Play(samples []float32)
	Close() error
}

type portAudioOutput struct {
	mu     sync.Mutex
	stream *portaudio.Stream
	buffer []float32
	closed bool
}

// NewOutput opens the default output device as a mono float32 stream.
func NewOutput(sampleRate, framesPerBuffer int) (Output, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	buffer := make([]float32, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(sampleRate), framesPerBuffer, &buffer)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open output stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to start output stream: %w", err)
	}

	return &portAudioOutput{stream: stream, buffer: buffer}, nil
}

// Play writes samples to the device in buffer-sized chunks. Writes are
// serialized; a segment that is still draining delays the next one by at
// most its remaining length.
func (o *portAudioOutput) Play(samples []float32) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}

	for len(samples) > 0 {
		n := copy(o.buffer, samples)
		for i := n; i < len(o.buffer); i++ {
			o.buffer[i] = 0
		}
		if err := o.stream.Write(); err != nil {
			return
		}
		samples = samples[n:]
	}
}

func (o *portAudioOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil
	}
	o.closed = true
	o.stream.Close()
	portaudio.Terminate()
	return nil
}
