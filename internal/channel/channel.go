// Package channel owns the duplex network connection to the remote
// multimodal inference service.
package channel

import (
	"context"
	"errors"
	"time"

	"github.com/souschef-live/souschef/internal/capture"
)

// ErrChannelClosed is reported when the transport fails or the server
// rejects the session.
var ErrChannelClosed = errors.New("channel closed")

// Config describes one remote session.
type Config struct {
	Endpoint          string
	APIKey            string
	Model             string
	Voice             string
	SystemInstruction string
	HandshakeTimeout  time.Duration

	// WriteTimeout bounds every socket write so a stalled peer cannot
	// block Send or Close. Defaults to 5s.
	WriteTimeout time.Duration
}

// Message is one inbound unit from the server: an audio payload, an
// interruption signal, or both are absent for messages that carry neither.
// Close and error signals surface through the Callbacks instead.
type Message struct {
	// AudioMIME and AudioData carry one decodable segment of synthesized
	// audio. AudioData is still transport-encoded; decoding is the
	// consumer's concern so a bad payload can be dropped locally.
	AudioMIME string
	AudioData string

	// Interrupted means the user spoke over the assistant; playback
	// scheduling must reset immediately.
	Interrupted bool

	// TurnComplete marks the end of a server turn.
	TurnComplete bool
}

// Callbacks are invoked asynchronously as channel events occur. The
// caller must not assume readiness until OnOpen fires.
type Callbacks struct {
	OnOpen    func()
	OnMessage func(Message)
	OnClose   func()
	OnError   func(error)
}

// Channel is the duplex transport. Send is best-effort fire-and-forget:
// frames offered before OnOpen or after close are silently dropped.
type Channel interface {
	Connect(ctx context.Context, cfg Config, cb Callbacks) error
	Send(frame capture.Frame)
	Close() error
}
