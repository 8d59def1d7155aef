// Package session orchestrates capture, playback and the remote channel
// under an explicit connection state machine.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/souschef-live/souschef/internal/capture"
	"github.com/souschef-live/souschef/internal/channel"
	"github.com/souschef-live/souschef/internal/pcm"
	"github.com/souschef-live/souschef/internal/playback"
)

// Status is the connection lifecycle state.
type Status int

const (
	Disconnected Status = iota
	Connecting
	Connected
	Error
)

func (s Status) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Callbacks surface session health to the caller. Status changes are the
// sole signal of health; the Error status always arrives with a message.
type Callbacks struct {
	OnStatus func(Status)
	OnLevel  func(float64)
	OnError  func(message string)
}

// Config wires a Controller to its devices and transport.
type Config struct {
	Microphone capture.Microphone
	Camera     capture.Camera // optional
	NewOutput  func() (playback.Output, error)
	Channel    channel.Channel
	Logger     zerolog.Logger
	Callbacks  Callbacks

	// Live holds the remote session parameters. SystemInstruction is
	// derived from the recipe context at connect time and overwritten.
	Live channel.Config

	// Capture holds the device constraints for each session generation.
	Capture capture.Constraints

	// OutputSampleRate is the fallback playback rate when an inbound
	// payload's MIME tag carries none. Defaults to 24000.
	OutputSampleRate int

	// PlaybackClock is injectable for tests; nil means the system clock.
	PlaybackClock playback.Clock
}

// Controller drives a single live cooking-assistance session. Exactly one
// session is connecting or connected at a time; status is mutated here and
// nowhere else.
type Controller struct {
	cfg Config
	log zerolog.Logger

	mu          sync.Mutex
	status      Status
	recipe      string
	pipeline    *capture.Pipeline
	scheduler   *playback.Scheduler
	videoSource capture.FrameSource
}

func New(cfg Config) *Controller {
	if cfg.OutputSampleRate == 0 {
		cfg.OutputSampleRate = 24000
	}
	return &Controller{
		cfg:    cfg,
		log:    cfg.Logger,
		status: Disconnected,
	}
}

// Status reports the current session state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Connect starts a session for the given recipe context: it acquires the
// output device, opens the capture pipeline and connects the channel.
// Status becomes Connected only once the server acknowledges the session.
func (c *Controller) Connect(recipeContext string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == Connecting || c.status == Connected {
		return fmt.Errorf("session already active")
	}

	c.recipe = recipeContext
	c.setStatusLocked(Connecting)
	c.log.Info().Msg("Connecting session")

	out, err := c.cfg.NewOutput()
	if err != nil {
		return c.failLocked(err, classifyDeviceMessage(err))
	}
	c.scheduler = playback.NewScheduler(playback.SchedulerConfig{
		Output: out,
		Clock:  c.cfg.PlaybackClock,
		Logger: c.log,
	})

	c.pipeline = capture.NewPipeline(capture.PipelineConfig{
		Microphone: c.cfg.Microphone,
		Camera:     c.cfg.Camera,
		Logger:     c.log,
		Emit:       c.cfg.Channel.Send,
		OnLevel:    c.cfg.Callbacks.OnLevel,
	})
	if err := c.pipeline.Open(c.cfg.Capture); err != nil {
		return c.failLocked(err, classifyDeviceMessage(err))
	}

	live := c.cfg.Live
	live.SystemInstruction = systemInstruction(recipeContext)

	err = c.cfg.Channel.Connect(context.Background(), live, channel.Callbacks{
		OnOpen:    c.onChannelOpen,
		OnMessage: c.onChannelMessage,
		OnClose:   c.onChannelClose,
		OnError:   c.onChannelError,
	})
	if err != nil {
		return c.failLocked(err, "Connection to the assistant failed: "+err.Error())
	}

	// Video emission is wired separately; it never gates Connecting.
	if c.videoSource != nil {
		c.pipeline.StartVideo(c.videoSource)
	}
	return nil
}

// StartVideoLoop attaches the video tap to a render target. May be called
// before or after Connect; the tap follows the active pipeline.
func (c *Controller) StartVideoLoop(source capture.FrameSource) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.videoSource = source
	if c.pipeline != nil && source != nil {
		c.pipeline.StartVideo(source)
	}
}

// SwitchDevice flips the camera facing and reacquires capture devices.
// Valid only while Connecting or Connected; session status is unchanged.
func (c *Controller) SwitchDevice() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status != Connecting && c.status != Connected {
		return fmt.Errorf("cannot switch devices while %s", c.status)
	}
	return c.pipeline.SwitchDevice(c.pipeline.Facing().Flip())
}

// Disconnect tears the session down from any state and forces
// Disconnected. Every acquired resource is released.
func (c *Controller) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.log.Info().Msg("Disconnecting session")
	c.cfg.Channel.Close()
	c.releaseLocked()
	c.setStatusLocked(Disconnected)
}

// Reconnect is disconnect plus a fresh connect with the same recipe
// context. The controller never reconnects on its own; loss of connection
// is always surfaced and retried by explicit caller action.
func (c *Controller) Reconnect() error {
	c.mu.Lock()
	recipe := c.recipe
	c.mu.Unlock()

	c.Disconnect()
	return c.Connect(recipe)
}

// Channel event handlers. These run on channel goroutines and serialize
// onto session state through the controller mutex.

func (c *Controller) onChannelOpen() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status != Connecting {
		// Disconnected (or failed) while the handshake was in flight.
		return
	}
	c.setStatusLocked(Connected)
	c.log.Info().Msg("Session connected")
}

func (c *Controller) onChannelMessage(msg channel.Message) {
	c.mu.Lock()
	scheduler := c.scheduler
	rate := c.cfg.OutputSampleRate
	c.mu.Unlock()

	if scheduler == nil {
		return
	}

	if msg.Interrupted {
		// Reset scheduling without decoding anything.
		scheduler.Interrupt()
		return
	}
	if msg.AudioData == "" {
		return
	}

	data, err := pcm.DecodeString(msg.AudioData)
	if err != nil {
		// A single bad segment never ends the session.
		c.log.Warn().Err(err).Msg("Dropping undecodable audio segment")
		return
	}
	if r := mimeRate(msg.AudioMIME); r > 0 {
		rate = r
	}
	scheduler.Enqueue(playback.Segment{
		Samples:  pcm.PCM16ToFloat(data),
		Duration: pcm.Duration(len(data), rate),
	})
}

func (c *Controller) onChannelClose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.log.Info().Msg("Session closed by server")
	c.releaseLocked()
	c.setStatusLocked(Disconnected)
}

func (c *Controller) onChannelError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.failLocked(err, "Connection to the assistant failed: "+err.Error())
}

// failLocked releases every partially acquired resource, transitions to
// Error and surfaces a classified message.
func (c *Controller) failLocked(err error, message string) error {
	c.log.Error().Err(err).Msg("Session failed")
	c.cfg.Channel.Close()
	c.releaseLocked()
	c.setStatusLocked(Error)
	if c.cfg.Callbacks.OnError != nil {
		c.cfg.Callbacks.OnError(message)
	}
	return err
}

func (c *Controller) releaseLocked() {
	if c.pipeline != nil {
		c.pipeline.Close()
		c.pipeline = nil
	}
	if c.scheduler != nil {
		c.scheduler.Close()
		c.scheduler = nil
	}
}

func (c *Controller) setStatusLocked(s Status) {
	if c.status == s {
		return
	}
	c.status = s
	if c.cfg.Callbacks.OnStatus != nil {
		c.cfg.Callbacks.OnStatus(s)
	}
}

// classifyDeviceMessage distinguishes permission denial from absent
// hardware from everything else, so the caller can present actionable
// guidance.
func classifyDeviceMessage(err error) string {
	switch {
	case errors.Is(err, capture.ErrPermissionDenied):
		return "Microphone or camera access was denied. Grant permission and reconnect."
	case errors.Is(err, capture.ErrDeviceUnavailable):
		return "No microphone or camera was found. Connect a device and reconnect."
	default:
		return "Could not start audio or video capture: " + err.Error()
	}
}

// mimeRate extracts the sample rate from a tag like "audio/pcm;rate=24000".
func mimeRate(mime string) int {
	_, after, found := strings.Cut(mime, "rate=")
	if !found {
		return 0
	}
	if i := strings.IndexByte(after, ';'); i >= 0 {
		after = after[:i]
	}
	rate, err := strconv.Atoi(after)
	if err != nil {
		return 0
	}
	return rate
}
