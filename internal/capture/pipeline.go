package capture

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/souschef-live/souschef/internal/pcm"
)

// Constraints describe one device generation: which microphone, at what
// rate and chunk size, and which way the camera faces.
type Constraints struct {
	DeviceID   string
	SampleRate int
	ChunkSize  int
	Facing     Facing
}

// PipelineConfig wires a Pipeline to its devices and consumers.
type PipelineConfig struct {
	Microphone Microphone
	Camera     Camera // optional
	Logger     zerolog.Logger

	// Emit receives every outbound Frame. It must not block; frames are
	// handed off one at a time and never retained.
	Emit func(Frame)

	// OnLevel receives the RMS level of each audio chunk. Optional.
	OnLevel func(float64)

	// JPEGQuality is the still-image quality (1-100). Defaults to 40,
	// trading fidelity for bandwidth.
	JPEGQuality int

	// VideoInterval is the still-frame cadence. Defaults to one second.
	VideoInterval time.Duration
}

// generation is one lifetime of acquired devices. Switching devices builds
// a new generation and swaps it in; releasing the old one is part of the
// swap, never a separately-timed side effect.
type generation struct {
	id     string
	cons   Constraints
	cancel context.CancelFunc
}

// Pipeline owns the microphone and camera for the active session and turns
// them into a stream of outbound Frames plus a volume metric.
type Pipeline struct {
	mic     Microphone
	camera  Camera
	log     zerolog.Logger
	emit    func(Frame)
	onLevel func(float64)

	jpegQuality   int
	videoInterval time.Duration

	mu        sync.Mutex
	gen       *generation
	videoStop chan struct{}
}

// NewPipeline creates a closed Pipeline. Call Open to acquire devices.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.JPEGQuality == 0 {
		cfg.JPEGQuality = 40
	}
	if cfg.VideoInterval == 0 {
		cfg.VideoInterval = time.Second
	}
	emit := cfg.Emit
	if emit == nil {
		emit = func(Frame) {}
	}
	return &Pipeline{
		mic:           cfg.Microphone,
		camera:        cfg.Camera,
		log:           cfg.Logger,
		emit:          emit,
		onLevel:       cfg.OnLevel,
		jpegQuality:   cfg.JPEGQuality,
		videoInterval: cfg.VideoInterval,
	}
}

// Open acquires the microphone (and camera, if configured) and starts the
// audio tap. Failures are classified as ErrPermissionDenied or
// ErrDeviceUnavailable; any partially acquired device is released.
func (p *Pipeline) Open(cons Constraints) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.gen != nil {
		return fmt.Errorf("pipeline already open")
	}
	return p.openLocked(cons)
}

func (p *Pipeline) openLocked(cons Constraints) error {
	if cons.SampleRate == 0 {
		cons.SampleRate = 16000
	}
	if cons.ChunkSize == 0 {
		cons.ChunkSize = 4096
	}
	if cons.Facing == "" {
		cons.Facing = FacingUser
	}

	ctx, cancel := context.WithCancel(context.Background())

	chunks := make(chan []float32, 8)
	if err := p.mic.Start(ctx, cons.DeviceID, cons.SampleRate, cons.ChunkSize, chunks); err != nil {
		cancel()
		return err
	}

	if p.camera != nil {
		if err := p.camera.Open(cons.Facing); err != nil {
			cancel()
			p.mic.Stop()
			return err
		}
	}

	gen := &generation{
		id:     uuid.New().String(),
		cons:   cons,
		cancel: cancel,
	}
	p.gen = gen

	go p.audioTap(ctx, cons.SampleRate, chunks)

	p.log.Debug().Str("generation", gen.id).Str("facing", string(cons.Facing)).Msg("Capture devices acquired")
	return nil
}

// audioTap drains microphone chunks, computes the level, converts to the
// wire format and emits one Frame per chunk. Nothing is buffered beyond
// the in-flight chunk.
func (p *Pipeline) audioTap(ctx context.Context, sampleRate int, chunks <-chan []float32) {
	mime := fmt.Sprintf("audio/pcm;rate=%d", sampleRate)
	for {
		select {
		case <-ctx.Done():
			return
		case samples, ok := <-chunks:
			if !ok {
				return
			}
			if p.onLevel != nil {
				p.onLevel(RMS(samples))
			}
			p.emit(Frame{
				MIME: mime,
				Data: pcm.PCM16Bytes(pcm.FloatToPCM16(samples)),
			})
		}
	}
}

// StartVideo begins the still-frame tap against the given render target.
// Ticks where the source has no frame yet, or the pipeline is not open,
// are skipped rather than treated as errors.
func (p *Pipeline) StartVideo(source FrameSource) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.videoStop != nil || source == nil {
		return
	}
	stop := make(chan struct{})
	p.videoStop = stop

	go func() {
		ticker := time.NewTicker(p.videoInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				p.videoTick(source)
			}
		}
	}()
}

func (p *Pipeline) videoTick(source FrameSource) {
	p.mu.Lock()
	open := p.gen != nil
	quality := p.jpegQuality
	p.mu.Unlock()
	if !open {
		return
	}

	img, err := source.Frame()
	if err != nil || img == nil {
		return
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		// Device still warming up
		return
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		p.log.Warn().Err(err).Msg("Frame encode failed")
		return
	}
	p.emit(Frame{MIME: "image/jpeg", Data: buf.Bytes()})
}

// SwitchDevice stops the current device generation, flips the camera
// facing and reacquires devices under the new constraints. The audio tap
// is re-established against the new stream; the video tap keeps reading
// from its render target, which follows the reopened camera.
func (p *Pipeline) SwitchDevice(facing Facing) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.gen == nil {
		return fmt.Errorf("pipeline not open")
	}

	cons := p.gen.cons
	cons.Facing = facing

	p.releaseLocked()
	return p.openLocked(cons)
}

// Facing reports the active camera facing, or the zero value when closed.
func (p *Pipeline) Facing() Facing {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gen == nil {
		return ""
	}
	return p.gen.cons.Facing
}

// Close releases all device handles and stops both taps. Safe to call
// multiple times and on every session-ending path.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.videoStop != nil {
		close(p.videoStop)
		p.videoStop = nil
	}
	p.releaseLocked()
	return nil
}

func (p *Pipeline) releaseLocked() {
	if p.gen == nil {
		return
	}
	gen := p.gen
	p.gen = nil

	gen.cancel()
	p.mic.Stop()
	if p.camera != nil {
		p.camera.Close()
	}
	p.log.Debug().Str("generation", gen.id).Msg("Capture devices released")
}
