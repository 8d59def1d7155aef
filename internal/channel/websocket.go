package channel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/souschef-live/souschef/internal/capture"
	"github.com/souschef-live/souschef/internal/pcm"
)

type wsChannel struct {
	log zerolog.Logger

	mu           sync.Mutex
	writeMu      sync.Mutex
	conn         *websocket.Conn
	connectID    string
	writeTimeout time.Duration
	open         bool // setup acknowledged by the server
	closed       bool
	cb           Callbacks
}

// NewWebSocket creates a WebSocket-based Channel. A single value supports
// repeated connect/close cycles, one session at a time.
func NewWebSocket(log zerolog.Logger) Channel {
	return &wsChannel{log: log}
}

// Connect starts the handshake in the background. OnOpen fires once the
// server acknowledges the setup payload; failures surface via OnError.
func (c *wsChannel) Connect(ctx context.Context, cfg Config, cb Callbacks) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return fmt.Errorf("channel already connected")
	}
	c.cb = cb
	c.closed = false
	c.open = false
	c.connectID = uuid.New().String()
	c.writeTimeout = cfg.WriteTimeout
	if c.writeTimeout == 0 {
		c.writeTimeout = 5 * time.Second
	}

	go c.dialAndRun(ctx, cfg, c.connectID)
	return nil
}

func (c *wsChannel) dialAndRun(ctx context.Context, cfg Config, connectID string) {
	timeout := cfg.HandshakeTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	dialer := websocket.Dialer{HandshakeTimeout: timeout}

	url := cfg.Endpoint
	if cfg.APIKey != "" {
		url += "?key=" + cfg.APIKey
	}

	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		c.reportError(connectID, fmt.Errorf("failed to connect: %w", err))
		return
	}

	c.mu.Lock()
	if c.closed || c.connectID != connectID {
		// Closed while dialing
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.mu.Unlock()

	setup := setupMessage{
		Setup: setupPayload{
			Model: cfg.Model,
			GenerationConfig: generationConfig{
				ResponseModalities: []string{"AUDIO"},
			},
		},
	}
	if cfg.Voice != "" {
		setup.Setup.GenerationConfig.SpeechConfig = &speechConfig{
			VoiceConfig: voiceConfig{
				PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: cfg.Voice},
			},
		}
	}
	if cfg.SystemInstruction != "" {
		setup.Setup.SystemInstruction = &content{
			Parts: []part{{Text: cfg.SystemInstruction}},
		}
	}

	if err := c.writeJSON(setup); err != nil {
		c.reportError(connectID, fmt.Errorf("failed to send setup: %w", err))
		c.teardown(connectID)
		return
	}

	c.readLoop(connectID)
}

func (c *wsChannel) readLoop(connectID string) {
	for {
		c.mu.Lock()
		conn := c.conn
		stale := c.closed || c.connectID != connectID
		c.mu.Unlock()
		if stale || conn == nil {
			return
		}

		var msg serverMessage
		if err := conn.ReadJSON(&msg); err != nil {
			c.mu.Lock()
			closedLocally := c.closed || c.connectID != connectID
			cb := c.cb
			c.mu.Unlock()
			if closedLocally {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.teardown(connectID)
				if cb.OnClose != nil {
					cb.OnClose()
				}
				return
			}
			c.teardown(connectID)
			if cb.OnError != nil {
				cb.OnError(fmt.Errorf("%w: %v", ErrChannelClosed, err))
			}
			return
		}

		c.dispatch(connectID, &msg)
	}
}

func (c *wsChannel) dispatch(connectID string, msg *serverMessage) {
	c.mu.Lock()
	cb := c.cb
	c.mu.Unlock()

	switch {
	case msg.SetupComplete != nil:
		c.mu.Lock()
		justOpened := false
		if !c.open && !c.closed && c.connectID == connectID {
			c.open = true
			justOpened = true
		}
		c.mu.Unlock()
		if justOpened {
			c.log.Debug().Str("connect_id", connectID).Msg("Channel open")
			if cb.OnOpen != nil {
				cb.OnOpen()
			}
		}

	case msg.GoAway != nil:
		c.teardown(connectID)
		if cb.OnClose != nil {
			cb.OnClose()
		}

	case msg.Error != nil:
		c.teardown(connectID)
		if cb.OnError != nil {
			cb.OnError(fmt.Errorf("%w: server error %d: %s", ErrChannelClosed, msg.Error.Code, msg.Error.Message))
		}

	case msg.ServerContent != nil:
		out := Message{
			Interrupted:  msg.ServerContent.Interrupted,
			TurnComplete: msg.ServerContent.TurnComplete,
		}
		if turn := msg.ServerContent.ModelTurn; turn != nil && !out.Interrupted {
			for _, p := range turn.Parts {
				if p.InlineData != nil {
					out.AudioMIME = p.InlineData.MIMEType
					out.AudioData = p.InlineData.Data
					break
				}
			}
		}
		if cb.OnMessage != nil {
			cb.OnMessage(out)
		}
	}
}

// Send offers one capture frame to the remote session. If the channel is
// not open, or the write fails, the frame is dropped: stale real-time
// frames have no value, so drops are preferred over blocking.
func (c *wsChannel) Send(frame capture.Frame) {
	c.mu.Lock()
	if !c.open || c.conn == nil || c.closed {
		c.mu.Unlock()
		c.log.Trace().Str("mime", frame.MIME).Msg("Frame dropped, channel not open")
		return
	}
	conn := c.conn
	timeout := c.writeTimeout
	c.mu.Unlock()

	msg := realtimeInputMessage{
		RealtimeInput: realtimeInput{
			MediaChunks: []blob{{
				MIMEType: frame.MIME,
				Data:     pcm.EncodeString(frame.Data),
			}},
		},
	}

	c.writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(timeout))
	err := conn.WriteJSON(msg)
	c.writeMu.Unlock()
	if err != nil {
		c.log.Trace().Err(err).Msg("Frame dropped, write failed")
	}
}

// Close requests a graceful shutdown. Idempotent, safe when no handle
// exists, and suppresses callbacks for the torn-down session.
func (c *wsChannel) Close() error {
	c.mu.Lock()
	if c.closed && c.conn == nil {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.open = false
	conn := c.conn
	c.conn = nil
	timeout := c.writeTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	c.mu.Unlock()

	if conn != nil {
		c.writeMu.Lock()
		conn.SetWriteDeadline(time.Now().Add(timeout))
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		conn.Close()
	}
	return nil
}

// teardown drops the connection for one connect generation without
// marking the channel locally closed, so callbacks still fire.
func (c *wsChannel) teardown(connectID string) {
	c.mu.Lock()
	if c.connectID != connectID {
		c.mu.Unlock()
		return
	}
	c.open = false
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

func (c *wsChannel) writeJSON(v interface{}) error {
	c.mu.Lock()
	conn := c.conn
	timeout := c.writeTimeout
	c.mu.Unlock()
	if conn == nil {
		return ErrChannelClosed
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(timeout))
	return conn.WriteJSON(v)
}

func (c *wsChannel) reportError(connectID string, err error) {
	c.mu.Lock()
	suppressed := c.closed || c.connectID != connectID
	cb := c.cb
	c.mu.Unlock()
	if suppressed {
		return
	}
	c.log.Debug().Err(err).Msg("Channel error")
	if cb.OnError != nil {
		cb.OnError(err)
	}
}
