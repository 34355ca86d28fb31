package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/dermasim/internal/landmark"
)

// Conn is the subset of *websocket.Conn a session needs
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// FrameProcessor turns one inbound frame into the outbound pair.
// *landmark.Processor implements it.
type FrameProcessor interface {
	ProcessFrame(ctx context.Context, frame []byte, cache *landmark.Cache, sites []landmark.Site) (*landmark.FrameResult, error)
}

// SessionConfig bounds a streaming session
type SessionConfig struct {
	IdleTimeout  time.Duration // Max wait for the next inbound message
	WriteTimeout time.Duration
	FrameTimeout time.Duration // Detection + annotation budget per frame
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		IdleTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Second,
		FrameTimeout: 10 * time.Second,
	}
}

// Session is one streaming connection. It owns its landmark cache, which
// lives exactly as long as the connection.
type Session struct {
	id        uuid.UUID
	conn      Conn
	processor FrameProcessor
	sites     []landmark.Site
	cache     *landmark.Cache
	config    SessionConfig
	logger    *slog.Logger

	state     atomic.Int32
	closeOnce sync.Once
	frames    atomic.Int64
}

func NewSession(conn Conn, processor FrameProcessor, sites []landmark.Site, config SessionConfig, logger *slog.Logger) *Session {
	id := uuid.New()
	return &Session{
		id:        id,
		conn:      conn,
		processor: processor,
		sites:     sites,
		cache:     landmark.NewCache(),
		config:    config,
		logger:    logger.With("session_id", id.String()),
	}
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

func (s *Session) State() State {
	return State(s.state.Load())
}

// Frames returns how many frames were answered
func (s *Session) Frames() int64 {
	return s.frames.Load()
}

// Run reads frames until the peer disconnects or a frame fails. Text
// messages are ignored. A failing frame closes the connection.
func (s *Session) Run(ctx context.Context) error {
	defer s.Close(CloseNormal, "")

	for s.State() == StateOpen {
		if s.config.IdleTimeout > 0 {
			_ = s.conn.SetReadDeadline(time.Now().Add(s.config.IdleTimeout))
		}

		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if s.State() == StateClosed || errors.Is(err, io.EOF) ||
				websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}

		if messageType != websocket.BinaryMessage {
			continue
		}

		if err := s.handleFrame(ctx, data); err != nil {
			if errors.Is(err, errSessionClosed) {
				return nil
			}
			code, reason := closeCodeFor(err)
			s.logger.Warn("frame failed, closing session", "error", err, "code", reason)
			s.Close(code, reason)
			return err
		}
	}

	return nil
}

func (s *Session) handleFrame(ctx context.Context, frame []byte) error {
	frameCtx := ctx
	if s.config.FrameTimeout > 0 {
		var cancel context.CancelFunc
		frameCtx, cancel = context.WithTimeout(ctx, s.config.FrameTimeout)
		defer cancel()
	}

	result, err := s.processor.ProcessFrame(frameCtx, frame, s.cache, s.sites)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(result.Message)
	if err != nil {
		return err
	}

	// JSON first, then the annotated frame
	if err := s.write(websocket.TextMessage, payload); err != nil {
		return err
	}
	if err := s.write(websocket.BinaryMessage, result.JPEG); err != nil {
		return err
	}

	s.frames.Add(1)
	return nil
}

func (s *Session) write(messageType int, data []byte) error {
	if s.State() == StateClosed {
		return errSessionClosed
	}
	if s.config.WriteTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	}
	return s.conn.WriteMessage(messageType, data)
}

// Close moves the session to Closed, sends a close frame and closes the
// connection. Only the first call has an effect.
func (s *Session) Close(code int, reason string) {
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateClosed))

		deadline := time.Now().Add(time.Second)
		_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
		_ = s.conn.Close()

		s.logger.Debug("session closed", "frames", s.frames.Load())
	})
}

var errSessionClosed = errors.New("session closed")
