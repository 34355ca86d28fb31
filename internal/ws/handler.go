package ws

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/saturnino-fabrica-de-software/dermasim/internal/audit"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/domain"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/landmark"
)

const (
	localSites     = "ws_sites"
	localIP        = "ws_ip"
	localUserAgent = "ws_user_agent"

	// DefaultMaxFrameBytes caps a single inbound frame
	DefaultMaxFrameBytes = 4 << 20
)

// HandlerConfig wires the streaming endpoint
type HandlerConfig struct {
	Session       SessionConfig
	MaxFrameBytes int64
	Backend       string // detector backend name, for audit
}

// Handler upgrades the connection and runs one Session on it
func Handler(registry *Registry, processor FrameProcessor, auditLogger audit.Logger, config HandlerConfig, logger *slog.Logger) fiber.Handler {
	if config.MaxFrameBytes <= 0 {
		config.MaxFrameBytes = DefaultMaxFrameBytes
	}
	logger = logger.With("component", "ws")

	return websocket.New(func(c *websocket.Conn) {
		sites, ok := c.Locals(localSites).([]landmark.Site)
		if !ok {
			sites = landmark.Sites()
		}
		ip, _ := c.Locals(localIP).(string)
		userAgent, _ := c.Locals(localUserAgent).(string)

		c.SetReadLimit(config.MaxFrameBytes)

		session := NewSession(c, processor, sites, config.Session, logger)
		if !registry.Add(session) {
			session.Close(CloseGoingAway, "server shutting down")
			return
		}
		defer registry.Remove(session.ID())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		logEvent(ctx, auditLogger, audit.Event{
			EventType: audit.EventSessionOpened,
			SubjectID: session.ID().String(),
			Backend:   config.Backend,
			Success:   true,
			IPAddress: ip,
			UserAgent: userAgent,
		}, logger)

		err := session.Run(ctx)

		closed := audit.Event{
			EventType: audit.EventSessionClosed,
			SubjectID: session.ID().String(),
			Backend:   config.Backend,
			Success:   err == nil,
			IPAddress: ip,
			Metadata:  map[string]string{"frames": strconv.FormatInt(session.Frames(), 10)},
		}
		if err != nil {
			_, closed.Error = closeCodeFor(err)
		}
		logEvent(ctx, auditLogger, closed, logger)
	})
}

// UpgradeMiddleware rejects non-upgrade requests and resolves the optional
// ?area= filter before the connection is upgraded
func UpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		sites := landmark.Sites()
		if area := c.Query("area"); area != "" {
			var ok bool
			sites, ok = landmark.SitesForArea(area)
			if !ok {
				return domain.ErrUnknownTreatmentArea
			}
		}

		c.Locals(localSites, sites)
		c.Locals(localIP, c.IP())
		c.Locals(localUserAgent, c.Get(fiber.HeaderUserAgent))
		return c.Next()
	}
}

func logEvent(ctx context.Context, l audit.Logger, event audit.Event, logger *slog.Logger) {
	if l == nil {
		return
	}
	if err := l.Log(ctx, event); err != nil {
		logger.Warn("failed to write audit event", "error", err)
	}
}
