package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

const readyCheckTimeout = 3 * time.Second

// Check reports whether a dependency is usable
type Check func(ctx context.Context) error

type HealthHandler struct {
	version string
	checks  map[string]Check
	order   []string
	stats   map[string]func() any
}

func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{
		version: version,
		checks:  make(map[string]Check),
		stats:   make(map[string]func() any),
	}
}

// WithCheck adds a dependency probed by /ready
func (h *HealthHandler) WithCheck(name string, check Check) *HealthHandler {
	if _, exists := h.checks[name]; !exists {
		h.order = append(h.order, name)
	}
	h.checks[name] = check
	return h
}

// WithStats adds a live value reported by /ready
func (h *HealthHandler) WithStats(name string, fn func() any) *HealthHandler {
	h.stats[name] = fn
	return h
}

type HealthResponse struct {
	Status     string            `json:"status"`
	Version    string            `json:"version,omitempty"`
	Components map[string]string `json:"components,omitempty"`
	Stats      map[string]any    `json:"stats,omitempty"`
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "ok",
		Version: h.version,
	})
}

// Ready answers 503 when any registered check fails
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readyCheckTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ready"}
	status := fiber.StatusOK

	if len(h.order) > 0 {
		resp.Components = make(map[string]string, len(h.order))
	}
	for _, name := range h.order {
		if err := h.checks[name](ctx); err != nil {
			resp.Components[name] = err.Error()
			resp.Status = "unavailable"
			status = fiber.StatusServiceUnavailable
			continue
		}
		resp.Components[name] = "ok"
	}

	if len(h.stats) > 0 {
		resp.Stats = make(map[string]any, len(h.stats))
		for name, fn := range h.stats {
			resp.Stats[name] = fn()
		}
	}

	return c.Status(status).JSON(resp)
}
