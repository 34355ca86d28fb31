package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/dermasim/internal/domain"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/repository"
)

// GenerationStore reads generation history
type GenerationStore interface {
	ListRecent(ctx context.Context, limit int) ([]domain.Generation, error)
	CountByStatus(ctx context.Context) (map[domain.GenerationStatus]int, error)
}

// GenerationsHandler serves the history endpoints
type GenerationsHandler struct {
	store  GenerationStore
	logger *slog.Logger
}

func NewGenerationsHandler(store GenerationStore, logger *slog.Logger) *GenerationsHandler {
	return &GenerationsHandler{store: store, logger: logger}
}

type GenerationResponse struct {
	ID            string  `json:"id"`
	Area          string  `json:"area"`
	Dosage        int     `json:"dosage"`
	Strength      float64 `json:"strength"`
	GuidanceScale float64 `json:"guidance_scale"`
	Backend       string  `json:"backend"`
	Status        string  `json:"status"`
	ErrorCode     string  `json:"error_code,omitempty"`
	InputWidth    int     `json:"input_width"`
	InputHeight   int     `json:"input_height"`
	LatencyMs     int64   `json:"latency_ms"`
	CreatedAt     string  `json:"created_at"`
}

type GenerationsListResponse struct {
	Generations []GenerationResponse `json:"generations"`
	Count       int                  `json:"count"`
}

type GenerationStatsResponse struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Total     int `json:"total"`
}

// List GET /generations?limit=N
func (h *GenerationsHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", repository.DefaultListLimit)
	if limit < 1 || limit > repository.MaxListLimit {
		return domain.ErrValidationFailed
	}

	gens, err := h.store.ListRecent(c.UserContext(), limit)
	if err != nil {
		h.logger.Error("failed to list generations", "error", err)
		return domain.ErrInternal.WithError(err)
	}

	resp := GenerationsListResponse{
		Generations: make([]GenerationResponse, 0, len(gens)),
		Count:       len(gens),
	}
	for _, g := range gens {
		resp.Generations = append(resp.Generations, GenerationResponse{
			ID:            g.ID.String(),
			Area:          g.Area,
			Dosage:        g.Dosage,
			Strength:      g.Strength,
			GuidanceScale: g.GuidanceScale,
			Backend:       g.Backend,
			Status:        string(g.Status),
			ErrorCode:     g.ErrorCode,
			InputWidth:    g.InputWidth,
			InputHeight:   g.InputHeight,
			LatencyMs:     g.LatencyMs,
			CreatedAt:     g.CreatedAt.Format(time.RFC3339),
		})
	}

	return c.JSON(resp)
}

// Stats GET /generations/stats
func (h *GenerationsHandler) Stats(c *fiber.Ctx) error {
	counts, err := h.store.CountByStatus(c.UserContext())
	if err != nil {
		h.logger.Error("failed to count generations", "error", err)
		return domain.ErrInternal.WithError(err)
	}

	succeeded := counts[domain.GenerationSucceeded]
	failed := counts[domain.GenerationFailed]

	return c.JSON(GenerationStatsResponse{
		Succeeded: succeeded,
		Failed:    failed,
		Total:     succeeded + failed,
	})
}
