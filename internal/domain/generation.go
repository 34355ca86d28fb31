package domain

import (
	"time"

	"github.com/google/uuid"
)

// GenerationStatus is the outcome of one /generate/ call
type GenerationStatus string

const (
	GenerationSucceeded GenerationStatus = "succeeded"
	GenerationFailed    GenerationStatus = "failed"
)

// Generation is the history record kept for every synthesis request.
// Images are never persisted, only the parameters and outcome.
type Generation struct {
	ID            uuid.UUID        `json:"id"`
	Area          string           `json:"area"`
	Dosage        int              `json:"dosage"`
	Strength      float64          `json:"strength"`
	GuidanceScale float64          `json:"guidance_scale"`
	Backend       string           `json:"backend"`
	Status        GenerationStatus `json:"status"`
	ErrorCode     string           `json:"error_code,omitempty"`
	InputWidth    int              `json:"input_width"`
	InputHeight   int              `json:"input_height"`
	LatencyMs     int64            `json:"latency_ms"`
	CreatedAt     time.Time        `json:"created_at"`
}
