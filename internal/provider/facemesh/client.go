package facemesh

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/saturnino-fabrica-de-software/dermasim/internal/provider/sidecar"
)

// Config holds the configuration for the face-mesh sidecar client
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	RetryCount    int
	MaxFaces      int
	MinConfidence float64
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaseURL:       "http://localhost:5010",
		Timeout:       2 * time.Second,
		RetryCount:    0,
		MaxFaces:      1,
		MinConfidence: 0.5,
	}
}

// LandmarksRequest for POST /landmarks
type LandmarksRequest struct {
	Image         string  `json:"image"` // base64 encoded JPEG
	MaxFaces      int     `json:"max_num_faces"`
	MinConfidence float64 `json:"min_detection_confidence"`
}

// LandmarksResponse from POST /landmarks. Each face is the full mesh,
// position i holding landmark i.
type LandmarksResponse struct {
	Faces [][]Landmark `json:"faces"`
}

type Landmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Client is the HTTP client for the face-mesh sidecar
type Client struct {
	http   *sidecar.Client
	config Config
}

// NewClient creates a new face-mesh client
func NewClient(config Config) *Client {
	return &Client{
		http: sidecar.NewClient(sidecar.Config{
			Name:        "facemesh",
			BaseURL:     config.BaseURL,
			Timeout:     config.Timeout,
			RetryCount:  config.RetryCount,
			BaseBackoff: 100 * time.Millisecond,
		}),
		config: config,
	}
}

// Landmarks calls POST /landmarks
func (c *Client) Landmarks(ctx context.Context, imageBase64 string) (*LandmarksResponse, error) {
	req := LandmarksRequest{
		Image:         imageBase64,
		MaxFaces:      c.config.MaxFaces,
		MinConfidence: c.config.MinConfidence,
	}

	var resp LandmarksResponse
	if err := c.http.DoWithRetry(ctx, http.MethodPost, "/landmarks", req, &resp); err != nil {
		return nil, fmt.Errorf("landmarks: %w", err)
	}
	return &resp, nil
}

// Health calls GET /health
func (c *Client) Health(ctx context.Context) error {
	if err := c.http.Do(ctx, http.MethodGet, "/health", nil, nil); err != nil {
		return fmt.Errorf("health: %w", err)
	}
	return nil
}
