package diffusion

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/saturnino-fabrica-de-software/dermasim/internal/provider/sidecar"
)

// AllocConfHeader carries the device allocator setting to the sidecar
const AllocConfHeader = "X-Pytorch-Cuda-Alloc-Conf"

// Config holds the configuration for the diffusion sidecar client
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
	AllocConf  string
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaseURL:    "http://localhost:7860",
		Timeout:    3 * time.Minute,
		RetryCount: 2,
		AllocConf:  "max_split_size_mb:128",
	}
}

// Client is the HTTP client for the diffusion sidecar
type Client struct {
	http *sidecar.Client
}

// NewClient creates a new diffusion client
func NewClient(config Config) *Client {
	headers := map[string]string{}
	if config.AllocConf != "" {
		headers[AllocConfHeader] = config.AllocConf
	}

	return &Client{
		http: sidecar.NewClient(sidecar.Config{
			Name:       "diffusion",
			BaseURL:    config.BaseURL,
			Timeout:    config.Timeout,
			RetryCount: config.RetryCount,
			Headers:    headers,
		}),
	}
}

// Img2Img calls POST /img2img. Generation is never retried.
func (c *Client) Img2Img(ctx context.Context, req Img2ImgRequest) (*Img2ImgResponse, error) {
	var resp Img2ImgResponse
	if err := c.http.Do(ctx, http.MethodPost, "/img2img", req, &resp); err != nil {
		return nil, fmt.Errorf("img2img: %w", err)
	}
	return &resp, nil
}

// Release calls POST /release to empty the device cache
func (c *Client) Release(ctx context.Context) (*ReleaseResponse, error) {
	var resp ReleaseResponse
	if err := c.http.DoWithRetry(ctx, http.MethodPost, "/release", nil, &resp); err != nil {
		return nil, fmt.Errorf("release: %w", err)
	}
	return &resp, nil
}

// Health calls GET /health
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.http.DoWithRetry(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return nil, fmt.Errorf("health: %w", err)
	}
	if resp.Status != "ok" {
		return &resp, fmt.Errorf("%w: status %q", ErrNotReady, resp.Status)
	}
	return &resp, nil
}
