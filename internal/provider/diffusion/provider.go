package diffusion

import (
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/dermasim/internal/provider"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/raster"
)

// Provider implements provider.ImageSynthesizer on top of the diffusion sidecar
type Provider struct {
	client *Client
	logger *slog.Logger
}

var (
	_ provider.ImageSynthesizer = (*Provider)(nil)
	_ provider.HealthChecker    = (*Provider)(nil)
)

// NewProvider creates a new diffusion provider
func NewProvider(config Config, logger *slog.Logger) *Provider {
	return &Provider{
		client: NewClient(config),
		logger: logger.With("component", "diffusion"),
	}
}

// Synthesize sends one img2img request and decodes the returned images
func (p *Provider) Synthesize(ctx context.Context, in provider.SynthesisInput) ([]image.Image, error) {
	png, err := raster.EncodePNG(in.Image)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Img2Img(ctx, Img2ImgRequest{
		Prompt:         in.Prompt,
		NegativePrompt: in.NegativePrompt,
		Image:          base64.StdEncoding.EncodeToString(png),
		Strength:       in.Strength,
		GuidanceScale:  in.GuidanceScale,
		NumImages:      1,
	})
	if err != nil {
		return nil, err
	}

	images := make([]image.Image, 0, len(resp.Images))
	for i, encoded := range resp.Images {
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w: %v", i, ErrInvalidImage, err)
		}
		img, err := raster.DecodeBytes(data)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w: %v", i, ErrInvalidImage, err)
		}
		images = append(images, img)
	}

	return images, nil
}

// ReleaseMemory asks the sidecar to empty its device cache
func (p *Provider) ReleaseMemory(ctx context.Context) error {
	resp, err := p.client.Release(ctx)
	if err != nil {
		return err
	}

	p.logger.Debug("device memory released",
		"allocated_bytes", resp.AllocatedBytes,
		"reserved_bytes", resp.ReservedBytes,
	)
	return nil
}

// HealthCheck reports whether the model is loaded
func (p *Provider) HealthCheck(ctx context.Context) error {
	_, err := p.client.Health(ctx)
	return err
}
