package facemesh

import (
	"context"
	"encoding/base64"
	"image"

	"github.com/saturnino-fabrica-de-software/dermasim/internal/provider"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/raster"
)

// frameQuality is the JPEG quality frames are re-encoded at before upload
const frameQuality = 90

// Provider implements provider.LandmarkDetector using the face-mesh sidecar
type Provider struct {
	client *Client
}

var (
	_ provider.LandmarkDetector = (*Provider)(nil)
	_ provider.HealthChecker    = (*Provider)(nil)
)

// NewProvider creates a new face-mesh provider
func NewProvider(config Config) *Provider {
	return &Provider{
		client: NewClient(config),
	}
}

// Detect returns the mesh of every face the sidecar found
func (p *Provider) Detect(ctx context.Context, frame image.Image) ([]provider.FaceLandmarks, error) {
	data, err := raster.EncodeJPEG(frame, frameQuality)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Landmarks(ctx, base64.StdEncoding.EncodeToString(data))
	if err != nil {
		return nil, err
	}

	faces := make([]provider.FaceLandmarks, 0, len(resp.Faces))
	for _, mesh := range resp.Faces {
		points := make(map[int]provider.NormalizedPoint, len(mesh))
		for i, lm := range mesh {
			points[i] = provider.NormalizedPoint{X: lm.X, Y: lm.Y, Z: lm.Z}
		}
		faces = append(faces, provider.FaceLandmarks{Points: points})
	}

	return faces, nil
}

// HealthCheck pings the sidecar
func (p *Provider) HealthCheck(ctx context.Context) error {
	return p.client.Health(ctx)
}
