package mock

import (
	"context"
	"image"
	"math"
	"sync/atomic"

	"github.com/disintegration/imaging"

	"github.com/saturnino-fabrica-de-software/dermasim/internal/provider"
)

const (
	meshSize = 468

	// minFaceSide: frames menores que isso não têm face
	minFaceSide = 32
)

// Provider implementa ImageSynthesizer e LandmarkDetector para testes e desenvolvimento
type Provider struct {
	synthesized atomic.Int64
	released    atomic.Int64
}

// New cria uma nova instância do MockProvider
func New() *Provider {
	return &Provider{}
}

// Synthesize blurs the input proportionally to strength
func (p *Provider) Synthesize(ctx context.Context, in provider.SynthesisInput) ([]image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.synthesized.Add(1)

	out := imaging.Blur(in.Image, in.Strength*2)
	return []image.Image{out}, nil
}

// ReleaseMemory counts calls
func (p *Provider) ReleaseMemory(ctx context.Context) error {
	p.released.Add(1)
	return nil
}

// Detect places a full mesh on an ellipse centred in the frame
func (p *Provider) Detect(ctx context.Context, frame image.Image) ([]provider.FaceLandmarks, error) {
	b := frame.Bounds()
	if b.Dx() < minFaceSide || b.Dy() < minFaceSide {
		return []provider.FaceLandmarks{}, nil
	}

	points := make(map[int]provider.NormalizedPoint, meshSize)
	for i := 0; i < meshSize; i++ {
		theta := 2 * math.Pi * float64(i) / meshSize
		points[i] = provider.NormalizedPoint{
			X: 0.5 + 0.25*math.Cos(theta),
			Y: 0.5 + 0.3*math.Sin(theta),
		}
	}

	return []provider.FaceLandmarks{{Points: points}}, nil
}

// HealthCheck always succeeds
func (p *Provider) HealthCheck(ctx context.Context) error {
	return nil
}

// Synthesized returns how many times Synthesize ran
func (p *Provider) Synthesized() int64 {
	return p.synthesized.Load()
}

// Released returns how many times ReleaseMemory ran
func (p *Provider) Released() int64 {
	return p.released.Load()
}

var (
	_ provider.ImageSynthesizer = (*Provider)(nil)
	_ provider.LandmarkDetector = (*Provider)(nil)
	_ provider.HealthChecker    = (*Provider)(nil)
)
