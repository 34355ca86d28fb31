package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/dermasim/internal/config"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/provider"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/provider/diffusion"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/provider/facemesh"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/provider/gemini"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/provider/rekognition"
)

// SynthesisType defines supported image synthesis backends
type SynthesisType string

const (
	// SynthesisDiffusion is the local img2img sidecar (GPU)
	SynthesisDiffusion SynthesisType = "diffusion"
	// SynthesisGemini is Gemini image editing (cloud)
	SynthesisGemini SynthesisType = "gemini"
	// SynthesisMock blurs the input, for dev/test
	SynthesisMock SynthesisType = "mock"
)

// DetectorType defines supported landmark detector backends
type DetectorType string

const (
	// DetectorFaceMesh is the local face-mesh sidecar
	DetectorFaceMesh DetectorType = "facemesh"
	// DetectorRekognition is AWS Rekognition (sparse landmarks)
	DetectorRekognition DetectorType = "rekognition"
	// DetectorMock returns a synthetic mesh
	DetectorMock DetectorType = "mock"
)

// NewSynthesizer creates an ImageSynthesizer based on configuration
//
// Environment variables:
//   - SYNTHESIS_BACKEND: "diffusion", "gemini" or "mock" (default: "diffusion")
//   - DIFFUSION_URL, DIFFUSION_TIMEOUT, DEVICE_ALLOC_CONF: diffusion sidecar
//   - GEMINI_API_KEY, GEMINI_MODEL: Gemini backend
func NewSynthesizer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (provider.ImageSynthesizer, error) {
	switch SynthesisType(cfg.SynthesisBackend) {
	case SynthesisDiffusion, "":
		return createDiffusionProvider(cfg, logger), nil

	case SynthesisGemini:
		geminiConfig := gemini.DefaultConfig()
		geminiConfig.APIKey = cfg.GeminiAPIKey
		if cfg.GeminiModel != "" {
			geminiConfig.Model = cfg.GeminiModel
		}
		prov, err := gemini.NewProvider(ctx, geminiConfig)
		if err != nil {
			return nil, fmt.Errorf("create gemini provider: %w", err)
		}
		return prov, nil

	case SynthesisMock:
		return mock.New(), nil

	default:
		return nil, fmt.Errorf("unknown synthesis backend: %s (supported: %s, %s, %s)",
			cfg.SynthesisBackend, SynthesisDiffusion, SynthesisGemini, SynthesisMock)
	}
}

// NewDetector creates a LandmarkDetector based on configuration
//
// Environment variables:
//   - DETECTOR_BACKEND: "facemesh", "rekognition" or "mock" (default: "facemesh")
//   - FACEMESH_URL: face-mesh sidecar URL
//   - AWS_REGION: AWS region for Rekognition (credentials via the SDK chain)
func NewDetector(ctx context.Context, cfg *config.Config) (provider.LandmarkDetector, error) {
	switch DetectorType(cfg.DetectorBackend) {
	case DetectorFaceMesh, "":
		meshConfig := facemesh.DefaultConfig()
		if cfg.FaceMeshURL != "" {
			meshConfig.BaseURL = cfg.FaceMeshURL
		}
		return facemesh.NewProvider(meshConfig), nil

	case DetectorRekognition:
		rekogConfig := rekognition.DefaultConfig()
		if cfg.AWSRegion != "" {
			rekogConfig.Region = cfg.AWSRegion
		}
		prov, err := rekognition.NewProvider(ctx, rekogConfig)
		if err != nil {
			return nil, fmt.Errorf("create rekognition provider: %w", err)
		}
		return prov, nil

	case DetectorMock:
		return mock.New(), nil

	default:
		return nil, fmt.Errorf("unknown detector backend: %s (supported: %s, %s, %s)",
			cfg.DetectorBackend, DetectorFaceMesh, DetectorRekognition, DetectorMock)
	}
}

// createDiffusionProvider creates a diffusion sidecar provider instance
func createDiffusionProvider(cfg *config.Config, logger *slog.Logger) provider.ImageSynthesizer {
	diffusionConfig := diffusion.DefaultConfig()

	if cfg.DiffusionURL != "" {
		diffusionConfig.BaseURL = cfg.DiffusionURL
	}
	if cfg.DiffusionTimeout > 0 {
		diffusionConfig.Timeout = cfg.DiffusionTimeout
	}
	if cfg.DeviceAllocConf != "" {
		diffusionConfig.AllocConf = cfg.DeviceAllocConf
	}

	return diffusion.NewProvider(diffusionConfig, logger)
}
