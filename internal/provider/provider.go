package provider

import (
	"context"
	"image"
)

// ImageSynthesizer edits an image guided by a text prompt (img2img)
type ImageSynthesizer interface {
	// Synthesize runs a single generation and returns the produced images.
	// Implementations must not retry or batch.
	Synthesize(ctx context.Context, in SynthesisInput) ([]image.Image, error)

	// ReleaseMemory frees device caches held by the model
	ReleaseMemory(ctx context.Context) error
}

// SynthesisInput is one img2img invocation
type SynthesisInput struct {
	Prompt         string
	NegativePrompt string
	Image          image.Image
	Strength       float64
	GuidanceScale  float64
}

// LandmarkDetector locates face-mesh landmarks in a frame
type LandmarkDetector interface {
	// Detect returns one entry per detected face, most prominent first.
	// No face is an empty slice, not an error.
	Detect(ctx context.Context, frame image.Image) ([]FaceLandmarks, error)
}

// HealthChecker is implemented by backends that can report readiness
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// NormalizedPoint is a landmark position relative to frame size, in [0, 1]
type NormalizedPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// FaceLandmarks maps face-mesh indices to positions. Backends that only
// know a subset of the mesh leave the other indices out.
type FaceLandmarks struct {
	Points map[int]NormalizedPoint
}

// Point returns the landmark at index, if the backend produced it
func (f FaceLandmarks) Point(index int) (NormalizedPoint, bool) {
	p, ok := f.Points[index]
	return p, ok
}
