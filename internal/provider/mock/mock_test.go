package mock

import (
	"context"
	"image"
	"testing"

	"github.com/saturnino-fabrica-de-software/dermasim/internal/provider"
)

func TestProvider_Detect(t *testing.T) {
	p := New()
	ctx := context.Background()

	tests := []struct {
		name      string
		frame     image.Image
		wantFaces int
	}{
		{
			name:      "regular frame",
			frame:     image.NewNRGBA(image.Rect(0, 0, 640, 480)),
			wantFaces: 1,
		},
		{
			name:      "frame too small",
			frame:     image.NewNRGBA(image.Rect(0, 0, 16, 16)),
			wantFaces: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			faces, err := p.Detect(ctx, tt.frame)
			if err != nil {
				t.Fatalf("Detect() error = %v", err)
			}
			if len(faces) != tt.wantFaces {
				t.Errorf("Detect() got %d faces, want %d", len(faces), tt.wantFaces)
			}
		})
	}
}

func TestProvider_Detect_Deterministic(t *testing.T) {
	p := New()
	frame := image.NewNRGBA(image.Rect(0, 0, 100, 100))

	a, _ := p.Detect(context.Background(), frame)
	b, _ := p.Detect(context.Background(), frame)

	for i := 0; i < meshSize; i++ {
		pa, ok := a[0].Point(i)
		if !ok {
			t.Fatalf("missing index %d", i)
		}
		pb, _ := b[0].Point(i)
		if pa != pb {
			t.Errorf("index %d differs between calls", i)
		}
		if pa.X < 0 || pa.X > 1 || pa.Y < 0 || pa.Y > 1 {
			t.Errorf("index %d out of range: %+v", i, pa)
		}
	}
}

func TestProvider_Synthesize(t *testing.T) {
	p := New()
	in := provider.SynthesisInput{
		Image:    image.NewNRGBA(image.Rect(0, 0, 50, 40)),
		Strength: 0.375,
	}

	images, err := p.Synthesize(context.Background(), in)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if len(images) != 1 {
		t.Fatalf("Synthesize() got %d images, want 1", len(images))
	}
	if images[0].Bounds().Dx() != 50 || images[0].Bounds().Dy() != 40 {
		t.Errorf("Synthesize() changed size to %v", images[0].Bounds())
	}

	if err := p.ReleaseMemory(context.Background()); err != nil {
		t.Fatalf("ReleaseMemory() error = %v", err)
	}

	if p.Synthesized() != 1 || p.Released() != 1 {
		t.Errorf("counters = %d/%d, want 1/1", p.Synthesized(), p.Released())
	}
}

func TestProvider_Synthesize_CanceledContext(t *testing.T) {
	p := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Synthesize(ctx, provider.SynthesisInput{Image: image.NewNRGBA(image.Rect(0, 0, 8, 8))})
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
	if p.Synthesized() != 0 {
		t.Errorf("Synthesized() = %d, want 0", p.Synthesized())
	}
}
