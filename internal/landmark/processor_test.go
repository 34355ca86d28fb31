package landmark

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/dermasim/internal/domain"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/provider"
)

type stubDetector struct {
	faces []provider.FaceLandmarks
	err   error
	calls int
}

func (d *stubDetector) Detect(ctx context.Context, frame image.Image) ([]provider.FaceLandmarks, error) {
	d.calls++
	return d.faces, d.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func jpegFrame(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 40, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func face(points map[int]provider.NormalizedPoint) provider.FaceLandmarks {
	return provider.FaceLandmarks{Points: points}
}

func TestProcessor_NoFace(t *testing.T) {
	detector := &stubDetector{faces: []provider.FaceLandmarks{}}
	p := NewProcessor(detector, DefaultProcessorConfig(), testLogger())

	frame := jpegFrame(t, 64, 48)
	cache := NewCache()

	result, err := p.ProcessFrame(context.Background(), frame, cache, Sites())

	require.NoError(t, err)
	assert.NotNil(t, result.Message.Landmarks)
	assert.Empty(t, result.Message.Landmarks)
	assert.Equal(t, frame, result.JPEG, "frame must be returned unmodified")
	assert.Equal(t, 0, result.Faces)
	assert.Equal(t, 0, cache.Len())
}

func TestProcessor_FirstFaceSmoothed(t *testing.T) {
	detector := &stubDetector{}
	p := NewProcessor(detector, DefaultProcessorConfig(), testLogger())

	sites := []Site{{Name: "nose", Area: "nose_filler", Indices: []int{1, 6}}}
	cache := NewCache()
	frame := jpegFrame(t, 200, 100)

	// Frame 1: raw positions
	detector.faces = []provider.FaceLandmarks{
		face(map[int]provider.NormalizedPoint{1: {X: 0.5, Y: 0.5}, 6: {X: 0.25, Y: 0.999}}),
		face(map[int]provider.NormalizedPoint{1: {X: 0.9, Y: 0.9}, 6: {X: 0.9, Y: 0.9}}),
	}
	result, err := p.ProcessFrame(context.Background(), frame, cache, sites)
	require.NoError(t, err)

	assert.Equal(t, []Point{
		{Name: "nose", Index: 1, X: 100, Y: 50},
		{Name: "nose", Index: 6, X: 50, Y: 99}, // truncated
	}, result.Message.Landmarks)
	assert.Equal(t, 2, result.Faces)

	decoded, err := jpeg.Decode(bytes.NewReader(result.JPEG))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(200, 100), decoded.Bounds().Size())

	// Frame 2: blended against frame 1
	detector.faces = []provider.FaceLandmarks{
		face(map[int]provider.NormalizedPoint{1: {X: 0.6, Y: 0.4}, 6: {X: 0.25, Y: 0.999}}),
	}
	result, err = p.ProcessFrame(context.Background(), frame, cache, sites)
	require.NoError(t, err)

	// x: 0.7*100 + 0.3*120 = 106; y: 0.7*50 + 0.3*40 = 47
	assert.Equal(t, Point{Name: "nose", Index: 1, X: 106, Y: 47}, result.Message.Landmarks[0])
	assert.Equal(t, Point{Name: "nose", Index: 6, X: 50, Y: 99}, result.Message.Landmarks[1])
}

func TestProcessor_SkipsMissingIndices(t *testing.T) {
	detector := &stubDetector{faces: []provider.FaceLandmarks{
		face(map[int]provider.NormalizedPoint{10: {X: 0.5, Y: 0.1}, 1: {X: 0.5, Y: 0.5}}),
	}}
	p := NewProcessor(detector, DefaultProcessorConfig(), testLogger())

	result, err := p.ProcessFrame(context.Background(), jpegFrame(t, 100, 100), NewCache(), Sites())
	require.NoError(t, err)

	require.Len(t, result.Message.Landmarks, 2)
	assert.Equal(t, "forehead", result.Message.Landmarks[0].Name)
	assert.Equal(t, "nose", result.Message.Landmarks[1].Name)
}

func TestProcessor_Errors(t *testing.T) {
	tests := []struct {
		name     string
		frame    []byte
		detector *stubDetector
		wantErr  error
		wantCall int
	}{
		{
			name:     "undecodable frame",
			frame:    []byte("not a jpeg"),
			detector: &stubDetector{},
			wantErr:  domain.ErrDecodeFailure,
			wantCall: 0,
		},
		{
			name:     "empty frame",
			frame:    nil,
			detector: &stubDetector{},
			wantErr:  domain.ErrDecodeFailure,
			wantCall: 0,
		},
		{
			name:     "detector failure",
			frame:    nil,
			detector: &stubDetector{err: errors.New("mesh sidecar down")},
			wantErr:  domain.ErrDetectionFailure,
			wantCall: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := tt.frame
			if frame == nil && tt.wantCall > 0 {
				frame = jpegFrame(t, 64, 64)
			}

			p := NewProcessor(tt.detector, DefaultProcessorConfig(), testLogger())
			_, err := p.ProcessFrame(context.Background(), frame, NewCache(), Sites())

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantCall, tt.detector.calls)
		})
	}
}
