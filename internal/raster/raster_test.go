package raster

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/dermasim/internal/domain"
)

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestFitLongSide(t *testing.T) {
	tests := []struct {
		name   string
		w, h   int
		wantW  int
		wantH  int
		passes bool
	}{
		{"within bounds passes through", 800, 600, 800, 600, true},
		{"exactly max passes through", 1024, 300, 1024, 300, true},
		{"exactly min passes through", 400, 512, 400, 512, true},
		{"landscape downscale", 2000, 1000, 1024, 512, false},
		{"portrait downscale", 900, 3000, 307, 1024, false},
		{"upscale small image", 256, 128, 512, 256, false},
		{"upscale odd ratio", 300, 200, 512, 341, false},
		{"thin strip keeps at least one pixel", 4000, 1, 1024, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := solid(tt.w, tt.h, color.White)
			got := FitLongSide(src, MinLongSide, MaxLongSide)

			assert.Equal(t, tt.wantW, got.Bounds().Dx())
			assert.Equal(t, tt.wantH, got.Bounds().Dy())
			if tt.passes {
				assert.Same(t, src, got)
			}
		})
	}
}

func TestEncodeDecodeJPEG(t *testing.T) {
	src := solid(64, 48, color.RGBA{R: 200, G: 120, B: 90, A: 255})

	data, err := EncodeJPEG(src, 90)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte{0xFF, 0xD8}), "jpeg SOI marker")

	img, err := DecodeBytes(data)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 48, img.Bounds().Dy())
}

func TestEncodeJPEG_InvalidQualityFallsBack(t *testing.T) {
	data, err := EncodeJPEG(solid(8, 8, color.Black), 0)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestDecode_PNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(10, 20, color.White)))

	img, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dy())
}

func TestDecode_Failure(t *testing.T) {
	_, err := DecodeBytes([]byte("definitely not an image"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDecodeFailure))

	_, err = DecodeBytes(nil)
	assert.True(t, errors.Is(err, domain.ErrDecodeFailure))
}

func TestDrawMarkers(t *testing.T) {
	src := solid(40, 40, color.Black)

	out := DrawMarkers(src, []image.Point{{X: 20, Y: 20}}, DefaultMarkerStyle)

	require.Equal(t, src.Bounds().Size(), out.Bounds().Size())

	r, g, _, _ := out.At(20, 20).RGBA()
	assert.Greater(t, g>>8, uint32(150), "marker center is green")
	assert.Less(t, r>>8, uint32(50))

	r, g, b, _ := out.At(2, 2).RGBA()
	assert.Zero(t, r|g|b, "pixels away from markers untouched")

	sr, sg, sb, _ := src.At(20, 20).RGBA()
	assert.Zero(t, sr|sg|sb, "source not mutated")
}
