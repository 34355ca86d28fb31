package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/saturnino-fabrica-de-software/dermasim/internal/domain"
)

const (
	// MinLongSide and MaxLongSide bound the longer side of images sent to synthesis
	MinLongSide = 512
	MaxLongSide = 1024

	DefaultJPEGQuality = 75
)

// Decode reads a raster image, applying EXIF orientation.
// Any failure is reported as a DecodeFailure.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, domain.ErrDecodeFailure.WithError(err)
	}
	return img, nil
}

// DecodeBytes is Decode over an in-memory buffer
func DecodeBytes(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, domain.ErrDecodeFailure.WithError(fmt.Errorf("empty image"))
	}
	return Decode(bytes.NewReader(data))
}

// FitLongSide rescales img so that its longer side lies in [minSide, maxSide].
// Images already inside the range are returned as is.
func FitLongSide(img image.Image, minSide, maxSide int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	long := w
	if h > long {
		long = h
	}
	if long == 0 || (long >= minSide && long <= maxSide) {
		return img
	}

	target := maxSide
	if long < minSide {
		target = minSide
	}

	nw, nh := scaledSize(w, h, target)
	return imaging.Resize(img, nw, nh, imaging.Lanczos)
}

// Fit applies FitLongSide with the default synthesis bounds
func Fit(img image.Image) image.Image {
	return FitLongSide(img, MinLongSide, MaxLongSide)
}

// scaledSize sets the longer side to exactly target, rounding the shorter one
func scaledSize(w, h, target int) (int, int) {
	if w >= h {
		nh := int(math.Round(float64(h) * float64(target) / float64(w)))
		return target, max(nh, 1)
	}
	nw := int(math.Round(float64(w) * float64(target) / float64(h)))
	return max(nw, 1), target
}

// EncodeJPEG encodes img at the given quality (1-100)
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodePNG encodes img losslessly, used when handing frames to a model
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// MarkerStyle controls how injection points are drawn
type MarkerStyle struct {
	Radius    float64
	Fill      color.Color
	Outline   color.Color
	LineWidth float64
}

// DefaultMarkerStyle is a small green dot with a white ring
var DefaultMarkerStyle = MarkerStyle{
	Radius:    4,
	Fill:      color.RGBA{R: 0, G: 220, B: 90, A: 255},
	Outline:   color.White,
	LineWidth: 1.5,
}

// DrawMarkers returns a copy of img with a marker at every point
func DrawMarkers(img image.Image, points []image.Point, style MarkerStyle) image.Image {
	b := img.Bounds()
	dc := gg.NewContext(b.Dx(), b.Dy())
	dc.DrawImage(img, -b.Min.X, -b.Min.Y)

	for _, p := range points {
		dc.DrawCircle(float64(p.X), float64(p.Y), style.Radius)
		dc.SetColor(style.Fill)
		dc.FillPreserve()
		dc.SetLineWidth(style.LineWidth)
		dc.SetStrokeStyle(gg.NewSolidPattern(style.Outline))
		dc.Stroke()
	}

	return dc.Image()
}
