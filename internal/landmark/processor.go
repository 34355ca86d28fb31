package landmark

import (
	"context"
	"image"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/dermasim/internal/domain"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/provider"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/raster"
)

// Point is one emitted landmark in pixel space
type Point struct {
	Name  string `json:"name"`
	Index int    `json:"index"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
}

// Message is the JSON sent ahead of each annotated frame
type Message struct {
	Landmarks []Point `json:"landmarks"`
}

// FrameResult is the pair of outbound messages for one inbound frame
type FrameResult struct {
	Message Message
	JPEG    []byte
	Faces   int
}

// ProcessorConfig configures frame annotation
type ProcessorConfig struct {
	JPEGQuality int
	Marker      raster.MarkerStyle
}

func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		JPEGQuality: raster.DefaultJPEGQuality,
		Marker:      raster.DefaultMarkerStyle,
	}
}

// Processor runs detection, smoothing and annotation for streamed frames.
// It holds no per-session state; callers pass their session's Cache.
type Processor struct {
	detector provider.LandmarkDetector
	config   ProcessorConfig
	logger   *slog.Logger
}

func NewProcessor(detector provider.LandmarkDetector, config ProcessorConfig, logger *slog.Logger) *Processor {
	if config.JPEGQuality == 0 {
		config.JPEGQuality = raster.DefaultJPEGQuality
	}
	return &Processor{
		detector: detector,
		config:   config,
		logger:   logger.With("component", "landmark"),
	}
}

// ProcessFrame handles one encoded frame. With no face the original bytes
// are returned untouched with an empty landmark list. Otherwise the first
// face is used and every catalog site it covers is smoothed and drawn.
func (p *Processor) ProcessFrame(ctx context.Context, frame []byte, cache *Cache, sites []Site) (*FrameResult, error) {
	img, err := raster.DecodeBytes(frame)
	if err != nil {
		return nil, err
	}

	faces, err := p.detector.Detect(ctx, img)
	if err != nil {
		p.logger.Debug("landmark detection failed", "error", err)
		return nil, domain.ErrDetectionFailure.WithError(err)
	}

	if len(faces) == 0 {
		return &FrameResult{
			Message: Message{Landmarks: []Point{}},
			JPEG:    frame,
		}, nil
	}

	points := p.track(faces[0], img.Bounds(), cache, sites)

	markers := make([]image.Point, len(points))
	for i, pt := range points {
		markers[i] = image.Pt(pt.X, pt.Y)
	}

	annotated := raster.DrawMarkers(img, markers, p.config.Marker)
	encoded, err := raster.EncodeJPEG(annotated, p.config.JPEGQuality)
	if err != nil {
		return nil, err
	}

	return &FrameResult{
		Message: Message{Landmarks: points},
		JPEG:    encoded,
		Faces:   len(faces),
	}, nil
}

// track converts normalized landmarks to pixels and smooths them
func (p *Processor) track(face provider.FaceLandmarks, bounds image.Rectangle, cache *Cache, sites []Site) []Point {
	w, h := bounds.Dx(), bounds.Dy()
	points := make([]Point, 0, MaxCacheEntries())

	for _, site := range sites {
		for _, idx := range site.Indices {
			np, ok := face.Point(idx)
			if !ok {
				continue
			}

			raw := image.Pt(int(np.X*float64(w)), int(np.Y*float64(h)))
			pos := cache.Smooth(Key(site.Name, idx), raw)

			points = append(points, Point{
				Name:  site.Name,
				Index: idx,
				X:     pos.X,
				Y:     pos.Y,
			})
		}
	}

	return points
}
