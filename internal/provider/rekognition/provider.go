package rekognition

import (
	"context"
	"fmt"
	"image"
	"sort"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/saturnino-fabrica-de-software/dermasim/internal/provider"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/raster"
)

const (
	// maxImageSize is the maximum image size supported by AWS Rekognition (5MB)
	maxImageSize = 5 * 1024 * 1024

	frameQuality = 90
)

// meshIndex places Rekognition's named landmarks on the face-mesh topology.
// Only these indices are available from this backend.
var meshIndex = map[types.LandmarkType]int{
	types.LandmarkTypeNose:              1,
	types.LandmarkTypeMouthUp:           0,
	types.LandmarkTypeMouthDown:         17,
	types.LandmarkTypeMouthLeft:         61,
	types.LandmarkTypeMouthRight:        291,
	types.LandmarkTypeChinBottom:        152,
	types.LandmarkTypeLeftEyeBrowUp:     105,
	types.LandmarkTypeRightEyeBrowUp:    334,
	types.LandmarkTypeLeftEyeLeft:       33,
	types.LandmarkTypeRightEyeRight:     263,
	types.LandmarkTypeNoseLeft:          129,
	types.LandmarkTypeNoseRight:         358,
	types.LandmarkTypeMidJawlineLeft:    172,
	types.LandmarkTypeMidJawlineRight:   397,
	types.LandmarkTypeUpperJawlineLeft:  127,
	types.LandmarkTypeUpperJawlineRight: 356,
}

// Provider implements provider.LandmarkDetector using AWS Rekognition DetectFaces
type Provider struct {
	client *Client
}

// Ensure Provider implements provider.LandmarkDetector interface at compile time
var _ provider.LandmarkDetector = (*Provider)(nil)

// NewProvider creates a new Rekognition landmark detector
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create rekognition client: %w", err)
	}

	return &Provider{client: client}, nil
}

// Detect runs DetectFaces on the frame. Faces are ordered by bounding box
// area, largest first.
func (p *Provider) Detect(ctx context.Context, frame image.Image) ([]provider.FaceLandmarks, error) {
	data, err := raster.EncodeJPEG(frame, frameQuality)
	if err != nil {
		return nil, err
	}
	if len(data) > maxImageSize {
		return nil, fmt.Errorf("%w: frame too large (%d bytes, maximum %d)", ErrInvalidImage, len(data), maxImageSize)
	}

	output, err := p.client.rekognition.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image: &types.Image{
			Bytes: data,
		},
		Attributes: []types.Attribute{types.AttributeDefault},
	})
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", parseAPIError(err))
	}

	details := make([]types.FaceDetail, 0, len(output.FaceDetails))
	for _, d := range output.FaceDetails {
		if d.Confidence != nil && *d.Confidence < p.client.config.MinConfidence {
			continue
		}
		details = append(details, d)
	}

	sort.SliceStable(details, func(i, j int) bool {
		return boxArea(details[i].BoundingBox) > boxArea(details[j].BoundingBox)
	})

	faces := make([]provider.FaceLandmarks, 0, len(details))
	for _, d := range details {
		faces = append(faces, toFaceLandmarks(d.Landmarks))
	}

	return faces, nil
}

func toFaceLandmarks(landmarks []types.Landmark) provider.FaceLandmarks {
	points := make(map[int]provider.NormalizedPoint, len(landmarks))
	for _, lm := range landmarks {
		idx, ok := meshIndex[lm.Type]
		if !ok || lm.X == nil || lm.Y == nil {
			continue
		}
		points[idx] = provider.NormalizedPoint{
			X: float64(*lm.X),
			Y: float64(*lm.Y),
		}
	}
	return provider.FaceLandmarks{Points: points}
}

func boxArea(b *types.BoundingBox) float32 {
	if b == nil || b.Width == nil || b.Height == nil {
		return 0
	}
	return *b.Width * *b.Height
}
