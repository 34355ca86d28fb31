package gemini

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"google.golang.org/genai"

	"github.com/saturnino-fabrica-de-software/dermasim/internal/provider"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/raster"
)

var (
	ErrMissingAPIKey = errors.New("gemini api key is required")
	ErrNoCandidates  = errors.New("gemini returned no candidates")
	ErrBlocked       = errors.New("gemini stopped generation")
)

// Config holds the configuration for the Gemini image backend
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		Model:       "gemini-2.5-flash-image",
		Temperature: 0.2,
	}
}

// contentGenerator is the part of genai.Models used here
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Provider implements provider.ImageSynthesizer with Gemini image editing.
// Strength and the negative prompt have no native parameter, so they are
// folded into the instruction text.
type Provider struct {
	models contentGenerator
	config Config
}

var _ provider.ImageSynthesizer = (*Provider)(nil)

// NewProvider creates a Gemini client for the Developer API
func NewProvider(ctx context.Context, config Config) (*Provider, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if config.Model == "" {
		config.Model = DefaultConfig().Model
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Provider{models: client.Models, config: config}, nil
}

// Synthesize sends the photo and instruction and returns the first image part
func (p *Provider) Synthesize(ctx context.Context, in provider.SynthesisInput) ([]image.Image, error) {
	png, err := raster.EncodePNG(in.Image)
	if err != nil {
		return nil, err
	}

	parts := []*genai.Part{
		{Text: instruction(in)},
		{InlineData: &genai.Blob{MIMEType: "image/png", Data: png}},
	}

	temperature := p.config.Temperature
	resp, err := p.models.GenerateContent(ctx, p.config.Model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
			Temperature:        &temperature,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	return parseImages(resp)
}

// ReleaseMemory is a no-op, the model runs remotely
func (p *Provider) ReleaseMemory(ctx context.Context) error {
	return nil
}

func instruction(in provider.SynthesisInput) string {
	var b strings.Builder
	b.WriteString("Edit the attached photograph. ")
	b.WriteString(in.Prompt)
	fmt.Fprintf(&b, "\nEdit intensity: %.0f%% of a full transformation; keep the change subtle.", in.Strength*100)
	if in.NegativePrompt != "" {
		b.WriteString("\nAvoid: ")
		b.WriteString(in.NegativePrompt)
		b.WriteString(".")
	}
	b.WriteString("\nReturn only the edited image.")
	return b.String()
}

func parseImages(resp *genai.GenerateContentResponse) ([]image.Image, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, ErrNoCandidates
	}

	candidate := resp.Candidates[0]

	var images []image.Image
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			img, err := raster.DecodeBytes(part.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("decode %s part: %w", part.InlineData.MIMEType, err)
			}
			images = append(images, img)
		}
	}

	if len(images) == 0 && candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != genai.FinishReasonStop {
		return nil, fmt.Errorf("%w: %s", ErrBlocked, candidate.FinishReason)
	}

	return images, nil
}
