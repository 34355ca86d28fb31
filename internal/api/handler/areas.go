package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/dermasim/internal/domain"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/treatment"
)

// AreasHandler exposes the treatment catalog
type AreasHandler struct {
	compiler *treatment.Compiler
}

func NewAreasHandler(compiler *treatment.Compiler) *AreasHandler {
	return &AreasHandler{compiler: compiler}
}

type AreaResponse struct {
	Key         string   `json:"key"`
	DisplayName string   `json:"display_name"`
	Kind        string   `json:"kind"`
	MaxUnits    int      `json:"max_units,omitempty"`
	Regions     []string `json:"regions"`
}

type ProfileResponse struct {
	BaseOffset       float64 `json:"base_offset"`
	ResponseScale    float64 `json:"response_scale"`
	ResponseExponent float64 `json:"response_exponent"`
	StrengthCap      float64 `json:"strength_cap"`
	FillerStrength   float64 `json:"filler_strength"`
	GuidanceScale    float64 `json:"guidance_scale"`
}

type AreasResponse struct {
	CatalogVersion int             `json:"catalog_version"`
	Profile        ProfileResponse `json:"profile"`
	Areas          []AreaResponse  `json:"areas"`
}

// PromptResponse previews what a generation would be driven with
type PromptResponse struct {
	Area           string  `json:"area"`
	Dosage         int     `json:"dosage"`
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt"`
	Strength       float64 `json:"strength"`
	GuidanceScale  float64 `json:"guidance_scale"`
}

// List GET /areas
func (h *AreasHandler) List(c *fiber.Ctx) error {
	catalog := treatment.Areas()
	resp := AreasResponse{
		CatalogVersion: treatment.CatalogVersion,
		Profile:        toProfileResponse(h.compiler.Profile()),
		Areas:          make([]AreaResponse, 0, len(catalog)),
	}

	for _, a := range catalog {
		regions := make([]string, len(a.Regions))
		for i, r := range a.Regions {
			regions[i] = string(r)
		}
		resp.Areas = append(resp.Areas, AreaResponse{
			Key:         a.Key,
			DisplayName: treatment.DisplayName(a.Key),
			Kind:        string(a.Kind),
			MaxUnits:    a.MaxUnits,
			Regions:     regions,
		})
	}

	return c.JSON(resp)
}

// Prompt GET /areas/:key/prompt?dosage=N - compile without generating
func (h *AreasHandler) Prompt(c *fiber.Ctx) error {
	key := strings.TrimSpace(c.Params("key"))

	dosage := c.QueryInt("dosage", 0)
	if dosage < 0 {
		return domain.ErrValidationFailed
	}

	prompt, err := h.compiler.Compile(key, dosage)
	if err != nil {
		return err
	}

	return c.JSON(PromptResponse{
		Area:           prompt.Area.Key,
		Dosage:         dosage,
		Prompt:         prompt.Positive,
		NegativePrompt: prompt.Negative,
		Strength:       prompt.Strength,
		GuidanceScale:  prompt.GuidanceScale,
	})
}

func toProfileResponse(p treatment.Profile) ProfileResponse {
	return ProfileResponse{
		BaseOffset:       p.BaseOffset,
		ResponseScale:    p.ResponseScale,
		ResponseExponent: p.ResponseExponent,
		StrengthCap:      p.StrengthCap,
		FillerStrength:   p.FillerStrength,
		GuidanceScale:    p.GuidanceScale,
	}
}
