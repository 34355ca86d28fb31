package treatment

import (
	"fmt"
	"math"
	"strings"

	"github.com/saturnino-fabrica-de-software/dermasim/internal/domain"
)

// Profile holds the dose-response and guidance constants
type Profile struct {
	BaseOffset       float64
	ResponseScale    float64
	ResponseExponent float64
	StrengthCap      float64
	FillerStrength   float64
	GuidanceScale    float64
}

// DefaultProfile is the only supported strength profile
var DefaultProfile = Profile{
	BaseOffset:       0.35,
	ResponseScale:    0.3,
	ResponseExponent: 0.7,
	StrengthCap:      0.375,
	FillerStrength:   0.375,
	GuidanceScale:    8.5,
}

const (
	botoxPromptFormat  = "High-quality medical photograph after %d units of Botox in the %s area. "
	fillerPromptFormat = "High-quality medical photograph after filler treatment in the %s area. "
	closingClause      = " Eyes, facial features, and skin tone remain completely unchanged. " +
		"No artistic changes. Strictly realistic and medically accurate."
)

// CompiledPrompt is what the synthesis collaborator is driven with
type CompiledPrompt struct {
	Positive      string
	Negative      string
	Strength      float64
	GuidanceScale float64
	DisplayName   string
	Area          Area
}

// Compiler turns (area, dosage) into a CompiledPrompt
type Compiler struct {
	profile Profile
}

func NewCompiler(profile Profile) *Compiler {
	return &Compiler{profile: profile}
}

// Profile returns the constants the compiler was built with
func (c *Compiler) Profile() Profile {
	return c.profile
}

// Compile builds the prompts and strength for an area key. Dosage is only
// read for Botox areas.
func (c *Compiler) Compile(key string, dosage int) (*CompiledPrompt, error) {
	area, ok := Lookup(key)
	if !ok {
		return nil, domain.ErrUnknownTreatmentArea.WithError(fmt.Errorf("unknown treatment area: %s", key))
	}

	display := DisplayName(area.Key)

	var positive strings.Builder
	var strength float64

	switch area.Kind {
	case KindBotox:
		fmt.Fprintf(&positive, botoxPromptFormat, dosage, display)
		strength = c.BotoxStrength(dosage, area.MaxUnits)
	default:
		fmt.Fprintf(&positive, fillerPromptFormat, display)
		strength = c.profile.FillerStrength
	}
	positive.WriteString(area.Clause)
	positive.WriteString(closingClause)

	return &CompiledPrompt{
		Positive:      positive.String(),
		Negative:      NegativePrompt(area),
		Strength:      strength,
		GuidanceScale: c.profile.GuidanceScale,
		DisplayName:   display,
		Area:          area,
	}, nil
}

// BotoxStrength applies the concave dose-response curve, clamped to the cap
func (c *Compiler) BotoxStrength(dosage, maxUnits int) float64 {
	if dosage < 0 {
		dosage = 0
	}
	normalized := math.Min(float64(dosage)/float64(maxUnits), 1.0)
	effect := c.profile.BaseOffset + c.profile.ResponseScale*math.Pow(normalized, c.profile.ResponseExponent)
	return math.Min(effect, c.profile.StrengthCap)
}

// NegativePrompt joins the global artifact terms with a protective clause
// for every region the area does not target.
func NegativePrompt(area Area) string {
	clauses := make([]string, 0, len(protectedRegions)+2)
	clauses = append(clauses, globalNegativeTerms)

	for _, r := range protectedRegions {
		if area.HasRegion(r) {
			continue
		}
		clauses = append(clauses, protectionClauses[r])
	}

	if !area.HasRegion(RegionFacialStructure) {
		clauses = append(clauses, protectionClauses[RegionFacialStructure])
	}

	return strings.Join(clauses, ", ")
}

// DisplayName turns "lip_flip_botox" into "Lip Flip Botox"
func DisplayName(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
