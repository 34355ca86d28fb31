package treatment

// CatalogVersion identifies the area table and strength profile below.
// Bump it whenever a clause, a max-units value or a profile constant changes.
const CatalogVersion = 2

// Kind distinguishes dosage-sensitive areas from fixed-strength ones
type Kind string

const (
	KindBotox  Kind = "botox"
	KindFiller Kind = "filler"
)

// Region is a facial region used for protective negative prompting
type Region string

const (
	RegionForehead        Region = "forehead"
	RegionEyebrows        Region = "eyebrows"
	RegionEyes            Region = "eyes"
	RegionNose            Region = "nose"
	RegionCheeks          Region = "cheeks"
	RegionLips            Region = "lips"
	RegionSmileLines      Region = "smile_lines"
	RegionJaw             Region = "jaw"
	RegionChin            Region = "chin"
	RegionNeck            Region = "neck"
	RegionTemples         Region = "temples"
	RegionFacialStructure Region = "facial_structure"
)

// protectedRegions lists every region except facial_structure, in the order
// their clauses are appended to the negative prompt.
var protectedRegions = []Region{
	RegionForehead,
	RegionEyebrows,
	RegionEyes,
	RegionNose,
	RegionCheeks,
	RegionLips,
	RegionSmileLines,
	RegionJaw,
	RegionChin,
	RegionNeck,
	RegionTemples,
}

var protectionClauses = map[Region]string{
	RegionForehead:        "changed forehead shape, unnatural forehead smoothness, frozen forehead, altered forehead proportions, changed forehead lines",
	RegionEyebrows:        "changed eyebrow shape, uneven eyebrows, altered eyebrow position, raised eyebrows, lowered eyebrows",
	RegionEyes:            "changed eye shape, different eye color, heterochromia, enlarged eyes, small eyes, squinted eyes, crossed eyes, asymmetric eyes, altered eye position",
	RegionNose:            "changed nose shape, altered nostril size, uneven nostrils, changed nose position, altered nasal bridge, modified nose",
	RegionCheeks:          "changed cheek volume, asymmetric cheeks, altered cheekbone height, changed cheek shape, overfilled cheeks",
	RegionLips:            "changed lip shape, uneven lips, altered lip size, overfilled lips, duck lips, changed lip position, modified lip texture",
	RegionSmileLines:      "changed nasolabial folds, asymmetric smile lines, altered smile line depth",
	RegionJaw:             "changed jaw shape, asymmetric jaw, altered jaw angle, changed jawline, modified jaw width",
	RegionChin:            "changed chin shape, altered chin projection, uneven chin, modified chin texture",
	RegionNeck:            "changed neck shape, altered neck muscles, modified neck texture, changed neck bands",
	RegionTemples:         "changed temple volume, asymmetric temples, altered temporal area",
	RegionFacialStructure: "changed face shape, altered facial proportions, changed facial structure, asymmetric face, modified facial angles",
}

// globalNegativeTerms are artifacts unwanted for every area
const globalNegativeTerms = "changed face, changed skin tone, mutated hands, blurry, deformed, bad anatomy, disfigured, mutation, " +
	"fused fingers, too many fingers, long neck, cloned face, duplicate face, alien, plastic, waxy, cartoon, " +
	"unnatural skin, glowing skin, anime, identity change, poorly drawn face"

// ProtectionClause returns the negative-prompt clause guarding a region
func ProtectionClause(r Region) string {
	return protectionClauses[r]
}

// Area is one entry of the treatment catalog
type Area struct {
	Key      string
	Kind     Kind
	MaxUnits int
	Clause   string
	Regions  []Region
}

// HasRegion reports whether the area is allowed to change the region
func (a Area) HasRegion(r Region) bool {
	for _, own := range a.Regions {
		if own == r {
			return true
		}
	}
	return false
}

var areas = []Area{
	{
		Key:      "forehead_lines_botox",
		Kind:     KindBotox,
		MaxUnits: 30,
		Clause:   "Smooth horizontal forehead lines while maintaining natural skin texture, tone, and expressions. Subtle, realistic improvement without altering facial identity.",
		Regions:  []Region{RegionForehead},
	},
	{
		Key:      "frown_lines_glabella_botox",
		Kind:     KindBotox,
		MaxUnits: 25,
		Clause:   "Reduce vertical '11' lines between eyebrows, keeping a relaxed, natural look. Preserve muscle balance and skin realism.",
		Regions:  []Region{RegionForehead, RegionEyebrows},
	},
	{
		Key:      "crows_feet_botox",
		Kind:     KindBotox,
		MaxUnits: 30,
		Clause:   "Softly diminish crow's feet around the eyes while preserving eye shape and natural expressions. Maintain fine skin texture.",
		Regions:  []Region{RegionEyes},
	},
	{
		Key:      "nasalis_lines_botox",
		Kind:     KindBotox,
		MaxUnits: 15,
		Clause:   "Soften nasal 'bunny' lines, retaining natural nose contours and realistic skin appearance.",
		Regions:  []Region{RegionNose},
	},
	{
		Key:      "vertical_lip_lines_botox",
		Kind:     KindBotox,
		MaxUnits: 8,
		Clause:   "Subtly smooth vertical wrinkles above the lips while preserving natural lip texture, curves, and surrounding skin.",
		Regions:  []Region{RegionLips},
	},
	{
		Key:      "lip_flip_botox",
		Kind:     KindBotox,
		MaxUnits: 6,
		Clause:   "Enhance the upper lip's fullness with a natural lift near Cupid's Bow. Preserve lip shape, texture, and volume.",
		Regions:  []Region{RegionLips},
	},
	{
		Key:      "smile_lift_botox",
		Kind:     KindBotox,
		MaxUnits: 12,
		Clause:   "Lift corners of the mouth slightly, reducing downward smile lines naturally. Maintain smile structure and facial harmony.",
		Regions:  []Region{RegionLips, RegionSmileLines},
	},
	{
		Key:      "masseter_reduction_botox",
		Kind:     KindBotox,
		MaxUnits: 60,
		Clause:   "Slightly slim the jawline by softening the masseter muscles while preserving facial symmetry and jaw contours.",
		Regions:  []Region{RegionJaw},
	},
	{
		Key:      "dimpled_chin_botox",
		Kind:     KindBotox,
		MaxUnits: 8,
		Clause:   "Smooth dimpled chin texture while keeping natural chin definition and facial proportions.",
		Regions:  []Region{RegionChin},
	},
	{
		Key:      "platysmal_bands_botox",
		Kind:     KindBotox,
		MaxUnits: 30,
		Clause:   "Reduce vertical neck bands, creating a smoother neckline while preserving skin texture and natural contours.",
		Regions:  []Region{RegionNeck},
	},
	{
		Key:     "cheek_filler",
		Kind:    KindFiller,
		Clause:  "Add gentle volume to the cheeks with natural, lifted facial contours. Preserve skin texture, symmetry, and balance.",
		Regions: []Region{RegionCheeks},
	},
	{
		Key:     "smile_line_filler",
		Kind:    KindFiller,
		Clause:  "Subtly fill nasolabial folds (smile lines) for a smoother, youthful look while keeping natural facial movement and expressions.",
		Regions: []Region{RegionSmileLines},
	},
	{
		Key:     "lip_filler",
		Kind:    KindFiller,
		Clause:  "Plump and naturally shape the lips with soft, balanced volume enhancement. Maintain lip texture and proportions.",
		Regions: []Region{RegionLips},
	},
	{
		Key:     "temple_filler",
		Kind:    KindFiller,
		Clause:  "Restore lost volume in the temples for a refreshed, youthful contour while preserving natural facial lines and textures.",
		Regions: []Region{RegionTemples},
	},
	{
		Key:     "nose_filler",
		Kind:    KindFiller,
		Clause:  "Smooth and refine the nasal bridge and tip with subtle, natural contour improvements. Maintain original nose shape.",
		Regions: []Region{RegionNose},
	},
}

var areasByKey = func() map[string]Area {
	m := make(map[string]Area, len(areas))
	for _, a := range areas {
		m[a.Key] = a
	}
	return m
}()

// Lookup returns the catalog entry for key
func Lookup(key string) (Area, bool) {
	a, ok := areasByKey[key]
	return a, ok
}

// Areas returns the catalog in declaration order. The slice is a copy.
func Areas() []Area {
	out := make([]Area, len(areas))
	copy(out, areas)
	return out
}
