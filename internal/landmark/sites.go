package landmark

// Site is a named injection point group on the face mesh
type Site struct {
	Name    string
	Area    string // treatment area key the site belongs to
	Indices []int  // face-mesh landmark indices
}

// sites is the fixed injection-site catalog, in drawing order
var sites = []Site{
	{Name: "forehead", Area: "forehead_lines_botox", Indices: []int{10, 67, 297, 109, 338}},
	{Name: "glabella", Area: "frown_lines_glabella_botox", Indices: []int{9, 107, 336}},
	{Name: "crows_feet", Area: "crows_feet_botox", Indices: []int{226, 446}},
	{Name: "nasalis", Area: "nasalis_lines_botox", Indices: []int{196, 419}},
	{Name: "vertical_lip_lines", Area: "vertical_lip_lines_botox", Indices: []int{39, 269}},
	{Name: "lip_flip", Area: "lip_flip_botox", Indices: []int{0, 37, 267}},
	{Name: "smile_lift", Area: "smile_lift_botox", Indices: []int{57, 287}},
	{Name: "masseter", Area: "masseter_reduction_botox", Indices: []int{172, 397, 58, 288}},
	{Name: "chin", Area: "dimpled_chin_botox", Indices: []int{152, 175}},
	{Name: "platysma", Area: "platysmal_bands_botox", Indices: []int{136, 365}},
	{Name: "cheek", Area: "cheek_filler", Indices: []int{50, 280}},
	{Name: "smile_line", Area: "smile_line_filler", Indices: []int{205, 425}},
	{Name: "lips", Area: "lip_filler", Indices: []int{13, 14}},
	{Name: "temple", Area: "temple_filler", Indices: []int{21, 251}},
	{Name: "nose", Area: "nose_filler", Indices: []int{1, 6}},
}

// Sites returns a copy of the catalog
func Sites() []Site {
	out := make([]Site, len(sites))
	for i, s := range sites {
		s.Indices = append([]int(nil), s.Indices...)
		out[i] = s
	}
	return out
}

// SitesForArea returns the sites of one treatment area
func SitesForArea(area string) ([]Site, bool) {
	var out []Site
	for _, s := range Sites() {
		if s.Area == area {
			out = append(out, s)
		}
	}
	return out, len(out) > 0
}

// MaxCacheEntries is the number of distinct (site, index) keys in the catalog
func MaxCacheEntries() int {
	n := 0
	for _, s := range sites {
		n += len(s.Indices)
	}
	return n
}
