package cochange

// KeySeparator joins the two paths of a canonical pair key.
const KeySeparator = "::"

// Category bands a coupling strength.
type Category string

// Coupling categories.
const (
	CategoryHigh    Category = "HIGH"
	CategoryMedium  Category = "MEDIUM"
	CategoryLow     Category = "LOW"
	CategoryMinimal Category = "MINIMAL"
)

// Defaults for the analyzer knobs.
const (
	DefaultMinCochanges            = 2
	DefaultHotspotMinRelationships = 3
	DefaultHotspotStrength         = 0.3
)

// PairKey returns the canonical key of an unordered file pair.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + KeySeparator + b
}

// CalculateStrength returns the Jaccard similarity of two files' commit
// sets: co / (totalA + totalB - co), clamped to [0,1].
func CalculateStrength(cochanges, totalA, totalB int) float64 {
	union := totalA + totalB - cochanges
	if union <= 0 || cochanges <= 0 {
		return 0
	}
	return min(float64(cochanges)/float64(union), 1.0)
}

// CalculatePercentage returns co-changes relative to the less frequently
// changed file, as a percentage.
func CalculatePercentage(cochanges, totalA, totalB int) float64 {
	lo := min(totalA, totalB)
	if lo <= 0 {
		return 0
	}
	return min(float64(cochanges)/float64(lo)*100, 100)
}

// CategoryFor bands a coupling strength.
func CategoryFor(strength float64) Category {
	switch {
	case strength >= 0.5:
		return CategoryHigh
	case strength >= 0.2:
		return CategoryMedium
	case strength >= 0.1:
		return CategoryLow
	default:
		return CategoryMinimal
	}
}

// FilePair is the coupling between two files.
type FilePair struct {
	Key           string   `json:"key"`
	FileA         string   `json:"file_a"`
	FileB         string   `json:"file_b"`
	CochangeCount int      `json:"cochange_count"`
	CommitsA      int      `json:"commits_a"`
	CommitsB      int      `json:"commits_b"`
	Strength      float64  `json:"coupling_strength"` // 0-1
	Percentage    float64  `json:"coupling_percentage"`
	Category      Category `json:"category"`
}

// Hotspot is a file strongly coupled to many others.
type Hotspot struct {
	Path            string   `json:"path"`
	StrongCouplings int      `json:"strong_couplings"`
	Partners        []string `json:"partners"`
}

// Summary provides aggregate statistics.
type Summary struct {
	TotalPairs         int     `json:"total_pairs"`
	TotalFilesAnalyzed int     `json:"total_files_analyzed"`
	CommitsAnalyzed    int     `json:"commits_analyzed"`
	CommitsSkipped     int     `json:"commits_skipped"`
	HighCount          int     `json:"high_count"`
	MediumCount        int     `json:"medium_count"`
	LowCount           int     `json:"low_count"`
	MinimalCount       int     `json:"minimal_count"`
	AvgStrength        float64 `json:"avg_coupling_strength"`
	MaxStrength        float64 `json:"max_coupling_strength"`
	HotspotCount       int     `json:"hotspot_count"`
}

// Analysis represents the full co-change analysis result.
type Analysis struct {
	MinCochanges int        `json:"min_cochanges"`
	Pairs        []FilePair `json:"pairs"`
	Hotspots     []Hotspot  `json:"hotspots"`
	Summary      Summary    `json:"summary"`
}

// Pair returns the coupling for two files in either order, or nil.
func (a *Analysis) Pair(fileA, fileB string) *FilePair {
	key := PairKey(fileA, fileB)
	for i := range a.Pairs {
		if a.Pairs[i].Key == key {
			return &a.Pairs[i]
		}
	}
	return nil
}

// CouplingsFor returns every reported pair that includes path, strongest first.
func (a *Analysis) CouplingsFor(path string) []FilePair {
	out := make([]FilePair, 0)
	for _, p := range a.Pairs {
		if p.FileA == path || p.FileB == path {
			out = append(out, p)
		}
	}
	return out
}

// CalculateSummary computes summary statistics.
// Pairs should be sorted by Strength descending before calling.
func (a *Analysis) CalculateSummary(totalFiles, analyzed, skipped int) {
	a.Summary = Summary{
		TotalPairs:         len(a.Pairs),
		TotalFilesAnalyzed: totalFiles,
		CommitsAnalyzed:    analyzed,
		CommitsSkipped:     skipped,
		HotspotCount:       len(a.Hotspots),
	}
	if len(a.Pairs) == 0 {
		return
	}

	a.Summary.MaxStrength = a.Pairs[0].Strength

	var sum float64
	for _, p := range a.Pairs {
		sum += p.Strength
		switch p.Category {
		case CategoryHigh:
			a.Summary.HighCount++
		case CategoryMedium:
			a.Summary.MediumCount++
		case CategoryLow:
			a.Summary.LowCount++
		default:
			a.Summary.MinimalCount++
		}
	}
	a.Summary.AvgStrength = sum / float64(len(a.Pairs))
}
