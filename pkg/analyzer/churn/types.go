package churn

import (
	"sort"
	"time"

	"github.com/panbanda/gitpulse/pkg/stats"
)

// Category is the absolute churn severity of a file.
type Category string

// Churn categories.
const (
	CategoryHigh   Category = "HIGH"
	CategoryMedium Category = "MEDIUM"
	CategoryLow    Category = "LOW"
)

// Thresholds are absolute line-churn boundaries. A file is HIGH when its
// total churn exceeds High and MEDIUM when it exceeds Medium.
type Thresholds struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
}

// DefaultThresholds returns the standard 1000/100 line boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{High: 1000, Medium: 100}
}

// Categorize buckets a total churn value.
func (t Thresholds) Categorize(totalChurn int) Category {
	switch {
	case totalChurn > t.High:
		return CategoryHigh
	case totalChurn > t.Medium:
		return CategoryMedium
	default:
		return CategoryLow
	}
}

// FileStats represents aggregated change data for a single file.
type FileStats struct {
	Path           string         `json:"path"`
	Commits        int            `json:"commit_count"`
	Additions      int            `json:"additions"`
	Deletions      int            `json:"deletions"`
	NetChange      int            `json:"net_change"`
	TotalChurn     int            `json:"total_churn"`
	AddDeleteRatio float64        `json:"add_delete_ratio"`
	Authors        []string       `json:"unique_authors"`
	AuthorCounts   map[string]int `json:"author_commits"`
	Category       Category       `json:"category"`
	ChurnScore     float64        `json:"churn_score"` // 0.0-1.0 normalized
	FirstChange    time.Time      `json:"first_seen"`
	LastChange     time.Time      `json:"last_modified"`
}

// CalculateChurnScore computes the normalized churn score against the
// largest commit count and line churn seen across all files:
// churn_score = commit_factor * 0.6 + change_factor * 0.4
func (f *FileStats) CalculateChurnScore(maxCommits, maxChanges int) float64 {
	var commitFactor float64
	if maxCommits > 0 {
		commitFactor = min(float64(f.Commits)/float64(maxCommits), 1.0)
	}

	var changeFactor float64
	if maxChanges > 0 {
		changeFactor = min(float64(f.TotalChurn)/float64(maxChanges), 1.0)
	}

	f.ChurnScore = min(commitFactor*0.6+changeFactor*0.4, 1.0)
	return f.ChurnScore
}

// IsHotspot reports whether the churn score exceeds threshold.
func (f *FileStats) IsHotspot(threshold float64) bool {
	return f.ChurnScore > threshold
}

// finalize fills the derived fields.
func (f *FileStats) finalize(t Thresholds) {
	f.NetChange = f.Additions - f.Deletions
	f.TotalChurn = f.Additions + f.Deletions
	switch {
	case f.Deletions > 0:
		f.AddDeleteRatio = stats.Round(float64(f.Additions)/float64(f.Deletions), 2)
	default:
		f.AddDeleteRatio = float64(f.Additions)
	}
	f.Category = t.Categorize(f.TotalChurn)

	f.Authors = make([]string, 0, len(f.AuthorCounts))
	for author := range f.AuthorCounts {
		f.Authors = append(f.Authors, author)
	}
	sort.Strings(f.Authors)
}

// AuthorChurn is one author's contribution to churn.
type AuthorChurn struct {
	Author       string `json:"author"`
	Commits      int    `json:"commits"`
	Additions    int    `json:"additions"`
	Deletions    int    `json:"deletions"`
	FilesTouched int    `json:"files_touched"`
}

// Summary provides aggregate statistics.
type Summary struct {
	TotalFileChanges    int            `json:"total_file_changes"`
	TotalFilesChanged   int            `json:"total_files_changed"`
	TotalAdditions      int            `json:"total_additions"`
	TotalDeletions      int            `json:"total_deletions"`
	HighChurnFiles      int            `json:"high_churn_files"`
	MediumChurnFiles    int            `json:"medium_churn_files"`
	LowChurnFiles       int            `json:"low_churn_files"`
	HotspotFiles        []string       `json:"hotspot_files"`
	StableFiles         []string       `json:"stable_files"`
	BusFactorRisks      []string       `json:"bus_factor_risks"`
	AuthorContributions map[string]int `json:"author_contributions"`
	AvgCommitsPerFile   float64        `json:"avg_commits_per_file"`
	MeanChurnScore      float64        `json:"mean_churn_score"`
	VarianceChurnScore  float64        `json:"variance_churn_score"`
	StdDevChurnScore    float64        `json:"stddev_churn_score"`
	MaxChurnScore       float64        `json:"max_churn_score"`
	P50ChurnScore       float64        `json:"p50_churn_score"`
	P95ChurnScore       float64        `json:"p95_churn_score"`
}

// NewSummary creates an initialized summary.
func NewSummary() Summary {
	return Summary{
		HotspotFiles:        make([]string, 0),
		StableFiles:         make([]string, 0),
		BusFactorRisks:      make([]string, 0),
		AuthorContributions: make(map[string]int),
	}
}

// CalculateStatistics computes mean, population variance, standard
// deviation and percentiles of the churn scores.
func (s *Summary) CalculateStatistics(files []FileStats) {
	if len(files) == 0 {
		return
	}

	scores := make([]float64, len(files))
	for i, f := range files {
		scores[i] = f.ChurnScore
	}

	s.MeanChurnScore = stats.Mean(scores)
	s.StdDevChurnScore = stats.PopStdDev(scores)
	s.VarianceChurnScore = s.StdDevChurnScore * s.StdDevChurnScore

	sorted := stats.Sorted(scores)
	s.MaxChurnScore = sorted[len(sorted)-1]
	s.P50ChurnScore = stats.Percentile(sorted, 50)
	s.P95ChurnScore = stats.Percentile(sorted, 95)
}

// Thresholds for hotspot and stable file detection.
const (
	HotspotThreshold = 0.5
	StableThreshold  = 0.1
	candidateCount   = 10
)

// IdentifyHotspotAndStableFiles populates HotspotFiles and StableFiles.
// Files must be sorted by ChurnScore descending before calling.
// Hotspots: top 10 files filtered by churn_score > 0.5
// Stable: bottom 10 files filtered by churn_score < 0.1
func (s *Summary) IdentifyHotspotAndStableFiles(files []FileStats) {
	s.HotspotFiles = make([]string, 0)
	s.StableFiles = make([]string, 0)

	for i := 0; i < min(candidateCount, len(files)); i++ {
		if files[i].IsHotspot(HotspotThreshold) {
			s.HotspotFiles = append(s.HotspotFiles, files[i].Path)
		}
	}

	for i := len(files) - 1; i >= max(len(files)-candidateCount, 0); i-- {
		if files[i].ChurnScore < StableThreshold && files[i].Commits > 0 {
			s.StableFiles = append(s.StableFiles, files[i].Path)
		}
	}
}

// Analysis represents the full churn analysis result.
type Analysis struct {
	Thresholds Thresholds    `json:"thresholds"`
	Files      []FileStats   `json:"files"`
	Authors    []AuthorChurn `json:"authors"`
	Summary    Summary       `json:"summary"`
}

// File returns the stats for a path, or nil.
func (a *Analysis) File(path string) *FileStats {
	for i := range a.Files {
		if a.Files[i].Path == path {
			return &a.Files[i]
		}
	}
	return nil
}
