package size

import "time"

// Category is a commit size bucket.
type Category string

// Size categories, smallest first.
const (
	CategorySmall  Category = "small"
	CategoryMedium Category = "medium"
	CategoryLarge  Category = "large"
	CategoryHuge   Category = "huge"
)

// RiskLevel bands a risk score.
type RiskLevel string

// Risk levels.
const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// FileWeight is the number of size points each distinct changed file adds.
const FileWeight = 10

// Thresholds are the size boundaries derived from the observed distribution.
type Thresholds struct {
	Small  float64 `json:"small"`
	Medium float64 `json:"medium"`
	Large  float64 `json:"large"`
	Huge   float64 `json:"huge"`
}

// DefaultThresholds returns the thresholds used when there is no history.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Small:  50,
		Medium: 200,
		Large:  500,
		Huge:   1000,
	}
}

// Categorize buckets a size. Ties at a boundary resolve to the lower category.
func (t Thresholds) Categorize(size float64) Category {
	switch {
	case size <= t.Medium:
		return CategorySmall
	case size <= t.Large:
		return CategoryMedium
	case size <= t.Huge:
		return CategoryLarge
	default:
		return CategoryHuge
	}
}

// Monotonic reports whether Small <= Medium <= Large <= Huge.
func (t Thresholds) Monotonic() bool {
	return t.Small <= t.Medium && t.Medium <= t.Large && t.Large <= t.Huge
}

// CommitSize is the weighted size of one commit.
type CommitSize struct {
	Hash         string    `json:"hash"`
	Author       string    `json:"author"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
	Additions    int       `json:"additions"`
	Deletions    int       `json:"deletions"`
	FilesChanged int       `json:"files_changed"`
	Size         int       `json:"size"`
	Category     Category  `json:"category"`
}

// CategoryCounts tallies commits per size category.
type CategoryCounts struct {
	Small  int `json:"small"`
	Medium int `json:"medium"`
	Large  int `json:"large"`
	Huge   int `json:"huge"`
}

// Add records one commit of the given category.
func (c *CategoryCounts) Add(cat Category) {
	switch cat {
	case CategorySmall:
		c.Small++
	case CategoryMedium:
		c.Medium++
	case CategoryLarge:
		c.Large++
	case CategoryHuge:
		c.Huge++
	}
}

// Total returns the number of commits counted.
func (c CategoryCounts) Total() int {
	return c.Small + c.Medium + c.Large + c.Huge
}

// RiskScore weighs huge commits three times a large one, scaled to 0-100.
func (c CategoryCounts) RiskScore() float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return float64(c.Large+3*c.Huge) / float64(3*total) * 100
}

// Distribution describes the spread of commit sizes.
type Distribution struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Median float64 `json:"median"`
	P75    float64 `json:"p75"`
	P90    float64 `json:"p90"`
	P95    float64 `json:"p95"`
	P99    float64 `json:"p99"`
	Max    float64 `json:"max"`
}

// AuthorSize summarizes one author's commit sizes.
type AuthorSize struct {
	Author    string         `json:"author"`
	Commits   int            `json:"commits"`
	AvgSize   float64        `json:"avg_size"`
	Counts    CategoryCounts `json:"counts"`
	RiskScore float64        `json:"risk_score"`
	RiskLevel RiskLevel      `json:"risk_level"`
}

// Summary provides aggregate statistics.
type Summary struct {
	TotalCommits   int            `json:"total_commits"`
	TotalAdditions int            `json:"total_additions"`
	TotalDeletions int            `json:"total_deletions"`
	Counts         CategoryCounts `json:"counts"`
	RiskScore      float64        `json:"risk_score"`
	RiskLevel      RiskLevel      `json:"risk_level"`
}

// Analysis represents the full size and risk result.
type Analysis struct {
	Thresholds   Thresholds   `json:"thresholds"`
	Distribution Distribution `json:"distribution"`
	Commits      []CommitSize `json:"commits"`
	Largest      []CommitSize `json:"largest"`
	Authors      []AuthorSize `json:"authors"`
	Summary      Summary      `json:"summary"`
}

// RiskLevelFor bands a 0-100 risk score.
func RiskLevelFor(score float64) RiskLevel {
	switch {
	case score < 15:
		return RiskLow
	case score < 30:
		return RiskModerate
	case score < 50:
		return RiskHigh
	default:
		return RiskCritical
	}
}
