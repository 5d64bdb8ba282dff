package ownership

import "sort"

// Type labels how a file's changes are spread across authors.
type Type string

// Ownership types.
const (
	TypeSingleOwner Type = "SINGLE_OWNER"
	TypeDominant    Type = "DOMINANT_OWNER"
	TypePrimary     Type = "PRIMARY_OWNER"
	TypeShared      Type = "SHARED_OWNERSHIP"
	TypeDistributed Type = "DISTRIBUTED_OWNERSHIP"
)

// Contributor represents a contributor to a file.
type Contributor struct {
	Name       string  `json:"name"`
	Commits    int     `json:"commits"`
	Percentage float64 `json:"percentage"` // 0-100
}

// FileOwnership represents ownership metrics for a single file.
type FileOwnership struct {
	Path             string             `json:"path"`
	PrimaryOwner     string             `json:"primary_owner"`
	OwnershipPercent float64            `json:"ownership_percent"` // 0-100
	Concentration    float64            `json:"concentration"`     // 0-100, higher = more concentrated
	Type             Type               `json:"ownership_type"`
	TotalCommits     int                `json:"total_commits"`
	Distribution     map[string]float64 `json:"distribution"`
	Contributors     []Contributor      `json:"contributors"`
	IsSilo           bool               `json:"is_silo"` // Single contributor
}

// Summary provides aggregate statistics.
type Summary struct {
	TotalFiles       int          `json:"total_files"`
	BusFactor        int          `json:"bus_factor"`
	SiloCount        int          `json:"silo_count"`
	AvgContributors  float64      `json:"avg_contributors"`
	AvgConcentration float64      `json:"avg_concentration"`
	MaxConcentration float64      `json:"max_concentration"`
	TypeCounts       map[Type]int `json:"type_counts"`
	TopContributors  []string     `json:"top_contributors"`
	SiloFiles        []string     `json:"silo_files"`
}

// Analysis represents the full ownership analysis result.
type Analysis struct {
	Files   []FileOwnership `json:"files"`
	Summary Summary         `json:"summary"`
}

// TypeFor labels a file from its primary owner's percentage and the
// number of contributors.
func TypeFor(primaryPercent float64, contributors int) Type {
	switch {
	case contributors == 1:
		return TypeSingleOwner
	case primaryPercent >= 80:
		return TypeDominant
	case primaryPercent >= 60:
		return TypePrimary
	case primaryPercent >= 40:
		return TypeShared
	default:
		return TypeDistributed
	}
}

// CalculateConcentration computes a Herfindahl-Hirschman style index of
// ownership on a 0-100 scale: the sum of squared percentage fractions.
// A single contributor is 100 by definition.
func CalculateConcentration(contributors []Contributor) float64 {
	if len(contributors) == 0 {
		return 0
	}
	if len(contributors) == 1 {
		return 100
	}

	var hhi float64
	for _, c := range contributors {
		share := c.Percentage / 100
		hhi += share * share
	}
	return hhi * 100
}

// CalculateSummary computes summary statistics.
func (o *Analysis) CalculateSummary(topN int) {
	o.Summary = Summary{
		TypeCounts:      make(map[Type]int),
		TopContributors: make([]string, 0),
		SiloFiles:       make([]string, 0),
	}
	if len(o.Files) == 0 {
		return
	}

	o.Summary.TotalFiles = len(o.Files)

	contributorCounts := make(map[string]int)
	var totalContributors int
	var totalConcentration float64

	for _, f := range o.Files {
		if f.IsSilo {
			o.Summary.SiloCount++
			o.Summary.SiloFiles = append(o.Summary.SiloFiles, f.Path)
		}
		o.Summary.TypeCounts[f.Type]++
		totalContributors += len(f.Contributors)
		totalConcentration += f.Concentration
		o.Summary.MaxConcentration = max(o.Summary.MaxConcentration, f.Concentration)

		for _, c := range f.Contributors {
			contributorCounts[c.Name] += c.Commits
		}
	}

	o.Summary.AvgContributors = float64(totalContributors) / float64(len(o.Files))
	o.Summary.AvgConcentration = totalConcentration / float64(len(o.Files))
	o.Summary.BusFactor = calculateBusFactor(contributorCounts)
	o.Summary.TopContributors = getTopContributors(contributorCounts, topN)
}

type contribution struct {
	name    string
	changes int
}

// rankContributors sorts by changes descending, then name.
func rankContributors(contributorCounts map[string]int) []contribution {
	sorted := make([]contribution, 0, len(contributorCounts))
	for name, changes := range contributorCounts {
		sorted = append(sorted, contribution{name, changes})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].changes != sorted[j].changes {
			return sorted[i].changes > sorted[j].changes
		}
		return sorted[i].name < sorted[j].name
	})
	return sorted
}

// calculateBusFactor returns the minimum number of contributors
// who together account for at least half of all file changes.
func calculateBusFactor(contributorCounts map[string]int) int {
	var total int
	for _, count := range contributorCounts {
		total += count
	}
	if total == 0 {
		return 0
	}

	var accumulated int
	for i, c := range rankContributors(contributorCounts) {
		accumulated += c.changes
		if accumulated*2 >= total {
			return i + 1
		}
	}
	return len(contributorCounts)
}

// getTopContributors returns the top N contributors by file changes.
func getTopContributors(contributorCounts map[string]int, n int) []string {
	result := make([]string, 0, n)
	for i, c := range rankContributors(contributorCounts) {
		if i >= n {
			break
		}
		result = append(result, c.name)
	}
	return result
}
