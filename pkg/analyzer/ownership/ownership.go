// Package ownership derives per-file ownership distribution and
// concentration from churn statistics.
package ownership

import (
	"sort"

	"github.com/panbanda/gitpulse/pkg/analyzer/churn"
)

// DefaultTopContributors is the number of contributors listed in the summary.
const DefaultTopContributors = 5

// Analyzer calculates code ownership and bus factor.
type Analyzer struct {
	topContributors int
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithTopContributors sets how many contributors the summary lists.
func WithTopContributors(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.topContributors = n
		}
	}
}

// New creates a new ownership analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		topContributors: DefaultTopContributors,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze computes ownership for every file in a churn analysis.
// A nil churn analysis yields an empty result.
func (a *Analyzer) Analyze(c *churn.Analysis) *Analysis {
	analysis := &Analysis{
		Files: make([]FileOwnership, 0),
	}
	if c != nil {
		for _, fs := range c.Files {
			if fo, ok := analyzeFile(fs); ok {
				analysis.Files = append(analysis.Files, fo)
			}
		}
	}

	// Sort by concentration (highest first - most risky)
	sort.Slice(analysis.Files, func(i, j int) bool {
		if analysis.Files[i].Concentration != analysis.Files[j].Concentration {
			return analysis.Files[i].Concentration > analysis.Files[j].Concentration
		}
		return analysis.Files[i].Path < analysis.Files[j].Path
	})

	analysis.CalculateSummary(a.topContributors)

	return analysis
}

// analyzeFile builds ownership from the per-author commit counts of one file.
func analyzeFile(fs churn.FileStats) (FileOwnership, bool) {
	var total int
	for _, n := range fs.AuthorCounts {
		total += n
	}
	if total == 0 {
		return FileOwnership{}, false
	}

	contributors := make([]Contributor, 0, len(fs.AuthorCounts))
	distribution := make(map[string]float64, len(fs.AuthorCounts))
	for name, n := range fs.AuthorCounts {
		pct := float64(n) / float64(total) * 100
		contributors = append(contributors, Contributor{
			Name:       name,
			Commits:    n,
			Percentage: pct,
		})
		distribution[name] = pct
	}

	// Highest share first; ties go to the alphabetically first author.
	sort.Slice(contributors, func(i, j int) bool {
		if contributors[i].Commits != contributors[j].Commits {
			return contributors[i].Commits > contributors[j].Commits
		}
		return contributors[i].Name < contributors[j].Name
	})

	primary := contributors[0]
	return FileOwnership{
		Path:             fs.Path,
		PrimaryOwner:     primary.Name,
		OwnershipPercent: primary.Percentage,
		Concentration:    CalculateConcentration(contributors),
		Type:             TypeFor(primary.Percentage, len(contributors)),
		TotalCommits:     total,
		Distribution:     distribution,
		Contributors:     contributors,
		IsSilo:           len(contributors) == 1,
	}, true
}

// Close releases any resources.
func (a *Analyzer) Close() {
	// No resources to release
}
