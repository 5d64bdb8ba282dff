// Package size scores commits by weighted line and file counts and derives
// risk from how many land in the large and huge buckets.
package size

import (
	"sort"

	"github.com/panbanda/gitpulse/pkg/analyzer"
	"github.com/panbanda/gitpulse/pkg/gitlog"
	"github.com/panbanda/gitpulse/pkg/stats"
)

// DefaultTopN is the number of largest commits reported.
const DefaultTopN = 10

// Compile-time check that Analyzer implements CommitAnalyzer.
var _ analyzer.CommitAnalyzer[*Analysis] = (*Analyzer)(nil)

// Analyzer computes commit size thresholds and risk.
type Analyzer struct {
	fallback Thresholds
	topN     int
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithFallbackThresholds sets the thresholds used for empty history.
// Non-monotonic thresholds are ignored.
func WithFallbackThresholds(t Thresholds) Option {
	return func(a *Analyzer) {
		if t.Monotonic() {
			a.fallback = t
		}
	}
}

// WithTopN sets how many of the largest commits are reported.
func WithTopN(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.topN = n
		}
	}
}

// New creates a new size analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		fallback: DefaultThresholds(),
		topN:     DefaultTopN,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Size returns the weighted size of a commit: changed lines plus
// FileWeight per distinct file.
func Size(c gitlog.Commit) int {
	return c.Additions() + c.Deletions() + FileWeight*c.FilesChanged()
}

// CalculateThresholds returns the 25th/50th/75th/90th percentiles of sizes,
// or fallback when sizes is empty.
func CalculateThresholds(sizes []float64, fallback Thresholds) Thresholds {
	if len(sizes) == 0 {
		return fallback
	}
	sorted := stats.Sorted(sizes)
	return Thresholds{
		Small:  stats.Quantile(sorted, 25),
		Medium: stats.Quantile(sorted, 50),
		Large:  stats.Quantile(sorted, 75),
		Huge:   stats.Quantile(sorted, 90),
	}
}

// Analyze sizes every commit and summarizes risk overall and per author.
func (a *Analyzer) Analyze(commits []gitlog.Commit) *Analysis {
	sizes := make([]float64, len(commits))
	for i, c := range commits {
		sizes[i] = float64(Size(c))
	}

	analysis := &Analysis{
		Thresholds:   CalculateThresholds(sizes, a.fallback),
		Distribution: distribution(sizes),
		Commits:      make([]CommitSize, 0, len(commits)),
		Largest:      make([]CommitSize, 0),
		Authors:      make([]AuthorSize, 0),
	}

	byAuthor := make(map[string]*AuthorSize)
	authorTotals := make(map[string]int)
	for i, c := range commits {
		cs := CommitSize{
			Hash:         c.Hash,
			Author:       c.Author(),
			Message:      c.Message,
			Timestamp:    c.Timestamp,
			Additions:    c.Additions(),
			Deletions:    c.Deletions(),
			FilesChanged: c.FilesChanged(),
			Size:         int(sizes[i]),
		}
		cs.Category = analysis.Thresholds.Categorize(sizes[i])
		analysis.Commits = append(analysis.Commits, cs)

		analysis.Summary.Counts.Add(cs.Category)
		analysis.Summary.TotalAdditions += cs.Additions
		analysis.Summary.TotalDeletions += cs.Deletions

		as, ok := byAuthor[cs.Author]
		if !ok {
			as = &AuthorSize{Author: cs.Author}
			byAuthor[cs.Author] = as
		}
		as.Commits++
		as.Counts.Add(cs.Category)
		authorTotals[cs.Author] += cs.Size
	}

	analysis.Summary.TotalCommits = len(commits)
	analysis.Summary.RiskScore = stats.Round(analysis.Summary.Counts.RiskScore(), 2)
	analysis.Summary.RiskLevel = RiskLevelFor(analysis.Summary.RiskScore)

	for name, as := range byAuthor {
		as.AvgSize = stats.Round(float64(authorTotals[name])/float64(as.Commits), 2)
		as.RiskScore = stats.Round(as.Counts.RiskScore(), 2)
		as.RiskLevel = RiskLevelFor(as.RiskScore)
		analysis.Authors = append(analysis.Authors, *as)
	}
	sort.Slice(analysis.Authors, func(i, j int) bool {
		ai, aj := analysis.Authors[i], analysis.Authors[j]
		if ai.RiskScore != aj.RiskScore {
			return ai.RiskScore > aj.RiskScore
		}
		if ai.Commits != aj.Commits {
			return ai.Commits > aj.Commits
		}
		return ai.Author < aj.Author
	})

	analysis.Largest = largest(analysis.Commits, a.topN)

	return analysis
}

// largest returns the n biggest commits, biggest first. Equal sizes keep
// log order.
func largest(commits []CommitSize, n int) []CommitSize {
	out := make([]CommitSize, len(commits))
	copy(out, commits)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Size > out[j].Size
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func distribution(sizes []float64) Distribution {
	if len(sizes) == 0 {
		return Distribution{}
	}
	sorted := stats.Sorted(sizes)
	return Distribution{
		Mean:   stats.Round(stats.Mean(sizes), 2),
		StdDev: stats.Round(stats.StdDev(sizes), 2),
		Min:    sorted[0],
		Median: stats.Quantile(sorted, 50),
		P75:    stats.Quantile(sorted, 75),
		P90:    stats.Quantile(sorted, 90),
		P95:    stats.Quantile(sorted, 95),
		P99:    stats.Quantile(sorted, 99),
		Max:    sorted[len(sorted)-1],
	}
}
