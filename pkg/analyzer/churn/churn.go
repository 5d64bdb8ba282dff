// Package churn folds per-file changes across commits into file and author
// churn statistics.
package churn

import (
	"sort"

	"github.com/panbanda/gitpulse/pkg/analyzer"
	"github.com/panbanda/gitpulse/pkg/gitlog"
)

// Analyzer aggregates file churn from commit history.
type Analyzer struct {
	thresholds Thresholds
}

// Compile-time check that Analyzer implements CommitAnalyzer.
var _ analyzer.CommitAnalyzer[*Analysis] = (*Analyzer)(nil)

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithThresholds sets the absolute churn category boundaries.
// Boundaries where Medium exceeds High are ignored.
func WithThresholds(t Thresholds) Option {
	return func(a *Analyzer) {
		if t.Medium >= 0 && t.Medium <= t.High {
			a.thresholds = t
		}
	}
}

// New creates a new churn analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		thresholds: DefaultThresholds(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze folds every file change into per-file and per-author statistics.
// A commit that lists the same path more than once counts as one commit
// for that path, while all of its lines are kept.
func (a *Analyzer) Analyze(commits []gitlog.Commit) *Analysis {
	files := make(map[string]*FileStats)
	authors := make(map[string]*AuthorChurn)
	authorFiles := make(map[string]map[string]struct{})

	for _, c := range commits {
		author := c.Author()
		ac, ok := authors[author]
		if !ok {
			ac = &AuthorChurn{Author: author}
			authors[author] = ac
			authorFiles[author] = make(map[string]struct{})
		}
		ac.Commits++

		seen := make(map[string]struct{}, len(c.Files))
		for _, fc := range c.Files {
			fs, exists := files[fc.Path]
			if !exists {
				fs = &FileStats{
					Path:         fc.Path,
					AuthorCounts: make(map[string]int),
					FirstChange:  c.Timestamp,
					LastChange:   c.Timestamp,
				}
				files[fc.Path] = fs
			}

			fs.Additions += fc.Additions
			fs.Deletions += fc.Deletions
			ac.Additions += fc.Additions
			ac.Deletions += fc.Deletions

			if _, dup := seen[fc.Path]; dup {
				continue
			}
			seen[fc.Path] = struct{}{}

			fs.Commits++
			fs.AuthorCounts[author]++
			authorFiles[author][fc.Path] = struct{}{}

			if c.Timestamp.Before(fs.FirstChange) {
				fs.FirstChange = c.Timestamp
			}
			if c.Timestamp.After(fs.LastChange) {
				fs.LastChange = c.Timestamp
			}
		}
	}

	return a.buildAnalysis(files, authors, authorFiles)
}

// buildAnalysis constructs the final analysis from collected metrics.
func (a *Analyzer) buildAnalysis(files map[string]*FileStats, authors map[string]*AuthorChurn, authorFiles map[string]map[string]struct{}) *Analysis {
	analysis := &Analysis{
		Thresholds: a.thresholds,
		Files:      make([]FileStats, 0, len(files)),
		Authors:    make([]AuthorChurn, 0, len(authors)),
		Summary:    NewSummary(),
	}

	// Find max values for normalization
	var maxCommits, maxChanges int
	for _, fs := range files {
		fs.finalize(a.thresholds)
		maxCommits = max(maxCommits, fs.Commits)
		maxChanges = max(maxChanges, fs.TotalChurn)
	}

	s := &analysis.Summary
	for _, fs := range files {
		fs.CalculateChurnScore(maxCommits, maxChanges)
		analysis.Files = append(analysis.Files, *fs)

		s.TotalFileChanges += fs.Commits
		s.TotalAdditions += fs.Additions
		s.TotalDeletions += fs.Deletions
		for author, count := range fs.AuthorCounts {
			s.AuthorContributions[author] += count
		}

		switch fs.Category {
		case CategoryHigh:
			s.HighChurnFiles++
		case CategoryMedium:
			s.MediumChurnFiles++
		default:
			s.LowChurnFiles++
		}
	}

	// Sort by churn score (highest first)
	sort.Slice(analysis.Files, func(i, j int) bool {
		if analysis.Files[i].ChurnScore != analysis.Files[j].ChurnScore {
			return analysis.Files[i].ChurnScore > analysis.Files[j].ChurnScore
		}
		return analysis.Files[i].Path < analysis.Files[j].Path
	})

	for _, fs := range analysis.Files {
		if len(fs.Authors) == 1 && fs.Category != CategoryLow {
			s.BusFactorRisks = append(s.BusFactorRisks, fs.Path)
		}
	}

	for name, ac := range authors {
		ac.FilesTouched = len(authorFiles[name])
		analysis.Authors = append(analysis.Authors, *ac)
	}
	sort.Slice(analysis.Authors, func(i, j int) bool {
		ci := analysis.Authors[i].Additions + analysis.Authors[i].Deletions
		cj := analysis.Authors[j].Additions + analysis.Authors[j].Deletions
		if ci != cj {
			return ci > cj
		}
		return analysis.Authors[i].Author < analysis.Authors[j].Author
	})

	s.TotalFilesChanged = len(analysis.Files)
	if len(analysis.Files) > 0 {
		s.AvgCommitsPerFile = float64(s.TotalFileChanges) / float64(len(analysis.Files))
	}

	s.CalculateStatistics(analysis.Files)
	s.IdentifyHotspotAndStableFiles(analysis.Files)

	return analysis
}

// Close releases any resources held by the analyzer.
func (a *Analyzer) Close() {
}
