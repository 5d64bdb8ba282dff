// Package classify labels commits as merge, bugfix, feature, maintenance or
// other from their messages.
package classify

import (
	"regexp"
	"sort"
	"strings"

	"github.com/panbanda/gitpulse/pkg/analyzer"
	"github.com/panbanda/gitpulse/pkg/gitlog"
	"github.com/panbanda/gitpulse/pkg/stats"
)

// Compile-time check that Analyzer implements CommitAnalyzer.
var _ analyzer.CommitAnalyzer[*Analysis] = (*Analyzer)(nil)

// conventional matches a conventional-commit type prefix with optional
// scope and breaking-change marker, e.g. "fix(api)!:".
func conventional(types string) *regexp.Regexp {
	return regexp.MustCompile(`^(` + types + `)(\([^)]*\))?!?:`)
}

// Merge patterns come first so that "merge branch 'fix-login'" is never a bugfix.
var mergePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^merge\b`),
	regexp.MustCompile(`^merged\b`),
	regexp.MustCompile(`^auto[- ]?merge\b`),
}

var bugfixPatterns = []*regexp.Regexp{
	conventional(`fix|bugfix|hotfix`),
	regexp.MustCompile(`\bfix(es|ed|ing)?\b`),
	regexp.MustCompile(`\bbugs?\b`),
	regexp.MustCompile(`\bbugfix\b`),
	regexp.MustCompile(`\bhotfix(es)?\b`),
	regexp.MustCompile(`\bresolv(e|es|ed|ing)\b`),
	regexp.MustCompile(`\bpatch(es|ed)?\b`),
	regexp.MustCompile(`\bcrash(es|ed)?\b`),
	regexp.MustCompile(`\bdefects?\b`),
	regexp.MustCompile(`\bregression\b`),
	regexp.MustCompile(`\bcloses?\s+#\d+`),
}

var featurePatterns = []*regexp.Regexp{
	conventional(`feat|feature`),
	regexp.MustCompile(`\badd(s|ed|ing)?\b`),
	regexp.MustCompile(`\bimplement(s|ed|ing)?\b`),
	regexp.MustCompile(`\bintroduc(e|es|ed|ing)\b`),
	regexp.MustCompile(`\bnew\b`),
	regexp.MustCompile(`\bsupports?\s+for\b`),
	regexp.MustCompile(`\bfeatures?\b`),
	regexp.MustCompile(`\benabl(e|es|ed|ing)\b`),
}

var maintenancePatterns = []*regexp.Regexp{
	conventional(`chore|refactor|docs?|style|tests?|ci|build|perf|deps|revert`),
	regexp.MustCompile(`\brefactor(s|ed|ing)?\b`),
	regexp.MustCompile(`\bbump(s|ed)?\b`),
	regexp.MustCompile(`\bupgrad(e|es|ed|ing)\b`),
	regexp.MustCompile(`\bupdated?\s+(dependenc(y|ies)|deps)\b`),
	regexp.MustCompile(`\bclean\s?up\b`),
	regexp.MustCompile(`\bformat(ting)?\b`),
	regexp.MustCompile(`\blint(ing)?\b`),
	regexp.MustCompile(`\btypos?\b`),
	regexp.MustCompile(`\b(docs?|documentation|readme)\b`),
	regexp.MustCompile(`\bremov(e|es|ed)\s+(unused|dead)\b`),
	regexp.MustCompile(`\bdeprecat(e|es|ed|ion)\b`),
	regexp.MustCompile(`\bchore\b`),
}

// DefaultRules returns the decision list in priority order:
// merge, bugfix, feature, maintenance.
func DefaultRules() []Rule {
	return []Rule{
		{Category: CategoryMerge, Patterns: mergePatterns},
		{Category: CategoryBugfix, Patterns: bugfixPatterns},
		{Category: CategoryFeature, Patterns: featurePatterns},
		{Category: CategoryMaintenance, Patterns: maintenancePatterns},
	}
}

var defaultRules = DefaultRules()

// Normalize lower-cases and trims a commit message.
func Normalize(message string) string {
	return strings.ToLower(strings.TrimSpace(message))
}

// Classify resolves a message with the default decision list.
func Classify(message string) Category {
	return classifyWith(defaultRules, message)
}

// IsMerge reports whether a message reads as a merge commit.
func IsMerge(message string) bool {
	return Rule{Category: CategoryMerge, Patterns: mergePatterns}.Matches(Normalize(message))
}

func classifyWith(rules []Rule, message string) Category {
	normalized := Normalize(message)
	for _, rule := range rules {
		if rule.Matches(normalized) {
			return rule.Category
		}
	}
	return CategoryOther
}

// Analyzer classifies commit sequences.
type Analyzer struct {
	rules []Rule
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithRules replaces the decision list. Rules are evaluated in order and
// the first match wins.
func WithRules(rules []Rule) Option {
	return func(a *Analyzer) {
		if len(rules) > 0 {
			a.rules = rules
		}
	}
}

// New creates a new commit classifier.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		rules: defaultRules,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Classify resolves a single message.
func (a *Analyzer) Classify(message string) Category {
	return classifyWith(a.rules, message)
}

// Analyze classifies every commit, preserving input order.
func (a *Analyzer) Analyze(commits []gitlog.Commit) *Analysis {
	analysis := &Analysis{
		Commits: make([]CommitClassification, 0, len(commits)),
		Authors: make([]AuthorBreakdown, 0),
	}

	byAuthor := make(map[string]*AuthorBreakdown)
	for _, c := range commits {
		category := a.Classify(c.Message)
		author := c.Author()

		analysis.Commits = append(analysis.Commits, CommitClassification{
			Hash:      c.Hash,
			Author:    author,
			Message:   c.Message,
			Timestamp: c.Timestamp,
			Category:  category,
		})

		switch category {
		case CategoryMerge:
			analysis.Summary.MergeCount++
		case CategoryBugfix:
			analysis.Summary.BugfixCount++
		case CategoryFeature:
			analysis.Summary.FeatureCount++
		case CategoryMaintenance:
			analysis.Summary.MaintenanceCount++
		default:
			analysis.Summary.OtherCount++
		}

		ab, ok := byAuthor[author]
		if !ok {
			ab = &AuthorBreakdown{Author: author, Counts: make(map[Category]int)}
			byAuthor[author] = ab
		}
		ab.Total++
		ab.Counts[category]++
	}

	total := len(commits)
	s := &analysis.Summary
	s.TotalCommits = total
	s.MergeRatio = stats.Round(stats.Ratio(s.MergeCount, total), 2)
	s.BugfixRatio = stats.Round(stats.Ratio(s.BugfixCount, total), 2)
	s.FeatureRatio = stats.Round(stats.Ratio(s.FeatureCount, total), 2)
	s.MaintenanceRatio = stats.Round(stats.Ratio(s.MaintenanceCount, total), 2)
	s.OtherRatio = stats.Round(stats.Ratio(s.OtherCount, total), 2)

	for _, ab := range byAuthor {
		analysis.Authors = append(analysis.Authors, *ab)
	}
	sort.Slice(analysis.Authors, func(i, j int) bool {
		if analysis.Authors[i].Total != analysis.Authors[j].Total {
			return analysis.Authors[i].Total > analysis.Authors[j].Total
		}
		return analysis.Authors[i].Author < analysis.Authors[j].Author
	})

	return analysis
}

// Close releases analyzer resources.
func (a *Analyzer) Close() {
	// No resources to release
}
