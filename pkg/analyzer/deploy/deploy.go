// Package deploy recognizes deployments from release tags and merges to
// main-like branches, then measures their frequency, regularity and batch
// size.
package deploy

import (
	"regexp"
	"sort"
	"strings"

	"github.com/panbanda/gitpulse/pkg/analyzer"
	"github.com/panbanda/gitpulse/pkg/gitlog"
	"github.com/panbanda/gitpulse/pkg/stats"
)

// DefaultMainBranches are the branch names treated as production lines.
var DefaultMainBranches = []string{"main", "master", "production", "prod"}

// DefaultTagPatterns match production release tags.
var DefaultTagPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^v?\d+\.\d+(\.\d+)?([-+][0-9a-z.-]+)?$`),
	regexp.MustCompile(`^(release|prod|production|deploy)[-_/].+`),
	regexp.MustCompile(`.+[-_](release|prod|deploy)$`),
	regexp.MustCompile(`^v?\d{4}[.-]\d{2}[.-]\d{2}([.-]\d+)?$`),
}

// excludedTag matches pre-release and scratch markers as whole tokens.
var excludedTag = regexp.MustCompile(`(^|[^a-z])(alpha|beta|rc|dev|snapshot|wip|test)([^a-z]|$)`)

var (
	mergePullRequest = regexp.MustCompile(`^merge pull request #\d+`)
	mergeBranchInto  = regexp.MustCompile(`^merge (?:remote-tracking )?branch '([^']+)'(?: of \S+)? into ['"]?([\w./-]+)['"]?$`)
	mergeBranchBare  = regexp.MustCompile(`^merge (?:remote-tracking )?branch '([^']+)'(?: of \S+)?$`)
	mergedInto       = regexp.MustCompile(`^merged?\b.*\b(?:into|to)\s+['"]?([\w./-]+)['"]?$`)
)

// Analyzer identifies deployments within a time window.
type Analyzer struct {
	window        analyzer.Window
	mainBranches  []string
	branches      []string
	currentBranch string
	tagPatterns   []*regexp.Regexp
	mainSet       map[string]struct{}
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithBranches sets the repository branch list used to recognize main-like
// remote branches such as origin/main.
func WithBranches(branches []string) Option {
	return func(a *Analyzer) {
		a.branches = branches
	}
}

// WithCurrentBranch adds the checked-out branch to the main-like set.
func WithCurrentBranch(branch string) Option {
	return func(a *Analyzer) {
		a.currentBranch = strings.TrimSpace(branch)
	}
}

// WithMainBranches replaces the default main-like branch names.
func WithMainBranches(names []string) Option {
	return func(a *Analyzer) {
		if len(names) > 0 {
			a.mainBranches = names
		}
	}
}

// WithTagPatterns replaces the production tag patterns. Patterns are
// matched against lower-cased tag names.
func WithTagPatterns(patterns []*regexp.Regexp) Option {
	return func(a *Analyzer) {
		if len(patterns) > 0 {
			a.tagPatterns = patterns
		}
	}
}

// New creates a deployment analyzer for the given window. A missing or
// inverted window is an error.
func New(window analyzer.Window, opts ...Option) (*Analyzer, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	a := &Analyzer{
		window:       window,
		mainBranches: DefaultMainBranches,
		tagPatterns:  DefaultTagPatterns,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.mainSet = a.buildMainSet()
	return a, nil
}

func (a *Analyzer) buildMainSet() map[string]struct{} {
	set := make(map[string]struct{})
	for _, name := range a.mainBranches {
		set[strings.ToLower(name)] = struct{}{}
	}
	if a.currentBranch != "" {
		set[strings.ToLower(a.currentBranch)] = struct{}{}
	}
	for _, b := range a.branches {
		b = strings.ToLower(strings.TrimSpace(b))
		if _, ok := set[lastSegment(b)]; ok {
			set[b] = struct{}{}
		}
	}
	return set
}

func lastSegment(branch string) string {
	if i := strings.LastIndex(branch, "/"); i >= 0 {
		return branch[i+1:]
	}
	return branch
}

// Window returns the analysis window.
func (a *Analyzer) Window() analyzer.Window {
	return a.window
}

// IsMainBranch reports whether a branch name is main-like.
func (a *Analyzer) IsMainBranch(branch string) bool {
	b := strings.ToLower(strings.TrimSpace(branch))
	if _, ok := a.mainSet[b]; ok {
		return true
	}
	_, ok := a.mainSet[lastSegment(b)]
	return ok
}

// IsProductionTag reports whether a tag name looks like a production release.
func (a *Analyzer) IsProductionTag(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" || excludedTag.MatchString(n) {
		return false
	}
	for _, p := range a.tagPatterns {
		if p.MatchString(n) {
			return true
		}
	}
	return false
}

// IsMergeToMain reports whether a commit message records a merge into a
// main-like branch.
func (a *Analyzer) IsMergeToMain(message string) bool {
	m := strings.ToLower(strings.TrimSpace(message))
	if mergePullRequest.MatchString(m) {
		return true
	}
	if g := mergeBranchInto.FindStringSubmatch(m); g != nil {
		return a.IsMainBranch(g[2])
	}
	if g := mergeBranchBare.FindStringSubmatch(m); g != nil {
		// git omits "into <branch>" when merging into the default branch.
		return !a.IsMainBranch(g[1])
	}
	if g := mergedInto.FindStringSubmatch(m); g != nil {
		return a.IsMainBranch(g[1])
	}
	return false
}

// Candidates returns every tag and merge deployment candidate inside the
// window, before deduplication.
func (a *Analyzer) Candidates(commits []gitlog.Commit, tags []gitlog.Tag) []Deployment {
	out := make([]Deployment, 0)
	for _, t := range tags {
		if !a.window.Contains(t.Timestamp) || !a.IsProductionTag(t.Name) {
			continue
		}
		out = append(out, Deployment{
			Type:       TypeProductionRelease,
			Identifier: t.Name,
			Timestamp:  t.Timestamp,
			Hash:       t.Hash,
			Method:     MethodTag,
		})
	}
	for _, c := range commits {
		if !a.window.Contains(c.Timestamp) || !a.IsMergeToMain(c.Message) {
			continue
		}
		out = append(out, Deployment{
			Type:       TypeMergeDeployment,
			Identifier: c.ShortHash(),
			Timestamp:  c.Timestamp,
			Hash:       c.Hash,
			Method:     MethodMerge,
			Message:    c.Message,
		})
	}
	return out
}

// Deduplicate keeps at most one deployment per UTC calendar day: the latest
// tag of the day if there is one, otherwise the latest merge. The result is
// ordered by time.
func Deduplicate(candidates []Deployment) []Deployment {
	byDay := make(map[string]Deployment)
	for _, d := range candidates {
		day := d.Day()
		cur, ok := byDay[day]
		if !ok || preferred(d, cur) {
			byDay[day] = d
		}
	}

	out := make([]Deployment, 0, len(byDay))
	for _, d := range byDay {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// preferred reports whether d should replace cur for the same day.
func preferred(d, cur Deployment) bool {
	if d.Method != cur.Method {
		return d.Method == MethodTag
	}
	if !d.Timestamp.Equal(cur.Timestamp) {
		return d.Timestamp.After(cur.Timestamp)
	}
	return d.Identifier < cur.Identifier
}

// Analyze identifies deployments and computes frequency, stability and
// quality metrics over the window.
func (a *Analyzer) Analyze(commits []gitlog.Commit, tags []gitlog.Tag) *Analysis {
	candidates := a.Candidates(commits, tags)
	deployments := Deduplicate(candidates)

	analysis := &Analysis{
		Window:      a.window,
		Deployments: deployments,
		Summary: Summary{
			TotalDeployments: len(deployments),
			ByType:           make(map[Type]int),
		},
	}
	for _, c := range candidates {
		if c.Method == MethodTag {
			analysis.Summary.TagCandidates++
		} else {
			analysis.Summary.MergeCandidates++
		}
	}
	for _, d := range deployments {
		analysis.Summary.ByType[d.Type]++
		analysis.Summary.WeekdayDistribution[d.Timestamp.UTC().Weekday()]++
	}

	intervals := intervalDays(deployments)
	analysis.Frequency = a.frequency(deployments, intervals)
	analysis.Stability = stability(deployments, intervals)

	inWindow := 0
	for _, c := range commits {
		if a.window.Contains(c.Timestamp) {
			inWindow++
		}
	}
	analysis.Quality = quality(inWindow, len(deployments), analysis.Frequency.PerWeek)

	return analysis
}

// intervalDays returns the gaps between consecutive deployments in days.
func intervalDays(deployments []Deployment) []float64 {
	if len(deployments) < 2 {
		return nil
	}
	out := make([]float64, 0, len(deployments)-1)
	for i := 1; i < len(deployments); i++ {
		out = append(out, deployments[i].Timestamp.Sub(deployments[i-1].Timestamp).Hours()/24)
	}
	return out
}

func (a *Analyzer) frequency(deployments []Deployment, intervals []float64) Frequency {
	var f Frequency
	if weeks := a.window.Days() / 7; weeks > 0 {
		f.PerWeek = stats.Round(float64(len(deployments))/weeks, 2)
	}
	f.AvgDaysBetween = stats.Round(stats.Mean(intervals), 2)
	if len(deployments) > 0 {
		last := deployments[len(deployments)-1].Timestamp
		f.DaysSinceLast = stats.Round(max(a.window.End.Sub(last).Hours()/24, 0), 2)
	} else {
		f.DaysSinceLast = stats.Round(a.window.Days(), 2)
	}
	f.Category = FrequencyCategoryFor(f.PerWeek)
	return f
}

func stability(deployments []Deployment, intervals []float64) Stability {
	if len(deployments) < 2 {
		return Stability{Predictability: InsufficientData}
	}
	cv := stats.CoefficientOfVariation(intervals)
	consistency := max(1-cv, 0)
	lo, hi := stats.MinMax(intervals)
	return Stability{
		IntervalCV:       stats.Round(cv, 4),
		ConsistencyScore: stats.Round(consistency, 4),
		Predictability:   PredictabilityFor(consistency),
		MinIntervalDays:  stats.Round(lo, 2),
		MaxIntervalDays:  stats.Round(hi, 2),
	}
}

func quality(commits, deployments int, perWeek float64) Quality {
	q := Quality{
		CommitsInWindow: commits,
		BatchCategory:   BatchNone,
		Velocity:        VelocityFor(perWeek),
	}
	if deployments > 0 {
		q.BatchSize = stats.Round(float64(commits)/float64(deployments), 2)
		q.BatchCategory = BatchCategoryFor(q.BatchSize)
	}
	return q
}
