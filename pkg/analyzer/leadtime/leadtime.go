// Package leadtime measures how long commits wait before a deployment ships
// them and where that wait piles up.
package leadtime

import (
	"sort"
	"time"

	"github.com/panbanda/gitpulse/pkg/analyzer"
	"github.com/panbanda/gitpulse/pkg/analyzer/classify"
	"github.com/panbanda/gitpulse/pkg/analyzer/deploy"
	"github.com/panbanda/gitpulse/pkg/gitlog"
	"github.com/panbanda/gitpulse/pkg/stats"
)

// Analyzer computes commit-to-deployment lead times within a window.
type Analyzer struct {
	window            analyzer.Window
	longMessageLength int
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithLongMessageLength sets the subject length from which a commit counts
// as long-message. Non-positive values are ignored.
func WithLongMessageLength(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.longMessageLength = n
		}
	}
}

// New creates a lead-time analyzer for the given window. A missing or
// inverted window is an error.
func New(window analyzer.Window, opts ...Option) (*Analyzer, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	a := &Analyzer{
		window:            window,
		longMessageLength: DefaultLongMessageLength,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Window returns the analysis window.
func (a *Analyzer) Window() analyzer.Window {
	return a.window
}

// Analyze matches every commit in the window with the earliest deployment
// strictly after it.
func (a *Analyzer) Analyze(commits []gitlog.Commit, deployments []deploy.Deployment) *Analysis {
	deps := make([]deploy.Deployment, len(deployments))
	copy(deps, deployments)
	sort.SliceStable(deps, func(i, j int) bool {
		return deps[i].Timestamp.Before(deps[j].Timestamp)
	})

	analysis := &Analysis{
		Window:  a.window,
		Commits: make([]CommitLeadTime, 0),
		Authors: make([]AuthorLeadTime, 0),
		Bottlenecks: Bottlenecks{
			SlowAuthors: make([]string, 0),
		},
	}

	totals := make(map[string]int)
	hoursByAuthor := make(map[string][]float64)
	for _, c := range commits {
		if !a.window.Contains(c.Timestamp) {
			continue
		}
		author := c.Author()
		totals[author]++
		analysis.Summary.TotalCommits++

		i := sort.Search(len(deps), func(i int) bool {
			return deps[i].Timestamp.After(c.Timestamp)
		})
		if i == len(deps) {
			continue
		}
		lt := a.leadTime(c, deps[i])
		analysis.Commits = append(analysis.Commits, lt)
		hoursByAuthor[author] = append(hoursByAuthor[author], lt.LeadTimeHours)
	}

	sort.SliceStable(analysis.Commits, func(i, j int) bool {
		if !analysis.Commits[i].Timestamp.Equal(analysis.Commits[j].Timestamp) {
			return analysis.Commits[i].Timestamp.Before(analysis.Commits[j].Timestamp)
		}
		return analysis.Commits[i].Hash < analysis.Commits[j].Hash
	})

	hours := make([]float64, len(analysis.Commits))
	for i, lt := range analysis.Commits {
		hours[i] = lt.LeadTimeHours
	}
	analysis.Overall = distribution(hours)
	analysis.Authors = authorProfiles(totals, hoursByAuthor)
	analysis.Bottlenecks = bottlenecks(analysis.Commits, analysis.Authors, analysis.Overall.Median)
	analysis.Summary = summarize(analysis.Summary.TotalCommits, analysis.Commits, analysis.Overall.Avg)

	return analysis
}

func (a *Analyzer) leadTime(c gitlog.Commit, d deploy.Deployment) CommitLeadTime {
	weekday := c.Timestamp.Weekday()
	hour := c.Timestamp.Hour()
	return CommitLeadTime{
		Hash:          c.Hash,
		Author:        c.Author(),
		Message:       c.Message,
		Timestamp:     c.Timestamp,
		Deployment:    d.Identifier,
		DeployedAt:    d.Timestamp,
		LeadTimeHours: stats.Round(d.Timestamp.Sub(c.Timestamp).Hours(), 2),
		Weekday:       weekday.String(),
		IsWeekend:     weekday == time.Saturday || weekday == time.Sunday,
		IsOffHours:    hour < workdayStartHour || hour >= workdayEndHour,
		IsMerge:       classify.IsMerge(c.Message),
		IsLongMessage: len(c.Message) >= a.longMessageLength,
	}
}

func distribution(hours []float64) Distribution {
	if len(hours) == 0 {
		return Distribution{}
	}
	sorted := stats.Sorted(hours)
	return Distribution{
		Count:  len(sorted),
		Avg:    stats.Round(stats.Mean(sorted), 2),
		Median: stats.Round(stats.Quantile(sorted, 50), 2),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		P90:    stats.Round(stats.Quantile(sorted, 90), 2),
	}
}

func authorProfiles(totals map[string]int, hoursByAuthor map[string][]float64) []AuthorLeadTime {
	out := make([]AuthorLeadTime, 0, len(totals))
	for author, total := range totals {
		d := distribution(hoursByAuthor[author])
		out = append(out, AuthorLeadTime{
			Author:         author,
			TotalCommits:   total,
			Deployed:       d.Count,
			DeploymentRate: stats.Round(float64(d.Count)/float64(total), 4),
			AvgHours:       d.Avg,
			MedianHours:    d.Median,
			MinHours:       d.Min,
			MaxHours:       d.Max,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgHours != out[j].AvgHours {
			return out[i].AvgHours > out[j].AvgHours
		}
		return out[i].Author < out[j].Author
	})
	return out
}

func profile(commits []CommitLeadTime, keep func(CommitLeadTime) bool) Profile {
	var p Profile
	var sum float64
	for _, c := range commits {
		if keep(c) {
			p.Count++
			sum += c.LeadTimeHours
		}
	}
	if p.Count > 0 {
		p.AvgHours = stats.Round(sum/float64(p.Count), 2)
	}
	return p
}

func bottlenecks(commits []CommitLeadTime, authors []AuthorLeadTime, median float64) Bottlenecks {
	b := Bottlenecks{
		SlowAuthors: make([]string, 0),
		Weekend:     profile(commits, func(c CommitLeadTime) bool { return c.IsWeekend }),
		Weekday:     profile(commits, func(c CommitLeadTime) bool { return !c.IsWeekend }),
		OffHours:    profile(commits, func(c CommitLeadTime) bool { return c.IsOffHours }),
		Merge:       profile(commits, func(c CommitLeadTime) bool { return c.IsMerge }),
		NonMerge:    profile(commits, func(c CommitLeadTime) bool { return !c.IsMerge }),
		LongMessage: profile(commits, func(c CommitLeadTime) bool { return c.IsLongMessage }),
	}
	if b.Weekend.Count > 0 && b.Weekday.AvgHours > 0 {
		b.BottleneckFactor = stats.Round(b.Weekend.AvgHours/b.Weekday.AvgHours, 2)
	}

	for _, a := range authors {
		if a.Deployed > 0 && a.AvgHours > SlowAuthorFactor*median {
			b.SlowAuthors = append(b.SlowAuthors, a.Author)
		}
	}
	sort.Strings(b.SlowAuthors)
	return b
}

func summarize(total int, commits []CommitLeadTime, avg float64) Summary {
	s := Summary{
		TotalCommits:      total,
		DeployedCommits:   len(commits),
		UndeployedCommits: total - len(commits),
	}
	if total == 0 {
		s.Performance = PerformanceFor(avg, 0)
		return s
	}
	within := 0
	for _, c := range commits {
		if c.LeadTimeHours <= FlowTargetHours {
			within++
		}
	}
	s.Coverage = stats.Round(float64(len(commits))/float64(total), 4)
	s.FlowEfficiency = stats.Round(stats.Ratio(within, total), 2)
	s.Performance = PerformanceFor(avg, s.Coverage)
	return s
}

// Close releases any resources held by the analyzer.
func (a *Analyzer) Close() {
}
