package leadtime

import (
	"time"

	"github.com/panbanda/gitpulse/pkg/analyzer"
)

// Performance bands delivery speed and coverage.
type Performance string

// Performance bands.
const (
	PerformanceExcellent        Performance = "excellent"
	PerformanceGood             Performance = "good"
	PerformanceFair             Performance = "fair"
	PerformanceNeedsImprovement Performance = "needs_improvement"
)

// Tunables.
const (
	// FlowTargetHours is the lead time within which a commit counts as
	// efficiently delivered.
	FlowTargetHours = 168.0
	// DefaultLongMessageLength is the subject length from which a commit
	// counts as long-message.
	DefaultLongMessageLength = 100
	// SlowAuthorFactor flags authors whose average exceeds this multiple of
	// the overall median.
	SlowAuthorFactor = 2.0
	workdayStartHour = 9
	workdayEndHour   = 18
)

// CommitLeadTime is the time from one commit to the deployment that ships it.
type CommitLeadTime struct {
	Hash          string    `json:"hash"`
	Author        string    `json:"author"`
	Message       string    `json:"message"`
	Timestamp     time.Time `json:"timestamp"`
	Deployment    string    `json:"deployment"`
	DeployedAt    time.Time `json:"deployed_at"`
	LeadTimeHours float64   `json:"lead_time_hours"`
	Weekday       string    `json:"weekday"`
	IsWeekend     bool      `json:"is_weekend"`
	IsOffHours    bool      `json:"is_off_hours"`
	IsMerge       bool      `json:"is_merge"`
	IsLongMessage bool      `json:"is_long_message"`
}

// Distribution summarizes a set of lead times in hours.
type Distribution struct {
	Count  int     `json:"count"`
	Avg    float64 `json:"avg_hours"`
	Median float64 `json:"median_hours"`
	Min    float64 `json:"min_hours"`
	Max    float64 `json:"max_hours"`
	P90    float64 `json:"p90_hours"`
}

// AuthorLeadTime is one author's delivery profile.
type AuthorLeadTime struct {
	Author         string  `json:"author"`
	TotalCommits   int     `json:"total_commits"`
	Deployed       int     `json:"deployed_commits"`
	DeploymentRate float64 `json:"deployment_rate"` // 0-1
	AvgHours       float64 `json:"avg_hours"`
	MedianHours    float64 `json:"median_hours"`
	MinHours       float64 `json:"min_hours"`
	MaxHours       float64 `json:"max_hours"`
}

// Profile is the lead time of a subset of deployed commits.
type Profile struct {
	Count    int     `json:"count"`
	AvgHours float64 `json:"avg_hours"`
}

// Bottlenecks points at where delivery slows down.
type Bottlenecks struct {
	SlowAuthors      []string `json:"slow_authors"`
	Weekend          Profile  `json:"weekend"`
	Weekday          Profile  `json:"weekday"`
	BottleneckFactor float64  `json:"bottleneck_factor"` // weekend avg / weekday avg
	OffHours         Profile  `json:"off_hours"`
	Merge            Profile  `json:"merge_commits"`
	NonMerge         Profile  `json:"non_merge_commits"`
	LongMessage      Profile  `json:"long_message_commits"`
}

// Summary provides aggregate statistics. Commits with no later deployment
// are excluded from the distributions but counted in TotalCommits.
type Summary struct {
	TotalCommits      int         `json:"total_commits"`
	DeployedCommits   int         `json:"deployed_commits"`
	UndeployedCommits int         `json:"undeployed_commits"`
	Coverage          float64     `json:"coverage"`        // deployed / total, 0-1
	FlowEfficiency    float64     `json:"flow_efficiency"` // percent of all commits shipped within FlowTargetHours
	Performance       Performance `json:"performance"`
}

// Analysis represents the full lead-time result.
type Analysis struct {
	Window      analyzer.Window  `json:"window"`
	Commits     []CommitLeadTime `json:"commits"`
	Overall     Distribution     `json:"overall"`
	Authors     []AuthorLeadTime `json:"authors"`
	Bottlenecks Bottlenecks      `json:"bottlenecks"`
	Summary     Summary          `json:"summary"`
}

// PerformanceFor bands an average lead time and a 0-1 coverage.
func PerformanceFor(avgHours, coverage float64) Performance {
	switch {
	case avgHours <= 24 && coverage >= 0.8:
		return PerformanceExcellent
	case avgHours <= 168 && coverage >= 0.6:
		return PerformanceGood
	case avgHours <= 720 && coverage >= 0.4:
		return PerformanceFair
	default:
		return PerformanceNeedsImprovement
	}
}
