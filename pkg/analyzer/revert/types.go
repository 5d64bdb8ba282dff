package revert

import "time"

// Reason is the keyword bucket a revert message falls into.
type Reason string

// Revert reasons in matching priority order, followed by the fallback.
const (
	ReasonBug            Reason = "bug"
	ReasonTest           Reason = "test"
	ReasonBreakingChange Reason = "breaking_change"
	ReasonPerformance    Reason = "performance"
	ReasonSecurity       Reason = "security"
	ReasonOther          Reason = "other"
)

// QuickRevertWindow is the age under which a reverted commit counts as
// quickly reverted.
const QuickRevertWindow = 24 * time.Hour

// RevertRecord is a commit that reverts another.
type RevertRecord struct {
	Hash          string    `json:"hash"`
	Author        string    `json:"author"`
	Message       string    `json:"message"`
	Timestamp     time.Time `json:"timestamp"`
	Reason        Reason    `json:"reason"`
	Reference     string    `json:"reference,omitempty"`     // hash fragment found in the message
	RevertedHash  string    `json:"reverted_hash,omitempty"` // resolved commit, empty when unknown
	HoursToRevert float64   `json:"hours_to_revert,omitempty"`
}

// Resolved reports whether the reverted commit was found in the history.
func (r RevertRecord) Resolved() bool {
	return r.RevertedHash != ""
}

// RevertedCommit is a commit undone by a later revert.
type RevertedCommit struct {
	Hash       string    `json:"hash"`
	Author     string    `json:"author"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	RevertedBy string    `json:"reverted_by"`
}

// AuthorStats is one author's revert record.
type AuthorStats struct {
	Author        string  `json:"author"`
	Commits       int     `json:"commits"`
	RevertsMade   int     `json:"reverts_made"`
	TimesReverted int     `json:"times_reverted"`
	RevertedRate  float64 `json:"reverted_rate"` // 0-1
	Reliability   float64 `json:"reliability"`   // 0-1
}

// Summary provides aggregate statistics.
type Summary struct {
	TotalCommits        int            `json:"total_commits"`
	RevertCount         int            `json:"revert_count"`
	ResolvedCount       int            `json:"resolved_count"`
	RevertRate          float64        `json:"revert_rate"` // percent of all commits
	AvgHoursToRevert    float64        `json:"avg_hours_to_revert"`
	QuickReverts        int            `json:"quick_reverts"`
	ReasonCounts        map[Reason]int `json:"reason_counts"`
	HourDistribution    [24]int        `json:"hour_distribution"`
	WeekdayDistribution [7]int         `json:"weekday_distribution"` // Sunday first
	PeakHour            int            `json:"peak_hour"`            // -1 without reverts
	PeakWeekday         string         `json:"peak_weekday,omitempty"`
}

// Analysis represents the full revert analysis result.
type Analysis struct {
	Reverts  []RevertRecord   `json:"revert_commits"`
	Reverted []RevertedCommit `json:"reverted_commits"`
	Authors  []AuthorStats    `json:"authors"`
	Summary  Summary          `json:"summary"`
}
