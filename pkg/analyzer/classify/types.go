package classify

import (
	"regexp"
	"time"
)

// Category is the label a commit message resolves to.
type Category string

// Categories in decision-list priority order, followed by the fallback.
const (
	CategoryMerge       Category = "merge"
	CategoryBugfix      Category = "bugfix"
	CategoryFeature     Category = "feature"
	CategoryMaintenance Category = "maintenance"
	CategoryOther       Category = "other"
)

// Categories lists every category in priority order.
var Categories = []Category{
	CategoryMerge,
	CategoryBugfix,
	CategoryFeature,
	CategoryMaintenance,
	CategoryOther,
}

// String implements fmt.Stringer.
func (c Category) String() string {
	return string(c)
}

// Rule is one entry of the decision list: a message matching any of the
// patterns resolves to Category.
type Rule struct {
	Category Category
	Patterns []*regexp.Regexp
}

// Matches reports whether a normalized message matches the rule.
func (r Rule) Matches(normalized string) bool {
	for _, p := range r.Patterns {
		if p.MatchString(normalized) {
			return true
		}
	}
	return false
}

// CommitClassification is the category assigned to one commit.
type CommitClassification struct {
	Hash      string    `json:"hash"`
	Author    string    `json:"author"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Category  Category  `json:"category"`
}

// AuthorBreakdown counts an author's commits per category.
type AuthorBreakdown struct {
	Author string           `json:"author"`
	Total  int              `json:"total"`
	Counts map[Category]int `json:"counts"`
}

// Summary provides aggregate statistics. Ratios are percentages of the
// total commit count, rounded to two decimals.
type Summary struct {
	TotalCommits     int     `json:"total_commits"`
	MergeCount       int     `json:"merge_count"`
	BugfixCount      int     `json:"bugfix_count"`
	FeatureCount     int     `json:"feature_count"`
	MaintenanceCount int     `json:"maintenance_count"`
	OtherCount       int     `json:"other_count"`
	MergeRatio       float64 `json:"merge_ratio"`
	BugfixRatio      float64 `json:"bugfix_ratio"`
	FeatureRatio     float64 `json:"feature_ratio"`
	MaintenanceRatio float64 `json:"maintenance_ratio"`
	OtherRatio       float64 `json:"other_ratio"`
}

// Count returns the number of commits in a category.
func (s Summary) Count(c Category) int {
	switch c {
	case CategoryMerge:
		return s.MergeCount
	case CategoryBugfix:
		return s.BugfixCount
	case CategoryFeature:
		return s.FeatureCount
	case CategoryMaintenance:
		return s.MaintenanceCount
	default:
		return s.OtherCount
	}
}

// Analysis represents the full classification result.
type Analysis struct {
	Commits []CommitClassification `json:"commits"`
	Authors []AuthorBreakdown      `json:"authors"`
	Summary Summary                `json:"summary"`
}
