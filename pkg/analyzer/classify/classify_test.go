package classify

import (
	"regexp"
	"testing"
	"time"

	"github.com/panbanda/gitpulse/pkg/gitlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		message string
		want    Category
	}{
		{"fix: null check", CategoryBugfix},
		{"fix(parser)!: handle empty input", CategoryBugfix},
		{"Hotfix for login", CategoryBugfix},
		{"Resolve race in scheduler", CategoryBugfix},
		{"closes #42", CategoryBugfix},
		{"feat: add export", CategoryFeature},
		{"feat(api): pagination", CategoryFeature},
		{"Implement retry policy", CategoryFeature},
		{"introduce caching layer", CategoryFeature},
		{"chore: bump dep", CategoryMaintenance},
		{"refactor: split handler", CategoryMaintenance},
		{"Bump golang.org/x/net from 0.1.0 to 0.2.0", CategoryMaintenance},
		{"update dependencies", CategoryMaintenance},
		{"docs: readme", CategoryMaintenance},
		{"ci: cache modules", CategoryMaintenance},
		{"Merge pull request #12 from acme/fix-login", CategoryMerge},
		{"Merge branch 'bugfix/crash' into main", CategoryMerge},
		{"  MERGED feature into develop  ", CategoryMerge},
		{"wip", CategoryOther},
		{"", CategoryOther},
		{"prefix-fixture rename", CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.message))
		})
	}
}

func TestClassify_PriorityOrder(t *testing.T) {
	// Mergish and fixish at once resolves to merge.
	assert.Equal(t, CategoryMerge, Classify("Merge pull request #7: fix crash"))
	// Fixish and featurish at once resolves to bugfix.
	assert.Equal(t, CategoryBugfix, Classify("fix: add missing nil check"))
	// Featurish and maintenance at once resolves to feature.
	assert.Equal(t, CategoryFeature, Classify("refactor config and add new flag"))
}

func TestIsMerge(t *testing.T) {
	assert.True(t, IsMerge("Merge branch 'develop'"))
	assert.True(t, IsMerge("merged release into main"))
	assert.False(t, IsMerge("fix merge conflict handling"))
	assert.False(t, IsMerge(""))
}

func TestAnalyzer_Scenario(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	commits := []gitlog.Commit{
		{Hash: "a1", AuthorName: "alice", Timestamp: base, Message: "fix: null check",
			Files: []gitlog.FileChange{{Path: "a.go", Additions: 5, Deletions: 2}}},
		{Hash: "b2", AuthorName: "bob", Timestamp: base.Add(time.Hour), Message: "feat: add export",
			Files: []gitlog.FileChange{{Path: "export.go", Additions: 120}}},
		{Hash: "c3", AuthorName: "alice", Timestamp: base.Add(2 * time.Hour), Message: "chore: bump dep",
			Files: []gitlog.FileChange{{Path: "go.mod", Additions: 3, Deletions: 3}}},
	}

	analysis := New().Analyze(commits)

	require.Len(t, analysis.Commits, 3)
	got := []Category{analysis.Commits[0].Category, analysis.Commits[1].Category, analysis.Commits[2].Category}
	assert.Equal(t, []Category{CategoryBugfix, CategoryFeature, CategoryMaintenance}, got)

	s := analysis.Summary
	assert.Equal(t, 3, s.TotalCommits)
	assert.Equal(t, 1, s.BugfixCount)
	assert.Equal(t, 33.33, s.BugfixRatio)
	assert.Equal(t, 33.33, s.FeatureRatio)
	assert.Equal(t, 33.33, s.MaintenanceRatio)
	assert.Equal(t, 0.0, s.MergeRatio)
	assert.Equal(t, 1, s.Count(CategoryFeature))

	require.Len(t, analysis.Authors, 2)
	assert.Equal(t, "alice", analysis.Authors[0].Author)
	assert.Equal(t, 2, analysis.Authors[0].Total)
	assert.Equal(t, 1, analysis.Authors[0].Counts[CategoryBugfix])
	assert.Equal(t, 1, analysis.Authors[0].Counts[CategoryMaintenance])
}

func TestAnalyzer_Empty(t *testing.T) {
	analysis := New().Analyze(nil)

	assert.Equal(t, 0, analysis.Summary.TotalCommits)
	assert.Equal(t, 0.0, analysis.Summary.BugfixRatio)
	assert.NotNil(t, analysis.Commits)
	assert.Empty(t, analysis.Commits)
	assert.Empty(t, analysis.Authors)
}

func TestAnalyzer_Idempotent(t *testing.T) {
	commits := []gitlog.Commit{
		{Hash: "1", AuthorName: "x", Message: "fix bug"},
		{Hash: "2", AuthorName: "y", Message: "add thing"},
		{Hash: "3", AuthorName: "x", Message: "misc"},
	}
	a := New()
	assert.Equal(t, a.Analyze(commits), a.Analyze(commits))
}

func TestWithRules(t *testing.T) {
	rules := []Rule{
		{Category: CategoryFeature, Patterns: []*regexp.Regexp{regexp.MustCompile(`^story-\d+`)}},
	}
	a := New(WithRules(rules))

	assert.Equal(t, CategoryFeature, a.Classify("STORY-123 checkout flow"))
	assert.Equal(t, CategoryOther, a.Classify("fix: null check"))

	// Empty rule lists keep the defaults.
	assert.Equal(t, CategoryBugfix, New(WithRules(nil)).Classify("fix: null check"))
}
