package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/panbanda/gitpulse/internal/vcs/mocks"
	"github.com/panbanda/gitpulse/pkg/analyzer"
	"github.com/panbanda/gitpulse/pkg/analyzer/deploy"
	"github.com/panbanda/gitpulse/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	now     = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	january = analyzer.Window{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   now,
	}
)

const logFixture = `aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa|alice|alice@example.com|2024-01-05T10:00:00Z|feat: add api
10	2	api.go
5	0	api_test.go
3	0	go.sum

bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb|bob|bob@example.com|2024-01-12T10:00:00Z|fix: api crash on empty body
4	4	api.go
1	1	api_test.go

cccccccccccccccccccccccccccccccccccccccc|alice|alice@example.com|2024-01-20T16:00:00Z|Merge pull request #3 from acme/feature
dddddddddddddddddddddddddddddddddddddddd|carol|carol@example.com|2023-11-01T10:00:00Z|chore: old work
1	1	old.go
`

const tagFixture = "v1.0.0|2024-01-15T12:00:00Z|aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\nv0.9.0-rc1|2024-01-10T12:00:00Z|aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\n"

func clock() time.Time { return now }

func newReader(t *testing.T) *mocks.LogReader {
	t.Helper()
	r := mocks.NewLogReader(t)
	r.On("Log", mock.Anything, january).Return(logFixture, nil)
	r.On("Tags", mock.Anything).Return(tagFixture, nil)
	r.On("Branches", mock.Anything).Return("main\norigin/main\nfeature\n", nil)
	r.On("CurrentBranch").Return("main", nil)
	return r
}

func TestResolveWindow(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Analysis.Days = 10
	svc := New(nil, WithConfig(cfg), WithClock(clock))

	w, err := svc.ResolveWindow(WindowOptions{Days: 31})
	require.NoError(t, err)
	assert.Equal(t, january, w)

	w, err = svc.ResolveWindow(WindowOptions{})
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, -10), w.Start)

	since := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	w, err = svc.ResolveWindow(WindowOptions{Days: 5, Since: since})
	require.NoError(t, err)
	assert.Equal(t, analyzer.Window{Start: since, End: now}, w)

	_, err = svc.ResolveWindow(WindowOptions{Until: since})
	assert.ErrorIs(t, err, analyzer.ErrMissingWindow)

	_, err = svc.ResolveWindow(WindowOptions{Since: now, Until: since})
	assert.ErrorIs(t, err, analyzer.ErrInvalidWindow)

	_, err = svc.ResolveWindow(WindowOptions{Days: -1})
	assert.ErrorIs(t, err, analyzer.ErrInvalidWindow)
}

func TestAnalyze_AllMetrics(t *testing.T) {
	svc := New(newReader(t), WithClock(clock))

	report, err := svc.Analyze(context.Background(), Options{Window: WindowOptions{Days: 31}})
	require.NoError(t, err)

	assert.False(t, report.Failed())
	assert.Equal(t, january, report.Window)
	assert.Equal(t, now, report.GeneratedAt)
	assert.Equal(t, 3, report.TotalCommits)

	require.NotNil(t, report.Classification)
	assert.Equal(t, 1, report.Classification.Summary.FeatureCount)
	assert.Equal(t, 1, report.Classification.Summary.BugfixCount)
	assert.Equal(t, 1, report.Classification.Summary.MergeCount)

	require.NotNil(t, report.Size)
	assert.Len(t, report.Size.Commits, 3)

	require.NotNil(t, report.Churn)
	assert.Nil(t, report.Churn.File("go.sum"), "excluded extension")
	assert.Nil(t, report.Churn.File("old.go"), "outside window")
	api := report.Churn.File("api.go")
	require.NotNil(t, api)
	assert.Equal(t, 2, api.Commits)

	require.NotNil(t, report.Ownership)

	require.NotNil(t, report.Coupling)
	pair := report.Coupling.Pair("api_test.go", "api.go")
	require.NotNil(t, pair)

	require.NotNil(t, report.Reverts)
	assert.Equal(t, 0, report.Reverts.Summary.RevertCount)

	require.NotNil(t, report.Deployments)
	require.Len(t, report.Deployments.Deployments, 2)
	assert.Equal(t, "v1.0.0", report.Deployments.Deployments[0].Identifier)
	assert.Equal(t, deploy.MethodMerge, report.Deployments.Deployments[1].Method)

	require.NotNil(t, report.LeadTime)
	assert.Equal(t, 3, report.LeadTime.Summary.TotalCommits)
	assert.Equal(t, 2, report.LeadTime.Summary.DeployedCommits)
}

func TestAnalyze_SelectedMetrics(t *testing.T) {
	svc := New(newReader(t), WithClock(clock))

	report, err := svc.Analyze(context.Background(), Options{
		Window:  WindowOptions{Days: 31},
		Metrics: []string{MetricSize, MetricOwnership},
	})
	require.NoError(t, err)

	assert.NotNil(t, report.Size)
	assert.NotNil(t, report.Ownership)
	assert.Nil(t, report.Churn)
	assert.Nil(t, report.Classification)
	assert.Nil(t, report.Coupling)
	assert.Nil(t, report.Reverts)
	assert.Nil(t, report.Deployments)
	assert.Nil(t, report.LeadTime)
}

func TestAnalyze_LeadTimeWithoutDeployments(t *testing.T) {
	svc := New(newReader(t), WithClock(clock))

	report, err := svc.Analyze(context.Background(), Options{
		Window:  WindowOptions{Days: 31},
		Metrics: []string{MetricLeadTime},
	})
	require.NoError(t, err)

	assert.Nil(t, report.Deployments)
	require.NotNil(t, report.LeadTime)
	assert.Equal(t, 2, report.LeadTime.Summary.DeployedCommits)
}

func TestAnalyze_UnknownMetric(t *testing.T) {
	svc := New(mocks.NewLogReader(t), WithClock(clock))

	_, err := svc.Analyze(context.Background(), Options{Metrics: []string{"velocity"}})
	assert.ErrorIs(t, err, ErrUnknownMetric)
}

func TestAnalyze_LogError(t *testing.T) {
	r := mocks.NewLogReader(t)
	boom := errors.New("boom")
	r.On("Log", mock.Anything, january).Return(nil, boom)
	svc := New(r, WithClock(clock))

	_, err := svc.Analyze(context.Background(), Options{Window: WindowOptions{Days: 31}})
	assert.ErrorIs(t, err, boom)
}

func TestAnalyze_BranchErrorsAreNotFatal(t *testing.T) {
	r := mocks.NewLogReader(t)
	r.On("Log", mock.Anything, january).Return(logFixture, nil)
	r.On("Tags", mock.Anything).Return("", nil)
	r.On("Branches", mock.Anything).Return(nil, errors.New("no refs"))
	r.On("CurrentBranch").Return("", errors.New("no HEAD"))
	svc := New(r, WithClock(clock))

	report, err := svc.Analyze(context.Background(), Options{
		Window:  WindowOptions{Days: 31},
		Metrics: []string{MetricDeployments},
	})
	require.NoError(t, err)
	require.NotNil(t, report.Deployments)
	// the pull request merge is still recognized
	assert.Len(t, report.Deployments.Deployments, 1)
}

func TestRun_FailureIsIsolated(t *testing.T) {
	svc := New(nil, WithClock(clock))
	history := &History{} // no window: deployment analysis cannot start

	selected, err := selectMetrics(nil)
	require.NoError(t, err)
	report := svc.Run(context.Background(), history, selected)

	assert.True(t, report.Failed())
	assert.Contains(t, report.Errors, MetricDeployments)
	assert.Contains(t, report.Errors, MetricLeadTime)
	assert.Len(t, report.Errors, 2)
	assert.NotNil(t, report.Classification)
	assert.NotNil(t, report.Size)
	assert.NotNil(t, report.Churn)
	assert.NotNil(t, report.Coupling)
	assert.NotNil(t, report.Reverts)
	assert.Nil(t, report.Deployments)
	assert.Nil(t, report.LeadTime)
}

func TestRun_TracksProgress(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	tracker := analyzer.NewTracker(func(_, _ int, metric string) {
		mu.Lock()
		seen = append(seen, metric)
		mu.Unlock()
	})
	ctx := analyzer.WithTracker(context.Background(), tracker)

	svc := New(nil, WithClock(clock))
	selected, err := selectMetrics([]string{MetricClassify, MetricReverts, MetricChurn})
	require.NoError(t, err)
	svc.Run(ctx, &History{Window: january}, selected)

	assert.Equal(t, 3, tracker.Total())
	assert.Equal(t, 3, tracker.Current())
	assert.ElementsMatch(t, []string{MetricClassify, MetricReverts, MetricChurn}, seen)
}

func TestRun_LeadTimeAloneFailureTicks(t *testing.T) {
	tracker := analyzer.NewTracker(func(int, int, string) {})
	ctx := analyzer.WithTracker(context.Background(), tracker)

	svc := New(nil, WithClock(clock))
	selected, err := selectMetrics([]string{MetricLeadTime})
	require.NoError(t, err)
	report := svc.Run(ctx, &History{}, selected)

	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors, MetricLeadTime)
	assert.Nil(t, report.Deployments)
	assert.Equal(t, 1, tracker.Total())
	assert.Equal(t, 1, tracker.Current())
	assert.Equal(t, []string{MetricLeadTime}, tracker.Finished())
}

func TestContributors(t *testing.T) {
	r := mocks.NewLogReader(t)
	r.On("Contributors", mock.Anything, january).
		Return("     1\tbob <bob@example.com>\n     3\talice <alice@example.com>\n", nil)
	svc := New(r)

	contributors, err := svc.Contributors(context.Background(), january)
	require.NoError(t, err)
	require.Len(t, contributors, 2)
	assert.Equal(t, "alice", contributors[0].Name)
	assert.Equal(t, 3, contributors[0].Commits)
	assert.Equal(t, "bob@example.com", contributors[1].Email)
}
