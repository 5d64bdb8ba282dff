package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/panbanda/gitpulse/internal/output"
	"github.com/panbanda/gitpulse/internal/service/analysis"
	"github.com/panbanda/gitpulse/internal/testutil"
	"github.com/panbanda/gitpulse/pkg/analyzer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func newFixtureRepo(t *testing.T) string {
	t.Helper()
	repo := testutil.NewRepo(t)
	c1 := repo.Commit("feat: add server", "alice", time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC), map[string]string{
		"main.go":   "package main\n\nfunc main() {}\n",
		"server.go": "package main\n",
	})
	repo.Tag("v1.0.0", c1)
	repo.Commit("fix: server crash", "bob", time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), map[string]string{
		"main.go":   "package main\n\nfunc main() {\n\tserve()\n}\n",
		"server.go": "package main\n\nfunc serve() {}\n",
	})
	c3 := repo.Commit("chore: bump deps", "alice", time.Date(2024, 1, 22, 10, 0, 0, 0, time.UTC), map[string]string{
		"go.sum": "example.com/x v1.0.0 h1:abc\n",
	})
	repo.Tag("v1.1.0", c3)
	return repo.Path
}

var januaryFlags = []string{"--since", "2024-01-01", "--until", "2024-02-01"}

// runJSON runs a command with JSON output to a file and decodes the result.
func runJSON(t *testing.T, command string, path string, extra ...string) map[string]any {
	t.Helper()
	out := filepath.Join(t.TempDir(), "out.json")
	args := []string{"gitpulse", "--no-color", "-f", "json", "-o", out, command}
	args = append(args, januaryFlags...)
	args = append(args, extra...)
	args = append(args, path)

	require.NoError(t, newApp().Run(args))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var result map[string]any
	require.NoError(t, json.Unmarshal(data, &result))
	return result
}

func TestChurnCommand(t *testing.T) {
	result := runJSON(t, "churn", newFixtureRepo(t))

	files, ok := result["files"].([]any)
	require.True(t, ok)
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.(map[string]any)["path"].(string))
	}
	assert.ElementsMatch(t, []string{"main.go", "server.go"}, paths, "go.sum is excluded by default")
}

func TestClassifyCommand(t *testing.T) {
	result := runJSON(t, "classify", newFixtureRepo(t))

	summary := result["summary"].(map[string]any)
	assert.Equal(t, 3.0, summary["total_commits"])
	assert.Equal(t, 1.0, summary["feature_count"])
	assert.Equal(t, 1.0, summary["bugfix_count"])
	assert.Equal(t, 1.0, summary["maintenance_count"])
}

func TestDeploymentsCommand(t *testing.T) {
	result := runJSON(t, "deployments", newFixtureRepo(t))

	deployments := result["deployments"].([]any)
	require.Len(t, deployments, 2)
	assert.Equal(t, "v1.0.0", deployments[0].(map[string]any)["identifier"])
	assert.Equal(t, "v1.1.0", deployments[1].(map[string]any)["identifier"])
}

func TestContributorsCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.json")
	args := append([]string{"gitpulse", "--no-color", "-f", "json", "-o", out, "contributors"}, januaryFlags...)
	require.NoError(t, newApp().Run(append(args, newFixtureRepo(t))))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var contributors []map[string]any
	require.NoError(t, json.Unmarshal(data, &contributors))

	require.Len(t, contributors, 2)
	assert.Equal(t, "alice", contributors[0]["name"])
	assert.Equal(t, 2.0, contributors[0]["commits"])
	assert.Equal(t, "bob", contributors[1]["name"])
}

func TestAnalyzeCommand_SelectedMetrics(t *testing.T) {
	result := runJSON(t, "analyze", newFixtureRepo(t), "--metrics", "size", "--metrics", "leadtime")

	assert.Equal(t, 3.0, result["total_commits"])
	assert.Contains(t, result, "size")
	assert.Contains(t, result, "lead_time")
	assert.NotContains(t, result, "churn")
	assert.NotContains(t, result, "errors")

	summary := result["lead_time"].(map[string]any)["summary"].(map[string]any)
	// the last commit is the v1.1.0 release itself and ships with nothing later
	assert.Equal(t, 2.0, summary["deployed_commits"])
}

func TestAnalyzeCommand_TextOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.txt")
	args := append([]string{"gitpulse", "-o", out, "analyze"}, januaryFlags...)
	require.NoError(t, newApp().Run(append(args, newFixtureRepo(t))))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Change History Report: 3 commits")
	assert.Contains(t, text, "File Churn")
	assert.Contains(t, text, "Deployments")
	assert.Contains(t, text, "Lead Time by Author")
}

func TestCommand_Errors(t *testing.T) {
	repo := newFixtureRepo(t)
	tests := []struct {
		name string
		args []string
	}{
		{"not a repository", []string{"churn", t.TempDir()}},
		{"bad days", []string{"churn", "--days", "0", repo}},
		{"bad date", []string{"churn", "--since", "last week", repo}},
		{"inverted window", []string{"churn", "--since", "2024-02-01", "--until", "2024-01-01", repo}},
		{"unknown metric", []string{"analyze", "--metrics", "velocity", repo}},
		{"missing config", []string{"-c", "/nonexistent/gitpulse.toml", "churn", repo}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"gitpulse", "-o", filepath.Join(t.TempDir(), "out")}, tt.args...)
			assert.Error(t, newApp().Run(args))
		})
	}
}

func runConfig(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	app := newApp()
	app.Writer = &buf
	err := app.Run(append([]string{"gitpulse"}, args...))
	return buf.String(), err
}

func TestConfigShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gitpulse.toml")
	testutil.WriteFile(t, path, "[analysis]\ndays = 30\n")

	out, err := runConfig(t, "-c", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "# Configuration from: "+path)
	assert.Contains(t, out, "days = 30")
	assert.Contains(t, out, "[churn]")
}

func TestConfigValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.toml")
	testutil.WriteFile(t, good, "[churn]\nhigh = 500\nmedium = 50\n")
	bad := filepath.Join(dir, "bad.toml")
	testutil.WriteFile(t, bad, "[analysis]\ndays = -1\n")

	out, err := runConfig(t, "-c", good, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid: "+good)

	out, err = runConfig(t, "-c", bad, "config", "validate")
	require.Error(t, err)
	assert.Contains(t, out, "Configuration validation failed")
}

func TestWindowOptions(t *testing.T) {
	app := &cli.App{
		Flags: historyFlags(),
		Action: func(c *cli.Context) error {
			opts, err := windowOptions(c)
			require.NoError(t, err)
			assert.Equal(t, 0, opts.Days)
			assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), opts.Since.UTC())
			assert.Equal(t, time.Date(2024, 2, 1, 12, 30, 0, 0, time.UTC), opts.Until.UTC())
			return nil
		},
	}
	require.NoError(t, app.Run([]string{"test", "--since", "2024-01-01", "--until", "2024-02-01T12:30:00Z"}))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a long ...", truncate("a long message", 10))
	assert.Equal(t, "abc", truncate("abcdef", 3))
}

func TestShortHash(t *testing.T) {
	assert.Equal(t, "abcdef1", shortHash("abcdef1234567890"))
	assert.Equal(t, "abc", shortHash("abc"))
}

func TestLimit(t *testing.T) {
	assert.Equal(t, []int{1, 2}, limit([]int{1, 2, 3}, 2))
	assert.Equal(t, []int{1, 2, 3}, limit([]int{1, 2, 3}, 0))
	assert.Equal(t, []int{1}, limit([]int{1}, 5))
}

func TestReportView_FailedAnalyzers(t *testing.T) {
	report := &analysis.Report{
		Window: analyzer.Window{
			Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		},
		Errors: map[string]string{
			analysis.MetricLeadTime:    "deployment analysis unavailable",
			analysis.MetricDeployments: "boom",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, output.NewWriterFormatter(output.FormatText, &buf, false).Output(reportView(report, 10, false)))

	text := buf.String()
	assert.Contains(t, text, "Change History Report: 0 commits (2024-01-01..2024-02-01)")
	assert.Contains(t, text, "Failed Analyzers")
	assert.Contains(t, text, "deployments: boom\nleadtime: deployment analysis unavailable")
}
