package vcs

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/panbanda/gitpulse/internal/testutil"
	"github.com/panbanda/gitpulse/pkg/analyzer"
	"github.com/panbanda/gitpulse/pkg/gitlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var january = analyzer.Window{
	Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
}

var everything = analyzer.Window{
	Start: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
}

type fixture struct {
	repo       *testutil.Repo
	c1, c2, c3 plumbing.Hash
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	repo := testutil.NewRepo(t)
	f := fixture{repo: repo}
	f.c1 = repo.Commit("feat: add service", "alice", time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC), map[string]string{
		"main.go":     "a\nb\nc\n",
		"pkg/util.go": "x\n",
	})
	f.c2 = repo.Commit("fix: handle nil\n\nGuard the request before use.\n", "bob", time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC), map[string]string{
		"main.go": "a\nB\nc\nd\n",
	})
	f.c3 = repo.Commit("docs: readme", "alice", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), map[string]string{
		"README.md": "# demo\n",
	})
	repo.Tag("v1.0.0", f.c1)
	repo.Branch("release", f.c2)
	return f
}

func openGoGit(t *testing.T, path string) *Repository {
	t.Helper()
	r, err := Open(path, WithoutNativeGit())
	require.NoError(t, err)
	require.False(t, r.Native())
	return r
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git executable not available")
	}
}

func parseLog(t *testing.T, r LogReader, window analyzer.Window) []gitlog.Commit {
	t.Helper()
	out, err := r.Log(context.Background(), window)
	require.NoError(t, err)
	commits, err := gitlog.ParseLog(out)
	require.NoError(t, err)
	return commits
}

// flatten reduces commits to comparable strings independent of time zone
// representation.
func flatten(commits []gitlog.Commit) []string {
	out := make([]string, 0, len(commits))
	for _, c := range commits {
		s := fmt.Sprintf("%s|%s|%s|%d|%s|%q", c.Hash, c.AuthorName, c.AuthorEmail, c.Timestamp.Unix(), c.Message, c.Body)
		for _, f := range c.Files {
			s += fmt.Sprintf("|%s:+%d-%d", f.Path, f.Additions, f.Deletions)
		}
		out = append(out, s)
	}
	return out
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open("")
	assert.ErrorIs(t, err, ErrNoRepository)

	_, err = Open(t.TempDir())
	assert.ErrorIs(t, err, ErrNoRepository)

	_, err = Open("/nonexistent/path")
	assert.ErrorIs(t, err, ErrNoRepository)
}

func TestOpen_DetectsParentRepository(t *testing.T) {
	f := newFixture(t)

	r, err := Open(filepath.Join(f.repo.Path, "pkg"))
	require.NoError(t, err)
	assert.Equal(t, f.repo.Path, r.Root())
}

func TestRun_WithoutGit(t *testing.T) {
	f := newFixture(t)
	r := openGoGit(t, f.repo.Path)

	_, err := r.run(context.Background(), "status")
	assert.ErrorIs(t, err, ErrGitNotFound)
}

func TestGoGit_Log(t *testing.T) {
	f := newFixture(t)
	commits := parseLog(t, openGoGit(t, f.repo.Path), january)

	require.Len(t, commits, 2)
	assert.Equal(t, f.c2.String(), commits[0].Hash)
	assert.Equal(t, f.c1.String(), commits[1].Hash)

	fix := commits[0]
	assert.Equal(t, "bob", fix.AuthorName)
	assert.Equal(t, "bob@example.com", fix.AuthorEmail)
	assert.Equal(t, "fix: handle nil", fix.Message)
	assert.Equal(t, "Guard the request before use.", fix.Body)
	assert.True(t, fix.Timestamp.Equal(time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, []gitlog.FileChange{{Path: "main.go", Additions: 2, Deletions: 1}}, fix.Files)

	feat := commits[1]
	assert.ElementsMatch(t, []string{"main.go", "pkg/util.go"}, feat.Paths())
	assert.Equal(t, 4, feat.Additions())
}

func TestGoGit_TagsBranchesContributors(t *testing.T) {
	f := newFixture(t)
	r := openGoGit(t, f.repo.Path)
	ctx := context.Background()

	out, err := r.Tags(ctx)
	require.NoError(t, err)
	tags, err := gitlog.ParseTags(out)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "v1.0.0", tags[0].Name)
	assert.True(t, tags[0].Timestamp.Equal(time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)))

	out, err = r.Branches(ctx)
	require.NoError(t, err)
	branches, err := gitlog.ParseBranches(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"master", "release"}, branches)

	out, err = r.Contributors(ctx, everything)
	require.NoError(t, err)
	contributors, err := gitlog.ParseContributors(out)
	require.NoError(t, err)
	assert.Equal(t, []gitlog.Contributor{
		{Name: "alice", Email: "alice@example.com", Commits: 2},
		{Name: "bob", Email: "bob@example.com", Commits: 1},
	}, contributors)
}

func TestGoGit_Cancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := openGoGit(t, f.repo.Path).Log(ctx, everything)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmptyRepository(t *testing.T) {
	repo := testutil.NewRepo(t)
	r := openGoGit(t, repo.Path)

	assert.Empty(t, parseLog(t, r, everything))

	out, err := r.Contributors(context.Background(), everything)
	require.NoError(t, err)
	contributors, err := gitlog.ParseContributors(out)
	require.NoError(t, err)
	assert.Empty(t, contributors)
}

func TestCurrentBranch(t *testing.T) {
	repo := testutil.NewRepo(t)
	r := openGoGit(t, repo.Path)

	branch, err := r.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "master", branch, "unborn branch")

	first := repo.Commit("initial", "alice", time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), map[string]string{"a.txt": "a\n"})
	repo.Commit("second", "alice", time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), map[string]string{"a.txt": "b\n"})

	branch, err = r.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "master", branch)

	repo.Detach(first)
	branch, err = r.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "", branch)
}

func TestNative_MatchesGoGit(t *testing.T) {
	requireGit(t)
	f := newFixture(t)

	native, err := Open(f.repo.Path)
	require.NoError(t, err)
	require.True(t, native.Native())
	fallback := openGoGit(t, f.repo.Path)

	assert.Equal(t, flatten(parseLog(t, fallback, january)), flatten(parseLog(t, native, january)))
	assert.Equal(t, flatten(parseLog(t, fallback, everything)), flatten(parseLog(t, native, everything)))

	ctx := context.Background()
	out, err := native.Tags(ctx)
	require.NoError(t, err)
	tags, err := gitlog.ParseTags(out)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "v1.0.0", tags[0].Name)
	assert.Equal(t, f.c1.String(), tags[0].Hash)

	out, err = native.Contributors(ctx, everything)
	require.NoError(t, err)
	contributors, err := gitlog.ParseContributors(out)
	require.NoError(t, err)
	require.Len(t, contributors, 2)
	assert.Equal(t, "alice", contributors[0].Name)
	assert.Equal(t, 2, contributors[0].Commits)

	out, err = native.Branches(ctx)
	require.NoError(t, err)
	branches, err := gitlog.ParseBranches(out)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"master", "release"}, branches)
}
