package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/panbanda/gitpulse/pkg/analyzer"
	"github.com/panbanda/gitpulse/pkg/gitlog"
)

// Repository reads history with the git executable when it is available and
// falls back to go-git otherwise.
type Repository struct {
	root    string
	repo    *git.Repository
	gitPath string
}

// Compile-time check that Repository implements LogReader.
var _ LogReader = (*Repository)(nil)

// Option is a functional option for configuring Repository.
type Option func(*openOptions)

type openOptions struct {
	native bool
}

// WithoutNativeGit reads history through go-git only, even when git is
// installed.
func WithoutNativeGit() Option {
	return func(o *openOptions) {
		o.native = false
	}
}

// Open opens the repository containing path, searching parent directories
// for .git.
func Open(path string, opts ...Option) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrNoRepository
	}

	o := &openOptions{native: true}
	for _, opt := range opts {
		opt(o)
	}

	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoRepository, path, err)
	}

	root := path
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}

	r := &Repository{root: root, repo: repo}
	if o.native {
		if p, err := exec.LookPath("git"); err == nil {
			r.gitPath = p
		}
	}
	return r, nil
}

// Root returns the repository work tree root.
func (r *Repository) Root() string {
	return r.root
}

// Native reports whether the git executable is used.
func (r *Repository) Native() bool {
	return r.gitPath != ""
}

// hasCommits reports whether HEAD resolves to a commit.
func (r *Repository) hasCommits() bool {
	_, err := r.repo.Head()
	return err == nil
}

// Log returns numstat log output for commits inside the window.
func (r *Repository) Log(ctx context.Context, window analyzer.Window) (io.Reader, error) {
	if !r.hasCommits() {
		return strings.NewReader(""), nil
	}
	if !r.Native() {
		return r.goGitLog(ctx, window)
	}
	args := []string{"log", "--numstat", "--no-color", gitlog.LogFormat}
	args = append(args, windowArgs(window)...)
	return r.run(ctx, args...)
}

// Tags returns one line per tag in gitlog.TagFormat.
func (r *Repository) Tags(ctx context.Context) (io.Reader, error) {
	if !r.Native() {
		return r.goGitTags(ctx)
	}
	return r.run(ctx, "for-each-ref", gitlog.TagFormat, "refs/tags")
}

// Branches returns local and remote-tracking branch names, one per line.
func (r *Repository) Branches(ctx context.Context) (io.Reader, error) {
	if !r.Native() {
		return r.goGitBranches(ctx)
	}
	return r.run(ctx, "branch", "-a", "--no-color", "--format=%(refname:short)")
}

// Contributors returns git shortlog -sne output for the window.
func (r *Repository) Contributors(ctx context.Context, window analyzer.Window) (io.Reader, error) {
	if !r.hasCommits() {
		return strings.NewReader(""), nil
	}
	if !r.Native() {
		return r.goGitContributors(ctx, window)
	}
	args := []string{"shortlog", "-sne"}
	args = append(args, windowArgs(window)...)
	// shortlog reads stdin without an explicit revision.
	args = append(args, "HEAD")
	return r.run(ctx, args...)
}

// CurrentBranch returns the checked-out branch name, or "" on a detached HEAD.
func (r *Repository) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		// Unborn branch: HEAD still names it symbolically.
		ref, refErr := r.repo.Reference(plumbing.HEAD, false)
		if refErr != nil {
			return "", refErr
		}
		return ref.Target().Short(), nil
	}
	if err != nil {
		return "", err
	}
	if head.Name().IsBranch() {
		return head.Name().Short(), nil
	}
	return "", nil
}

func windowArgs(w analyzer.Window) []string {
	var args []string
	if !w.Start.IsZero() {
		args = append(args, "--since="+w.Start.Format(time.RFC3339))
	}
	if !w.End.IsZero() {
		args = append(args, "--until="+w.End.Format(time.RFC3339))
	}
	return args
}

// run executes git in the repository root and buffers its stdout.
func (r *Repository) run(ctx context.Context, args ...string) (io.Reader, error) {
	if r.gitPath == "" {
		return nil, ErrGitNotFound
	}

	cmd := exec.CommandContext(ctx, r.gitPath, append([]string{"-C", r.root}, args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return &stdout, nil
}
