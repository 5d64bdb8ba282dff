// Package vcs reads change history from a git repository as the text
// streams the gitlog parser understands.
package vcs

import (
	"context"
	"errors"
	"io"

	"github.com/panbanda/gitpulse/pkg/analyzer"
)

var (
	// ErrNoRepository is returned when a path is empty or not inside a git repository.
	ErrNoRepository = errors.New("not a git repository")
	// ErrGitNotFound is returned when the git executable is required but missing.
	ErrGitNotFound = errors.New("git executable not found in PATH")
)

// LogReader produces raw history text. Every reader returns output in the
// formats of gitlog.LogFormat, gitlog.TagFormat, one branch per line, and
// git shortlog -sne respectively.
type LogReader interface {
	// Log returns numstat log output for commits inside the window.
	Log(ctx context.Context, window analyzer.Window) (io.Reader, error)
	// Tags returns one tag line per tag.
	Tags(ctx context.Context) (io.Reader, error)
	// Branches returns local and remote-tracking branch names.
	Branches(ctx context.Context) (io.Reader, error)
	// Contributors returns per-author commit counts inside the window.
	Contributors(ctx context.Context, window analyzer.Window) (io.Reader, error)
	// CurrentBranch returns the checked-out branch, or "" on a detached HEAD.
	CurrentBranch() (string, error)
}
