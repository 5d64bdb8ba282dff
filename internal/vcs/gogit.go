package vcs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/panbanda/gitpulse/pkg/analyzer"
	"github.com/panbanda/gitpulse/pkg/gitlog"
)

// The go-git readers render the same text the git executable prints so that
// both paths share one parser.

func (r *Repository) commitsInWindow(ctx context.Context, window analyzer.Window, fn func(*object.Commit) error) error {
	opts := &git.LogOptions{}
	if !window.Start.IsZero() {
		since := window.Start
		opts.Since = &since
	}
	if !window.End.IsZero() {
		until := window.End
		opts.Until = &until
	}

	iter, err := r.repo.Log(opts)
	if err != nil {
		return err
	}
	defer iter.Close()

	return iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(c)
	})
}

// splitMessage separates the subject line from the body.
func splitMessage(message string) (subject, body string) {
	subject, body, _ = strings.Cut(message, "\n")
	return strings.TrimSpace(subject), strings.TrimSpace(body)
}

func (r *Repository) goGitLog(ctx context.Context, window analyzer.Window) (io.Reader, error) {
	var buf bytes.Buffer
	err := r.commitsInWindow(ctx, window, func(c *object.Commit) error {
		subject, body := splitMessage(c.Message)
		fmt.Fprintf(&buf, "%s%s|%s|%s|%s|%s\n", gitlog.RecordStart,
			c.Hash, c.Author.Name, c.Author.Email, c.Author.When.Format(time.RFC3339), subject)
		if body != "" {
			fmt.Fprintf(&buf, "%s\n", body)
		}
		fmt.Fprintf(&buf, "%s\n\n", gitlog.BodyEnd)

		// git log prints no numstat for merges by default.
		if c.NumParents() > 1 {
			return nil
		}
		stats, err := c.Stats()
		if err != nil {
			return fmt.Errorf("stats for %s: %w", c.Hash, err)
		}
		for _, fs := range stats {
			fmt.Fprintf(&buf, "%d\t%d\t%s\n", fs.Addition, fs.Deletion, fs.Name)
		}
		buf.WriteByte('\n')
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &buf, nil
}

func (r *Repository) goGitTags(ctx context.Context) (io.Reader, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var buf bytes.Buffer
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		var when time.Time
		if tag, err := r.repo.TagObject(ref.Hash()); err == nil {
			when = tag.Tagger.When
		} else if c, err := r.repo.CommitObject(ref.Hash()); err == nil {
			when = c.Committer.When
		} else {
			return nil
		}
		fmt.Fprintf(&buf, "%s|%s|%s\n", ref.Name().Short(), when.Format(time.RFC3339), ref.Hash())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &buf, nil
}

func (r *Repository) goGitBranches(ctx context.Context) (io.Reader, error) {
	iter, err := r.repo.References()
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		if ref.Name().IsBranch() || ref.Name().IsRemote() {
			names = append(names, ref.Name().Short())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(names)
	return strings.NewReader(strings.Join(names, "\n")), nil
}

func (r *Repository) goGitContributors(ctx context.Context, window analyzer.Window) (io.Reader, error) {
	type identity struct{ name, email string }
	counts := make(map[identity]int)

	err := r.commitsInWindow(ctx, window, func(c *object.Commit) error {
		counts[identity{c.Author.Name, c.Author.Email}]++
		return nil
	})
	if err != nil {
		return nil, err
	}

	ids := make([]identity, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if counts[ids[i]] != counts[ids[j]] {
			return counts[ids[i]] > counts[ids[j]]
		}
		return ids[i].name < ids[j].name
	})

	var buf bytes.Buffer
	for _, id := range ids {
		fmt.Fprintf(&buf, "%6d\t%s <%s>\n", counts[id], id.name, id.email)
	}
	return &buf, nil
}
