// Package testutil builds throwaway git repositories for tests.
package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// WriteFile writes content to a file in the real filesystem.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll(%s) error: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s) error: %v", path, err)
	}
}

// Repo is a git repository in a test temp directory.
type Repo struct {
	t    *testing.T
	Path string
	Git  *git.Repository
}

// NewRepo initializes an empty repository on branch master.
func NewRepo(t *testing.T) *Repo {
	t.Helper()
	path := t.TempDir()
	repo, err := git.PlainInit(path, false)
	if err != nil {
		t.Fatalf("PlainInit error: %v", err)
	}
	return &Repo{t: t, Path: path, Git: repo}
}

// Signature returns an author signature for name at when.
func Signature(name string, when time.Time) *object.Signature {
	return &object.Signature{
		Name:  name,
		Email: name + "@example.com",
		When:  when,
	}
}

// Commit writes files (path -> content) and commits them as author at when.
// The committer date equals the author date.
func (r *Repo) Commit(message, author string, when time.Time, files map[string]string) plumbing.Hash {
	r.t.Helper()
	wt, err := r.Git.Worktree()
	if err != nil {
		r.t.Fatalf("Worktree error: %v", err)
	}

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		WriteFile(r.t, filepath.Join(r.Path, p), files[p])
		if _, err := wt.Add(p); err != nil {
			r.t.Fatalf("Add(%s) error: %v", p, err)
		}
	}

	sig := Signature(author, when)
	hash, err := wt.Commit(message, &git.CommitOptions{
		Author:            sig,
		Committer:         sig,
		AllowEmptyCommits: len(files) == 0,
	})
	if err != nil {
		r.t.Fatalf("Commit error: %v", err)
	}
	return hash
}

// Tag creates a lightweight tag at hash.
func (r *Repo) Tag(name string, hash plumbing.Hash) {
	r.t.Helper()
	if _, err := r.Git.CreateTag(name, hash, nil); err != nil {
		r.t.Fatalf("CreateTag(%s) error: %v", name, err)
	}
}

// Branch creates a local branch at hash without checking it out.
func (r *Repo) Branch(name string, hash plumbing.Hash) {
	r.t.Helper()
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), hash)
	if err := r.Git.Storer.SetReference(ref); err != nil {
		r.t.Fatalf("SetReference(%s) error: %v", name, err)
	}
}

// Detach checks out hash directly, leaving HEAD detached.
func (r *Repo) Detach(hash plumbing.Hash) {
	r.t.Helper()
	wt, err := r.Git.Worktree()
	if err != nil {
		r.t.Fatalf("Worktree error: %v", err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: hash}); err != nil {
		r.t.Fatalf("Checkout(%s) error: %v", hash, err)
	}
}
