// Package gitlog reconstructs typed change records from the text output of
// git log, git for-each-ref, git branch and git shortlog.
package gitlog

import "time"

// ShortHashLength is the length of an abbreviated commit hash.
const ShortHashLength = 7

// FileChange is a single numstat entry of a commit.
type FileChange struct {
	Path      string `json:"path"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Binary    bool   `json:"binary,omitempty"`
}

// Commit is an immutable change record built from one log entry.
type Commit struct {
	Hash        string       `json:"hash"`
	AuthorName  string       `json:"author_name"`
	AuthorEmail string       `json:"author_email"`
	Timestamp   time.Time    `json:"timestamp"`
	Message     string       `json:"message"`
	Body        string       `json:"body,omitempty"`
	Files       []FileChange `json:"files"`
}

// ShortHash returns the abbreviated hash.
func (c Commit) ShortHash() string {
	if len(c.Hash) <= ShortHashLength {
		return c.Hash
	}
	return c.Hash[:ShortHashLength]
}

// Additions returns the total lines added across all files.
func (c Commit) Additions() int {
	var n int
	for _, f := range c.Files {
		n += f.Additions
	}
	return n
}

// Deletions returns the total lines deleted across all files.
func (c Commit) Deletions() int {
	var n int
	for _, f := range c.Files {
		n += f.Deletions
	}
	return n
}

// FilesChanged returns the number of distinct paths touched.
func (c Commit) FilesChanged() int {
	if len(c.Files) <= 1 {
		return len(c.Files)
	}
	seen := make(map[string]struct{}, len(c.Files))
	for _, f := range c.Files {
		seen[f.Path] = struct{}{}
	}
	return len(seen)
}

// Paths returns the distinct paths touched, in first-seen order.
func (c Commit) Paths() []string {
	paths := make([]string, 0, len(c.Files))
	seen := make(map[string]struct{}, len(c.Files))
	for _, f := range c.Files {
		if _, ok := seen[f.Path]; ok {
			continue
		}
		seen[f.Path] = struct{}{}
		paths = append(paths, f.Path)
	}
	return paths
}

// Author returns the author name, falling back to the email.
func (c Commit) Author() string {
	if c.AuthorName != "" {
		return c.AuthorName
	}
	return c.AuthorEmail
}

// Tag is a git tag with its creation date.
type Tag struct {
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
	Hash      string    `json:"hash,omitempty"`
}

// Contributor is an entry of git shortlog -sne.
type Contributor struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Commits int    `json:"commits"`
}
