package gitlog

import (
	"bufio"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// FieldSeparator separates the fields of commit header and tag lines.
const FieldSeparator = "|"

// LogFormat is the --format argument that produces commit records: a
// header line starting with RecordStart, then the body terminated by
// BodyEnd. Numstat lines follow the body.
const LogFormat = "--format=%x1e%H|%aN|%aE|%aI|%s%n%b%x1f"

// Record framing bytes emitted by LogFormat.
const (
	RecordStart = "\x1e"
	BodyEnd     = "\x1f"
)

// TagFormat is the for-each-ref --format argument that produces tag lines.
const TagFormat = "--format=%(refname:short)|%(creatordate:iso-strict)|%(objectname)"

const (
	headerFields  = 5
	numstatFields = 3
	maxLineSize   = 1024 * 1024
)

var hashPattern = regexp.MustCompile(`^[0-9a-fA-F]{7,64}$`)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05 -0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses the timestamp layouts git emits for %aI, %ai and
// creatordate.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var firstErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return scanner
}

// ParseLog parses git log output made of header lines (see LogFormat)
// optionally followed by --numstat lines. Headers may also appear without
// framing, in which case the commit has no body. Commits are returned in
// log order. Malformed lines are skipped; only read errors are returned.
func ParseLog(r io.Reader) ([]Commit, error) {
	commits := make([]Commit, 0)
	scanner := newScanner(r)

	var current *Commit
	// skipping is set after a header that fails to parse so that its body
	// and numstat lines are not attributed to the previous commit.
	skipping := false
	inBody := false
	var body []string

	flush := func() {
		if current != nil {
			current.Body = strings.TrimSpace(strings.Join(body, "\n"))
			commits = append(commits, *current)
			current = nil
		}
		body = body[:0]
	}

	header := func(line string) {
		flush()
		c, ok := parseHeader(line)
		skipping = !ok
		if ok {
			current = &c
		}
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		if inBody {
			text, done := strings.CutSuffix(line, BodyEnd)
			if !skipping && current != nil {
				body = append(body, text)
			}
			inBody = !done
			continue
		}

		if framed, ok := strings.CutPrefix(line, RecordStart); ok {
			header(framed)
			inBody = true
			continue
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		if fc, ok := parseNumstat(line); ok {
			if !skipping && current != nil {
				current.Files = append(current.Files, fc)
			}
			continue
		}

		// Any other line carrying the field separator is a header, valid
		// or not.
		if strings.Contains(line, FieldSeparator) {
			header(line)
		}
	}
	flush()

	return commits, scanner.Err()
}

// ParseLogString is ParseLog over an in-memory string.
func ParseLogString(s string) []Commit {
	commits, _ := ParseLog(strings.NewReader(s))
	return commits
}

func parseHeader(line string) (Commit, bool) {
	parts := strings.SplitN(line, FieldSeparator, headerFields)
	if len(parts) != headerFields || !hashPattern.MatchString(strings.TrimSpace(parts[0])) {
		return Commit{}, false
	}
	ts, err := ParseTime(parts[3])
	if err != nil {
		return Commit{}, false
	}
	return Commit{
		Hash:        strings.TrimSpace(parts[0]),
		AuthorName:  strings.TrimSpace(parts[1]),
		AuthorEmail: strings.TrimSpace(parts[2]),
		Timestamp:   ts,
		Message:     strings.TrimSpace(parts[4]),
		Files:       make([]FileChange, 0),
	}, true
}

// parseNumstat parses "added<TAB>deleted<TAB>path". A "-" count marks a
// binary file and is recorded as zero.
func parseNumstat(line string) (FileChange, bool) {
	parts := strings.SplitN(line, "\t", numstatFields)
	if len(parts) != numstatFields {
		return FileChange{}, false
	}

	added, addBinary, ok := parseCount(parts[0])
	if !ok {
		return FileChange{}, false
	}
	deleted, delBinary, ok := parseCount(parts[1])
	if !ok {
		return FileChange{}, false
	}

	path := ResolveRenamePath(strings.TrimSpace(parts[2]))
	if path == "" {
		return FileChange{}, false
	}

	return FileChange{
		Path:      path,
		Additions: added,
		Deletions: deleted,
		Binary:    addBinary || delBinary,
	}, true
}

func parseCount(s string) (n int, binary bool, ok bool) {
	s = strings.TrimSpace(s)
	if s == "-" {
		return 0, true, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false, false
	}
	return n, false, true
}

// ResolveRenamePath maps numstat rename notation to the destination path:
// "src/{old => new}/a.go" becomes "src/new/a.go" and "a.go => b.go"
// becomes "b.go".
func ResolveRenamePath(path string) string {
	if !strings.Contains(path, " => ") {
		return path
	}

	open := strings.Index(path, "{")
	closing := strings.LastIndex(path, "}")
	if open >= 0 && closing > open {
		inner := path[open+1 : closing]
		arrow := strings.Index(inner, " => ")
		if arrow < 0 {
			return path
		}
		resolved := path[:open] + inner[arrow+len(" => "):] + path[closing+1:]
		for strings.Contains(resolved, "//") {
			resolved = strings.ReplaceAll(resolved, "//", "/")
		}
		return strings.TrimPrefix(resolved, "/")
	}

	arrow := strings.Index(path, " => ")
	return strings.TrimSpace(path[arrow+len(" => "):])
}

// ParseTags parses lines of "name|date|hash" (see TagFormat). The hash is
// optional. Unparseable lines are dropped.
func ParseTags(r io.Reader) ([]Tag, error) {
	tags := make([]Tag, 0)
	scanner := newScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, FieldSeparator)
		if len(parts) < 2 || len(parts) > 3 {
			continue
		}
		name := strings.TrimSpace(parts[0])
		if name == "" {
			continue
		}
		ts, err := ParseTime(parts[1])
		if err != nil {
			continue
		}
		tag := Tag{Name: name, Timestamp: ts}
		if len(parts) == 3 {
			tag.Hash = strings.TrimSpace(parts[2])
		}
		tags = append(tags, tag)
	}

	return tags, scanner.Err()
}

// ParseContributors parses git shortlog -sne output:
// "   42<TAB>Jane Doe <jane@example.com>".
func ParseContributors(r io.Reader) ([]Contributor, error) {
	contributors := make([]Contributor, 0)
	scanner := newScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		countStr, rest, found := strings.Cut(line, "\t")
		if !found {
			continue
		}
		count, err := strconv.Atoi(strings.TrimSpace(countStr))
		if err != nil {
			continue
		}

		rest = strings.TrimSpace(rest)
		name, email := rest, ""
		if lt := strings.LastIndex(rest, "<"); lt >= 0 && strings.HasSuffix(rest, ">") {
			name = strings.TrimSpace(rest[:lt])
			email = rest[lt+1 : len(rest)-1]
		}
		if name == "" && email == "" {
			continue
		}

		contributors = append(contributors, Contributor{
			Name:    name,
			Email:   email,
			Commits: count,
		})
	}

	sort.SliceStable(contributors, func(i, j int) bool {
		return contributors[i].Commits > contributors[j].Commits
	})

	return contributors, scanner.Err()
}

// ParseBranches parses one branch name per line as printed by git branch.
// The current-branch marker is stripped; detached HEAD entries, symbolic
// refs and duplicates are dropped.
func ParseBranches(r io.Reader) ([]string, error) {
	branches := make([]string, 0)
	seen := make(map[string]struct{})
	scanner := newScanner(r)

	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		name = strings.TrimSpace(strings.TrimPrefix(name, "* "))
		if name == "" || strings.HasPrefix(name, "(") || strings.Contains(name, " -> ") {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		branches = append(branches, name)
	}

	return branches, scanner.Err()
}
