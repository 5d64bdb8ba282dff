// Package revert finds commits that undo earlier ones and scores authors by
// how often their work is reverted.
package revert

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/panbanda/gitpulse/pkg/analyzer"
	"github.com/panbanda/gitpulse/pkg/gitlog"
	"github.com/panbanda/gitpulse/pkg/stats"
)

// Compile-time check that Analyzer implements CommitAnalyzer.
var _ analyzer.CommitAnalyzer[*Analysis] = (*Analyzer)(nil)

var revertPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\brevert(s|ed|ing)?\b`),
	regexp.MustCompile(`\bthis reverts commit\b`),
	regexp.MustCompile(`\broll(s|ed|ing)?[\s-]?back\b`),
	regexp.MustCompile(`\bundo(es|ne|ing)?\b`),
	regexp.MustCompile(`\bback(s|ed|ing)?[\s-]out\b`),
}

var hashFragment = regexp.MustCompile(`(?i)\b[0-9a-f]{7,40}\b`)

// quotedSubject matches the subject git writes for `git revert`.
var quotedSubject = regexp.MustCompile(`(?i)^revert\s+"(.+)"$`)

type reasonRule struct {
	reason  Reason
	pattern *regexp.Regexp
}

var reasonRules = []reasonRule{
	{ReasonBug, regexp.MustCompile(`\b(bugs?|fix(es|ed)?|broken|breaks?|crash(es|ed)?|errors?|fail(s|ed|ing|ures?)?|issues?)\b`)},
	{ReasonTest, regexp.MustCompile(`\b(tests?|testing|flaky|ci|specs?)\b`)},
	{ReasonBreakingChange, regexp.MustCompile(`\b(breaking|incompatib\w*|backwards?|regression|api change)\b`)},
	{ReasonPerformance, regexp.MustCompile(`\b(perf|performance|slow\w*|latency|memory|timeouts?|cpu)\b`)},
	{ReasonSecurity, regexp.MustCompile(`\b(security|vulnerab\w*|cve|xss|injection|exploit\w*|auth\w*)\b`)},
}

// IsRevert reports whether a message reads as a revert or rollback.
func IsRevert(message string) bool {
	normalized := strings.ToLower(message)
	for _, p := range revertPatterns {
		if p.MatchString(normalized) {
			return true
		}
	}
	return false
}

// ExtractReferences returns every hash fragment of 7 to 40 hex characters
// in a message, lower-cased, in order of appearance.
func ExtractReferences(message string) []string {
	matches := hashFragment.FindAllString(message, -1)
	refs := make([]string, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, strings.ToLower(m))
	}
	return refs
}

// QuotedSubject returns the subject of the reverted commit when the message
// has the form `Revert "subject"`.
func QuotedSubject(message string) (string, bool) {
	m := quotedSubject.FindStringSubmatch(strings.TrimSpace(message))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ClassifyReason buckets a revert message by keyword.
func ClassifyReason(message string) Reason {
	normalized := strings.ToLower(message)
	for _, r := range reasonRules {
		if r.pattern.MatchString(normalized) {
			return r.reason
		}
	}
	return ReasonOther
}

// hashIndex resolves hash fragments and quoted subjects against a commit slice.
type hashIndex struct {
	full     map[string]int
	short    map[string][]int
	subjects map[string][]int
}

func newHashIndex(commits []gitlog.Commit) *hashIndex {
	idx := &hashIndex{
		full:     make(map[string]int, len(commits)),
		short:    make(map[string][]int, len(commits)),
		subjects: make(map[string][]int, len(commits)),
	}
	for i, c := range commits {
		idx.subjects[c.Message] = append(idx.subjects[c.Message], i)
		h := strings.ToLower(c.Hash)
		if _, dup := idx.full[h]; !dup {
			idx.full[h] = i
		}
		if len(h) >= gitlog.ShortHashLength {
			s := h[:gitlog.ShortHashLength]
			idx.short[s] = append(idx.short[s], i)
		}
	}
	return idx
}

// lookup returns the index of the commit a fragment names, skipping self.
// An exact full-hash match wins; otherwise the first commit whose short
// hash matches and whose full hash starts with the fragment.
func (h *hashIndex) lookup(commits []gitlog.Commit, fragment string, self int) (int, bool) {
	if i, ok := h.full[fragment]; ok && i != self {
		return i, true
	}
	if len(fragment) < gitlog.ShortHashLength {
		return 0, false
	}
	for _, i := range h.short[fragment[:gitlog.ShortHashLength]] {
		if i != self && strings.HasPrefix(strings.ToLower(commits[i].Hash), fragment) {
			return i, true
		}
	}
	return 0, false
}

// lookupSubject returns the most recent commit with the given subject that
// is not after the revert itself.
func (h *hashIndex) lookupSubject(commits []gitlog.Commit, subject string, self int) (int, bool) {
	best, found := 0, false
	for _, i := range h.subjects[subject] {
		if i == self || commits[i].Timestamp.After(commits[self].Timestamp) {
			continue
		}
		if !found || commits[i].Timestamp.After(commits[best].Timestamp) {
			best, found = i, true
		}
	}
	return best, found
}

// resolve finds the commit a revert undoes: hash fragments first, then the
// quoted subject. The first fragment seen is returned even when nothing
// resolves.
func (h *hashIndex) resolve(commits []gitlog.Commit, self int) (target int, ref string, ok bool) {
	c := commits[self]
	for _, frag := range ExtractReferences(c.Message + "\n" + c.Body) {
		if ref == "" {
			ref = frag
		}
		if i, found := h.lookup(commits, frag, self); found {
			return i, frag, true
		}
	}
	if subject, quoted := QuotedSubject(c.Message); quoted {
		if i, found := h.lookupSubject(commits, subject, self); found {
			return i, ref, true
		}
	}
	return 0, ref, false
}

// Analyzer detects reverts and reverted commits.
type Analyzer struct{}

// New creates a new revert analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Analyze finds revert commits, resolves what they revert and aggregates
// per-author reliability and timing distributions.
func (a *Analyzer) Analyze(commits []gitlog.Commit) *Analysis {
	analysis := &Analysis{
		Reverts:  make([]RevertRecord, 0),
		Reverted: make([]RevertedCommit, 0),
		Authors:  make([]AuthorStats, 0),
		Summary: Summary{
			TotalCommits: len(commits),
			ReasonCounts: make(map[Reason]int),
			PeakHour:     -1,
		},
	}

	idx := newHashIndex(commits)
	authors := make(map[string]*AuthorStats)
	authorOf := func(name string) *AuthorStats {
		as, ok := authors[name]
		if !ok {
			as = &AuthorStats{Author: name}
			authors[name] = as
		}
		return as
	}
	for _, c := range commits {
		authorOf(c.Author()).Commits++
	}

	reverted := make(map[int]bool)
	var hoursTotal float64
	s := &analysis.Summary

	for i, c := range commits {
		if !IsRevert(c.Message) {
			continue
		}

		rec := RevertRecord{
			Hash:      c.Hash,
			Author:    c.Author(),
			Message:   c.Message,
			Timestamp: c.Timestamp,
			Reason:    ClassifyReason(c.Message),
		}

		target, ref, ok := idx.resolve(commits, i)
		rec.Reference = ref
		if ok {
			orig := commits[target]
			rec.RevertedHash = orig.Hash
			rec.HoursToRevert = max(c.Timestamp.Sub(orig.Timestamp).Hours(), 0)

			if !reverted[target] {
				reverted[target] = true
				analysis.Reverted = append(analysis.Reverted, RevertedCommit{
					Hash:       orig.Hash,
					Author:     orig.Author(),
					Message:    orig.Message,
					Timestamp:  orig.Timestamp,
					RevertedBy: c.Hash,
				})
				authorOf(orig.Author()).TimesReverted++
			}
		}

		analysis.Reverts = append(analysis.Reverts, rec)
		authorOf(rec.Author).RevertsMade++

		s.RevertCount++
		s.ReasonCounts[rec.Reason]++
		s.HourDistribution[c.Timestamp.Hour()]++
		s.WeekdayDistribution[c.Timestamp.Weekday()]++
		if rec.Resolved() {
			s.ResolvedCount++
			hoursTotal += rec.HoursToRevert
			if rec.HoursToRevert < QuickRevertWindow.Hours() {
				s.QuickReverts++
			}
		}
	}

	s.RevertRate = stats.Round(stats.Ratio(s.RevertCount, s.TotalCommits), 2)
	if s.ResolvedCount > 0 {
		s.AvgHoursToRevert = stats.Round(hoursTotal/float64(s.ResolvedCount), 2)
	}
	if s.RevertCount > 0 {
		s.PeakHour = peak(s.HourDistribution[:])
		s.PeakWeekday = time.Weekday(peak(s.WeekdayDistribution[:])).String()
	}

	for _, as := range authors {
		if as.Commits > 0 {
			as.RevertedRate = stats.Round(float64(as.TimesReverted)/float64(as.Commits), 4)
		}
		as.Reliability = max(1-as.RevertedRate, 0)
		analysis.Authors = append(analysis.Authors, *as)
	}
	sort.Slice(analysis.Authors, func(i, j int) bool {
		ai, aj := analysis.Authors[i], analysis.Authors[j]
		if ai.Reliability != aj.Reliability {
			return ai.Reliability < aj.Reliability
		}
		if ai.Commits != aj.Commits {
			return ai.Commits > aj.Commits
		}
		return ai.Author < aj.Author
	})

	return analysis
}

// peak returns the index of the largest bucket; ties go to the earliest.
func peak(buckets []int) int {
	best := 0
	for i, n := range buckets {
		if n > buckets[best] {
			best = i
		}
	}
	return best
}

// Close releases any resources.
func (a *Analyzer) Close() {
	// No resources to release
}
