// Package analyzer defines the contracts shared by the change-history
// analyzers and the analysis time window.
package analyzer

import "github.com/panbanda/gitpulse/pkg/gitlog"

// CommitAnalyzer is implemented by analyzers that derive a result from a
// fully materialized commit sequence. Implementations must not mutate the
// input and must return an empty, non-nil result for empty input.
type CommitAnalyzer[T any] interface {
	Analyze(commits []gitlog.Commit) T
}
