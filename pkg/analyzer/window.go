package analyzer

import (
	"errors"
	"fmt"
	"time"

	"github.com/panbanda/gitpulse/pkg/gitlog"
)

// ErrMissingWindow is returned when an analyzer that needs a time window is
// constructed without one.
var ErrMissingWindow = errors.New("analysis time window is required")

// ErrInvalidWindow is returned when the window ends before it starts.
var ErrInvalidWindow = errors.New("analysis time window ends before it starts")

// Window bounds the commits, tags and deployments that are in scope.
// Both ends are inclusive.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewWindow creates a validated window.
func NewWindow(start, end time.Time) (Window, error) {
	w := Window{Start: start, End: end}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

// WindowForDays returns the window of the given number of days ending at end.
func WindowForDays(end time.Time, days int) (Window, error) {
	if days <= 0 {
		return Window{}, fmt.Errorf("%w: days must be positive (got %d)", ErrInvalidWindow, days)
	}
	return NewWindow(end.AddDate(0, 0, -days), end)
}

// Validate checks that both ends are set and ordered.
func (w Window) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return ErrMissingWindow
	}
	if w.End.Before(w.Start) {
		return ErrInvalidWindow
	}
	return nil
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Days returns the length of the window in fractional days.
func (w Window) Days() float64 {
	return w.End.Sub(w.Start).Hours() / 24
}

// FilterCommits returns the commits whose timestamp falls inside the window,
// preserving order.
func (w Window) FilterCommits(commits []gitlog.Commit) []gitlog.Commit {
	out := make([]gitlog.Commit, 0, len(commits))
	for _, c := range commits {
		if w.Contains(c.Timestamp) {
			out = append(out, c)
		}
	}
	return out
}

// String formats the window for display.
func (w Window) String() string {
	return fmt.Sprintf("%s..%s", w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"))
}
