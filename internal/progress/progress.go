// Package progress renders analysis progress on stderr.
package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/panbanda/gitpulse/pkg/analyzer"
	"github.com/schollz/progressbar/v3"
)

// Bar wraps a progress bar for a multi-step analysis.
type Bar struct {
	bar   *progressbar.ProgressBar
	label string
	w     io.Writer
}

// NewSpinner creates a spinner for steps with no known total, such as
// reading history.
func NewSpinner(label string) *Bar {
	return newSpinner(os.Stderr, label)
}

func newSpinner(w io.Writer, label string) *Bar {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(20),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	return &Bar{bar: bar, label: label, w: w}
}

// NewBar creates a bar counting finished analyzers.
func NewBar(label string, total int) *Bar {
	return newBar(os.Stderr, label, total)
}

func newBar(w io.Writer, label string, total int) *Bar {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &Bar{bar: bar, label: label, w: w}
}

// Tracker returns an analyzer tracker that advances the bar as each
// analyzer finishes. Safe for concurrent use.
func (b *Bar) Tracker() *analyzer.Tracker {
	return analyzer.NewTracker(func(current, total int, metric string) {
		if total > 0 && int64(total) != b.bar.GetMax64() {
			b.bar.ChangeMax(total)
		}
		b.bar.Describe(fmt.Sprintf("%s (%s)", b.label, metric))
		_ = b.bar.Set(current)
	})
}

// Tick advances the bar by one.
func (b *Bar) Tick() {
	_ = b.bar.Add(1)
}

// Finish clears the bar.
func (b *Bar) Finish() {
	_ = b.bar.Finish()
	_ = b.bar.Clear()
}

// FinishError clears the bar and reports err below it.
func (b *Bar) FinishError(err error) {
	b.Finish()
	fmt.Fprintf(b.w, "  %s error: %v\n", b.label, err)
}
