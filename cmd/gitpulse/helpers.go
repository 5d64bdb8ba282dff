package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/panbanda/gitpulse/internal/logging"
	"github.com/panbanda/gitpulse/internal/output"
	"github.com/panbanda/gitpulse/internal/progress"
	"github.com/panbanda/gitpulse/internal/service/analysis"
	"github.com/panbanda/gitpulse/internal/vcs"
	"github.com/panbanda/gitpulse/pkg/analyzer"
	"github.com/panbanda/gitpulse/pkg/config"
	"github.com/panbanda/gitpulse/pkg/gitlog"
	"github.com/urfave/cli/v2"
)

// historyFlags are shared by every command that reads a window of history.
func historyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "days",
			Usage: "Number of days of history to analyze (default from config)",
		},
		&cli.StringFlag{
			Name:  "since",
			Usage: "Start of the window (YYYY-MM-DD or RFC 3339); overrides --days",
		},
		&cli.StringFlag{
			Name:  "until",
			Usage: "End of the window (YYYY-MM-DD or RFC 3339), default now",
		},
		&cli.IntFlag{
			Name:  "top",
			Usage: "Show top N rows (default from config)",
		},
	}
}

// validateDays validates the --days flag and returns an error if invalid.
func validateDays(days int) error {
	if days <= 0 {
		return fmt.Errorf("--days must be a positive integer (got %d)", days)
	}
	return nil
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 4 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}

func formatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func percent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

// repoPath returns the path argument, defaulting to ".".
func repoPath(c *cli.Context) string {
	if c.Args().Len() > 0 {
		return c.Args().First()
	}
	return "."
}

// parseDate accepts a calendar date or any timestamp git prints.
func parseDate(flag, value string) (time.Time, error) {
	t, err := gitlog.ParseTime(strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: invalid date %q", flag, value)
	}
	return t, nil
}

// windowOptions reads --days, --since and --until.
func windowOptions(c *cli.Context) (analysis.WindowOptions, error) {
	var opts analysis.WindowOptions
	if c.IsSet("days") {
		if err := validateDays(c.Int("days")); err != nil {
			return opts, err
		}
		opts.Days = c.Int("days")
	}
	if s := c.String("since"); s != "" {
		t, err := parseDate("since", s)
		if err != nil {
			return opts, err
		}
		opts.Since = t
	}
	if s := c.String("until"); s != "" {
		t, err := parseDate("until", s)
		if err != nil {
			return opts, err
		}
		opts.Until = t
	}
	return opts, nil
}

// newLogger builds the diagnostic logger from config and flags.
func newLogger(c *cli.Context, cfg *config.Config) (*slog.Logger, error) {
	lc := logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}
	if c.Bool("verbose") {
		lc.Level = "debug"
	}
	if f := c.String("log-format"); f != "" {
		lc.Format = f
	}
	return logging.New(os.Stderr, lc)
}

// session is everything a command needs to analyze one repository.
type session struct {
	config    *config.Config
	service   *analysis.Service
	formatter *output.Formatter
	top       int
}

func newSession(c *cli.Context) (*session, error) {
	repo, err := vcs.Open(repoPath(c))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", repoPath(c), err)
	}

	result, err := config.LoadConfig(config.WithPath(c.String("config")), config.WithDir(repo.Root()))
	if err != nil {
		return nil, err
	}
	cfg := result.Config

	logger, err := newLogger(c, cfg)
	if err != nil {
		return nil, err
	}
	if result.Source != "" {
		logger.Debug("configuration loaded", "source", result.Source)
	}

	format := cfg.Output.Format
	if c.IsSet("format") {
		format = c.String("format")
	}
	formatter, err := output.NewFormatter(output.ParseFormat(format), c.String("output"), cfg.Output.Color && !c.Bool("no-color"))
	if err != nil {
		return nil, err
	}

	top := cfg.Output.Top
	if c.IsSet("top") && c.Int("top") > 0 {
		top = c.Int("top")
	}

	return &session{
		config:    cfg,
		service:   analysis.New(repo, analysis.WithConfig(cfg), analysis.WithLogger(logger)),
		formatter: formatter,
		top:       top,
	}, nil
}

func (s *session) Close() error {
	return s.formatter.Close()
}

func (s *session) colored() bool {
	return s.formatter.Colored()
}

// analyze runs the given metrics with a progress bar on stderr. A failed
// metric is returned as an error when it is the only one requested.
func (s *session) analyze(c *cli.Context, metrics ...string) (*analysis.Report, error) {
	opts, err := windowOptions(c)
	if err != nil {
		return nil, err
	}

	total := len(metrics)
	if total == 0 {
		total = len(analysis.AllMetrics)
	}
	bar := progress.NewBar("Analyzing history...", total)
	ctx := analyzer.WithTracker(c.Context, bar.Tracker())

	report, err := s.service.Analyze(ctx, analysis.Options{Window: opts, Metrics: metrics})
	if err != nil {
		bar.FinishError(err)
		return nil, fmt.Errorf("history analysis failed (is this a git repository?): %w", err)
	}
	bar.Finish()

	if len(metrics) == 1 {
		if msg, ok := report.Errors[metrics[0]]; ok {
			return nil, fmt.Errorf("%s analysis failed: %s", metrics[0], msg)
		}
	}
	return report, nil
}

// limit returns at most n leading items.
func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
