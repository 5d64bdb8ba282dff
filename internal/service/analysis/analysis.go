// Package analysis reads repository history once and runs the requested
// analyzers over it concurrently.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/panbanda/gitpulse/internal/logging"
	"github.com/panbanda/gitpulse/internal/vcs"
	"github.com/panbanda/gitpulse/pkg/analyzer"
	"github.com/panbanda/gitpulse/pkg/analyzer/churn"
	"github.com/panbanda/gitpulse/pkg/analyzer/classify"
	"github.com/panbanda/gitpulse/pkg/analyzer/cochange"
	"github.com/panbanda/gitpulse/pkg/analyzer/deploy"
	"github.com/panbanda/gitpulse/pkg/analyzer/leadtime"
	"github.com/panbanda/gitpulse/pkg/analyzer/ownership"
	"github.com/panbanda/gitpulse/pkg/analyzer/revert"
	"github.com/panbanda/gitpulse/pkg/analyzer/size"
	"github.com/panbanda/gitpulse/pkg/config"
	"github.com/panbanda/gitpulse/pkg/gitlog"
	"github.com/sourcegraph/conc/pool"
)

// Metric names, used for selection and as Report.Errors keys.
const (
	MetricClassify    = "classify"
	MetricSize        = "size"
	MetricChurn       = "churn"
	MetricOwnership   = "ownership"
	MetricCoupling    = "coupling"
	MetricReverts     = "reverts"
	MetricDeployments = "deployments"
	MetricLeadTime    = "leadtime"
)

// AllMetrics lists every metric in report order.
var AllMetrics = []string{
	MetricClassify,
	MetricSize,
	MetricChurn,
	MetricOwnership,
	MetricCoupling,
	MetricReverts,
	MetricDeployments,
	MetricLeadTime,
}

// ErrUnknownMetric is returned when a requested metric does not exist.
var ErrUnknownMetric = errors.New("unknown metric")

// Service orchestrates history analysis.
type Service struct {
	config *config.Config
	reader vcs.LogReader
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.config = cfg
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the clock used to anchor day-based windows and stamp reports.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a new analysis service reading from reader.
func New(reader vcs.LogReader, opts ...Option) *Service {
	s := &Service{
		config: config.DefaultConfig(),
		reader: reader,
		logger: logging.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WindowOptions selects the analysis window. Explicit Since/Until win over
// Days; Days falls back to the configured default.
type WindowOptions struct {
	Days  int
	Since time.Time
	Until time.Time
}

// ResolveWindow turns window options into a validated window.
func (s *Service) ResolveWindow(opts WindowOptions) (analyzer.Window, error) {
	if !opts.Since.IsZero() || !opts.Until.IsZero() {
		until := opts.Until
		if until.IsZero() {
			until = s.now()
		}
		if opts.Since.IsZero() {
			return analyzer.Window{}, fmt.Errorf("%w: --since is required with --until", analyzer.ErrMissingWindow)
		}
		return analyzer.NewWindow(opts.Since, until)
	}

	days := opts.Days
	if days == 0 {
		days = s.config.Analysis.Days
	}
	return analyzer.WindowForDays(s.now(), days)
}

// History is the raw material every analyzer shares.
type History struct {
	Window        analyzer.Window
	Commits       []gitlog.Commit
	Tags          []gitlog.Tag
	Branches      []string
	CurrentBranch string
}

// ReadHistory reads commits, tags and branch hints for the window. Branch
// lookups are best-effort.
func (s *Service) ReadHistory(ctx context.Context, window analyzer.Window) (*History, error) {
	start := time.Now()

	out, err := s.reader.Log(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	commits, err := gitlog.ParseLog(out)
	if err != nil {
		return nil, fmt.Errorf("parse log: %w", err)
	}

	out, err = s.reader.Tags(ctx)
	if err != nil {
		return nil, fmt.Errorf("read tags: %w", err)
	}
	tags, err := gitlog.ParseTags(out)
	if err != nil {
		return nil, fmt.Errorf("parse tags: %w", err)
	}

	h := &History{
		Window:  window,
		Commits: window.FilterCommits(commits),
		Tags:    tags,
	}

	if out, err := s.reader.Branches(ctx); err != nil {
		s.logger.Warn("branch listing unavailable", "error", err)
	} else if branches, err := gitlog.ParseBranches(out); err == nil {
		h.Branches = branches
	}

	if branch, err := s.reader.CurrentBranch(); err != nil {
		s.logger.Warn("current branch unavailable", "error", err)
	} else {
		h.CurrentBranch = branch
	}

	s.logger.Debug("history read",
		"commits", len(h.Commits),
		"tags", len(h.Tags),
		"branches", len(h.Branches),
		"duration", time.Since(start))
	return h, nil
}

// fileCommits drops excluded paths from every commit.
func (s *Service) fileCommits(commits []gitlog.Commit) []gitlog.Commit {
	out := make([]gitlog.Commit, len(commits))
	for i, c := range commits {
		files := make([]gitlog.FileChange, 0, len(c.Files))
		for _, f := range c.Files {
			if !s.config.ShouldExclude(f.Path) {
				files = append(files, f)
			}
		}
		c.Files = files
		out[i] = c
	}
	return out
}

// Report holds the results of one analysis run. Only requested metrics are
// set; a failed metric leaves its field nil and records its error.
type Report struct {
	Window         analyzer.Window     `json:"window"`
	GeneratedAt    time.Time           `json:"generated_at"`
	TotalCommits   int                 `json:"total_commits"`
	Classification *classify.Analysis  `json:"classification,omitempty"`
	Size           *size.Analysis      `json:"size,omitempty"`
	Churn          *churn.Analysis     `json:"churn,omitempty"`
	Ownership      *ownership.Analysis `json:"ownership,omitempty"`
	Coupling       *cochange.Analysis  `json:"coupling,omitempty"`
	Reverts        *revert.Analysis    `json:"reverts,omitempty"`
	Deployments    *deploy.Analysis    `json:"deployments,omitempty"`
	LeadTime       *leadtime.Analysis  `json:"lead_time,omitempty"`
	Errors         map[string]string   `json:"errors,omitempty"`
}

// Failed reports whether any metric failed.
func (r *Report) Failed() bool {
	return len(r.Errors) > 0
}

// Options configures one analysis run.
type Options struct {
	Window  WindowOptions
	Metrics []string // empty means all
}

func selectMetrics(requested []string) (map[string]bool, error) {
	selected := make(map[string]bool)
	if len(requested) == 0 {
		for _, m := range AllMetrics {
			selected[m] = true
		}
		return selected, nil
	}
	for _, m := range requested {
		if !slices.Contains(AllMetrics, m) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownMetric, m)
		}
		selected[m] = true
	}
	return selected, nil
}

// Analyze reads history once and runs the selected metrics concurrently.
// The context bounds history reading only.
func (s *Service) Analyze(ctx context.Context, opts Options) (*Report, error) {
	selected, err := selectMetrics(opts.Metrics)
	if err != nil {
		return nil, err
	}
	window, err := s.ResolveWindow(opts.Window)
	if err != nil {
		return nil, err
	}
	history, err := s.ReadHistory(ctx, window)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, history, selected), nil
}

// Run executes the selected metrics over history. A failing metric records
// its error under its name and does not affect the others.
func (s *Service) Run(ctx context.Context, history *History, selected map[string]bool) *Report {
	report := &Report{
		Window:       history.Window,
		GeneratedAt:  s.now(),
		TotalCommits: len(history.Commits),
	}

	tracker := analyzer.TrackerFromContext(ctx)
	if tracker != nil {
		tracker.Add(len(selected))
	}

	var mu sync.Mutex
	fail := func(metric string, err error) {
		s.logger.Warn("analyzer failed", "metric", metric, "error", err)
		mu.Lock()
		if report.Errors == nil {
			report.Errors = make(map[string]string)
		}
		report.Errors[metric] = err.Error()
		mu.Unlock()
	}
	// run times one metric, converts panics to errors and ticks progress.
	run := func(metric string, fn func() error) {
		if !selected[metric] {
			return
		}
		start := time.Now()
		s.logger.Debug("analyzer started", "metric", metric)
		err := func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic: %v", r)
				}
			}()
			return fn()
		}()
		if err != nil {
			fail(metric, err)
		} else {
			s.logger.Info("analyzer finished",
				"metric", metric,
				"commits", len(history.Commits),
				"duration", time.Since(start))
		}
		if tracker != nil {
			tracker.Tick(metric)
		}
	}

	commits := history.Commits
	fileCommits := s.fileCommits(commits)
	cfg := s.config

	p := pool.New()

	p.Go(func() {
		run(MetricClassify, func() error {
			a := classify.New()
			defer a.Close()
			report.Classification = a.Analyze(commits)
			return nil
		})
	})

	p.Go(func() {
		run(MetricSize, func() error {
			a := size.New(
				size.WithFallbackThresholds(size.Thresholds{
					Small:  cfg.Size.Small,
					Medium: cfg.Size.Medium,
					Large:  cfg.Size.Large,
					Huge:   cfg.Size.Huge,
				}),
				size.WithTopN(cfg.Size.TopN),
			)
			report.Size = a.Analyze(commits)
			return nil
		})
	})

	if selected[MetricChurn] || selected[MetricOwnership] {
		p.Go(func() {
			a := churn.New(churn.WithThresholds(churn.Thresholds{
				High:   cfg.Churn.High,
				Medium: cfg.Churn.Medium,
			}))
			defer a.Close()

			// ownership reads the churn result.
			var churnResult *churn.Analysis
			run(MetricChurn, func() error {
				churnResult = a.Analyze(fileCommits)
				report.Churn = churnResult
				return nil
			})

			run(MetricOwnership, func() error {
				if churnResult == nil {
					churnResult = a.Analyze(fileCommits)
				}
				report.Ownership = ownership.New().Analyze(churnResult)
				return nil
			})
		})
	}

	p.Go(func() {
		run(MetricCoupling, func() error {
			a := cochange.New(
				cochange.WithMinCochanges(cfg.Cochange.MinCochanges),
				cochange.WithMaxFilesPerCommit(cfg.Cochange.MaxFilesPerCommit),
				cochange.WithHotspotThresholds(cfg.Cochange.HotspotMinRelationships, cfg.Cochange.HotspotStrength),
			)
			report.Coupling = a.Analyze(fileCommits)
			return nil
		})
	})

	p.Go(func() {
		run(MetricReverts, func() error {
			report.Reverts = revert.New().Analyze(commits)
			return nil
		})
	})

	if selected[MetricDeployments] || selected[MetricLeadTime] {
		p.Go(func() {
			var deployments *deploy.Analysis
			compute := func() error {
				a, err := s.deployAnalyzer(history)
				if err != nil {
					return err
				}
				deployments = a.Analyze(commits, history.Tags)
				return nil
			}
			run(MetricDeployments, func() error {
				if err := compute(); err != nil {
					return err
				}
				report.Deployments = deployments
				return nil
			})

			run(MetricLeadTime, func() error {
				if !selected[MetricDeployments] {
					if err := compute(); err != nil {
						return err
					}
				}
				if deployments == nil {
					return errors.New("deployment analysis unavailable")
				}
				a, err := leadtime.New(history.Window, leadtime.WithLongMessageLength(cfg.LeadTime.LongMessageLength))
				if err != nil {
					return err
				}
				defer a.Close()
				report.LeadTime = a.Analyze(commits, deployments.Deployments)
				return nil
			})
		})
	}

	p.Wait()
	return report
}

func (s *Service) deployAnalyzer(history *History) (*deploy.Analyzer, error) {
	branches := slices.Concat(history.Branches, s.config.Analysis.Branches)
	current := s.config.Analysis.CurrentBranch
	if current == "" {
		current = history.CurrentBranch
	}
	return deploy.New(history.Window,
		deploy.WithMainBranches(s.config.Deployment.MainBranches),
		deploy.WithBranches(branches),
		deploy.WithCurrentBranch(current),
	)
}

// Contributors lists per-author commit counts for the window.
func (s *Service) Contributors(ctx context.Context, window analyzer.Window) ([]gitlog.Contributor, error) {
	out, err := s.reader.Contributors(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("read contributors: %w", err)
	}
	contributors, err := gitlog.ParseContributors(out)
	if err != nil {
		return nil, fmt.Errorf("parse contributors: %w", err)
	}
	return contributors, nil
}
