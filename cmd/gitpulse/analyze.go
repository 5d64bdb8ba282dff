package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/panbanda/gitpulse/internal/output"
	"github.com/panbanda/gitpulse/internal/service/analysis"
	"github.com/urfave/cli/v2"
)

func analyzeCmd() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Aliases:   []string{"all"},
		Usage:     "Run every analyzer over one read of the history",
		ArgsUsage: "[path]",
		Flags: append(historyFlags(),
			&cli.StringSliceFlag{
				Name:    "metrics",
				Aliases: []string{"m"},
				Usage:   "Analyzers to run: " + strings.Join(analysis.AllMetrics, ", "),
			},
		),
		Action: runAnalyzeCmd,
	}
}

func runAnalyzeCmd(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := s.analyze(c, c.StringSlice("metrics")...)
	if err != nil {
		return err
	}

	return s.formatter.Output(reportView(report, s.top, s.colored()))
}

// reportView lays out every metric present in the report as one document.
// Structured formats serialize the report itself.
func reportView(report *analysis.Report, top int, colored bool) *output.Report {
	var sections []output.Renderable
	if report.Classification != nil {
		sections = append(sections, classifyTable(report))
	}
	if report.Size != nil {
		sections = append(sections, sizeTable(report, top, colored))
	}
	if report.Churn != nil {
		sections = append(sections, churnTable(report, top, colored))
	}
	if report.Ownership != nil {
		sections = append(sections, ownershipTable(report, top))
	}
	if report.Coupling != nil {
		sections = append(sections, couplingTable(report, top, colored))
	}
	if report.Reverts != nil {
		sections = append(sections, revertsTable(report, top))
	}
	if report.Deployments != nil {
		sections = append(sections, deploymentsTable(report, top, colored))
	}
	if report.LeadTime != nil {
		sections = append(sections, leadtimeTable(report, top, colored))
	}

	if report.Failed() {
		names := make([]string, 0, len(report.Errors))
		for name := range report.Errors {
			names = append(names, name)
		}
		sort.Strings(names)
		lines := make([]string, 0, len(names))
		for _, name := range names {
			lines = append(lines, fmt.Sprintf("%s: %s", name, report.Errors[name]))
		}
		sections = append(sections, &output.Section{
			Title:   "Failed Analyzers",
			Content: strings.Join(lines, "\n"),
		})
	}

	return &output.Report{
		Title:    fmt.Sprintf("Change History Report: %d commits (%s)", report.TotalCommits, report.Window),
		Sections: sections,
		Data:     report,
	}
}
