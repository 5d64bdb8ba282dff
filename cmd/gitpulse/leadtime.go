package main

import (
	"fmt"
	"strings"

	"github.com/panbanda/gitpulse/internal/output"
	"github.com/panbanda/gitpulse/internal/service/analysis"
	"github.com/urfave/cli/v2"
)

func leadtimeCmd() *cli.Command {
	return &cli.Command{
		Name:      "leadtime",
		Aliases:   []string{"lead-time"},
		Usage:     "Measure the time from commit to deployment",
		ArgsUsage: "[path]",
		Flags:     historyFlags(),
		Action:    runLeadtimeCmd,
	}
}

func runLeadtimeCmd(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := s.analyze(c, analysis.MetricLeadTime)
	if err != nil {
		return err
	}
	return s.formatter.Output(leadtimeTable(report, s.top, s.colored()))
}

func leadtimeTable(report *analysis.Report, top int, colored bool) *output.Table {
	result := report.LeadTime

	slow := make(map[string]bool, len(result.Bottlenecks.SlowAuthors))
	for _, a := range result.Bottlenecks.SlowAuthors {
		slow[a] = true
	}

	var rows [][]string
	for _, a := range limit(result.Authors, top) {
		name := a.Author
		if slow[name] {
			name = output.SeverityColor("high", name+" (slow)", colored)
		}
		rows = append(rows, []string{
			name,
			fmt.Sprintf("%d", a.TotalCommits),
			fmt.Sprintf("%d", a.Deployed),
			percent(a.DeploymentRate),
			fmt.Sprintf("%.1f", a.AvgHours),
			fmt.Sprintf("%.1f", a.MedianHours),
		})
	}

	sum, overall := result.Summary, result.Overall
	footer := []string{
		fmt.Sprintf("Commits: %d", sum.TotalCommits),
		fmt.Sprintf("Deployed: %d", sum.DeployedCommits),
		fmt.Sprintf("Coverage: %s", percent(sum.Coverage)),
		fmt.Sprintf("Avg: %.1fh", overall.Avg),
		fmt.Sprintf("P50: %.1fh P90: %.1fh", overall.Median, overall.P90),
		output.SeverityColor(string(sum.Performance), strings.ReplaceAll(string(sum.Performance), "_", " "), colored),
	}

	return output.NewTable(
		fmt.Sprintf("Lead Time by Author (%s)", report.Window),
		[]string{"Author", "Commits", "Deployed", "Rate", "Avg Hours", "Median Hours"},
		rows,
		footer,
		result,
	)
}
