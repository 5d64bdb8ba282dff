package main

import (
	"fmt"

	"github.com/panbanda/gitpulse/internal/output"
	"github.com/panbanda/gitpulse/internal/service/analysis"
	"github.com/urfave/cli/v2"
)

func sizeCmd() *cli.Command {
	return &cli.Command{
		Name:      "size",
		Usage:     "Measure commit sizes and the risk of large changes",
		ArgsUsage: "[path]",
		Flags:     historyFlags(),
		Action:    runSizeCmd,
	}
}

func runSizeCmd(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := s.analyze(c, analysis.MetricSize)
	if err != nil {
		return err
	}
	return s.formatter.Output(sizeTable(report, s.top, s.colored()))
}

func sizeTable(report *analysis.Report, top int, colored bool) *output.Table {
	result := report.Size

	var rows [][]string
	for _, cs := range limit(result.Largest, top) {
		rows = append(rows, []string{
			shortHash(cs.Hash),
			cs.Author,
			fmt.Sprintf("%d", cs.Size),
			fmt.Sprintf("+%d/-%d", cs.Additions, cs.Deletions),
			output.SeverityColor(string(cs.Category), string(cs.Category), colored),
			truncate(cs.Message, 50),
		})
	}

	sum := result.Summary
	return output.NewTable(
		fmt.Sprintf("Largest Commits (%s)", report.Window),
		[]string{"Commit", "Author", "Size", "Lines", "Category", "Message"},
		rows,
		[]string{
			fmt.Sprintf("Commits: %d", sum.TotalCommits),
			fmt.Sprintf("S/M/L/H: %d/%d/%d/%d", sum.Counts.Small, sum.Counts.Medium, sum.Counts.Large, sum.Counts.Huge),
			fmt.Sprintf("Median: %.0f", result.Distribution.Median),
			"",
			fmt.Sprintf("Risk: %.2f", sum.RiskScore),
			output.SeverityColor(string(sum.RiskLevel), string(sum.RiskLevel), colored),
		},
		result,
	)
}
