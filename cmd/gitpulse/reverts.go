package main

import (
	"fmt"

	"github.com/panbanda/gitpulse/internal/output"
	"github.com/panbanda/gitpulse/internal/service/analysis"
	"github.com/urfave/cli/v2"
)

func revertsCmd() *cli.Command {
	return &cli.Command{
		Name:      "reverts",
		Usage:     "Detect reverted work and why it was rolled back",
		ArgsUsage: "[path]",
		Flags:     historyFlags(),
		Action:    runRevertsCmd,
	}
}

func runRevertsCmd(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := s.analyze(c, analysis.MetricReverts)
	if err != nil {
		return err
	}
	return s.formatter.Output(revertsTable(report, s.top))
}

func revertsTable(report *analysis.Report, top int) *output.Table {
	result := report.Reverts

	var rows [][]string
	for _, r := range limit(result.Reverts, top) {
		reverted, hours := "-", "-"
		if r.Resolved() {
			reverted = shortHash(r.RevertedHash)
			hours = fmt.Sprintf("%.1f", r.HoursToRevert)
		}
		rows = append(rows, []string{
			shortHash(r.Hash),
			formatDate(r.Timestamp),
			r.Author,
			string(r.Reason),
			reverted,
			hours,
			truncate(r.Message, 50),
		})
	}

	sum := result.Summary
	peak := "-"
	if sum.PeakHour >= 0 {
		peak = fmt.Sprintf("%s %02d:00", sum.PeakWeekday, sum.PeakHour)
	}
	return output.NewTable(
		fmt.Sprintf("Reverts (%s)", report.Window),
		[]string{"Commit", "Date", "Author", "Reason", "Reverted", "Hours", "Message"},
		rows,
		[]string{
			fmt.Sprintf("Reverts: %d", sum.RevertCount),
			fmt.Sprintf("Rate: %.2f%%", sum.RevertRate),
			fmt.Sprintf("Quick: %d", sum.QuickReverts),
			"",
			fmt.Sprintf("Avg: %.1fh", sum.AvgHoursToRevert),
			"",
			fmt.Sprintf("Peak: %s", peak),
		},
		result,
	)
}
