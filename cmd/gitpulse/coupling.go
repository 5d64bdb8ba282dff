package main

import (
	"fmt"

	"github.com/panbanda/gitpulse/internal/output"
	"github.com/panbanda/gitpulse/internal/service/analysis"
	"github.com/urfave/cli/v2"
)

func couplingCmd() *cli.Command {
	return &cli.Command{
		Name:      "coupling",
		Aliases:   []string{"cochange", "temporal"},
		Usage:     "Find files that change together",
		ArgsUsage: "[path]",
		Flags:     historyFlags(),
		Action:    runCouplingCmd,
	}
}

func runCouplingCmd(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := s.analyze(c, analysis.MetricCoupling)
	if err != nil {
		return err
	}
	return s.formatter.Output(couplingTable(report, s.top, s.colored()))
}

func couplingTable(report *analysis.Report, top int, colored bool) *output.Table {
	result := report.Coupling

	var rows [][]string
	for _, p := range limit(result.Pairs, top) {
		rows = append(rows, []string{
			p.FileA,
			p.FileB,
			fmt.Sprintf("%d", p.CochangeCount),
			fmt.Sprintf("%.2f", p.Strength),
			output.SeverityColor(string(p.Category), string(p.Category), colored),
		})
	}

	sum := result.Summary
	return output.NewTable(
		fmt.Sprintf("Change Coupling (%s)", report.Window),
		[]string{"File A", "File B", "Co-changes", "Strength", "Category"},
		rows,
		[]string{
			fmt.Sprintf("Pairs: %d", sum.TotalPairs),
			fmt.Sprintf("Files: %d", sum.TotalFilesAnalyzed),
			fmt.Sprintf("Hotspots: %d", sum.HotspotCount),
			fmt.Sprintf("Max: %.2f", sum.MaxStrength),
			"",
		},
		result,
	)
}
