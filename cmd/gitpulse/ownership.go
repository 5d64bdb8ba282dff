package main

import (
	"fmt"

	"github.com/panbanda/gitpulse/internal/output"
	"github.com/panbanda/gitpulse/internal/service/analysis"
	"github.com/urfave/cli/v2"
)

func ownershipCmd() *cli.Command {
	return &cli.Command{
		Name:      "ownership",
		Aliases:   []string{"owners"},
		Usage:     "Show who owns each file and where knowledge is siloed",
		ArgsUsage: "[path]",
		Flags:     historyFlags(),
		Action:    runOwnershipCmd,
	}
}

func runOwnershipCmd(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := s.analyze(c, analysis.MetricOwnership)
	if err != nil {
		return err
	}
	return s.formatter.Output(ownershipTable(report, s.top))
}

func ownershipTable(report *analysis.Report, top int) *output.Table {
	result := report.Ownership

	var rows [][]string
	for _, fo := range limit(result.Files, top) {
		silo := ""
		if fo.IsSilo {
			silo = "yes"
		}
		rows = append(rows, []string{
			fo.Path,
			fo.PrimaryOwner,
			fmt.Sprintf("%.1f%%", fo.OwnershipPercent),
			fmt.Sprintf("%d", len(fo.Contributors)),
			string(fo.Type),
			silo,
		})
	}

	sum := result.Summary
	return output.NewTable(
		fmt.Sprintf("File Ownership (%s)", report.Window),
		[]string{"File", "Owner", "Ownership", "Contributors", "Type", "Silo"},
		rows,
		[]string{
			fmt.Sprintf("Files: %d", sum.TotalFiles),
			fmt.Sprintf("Bus Factor: %d", sum.BusFactor),
			fmt.Sprintf("Avg Contributors: %.1f", sum.AvgContributors),
			"",
			"",
			fmt.Sprintf("Silos: %d", sum.SiloCount),
		},
		result,
	)
}
