package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/panbanda/gitpulse/internal/output"
	"github.com/panbanda/gitpulse/internal/service/analysis"
	"github.com/urfave/cli/v2"
)

func churnCmd() *cli.Command {
	return &cli.Command{
		Name:      "churn",
		Usage:     "Analyze git commit history for file churn",
		ArgsUsage: "[path]",
		Flags:     historyFlags(),
		Action:    runChurnCmd,
	}
}

func runChurnCmd(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := s.analyze(c, analysis.MetricChurn)
	if err != nil {
		return err
	}
	return s.formatter.Output(churnTable(report, s.top, s.colored()))
}

func churnTable(report *analysis.Report, top int, colored bool) *output.Table {
	result := report.Churn

	var rows [][]string
	for _, fs := range limit(result.Files, top) {
		scoreStr := fmt.Sprintf("%.2f", fs.ChurnScore)
		if colored {
			if fs.ChurnScore >= 0.8 {
				scoreStr = color.RedString(scoreStr)
			} else if fs.ChurnScore >= 0.5 {
				scoreStr = color.YellowString(scoreStr)
			}
		}

		rows = append(rows, []string{
			fs.Path,
			fmt.Sprintf("%d", fs.Commits),
			fmt.Sprintf("%d", len(fs.Authors)),
			fmt.Sprintf("+%d/-%d", fs.Additions, fs.Deletions),
			output.SeverityColor(string(fs.Category), string(fs.Category), colored),
			scoreStr,
		})
	}

	sum := result.Summary
	return output.NewTable(
		fmt.Sprintf("File Churn (%s)", report.Window),
		[]string{"File", "Commits", "Authors", "Lines Changed", "Category", "Churn Score"},
		rows,
		[]string{
			fmt.Sprintf("Total Files: %d", sum.TotalFilesChanged),
			fmt.Sprintf("File Changes: %d", sum.TotalFileChanges),
			fmt.Sprintf("Authors: %d", len(sum.AuthorContributions)),
			fmt.Sprintf("Hotspots: %d", len(sum.HotspotFiles)),
			"",
			fmt.Sprintf("Max: %.2f", sum.MaxChurnScore),
		},
		result,
	)
}
