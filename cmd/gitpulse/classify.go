package main

import (
	"fmt"

	"github.com/panbanda/gitpulse/internal/output"
	"github.com/panbanda/gitpulse/internal/service/analysis"
	"github.com/panbanda/gitpulse/pkg/analyzer/classify"
	"github.com/urfave/cli/v2"
)

func classifyCmd() *cli.Command {
	return &cli.Command{
		Name:      "classify",
		Aliases:   []string{"types"},
		Usage:     "Classify commits as merge, bugfix, feature, maintenance or other",
		ArgsUsage: "[path]",
		Flags:     historyFlags(),
		Action:    runClassifyCmd,
	}
}

func runClassifyCmd(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := s.analyze(c, analysis.MetricClassify)
	if err != nil {
		return err
	}
	return s.formatter.Output(classifyTable(report))
}

func classifyTable(report *analysis.Report) *output.Table {
	result := report.Classification
	sum := result.Summary

	ratios := map[classify.Category]float64{
		classify.CategoryMerge:       sum.MergeRatio,
		classify.CategoryBugfix:      sum.BugfixRatio,
		classify.CategoryFeature:     sum.FeatureRatio,
		classify.CategoryMaintenance: sum.MaintenanceRatio,
		classify.CategoryOther:       sum.OtherRatio,
	}

	var rows [][]string
	for _, cat := range classify.Categories {
		rows = append(rows, []string{
			cat.String(),
			fmt.Sprintf("%d", sum.Count(cat)),
			fmt.Sprintf("%.2f%%", ratios[cat]),
		})
	}

	footer := []string{fmt.Sprintf("Total Commits: %d", sum.TotalCommits), "", fmt.Sprintf("Authors: %d", len(result.Authors))}

	return output.NewTable(
		fmt.Sprintf("Commit Types (%s)", report.Window),
		[]string{"Category", "Commits", "Share"},
		rows,
		footer,
		result,
	)
}
