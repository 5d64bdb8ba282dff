package main

import (
	"fmt"

	"github.com/panbanda/gitpulse/internal/output"
	"github.com/panbanda/gitpulse/internal/service/analysis"
	"github.com/urfave/cli/v2"
)

func deploymentsCmd() *cli.Command {
	return &cli.Command{
		Name:      "deployments",
		Aliases:   []string{"deploys"},
		Usage:     "Detect deployments from release tags and merges to main",
		ArgsUsage: "[path]",
		Flags:     historyFlags(),
		Action:    runDeploymentsCmd,
	}
}

func runDeploymentsCmd(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := s.analyze(c, analysis.MetricDeployments)
	if err != nil {
		return err
	}
	return s.formatter.Output(deploymentsTable(report, s.top, s.colored()))
}

func deploymentsTable(report *analysis.Report, top int, colored bool) *output.Table {
	result := report.Deployments

	// most recent first
	deployments := result.Deployments
	var rows [][]string
	for i := len(deployments) - 1; i >= 0 && (top <= 0 || len(rows) < top); i-- {
		d := deployments[i]
		rows = append(rows, []string{
			formatDate(d.Timestamp),
			d.Timestamp.UTC().Weekday().String(),
			d.Identifier,
			string(d.Method),
			string(d.Type),
		})
	}

	freq, stab, q := result.Frequency, result.Stability, result.Quality
	return output.NewTable(
		fmt.Sprintf("Deployments (%s)", report.Window),
		[]string{"Date", "Weekday", "Deployment", "Method", "Type"},
		rows,
		[]string{
			fmt.Sprintf("Total: %d", result.Summary.TotalDeployments),
			fmt.Sprintf("%.2f/week (%s)", freq.PerWeek, freq.Category),
			output.SeverityColor(string(stab.Predictability), string(stab.Predictability), colored),
			fmt.Sprintf("Batch: %.1f", q.BatchSize),
			fmt.Sprintf("Last: %.1fd ago", freq.DaysSinceLast),
		},
		result,
	)
}
