package main

import (
	"fmt"

	"github.com/panbanda/gitpulse/internal/output"
	"github.com/panbanda/gitpulse/internal/progress"
	"github.com/urfave/cli/v2"
)

func contributorsCmd() *cli.Command {
	return &cli.Command{
		Name:      "contributors",
		Usage:     "List commit counts per author",
		ArgsUsage: "[path]",
		Flags:     historyFlags(),
		Action:    runContributorsCmd,
	}
}

func runContributorsCmd(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.Close()

	opts, err := windowOptions(c)
	if err != nil {
		return err
	}
	window, err := s.service.ResolveWindow(opts)
	if err != nil {
		return err
	}
	spinner := progress.NewSpinner("Reading contributors...")
	contributors, err := s.service.Contributors(c.Context, window)
	if err != nil {
		spinner.FinishError(err)
		return err
	}
	spinner.Finish()

	total := 0
	var rows [][]string
	for _, ct := range contributors {
		total += ct.Commits
	}
	for _, ct := range limit(contributors, s.top) {
		rows = append(rows, []string{ct.Name, ct.Email, fmt.Sprintf("%d", ct.Commits)})
	}

	return s.formatter.Output(output.NewTable(
		fmt.Sprintf("Contributors (%s)", window),
		[]string{"Name", "Email", "Commits"},
		rows,
		[]string{fmt.Sprintf("Authors: %d", len(contributors)), "", fmt.Sprintf("Commits: %d", total)},
		contributors,
	))
}
