package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

func newApp() *cli.App {
	return &cli.App{
		Name:    "gitpulse",
		Usage:   "Change-history analytics for git repositories",
		Version: version,
		Description: `gitpulse reads a repository's commit log and tags and reports how the
team delivers: commit types and sizes, file churn and ownership, files that
change together, reverts, deployment cadence and commit-to-deploy lead time.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"GITPULSE_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "text",
				Usage:   "Output format: text, json, yaml, markdown, toon",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log analyzer diagnostics to stderr",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Diagnostic log format: text, json",
			},
		},
		Commands: []*cli.Command{
			analyzeCmd(),
			classifyCmd(),
			sizeCmd(),
			churnCmd(),
			ownershipCmd(),
			couplingCmd(),
			revertsCmd(),
			deploymentsCmd(),
			leadtimeCmd(),
			contributorsCmd(),
			configCmd(),
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		color.Red("Error: %v", err)
		stop()
		os.Exit(1)
	}
}
