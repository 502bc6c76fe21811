package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "releasewatch",
		Usage: "watch a file listing page and notify about newly published files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML/JSON configuration file",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "detect new files, prune old snapshots and send the log digest",
				Action: runAction,
			},
			{
				Name:   "check",
				Usage:  "run only the detection cycle",
				Action: checkAction,
			},
			{
				Name:   "digest",
				Usage:  "send the run-log digest if it is due",
				Action: digestAction,
			},
			{
				Name:  "prune",
				Usage: "delete snapshots older than the retention period",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Usage: "prune even when it is not the first day of the month"},
				},
				Action: pruneAction,
			},
			{
				Name:  "snapshots",
				Usage: "inspect stored snapshots",
				Subcommands: []*cli.Command{
					{
						Name:   "latest",
						Usage:  "print the newest snapshot as JSON",
						Action: latestSnapshotAction,
					},
					{
						Name:   "diff",
						Usage:  "show the filename changes between the two newest snapshots",
						Action: diffSnapshotsAction,
					},
				},
			},
		},
	}
}
