package main

import (
	"encoding/json"
	"fmt"

	"github.com/aleister1102/releasewatch/internal/app"
	"github.com/aleister1102/releasewatch/internal/differ"
	"github.com/aleister1102/releasewatch/internal/service"
	"github.com/urfave/cli/v2"
)

// withApp bootstraps the application for one command and closes it afterwards.
func withApp(c *cli.Context, fn func(a *app.App, rt *app.Runtime) error) error {
	rt, err := app.Bootstrap(c.String("config"))
	if err != nil {
		return err
	}

	a, err := app.New(c.Context, rt)
	if err != nil {
		rt.Logger.Error().Err(err).Msg("Failed to initialize application")
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			rt.Logger.Warn().Err(err).Msg("Failed to close snapshot store")
		}
	}()

	return fn(a, rt)
}

func runAction(c *cli.Context) error {
	return withApp(c, func(a *app.App, rt *app.Runtime) error {
		// Cycle failures are already logged and mailed; the exit code stays 0.
		a.Run(c.Context)
		return nil
	})
}

func checkAction(c *cli.Context) error {
	return withApp(c, func(a *app.App, rt *app.Runtime) error {
		result := a.Check(c.Context)
		printCycleResult(c, result)
		return nil
	})
}

func digestAction(c *cli.Context) error {
	return withApp(c, func(a *app.App, rt *app.Runtime) error {
		outcome := a.Digest(c.Context)
		if !outcome.OK() {
			return cli.Exit(fmt.Sprintf("log digest failed: %s", outcome.Reason), 1)
		}
		return nil
	})
}

func pruneAction(c *cli.Context) error {
	return withApp(c, func(a *app.App, rt *app.Runtime) error {
		deleted, err := a.Prune(c.Context, c.Bool("force"))
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "deleted %d snapshot(s)\n", deleted)
		return nil
	})
}

func latestSnapshotAction(c *cli.Context) error {
	return withApp(c, func(a *app.App, rt *app.Runtime) error {
		latest, err := a.Store().Latest(c.Context)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(latest)
	})
}

func diffSnapshotsAction(c *cli.Context) error {
	return withApp(c, func(a *app.App, rt *app.Runtime) error {
		snapshots, err := a.Store().List(c.Context, 2)
		if err != nil {
			return err
		}
		if len(snapshots) < 2 {
			fmt.Fprintln(c.App.Writer, "fewer than two snapshots stored")
			return nil
		}

		diff := differ.DiffListings(snapshots[1].Files, snapshots[0].Files)
		fmt.Fprintf(c.App.Writer, "%s -> %s\n", snapshots[1].ScanDate, snapshots[0].ScanDate)
		if diff.IsEmpty() {
			fmt.Fprintln(c.App.Writer, "no changes")
			return nil
		}
		fmt.Fprintln(c.App.Writer, diff.String())
		return nil
	})
}

func printCycleResult(c *cli.Context, result service.CycleResult) {
	if !result.OK() {
		fmt.Fprintf(c.App.Writer, "cycle failed (%s): %v\n", result.Kind, result.Err)
		return
	}
	fmt.Fprintf(c.App.Writer, "fetched %d file(s), %d new\n", result.Fetched, len(result.NewFiles))
	for _, f := range result.NewFiles {
		fmt.Fprintf(c.App.Writer, "  %s  %s  %s\n", f.Date, f.Filename, f.URL)
	}
}
