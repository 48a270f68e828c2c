package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/pluggit/internal/manager"
	"github.com/colonyops/pluggit/internal/pluggit"
)

type UpdateCmd struct {
	flags *Flags
	app   *pluggit.App

	// flags
	checkOnly bool
}

// NewUpdateCmd creates a new update command
func NewUpdateCmd(flags *Flags, app *pluggit.App) *UpdateCmd {
	return &UpdateCmd{flags: flags, app: app}
}

// Register adds the update command to the application
func (cmd *UpdateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "update",
		Usage:     "Update plugins to their latest refs",
		UsageText: "pluggit update [plugin] [--check]",
		Description: `Updates one plugin, or all plugins when no argument is given.

Plugins installed from a version tag move to the newest tag matching their
versioning scheme; branch installations fast-forward. Commit-pinned plugins
are skipped.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "check",
				Usage:       "only report available updates, do not install",
				Destination: &cmd.checkOnly,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *UpdateCmd) run(ctx context.Context, c *cli.Command) error {
	out := c.Root().Writer

	if cmd.checkOnly {
		updates := cmd.app.Manager.CheckUpdates(ctx)
		if len(updates) == 0 {
			fmt.Fprintln(out, "All plugins up to date")
			return nil
		}
		for id, check := range updates {
			fmt.Fprintf(out, "%s: %s -> %s\n", id, check.OldRef, check.NewRef)
		}
		return nil
	}

	targets := cmd.app.Manager.Plugins()
	if id := c.Args().First(); id != "" {
		p, ok := cmd.app.Manager.FindPlugin(id)
		if !ok {
			return fmt.Errorf("%w: %s", manager.ErrPluginNotFound, id)
		}
		targets = []*manager.Plugin{p}
	}

	for _, p := range targets {
		result, err := cmd.app.Async.UpdatePlugin(ctx, p)
		switch {
		case errors.Is(err, manager.ErrCommitPinned):
			fmt.Fprintf(out, "%s: pinned to commit, skipped\n", p.ID)
		case err != nil:
			fmt.Fprintf(out, "%s: update failed: %v\n", p.ID, err)
		case result.Old.Equal(result.New):
			fmt.Fprintf(out, "%s: already up to date\n", p.ID)
		default:
			fmt.Fprintf(out, "%s: %s -> %s\n", p.ID, result.Old, result.New)
		}
	}
	return nil
}
