package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/pluggit/internal/manager"
	"github.com/colonyops/pluggit/internal/pluggit"
)

type EnableCmd struct {
	flags *Flags
	app   *pluggit.App
}

// NewEnableCmd creates a new enable command
func NewEnableCmd(flags *Flags, app *pluggit.App) *EnableCmd {
	return &EnableCmd{flags: flags, app: app}
}

// Register adds the enable and disable commands to the application
func (cmd *EnableCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "enable",
			Usage:     "Enable an installed plugin",
			UsageText: "pluggit enable <plugin>",
			Action: func(ctx context.Context, c *cli.Command) error {
				return cmd.setEnabled(c, true)
			},
		},
		&cli.Command{
			Name:      "disable",
			Usage:     "Disable an installed plugin",
			UsageText: "pluggit disable <plugin>",
			Action: func(ctx context.Context, c *cli.Command) error {
				return cmd.setEnabled(c, false)
			},
		},
	)

	return app
}

func (cmd *EnableCmd) setEnabled(c *cli.Command, enabled bool) error {
	identifier := c.Args().First()
	if identifier == "" {
		return fmt.Errorf("missing plugin identifier")
	}

	p, ok := cmd.app.Manager.FindPlugin(identifier)
	if !ok {
		return fmt.Errorf("%w: %s", manager.ErrPluginNotFound, identifier)
	}

	var err error
	if enabled {
		err = cmd.app.Async.EnablePlugin(p)
	} else {
		err = cmd.app.Async.DisablePlugin(p)
	}
	if err != nil {
		return err
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	fmt.Fprintf(c.Root().Writer, "%s %s\n", p.ID, state)
	return nil
}
