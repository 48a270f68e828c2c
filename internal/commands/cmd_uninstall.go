package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/pluggit/internal/manager"
	"github.com/colonyops/pluggit/internal/pluggit"
)

type UninstallCmd struct {
	flags *Flags
	app   *pluggit.App
}

// NewUninstallCmd creates a new uninstall command
func NewUninstallCmd(flags *Flags, app *pluggit.App) *UninstallCmd {
	return &UninstallCmd{flags: flags, app: app}
}

// Register adds the uninstall command to the application
func (cmd *UninstallCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "uninstall",
		Usage:       "Remove an installed plugin",
		UsageText:   "pluggit uninstall <plugin>",
		Description: `Deletes the plugin's local checkout and metadata.`,
		Action:      cmd.run,
	})

	return app
}

func (cmd *UninstallCmd) run(ctx context.Context, c *cli.Command) error {
	identifier := c.Args().First()
	if identifier == "" {
		return fmt.Errorf("missing plugin identifier. Run 'pluggit uninstall --help' for usage")
	}

	p, ok := cmd.app.Manager.FindPlugin(identifier)
	if !ok {
		return fmt.Errorf("%w: %s", manager.ErrPluginNotFound, identifier)
	}

	if err := cmd.app.Manager.UninstallPlugin(p); err != nil {
		return fmt.Errorf("uninstall %s: %w", p.ID, err)
	}

	fmt.Fprintf(c.Root().Writer, "Uninstalled %s\n", p.ID)
	return nil
}
