package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/pluggit/internal/manager"
	"github.com/colonyops/pluggit/internal/pluggit"
	"github.com/colonyops/pluggit/internal/resolve"
)

type SwitchCmd struct {
	flags *Flags
	app   *pluggit.App
}

// NewSwitchCmd creates a new switch command
func NewSwitchCmd(flags *Flags, app *pluggit.App) *SwitchCmd {
	return &SwitchCmd{flags: flags, app: app}
}

// Register adds the switch command to the application
func (cmd *SwitchCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "switch",
		Usage:     "Switch a plugin to a different ref",
		UsageText: "pluggit switch <plugin> <ref>",
		Description: `Checks out a tag, branch, or commit in the plugin's repository.
Refuses to switch when the working tree has uncommitted changes.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *SwitchCmd) run(ctx context.Context, c *cli.Command) error {
	identifier := c.Args().Get(0)
	refName := c.Args().Get(1)
	if identifier == "" || refName == "" {
		return fmt.Errorf("expected a plugin and a ref. Run 'pluggit switch --help' for usage")
	}

	p, ok := cmd.app.Manager.FindPlugin(identifier)
	if !ok {
		return fmt.Errorf("%w: %s", manager.ErrPluginNotFound, identifier)
	}

	if err := cmd.app.Async.SwitchRef(ctx, p, resolve.Name(refName)); err != nil {
		return fmt.Errorf("switch %s to %s: %w", p.ID, refName, err)
	}

	fmt.Fprintf(c.Root().Writer, "%s now at %s\n", p.ID, p.Ref)
	return nil
}
