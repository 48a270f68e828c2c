package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/pluggit/internal/pluggit"
	"github.com/colonyops/pluggit/internal/resolve"
)

type InstallCmd struct {
	flags *Flags
	app   *pluggit.App

	// flags
	ref string
}

// NewInstallCmd creates a new install command
func NewInstallCmd(flags *Flags, app *pluggit.App) *InstallCmd {
	return &InstallCmd{flags: flags, app: app}
}

// Register adds the install command to the application
func (cmd *InstallCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "install",
		Usage:     "Install a plugin from a git URL or local path",
		UsageText: "pluggit install <url> [--ref <name>]",
		Description: `Clones the plugin repository and checks out a ref.

With no --ref, the newest version tag is chosen when the registry declares
a versioning scheme for the plugin; otherwise the default branch is kept.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "ref",
				Usage:       "tag, branch, or commit to install",
				Destination: &cmd.ref,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *InstallCmd) run(ctx context.Context, c *cli.Command) error {
	url := c.Args().First()
	if url == "" {
		return fmt.Errorf("missing plugin url. Run 'pluggit install --help' for usage")
	}

	var ref resolve.Param
	if cmd.ref != "" {
		ref = resolve.Name(cmd.ref)
	}

	p, err := cmd.app.Async.InstallPlugin(ctx, url, ref)
	if err != nil {
		return fmt.Errorf("install %s: %w", url, err)
	}

	fmt.Fprintf(c.Root().Writer, "Installed %s at %s\n", p.ID, p.Ref)
	return nil
}
