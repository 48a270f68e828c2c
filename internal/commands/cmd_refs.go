package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/pluggit/internal/manager"
	"github.com/colonyops/pluggit/internal/pluggit"
)

type RefsCmd struct {
	flags *Flags
	app   *pluggit.App
}

// NewRefsCmd creates a new refs command
func NewRefsCmd(flags *Flags, app *pluggit.App) *RefsCmd {
	return &RefsCmd{flags: flags, app: app}
}

// Register adds the refs command to the application
func (cmd *RefsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "refs",
		Usage:     "Show version tags known for a plugin",
		UsageText: "pluggit refs <plugin>",
		Description: `Lists the version tags matching the plugin's versioning scheme,
newest first. Served from the refs cache when fresh; an expired cache is
used as a fallback when the remote is unreachable.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *RefsCmd) run(ctx context.Context, c *cli.Command) error {
	identifier := c.Args().First()
	if identifier == "" {
		return fmt.Errorf("missing plugin identifier. Run 'pluggit refs --help' for usage")
	}

	url := identifier
	scheme := ""
	if p, ok := cmd.app.Manager.FindPlugin(identifier); ok {
		url = p.URL
	}
	for _, rp := range cmd.app.Registry.ListPlugins() {
		if rp.Name == identifier || rp.GitURL == url {
			url = rp.GitURL
			scheme = rp.VersioningScheme
			break
		}
	}
	if scheme == "" {
		return fmt.Errorf("%w: no versioning scheme for %s", manager.ErrPluginNotFound, identifier)
	}

	tags, err := cmd.app.Manager.VersionTags(ctx, url, scheme)
	if err != nil {
		return fmt.Errorf("list version tags: %w", err)
	}

	out := c.Root().Writer
	for _, tag := range tags {
		fmt.Fprintln(out, tag)
	}
	return nil
}
