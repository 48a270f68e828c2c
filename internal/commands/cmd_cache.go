package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/pluggit/internal/pluggit"
)

type CacheCmd struct {
	flags *Flags
	app   *pluggit.App
}

// NewCacheCmd creates a new cache command
func NewCacheCmd(flags *Flags, app *pluggit.App) *CacheCmd {
	return &CacheCmd{flags: flags, app: app}
}

// Register adds the cache command to the application
func (cmd *CacheCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "cache",
		Usage:     "Manage the refs cache",
		UsageText: "pluggit cache <clear|cleanup>",
		Commands: []*cli.Command{
			{
				Name:        "clear",
				Usage:       "Delete all cached ref data",
				Description: `Removes the cache file and resets the in-memory state.`,
				Action:      cmd.runClear,
			},
			{
				Name:   "cleanup",
				Usage:  "Drop cache entries for plugins no longer in the registry",
				Action: cmd.runCleanup,
			},
		},
	})

	return app
}

func (cmd *CacheCmd) runClear(ctx context.Context, c *cli.Command) error {
	cmd.app.Cache.ClearCache()
	fmt.Fprintln(c.Root().Writer, "Cache cleared")
	return nil
}

func (cmd *CacheCmd) runCleanup(ctx context.Context, c *cli.Command) error {
	known := make([]string, 0)
	for _, rp := range cmd.app.Registry.ListPlugins() {
		known = append(known, rp.GitURL)
	}
	for _, p := range cmd.app.Manager.Plugins() {
		known = append(known, p.URL)
	}
	cmd.app.Cache.CleanupCache(known)

	removed := 0
	for _, p := range cmd.app.Manager.Plugins() {
		removed += cmd.app.Cache.CleanupInvalidRefItems(p.UUID)
	}
	fmt.Fprintf(c.Root().Writer, "Cache cleanup done, removed %d invalid ref items\n", removed)
	return nil
}
