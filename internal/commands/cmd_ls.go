package commands

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/pluggit/internal/manager"
	"github.com/colonyops/pluggit/internal/pluggit"
)

type LsCmd struct {
	flags *Flags
	app   *pluggit.App
}

// NewLsCmd creates a new ls command
func NewLsCmd(flags *Flags, app *pluggit.App) *LsCmd {
	return &LsCmd{flags: flags, app: app}
}

// Register adds the ls command to the application
func (cmd *LsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "ls",
		Usage:       "List installed plugins",
		UsageText:   "pluggit ls",
		Description: `Displays a table of installed plugins with their current ref and state.`,
		Action:      cmd.run,
	})

	return app
}

func (cmd *LsCmd) run(ctx context.Context, c *cli.Command) error {
	plugins := cmd.app.Manager.Plugins()
	if len(plugins) == 0 {
		fmt.Fprintf(os.Stderr, "No plugins installed\n")
		return nil
	}

	sorted := make([]*manager.Plugin, len(plugins))
	copy(sorted, plugins)
	slices.SortFunc(sorted, func(a, b *manager.Plugin) int {
		return strings.Compare(a.ID, b.ID)
	})

	w := tabwriter.NewWriter(c.Root().Writer, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PLUGIN\tREF\tTYPE\tENABLED\tURL")
	for _, p := range sorted {
		enabled := "no"
		if p.Enabled {
			enabled = "yes"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Ref, p.Ref.Type(), enabled, p.URL)
	}
	return w.Flush()
}
