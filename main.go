package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/pluggit/internal/commands"
	"github.com/colonyops/pluggit/internal/core/config"
	"github.com/colonyops/pluggit/internal/core/git"
	"github.com/colonyops/pluggit/internal/manager"
	"github.com/colonyops/pluggit/internal/pluggit"
	"github.com/colonyops/pluggit/internal/refscache"
	"github.com/colonyops/pluggit/pkg/executil"
	"github.com/colonyops/pluggit/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var logCloser func()

	pluggitApp := &pluggit.App{}
	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "pluggit",
		Usage:     "Install and update git-hosted plugins",
		UsageText: "pluggit [global options] command [command options]",
		Description: `Pluggit manages plugins distributed as git repositories.

It installs plugins from remote URLs or local paths, tracks the tag, branch,
or commit each one is checked out at, and resolves version tags against each
plugin's versioning scheme. Remote ref listings are cached on disk so repeat
operations stay off the network.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("PLUGGIT_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/pluggit.log)",
				Sources:     cli.EnvVars("PLUGGIT_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("PLUGGIT_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("PLUGGIT_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// Always log to a file; use explicit path or default to <datadir>/pluggit.log
			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "pluggit.log")
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}

			cache := refscache.New(cfg.CachePath(), refscache.Options{TTL: cfg.Cache.TTL()})

			registry, err := manager.LoadRegistry(cfg.Registry, cfg.CachePath())
			if err != nil {
				return ctx, fmt.Errorf("load registry: %w", err)
			}

			var (
				exec    = &executil.RealExecutor{}
				backend = git.NewExecutor(cfg.GitPath, exec)
			)

			mgr := manager.New(cfg, registry, cache, backend)
			if err := mgr.LoadPlugins(); err != nil {
				return ctx, fmt.Errorf("load plugins: %w", err)
			}

			// Populate the pre-allocated App struct (commands already hold a pointer to it)
			*pluggitApp = *pluggit.NewApp(cfg, registry, cache, mgr)

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			// Close log file
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	app = commands.NewInstallCmd(flags, pluggitApp).Register(app)
	app = commands.NewUninstallCmd(flags, pluggitApp).Register(app)
	app = commands.NewLsCmd(flags, pluggitApp).Register(app)
	app = commands.NewSwitchCmd(flags, pluggitApp).Register(app)
	app = commands.NewUpdateCmd(flags, pluggitApp).Register(app)
	app = commands.NewRefsCmd(flags, pluggitApp).Register(app)
	app = commands.NewEnableCmd(flags, pluggitApp).Register(app)
	app = commands.NewCacheCmd(flags, pluggitApp).Register(app)

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
