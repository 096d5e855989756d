package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/saveslots/internal/api"
	"github.com/colonyops/saveslots/internal/commands"
	"github.com/colonyops/saveslots/internal/core/config"
	"github.com/colonyops/saveslots/internal/saveslots"
	"github.com/colonyops/saveslots/internal/store/jsonfile"
	"github.com/colonyops/saveslots/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, buildInfo populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func buildInfo() api.BuildInfo {
	v, c, d := version, commit, date

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

	return api.BuildInfo{Version: v, Commit: c, Built: d}
}

func build() string {
	info := buildInfo()

	short := info.Commit
	if len(short) > 7 {
		short = short[:7]
	}

	return fmt.Sprintf("%s (%s) %s", info.Version, short, info.Built)
}

func main() {
	ctx := context.Background()

	var logCloser func()

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "saveslots",
		Usage:     "Save slot storage for the game",
		UsageText: "saveslots [global options] command [command options]",
		Description: `saveslots serves the game's static files and a small JSON API that keeps
one save document per numbered slot on disk.

Run 'saveslots' with no arguments to start the server.
The other commands read and write the same slot directory directly.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("SAVESLOTS_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to stderr)",
				Sources:     cli.EnvVars("SAVESLOTS_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "log-format",
				Usage:       "log format (json, console)",
				Sources:     cli.EnvVars("SAVESLOTS_LOG_FORMAT"),
				Value:       "json",
				Destination: &flags.LogFormat,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("SAVESLOTS_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("SAVESLOTS_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, closer, err := logutils.New(flags.LogLevel, flags.LogFile, flags.LogFormat)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			store, err := jsonfile.NewSlotStore(cfg.SavesDir())
			if err != nil {
				return ctx, fmt.Errorf("open save store: %w", err)
			}

			flags.Service = saveslots.NewService(store, log.Logger)

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	serveCmd := commands.NewServeCmd(flags, buildInfo())

	app = serveCmd.Register(app)
	app = commands.NewLsCmd(flags).Register(app)
	app = commands.NewGetCmd(flags).Register(app)
	app = commands.NewSaveCmd(flags).Register(app)
	app = commands.NewImportCmd(flags).Register(app)
	app = commands.NewExportCmd(flags).Register(app)
	app = commands.NewRmCmd(flags).Register(app)
	app = commands.NewConfigValidateCmd(flags).Register(app)

	// Register serve flags on root command
	app.Flags = append(app.Flags, serveCmd.Flags()...)

	// Serve is the default action when no subcommand is provided
	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'saveslots --help' for usage", c.Args().First())
		}
		return serveCmd.Run(ctx, c)
	}

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
