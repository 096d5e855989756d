package commands

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/saveslots/internal/api"
	"github.com/colonyops/saveslots/internal/core/logging"
	"github.com/colonyops/saveslots/internal/store/jsonfile"
)

type ServeCmd struct {
	flags *Flags
	build api.BuildInfo

	// flags
	addr string
}

// NewServeCmd creates a new serve command
func NewServeCmd(flags *Flags, build api.BuildInfo) *ServeCmd {
	return &ServeCmd{flags: flags, build: build}
}

// Flags returns the serve flags. They are also registered on the root
// command since serve is the default action.
func (cmd *ServeCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "listen address, overrides server.addr",
			Sources:     cli.EnvVars("SAVESLOTS_ADDR"),
			Destination: &cmd.addr,
		},
	}
}

// Register adds the serve command to the application
func (cmd *ServeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "serve",
		Usage:     "Serve the game and the save API",
		UsageText: "saveslots serve [--addr host:port]",
		Description: `Starts the HTTP server: static game files at /, the save API under /api,
health at /healthz and Prometheus metrics at /metrics.

Runs until interrupted. In-flight requests get server.shutdown_timeout to finish.`,
		Flags:  cmd.Flags(),
		Action: cmd.Run,
	})

	return app
}

// Run starts the server and blocks until SIGINT or SIGTERM.
func (cmd *ServeCmd) Run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config

	addr := cfg.Server.Addr
	if cmd.addr != "" {
		addr = cmd.addr
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Saves.Watch {
		watcher, err := jsonfile.NewSlotWatcher(cfg.SavesDir(), logging.Component("watcher"))
		if err != nil {
			return fmt.Errorf("watch saves: %w", err)
		}
		defer func() { _ = watcher.Close() }()

		go cmd.flags.Service.TrackChanges(watcher.Watch(ctx))
	}

	srv := api.NewServer(log.Logger, cmd.flags.Service, api.ServerConfig{
		StaticDir:       cfg.Server.StaticDir,
		RequestLogging:  cfg.Server.RequestLogging,
		Debug:           cfg.Server.Debug,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Build:           cmd.build,
	})

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	log.Info().
		Str("saves_dir", cfg.SavesDir()).
		Str("static_dir", cfg.Server.StaticDir).
		Msg("serving saves")

	return srv.Start(ctx, ln)
}
