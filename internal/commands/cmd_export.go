package commands

import (
	"bytes"
	"context"
	"fmt"

	"github.com/natefinch/atomic"
	"github.com/urfave/cli/v3"
)

type ExportCmd struct {
	flags *Flags

	output string
}

// NewExportCmd creates a new export command
func NewExportCmd(flags *Flags) *ExportCmd {
	return &ExportCmd{flags: flags}
}

// Register adds the export command to the application
func (cmd *ExportCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "export",
		Usage:       "Export a slot as a pretty-printed JSON file",
		UsageText:   "saveslots export <slot> [-o file]",
		Description: "Writes the slot document indented with two spaces to stdout, or to the file given with -o.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "write to file instead of stdout",
				Destination: &cmd.output,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ExportCmd) run(ctx context.Context, c *cli.Command) error {
	id, err := slotArg(c)
	if err != nil {
		return err
	}

	doc, err := cmd.flags.Service.Export(ctx, id)
	if err != nil {
		return fmt.Errorf("export slot %d: %w", id, err)
	}

	if cmd.output == "" {
		_, err := c.Root().Writer.Write(doc)
		return err
	}

	if err := atomic.WriteFile(cmd.output, bytes.NewReader(doc)); err != nil {
		return fmt.Errorf("write %s: %w", cmd.output, err)
	}
	return nil
}
