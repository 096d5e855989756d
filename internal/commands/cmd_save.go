package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/saveslots/pkg/iojson"
)

type SaveCmd struct {
	flags *Flags

	input iojson.FileReader[json.RawMessage]
}

// NewSaveCmd creates a new save command
func NewSaveCmd(flags *Flags) *SaveCmd {
	return &SaveCmd{flags: flags}
}

// Register adds the save command to the application
func (cmd *SaveCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "save",
		Usage:     "Write a JSON document to a slot",
		UsageText: "saveslots save <slot> [-f file]",
		Description: `Reads a JSON document from a file or stdin and stores it in the slot,
replacing whatever was there.

Example:
  saveslots save 2 -f hero.json
  cat hero.json | saveslots save 2`,
		Flags: []cli.Flag{
			cmd.input.Flag(),
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *SaveCmd) run(ctx context.Context, c *cli.Command) error {
	id, err := slotArg(c)
	if err != nil {
		return err
	}

	doc, err := cmd.input.Read()
	if err != nil {
		return err
	}

	if err := cmd.flags.Service.Save(ctx, id, doc); err != nil {
		return fmt.Errorf("save slot %d: %w", id, err)
	}

	_, _ = fmt.Fprintf(c.Root().Writer, "saved slot %d\n", id)
	return nil
}
