package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/saveslots/pkg/iojson"
)

type GetCmd struct {
	flags *Flags
}

// NewGetCmd creates a new get command
func NewGetCmd(flags *Flags) *GetCmd {
	return &GetCmd{flags: flags}
}

// Register adds the get command to the application
func (cmd *GetCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "get",
		Usage:       "Print the document stored in a slot",
		UsageText:   "saveslots get <slot>",
		Description: "Prints the stored save document as indented JSON.",
		Action:      cmd.run,
	})

	return app
}

func (cmd *GetCmd) run(ctx context.Context, c *cli.Command) error {
	id, err := slotArg(c)
	if err != nil {
		return err
	}

	doc, err := cmd.flags.Service.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get slot %d: %w", id, err)
	}

	return iojson.WriteRaw(c.Root().Writer, doc)
}
