package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

type RmCmd struct {
	flags *Flags
}

// NewRmCmd creates a new rm command
func NewRmCmd(flags *Flags) *RmCmd {
	return &RmCmd{flags: flags}
}

// Register adds the rm command to the application
func (cmd *RmCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "rm",
		Usage:       "Delete a save slot",
		UsageText:   "saveslots rm <slot>",
		Description: "Removes the slot file. Removing a slot that does not exist is not an error.",
		Action:      cmd.run,
	})

	return app
}

func (cmd *RmCmd) run(ctx context.Context, c *cli.Command) error {
	id, err := slotArg(c)
	if err != nil {
		return err
	}

	if err := cmd.flags.Service.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete slot %d: %w", id, err)
	}

	_, _ = fmt.Fprintf(c.Root().Writer, "deleted slot %d\n", id)
	return nil
}
