package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/saveslots/pkg/iojson"
)

type ImportCmd struct {
	flags *Flags

	input iojson.Input
}

// NewImportCmd creates a new import command
func NewImportCmd(flags *Flags) *ImportCmd {
	return &ImportCmd{flags: flags}
}

// Register adds the import command to the application
func (cmd *ImportCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "import",
		Usage:     "Import an exported save file into a slot",
		UsageText: "saveslots import <slot> [-f file]",
		Description: `Reads save text from a file or stdin, validates it as JSON and stores it.
Nothing is written when the text is not valid JSON.`,
		Flags: []cli.Flag{
			cmd.input.Flag(),
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ImportCmd) run(ctx context.Context, c *cli.Command) error {
	id, err := slotArg(c)
	if err != nil {
		return err
	}

	raw, err := cmd.input.ReadText()
	if err != nil {
		return err
	}

	if err := cmd.flags.Service.Import(ctx, id, raw); err != nil {
		return fmt.Errorf("import slot %d: %w", id, err)
	}

	_, _ = fmt.Fprintf(c.Root().Writer, "imported slot %d\n", id)
	return nil
}
