package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/saveslots/pkg/iojson"
)

type LsCmd struct {
	flags *Flags

	// flags
	jsonOutput bool
}

// NewLsCmd creates a new ls command
func NewLsCmd(flags *Flags) *LsCmd {
	return &LsCmd{flags: flags}
}

// Register adds the ls command to the application
func (cmd *LsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "ls",
		Usage:     "List save slots",
		UsageText: "saveslots ls [--json]",
		Description: `Displays a table of saved slots with their display name and save time.

Slot files that cannot be parsed are left out and reported on stderr.
Use --json to print one summary per line.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *LsCmd) run(ctx context.Context, c *cli.Command) error {
	result, err := cmd.flags.Service.List(ctx)
	if err != nil {
		return fmt.Errorf("list saves: %w", err)
	}

	out := c.Root().Writer
	errOut := c.Root().ErrWriter
	if errOut == nil {
		errOut = os.Stderr
	}

	if result.Skipped > 0 {
		_, _ = fmt.Fprintf(errOut, "Skipped %d unreadable slot file(s)\n", result.Skipped)
	}

	if len(result.Saves) == 0 {
		if !cmd.jsonOutput {
			_, _ = fmt.Fprintln(errOut, "No saves found")
		}
		return nil
	}

	if cmd.jsonOutput {
		for _, s := range result.Saves {
			if err := iojson.WriteLine(out, s); err != nil {
				return fmt.Errorf("encode save: %w", err)
			}
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tTIME")
	for _, s := range result.Saves {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", s.ID, displayField(s.Meta, "name"), displayValue(s.Time))
	}
	return w.Flush()
}

// displayField pulls a string field out of a JSON object for table output.
func displayField(obj json.RawMessage, key string) string {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(obj, &m); err != nil {
		return "-"
	}
	return displayValue(m[key])
}

func displayValue(v json.RawMessage) string {
	if len(v) == 0 || string(v) == "null" {
		return "-"
	}

	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return string(v)
}
