package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/saveslots/internal/core/config"
	"github.com/colonyops/saveslots/pkg/iojson"
)

type ConfigValidateCmd struct {
	flags  *Flags
	format string
}

// NewConfigValidateCmd creates a new config validate command.
func NewConfigValidateCmd(flags *Flags) *ConfigValidateCmd {
	return &ConfigValidateCmd{flags: flags}
}

// Register adds the config validate command to the application.
func (cmd *ConfigValidateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "saveslots config validate [options]",
				Description: "Validates the configuration file, checking the listen address and directory paths.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.run,
			},
		},
	})

	return app
}

type validationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (cmd *ConfigValidateCmd) run(ctx context.Context, c *cli.Command) error {
	errs := flattenErrors(cmd.flags.Config.ValidateDeep(cmd.flags.ConfigPath))
	warnings := cmd.flags.Config.Warnings()

	out := c.Root().Writer
	if cmd.format == "json" {
		if err := cmd.outputJSON(out, errs, warnings); err != nil {
			return err
		}
	} else {
		cmd.outputText(out, errs, warnings)
	}

	if len(errs) > 0 {
		return fmt.Errorf("config %s is invalid", cmd.flags.ConfigPath)
	}
	return nil
}

func (cmd *ConfigValidateCmd) outputJSON(w io.Writer, errs []validationError, warnings []config.ValidationWarning) error {
	out := struct {
		Valid    bool                       `json:"valid"`
		Config   string                     `json:"config"`
		Errors   []validationError          `json:"errors,omitempty"`
		Warnings []config.ValidationWarning `json:"warnings,omitempty"`
	}{
		Valid:    len(errs) == 0,
		Config:   cmd.flags.ConfigPath,
		Errors:   errs,
		Warnings: warnings,
	}

	return iojson.WriteWith(w, w, out)
}

func (cmd *ConfigValidateCmd) outputText(w io.Writer, errs []validationError, warnings []config.ValidationWarning) {
	for _, warn := range warnings {
		_, _ = fmt.Fprintf(w, "warning: %s: %s\n", warn.Category, warn.Message)
		if warn.Item != "" {
			_, _ = fmt.Fprintf(w, "  Item: %s\n", warn.Item)
		}
	}

	for _, err := range errs {
		if err.Field != "" {
			_, _ = fmt.Fprintf(w, "error: %s: %s\n", err.Field, err.Message)
		} else {
			_, _ = fmt.Fprintf(w, "error: %s\n", err.Message)
		}
	}

	if len(errs) == 0 {
		_, _ = fmt.Fprintln(w, "Configuration is valid")
		return
	}
	_, _ = fmt.Fprintf(w, "%d error(s) found\n", len(errs))
}

// flattenErrors splits criterio field errors into one entry per field.
func flattenErrors(err error) []validationError {
	if err == nil {
		return nil
	}

	var fieldErrs criterio.FieldErrors
	if errors.As(err, &fieldErrs) {
		out := make([]validationError, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			out = append(out, validationError{Field: fe.Field, Message: fe.Err.Error()})
		}
		return out
	}

	return []validationError{{Message: err.Error()}}
}
