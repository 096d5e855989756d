package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/saveslots/internal/core/config"
	"github.com/colonyops/saveslots/internal/core/saves"
	"github.com/colonyops/saveslots/internal/saveslots"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	LogFormat  string
	ConfigPath string
	DataDir    string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config

	// Service is the save service backed by the slot directory
	Service *saveslots.Service
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "saveslots", "config.yaml")
}

// DefaultDataDir returns the default data directory using XDG_DATA_HOME.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "saveslots")
}

// slotArg parses the slot id given as the first positional argument.
func slotArg(c *cli.Command) (int, error) {
	if c.Args().Len() < 1 {
		return 0, fmt.Errorf("missing slot argument")
	}

	id, err := strconv.Atoi(c.Args().First())
	if err != nil {
		return 0, fmt.Errorf("slot %q: %w", c.Args().First(), saves.ErrInvalidSlot)
	}
	if err := saves.ValidateSlot(id); err != nil {
		return 0, fmt.Errorf("slot %d: %w", id, err)
	}
	return id, nil
}
