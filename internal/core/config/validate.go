package config

import (
	"fmt"
	"net"
	"os"

	"github.com/hay-kot/criterio"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// ValidateDeep performs comprehensive validation of the configuration
// including listen address syntax and file accessibility. The configPath
// argument specifies the config file location to validate (empty string
// skips config file check).
// This calls Validate() first for basic structural validation, then adds I/O checks.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		c.validateFileAccess(configPath),
		criterio.Run("server.addr", c.Server.Addr, listenAddr),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if c.Server.StaticDir == "" {
		warnings = append(warnings, ValidationWarning{
			Category: "Server",
			Item:     "static_dir",
			Message:  "no static directory configured, only the API will be served",
		})
	} else if _, err := os.Stat(c.Server.StaticDir); os.IsNotExist(err) {
		warnings = append(warnings, ValidationWarning{
			Category: "Server",
			Item:     "static_dir",
			Message:  fmt.Sprintf("%s does not exist, game assets will 404", c.Server.StaticDir),
		})
	}

	if c.Server.Debug {
		warnings = append(warnings, ValidationWarning{
			Category: "Server",
			Item:     "debug",
			Message:  "pprof endpoints are exposed on the public listener",
		})
	}

	return warnings
}

// validateFileAccess checks config file, save directory, and static directory.
func (c *Config) validateFileAccess(configPath string) error {
	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("saves.dir", c.SavesDir(), isDirectoryOrNotExist),
		criterio.Run("server.static_dir", c.Server.StaticDir, isDirectoryOrNotExist),
	)
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// listenAddr validates a host:port listen address.
func listenAddr(addr string) error {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}
