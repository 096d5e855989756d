package logutils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/saveslots/internal/core/logging"
)

// Log output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// New returns a new logger writing to the specified file in the given format.
// If file is empty, logs are written to stderr. Events logged with a request
// context carry its request_id and remote fields.
//
// The level parameter can be one of: debug, info, warn, error, fatal.
// The format parameter is "json" (default when empty) or "console".
func New(level, file, format string) (zerolog.Logger, func(), error) {
	closer := func() {}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, closer, err
	}

	var writer io.Writer = os.Stderr
	if file != "" {
		logsDir := filepath.Dir(file)
		if err := os.MkdirAll(logsDir, 0o755); err != nil {
			return zerolog.Logger{}, closer, fmt.Errorf("create logs dir: %w", err)
		}

		osFile, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Logger{}, closer, err
		}
		closer = func() { _ = osFile.Close() }
		writer = osFile
	}

	switch format {
	case "", FormatJSON:
	case FormatConsole:
		writer = zerolog.ConsoleWriter{
			Out:        writer,
			TimeFormat: time.Kitchen,
			NoColor:    file != "",
		}
	default:
		closer()
		return zerolog.Logger{}, func() {}, fmt.Errorf("unknown log format %q", format)
	}

	l := zerolog.New(writer).
		With().
		Timestamp().
		Logger().
		Level(lvl).
		Hook(logging.ContextHook{})

	return l, closer, nil
}
