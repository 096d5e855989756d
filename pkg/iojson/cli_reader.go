package iojson

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// Input reads command input from the --file flag or stdin.
type Input struct {
	fileFlagValue string

	// Stdin overrides os.Stdin, for tests.
	Stdin io.Reader
}

func (in *Input) Flag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "file",
		Aliases:     []string{"f"},
		Usage:       "path to input file (reads from stdin if not provided)",
		Destination: &in.fileFlagValue,
	}
}

// Open returns the input stream. Reading from an interactive terminal is
// refused so commands don't hang waiting for input.
func (in *Input) Open() (io.ReadCloser, error) {
	if in.fileFlagValue != "" {
		f, err := os.Open(in.fileFlagValue)
		if err != nil {
			return nil, fmt.Errorf("open file: %w", err)
		}
		return f, nil
	}

	if in.Stdin != nil {
		return io.NopCloser(in.Stdin), nil
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, fmt.Errorf("no input provided (stdin is a terminal); use -f flag or pipe input")
	}
	return io.NopCloser(os.Stdin), nil
}

// ReadText returns the whole input as a string without interpreting it.
func (in *Input) ReadText() (string, error) {
	r, err := in.Open()
	if err != nil {
		return "", err
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(data), nil
}

// FileReader decodes JSON input into T.
type FileReader[T any] struct {
	Input
}

func (fr *FileReader[T]) Read() (T, error) {
	var input T

	r, err := fr.Open()
	if err != nil {
		return input, err
	}
	defer func() { _ = r.Close() }()

	if err := json.NewDecoder(r).Decode(&input); err != nil {
		return input, fmt.Errorf("decode JSON: %w", err)
	}

	return input, nil
}
