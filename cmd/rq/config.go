package main

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"
)

// cliConfig holds the flag values for a single invocation, following the
// magicschema/evalaf pattern of one struct bound directly to pflag.
type cliConfig struct {
	Mode    string
	Input   string
	Engine  string
	Verbose bool
}

// ErrUnknownMode and ErrUnknownInputMode are raised by validate when a
// flag's value is not one of the documented choices.
var (
	ErrUnknownMode      = errors.New("unknown --mode value")
	ErrUnknownInputMode = errors.New("unknown --input value")
)

func newCLIConfig() *cliConfig {
	return &cliConfig{
		Mode:   "bytes",
		Input:  "auto",
		Engine: "default",
	}
}

func (c *cliConfig) registerFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.Mode, "mode", "m", c.Mode, "result mode: bytes|count")
	fs.StringVarP(&c.Input, "input", "i", c.Input, "input source: auto|file|stdin")
	fs.StringVar(&c.Engine, "engine", c.Engine, "execution engine (reserved for future multi-strategy dispatch)")
	fs.BoolVarP(&c.Verbose, "verbose", "v", c.Verbose, "log diagnostics to stderr")
}

func (c *cliConfig) validate() error {
	switch c.Mode {
	case "bytes", "count":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, c.Mode)
	}
	switch c.Input {
	case "auto", "file", "stdin":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownInputMode, c.Input)
	}
	return nil
}
