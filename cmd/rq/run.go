package main

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/coregx/rq/automaton"
	"github.com/coregx/rq/engine"
	"github.com/coregx/rq/sink"
)

func run(cfg *cliConfig, args []string) error {
	return runTo(cfg, args, os.Stdout)
}

// runTo is run's testable core: it takes the stdout writer as a
// parameter instead of reaching for os.Stdout directly, so tests can
// assert on the rendered output without touching the real process
// streams.
func runTo(cfg *cliConfig, args []string, stdout io.Writer) error {
	if err := cfg.validate(); err != nil {
		return err
	}

	logger := newLogger(cfg.Verbose)
	defer logger.Sync() //nolint:errcheck // best-effort flush on exit

	query := args[0]

	logger.Debug("compiling query", zap.String("query", query))
	dfa, err := automaton.CompileQuery(query)
	if err != nil {
		return err
	}
	logger.Debug("compiled", zap.Int("states", dfa.NumStates()))

	doc, err := readInput(cfg, args, logger)
	if err != nil {
		return err
	}

	snk, result := newSinkForMode(cfg.Mode)

	eng := engine.New(dfa, engine.DefaultConfig())
	if err := eng.Run(doc, snk); err != nil {
		return err
	}

	return result.print(stdout)
}

// readInput resolves the document bytes per --input, following
// magicschema's "-" means stdin convention for the one-positional-arg
// case and extending it with an explicit auto/file/stdin switch.
func readInput(cfg *cliConfig, args []string, logger *zap.Logger) ([]byte, error) {
	hasFile := len(args) > 1 && args[1] != "-"

	switch cfg.Input {
	case "stdin":
		logger.Debug("reading document from stdin")
		return io.ReadAll(os.Stdin)
	case "file":
		if !hasFile {
			return nil, fmt.Errorf("--input=file requires a FILE argument")
		}
		logger.Debug("reading document from file", zap.String("path", args[1]))
		return os.ReadFile(args[1])
	default: // "auto"
		if hasFile {
			logger.Debug("reading document from file", zap.String("path", args[1]))
			return os.ReadFile(args[1])
		}
		logger.Debug("reading document from stdin")
		return io.ReadAll(os.Stdin)
	}
}

// resultPrinter renders whatever the chosen sink accumulated, once the
// run completes, to the given writer.
type resultPrinter interface {
	print(w io.Writer) error
}

func newSinkForMode(mode string) (sink.Sink, resultPrinter) {
	if mode == "count" {
		s := sink.NewCountingSink()
		return s, countPrinter{s}
	}
	s := sink.NewCollectingSink()
	return s, bytesPrinter{s}
}

type countPrinter struct{ s *sink.CountingSink }

func (p countPrinter) print(w io.Writer) error {
	_, err := fmt.Fprintln(w, p.s.Count)
	return err
}

type bytesPrinter struct{ s *sink.CollectingSink }

func (p bytesPrinter) print(w io.Writer) error {
	for _, m := range p.s.Matches {
		if _, err := fmt.Fprintf(w, "%d\t%d\t%s\n", m.Start, m.End, m.NodeType); err != nil {
			return err
		}
	}
	return nil
}
