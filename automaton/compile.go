package automaton

import "github.com/coregx/rq/ast"

// Config controls compilation limits, mirroring the teacher's pattern of
// a small Config/DefaultConfig pair threaded through the meta engine.
type Config struct {
	// MaxStates caps the number of superstates subset construction may
	// produce before giving up with ErrQueryTooComplex.
	MaxStates int
}

// DefaultConfig returns the default compiler configuration: 128 states,
// spec.md §3's fixed NFA/DFA state ceiling.
func DefaultConfig() Config {
	return Config{MaxStates: MaxStates}
}

// Compile builds a DFA from a parsed query: spec.md §4.5's full pipeline,
// AST walk (buildNFA) followed by subset construction and minimization
// (buildDFA).
func Compile(query *ast.Query, cfg Config) (*DFA, error) {
	n, err := buildNFA(query)
	if err != nil {
		return nil, err
	}
	if cfg.MaxStates <= 0 {
		cfg.MaxStates = MaxStates
	}
	if len(n.states) > cfg.MaxStates {
		return nil, &CompileError{Err: ErrQueryTooComplex}
	}
	d, err := buildDFA(n, cfg.MaxStates)
	if err != nil {
		return nil, &CompileError{Err: err}
	}
	return d, nil
}

// CompileQuery parses and compiles query text in one step.
func CompileQuery(query string) (*DFA, error) {
	q, err := ast.ParseQuery(query)
	if err != nil {
		return nil, err
	}
	return Compile(q, DefaultConfig())
}
