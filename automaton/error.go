package automaton

import (
	"errors"
	"fmt"
)

// Sentinel compiler errors, following the nfa/error.go convention of
// plain errors.New values for the common failure kinds.
var (
	// ErrQueryTooComplex is returned when the superstate bitmask would
	// need more than MaxStates bits, either during subset construction or
	// after minimization (spec.md §4.5's CompilerError::QueryTooComplex).
	ErrQueryTooComplex = errors.New("automaton: query too complex")

	// ErrNotSupported is returned when the AST contains a construct
	// outside the supported subset (spec.md §4.5, Non-goals).
	ErrNotSupported = errors.New("automaton: construct not supported")
)

// CompileError wraps a compiler failure with the query and node that
// triggered it, following nfa.CompileError's Pattern/Err shape (rq has no
// single "pattern string" at this layer, so query text plus a node index
// stand in for it).
type CompileError struct {
	Query   string
	NodeIdx int
	Err     error
}

func (e *CompileError) Error() string {
	if e.Query != "" {
		return fmt.Sprintf("automaton: compilation failed for query %q at node %d: %v", e.Query, e.NodeIdx, e.Err)
	}
	return fmt.Sprintf("automaton: compilation failed: %v", e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }
