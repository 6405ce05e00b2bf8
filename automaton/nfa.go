package automaton

import "github.com/coregx/rq/ast"

// StateID indexes into an nfa's states slice, matching nfa.StateID's
// role in the teacher's Thompson-NFA package (StateID uint32 there; rq
// keeps it a plain int since the state count ceiling is 128, far below
// any representation concern).
type StateID int

// stateKind distinguishes direct selectors (one labelled transition, then
// gone) from recursive selectors (self-loop on every label, spec.md §3's
// NFA state set invariants: "recursive (descendant) states are
// self-looping on all transitions; direct (child) states have exactly
// one outgoing transition on their labelled or wildcard edge").
type stateKind int

const (
	kindDirect stateKind = iota
	kindRecursive
)

// nfaState is one compiled query step. Unlike a Thompson-construction
// NFA state (one state per character), rq's NFA has one state per query
// segment — spec.md §4.5 pipeline step 1 walks the AST directly into
// these coarse-grained states.
type nfaState struct {
	id     StateID
	kind   stateKind
	label  Label
	next   StateID
	accept bool
}

// nfa is the intermediate automaton built directly from a query, before
// subset construction collapses it into a DFA.
type nfa struct {
	states []nfaState
}

func (n *nfa) accepting(id StateID) bool { return n.states[id].accept }

// buildNFA walks query.Nodes (skipping the always-present Root) into one
// nfaState per segment, appending a terminal accepting state with no
// outgoing transitions (spec.md §4.5: "accepting state id is
// stateCount − 1").
func buildNFA(query *ast.Query) (*nfa, error) {
	var states []nfaState
	nodes := query.Nodes
	if len(nodes) == 0 {
		return nil, &CompileError{Err: ErrNotSupported}
	}
	if _, ok := nodes[0].(ast.Root); !ok {
		return nil, &CompileError{Err: ErrNotSupported}
	}
	nodes = nodes[1:]

	for i, n := range nodes {
		id := StateID(len(states))
		next := StateID(len(states) + 1) // the next segment, or the terminal accept state
		st := nfaState{id: id, next: next}
		switch v := n.(type) {
		case ast.Child:
			st.kind = kindDirect
			st.label = nameLabel(v.Name)
		case ast.Descendant:
			st.kind = kindRecursive
			st.label = nameLabel(v.Name)
		case ast.AnyChild:
			st.kind = kindDirect
			st.label = wildcardLabel()
		case ast.AnyDescendant:
			st.kind = kindRecursive
			st.label = wildcardLabel()
		case ast.ArrayIndex:
			st.label = indexLabel(v.Index)
			if v.Descendant {
				st.kind = kindRecursive
			} else {
				st.kind = kindDirect
			}
		case ast.Slice:
			if v.Step == 0 {
				return nil, &CompileError{NodeIdx: i + 1, Err: ErrNotSupported}
			}
			st.kind = kindDirect
			st.label = sliceLabel(v.Start, v.End, v.Step)
		default:
			return nil, &CompileError{NodeIdx: i + 1, Err: ErrNotSupported}
		}
		states = append(states, st)
	}

	acceptID := StateID(len(states))
	states = append(states, nfaState{id: acceptID, accept: true})
	return &nfa{states: states}, nil
}
