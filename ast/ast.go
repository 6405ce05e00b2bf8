// Package ast holds the query AST the compiler consumes: the node shapes
// of spec.md §3's "Query AST". Surface JSONPath parsing is an external
// collaborator's job in the core's own contract, but this package also
// ships a minimal parser (see parse.go) so the CLI and tests have
// something to build queries from.
package ast

// Node is one step of a compiled query path. It is a marker interface:
// callers switch on the concrete type (Root, Child, Descendant, ...).
type Node interface {
	node()
}

// Root marks the start of the path: the whole document.
type Root struct{}

func (Root) node() {}

// Child selects the named member of the current object.
type Child struct {
	Name string
}

func (Child) node() {}

// Descendant selects the named member of the current value or of any
// value nested arbitrarily deep beneath it.
type Descendant struct {
	Name string
}

func (Descendant) node() {}

// AnyChild selects every member or element of the current container.
type AnyChild struct{}

func (AnyChild) node() {}

// AnyDescendant selects every value reachable from the current one,
// including the current value itself, at any depth.
type AnyDescendant struct{}

func (AnyDescendant) node() {}

// ArrayIndex selects a single array element. When Descendant is true the
// index is searched for at any depth rather than only in the current
// array.
type ArrayIndex struct {
	Index      int
	Descendant bool
}

func (ArrayIndex) node() {}

// Slice selects a range of array elements, Python-slice style. A nil
// bound means "unbounded in that direction"; Step defaults to 1 and may
// not be 0.
type Slice struct {
	Start *int
	End   *int
	Step  int
}

func (Slice) node() {}

// Query is an ordered path of Nodes, Root first.
type Query struct {
	Nodes []Node
}
