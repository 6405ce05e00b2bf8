// Package sink implements the match sink contract of spec.md §4.7: a thin
// consumer the execution engine pushes match descriptors to, in strictly
// ascending document order.
package sink

// NodeType classifies what kind of JSON value a match span covers, set by
// the engine on every report (SPEC_FULL.md's domain-stack addition on top
// of spec.md's plain byte-span report).
type NodeType int

const (
	Unknown NodeType = iota
	Object
	Array
	String
	Number
	Boolean
	Null
)

func (t NodeType) String() string {
	switch t {
	case Object:
		return "object"
	case Array:
		return "array"
	case String:
		return "string"
	case Number:
		return "number"
	case Boolean:
		return "boolean"
	case Null:
		return "null"
	default:
		return "unknown"
	}
}

// MatchDescriptor is one reported match: the half-open byte span
// [Start, End) of the matched value, and what kind of value it is.
type MatchDescriptor struct {
	Start    int
	End      int
	NodeType NodeType
}

// Sink receives match descriptors from an engine run. AddMatch returning
// an error aborts the run; the engine wraps it in errs.SinkError.
type Sink interface {
	AddMatch(m MatchDescriptor) error
}

// CountingSink only counts matches; it never retains a match's span,
// suited for `rq --mode count`.
type CountingSink struct {
	Count int
}

// NewCountingSink returns a ready-to-use CountingSink.
func NewCountingSink() *CountingSink { return &CountingSink{} }

func (s *CountingSink) AddMatch(m MatchDescriptor) error {
	s.Count++
	return nil
}

// CollectingSink retains every match descriptor in order, suited for
// `rq --mode bytes` and for tests that need to assert on exact spans.
type CollectingSink struct {
	Matches []MatchDescriptor
}

// NewCollectingSink returns a ready-to-use CollectingSink.
func NewCollectingSink() *CollectingSink { return &CollectingSink{} }

func (s *CollectingSink) AddMatch(m MatchDescriptor) error {
	s.Matches = append(s.Matches, m)
	return nil
}
