package automaton

// LabelKind distinguishes the shape of a compiled transition label.
// Array-index selectors and slices are handled as synthetic labels
// distinct from object member names (spec.md §4.5's "Array-index
// selectors are handled as synthetic labels [i]").
type LabelKind int

const (
	// LabelWildcard matches any concrete label at all (AnyChild/
	// AnyDescendant).
	LabelWildcard LabelKind = iota
	// LabelName matches a single object member name exactly.
	LabelName
	// LabelIndex matches a single array index exactly.
	LabelIndex
	// LabelSlice matches any array index within a start:end:step range,
	// the "bounded set of index transitions" spec.md §4.5 describes a
	// slice decomposing into — rq tests slice membership directly
	// instead of enumerating one synthetic label per index, since the
	// bound (array length) isn't known until the array is scanned.
	LabelSlice
)

// Label is a compiled transition label: the thing an nfaState fires on.
type Label struct {
	Kind LabelKind

	Name  string // LabelName
	Index int    // LabelIndex

	SliceStart *int // LabelSlice, nil means unbounded below
	SliceEnd   *int // LabelSlice, nil means unbounded above
	SliceStep  int  // LabelSlice, always nonzero
}

func wildcardLabel() Label { return Label{Kind: LabelWildcard} }

func nameLabel(name string) Label { return Label{Kind: LabelName, Name: name} }

func indexLabel(i int) Label { return Label{Kind: LabelIndex, Index: i} }

func sliceLabel(start, end *int, step int) Label {
	return Label{Kind: LabelSlice, SliceStart: start, SliceEnd: end, SliceStep: step}
}

// Equal reports whether two labels are the compiled-time same label
// (used to dedup transition entries during subset construction, spec.md
// §4.5: "When two labelled transitions share the same target, they are
// kept as separate entries" — dedup here is about recognizing the SAME
// label reappearing across states in a superstate, not merging targets).
func (l Label) Equal(other Label) bool {
	if l.Kind != other.Kind {
		return false
	}
	switch l.Kind {
	case LabelName:
		return l.Name == other.Name
	case LabelIndex:
		return l.Index == other.Index
	case LabelSlice:
		return optIntEqual(l.SliceStart, other.SliceStart) &&
			optIntEqual(l.SliceEnd, other.SliceEnd) &&
			l.SliceStep == other.SliceStep
	default:
		return true // two wildcards are the same label
	}
}

func optIntEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// ActualLabel is the concrete label the execution engine observes in the
// input: either an object member name or an array element index.
type ActualLabel struct {
	IsIndex bool
	Name    string
	Index   int
}

// Matches reports whether l fires on the observed actual label. Wildcard
// labels match everything; name labels match only member names; index
// and slice labels match only array indices.
func (l Label) Matches(actual ActualLabel) bool {
	switch l.Kind {
	case LabelWildcard:
		return true
	case LabelName:
		return !actual.IsIndex && actual.Name == l.Name
	case LabelIndex:
		return actual.IsIndex && actual.Index == l.Index
	case LabelSlice:
		if !actual.IsIndex {
			return false
		}
		i := actual.Index
		if l.SliceStart != nil && i < *l.SliceStart {
			return false
		}
		if l.SliceEnd != nil && i >= *l.SliceEnd {
			return false
		}
		step := l.SliceStep
		if step <= 0 {
			step = 1
		}
		base := 0
		if l.SliceStart != nil {
			base = *l.SliceStart
		}
		return (i-base)%step == 0
	default:
		return false
	}
}
