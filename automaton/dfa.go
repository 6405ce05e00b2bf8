package automaton

import "sort"

// DFAState is the unique identifier of a minimized automaton state. 0 is
// always the start state.
type DFAState int

// transition is one compiled (label, target) pair, kept as a separate
// entry per spec.md §4.5's tie-break: "When two labelled transitions
// share the same target, they are kept as separate entries (constant
// -time lookup)".
type transition struct {
	label  Label
	target DFAState
}

// dfaNode is one state of the compiled automaton: its outgoing labelled
// transitions, its fallback (taken when no label fires), and whether it
// accepts.
type dfaNode struct {
	accepting   bool
	transitions []transition
	fallback    DFAState
}

// DFA is the compiled query automaton the execution engine drives.
// Immutable and safely shared across concurrent runs once built (spec.md
// §5: "the DFA is immutable and safely shareable between threads"),
// analogous to coregex's meta.Engine holding one read-only *lazy.DFA.
type DFA struct {
	nodes []dfaNode
}

// Start is always state 0.
func (d *DFA) Start() DFAState { return 0 }

// Accepting reports whether s is an accepting state.
func (d *DFA) Accepting(s DFAState) bool { return d.nodes[s].accepting }

// Step finds the transition from s on actual, falling back to s's
// fallback target when no labelled transition fires (spec.md §4.5's
// "fallback — used when no specific label fires").
func (d *DFA) Step(s DFAState, actual ActualLabel) DFAState {
	n := &d.nodes[s]
	for _, t := range n.transitions {
		if t.label.Matches(actual) {
			return t.target
		}
	}
	return n.fallback
}

// IsPureDescendantSearch reports whether s's fallback is itself and it
// has exactly one labelled outgoing transition — spec.md §4.6's
// head-skip trigger condition ("initial state's fallback = itself and it
// has exactly one labelled outgoing transition").
func (d *DFA) IsPureDescendantSearch(s DFAState) bool {
	n := &d.nodes[s]
	return n.fallback == s && len(n.transitions) == 1
}

// SoleLabel returns s's single outgoing transition label, valid only
// when IsPureDescendantSearch(s) is true.
func (d *DFA) SoleLabel(s DFAState) Label { return d.nodes[s].transitions[0].label }

// IsDead reports whether s is a true sink: non-accepting, with no
// outgoing labelled transition and a fallback to itself. No input from s
// can ever reach an accepting state again, which is exactly the
// condition the execution engine's tail-skip relies on to bypass an
// entire subtree (spec.md §4.6).
func (d *DFA) IsDead(s DFAState) bool {
	n := &d.nodes[s]
	return !n.accepting && n.fallback == s && len(n.transitions) == 0
}

// NumStates returns the number of minimized states, informative only.
func (d *DFA) NumStates() int { return len(d.nodes) }

// NameCandidates returns the Name-kind labels among s's outgoing
// transitions, in transition order — spec.md §4.6's "candidate labels of
// the current state's outgoing transitions" that the engine's
// member-name handling matches against with memmem instead of decoding
// every member name generically. Empty when s has no Name-kind
// transition (e.g. a pure array-index state).
func (d *DFA) NameCandidates(s DFAState) []string {
	n := &d.nodes[s]
	var names []string
	for _, t := range n.transitions {
		if t.label.Kind == LabelName {
			names = append(names, t.label.Name)
		}
	}
	return names
}

// subsetConstruct implements spec.md §4.5 pipeline step 2: start at
// {initial}, and for every reached superstate compute targets per
// distinct label plus the always-present fallback. maxStates is the
// caller's Config.MaxStates ceiling (a lower value than the package
// MaxStates constant is honored; 0 or negative falls back to it).
func subsetConstruct(n *nfa, maxStates int) ([]StateSet, [][]transition, []StateSet, error) {
	if maxStates <= 0 || maxStates > MaxStates {
		maxStates = MaxStates
	}
	start := setOf(0)

	var supersets []StateSet
	var rawTransitions [][]transition
	var fallbacks []StateSet
	index := map[StateSet]int{}

	intern := func(s StateSet) (int, bool) {
		if id, ok := index[s]; ok {
			return id, false
		}
		id := len(supersets)
		if id >= maxStates {
			return -1, false
		}
		index[s] = id
		supersets = append(supersets, s)
		rawTransitions = append(rawTransitions, nil)
		fallbacks = append(fallbacks, StateSet{})
		return id, true
	}

	startID, _ := intern(start)
	worklist := []int{startID}

	for len(worklist) > 0 {
		id := worklist[0]
		worklist = worklist[1:]
		S := supersets[id]

		var wildcardNext StateSet
		var recursiveStay StateSet
		var labels []Label
		S.forEach(func(sid StateID) {
			st := n.states[sid]
			if st.accept {
				return
			}
			if st.kind == kindRecursive {
				recursiveStay.add(sid)
			}
			if st.label.Kind == LabelWildcard {
				wildcardNext.add(st.next)
				return
			}
			for _, have := range labels {
				if have.Equal(st.label) {
					return
				}
			}
			labels = append(labels, st.label)
		})

		fallback := wildcardNext.union(recursiveStay)
		fbID, isNewFB := intern(fallback)
		if fbID < 0 {
			return nil, nil, nil, ErrQueryTooComplex
		}
		fallbacks[id] = fallback
		_ = fbID
		if isNewFB && !fallback.isEmpty() {
			worklist = append(worklist, fbID)
		}

		for _, lbl := range labels {
			var target StateSet
			S.forEach(func(sid StateID) {
				st := n.states[sid]
				if !st.accept && !st.label.Equal(lbl) {
					return
				}
				if st.accept {
					return
				}
				if st.label.Kind != LabelWildcard && st.label.Equal(lbl) {
					target.add(st.next)
				}
			})
			target = target.union(fallback)
			tid, isNewT := intern(target)
			if tid < 0 {
				return nil, nil, nil, ErrQueryTooComplex
			}
			rawTransitions[id] = append(rawTransitions[id], transition{label: lbl, target: DFAState(tid)})
			if isNewT {
				worklist = append(worklist, tid)
			}
		}
	}

	return supersets, rawTransitions, fallbacks, nil
}

// buildDFA runs subset construction then minimization, producing the
// table the execution engine drives: spec.md §4.5 pipeline steps 2-4.
// maxStates is the caller's Config.MaxStates ceiling.
func buildDFA(n *nfa, maxStates int) (*DFA, error) {
	supersets, rawTransitions, fallbacks, err := subsetConstruct(n, maxStates)
	if err != nil {
		return nil, err
	}

	accepting := make([]bool, len(supersets))
	for i, S := range supersets {
		S.forEach(func(sid StateID) {
			if n.accepting(sid) {
				accepting[i] = true
			}
		})
	}

	fallbackID := make([]int, len(supersets))
	index := map[StateSet]int{}
	for i, s := range supersets {
		index[s] = i
	}
	for i, fb := range fallbacks {
		id, ok := index[fb]
		if !ok {
			// fallback superstate was never interned as its own
			// reachable node (can happen for the empty set); treat as a
			// synthetic dead state appended at the end.
			id = len(supersets)
		}
		fallbackID[i] = id
	}

	if maxStates <= 0 || maxStates > MaxStates {
		maxStates = MaxStates
	}
	classes, err := minimize(len(supersets), accepting, rawTransitions, fallbackID, maxStates)
	if err != nil {
		return nil, err
	}

	numClasses := 0
	for _, c := range classes {
		if c+1 > numClasses {
			numClasses = c + 1
		}
	}

	nodes := make([]dfaNode, numClasses)
	seen := make([]bool, numClasses)
	for i := range supersets {
		c := classes[i]
		if seen[c] {
			continue
		}
		seen[c] = true
		nodes[c].accepting = accepting[i]
		nodes[c].fallback = DFAState(classes[clampIndex(fallbackID[i], len(classes))])
		for _, t := range rawTransitions[i] {
			target := classes[clampIndex(int(t.target), len(classes))]
			nodes[c].transitions = append(nodes[c].transitions, transition{label: t.label, target: DFAState(target)})
		}
	}

	return &DFA{nodes: nodes}, nil
}

// clampIndex guards against the synthetic dead-state index produced when
// a fallback or transition target is the empty superstate that was
// never separately interned: it maps to a state with no transitions and
// non-accepting, which classes[] covers by an implicit final entry.
func clampIndex(i, n int) int {
	if i >= n {
		return n - 1
	}
	return i
}

// minimize performs the partition-refinement step of spec.md §4.5 step
// 3: states start partitioned by (accepting, fallback-class, sorted
// transition labels+targets), then the partition is refined against
// itself until a fixed point, mirroring the classic Hopcroft-style
// signature-refinement loop. maxStates bounds the number of distinct
// partitions, the same ceiling subsetConstruct enforces on superstates.
func minimize(n int, accepting []bool, transitions [][]transition, fallback []int, maxStates int) ([]int, error) {
	// Add one synthetic dead state for any target index >= n (the empty
	// superstate, reachable as a fallback/transition target but never
	// separately worklist-processed).
	total := n + 1
	deadIdx := n

	classes := make([]int, total)
	for i := 0; i < total; i++ {
		if i == deadIdx {
			classes[i] = 1 // dead state starts in its own class (non-accepting, no transitions)
			continue
		}
		if accepting[i] {
			classes[i] = 0
		} else {
			classes[i] = 1
		}
	}

	for {
		type sig struct {
			class    int
			fallback int
			trans    string
		}
		sigOf := func(i int) sig {
			if i == deadIdx {
				return sig{class: classes[i], fallback: classes[i]}
			}
			fb := clampIndex(fallback[i], total)
			s := sig{class: classes[i], fallback: classes[fb]}
			ts := make([]transition, len(transitions[i]))
			copy(ts, transitions[i])
			sort.Slice(ts, func(a, b int) bool { return labelLess(ts[a].label, ts[b].label) })
			for _, t := range ts {
				tgt := clampIndex(int(t.target), total)
				s.trans += labelKey(t.label) + ":" + itoa(classes[tgt]) + ";"
			}
			return s
		}

		sigs := make([]sig, total)
		for i := 0; i < total; i++ {
			sigs[i] = sigOf(i)
		}

		groups := map[sig]int{}
		newClasses := make([]int, total)
		next := 0
		for i := 0; i < total; i++ {
			s := sigs[i]
			id, ok := groups[s]
			if !ok {
				id = next
				next++
				groups[s] = id
			}
			newClasses[i] = id
		}

		changed := false
		for i := 0; i < total; i++ {
			if newClasses[i] != classes[i] {
				changed = true
				break
			}
		}
		classes = newClasses
		if !changed {
			break
		}
		if next > maxStates {
			return nil, ErrQueryTooComplex
		}
	}

	return classes[:n], nil
}

func labelLess(a, b Label) bool { return labelKey(a) < labelKey(b) }

func labelKey(l Label) string {
	switch l.Kind {
	case LabelWildcard:
		return "*"
	case LabelName:
		return "n:" + l.Name
	case LabelIndex:
		return "i:" + itoa(l.Index)
	case LabelSlice:
		start, end := "-", "-"
		if l.SliceStart != nil {
			start = itoa(*l.SliceStart)
		}
		if l.SliceEnd != nil {
			end = itoa(*l.SliceEnd)
		}
		return "s:" + start + ":" + end + ":" + itoa(l.SliceStep)
	default:
		return "?"
	}
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}
