// Package engine implements the execution engine of spec.md §4.6: it
// drives a compiled automaton over raw JSON bytes, producing match
// descriptors in ascending document order, analogous to coregex's
// meta.Engine driving a compiled *lazy.DFA over a byte haystack.
package engine

import (
	"github.com/coregx/rq/automaton"
	"github.com/coregx/rq/block"
	"github.com/coregx/rq/classify/depth"
	"github.com/coregx/rq/classify/memmem"
	"github.com/coregx/rq/classify/structural"
	"github.com/coregx/rq/errs"
	"github.com/coregx/rq/lut"
	"github.com/coregx/rq/sink"
)

// maxDepth is the engine's nesting ceiling: spec.md §4.3/§7's "8-bit
// depth counter" (DepthAboveLimit).
const maxDepth = 255

// Config controls engine behavior, mirroring the teacher's small
// Config/DefaultConfig struct threaded through the meta engine.
type Config struct {
	// Width is the block width the engine's internal classifiers use.
	Width block.Width

	// LUT, if non-nil, is consulted and populated during tail-skips
	// (SPEC_FULL.md's disposition of spec.md §9's LUT open question). A
	// nil LUT just means every tail-skip recomputes its target from
	// scratch; results are identical either way as long as the LUT holds
	// only pairs recorded over the same document. Entries are keyed by
	// absolute byte offset and the engine never clears them.
	LUT lut.Table
}

// DefaultConfig returns block.DefaultWidth() (hardware-dependent, see the
// block package) and no attached LUT.
func DefaultConfig() Config {
	return Config{Width: block.DefaultWidth()}
}

// Engine runs one compiled automaton over one input at a time. An Engine
// holds no per-run state itself (SPEC_FULL.md keeps runs reentrant the
// way coregex's meta.Engine is safe to call concurrently from multiple
// goroutines against the same compiled program); nameMatchers is
// precomputed once from the immutable dfa and only ever read afterward,
// so it doesn't change that.
type Engine struct {
	dfa *automaton.DFA
	cfg Config

	// nameMatchers[s] is a memmem.MultiMatcher over the Name-kind
	// candidate labels of state s's outgoing transitions, or nil when s
	// has none — spec.md §4.6's ordinary (non-head-skip) member-name
	// path: "uses the memmem matcher against the candidate labels of the
	// current state's outgoing transitions ... to either confirm a
	// transition or choose the fallback".
	nameMatchers []*memmem.MultiMatcher
}

// New returns an Engine ready to run dfa repeatedly.
func New(dfa *automaton.DFA, cfg Config) *Engine {
	if cfg.Width == 0 {
		cfg.Width = block.Width64
	}
	e := &Engine{dfa: dfa, cfg: cfg}
	e.nameMatchers = make([]*memmem.MultiMatcher, dfa.NumStates())
	for s := 0; s < dfa.NumStates(); s++ {
		names := dfa.NameCandidates(automaton.DFAState(s))
		if len(names) == 0 {
			continue
		}
		patterns := make([]*memmem.Pattern, len(names))
		for i, name := range names {
			patterns[i] = memmem.NewPattern(name)
		}
		e.nameMatchers[s] = memmem.NewMultiMatcher(patterns)
	}
	return e
}

// Run executes one query pass over buf, pushing matches to snk in
// strictly ascending Start order (spec.md §4.7). It dispatches to the
// head-skip strategy when the compiled automaton qualifies (spec.md
// §4.6: "triggered only when the automaton's initial state is a pure
// descendant search"), falling back to the ordinary structural walk
// otherwise.
func (e *Engine) Run(buf []byte, snk sink.Sink) error {
	start := e.dfa.Start()
	if e.dfa.IsPureDescendantSearch(start) {
		if lbl := e.dfa.SoleLabel(start); lbl.Kind == automaton.LabelName {
			return e.runHeadSkip(buf, lbl.Name, snk)
		}
	}
	return e.runNormal(buf, snk)
}

// runNormal processes the top-level JSON value directly: a container
// drives the stack-based structural walk, an atomic value is checked
// against the start state on its own.
func (e *Engine) runNormal(buf []byte, snk sink.Sink) error {
	valStart := seekNonWhitespaceForward(buf, 0)
	if valStart >= len(buf) {
		return nil
	}
	base := e.dfa.Start()
	if isContainerStart(buf[valStart]) {
		_, err := e.runContainer(buf, valStart, base, snk)
		return err
	}
	end := scanAtomicValueEnd(buf, valStart)
	if e.dfa.Accepting(base) {
		if err := emit(snk, valStart, end, nodeTypeForByte(buf[valStart])); err != nil {
			return err
		}
	}
	return nil
}

// runHeadSkip implements spec.md §4.6's head-skipping strategy: memmem
// searches directly for the needle `"name":` across the whole buffer,
// and for every hit either recurses into the matched container with the
// ordinary structural walk or reports the matched atomic value, before
// resuming the memmem search from where that value ended.
func (e *Engine) runHeadSkip(buf []byte, name string, snk sink.Sink) error {
	resultState := e.dfa.Step(e.dfa.Start(), automaton.ActualLabel{Name: name})
	matcher := memmem.NewMatcher(memmem.NewPattern(name))

	pos := 0
	for {
		_, qEnd, ok := matcher.Next(buf, pos)
		if !ok {
			return nil
		}
		colon := seekNonWhitespaceForward(buf, qEnd)
		if colon >= len(buf) || buf[colon] != ':' {
			pos = qEnd
			continue
		}
		valStart := seekNonWhitespaceForward(buf, colon+1)
		if valStart >= len(buf) {
			return errs.ErrMissingItem
		}

		if isContainerStart(buf[valStart]) {
			end, err := e.runContainer(buf, valStart, resultState, snk)
			if err != nil {
				return err
			}
			pos = end
			continue
		}

		end := scanAtomicValueEnd(buf, valStart)
		if e.dfa.Accepting(resultState) {
			if err := emit(snk, valStart, end, nodeTypeForByte(buf[valStart])); err != nil {
				return err
			}
		}
		pos = end
	}
}

// frame is one level of the per-container stack (spec.md §4.6: "the
// per-level stack with current_state on top").
type frame struct {
	bracket         structural.Bracket
	base            automaton.DFAState
	reportOnClose   bool
	matchStart      int
	matchID         int
	nextIndex       int
	havePendingName bool
	pendingName     string
}

// reportQueue restores the ascending-start ordering spec.md §3, §4.7, and
// §5 require (and §8 tests for) even though matches don't finalize in that
// order: a container match is only known complete at its Closing event,
// which happens *after* any descendant atomic match nested inside it has
// already been recognized. Every match site is instead assigned a
// monotonically increasing id the moment it is recognized (so ids are in
// document order: an ancestor container's id is always smaller than any
// descendant's), and reports are queued under that id until no
// lower-numbered match remains unfinalized: an id-keyed slot table
// flushed once its "pending" count returns to zero, rather than a bare
// append-on-arrival list.
type reportQueue struct {
	nextID  int
	pending int
	offset  int
	slots   []*sink.MatchDescriptor
}

// assignID hands out the next id in document-recognition order.
func (q *reportQueue) assignID() int {
	id := q.nextID
	q.nextID++
	return id
}

// openComplex assigns an id for a container match that won't finalize
// until its Closing event, and marks it outstanding.
func (q *reportQueue) openComplex() int {
	id := q.assignID()
	q.pending++
	return id
}

func (q *reportQueue) insert(id int, m sink.MatchDescriptor) {
	idx := id - q.offset
	for len(q.slots) <= idx {
		q.slots = append(q.slots, nil)
	}
	cp := m
	q.slots[idx] = &cp
}

// closeComplex finalizes a previously opened container match.
func (q *reportQueue) closeComplex(id int, m sink.MatchDescriptor) {
	q.insert(id, m)
	q.pending--
}

// report finalizes an atomic match, known complete the instant it's
// recognized. When no ancestor container match is still outstanding
// (pending == 0) there's no smaller id left to wait for, so it's emitted
// straight to snk; otherwise it's queued under a fresh id to preserve
// order relative to that ancestor's eventual Closing.
func (q *reportQueue) report(snk sink.Sink, start, end int, nt sink.NodeType) error {
	if q.pending == 0 {
		return emit(snk, start, end, nt)
	}
	q.insert(q.assignID(), sink.MatchDescriptor{Start: start, End: end, NodeType: nt})
	return nil
}

// flush drains every slot to snk in ascending id (== ascending start)
// order, but only once pending has returned to zero: draining early
// would risk emitting a higher-id match before a lower-id one that
// hasn't finalized yet.
func (q *reportQueue) flush(snk sink.Sink) error {
	if q.pending != 0 {
		return nil
	}
	q.offset += len(q.slots)
	for _, m := range q.slots {
		if m == nil {
			continue
		}
		if err := emit(snk, m.Start, m.End, m.NodeType); err != nil {
			return err
		}
	}
	q.slots = q.slots[:0]
	return nil
}

// runContainer drives the structural event stream of the container
// starting at buf[openIdx] (a '{' or '['), reporting every match found
// inside it (and the container itself, if the state it was entered with
// is accepting) to snk. It returns the absolute offset just past the
// container's closing bracket.
func (e *Engine) runContainer(buf []byte, openIdx int, base automaton.DFAState, snk sink.Sink) (int, error) {
	width := e.cfg.Width
	anchor := openIdx
	sc := structural.New(block.NewBytesInput(buf[anchor:], width), structural.DefaultOptions())

	var stack []frame
	var stagedState automaton.DFAState
	stagedValid := false
	var rq reportQueue

	for {
		ev, err := sc.Next()
		if err != nil {
			return 0, &errs.InputError{Err: err}
		}
		if ev == nil {
			return 0, errs.ErrMissingClosingCharacter
		}
		abs := anchor + ev.Offset

		switch ev.Type {
		case structural.Opening:
			childBase := base
			if len(stack) > 0 {
				if !stagedValid {
					// A container appeared where no slot was staged for
					// it (malformed input); treat it as unreachable by
					// the query rather than aborting the whole run.
					childBase = e.dfa.Start()
				} else {
					childBase = stagedState
					stagedValid = false
				}
			}

			if e.dfa.IsDead(childBase) {
				closeIdx, err := e.skipDeadSubtree(buf, abs, ev.Bracket)
				if err != nil {
					return 0, err
				}
				anchor = closeIdx + 1
				sc = structural.New(block.NewBytesInput(buf[anchor:], width), structural.DefaultOptions())
				if len(stack) == 0 {
					return anchor, nil
				}
				continue
			}

			f := frame{
				bracket:       ev.Bracket,
				base:          childBase,
				reportOnClose: e.dfa.Accepting(childBase),
				matchStart:    abs,
			}
			if f.reportOnClose {
				f.matchID = rq.openComplex()
			}
			stack = append(stack, f)
			if len(stack) > maxDepth {
				return 0, &errs.DepthAboveLimit{Offset: abs, Limit: maxDepth}
			}
			if f.bracket == structural.Array {
				if err := e.enterArraySlot(buf, &stack[len(stack)-1], abs+1, &stagedState, &stagedValid, &rq, snk); err != nil {
					return 0, err
				}
			} else {
				e.enterObjectSlot(buf, &stack[len(stack)-1], abs+1)
			}

		case structural.Closing:
			if len(stack) == 0 {
				return 0, &errs.DepthBelowZero{Offset: abs}
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top.reportOnClose {
				rq.closeComplex(top.matchID, sink.MatchDescriptor{
					Start:    top.matchStart,
					End:      abs + 1,
					NodeType: nodeTypeForBracket(top.bracket),
				})
			}
			if err := rq.flush(snk); err != nil {
				return 0, err
			}
			if len(stack) == 0 {
				return abs + 1, nil
			}

		case structural.Colon:
			if len(stack) == 0 {
				continue
			}
			top := &stack[len(stack)-1]
			if !top.havePendingName {
				// havePendingName is only ever set by enterObjectSlot's
				// successful decode of the member-name token right before
				// this colon; a colon inside an array, or one with no
				// preceding name at all, can only mean the token
				// preceding it wasn't a closing quote (spec.md §7's
				// MalformedStringQuotes).
				return 0, &errs.MalformedStringQuotes{Offset: abs}
			}
			name := top.pendingName
			top.havePendingName = false
			childState := e.dfa.Step(top.base, automaton.ActualLabel{Name: name})

			valStart := seekNonWhitespaceForward(buf, abs+1)
			if valStart >= len(buf) {
				return 0, errs.ErrMissingItem
			}
			if isContainerStart(buf[valStart]) {
				stagedState, stagedValid = childState, true
				continue
			}
			end := scanAtomicValueEnd(buf, valStart)
			if e.dfa.Accepting(childState) {
				if err := rq.report(snk, valStart, end, nodeTypeForByte(buf[valStart])); err != nil {
					return 0, err
				}
			}

		case structural.Comma:
			if len(stack) == 0 {
				continue
			}
			top := &stack[len(stack)-1]
			if top.bracket == structural.Array {
				top.nextIndex++
				if err := e.enterArraySlot(buf, top, abs+1, &stagedState, &stagedValid, &rq, snk); err != nil {
					return 0, err
				}
			} else {
				top.havePendingName = false
				e.enterObjectSlot(buf, top, abs+1)
			}
		}
	}
}

// enterArraySlot computes the transition for the array element that
// starts at or after afterIdx, and either stages it for the next Opening
// event (container value) or reports it immediately (atomic value), since
// no Colon event ever announces an array element the way one announces
// an object member's value.
func (e *Engine) enterArraySlot(buf []byte, top *frame, afterIdx int, stagedState *automaton.DFAState, stagedValid *bool, rq *reportQueue, snk sink.Sink) error {
	valStart := seekNonWhitespaceForward(buf, afterIdx)
	if valStart >= len(buf) || isContainerEnd(buf[valStart]) {
		return nil
	}
	childState := e.dfa.Step(top.base, automaton.ActualLabel{IsIndex: true, Index: top.nextIndex})
	if isContainerStart(buf[valStart]) {
		*stagedState, *stagedValid = childState, true
		return nil
	}
	end := scanAtomicValueEnd(buf, valStart)
	if e.dfa.Accepting(childState) {
		return rq.report(snk, valStart, end, nodeTypeForByte(buf[valStart]))
	}
	return nil
}

// enterObjectSlot reads the member-name token starting at or after
// afterIdx (immediately following '{' or ',') and stages it on top for
// the upcoming Colon event to consume. When top.base has known Name
// candidates, the token is confirmed directly against them with memmem
// (spec.md §4.6) rather than decoded generically; a token that doesn't
// match any candidate still needs its own full decode to locate (this
// fallback has no bearing on which transition fires, only on knowing the
// token is not one of the candidates).
func (e *Engine) enterObjectSlot(buf []byte, top *frame, afterIdx int) {
	i := seekNonWhitespaceForward(buf, afterIdx)
	if i >= len(buf) || buf[i] != '"' {
		return
	}

	if mm := e.nameMatchers[top.base]; mm != nil {
		if idx, start, _, ok := mm.Next(buf, i); ok && start == i {
			top.pendingName = mm.PatternName(idx)
			top.havePendingName = true
			return
		}
	}

	name, _, ok := memmem.DecodeString(buf, i)
	if !ok {
		return
	}
	top.pendingName = name
	top.havePendingName = true
}

func emit(snk sink.Sink, start, end int, nt sink.NodeType) error {
	if err := snk.AddMatch(sink.MatchDescriptor{Start: start, End: end, NodeType: nt}); err != nil {
		return &errs.SinkError{Err: err}
	}
	return nil
}

func isContainerStart(b byte) bool { return b == '{' || b == '[' }
func isContainerEnd(b byte) bool   { return b == '}' || b == ']' }

func nodeTypeForBracket(b structural.Bracket) sink.NodeType {
	if b == structural.Array {
		return sink.Array
	}
	return sink.Object
}

func nodeTypeForByte(b byte) sink.NodeType {
	switch {
	case b == '"':
		return sink.String
	case b == 't' || b == 'f':
		return sink.Boolean
	case b == 'n':
		return sink.Null
	default:
		return sink.Number
	}
}

func isWhitespace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r':
		return true
	default:
		return false
	}
}

func seekNonWhitespaceForward(buf []byte, from int) int {
	i := from
	for i < len(buf) && isWhitespace(buf[i]) {
		i++
	}
	return i
}

// scanAtomicValueEnd returns the offset just past the atomic JSON value
// (string, number, true, false, or null) starting at buf[start],
// trimming any trailing whitespace before the next structural
// terminator (spec.md §4.6: "scanned forward to the first structural
// terminator").
func scanAtomicValueEnd(buf []byte, start int) int {
	if start >= len(buf) {
		return start
	}
	if buf[start] == '"' {
		i := start + 1
		for i < len(buf) {
			if buf[i] == '\\' {
				i += 2
				continue
			}
			if buf[i] == '"' {
				return i + 1
			}
			i++
		}
		return len(buf)
	}
	i := start
	for i < len(buf) {
		switch buf[i] {
		case ',', '}', ']':
			return trimTrailingWhitespace(buf, start, i)
		}
		i++
	}
	return trimTrailingWhitespace(buf, start, len(buf))
}

func trimTrailingWhitespace(buf []byte, start, end int) int {
	for end > start && isWhitespace(buf[end-1]) {
		end--
	}
	return end
}

// skipDeadSubtree bypasses an entire subtree known to contain no
// possible match (spec.md §4.6's tail-skip): it switches to
// depth-classifier mode, consulting and then populating the engine's
// optional LUT, and returns the absolute offset of the subtree's
// matching closing bracket.
func (e *Engine) skipDeadSubtree(buf []byte, openIdx int, bracket structural.Bracket) (int, error) {
	if e.cfg.LUT != nil {
		if closeIdx, ok := e.cfg.LUT.Get(openIdx); ok {
			return closeIdx, nil
		}
	}

	kind := depth.KindObject
	if bracket == structural.Array {
		kind = depth.KindArray
	}

	scanner := depth.NewScanner(block.NewBytesInput(buf[openIdx+1:], e.cfg.Width), kind)
	scanner.AddDepth(1)

	for {
		rel, found, err := scanner.AdvanceToNextDepthDecrease()
		if err != nil {
			return 0, &errs.InputError{Err: err}
		}
		if !found {
			return 0, errs.ErrMissingClosingCharacter
		}
		if scanner.Depth() == 0 {
			closeIdx := openIdx + 1 + rel
			if e.cfg.LUT != nil {
				e.cfg.LUT.Put(openIdx, closeIdx)
			}
			return closeIdx, nil
		}
	}
}
