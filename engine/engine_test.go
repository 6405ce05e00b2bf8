package engine

import (
	"testing"

	"github.com/coregx/rq/automaton"
	"github.com/coregx/rq/sink"
)

func compile(t *testing.T, query string) *automaton.DFA {
	t.Helper()
	d, err := automaton.CompileQuery(query)
	if err != nil {
		t.Fatalf("compile %q: %v", query, err)
	}
	return d
}

func TestEngine_SimpleObjectChild(t *testing.T) {
	d := compile(t, "$.a")
	e := New(d, DefaultConfig())
	snk := sink.NewCollectingSink()

	doc := []byte(`{"a":1,"b":2}`)
	if err := e.Run(doc, snk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snk.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d: %+v", len(snk.Matches), snk.Matches)
	}
	m := snk.Matches[0]
	if m.Start != 5 || m.End != 6 || m.NodeType != sink.Number {
		t.Fatalf("unexpected match: %+v (want span [5,6) Number)", m)
	}
	if got := string(doc[m.Start:m.End]); got != "1" {
		t.Fatalf("match span content = %q, want %q", got, "1")
	}
}

func TestEngine_ArrayIndex(t *testing.T) {
	d := compile(t, "$[0]")
	e := New(d, DefaultConfig())
	snk := sink.NewCollectingSink()

	doc := []byte(`[10,20,30]`)
	if err := e.Run(doc, snk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snk.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d: %+v", len(snk.Matches), snk.Matches)
	}
	m := snk.Matches[0]
	if m.Start != 1 || m.End != 3 {
		t.Fatalf("unexpected span: %+v", m)
	}
	if got := string(doc[m.Start:m.End]); got != "10" {
		t.Fatalf("match span content = %q, want %q", got, "10")
	}
}

func TestEngine_DescendantHeadSkip(t *testing.T) {
	d := compile(t, "$..a")
	if !d.IsPureDescendantSearch(d.Start()) {
		t.Fatalf("expected $..a to qualify for head-skip")
	}
	e := New(d, DefaultConfig())
	snk := sink.NewCollectingSink()

	doc := []byte(`{"x":{"a":1},"a":2}`)
	if err := e.Run(doc, snk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snk.Matches) != 2 {
		t.Fatalf("expected 2 matches, got %d: %+v", len(snk.Matches), snk.Matches)
	}
	if string(doc[snk.Matches[0].Start:snk.Matches[0].End]) != "1" {
		t.Fatalf("first match wrong: %+v", snk.Matches[0])
	}
	if string(doc[snk.Matches[1].Start:snk.Matches[1].End]) != "2" {
		t.Fatalf("second match wrong: %+v", snk.Matches[1])
	}
}

func TestEngine_TailSkipsDeadSibling(t *testing.T) {
	d := compile(t, "$.a")
	e := New(d, DefaultConfig())
	snk := sink.NewCollectingSink()

	// "b"'s whole object (including a nested array) can never contain a
	// match for $.a and should be tail-skipped wholesale.
	doc := []byte(`{"a":1,"b":{"c":[1,2,3],"d":9},"z":5}`)
	if err := e.Run(doc, snk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snk.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d: %+v", len(snk.Matches), snk.Matches)
	}
	m := snk.Matches[0]
	if string(doc[m.Start:m.End]) != "1" {
		t.Fatalf("unexpected match: %+v", m)
	}
}

func TestEngine_NoMatch(t *testing.T) {
	d := compile(t, "$.missing")
	e := New(d, DefaultConfig())
	snk := sink.NewCollectingSink()

	if err := e.Run([]byte(`{"a":1}`), snk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snk.Matches) != 0 {
		t.Fatalf("expected no matches, got %+v", snk.Matches)
	}
}

func TestEngine_NestedContainerMatch(t *testing.T) {
	d := compile(t, "$.a.b")
	e := New(d, DefaultConfig())
	snk := sink.NewCollectingSink()

	doc := []byte(`{"a":{"b":[1,2],"x":0}}`)
	if err := e.Run(doc, snk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snk.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d: %+v", len(snk.Matches), snk.Matches)
	}
	m := snk.Matches[0]
	if m.NodeType != sink.Array {
		t.Fatalf("expected array node type, got %v", m.NodeType)
	}
	if got := string(doc[m.Start:m.End]); got != "[1,2]" {
		t.Fatalf("match span content = %q, want %q", got, "[1,2]")
	}
}

func TestEngine_AscendingOrderWhenAncestorAndDescendantBothMatch(t *testing.T) {
	d := compile(t, "$..a")
	e := New(d, DefaultConfig())
	snk := sink.NewCollectingSink()

	// The outer "a" (a container match, spanning [5,12)) only finalizes at
	// its Closing event, which happens *after* the inner "a" (an atomic
	// match, spanning [10,11)) is recognized during the walk. Reports must
	// still come out in ascending Start order: outer before inner.
	doc := []byte(`{"a":{"a":1}}`)
	if err := e.Run(doc, snk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snk.Matches) != 2 {
		t.Fatalf("expected 2 matches, got %d: %+v", len(snk.Matches), snk.Matches)
	}
	for i := 1; i < len(snk.Matches); i++ {
		if snk.Matches[i].Start <= snk.Matches[i-1].Start {
			t.Fatalf("matches not in strictly ascending start order: %+v", snk.Matches)
		}
	}
	outer, inner := snk.Matches[0], snk.Matches[1]
	if outer.NodeType != sink.Object || string(doc[outer.Start:outer.End]) != `{"a":1}` {
		t.Fatalf("unexpected outer match: %+v", outer)
	}
	if string(doc[inner.Start:inner.End]) != "1" {
		t.Fatalf("unexpected inner match: %+v", inner)
	}
}

func TestEngine_CountingSink(t *testing.T) {
	d := compile(t, "$..a")
	e := New(d, DefaultConfig())
	snk := sink.NewCountingSink()

	doc := []byte(`[{"a":1},{"a":2},{"a":3}]`)
	if err := e.Run(doc, snk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snk.Count != 3 {
		t.Fatalf("expected 3 matches, got %d", snk.Count)
	}
}
