package automaton

import "testing"

func TestCompile_SingleChild(t *testing.T) {
	// $.a compiles to: start --a--> accept, with a shared non-accepting
	// dead state as fallback target for both.
	d, err := CompileQuery("$.a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	start := d.Start()
	if d.Accepting(start) {
		t.Fatalf("start state should not be accepting")
	}

	hit := d.Step(start, ActualLabel{Name: "a"})
	if !d.Accepting(hit) {
		t.Fatalf("expected matching state to accept")
	}

	miss := d.Step(start, ActualLabel{Name: "b"})
	if d.Accepting(miss) {
		t.Fatalf("expected non-matching label to land in a dead state")
	}

	// the dead state self-loops regardless of what's seen next.
	stillDead := d.Step(miss, ActualLabel{Name: "a"})
	if d.Accepting(stillDead) {
		t.Fatalf("dead state must not become accepting")
	}
}

func TestCompile_DescendantIsPureSearch(t *testing.T) {
	// $..a is the canonical head-skip trigger: its start state's fallback
	// is itself, with exactly one labelled transition.
	d, err := CompileQuery("$..a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	start := d.Start()
	if !d.IsPureDescendantSearch(start) {
		t.Fatalf("expected $..a to be a pure descendant search")
	}
	lbl := d.SoleLabel(start)
	if lbl.Kind != LabelName || lbl.Name != "a" {
		t.Fatalf("expected sole label to be name %q, got %+v", "a", lbl)
	}

	hit := d.Step(start, ActualLabel{Name: "a"})
	if !d.Accepting(hit) {
		t.Fatalf("expected matching member to accept")
	}
	// a match on "a" still remains a live search: hitting "a" again still
	// accepts, since the accepting superstate retains state0.
	hitAgain := d.Step(hit, ActualLabel{Name: "a"})
	if !d.Accepting(hitAgain) {
		t.Fatalf("expected repeated matches to keep accepting")
	}

	miss := d.Step(start, ActualLabel{Name: "zzz"})
	if miss != start {
		t.Fatalf("expected non-matching label to loop back to the start superstate")
	}
}

func TestCompile_AnyChild(t *testing.T) {
	d, err := CompileQuery("$.*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	start := d.Start()
	hit := d.Step(start, ActualLabel{Name: "whatever"})
	if !d.Accepting(hit) {
		t.Fatalf("wildcard child should accept any member name")
	}
	hit2 := d.Step(start, ActualLabel{IsIndex: true, Index: 5})
	if !d.Accepting(hit2) {
		t.Fatalf("wildcard child should accept any array index too")
	}
}

func TestCompile_ArrayIndex(t *testing.T) {
	d, err := CompileQuery("$[2]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	start := d.Start()
	hit := d.Step(start, ActualLabel{IsIndex: true, Index: 2})
	if !d.Accepting(hit) {
		t.Fatalf("expected index 2 to match")
	}
	miss := d.Step(start, ActualLabel{IsIndex: true, Index: 3})
	if d.Accepting(miss) {
		t.Fatalf("expected index 3 not to match")
	}
}

func TestCompile_Slice(t *testing.T) {
	d, err := CompileQuery("$[1:4]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	start := d.Start()
	for _, idx := range []int{1, 2, 3} {
		hit := d.Step(start, ActualLabel{IsIndex: true, Index: idx})
		if !d.Accepting(hit) {
			t.Fatalf("expected index %d within [1:4) to match", idx)
		}
	}
	for _, idx := range []int{0, 4, 5} {
		miss := d.Step(start, ActualLabel{IsIndex: true, Index: idx})
		if d.Accepting(miss) {
			t.Fatalf("expected index %d outside [1:4) not to match", idx)
		}
	}
}

func TestCompile_MultiSegment(t *testing.T) {
	// $.a.b requires two consecutive matches before accepting.
	d, err := CompileQuery("$.a.b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	start := d.Start()
	mid := d.Step(start, ActualLabel{Name: "a"})
	if d.Accepting(mid) {
		t.Fatalf("single segment match should not yet accept")
	}
	end := d.Step(mid, ActualLabel{Name: "b"})
	if !d.Accepting(end) {
		t.Fatalf("expected second segment match to accept")
	}
	wrongFirst := d.Step(start, ActualLabel{Name: "x"})
	wrongEnd := d.Step(wrongFirst, ActualLabel{Name: "b"})
	if d.Accepting(wrongEnd) {
		t.Fatalf("expected a wrong first segment to never reach accept")
	}
}

func TestCompile_RejectsFilterExpression(t *testing.T) {
	if _, err := CompileQuery("$[?(@.a)]"); err == nil {
		t.Fatalf("expected filter expression to fail at the parser stage")
	}
}

func TestCompile_RejectsZeroStepSlice(t *testing.T) {
	if _, err := CompileQuery("$[::0]"); err == nil {
		t.Fatalf("expected zero-step slice to be rejected")
	}
}

func TestLabelMatches_Wildcard(t *testing.T) {
	l := wildcardLabel()
	if !l.Matches(ActualLabel{Name: "x"}) || !l.Matches(ActualLabel{IsIndex: true, Index: 9}) {
		t.Fatalf("wildcard must match any actual label")
	}
}

func TestLabelEqual(t *testing.T) {
	a := nameLabel("x")
	b := nameLabel("x")
	c := nameLabel("y")
	if !a.Equal(b) {
		t.Fatalf("expected equal name labels to compare equal")
	}
	if a.Equal(c) {
		t.Fatalf("expected different name labels to compare unequal")
	}
}

func TestStateSet_Basic(t *testing.T) {
	s := setOf(0, 5, 70)
	if !s.has(0) || !s.has(5) || !s.has(70) {
		t.Fatalf("expected all added members present")
	}
	if s.has(1) || s.has(127) {
		t.Fatalf("unexpected membership")
	}
	if s.popcount() != 3 {
		t.Fatalf("expected popcount 3, got %d", s.popcount())
	}
	var seen []StateID
	s.forEach(func(id StateID) { seen = append(seen, id) })
	if len(seen) != 3 || seen[0] != 0 || seen[1] != 5 || seen[2] != 70 {
		t.Fatalf("unexpected forEach order: %v", seen)
	}
}

func TestStateSet_UnionAndEqual(t *testing.T) {
	a := setOf(1, 2)
	b := setOf(2, 3)
	u := a.union(b)
	if !u.equal(setOf(1, 2, 3)) {
		t.Fatalf("expected union {1,2,3}, got lo=%x hi=%x", u.lo, u.hi)
	}
}
