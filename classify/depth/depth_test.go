package depth

import (
	"testing"

	"github.com/coregx/rq/block"
)

func TestScanner_SkipsFlatObject(t *testing.T) {
	// Starting right after the opening '{' of {"a":1,"b":2}, depth is
	// already biased to 1; the scanner should find the matching '}' and
	// return to depth 0.
	input := `"a":1,"b":2}`
	in := block.NewBytesInput([]byte(input), block.Width32)
	s := NewScanner(in, KindObject)
	s.AddDepth(1)

	offset, found, err := s.AdvanceToNextDepthDecrease()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("expected to find the closing brace")
	}
	if offset != len(input)-1 {
		t.Fatalf("expected offset %d, got %d", len(input)-1, offset)
	}
	if s.Depth() != 0 {
		t.Fatalf("expected depth 0 after closing, got %d", s.Depth())
	}
}

func TestScanner_SkipsNestedSubtree(t *testing.T) {
	// {"a":{"b":1},"c":2}  — skip the whole root object's body.
	input := `"a":{"b":1},"c":2}`
	in := block.NewBytesInput([]byte(input), block.Width32)
	s := NewScanner(in, KindObject)
	s.AddDepth(1)

	var lastOffset int
	for {
		offset, found, err := s.AdvanceToNextDepthDecrease()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !found {
			t.Fatal("ran out of input before reaching depth 0")
		}
		lastOffset = offset
		if s.Depth() == 0 {
			break
		}
	}
	if lastOffset != len(input)-1 {
		t.Fatalf("expected final close at offset %d, got %d", len(input)-1, lastOffset)
	}
}

func TestScanner_IgnoresBracketsInStrings(t *testing.T) {
	input := `"a":"}}}"}`
	in := block.NewBytesInput([]byte(input), block.Width32)
	s := NewScanner(in, KindObject)
	s.AddDepth(1)

	offset, found, err := s.AdvanceToNextDepthDecrease()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("expected to find the real closing brace")
	}
	if offset != len(input)-1 {
		t.Fatalf("expected offset %d (the real close), got %d", len(input)-1, offset)
	}
}

func TestScanner_ArrayKindIgnoresObjectBrackets(t *testing.T) {
	input := `{"a":1},2]`
	in := block.NewBytesInput([]byte(input), block.Width32)
	s := NewScanner(in, KindArray)
	s.AddDepth(1)

	offset, found, err := s.AdvanceToNextDepthDecrease()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("expected to find the array close")
	}
	if offset != len(input)-1 {
		t.Fatalf("expected offset %d, got %d", len(input)-1, offset)
	}
}

func TestScanner_ExhaustedInput(t *testing.T) {
	input := `"a":1`
	in := block.NewBytesInput([]byte(input), block.Width32)
	s := NewScanner(in, KindObject)
	s.AddDepth(1)

	_, found, err := s.AdvanceToNextDepthDecrease()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatal("expected not found for unbalanced input")
	}
}

func TestScanner_DepthAtEndAndEstimate(t *testing.T) {
	input := `{{}`
	in := block.NewBytesInput([]byte(input), block.Width32)
	s := NewScanner(in, KindObject)

	offsetBefore := s.Depth()
	if offsetBefore != 0 {
		t.Fatalf("expected initial depth 0, got %d", offsetBefore)
	}

	// Seed the block's masks for `{{}` without consuming any bit: two
	// openers (bits 0, 1) and one closer (bit 2) are pending.
	s.ResumeBlock(0, 0b011, 0b100)
	if got := s.DepthAtEnd(); got != 1 {
		t.Fatalf("DepthAtEnd before advancing = %d, want 1", got)
	}
	if got := s.EstimateLowestPossibleDepth(); got != -1 {
		t.Fatalf("EstimateLowestPossibleDepth before advancing = %d, want -1", got)
	}

	// Advancing consumes both openers and the closer: depth 1, nothing
	// left pending, so both figures equal the current depth.
	offset, found, err := s.AdvanceToNextDepthDecrease()
	if err != nil || !found || offset != 2 {
		t.Fatalf("AdvanceToNextDepthDecrease = (%d, %v, %v), want (2, true, nil)", offset, found, err)
	}
	if s.DepthAtEnd() != 1 || s.EstimateLowestPossibleDepth() != 1 {
		t.Fatalf("after advancing: DepthAtEnd=%d Estimate=%d, want 1 and 1", s.DepthAtEnd(), s.EstimateLowestPossibleDepth())
	}
}
