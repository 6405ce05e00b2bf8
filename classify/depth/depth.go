// Package depth implements the depth classifier of spec.md §4.3: given a
// quote-classified stream and a chosen bracket kind, it tracks net
// opens-minus-closes of that bracket kind, restricted to bytes outside
// any JSON string. The execution engine drives it to tail-skip an entire
// subtree without structural classification of the skipped bytes.
package depth

import (
	"math/bits"

	"github.com/coregx/rq/block"
	"github.com/coregx/rq/classify/quotes"
)

// Kind selects which bracket pair a Scanner counts. Only the chosen kind
// is counted; the other is ignored entirely (spec.md §4.3).
type Kind int

const (
	KindObject Kind = iota // counts '{' / '}'
	KindArray               // counts '[' / ']'
)

// Scanner tracks running depth of one bracket Kind across a run of
// blocks, restricted to non-quoted bytes.
type Scanner struct {
	input block.Iterator
	q     *quotes.Classifier
	kind  Kind

	depth int // accumulated depth, biased by AddDepth and by bits consumed so far

	base   int
	opens  uint64 // remaining (unconsumed) opener bits in the current block
	closes uint64 // remaining (unconsumed) closer bits in the current block
	loaded bool
	done   bool
}

// NewScanner starts a Scanner reading from input with a fresh quote-carry
// state (document start).
func NewScanner(input block.Iterator, kind Kind) *Scanner {
	return &Scanner{input: input, q: quotes.New(), kind: kind}
}

// NewScannerWithQuotes starts a Scanner whose quote classifier carries
// pre-existing escape/parity state, for resuming mid-document the way the
// structural classifier's Resume does.
func NewScannerWithQuotes(input block.Iterator, kind Kind, q *quotes.Classifier) *Scanner {
	return &Scanner{input: input, q: q, kind: kind}
}

// AddDepth biases the accumulated depth, e.g. by +1 right after the
// Opening event that starts the subtree being skipped.
func (s *Scanner) AddDepth(d int) { s.depth += d }

// Depth returns the depth at the scanner's current cursor.
func (s *Scanner) Depth() int { return s.depth }

// EstimateLowestPossibleDepth is a conservative lower bound on the depth
// the cursor could reach by the time it exits the current block: the
// current depth can fall by at most the number of closers still pending
// in this block.
func (s *Scanner) EstimateLowestPossibleDepth() int {
	return s.depth - quotes.PopCount(s.closes)
}

// DepthAtEnd is the exact depth at the end of the current block: current
// depth plus every opener, minus every closer, still pending.
func (s *Scanner) DepthAtEnd() int {
	return s.depth + quotes.PopCount(s.opens) - quotes.PopCount(s.closes)
}

// ResumeBlock seeds the scanner's current block directly, skipping the
// usual fetch-and-classify step. Used when a caller (typically the
// structural classifier handing off mid-block state) already knows the
// block's opener/closer masks.
func (s *Scanner) ResumeBlock(base int, opens, closes uint64) {
	s.base, s.opens, s.closes, s.loaded = base, opens, closes, true
}

func (s *Scanner) bracketBytes() (open, close byte) {
	if s.kind == KindObject {
		return '{', '}'
	}
	return '[', ']'
}

func (s *Scanner) loadNextBlock() error {
	base := s.input.Offset()
	blk, err := s.input.Next()
	if err != nil {
		return err
	}
	if blk == nil {
		s.done = true
		return nil
	}
	cb := s.q.Classify(blk)

	open, close := s.bracketBytes()
	var opens, closes uint64
	for i := 0; i < cb.Width; i++ {
		switch blk.Data[i] {
		case open:
			opens |= 1 << uint(i)
		case close:
			closes |= 1 << uint(i)
		}
	}
	s.opens = opens &^ cb.WithinQuotes
	s.closes = closes &^ cb.WithinQuotes
	s.base = base
	s.loaded = true
	return nil
}

// AdvanceToNextDepthDecrease moves the cursor forward to the next closer
// bit of the scanner's bracket kind, applying every opener it passes
// along the way. It returns the absolute offset of the closer and true,
// or (0, false, nil) if the underlying input is exhausted before one is
// found.
func (s *Scanner) AdvanceToNextDepthDecrease() (offset int, found bool, err error) {
	for {
		if !s.loaded {
			if err := s.loadNextBlock(); err != nil {
				return 0, false, err
			}
			if s.done {
				return 0, false, nil
			}
		}

		combined := s.opens | s.closes
		if combined == 0 {
			s.loaded = false
			continue
		}

		i := bits.TrailingZeros64(combined)
		bitmask := uint64(1) << uint(i)

		if s.opens&bitmask != 0 {
			s.opens &^= bitmask
			s.depth++
			continue
		}

		s.closes &^= bitmask
		s.depth--
		return s.base + i, true, nil
	}
}
