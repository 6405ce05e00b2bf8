// Package structural implements the structural classifier of spec.md
// §4.2: it consumes quote-classified blocks and yields the structural
// events (`{`, `}`, `[`, `]`, `:`, `,`) that lie outside any JSON string,
// in ascending document order.
package structural

import (
	"math/bits"

	"github.com/coregx/rq/block"
	"github.com/coregx/rq/classify/quotes"
)

// Bracket distinguishes object vs array brackets on Opening/Closing events.
type Bracket int

const (
	Object Bracket = iota
	Array
)

// EventType identifies which of the four structural event shapes an Event
// carries (spec.md §3 Structural event).
type EventType int

const (
	Opening EventType = iota
	Closing
	Colon
	Comma
)

func (t EventType) String() string {
	switch t {
	case Opening:
		return "Opening"
	case Closing:
		return "Closing"
	case Colon:
		return "Colon"
	case Comma:
		return "Comma"
	default:
		return "Unknown"
	}
}

// Event is one structural occurrence at an absolute byte Offset.
type Event struct {
	Type    EventType
	Bracket Bracket // meaningful only when Type is Opening or Closing
	Offset  int
}

// Options toggles emission of the lower-value events; the engine often
// only needs brackets and can disable Colon/Comma to shrink the stream it
// has to step through (spec.md §4.2).
type Options struct {
	EmitColon bool
	EmitComma bool
}

// DefaultOptions emits every event kind.
func DefaultOptions() Options { return Options{EmitColon: true, EmitComma: true} }

// State is the value-typed handoff produced by Stop and consumed by
// Resume (spec.md §9: "Stop/resume is value-typed... no heap, no
// back-references").
type State struct {
	BlockOffset   int // offset of the next block to fetch from the input
	PendingMask   uint64
	PendingBase   int
	QuoteOpen     bool
	QuoteOverflow bool
	Opts          Options
}

// Classifier drives a block.Iterator through the quote classifier and
// exposes the resulting structural events one at a time.
type Classifier struct {
	input block.Iterator
	q     *quotes.Classifier
	opts  Options

	mask     uint64 // remaining structural bits in the current block
	base     int    // absolute offset of the current block's byte 0
	curBytes []byte // raw bytes of the current block (for event classification)
	done     bool
}

// New starts classifying input from its current position with a fresh
// quote-carry state (i.e. at the start of a document).
func New(input block.Iterator, opts Options) *Classifier {
	return &Classifier{input: input, q: quotes.New(), opts: opts}
}

// structuralTable marks which byte values are JSON structural punctuation.
var structuralTable = [256]bool{
	'{': true, '}': true, '[': true, ']': true, ':': true, ',': true,
}

func (c *Classifier) fillMask() error {
	for c.mask == 0 {
		if c.done {
			return nil
		}
		base := c.input.Offset()
		blk, err := c.input.Next()
		if err != nil {
			return err
		}
		if blk == nil {
			c.done = true
			return nil
		}
		cb := c.q.Classify(blk)

		var structuralMask uint64
		for i := 0; i < cb.Width; i++ {
			if structuralTable[blk.Data[i]] {
				structuralMask |= 1 << uint(i)
			}
		}
		c.mask = structuralMask &^ cb.WithinQuotes
		c.base = base
		c.curBytes = blk.Data
	}
	return nil
}

// Next returns the next structural event, or (nil, nil) once the input is
// exhausted.
func (c *Classifier) Next() (*Event, error) {
	if err := c.fillMask(); err != nil {
		return nil, err
	}
	if c.mask == 0 {
		return nil, nil
	}

	i := bits.TrailingZeros64(c.mask)
	c.mask &^= 1 << uint(i)

	offset := c.base + i
	b := c.curBytes[i]

	ev := &Event{Offset: offset}
	switch b {
	case '{':
		ev.Type, ev.Bracket = Opening, Object
	case '}':
		ev.Type, ev.Bracket = Closing, Object
	case '[':
		ev.Type, ev.Bracket = Opening, Array
	case ']':
		ev.Type, ev.Bracket = Closing, Array
	case ':':
		if !c.opts.EmitColon {
			return c.Next()
		}
		ev.Type = Colon
	case ',':
		if !c.opts.EmitComma {
			return c.Next()
		}
		ev.Type = Comma
	}
	return ev, nil
}

// Stop captures the classifier's resumable state: the block iterator's
// position, the not-yet-consumed bits of the block currently in flight,
// and the quote carries needed to classify the next block correctly.
func (c *Classifier) Stop() State {
	openQuote, overflow := c.q.State()
	return State{
		BlockOffset:   c.input.Offset(),
		PendingMask:   c.mask,
		PendingBase:   c.base,
		QuoteOpen:     openQuote,
		QuoteOverflow: overflow,
		Opts:          c.opts,
	}
}

// Resume reconstructs a Classifier from state captured by Stop, reading
// onward from input (which must already be positioned at st.BlockOffset
// by the caller — typically by having skipped there with
// block.Iterator.SkipBlocks during a tail-skip). Resume is a handoff, not
// suspension: no goroutine or channel is involved (spec.md §5).
func Resume(input block.Iterator, st State, pendingBytes []byte) *Classifier {
	return &Classifier{
		input:    input,
		q:        quotes.Restore(st.QuoteOpen, st.QuoteOverflow),
		opts:     st.Opts,
		mask:     st.PendingMask,
		base:     st.PendingBase,
		curBytes: pendingBytes,
	}
}
