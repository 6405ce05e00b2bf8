package quotes

import (
	"testing"

	"github.com/coregx/rq/block"
)

func classifyAll(t *testing.T, input string, width block.Width) []*Classified {
	t.Helper()
	in := block.NewBytesInput([]byte(input), width)
	c := New()
	var out []*Classified
	for {
		blk, err := in.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if blk == nil {
			break
		}
		out = append(out, c.Classify(blk))
	}
	return out
}

func maskString(mask uint64, n int) string {
	buf := make([]byte, n)
	for i := 0; i < n; i++ {
		if bitSet(mask, i) {
			buf[i] = '1'
		} else {
			buf[i] = '0'
		}
	}
	return string(buf)
}

func TestClassify_SimpleString(t *testing.T) {
	input := `{"a":1}`
	blocks := classifyAll(t, input, block.Width32)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	got := maskString(blocks[0].WithinQuotes, len(input))
	// The opening quote (index 1) and the content byte 'a' (index 2) read
	// as inside-quotes; the closing quote (index 3) reads as outside,
	// which is this classifier's (spec-permitted) convention for where
	// the delimiter/content boundary falls.
	want := "0110000"
	if got != want {
		t.Fatalf("mask mismatch:\n got  %s\n want %s", got, want)
	}
}

func TestClassify_EscapedQuote(t *testing.T) {
	// `"a\"b"` -- the \" must not end the string early.
	input := `"a\"b"`
	blocks := classifyAll(t, input, block.Width32)
	got := maskString(blocks[0].WithinQuotes, len(input))
	want := "111110"
	if got != want {
		t.Fatalf("mask mismatch:\n got  %s\n want %s", got, want)
	}
}

func TestClassify_EscapedBackslashBeforeQuote(t *testing.T) {
	// `"a\\"` -- the string ends after the escaped backslash; the final
	// quote is a real (unescaped) closing quote because \\ is a single
	// escaped backslash, not an escape of the quote.
	input := `"a\\"`
	blocks := classifyAll(t, input, block.Width32)
	got := maskString(blocks[0].WithinQuotes, len(input))
	want := "11110"
	if got != want {
		t.Fatalf("mask mismatch:\n got  %s\n want %s", got, want)
	}
}

func TestClassify_CrossBlockString(t *testing.T) {
	// Force the string literal to straddle a 32-byte block boundary.
	pad := make([]byte, 28)
	for i := range pad {
		pad[i] = 'x'
	}
	input := `"` + string(pad) + `more"`
	blocks := classifyAll(t, input, block.Width32)
	if len(blocks) < 2 {
		t.Fatalf("expected at least 2 blocks, got %d", len(blocks))
	}
	// Every byte of the first block from index 0 on should be inside quotes.
	for i := 0; i < 32; i++ {
		if !bitSet(blocks[0].WithinQuotes, i) {
			t.Fatalf("expected byte %d of block 0 to be inside quotes", i)
		}
	}
	// The classifier must carry the open-quote state into block 1.
	if !bitSet(blocks[1].WithinQuotes, 0) {
		t.Fatal("expected open-quote state to carry across the block boundary")
	}
}

func TestFlipQuotesBit(t *testing.T) {
	c := New()
	if c.openQuote {
		t.Fatal("expected fresh classifier to start outside quotes")
	}
	c.FlipQuotesBit()
	if !c.openQuote {
		t.Fatal("expected FlipQuotesBit to invert the carry")
	}
	c.FlipQuotesBit()
	if c.openQuote {
		t.Fatal("expected a second flip to restore the carry")
	}
}
