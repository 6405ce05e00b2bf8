// Package block exposes a JSON input as a sequence of fixed-size, aligned
// blocks, plus the random-access helpers the execution engine needs for
// head-skipping and tail-skipping.
//
// This is the leaf layer of the pipeline described in spec.md §2: every
// classifier above it (classify/quotes, classify/structural,
// classify/depth) consumes a block.Iterator and nothing else.
package block

import (
	"bytes"
	"io"
)

// Width is the number of bytes per block. spec.md §3 allows 32 or 64; rq
// defaults to 64 (Width64) the way coregex defaults to its widest SIMD
// lane and falls back from there.
type Width int

const (
	Width32 Width = 32
	Width64 Width = 64
)

// DefaultWidth returns Width64 when the CPU reports AVX2 (a 256-bit lane
// wide enough to justify the wider block), Width32 otherwise. Mirrors
// coregex's simd package sizing its SWAR/AVX2 split off the same
// cpu.X86.HasAVX2 feature bit.
func DefaultWidth() Width {
	if hasAVX2 {
		return Width64
	}
	return Width32
}

// Block is a contiguous run of Width input bytes. The final block of a
// run is zero-padded; Len reports how many of Data's bytes came from the
// real input (the rest is padding).
type Block struct {
	Data []byte // len(Data) == width, always
	Len  int    // number of genuine (non-padding) bytes, 0 <= Len <= len(Data)
}

// Iterator yields Blocks in ascending order. Implementations must keep
// block size constant for the lifetime of one run (spec.md §3 invariant).
type Iterator interface {
	// Next returns the next block, or (nil, nil) at end of input.
	Next() (*Block, error)

	// Offset returns the byte offset of the next block to be returned.
	Offset() int

	// SkipBlocks advances the iterator by count whole blocks without
	// materializing them.
	SkipBlocks(count int) error
}

// Input is the full random-access contract the engine needs beyond plain
// iteration (spec.md §6): head-skip's memmem needs to jump around in the
// raw bytes, not just walk forward block by block.
type Input interface {
	Iterator

	// SeekNonWhitespaceForward returns the offset of the first non-JSON
	// -whitespace byte at or after from, or len(bytes) if none remains.
	SeekNonWhitespaceForward(from int) int

	// SeekNonWhitespaceBackward returns the offset of the last non-JSON
	// -whitespace byte at or before from, or -1 if none exists.
	SeekNonWhitespaceBackward(from int) int

	// SeekBackwardTo returns the offset of the nearest occurrence of
	// needle at or before from, or -1 if none exists.
	SeekBackwardTo(from int, needle byte) int

	// IsMemberMatch reports whether bytes[from:to] is exactly pattern.
	// Used by the engine to confirm a memmem hit against full context.
	IsMemberMatch(from, to int, pattern []byte) bool

	// Bytes returns the full underlying buffer. Classifiers and the
	// memmem matcher read directly from it once boundaries are known.
	Bytes() []byte
}

func isJSONWhitespace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r':
		return true
	default:
		return false
	}
}

// BytesInput is an Input backed by a fully materialized buffer. It covers
// both the "borrowed bytes" and the "memory map" provider shapes from
// spec.md §1: once mapped, both are just an addressable []byte.
type BytesInput struct {
	buf    []byte
	width  int
	cursor int // byte offset of the next block to hand out
}

// NewBytesInput wraps buf for iteration and random access at the given
// block width.
func NewBytesInput(buf []byte, width Width) *BytesInput {
	return &BytesInput{buf: buf, width: int(width)}
}

func (b *BytesInput) Next() (*Block, error) {
	if b.cursor >= len(b.buf) {
		return nil, nil
	}
	end := b.cursor + b.width
	if end > len(b.buf) {
		end = len(b.buf)
	}
	chunk := b.buf[b.cursor:end]
	data := make([]byte, b.width)
	n := copy(data, chunk)
	blk := &Block{Data: data, Len: n}
	b.cursor = end
	return blk, nil
}

func (b *BytesInput) Offset() int { return b.cursor }

func (b *BytesInput) SkipBlocks(count int) error {
	b.cursor += count * b.width
	if b.cursor > len(b.buf) {
		b.cursor = len(b.buf)
	}
	return nil
}

func (b *BytesInput) Bytes() []byte { return b.buf }

func (b *BytesInput) SeekNonWhitespaceForward(from int) int {
	i := from
	for i < len(b.buf) && isJSONWhitespace(b.buf[i]) {
		i++
	}
	return i
}

func (b *BytesInput) SeekNonWhitespaceBackward(from int) int {
	i := from
	if i >= len(b.buf) {
		i = len(b.buf) - 1
	}
	for i >= 0 && isJSONWhitespace(b.buf[i]) {
		i--
	}
	return i
}

func (b *BytesInput) SeekBackwardTo(from int, needle byte) int {
	i := from
	if i >= len(b.buf) {
		i = len(b.buf) - 1
	}
	for i >= 0 {
		if b.buf[i] == needle {
			return i
		}
		i--
	}
	return -1
}

func (b *BytesInput) IsMemberMatch(from, to int, pattern []byte) bool {
	if from < 0 || to > len(b.buf) || from > to {
		return false
	}
	return bytes.Equal(b.buf[from:to], pattern)
}

// NewReaderInput buffers all of r into memory and returns a BytesInput
// over it. Streaming without full buffering is out of scope for this
// module (SPEC_FULL.md, Non-goals) — this exists so files and stdin are
// as easy to query as an in-memory buffer.
func NewReaderInput(r io.Reader, width Width) (*BytesInput, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return NewBytesInput(buf, width), nil
}
