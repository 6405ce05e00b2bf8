// Package memmem implements the member-name matcher of spec.md §4.4: it
// finds occurrences of a JSON object member name in raw bytes, accepting
// any lawful JSON encoding of the same logical Unicode string (`\"`,
// `\\`, `\uXXXX`, surrogate pairs, and so on) rather than a literal byte
// compare.
//
// coregex's simd package finds raw byte needles with a rare-byte
// heuristic (simd.Memmem); this package plays the analogous role for the
// engine's head-skip and member-confirmation paths, but the needle is a
// logical string, not a byte string, so matching has to decode escapes
// as it scans instead of comparing bytes directly.
package memmem

import (
	"bytes"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// Pattern is a compiled search target: the logical member name plus
// whatever precomputed form lets Matcher search for it quickly.
type Pattern struct {
	Name    string // the logical Unicode string, decoded
	oneByte bool   // true when Name is exactly one ASCII byte
	byte0   byte
}

// NewPattern compiles name into a Pattern ready to search with.
func NewPattern(name string) *Pattern {
	p := &Pattern{Name: name}
	if len(name) == 1 && name[0] < utf8.RuneSelf {
		p.oneByte = true
		p.byte0 = name[0]
	}
	return p
}

// Matcher searches for occurrences of a single Pattern.
type Matcher struct {
	pattern *Pattern
}

// NewMatcher returns a Matcher for pattern.
func NewMatcher(pattern *Pattern) *Matcher { return &Matcher{pattern: pattern} }

// Next finds the next occurrence of m's pattern in buf at or after from.
// It returns the offset of the opening quote and the offset just past
// the closing quote (so buf[start:end] is the full quoted JSON string),
// or ok=false if no occurrence remains.
func (m *Matcher) Next(buf []byte, from int) (start, end int, ok bool) {
	return next(buf, from, m.pattern)
}

// next is the shared scan-and-verify loop used by both Matcher and
// MultiMatcher's fallback path.
func next(buf []byte, from int, p *Pattern) (start, end int, ok bool) {
	if p.oneByte {
		return nextOneByte(buf, from, p.byte0)
	}

	i := from
	for {
		q := bytes.IndexByte(buf[i:], '"')
		if q < 0 {
			return 0, 0, false
		}
		quotePos := i + q
		if isEscaped(buf, quotePos) {
			i = quotePos + 1
			continue
		}
		if end, ok := matchContent(buf, quotePos, p.Name); ok {
			return quotePos, end, true
		}
		i = quotePos + 1
	}
}

// nextOneByte implements spec.md §4.4's specialized single-byte path: it
// searches directly for the literal triple `"c"` rather than running the
// general escape-aware decoder. This accepts the documented simplification
// that an exotic `\u00XX`-escaped spelling of a single ASCII character is
// not matched by this fast path (spec.md §4.4: "a specialized path
// searches for the pair \"c\" directly").
func nextOneByte(buf []byte, from int, c byte) (start, end int, ok bool) {
	needle := []byte{'"', c, '"'}
	i := from
	for {
		rel := bytes.Index(buf[i:], needle)
		if rel < 0 {
			return 0, 0, false
		}
		quotePos := i + rel
		if isEscaped(buf, quotePos) {
			i = quotePos + 1
			continue
		}
		return quotePos, quotePos + 3, true
	}
}

// DecodeString decodes the full logical content of the JSON string
// starting at buf[quotePos] (which must be '"'). It returns the decoded
// Unicode content and the offset just past the closing quote. Used by the
// engine to read an object's member-name token directly when no small
// set of candidate labels is known in advance (spec.md §4.6's ordinary,
// non-head-skip member-name path); the head-skip path instead matches
// directly against a known needle and never needs this.
func DecodeString(buf []byte, quotePos int) (content string, end int, ok bool) {
	if quotePos < 0 || quotePos >= len(buf) || buf[quotePos] != '"' {
		return "", 0, false
	}
	var sb strings.Builder
	i := quotePos + 1
	for i < len(buf) {
		b := buf[i]
		switch {
		case b == '"':
			return sb.String(), i + 1, true
		case b == '\\':
			r, consumed, decodeOK := decodeEscape(buf, i)
			if !decodeOK {
				return "", 0, false
			}
			sb.WriteRune(r)
			i += consumed
		default:
			sb.WriteByte(b)
			i++
		}
	}
	return "", 0, false
}

// isEscaped reports whether the byte at pos is preceded by an odd run of
// backslashes, i.e. whether it is itself escaped rather than a genuine
// delimiter (spec.md §4.4: "the byte preceding the opening quote is not
// an unescaped \\").
func isEscaped(buf []byte, pos int) bool {
	count := 0
	for i := pos - 1; i >= 0 && buf[i] == '\\'; i-- {
		count++
	}
	return count%2 == 1
}

// matchContent attempts to decode the JSON string starting at the quote
// byte buf[quotePos] and compare its logical content to want. It returns
// the offset just past the closing quote on success.
func matchContent(buf []byte, quotePos int, want string) (end int, ok bool) {
	i := quotePos + 1
	wantBytes := []byte(want)
	wi := 0

	for i < len(buf) {
		b := buf[i]
		switch {
		case b == '"':
			if wi == len(wantBytes) {
				return i + 1, true
			}
			return 0, false
		case b == '\\':
			r, consumed, decodeOK := decodeEscape(buf, i)
			if !decodeOK {
				return 0, false
			}
			var enc [4]byte
			n := utf8.EncodeRune(enc[:], r)
			if wi+n > len(wantBytes) || !bytes.Equal(wantBytes[wi:wi+n], enc[:n]) {
				return 0, false
			}
			wi += n
			i += consumed
		default:
			// Raw UTF-8 continuation/lead bytes compare directly; JSON
			// strings may contain unescaped multi-byte UTF-8.
			if wi >= len(wantBytes) || wantBytes[wi] != b {
				return 0, false
			}
			wi++
			i++
		}
	}
	return 0, false // ran off the end of buf without a closing quote
}

// decodeEscape decodes one JSON escape sequence starting at buf[i] (which
// must be '\\'). It returns the decoded rune, the number of input bytes
// consumed, and whether the escape was well-formed.
func decodeEscape(buf []byte, i int) (r rune, consumed int, ok bool) {
	if i+1 >= len(buf) {
		return 0, 0, false
	}
	switch buf[i+1] {
	case '"':
		return '"', 2, true
	case '\\':
		return '\\', 2, true
	case '/':
		return '/', 2, true
	case 'b':
		return '\b', 2, true
	case 'f':
		return '\f', 2, true
	case 'n':
		return '\n', 2, true
	case 'r':
		return '\r', 2, true
	case 't':
		return '\t', 2, true
	case 'u':
		v1, ok := decodeHex4(buf, i+2)
		if !ok {
			return 0, 0, false
		}
		if utf16.IsSurrogate(rune(v1)) {
			if i+7 < len(buf) && buf[i+6] == '\\' && buf[i+7] == 'u' {
				if v2, ok := decodeHex4(buf, i+8); ok {
					if dec := utf16.DecodeRune(rune(v1), rune(v2)); dec != utf8.RuneError {
						return dec, 12, true
					}
				}
			}
			// Lone surrogate: JSON permits it; keep as a standalone rune
			// so length accounting stays correct.
			return rune(v1), 6, true
		}
		return rune(v1), 6, true
	default:
		return 0, 0, false
	}
}

func decodeHex4(buf []byte, i int) (uint16, bool) {
	if i+4 > len(buf) {
		return 0, false
	}
	var v uint16
	for k := 0; k < 4; k++ {
		c := buf[i+k]
		v <<= 4
		switch {
		case c >= '0' && c <= '9':
			v |= uint16(c - '0')
		case c >= 'a' && c <= 'f':
			v |= uint16(c-'a') + 10
		case c >= 'A' && c <= 'F':
			v |= uint16(c-'A') + 10
		default:
			return 0, false
		}
	}
	return v, true
}
