package memmem

import (
	"github.com/coregx/ahocorasick"
)

// multiCutover mirrors coregex's UseAhoCorasick strategy cutover
// (meta/strategy.go documents "large literal alternations, >32
// patterns"): rq's alphabet of candidate member names at a single DFA
// state is almost always tiny, so the cutover here is much lower — it
// only needs to beat the cost of a handful of independent scans.
const multiCutover = 3

// canonicalForm renders name's default (non-alternative) JSON encoding:
// wrapped in quotes, with only the escapes JSON requires (", \, and
// control characters below 0x20). This is what Aho-Corasick searches
// for; it is a fast-path prefilter, not the full matcher — see
// MultiMatcher.Next.
func canonicalForm(name string) []byte {
	out := make([]byte, 0, len(name)+2)
	out = append(out, '"')
	for i := 0; i < len(name); i++ {
		b := name[i]
		switch b {
		case '"':
			out = append(out, '\\', '"')
		case '\\':
			out = append(out, '\\', '\\')
		case '\n':
			out = append(out, '\\', 'n')
		case '\r':
			out = append(out, '\\', 'r')
		case '\t':
			out = append(out, '\\', 't')
		default:
			if b < 0x20 {
				const hex = "0123456789abcdef"
				out = append(out, '\\', 'u', '0', '0', hex[b>>4], hex[b&0xf])
			} else {
				out = append(out, b)
			}
		}
	}
	out = append(out, '"')
	return out
}

// MultiMatcher searches for the first occurrence of any of several
// candidate member names — spec.md §4.6's "memmem matcher against the
// candidate labels of the current state's outgoing transitions", used
// while walking an object's members to confirm which transition (if any)
// a member name fires. Head-skip states never reach this: by
// construction they have exactly one outgoing label
// (automaton.DFA.IsPureDescendantSearch requires len(transitions)==1),
// so head-skip matches against a single memmem.Pattern instead. It
// mirrors coregex's UseAhoCorasick strategy (meta/compile.go): build one
// Aho-Corasick automaton over the candidates' canonical encodings and
// scan once instead of once per candidate.
//
// Aho-Corasick only ever sees the canonical encoding of each name, so it
// is strictly a prefilter: every hit is re-verified by decoding, and if
// the automaton reports no further hits the matcher falls back to the
// plain per-pattern scanners so an exotic (non-canonical) escape spelling
// of a candidate name is never missed.
type MultiMatcher struct {
	patterns []*Pattern
	aho      *ahocorasick.Automaton // nil below multiCutover, or on build failure
}

// NewMultiMatcher compiles a MultiMatcher over patterns.
func NewMultiMatcher(patterns []*Pattern) *MultiMatcher {
	mm := &MultiMatcher{patterns: patterns}
	if len(patterns) < multiCutover {
		return mm
	}
	builder := ahocorasick.NewBuilder()
	for _, p := range patterns {
		builder.AddPattern(canonicalForm(p.Name))
	}
	auto, err := builder.Build()
	if err == nil {
		mm.aho = auto
	}
	return mm
}

// PatternName returns the logical name of the candidate at idx, the
// index Next reports a hit against.
func (mm *MultiMatcher) PatternName(idx int) string { return mm.patterns[idx].Name }

// Next finds the next occurrence, at or after from, of any candidate
// pattern. It returns the matched pattern's index into the slice passed
// to NewMultiMatcher, the opening-quote offset, and the offset just past
// the closing quote.
func (mm *MultiMatcher) Next(buf []byte, from int) (patternIdx, start, end int, ok bool) {
	if mm.aho != nil {
		if idx, s, e, found := mm.nextViaAho(buf, from); found {
			// Any string opening before the unescaped quote at s closes at
			// or before it, so buf[:s+1] holds every earlier occurrence,
			// including non-canonically escaped spellings Aho-Corasick
			// cannot see.
			if fi, fs, fe, fok := mm.nextFallback(buf[:s+1], from); fok && fs < s {
				return fi, fs, fe, true
			}
			return idx, s, e, true
		}
	}
	return mm.nextFallback(buf, from)
}

func (mm *MultiMatcher) nextViaAho(buf []byte, from int) (patternIdx, start, end int, ok bool) {
	at := from
	for at <= len(buf) {
		m := mm.aho.Find(buf, at)
		if m == nil {
			return 0, 0, 0, false
		}
		quotePos := m.Start
		if isEscaped(buf, quotePos) {
			at = quotePos + 1
			continue
		}
		idx := int(m.Pattern)
		if idx < 0 || idx >= len(mm.patterns) {
			at = quotePos + 1
			continue
		}
		if e, verified := matchContent(buf, quotePos, mm.patterns[idx].Name); verified {
			return idx, quotePos, e, true
		}
		at = quotePos + 1
	}
	return 0, 0, 0, false
}

// nextFallback runs every candidate's single-pattern scanner and keeps
// the earliest hit, guaranteeing correctness regardless of escape style.
func (mm *MultiMatcher) nextFallback(buf []byte, from int) (patternIdx, start, end int, ok bool) {
	bestIdx, bestStart, bestEnd := -1, 0, 0
	for i, p := range mm.patterns {
		s, e, found := next(buf, from, p)
		if !found {
			continue
		}
		if bestIdx == -1 || s < bestStart {
			bestIdx, bestStart, bestEnd = i, s, e
		}
	}
	if bestIdx == -1 {
		return 0, 0, 0, false
	}
	return bestIdx, bestStart, bestEnd, true
}
