package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// SyntaxError reports a malformed query, following the
// parserName/msg/input/pos shape of a JSONPath-family parser in the
// example pack (sthielo-client-go's util/jsonpath.SyntaxError), adapted
// to rq's own query grammar.
type SyntaxError struct {
	Query string
	Pos   int
	Msg   string
}

func (e *SyntaxError) Error() string {
	marker := strings.Repeat(" ", e.Pos) + "^"
	return fmt.Sprintf("query syntax error at %d: %s\n%q\n%s", e.Pos, e.Msg, e.Query, marker)
}

type parser struct {
	query string
	pos   int
}

func (p *parser) peek() (rune, bool) {
	if p.pos >= len(p.query) {
		return 0, false
	}
	return rune(p.query[p.pos]), true
}

func (p *parser) next() (rune, bool) {
	r, ok := p.peek()
	if ok {
		p.pos++
	}
	return r, ok
}

func (p *parser) errf(format string, args ...any) error {
	return &SyntaxError{Query: p.query, Pos: p.pos, Msg: fmt.Sprintf(format, args...)}
}

// ParseQuery parses the surface grammar documented in SPEC_FULL.md's ast
// module section: `$`, `.name`, `..name`, `[*]`, `..*`, `[i]`,
// `[start:end:step]`, and bracket-quoted names `['name']`. Filter
// expressions and function extensions are rejected here, before the
// compiler ever sees them.
func ParseQuery(query string) (*Query, error) {
	p := &parser{query: query}
	r, ok := p.peek()
	if !ok || r != '$' {
		return nil, p.errf("query must start with '$'")
	}
	p.next()

	q := &Query{Nodes: []Node{Root{}}}
	for {
		r, ok := p.peek()
		if !ok {
			break
		}
		switch r {
		case '.':
			node, err := p.parseDotSegment()
			if err != nil {
				return nil, err
			}
			q.Nodes = append(q.Nodes, node...)
		case '[':
			node, err := p.parseBracketSegment(false)
			if err != nil {
				return nil, err
			}
			q.Nodes = append(q.Nodes, node...)
		default:
			return nil, p.errf("unexpected character %q", r)
		}
	}
	return q, nil
}

// parseDotSegment parses `.name`, `..name`, `.*`, `..*`, or a `..`
// followed by a bracket segment (descendant search of that selector).
func (p *parser) parseDotSegment() ([]Node, error) {
	p.next() // consume leading '.'
	descendant := false
	if r, ok := p.peek(); ok && r == '.' {
		p.next()
		descendant = true
	}

	r, ok := p.peek()
	if !ok {
		return nil, p.errf("unexpected end of query after '.'")
	}
	switch {
	case r == '*':
		p.next()
		if descendant {
			return []Node{AnyDescendant{}}, nil
		}
		return []Node{AnyChild{}}, nil
	case r == '[':
		return p.parseBracketSegment(descendant)
	case isNameStart(r):
		name := p.parseBareName()
		if descendant {
			return []Node{Descendant{Name: name}}, nil
		}
		return []Node{Child{Name: name}}, nil
	default:
		return nil, p.errf("expected a name, '*', or '[' after '.'")
	}
}

func isNameStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func (p *parser) parseBareName() string {
	start := p.pos
	for {
		r, ok := p.peek()
		if !ok || !isNameStart(r) {
			break
		}
		p.next()
	}
	return p.query[start:p.pos]
}

// parseBracketSegment parses the body of a `[...]` segment: a quoted
// name, `*`, an integer index, or a `start:end:step` slice.
func (p *parser) parseBracketSegment(descendant bool) ([]Node, error) {
	p.next() // consume '['
	r, ok := p.peek()
	if !ok {
		return nil, p.errf("unexpected end of query inside '['")
	}

	var node []Node
	switch {
	case r == '*':
		p.next()
		if descendant {
			node = []Node{AnyDescendant{}}
		} else {
			node = []Node{AnyChild{}}
		}
	case r == '\'' || r == '"':
		name, err := p.parseQuotedName(r)
		if err != nil {
			return nil, err
		}
		if descendant {
			node = []Node{Descendant{Name: name}}
		} else {
			node = []Node{Child{Name: name}}
		}
	case r == '-' || (r >= '0' && r <= '9') || r == ':':
		n, err := p.parseIndexOrSlice(descendant)
		if err != nil {
			return nil, err
		}
		node = n
	default:
		return nil, p.errf("unsupported selector inside '[' (filters and functions are not supported)")
	}

	r, ok = p.peek()
	if !ok || r != ']' {
		return nil, p.errf("expected closing ']'")
	}
	p.next()
	return node, nil
}

func (p *parser) parseQuotedName(quote rune) (string, error) {
	p.next() // consume opening quote
	var sb strings.Builder
	for {
		r, ok := p.next()
		if !ok {
			return "", p.errf("unterminated quoted name")
		}
		if r == quote {
			return sb.String(), nil
		}
		if r == '\\' {
			esc, ok := p.next()
			if !ok {
				return "", p.errf("unterminated escape in quoted name")
			}
			sb.WriteRune(esc)
			continue
		}
		sb.WriteRune(r)
	}
}

// parseIndexOrSlice parses an integer index or a start:end:step slice
// (any of start/end may be omitted; step defaults to 1).
func (p *parser) parseIndexOrSlice(descendant bool) ([]Node, error) {
	start, haveStart, err := p.parseOptionalInt()
	if err != nil {
		return nil, err
	}

	r, ok := p.peek()
	if !ok || r != ':' {
		if !haveStart {
			return nil, p.errf("expected an integer index")
		}
		return []Node{ArrayIndex{Index: *start, Descendant: descendant}}, nil
	}
	p.next() // consume ':'

	end, _, err := p.parseOptionalInt()
	if err != nil {
		return nil, err
	}

	step := 1
	if r, ok := p.peek(); ok && r == ':' {
		p.next()
		stepVal, haveStep, err := p.parseOptionalInt()
		if err != nil {
			return nil, err
		}
		if haveStep {
			if *stepVal == 0 {
				return nil, p.errf("slice step may not be 0")
			}
			step = *stepVal
		}
	}
	return []Node{Slice{Start: start, End: end, Step: step}}, nil
}

func (p *parser) parseOptionalInt() (*int, bool, error) {
	start := p.pos
	if r, ok := p.peek(); ok && r == '-' {
		p.next()
	}
	digitsStart := p.pos
	for {
		r, ok := p.peek()
		if !ok || r < '0' || r > '9' {
			break
		}
		p.next()
	}
	if p.pos == digitsStart {
		p.pos = start
		return nil, false, nil
	}
	v, err := strconv.Atoi(p.query[start:p.pos])
	if err != nil {
		return nil, false, p.errf("invalid integer: %v", err)
	}
	return &v, true, nil
}
