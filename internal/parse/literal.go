// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Tuple is a parenthesized literal such as ("a", "b"). It encodes to JSON as
// an array.
type Tuple []any

// Set is a brace literal without key/value pairs such as {"a", "b"}.
type Set []any

// maxDepth bounds nesting so hostile input cannot exhaust the stack.
const maxDepth = 256

// SyntaxError describes where a literal stopped parsing.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Offset, e.Msg)
}

// ParseLiteral parses src as a single data literal: lists, maps, tuples,
// sets, quoted strings, numbers, booleans, and null. It is a grammar, not an
// evaluator: names, operators, and calls are rejected. The whole of src must
// be consumed apart from surrounding whitespace.
//
// Decoded types are []any, map[string]any, Tuple, Set, string, int64,
// float64, bool, and nil.
func ParseLiteral(src string) (any, error) {
	p := &literalParser{src: src}
	p.skipSpace()
	v, err := p.value(0)
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, p.errorf("unexpected trailing %q", p.snippet())
	}
	return v, nil
}

type literalParser struct {
	src string
	pos int
}

func (p *literalParser) errorf(format string, args ...any) error {
	return &SyntaxError{Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *literalParser) snippet() string {
	end := p.pos + 16
	if end > len(p.src) {
		end = len(p.src)
	}
	return p.src[p.pos:end]
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			p.pos++
		default:
			return
		}
	}
}

func (p *literalParser) peek() byte {
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *literalParser) value(depth int) (any, error) {
	if depth > maxDepth {
		return nil, p.errorf("nesting deeper than %d", maxDepth)
	}
	if p.pos >= len(p.src) {
		return nil, p.errorf("unexpected end of input")
	}
	c := p.src[p.pos]
	switch {
	case c == '[':
		p.pos++
		items, err := p.sequence(']', depth)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []any{}
		}
		return items, nil
	case c == '(':
		return p.tuple(depth)
	case c == '{':
		return p.braces(depth)
	case c == '"' || c == '\'':
		return p.stringLit()
	case c == '-' || c == '+' || c == '.' || isDigit(c):
		return p.number()
	case isLetter(c):
		return p.word()
	}
	return nil, p.errorf("unexpected %q", p.snippet())
}

// sequence reads comma-separated values up to close; the opening delimiter
// has been consumed. A trailing comma is allowed.
func (p *literalParser) sequence(close byte, depth int) ([]any, error) {
	var items []any
	for {
		p.skipSpace()
		if p.peek() == close {
			p.pos++
			return items, nil
		}
		v, err := p.value(depth + 1)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case close:
			p.pos++
			return items, nil
		case 0:
			return nil, p.errorf("unterminated literal, expected %q", close)
		default:
			return nil, p.errorf("expected ',' or %q, found %q", close, p.snippet())
		}
	}
}

// tuple distinguishes (), (x), and (x,) the way data literals do: only a
// comma makes a tuple.
func (p *literalParser) tuple(depth int) (any, error) {
	p.pos++
	p.skipSpace()
	if p.peek() == ')' {
		p.pos++
		return Tuple{}, nil
	}
	first, err := p.value(depth + 1)
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	switch p.peek() {
	case ')':
		p.pos++
		return first, nil
	case ',':
		p.pos++
		rest, err := p.sequence(')', depth)
		if err != nil {
			return nil, err
		}
		return append(Tuple{first}, rest...), nil
	case 0:
		return nil, p.errorf("unterminated literal, expected ')'")
	}
	return nil, p.errorf("expected ',' or ')', found %q", p.snippet())
}

func (p *literalParser) braces(depth int) (any, error) {
	p.pos++
	p.skipSpace()
	if p.peek() == '}' {
		p.pos++
		return map[string]any{}, nil
	}
	first, err := p.value(depth + 1)
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.peek() != ':' {
		set := Set{first}
		switch p.peek() {
		case '}':
			p.pos++
			return set, nil
		case ',':
			p.pos++
			rest, err := p.sequence('}', depth)
			if err != nil {
				return nil, err
			}
			return append(set, rest...), nil
		case 0:
			return nil, p.errorf("unterminated literal, expected '}'")
		}
		return nil, p.errorf("expected ':' or ',', found %q", p.snippet())
	}

	m := make(map[string]any)
	key := first
	for {
		p.pos++ // ':'
		p.skipSpace()
		v, err := p.value(depth + 1)
		if err != nil {
			return nil, err
		}
		k, err := p.mapKey(key)
		if err != nil {
			return nil, err
		}
		m[k] = v

		p.skipSpace()
		switch p.peek() {
		case '}':
			p.pos++
			return m, nil
		case ',':
			p.pos++
		case 0:
			return nil, p.errorf("unterminated literal, expected '}'")
		default:
			return nil, p.errorf("expected ',' or '}', found %q", p.snippet())
		}

		p.skipSpace()
		if p.peek() == '}' {
			p.pos++
			return m, nil
		}
		key, err = p.value(depth + 1)
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.peek() != ':' {
			return nil, p.errorf("expected ':' after map key, found %q", p.snippet())
		}
	}
}

// mapKey stringifies scalar keys; composite keys are rejected.
func (p *literalParser) mapKey(k any) (string, error) {
	switch v := k.(type) {
	case string:
		return v, nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case nil:
		return "null", nil
	}
	return "", p.errorf("unsupported map key of type %T", k)
}

// stringLit reads one or more adjacent string literals and concatenates them.
func (p *literalParser) stringLit() (any, error) {
	var b strings.Builder
	for {
		s, err := p.quoted(false)
		if err != nil {
			return nil, err
		}
		b.WriteString(s)
		save := p.pos
		p.skipSpace()
		if c := p.peek(); c != '"' && c != '\'' {
			p.pos = save
			return b.String(), nil
		}
	}
}

// quoted reads a single-, double-, or triple-quoted string starting at the
// quote character.
func (p *literalParser) quoted(raw bool) (string, error) {
	start := p.pos
	q := p.src[p.pos]
	delim := string(q)
	if strings.HasPrefix(p.src[p.pos:], strings.Repeat(delim, 3)) {
		delim = strings.Repeat(delim, 3)
	}
	p.pos += len(delim)

	var b strings.Builder
	for p.pos < len(p.src) {
		if strings.HasPrefix(p.src[p.pos:], delim) {
			p.pos += len(delim)
			return b.String(), nil
		}
		c := p.src[p.pos]
		if c != '\\' || raw {
			r, size := utf8.DecodeRuneInString(p.src[p.pos:])
			b.WriteRune(r)
			p.pos += size
			continue
		}
		if err := p.escape(&b); err != nil {
			return "", err
		}
	}
	p.pos = start
	return "", p.errorf("unterminated string starting %q", p.snippet())
}

func (p *literalParser) escape(b *strings.Builder) error {
	p.pos++ // backslash
	if p.pos >= len(p.src) {
		return p.errorf("dangling escape at end of input")
	}
	c := p.src[p.pos]
	p.pos++
	switch c {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case '0':
		b.WriteByte(0)
	case '\\', '\'', '"', '/':
		b.WriteByte(c)
	case '\n':
		// line continuation
	case 'x', 'u', 'U':
		width := 2
		if c == 'u' {
			width = 4
		} else if c == 'U' {
			width = 8
		}
		if p.pos+width > len(p.src) {
			return p.errorf("truncated \\%c escape", c)
		}
		n, err := strconv.ParseUint(p.src[p.pos:p.pos+width], 16, 32)
		if err != nil {
			return p.errorf("invalid \\%c escape %q", c, p.src[p.pos:p.pos+width])
		}
		p.pos += width
		b.WriteRune(rune(n))
	default:
		// Unknown escapes are kept verbatim.
		b.WriteByte('\\')
		b.WriteByte(c)
	}
	return nil
}

func (p *literalParser) number() (any, error) {
	start := p.pos
	if c := p.peek(); c == '-' || c == '+' {
		p.pos++
	}
	digits := 0
	isFloat := false
scan:
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case isDigit(c) || c == '_':
			digits++
		case c == '.' && !isFloat:
			isFloat = true
		case (c == 'e' || c == 'E') && digits > 0:
			isFloat = true
			if n := p.pos + 1; n < len(p.src) && (p.src[n] == '-' || p.src[n] == '+') {
				p.pos++
			}
		default:
			break scan
		}
		p.pos++
	}
	text := strings.ReplaceAll(p.src[start:p.pos], "_", "")
	if digits == 0 {
		p.pos = start
		return nil, p.errorf("invalid number %q", p.snippet())
	}
	if !isFloat {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return n, nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		p.pos = start
		return nil, p.errorf("invalid number %q", text)
	}
	return f, nil
}

// word reads keywords and string prefixes (r"...", u'...', b"...").
func (p *literalParser) word() (any, error) {
	start := p.pos
	for p.pos < len(p.src) && (isLetter(p.src[p.pos]) || isDigit(p.src[p.pos])) {
		p.pos++
	}
	w := p.src[start:p.pos]
	if c := p.peek(); (c == '"' || c == '\'') && len(w) <= 2 && strings.Trim(strings.ToLower(w), "rub") == "" {
		raw := strings.ContainsAny(w, "rR")
		s, err := p.quoted(raw)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	switch w {
	case "True", "true":
		return true, nil
	case "False", "false":
		return false, nil
	case "None", "null":
		return nil, nil
	}
	p.pos = start
	return nil, p.errorf("unsupported name %q", w)
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' }
