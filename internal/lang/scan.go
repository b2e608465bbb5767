// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package lang

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse reads the LANGUAGE mini-language into per-tag scopes:
//
//	[default]
//	KEY = "literal" "adjacent literals concatenate";
//	[eng enu]          // several tags may share one body
//	KEY = "...";
//
// Comments start with // outside string literals. An entry appearing
// before any [tag] header is a format error, as is an unterminated
// string or entry: this engine would rather fail the whole table than
// show silently wrong strings.
func Parse(data []byte) (map[string]Table, error) {
	s := &scanner{src: string(data)}
	scopes := make(map[string]Table)
	var tags []string

	for {
		s.skipBlank()
		if s.done() {
			return scopes, nil
		}
		if s.peek() == '[' {
			var err error
			tags, err = s.header()
			if err != nil {
				return nil, err
			}
			for _, tag := range tags {
				if scopes[tag] == nil {
					scopes[tag] = make(Table)
				}
			}
			continue
		}
		key, val, err := s.entry()
		if err != nil {
			return nil, err
		}
		if tags == nil {
			return nil, fmt.Errorf("%w: entry %q before any [language] header", ErrSyntax, key)
		}
		for _, tag := range tags {
			scopes[tag][normKey(key)] = val
		}
	}
}

type scanner struct {
	src string
	pos int
	ln  int // line breaks seen, for error messages
}

func (s *scanner) done() bool { return s.pos >= len(s.src) }
func (s *scanner) peek() byte { return s.src[s.pos] }

func (s *scanner) next() byte {
	c := s.src[s.pos]
	s.pos++
	if c == '\n' {
		s.ln++
	}
	return c
}

// skipBlank consumes whitespace and // comments (comments only ever
// start outside a string literal, the string reader never calls this)
func (s *scanner) skipBlank() {
	for !s.done() {
		switch c := s.peek(); {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			s.next()
		case c == '/' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '/':
			for !s.done() && s.peek() != '\n' {
				s.next()
			}
		default:
			return
		}
	}
}

func (s *scanner) errf(format string, arg ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrSyntax, s.ln+1, fmt.Sprintf(format, arg...))
}

func (s *scanner) header() ([]string, error) {
	s.next() // '['
	start := s.pos
	for !s.done() && s.peek() != ']' && s.peek() != '\n' {
		s.next()
	}
	if s.done() || s.peek() != ']' {
		return nil, s.errf("unterminated [language] header")
	}
	tags := strings.Fields(strings.ToLower(s.src[start:s.pos]))
	s.next() // ']'
	if len(tags) == 0 {
		return nil, s.errf("empty [language] header")
	}
	return tags, nil
}

func (s *scanner) entry() (key, val string, err error) {
	start := s.pos
	for !s.done() {
		c := s.peek()
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '=' {
			break
		}
		s.next()
	}
	key = s.src[start:s.pos]
	if key == "" {
		return "", "", s.errf("expected a key, got %q", s.peek())
	}

	s.skipBlank()
	if s.done() || s.peek() != '=' {
		return "", "", s.errf("expected '=' after key %q", key)
	}
	s.next()

	var sb strings.Builder
	for {
		s.skipBlank()
		if s.done() {
			return "", "", s.errf("unterminated entry for key %q", key)
		}
		switch s.peek() {
		case ';':
			s.next()
			return key, sb.String(), nil
		case '"':
			if err := s.literal(&sb); err != nil {
				return "", "", err
			}
		default:
			return "", "", s.errf("unexpected %q in entry for key %q", s.peek(), key)
		}
	}
}

func (s *scanner) literal(sb *strings.Builder) error {
	s.next() // opening quote
	for !s.done() {
		switch c := s.next(); c {
		case '"':
			return nil
		case '\\':
			if err := s.escape(sb); err != nil {
				return err
			}
		default:
			sb.WriteByte(c)
		}
	}
	return s.errf("unterminated string literal")
}

func (s *scanner) escape(sb *strings.Builder) error {
	if s.done() {
		return s.errf("dangling backslash")
	}
	switch c := s.next(); c {
	case 'n':
		sb.WriteByte('\n')
	case 'r':
		sb.WriteByte('\r')
	case 't':
		sb.WriteByte('\t')
	case '\\':
		sb.WriteByte('\\')
	case '"':
		sb.WriteByte('"')
	case '0':
		sb.WriteByte(0)
	case 'a':
		sb.WriteByte(7)
	case 'b':
		sb.WriteByte(8)
	case 'f':
		sb.WriteByte(12)
	case 'v':
		sb.WriteByte(11)
	case 'u': // exactly 4 hex digits
		if s.pos+4 > len(s.src) {
			return s.errf(`truncated \u escape`)
		}
		n, err := strconv.ParseUint(s.src[s.pos:s.pos+4], 16, 32)
		if err != nil {
			return s.errf(`bad \u escape %q`, s.src[s.pos:s.pos+4])
		}
		s.pos += 4
		sb.WriteRune(rune(n))
	case 'x': // 1 or 2 hex digits
		n := 0
		digits := 0
		for digits < 2 && s.pos < len(s.src) && isHex(s.src[s.pos]) {
			n = n<<4 | hexVal(s.src[s.pos])
			s.pos++
			digits++
		}
		if digits == 0 {
			return s.errf(`bad \x escape`)
		}
		sb.WriteByte(byte(n))
	default:
		// unknown escapes pass the character through
		sb.WriteByte(c)
	}
	return nil
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func hexVal(c byte) int {
	switch {
	case c <= '9':
		return int(c - '0')
	case c <= 'F':
		return int(c-'A') + 10
	default:
		return int(c-'a') + 10
	}
}
