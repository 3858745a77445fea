package parser

import (
	"regexp"
	"strings"
	"unicode"

	"building-converter/internal/converter/models"
)

// ============================================================
// Command Builder
// ============================================================

var keyRe = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9_\-:.]*)\s*=`)

// Keys whose values may carry commas, parentheses and quotes and run until the
// next KEY = boundary.
var greedyKeys = map[string]bool{
	"MATERIAL":       true,
	"DAY-SCHEDULES":  true,
	"WEEK-SCHEDULES": true,
}

type scanner struct {
	text string
	pos  int
	line int
}

// ParseCommand builds one command from the text of a logical command, without
// its terminator. line is used in error messages.
func ParseCommand(text string, line int) (*models.Command, error) {
	s := &scanner{text: text, line: line}
	s.skipSpace()
	if s.eof() {
		return nil, s.malformed("", "empty command")
	}

	cmd, err := s.header()
	if err != nil {
		return nil, err
	}

	for {
		s.skipSpace()
		if s.eof() {
			return cmd, nil
		}
		key, value, err := s.assignment(cmd)
		if err != nil {
			return nil, err
		}
		cmd.Set(key, value)
	}
}

// header reads `"name" = KEYWORD` or a bare `KEYWORD [QUALIFIER ...]`.
func (s *scanner) header() (*models.Command, error) {
	var identifier string
	if s.peek() == '"' {
		end := strings.IndexByte(s.text[s.pos+1:], '"')
		if end < 0 {
			return nil, s.malformed("", "unterminated name")
		}
		identifier = s.text[s.pos+1 : s.pos+1+end]
		s.pos += end + 2
		s.skipSpace()
		if s.peek() != '=' {
			return nil, s.malformed("", "expected = after name")
		}
		s.pos++
		s.skipSpace()
	}

	keyword := s.token()
	if keyword == "" {
		return nil, s.malformed("", "missing keyword")
	}
	cmd := models.NewCommand(identifier, keyword, s.line)

	for {
		s.skipSpace()
		if s.eof() || keyRe.MatchString(s.rest()) || !isWordStart(s.peek()) {
			return cmd, nil
		}
		cmd.Qualifiers = append(cmd.Qualifiers, s.token())
	}
}

func (s *scanner) assignment(cmd *models.Command) (string, string, error) {
	m := keyRe.FindStringSubmatch(s.rest())
	if m == nil {
		return "", "", s.malformedFor(cmd, "", "expected KEY = VALUE")
	}
	key := strings.ToUpper(m[1])
	s.pos += len(m[0])
	s.skipSpace()
	if s.eof() {
		return "", "", s.malformedFor(cmd, key, "missing value")
	}

	var value string
	var ok bool
	switch c := s.peek(); {
	case greedyKeys[key]:
		value, ok = s.untilNextKey()
	case c == '*':
		value, ok = s.delimited('*', '*')
	case c == '(':
		value, ok = s.balanced('(', ')')
	case c == '"':
		value, ok = s.delimited('"', '"')
	case c == '{':
		value, ok = s.balanced('{', '}')
	default:
		value = s.token()
		ok = value != ""
	}
	if !ok {
		return "", "", s.malformedFor(cmd, key, "unterminated value")
	}
	return key, value, nil
}

// ============================================================
// Value rules
// ============================================================

func (s *scanner) delimited(open, close byte) (string, bool) {
	start := s.pos
	if s.text[start] != open {
		return "", false
	}
	end := strings.IndexByte(s.text[start+1:], close)
	if end < 0 {
		return "", false
	}
	s.pos = start + end + 2
	return s.text[start:s.pos], true
}

func (s *scanner) balanced(open, close byte) (string, bool) {
	start := s.pos
	depth := 0
	inQuote := false
	for i := start; i < len(s.text); i++ {
		switch c := s.text[i]; {
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				s.pos = i + 1
				return s.text[start:s.pos], true
			}
		}
	}
	return "", false
}

// untilNextKey consumes up to the next KEY = that is outside quotes and
// parentheses and follows whitespace.
func (s *scanner) untilNextKey() (string, bool) {
	start := s.pos
	depth := 0
	inQuote := false
	for i := start; i < len(s.text); i++ {
		c := s.text[i]
		switch {
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '(':
			depth++
		case c == ')':
			depth--
		case depth == 0 && i > start && isSpace(s.text[i-1]) && keyRe.MatchString(s.text[i:]):
			s.pos = i
			return strings.TrimSpace(s.text[start:i]), true
		}
	}
	s.pos = len(s.text)
	value := strings.TrimSpace(s.text[start:])
	return value, value != "" && !inQuote && depth == 0
}

// ============================================================
// Low-level scanning
// ============================================================

func (s *scanner) eof() bool    { return s.pos >= len(s.text) }
func (s *scanner) rest() string { return s.text[s.pos:] }

func (s *scanner) peek() byte {
	if s.eof() {
		return 0
	}
	return s.text[s.pos]
}

func (s *scanner) skipSpace() {
	for !s.eof() && isSpace(s.text[s.pos]) {
		s.pos++
	}
}

func (s *scanner) token() string {
	start := s.pos
	for !s.eof() && !isSpace(s.text[s.pos]) && s.text[s.pos] != '=' {
		s.pos++
	}
	return s.text[start:s.pos]
}

func isSpace(c byte) bool {
	return unicode.IsSpace(rune(c))
}

func isWordStart(c byte) bool {
	return c == '-' || c == '_' || unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c))
}

func (s *scanner) malformed(attr, msg string) error {
	return s.malformedFor(nil, attr, msg)
}

func (s *scanner) malformedFor(cmd *models.Command, attr, msg string) error {
	e := models.NewError(models.KindMalformedCommand, cmd, attr, offending(s.rest()), msg)
	e.Line = s.line
	return e
}

func offending(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > 80 {
		return text[:77] + "..."
	}
	return text
}
