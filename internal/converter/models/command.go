package models

import (
	"fmt"
	"strconv"
	"strings"
)

// ============================================================
// BDL Command
// ============================================================

// Attribute is a single KEY = VALUE pair as it appeared in the document.
// Value keeps its delimiters (quotes, parentheses, asterisks).
type Attribute struct {
	Key   string
	Value string
}

// Command is one parsed unit of a BDL document.
type Command struct {
	Identifier string   // utype, empty for anonymous commands
	Keyword    string   // FLOOR, SPACE, EXTERIOR-WALL, POLYGON ...
	Qualifiers []string // bare words after a bare keyword (SET-DEFAULT FOR SPACE)
	Attributes []Attribute
	Line       int

	Parents  []*Command
	Children []*Command
}

// NewCommand creates a command with no attributes.
func NewCommand(identifier, keyword string, line int) *Command {
	return &Command{
		Identifier: identifier,
		Keyword:    strings.ToUpper(keyword),
		Line:       line,
	}
}

// Name returns the utype or a stable synthetic name for anonymous commands.
func (c *Command) Name() string {
	if c.Identifier != "" {
		return c.Identifier
	}
	return fmt.Sprintf("%s-%d", c.Keyword, c.Line)
}

func (c *Command) String() string {
	if c.Identifier != "" {
		return fmt.Sprintf("%q = %s", c.Identifier, c.Keyword)
	}
	return c.Keyword
}

// Set stores an attribute. A repeated key overwrites the earlier value in place.
func (c *Command) Set(key, value string) {
	key = strings.ToUpper(key)
	for i := range c.Attributes {
		if c.Attributes[i].Key == key {
			c.Attributes[i].Value = value
			return
		}
	}
	c.Attributes = append(c.Attributes, Attribute{Key: key, Value: value})
}

// Get returns the raw attribute value.
func (c *Command) Get(key string) (string, bool) {
	key = strings.ToUpper(key)
	for _, attr := range c.Attributes {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return "", false
}

func (c *Command) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// StringValue returns the attribute value with surrounding quotes removed.
func (c *Command) StringValue(key string) (string, bool) {
	v, ok := c.Get(key)
	if !ok {
		return "", false
	}
	return Unquote(v), true
}

// Float parses a numeric attribute. ok is false when the attribute is absent;
// err is set when it is present but not a number.
func (c *Command) Float(key string) (val float64, ok bool, err error) {
	raw, ok := c.Get(key)
	if !ok {
		return 0, false, nil
	}
	val, err = strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, true, &Error{
			Kind:       KindMalformedCommand,
			Identifier: c.Identifier,
			Keyword:    c.Keyword,
			Attribute:  key,
			Value:      raw,
			Err:        err,
		}
	}
	return val, true, nil
}

// FloatOr returns the numeric attribute or def when absent.
func (c *Command) FloatOr(key string, def float64) (float64, error) {
	v, ok, err := c.Float(key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return def, nil
	}
	return v, nil
}

// List splits a parenthesised list value into unquoted items.
func (c *Command) List(key string) ([]string, bool) {
	raw, ok := c.Get(key)
	if !ok {
		return nil, false
	}
	return SplitList(raw), true
}

// FloatList parses a parenthesised list of numbers, e.g. ( 10, 20.5 ).
func (c *Command) FloatList(key string) ([]float64, bool, error) {
	items, ok := c.List(key)
	if !ok {
		return nil, false, nil
	}
	out := make([]float64, 0, len(items))
	for _, item := range items {
		f, err := strconv.ParseFloat(item, 64)
		if err != nil {
			raw, _ := c.Get(key)
			return nil, true, &Error{
				Kind:       KindMalformedCommand,
				Identifier: c.Identifier,
				Keyword:    c.Keyword,
				Attribute:  key,
				Value:      raw,
				Err:        err,
			}
		}
		out = append(out, f)
	}
	return out, true, nil
}

// Parent returns the immediate parent or nil.
func (c *Command) Parent() *Command {
	if len(c.Parents) == 0 {
		return nil
	}
	return c.Parents[len(c.Parents)-1]
}

// Ancestor returns the closest parent with the given keyword.
func (c *Command) Ancestor(keyword string) *Command {
	for i := len(c.Parents) - 1; i >= 0; i-- {
		if c.Parents[i].Keyword == keyword {
			return c.Parents[i]
		}
	}
	return nil
}

// ============================================================
// Value helpers
// ============================================================

// Unquote strips one pair of surrounding double quotes.
func Unquote(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		return v[1 : len(v)-1]
	}
	return v
}

// SplitList turns "( a, "b c", 3 )" into [a, b c, 3]. Commas inside quotes are kept.
func SplitList(v string) []string {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "(") && strings.HasSuffix(v, ")") {
		v = v[1 : len(v)-1]
	}

	var items []string
	var cur strings.Builder
	inQuote := false
	flush := func() {
		item := Unquote(cur.String())
		if item != "" {
			items = append(items, item)
		}
		cur.Reset()
	}

	for _, r := range v {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case r == ',' && !inQuote:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return items
}
