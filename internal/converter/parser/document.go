package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"building-converter/internal/converter/models"
)

// ============================================================
// Document Reader
// ============================================================

const (
	commentMarker = "$"
	endMarker     = ".."
)

// ParseFile reads and parses a BDL document from disk.
func ParseFile(path string) ([]*models.Command, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return ReadCommands(f)
}

// ReadCommands splits a document into logical commands and parses each of them
// in document order. The first failing command aborts the read.
func ReadCommands(r io.Reader) ([]*models.Command, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var (
		commands  []*models.Command
		buf       strings.Builder
		startLine int
		lineNo    int
	)

	for sc.Scan() {
		lineNo++
		line := toASCII(sc.Text())
		if strings.HasPrefix(strings.TrimSpace(line), commentMarker) {
			continue
		}

		idx := terminatorIndex(line)
		content := line
		if idx >= 0 {
			content = line[:idx]
		}

		if strings.TrimSpace(content) != "" {
			if buf.Len() == 0 {
				startLine = lineNo
			}
			buf.WriteString(content)
			buf.WriteByte('\n')
		}

		if idx < 0 {
			continue
		}
		if buf.Len() == 0 {
			// bare terminator line, nothing to build
			continue
		}

		cmd, err := ParseCommand(buf.String(), startLine)
		if err != nil {
			return nil, err
		}
		commands = append(commands, cmd)
		buf.Reset()
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	if strings.TrimSpace(buf.String()) != "" {
		e := models.NewError(models.KindMalformedCommand, nil, "", offending(buf.String()), "missing "+endMarker+" terminator")
		e.Line = startLine
		return nil, e
	}

	return commands, nil
}

// terminatorIndex finds the end marker outside quoted names.
func terminatorIndex(line string) int {
	inQuote := false
	for i := 0; i < len(line)-1; i++ {
		switch line[i] {
		case '"':
			inQuote = !inQuote
		case '.':
			if !inQuote && line[i+1] == '.' {
				return i
			}
		}
	}
	return -1
}

// toASCII replaces anything outside 7-bit ASCII so odd encodings never abort a read.
func toASCII(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return strings.Map(func(r rune) rune {
				if r >= 0x80 {
					return '?'
				}
				return r
			}, s)
		}
	}
	return s
}
