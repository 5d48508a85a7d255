// Copyright dertuxmalwieder, 2026. Licensed under the CDDL-1.1.

// Package wordstar parses the text body of a WordStar document (everything
// after the 128-byte file header) into a sequence of typed line records.
//
// The body is line oriented. A line starting with '.' in the first column is
// a dot command; .h1 through .h5 are headings. Every other line is running
// text in which ^B, ^Y and ^S toggle bold, italic and underline. Parsing is a
// pure function of its input and is safe to run concurrently.
package wordstar

import (
	"strings"
	"unicode"
)

// Control characters with a meaning in the body.
const (
	ctrlBold      = '\x02' // ^B
	ctrlUnderline = '\x13' // ^S
	ctrlItalic    = '\x19' // ^Y
	ctrlEOF       = '\x1a' // ^Z, everything after it is padding
	ctrlExtended  = '\x1b' // ESC, opens an extended character sequence
	ctrlExtEnd    = '\x1c' // closes an extended character sequence
)

var modifiers = map[rune]Modifier{
	ctrlBold:      Bold,
	ctrlItalic:    Italic,
	ctrlUnderline: Underline,
}

// Parse splits body into lines and classifies each one. It fails with a
// *MalformedError (matching ErrMalformedDocument) when any line does not fit
// the grammar; no partial result is returned in that case.
func Parse(body string) ([]Line, error) {
	if i := strings.IndexRune(body, ctrlEOF); i >= 0 {
		body = body[:i]
	}

	raw := splitLines(body)
	lines := make([]Line, 0, len(raw))
	for i, text := range raw {
		line, err := parseLine(text, i+1)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// splitLines splits on "\n", drops a trailing "\r" from each line and does
// not produce an empty record for a final terminator.
func splitLines(body string) []string {
	if body == "" {
		return nil
	}
	parts := strings.Split(body, "\n")
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	for i, p := range parts {
		parts[i] = strings.TrimSuffix(p, "\r")
	}
	return parts
}

func parseLine(text string, number int) (Line, error) {
	if !strings.HasPrefix(text, ".") {
		segments, err := parseSpan(text, number, 1)
		if err != nil {
			return nil, err
		}
		return &NormalLine{Number: number, Segments: segments}, nil
	}

	name, args, argCol := splitCommand(text)
	if level, ok := headingLevel(name); ok {
		lead := len(args) - len(strings.TrimLeft(args, " \t"))
		segments, err := parseSpan(args[lead:], number, argCol+lead)
		if err != nil {
			return nil, err
		}
		return &HeaderLine{
			Number: number,
			Level:  level,
			Text:   strings.TrimRight(PlainText(segments), " \t"),
		}, nil
	}

	return &DotCommandLine{Number: number, Command: parseCommand(name, args)}, nil
}

// splitCommand separates a dot-command line into its lower-cased name and the
// raw remainder. argCol is the 1-based column where the remainder starts.
func splitCommand(text string) (name, args string, argCol int) {
	rest := text[1:]
	if strings.HasPrefix(rest, ".") {
		// ".." starts a comment.
		return ".", rest[1:], 3
	}

	n := 0
	for n < len(rest) && isASCIILetter(rest[n]) {
		n++
	}
	// Heading markers carry their level as trailing digits. More than one
	// digit names no heading and falls through to Unknown.
	if n == 1 && (rest[0] == 'h' || rest[0] == 'H') {
		for n < len(rest) && rest[n] >= '0' && rest[n] <= '9' {
			n++
		}
	}
	return strings.ToLower(rest[:n]), rest[n:], n + 2
}

func headingLevel(name string) (Level, bool) {
	if len(name) != 2 || name[0] != 'h' {
		return 0, false
	}
	level := Level(name[1] - '0')
	return level, level.Valid()
}

func parseCommand(name, args string) Command {
	args = strings.TrimSpace(args)
	switch name {
	case "fi", "file":
		return InsertFile{Path: args}
	case "lm":
		return LeftMargin{Arg: args, HasArg: args != ""}
	case "pa":
		return PageBreak{}
	default:
		return Unknown{Name: name, Args: args}
	}
}

// parseSpan tokenizes running text into displayed text and modifiers. col is
// the 1-based column of span[0] within its line, used for error positions.
func parseSpan(span string, number, col int) ([]Segment, error) {
	var (
		segments []Segment
		text     strings.Builder
	)
	flush := func() {
		if text.Len() > 0 {
			segments = append(segments, Text(text.String()))
			text.Reset()
		}
	}

	runes := []rune(span)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if m, ok := modifiers[r]; ok {
			flush()
			segments = append(segments, m)
			continue
		}
		switch {
		case r == ctrlExtended:
			if i+2 >= len(runes) || runes[i+2] != ctrlExtEnd {
				return nil, &MalformedError{
					Line:   number,
					Column: col + len(string(runes[:i])),
					Reason: "unterminated extended character sequence",
				}
			}
			text.WriteRune(runes[i+1])
			i += 2
		case r == '\t':
			text.WriteRune(r)
		case unicode.IsControl(r) && r < 0x80:
			// Formatting codes this converter does not map are dropped.
		default:
			text.WriteRune(r)
		}
	}
	flush()
	return segments, nil
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
