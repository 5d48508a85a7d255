// Copyright dertuxmalwieder, 2026. Licensed under the CDDL-1.1.

package wordstar

import "strings"

// Level is a heading level. Only 1 through 5 exist in the source format.
type Level int

const (
	MinLevel Level = 1
	MaxLevel Level = 5
)

// Valid reports whether l is a representable heading level.
func (l Level) Valid() bool {
	return l >= MinLevel && l <= MaxLevel
}

// Line is one classified record of the document body. The concrete type is
// one of *HeaderLine, *NormalLine or *DotCommandLine.
type Line interface {
	// LineNumber is the 1-based position of the line in the body.
	LineNumber() int
	line()
}

// HeaderLine is a .h1 through .h5 line.
type HeaderLine struct {
	Number int
	Level  Level
	Text   string
}

// NormalLine is a line of running text.
type NormalLine struct {
	Number   int
	Segments []Segment
}

// DotCommandLine is a line starting with '.' that is not a heading.
type DotCommandLine struct {
	Number  int
	Command Command
}

func (l *HeaderLine) LineNumber() int     { return l.Number }
func (l *NormalLine) LineNumber() int     { return l.Number }
func (l *DotCommandLine) LineNumber() int { return l.Number }

func (*HeaderLine) line()     {}
func (*NormalLine) line()     {}
func (*DotCommandLine) line() {}

// Segment is a piece of a normal line: Text or Modifier.
type Segment interface {
	segment()
}

// Text is displayed text, passed through unchanged.
type Text string

// Modifier is an in-band formatting toggle. Every occurrence stands alone;
// pairing is left to the document.
type Modifier int

const (
	Bold Modifier = iota + 1
	Italic
	Underline
)

func (m Modifier) String() string {
	switch m {
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	case Underline:
		return "underline"
	default:
		return "unknown"
	}
}

func (Text) segment()     {}
func (Modifier) segment() {}

// PlainText concatenates the Text segments of a line, dropping modifiers.
func PlainText(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		if t, ok := s.(Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

// Command is the directive carried by a DotCommandLine: InsertFile,
// LeftMargin, PageBreak or Unknown.
type Command interface {
	command()
}

// InsertFile is .fi: include another document. Path may be empty.
type InsertFile struct {
	Path string
}

// LeftMargin is .lm: set the left margin, or reset it when HasArg is false.
// Arg is kept unparsed; validating it is the translator's job.
type LeftMargin struct {
	Arg    string
	HasArg bool
}

// PageBreak is .pa.
type PageBreak struct{}

// Unknown is any other dot command, comments ("..") included.
type Unknown struct {
	Name string
	Args string
}

func (InsertFile) command() {}
func (LeftMargin) command() {}
func (PageBreak) command()  {}
func (Unknown) command()    {}
