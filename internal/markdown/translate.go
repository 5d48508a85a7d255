// Copyright dertuxmalwieder, 2026. Licensed under the CDDL-1.1.

// Package markdown translates parsed WordStar line records into Markdown.
//
// Translation is a single in-order pass. The only state carried between
// lines is the current left margin, set by .lm and applied to every
// following normal line.
package markdown

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dertuxmalwieder/ws2markdown/internal/wordstar"
	"github.com/dertuxmalwieder/ws2markdown/pkg/types"
)

var (
	// ErrMissingFileName is reported when .fi has no usable file name. The
	// line produces no output.
	ErrMissingFileName = errors.New("missing file name")

	// ErrInvalidMarginValue is reported when the .lm argument is not a
	// non-negative integer within range. The margin is reset to 0.
	ErrInvalidMarginValue = errors.New("invalid margin value")

	// ErrContract is returned when the parse tree holds something the parser
	// never produces, such as a nil record or a heading level outside 1..5.
	ErrContract = errors.New("invalid parse tree")
)

// Warning is a per-line anomaly that was absorbed during translation.
type Warning struct {
	Line int
	Err  error
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d: %v", w.Line, w.Err)
}

var modifierTokens = map[wordstar.Modifier]string{
	wordstar.Bold:      "**",
	wordstar.Italic:    "*",
	wordstar.Underline: "__",
}

// Option configures a Translator.
type Option func(*Translator)

// WithMarginMarker sets the string emitted once per margin column.
func WithMarginMarker(marker string) Option {
	return func(t *Translator) { t.marginMarker = marker }
}

// WithMaxMargin sets the largest accepted .lm value. Zero or less removes
// the cap.
func WithMaxMargin(max int) Option {
	return func(t *Translator) { t.maxMargin = max }
}

// WithWarnings registers a callback for absorbed per-line anomalies.
func WithWarnings(fn func(Warning)) Option {
	return func(t *Translator) { t.onWarning = fn }
}

// Translator turns line records into Markdown. A Translator may be reused
// for several documents but not from several goroutines at once.
type Translator struct {
	marginMarker string
	maxMargin    int
	onWarning    func(Warning)

	leftMargin int
}

// New returns a Translator with the given options applied over the defaults.
func New(opts ...Option) *Translator {
	t := &Translator{
		marginMarker: types.DefaultMarginMarker,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Translate converts lines with a default Translator.
func Translate(lines []wordstar.Line) (string, error) {
	return New().Translate(lines)
}

// Translate walks lines in order and returns the Markdown text. The left
// margin starts at 0 for every call.
func (t *Translator) Translate(lines []wordstar.Line) (string, error) {
	t.leftMargin = 0

	var out strings.Builder
	for i, line := range lines {
		if err := t.translateLine(&out, line); err != nil {
			return "", fmt.Errorf("record %d: %w", i, err)
		}
	}
	return out.String(), nil
}

// LeftMargin returns the margin in effect after the last translated line.
func (t *Translator) LeftMargin() int {
	return t.leftMargin
}

func (t *Translator) translateLine(out *strings.Builder, line wordstar.Line) error {
	switch l := line.(type) {
	case *wordstar.HeaderLine:
		if l == nil {
			return fmt.Errorf("%w: nil header line", ErrContract)
		}
		if !l.Level.Valid() {
			return fmt.Errorf("%w: line %d: heading level %d", ErrContract, l.Number, l.Level)
		}
		out.WriteString(strings.Repeat("#", int(l.Level)))
		out.WriteByte(' ')
		out.WriteString(l.Text)
		out.WriteByte('\n')

	case *wordstar.NormalLine:
		if l == nil {
			return fmt.Errorf("%w: nil normal line", ErrContract)
		}
		out.WriteString(strings.Repeat(t.marginMarker, t.leftMargin))
		for _, seg := range l.Segments {
			switch s := seg.(type) {
			case wordstar.Text:
				out.WriteString(string(s))
			case wordstar.Modifier:
				tok, ok := modifierTokens[s]
				if !ok {
					return fmt.Errorf("%w: line %d: modifier %d", ErrContract, l.Number, int(s))
				}
				out.WriteString(tok)
			default:
				return fmt.Errorf("%w: line %d: segment %T", ErrContract, l.Number, seg)
			}
		}
		out.WriteByte('\n')

	case *wordstar.DotCommandLine:
		if l == nil {
			return fmt.Errorf("%w: nil dot command line", ErrContract)
		}
		return t.translateCommand(out, l)

	default:
		return fmt.Errorf("%w: record %T", ErrContract, line)
	}
	return nil
}

func (t *Translator) translateCommand(out *strings.Builder, l *wordstar.DotCommandLine) error {
	switch c := l.Command.(type) {
	case wordstar.InsertFile:
		base, err := Basename(c.Path)
		if err != nil {
			t.warn(l.Number, err)
			return nil
		}
		fmt.Fprintf(out, "\n[%s](%s)\n\n", base, c.Path)

	case wordstar.LeftMargin:
		if !c.HasArg {
			t.leftMargin = 0
			return nil
		}
		n, err := t.parseMargin(c.Arg)
		if err != nil {
			t.warn(l.Number, err)
		}
		t.leftMargin = n

	case wordstar.PageBreak:
		out.WriteString("\n----\n\n")

	case wordstar.Unknown:
		// Valid input without a Markdown counterpart.

	default:
		return fmt.Errorf("%w: line %d: command %T", ErrContract, l.Number, l.Command)
	}
	return nil
}

// parseMargin returns the margin for an .lm argument, or 0 and an
// ErrInvalidMarginValue error.
func (t *Translator) parseMargin(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 || (t.maxMargin > 0 && n > t.maxMargin) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMarginValue, arg)
	}
	return n, nil
}

func (t *Translator) warn(line int, err error) {
	if t.onWarning != nil {
		t.onWarning(Warning{Line: line, Err: err})
	}
}

// Basename returns the final component of a file path as written in a
// document. Both '/' and '\' separate components and a leading drive letter
// ("B:NAME.WS") is dropped. It fails with ErrMissingFileName when nothing
// usable remains.
func Basename(path string) (string, error) {
	name := strings.TrimRight(path, `/\`)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	} else if len(name) >= 2 && name[1] == ':' && isDriveLetter(name[0]) {
		name = name[2:]
	}
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrMissingFileName, path)
	}
	return name, nil
}

func isDriveLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
