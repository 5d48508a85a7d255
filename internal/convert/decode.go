// Copyright dertuxmalwieder, 2026. Licensed under the CDDL-1.1.

package convert

import (
	"fmt"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/dertuxmalwieder/ws2markdown/internal/wordstar"
)

// HeaderSize is the length of the fixed file header. Its contents are not
// interpreted.
const HeaderSize = 128

// DecodeOptions controls how the raw body bytes become text.
type DecodeOptions struct {
	// StripHighBit clears bit 7 of every body byte. Older versions set it
	// on the last letter of each word and on soft carriage returns.
	StripHighBit bool
}

// Decode drops the file header and decodes the rest as UTF-8, replacing
// ill-formed sequences with U+FFFD. A file shorter than the header is a
// malformed document.
func Decode(raw []byte, opts DecodeOptions) (string, error) {
	if len(raw) < HeaderSize {
		return "", &wordstar.MalformedError{
			Reason: fmt.Sprintf("file is %d bytes, shorter than the %d-byte header", len(raw), HeaderSize),
		}
	}

	body := raw[HeaderSize:]
	if opts.StripHighBit {
		body = stripHighBit(body)
	}

	text, _, err := transform.Bytes(runes.ReplaceIllFormed(), body)
	if err != nil {
		return "", fmt.Errorf("decoding body: %w", err)
	}
	return string(text), nil
}

func stripHighBit(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[i] = c &^ 0x80
	}
	return out
}
