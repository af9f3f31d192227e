// Package markdown converts loosely formatted Markdown, as written by users
// and language models, into the Telegram MarkdownV2 dialect.
//
// Recognized spans (bold, italic, inline code, links) are kept as formatting
// and every other reserved character is escaped, so the result is always
// accepted by the Bot API in MarkdownV2 mode. Spans never nest.
package markdown

import (
	"errors"
	"fmt"
)

// ErrUnparsable is matched by every *ParseError.
var ErrUnparsable = errors.New("cannot parse as wire markdown")

// ParseError reports input that could not be converted as a whole.
type ParseError struct {
	// Offset is the byte offset of the first unconsumed input.
	Offset int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at offset %d", ErrUnparsable, e.Offset)
}

// Is makes errors.Is(err, ErrUnparsable) work.
func (e *ParseError) Is(target error) bool {
	return target == ErrUnparsable
}

// Escape converts input into MarkdownV2 text.
func Escape(input string) (string, error) {
	doc, err := Parse(input)
	if err != nil {
		return "", err
	}
	return doc.Render(), nil
}
