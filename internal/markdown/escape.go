package markdown

import "strings"

// Reserved lists the characters Telegram MarkdownV2 requires to be escaped
// whenever they are emitted literally.
const Reserved = "_*[]()~`>#+-=|{}.!\\"

// IsReserved reports whether c must be backslash-escaped in wire output.
func IsReserved(c byte) bool {
	switch c {
	case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!', '\\':
		return true
	}
	return false
}

// Encode prefixes every reserved character of value with a backslash.
func Encode(value string) string {
	if value == "" {
		return value
	}
	var builder strings.Builder
	builder.Grow(len(value) * 2)
	for i := 0; i < len(value); i++ {
		if IsReserved(value[i]) {
			builder.WriteByte('\\')
		}
		builder.WriteByte(value[i])
	}
	return builder.String()
}

// decode reads escaped text until an unescaped term, a newline or the end of
// input. Only backslash followed by a reserved character is a valid escape.
// It returns the remaining input and the decoded text, or ok=false when
// nothing could be consumed or an invalid escape was found.
func decode(input string, term byte) (rest, text string, ok bool) {
	var builder strings.Builder
	i := 0
	for i < len(input) {
		c := input[i]
		if c == term || c == '\n' {
			break
		}
		if c == '\\' {
			if i+1 >= len(input) || !IsReserved(input[i+1]) {
				return input, "", false
			}
			builder.WriteByte(input[i+1])
			i += 2
			continue
		}
		builder.WriteByte(c)
		i++
	}
	if i == 0 {
		return input, "", false
	}
	return input[i:], builder.String(), true
}

// decodeCode reads code block content up to the first unescaped backtick.
// Only "\`" is an escape here. Every other byte, newlines and lone
// backslashes included, is kept as is.
func decodeCode(input string) (rest, text string, ok bool) {
	var builder strings.Builder
	i := 0
	for i < len(input) {
		c := input[i]
		if c == '`' {
			break
		}
		if c == '\\' && i+1 < len(input) && input[i+1] == '`' {
			builder.WriteByte('`')
			i += 2
			continue
		}
		builder.WriteByte(c)
		i++
	}
	if i == 0 {
		return input, "", false
	}
	return input[i:], builder.String(), true
}
