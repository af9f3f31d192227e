package shared

import (
	"strings"
	"unicode/utf8"
)

// Split breaks text into chunks of at most maxRunes runes, cutting at line
// breaks where possible. Chunks holding only whitespace are dropped.
func Split(text string, maxRunes int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	currentRunes := 0
	flush := func() {
		if chunk := current.String(); strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
		current.Reset()
		currentRunes = 0
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		n := utf8.RuneCountInString(line)
		if currentRunes+n <= maxRunes {
			current.WriteString(line)
			currentRunes += n
			continue
		}
		flush()
		runes := []rune(line)
		for len(runes) > maxRunes {
			current.WriteString(string(runes[:maxRunes]))
			flush()
			runes = runes[maxRunes:]
		}
		current.WriteString(string(runes))
		currentRunes = len(runes)
	}
	flush()
	return chunks
}
