package markdown

import "strings"

// spanParser consumes a prefix of input and returns the remaining input.
type spanParser func(input string) (string, Span, bool)

// paragraphParsers are tried in order; the first match wins.
var paragraphParsers = []spanParser{
	parseBold,
	parseEmphasis,
	parseCode,
	parseLink,
	parsePlain,
	parseReservedRun,
}

// delimited matches open, decoded text up to term, then closing.
func delimited(input, open, closing string, term byte) (string, string, bool) {
	if !strings.HasPrefix(input, open) {
		return input, "", false
	}
	rest, text, ok := decode(input[len(open):], term)
	if !ok || !strings.HasPrefix(rest, closing) {
		return input, "", false
	}
	return rest[len(closing):], text, true
}

// doubleOrSingle prefers the doubled marker so **a** is not read as two
// adjacent spans.
func doubleOrSingle(input string, marker byte, kind SpanKind) (string, Span, bool) {
	single := string(marker)
	double := single + single
	if rest, text, ok := delimited(input, double, double, marker); ok {
		return rest, Span{Kind: kind, Text: text}, true
	}
	if rest, text, ok := delimited(input, single, single, marker); ok {
		return rest, Span{Kind: kind, Text: text}, true
	}
	return input, Span{}, false
}

func parseBold(input string) (string, Span, bool) {
	return doubleOrSingle(input, '*', SpanBold)
}

func parseEmphasis(input string) (string, Span, bool) {
	return doubleOrSingle(input, '_', SpanEmphasis)
}

func parseCode(input string) (string, Span, bool) {
	rest, text, ok := delimited(input, "`", "`", '`')
	if !ok {
		return input, Span{}, false
	}
	return rest, Span{Kind: SpanCode, Text: text}, true
}

func parseLink(input string) (string, Span, bool) {
	rest, text, ok := delimited(input, "[", "]", ']')
	if !ok {
		return input, Span{}, false
	}
	rest, url, ok := delimited(rest, "(", ")", ')')
	if !ok {
		return input, Span{}, false
	}
	return rest, Span{Kind: SpanLink, Text: text, URL: url}, true
}

func parsePlain(input string) (string, Span, bool) {
	n := 0
	for n < len(input) && input[n] != '\n' && !IsReserved(input[n]) {
		n++
	}
	if n == 0 {
		return input, Span{}, false
	}
	return input[n:], Span{Kind: SpanPlain, Text: input[:n]}, true
}

func parseReservedRun(input string) (string, Span, bool) {
	n := 0
	for n < len(input) && IsReserved(input[n]) {
		n++
	}
	if n == 0 {
		return input, Span{}, false
	}
	return input[n:], Span{Kind: SpanReserved, Text: input[:n]}, true
}

func parseParagraph(input string) (string, Block, bool) {
	var spans []Span
	for {
		matched := false
		for _, parse := range paragraphParsers {
			rest, span, ok := parse(input)
			if !ok {
				continue
			}
			spans = append(spans, span)
			input = rest
			matched = true
			break
		}
		if !matched {
			break
		}
	}
	if len(spans) == 0 {
		return input, Block{}, false
	}
	return input, Block{Kind: BlockParagraph, Spans: spans}, true
}

func parseHeader(input string) (string, Block, bool) {
	level := 0
	for level < len(input) && input[level] == '#' {
		level++
	}
	if level == 0 {
		return input, Block{}, false
	}
	n := level
	for n < len(input) && (input[n] == ' ' || input[n] == '\t') {
		n++
	}
	if n == level {
		return input, Block{}, false
	}
	rest, title, ok := parsePlain(input[n:])
	if !ok {
		return input, Block{}, false
	}
	return rest, Block{Kind: BlockHeader, Level: level, Text: title.Text}, true
}

func parseCodeBlock(input string) (string, Block, bool) {
	const fence = "```"
	if !strings.HasPrefix(input, fence) {
		return input, Block{}, false
	}
	rest, text, ok := decodeCode(input[len(fence):])
	if !ok || !strings.HasPrefix(rest, fence) {
		return input, Block{}, false
	}
	return rest[len(fence):], Block{Kind: BlockCode, Text: text}, true
}

// blockParsers are tried in order after leading whitespace is skipped.
var blockParsers = []func(string) (string, Block, bool){
	parseCodeBlock,
	parseHeader,
	parseParagraph,
}

func skipSpace(input string) string {
	return strings.TrimLeft(input, " \t\r\n")
}

// Parse splits input into blocks. It fails unless the whole input is
// consumed and at least one block is found.
func Parse(input string) (Document, error) {
	var doc Document
	rest := skipSpace(input)
	for rest != "" {
		matched := false
		for _, parse := range blockParsers {
			next, block, ok := parse(rest)
			if !ok {
				continue
			}
			doc.Blocks = append(doc.Blocks, block)
			rest = skipSpace(next)
			matched = true
			break
		}
		if !matched {
			break
		}
	}
	if len(doc.Blocks) == 0 {
		return Document{}, &ParseError{Offset: 0}
	}
	if rest != "" {
		return Document{}, &ParseError{Offset: len(input) - len(rest)}
	}
	return doc, nil
}
