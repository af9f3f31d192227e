package markdown

import (
	"strings"
)

// SpanKind identifies an inline construct of a paragraph.
type SpanKind int

const (
	// SpanPlain is a run of ordinary characters.
	SpanPlain SpanKind = iota
	// SpanReserved is a run of reserved characters that matched no span.
	SpanReserved
	// SpanBold is *text* or **text**.
	SpanBold
	// SpanEmphasis is _text_ or __text__.
	SpanEmphasis
	// SpanCode is `text`.
	SpanCode
	// SpanLink is [text](url).
	SpanLink
)

// String returns a readable span kind name.
func (k SpanKind) String() string {
	switch k {
	case SpanPlain:
		return "plain"
	case SpanReserved:
		return "reserved"
	case SpanBold:
		return "bold"
	case SpanEmphasis:
		return "emphasis"
	case SpanCode:
		return "code"
	case SpanLink:
		return "link"
	default:
		return "unknown"
	}
}

// Span is a single inline construct. Text and URL hold decoded text.
type Span struct {
	Kind SpanKind
	Text string
	URL  string
}

// BlockKind identifies a top-level document unit.
type BlockKind int

const (
	// BlockParagraph is a sequence of spans.
	BlockParagraph BlockKind = iota
	// BlockHeader is a run of '#' followed by a title.
	BlockHeader
	// BlockCode is a fenced code block.
	BlockCode
)

// Block is a top-level document unit.
type Block struct {
	Kind BlockKind
	// Level is the number of '#' of a header.
	Level int
	// Text is the header title or the code block content.
	Text string
	// Spans are the paragraph contents.
	Spans []Span
}

// Document is the parsed form of an input message.
type Document struct {
	Blocks []Block
}

// Render returns the MarkdownV2 wire form of the document.
func (d Document) Render() string {
	builder := &strings.Builder{}
	for idx, block := range d.Blocks {
		if idx > 0 {
			builder.WriteString("\n\n")
		}
		block.render(builder)
	}
	return builder.String()
}

func (b Block) render(builder *strings.Builder) {
	switch b.Kind {
	case BlockHeader:
		builder.WriteString("`")
		builder.WriteString(Encode(strings.Repeat("#", b.Level)))
		builder.WriteString("` __")
		builder.WriteString(Encode(b.Text))
		builder.WriteString("__")
	case BlockCode:
		builder.WriteString("```")
		builder.WriteString(Encode(b.Text))
		builder.WriteString("```")
	default:
		for _, span := range b.Spans {
			span.render(builder)
		}
	}
}

func (s Span) render(builder *strings.Builder) {
	switch s.Kind {
	case SpanBold:
		builder.WriteString("*")
		builder.WriteString(Encode(s.Text))
		builder.WriteString("*")
	case SpanEmphasis:
		builder.WriteString("_")
		builder.WriteString(Encode(s.Text))
		builder.WriteString("_")
	case SpanCode:
		builder.WriteString("`")
		builder.WriteString(Encode(s.Text))
		builder.WriteString("`")
	case SpanLink:
		builder.WriteString("[")
		builder.WriteString(Encode(s.Text))
		builder.WriteString("](")
		builder.WriteString(Encode(s.URL))
		builder.WriteString(")")
	default:
		builder.WriteString(Encode(s.Text))
	}
}
