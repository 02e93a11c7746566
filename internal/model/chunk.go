package model

// Category classifies the structural shape of a text chunk
type Category string

const (
	CategoryHeading  Category = "heading"  // Short title-like line, no terminal punctuation
	CategoryDate     Category = "date"     // Pure date/timestamp unit
	CategoryCitation Category = "citation" // DOI/ISBN/reference IDs, symbol-heavy spans
	CategoryList     Category = "list"     // Unit with multiple bullet/enumeration markers
	CategoryNormal   Category = "normal"   // Regular prose
)

// TextChunk is one classified unit of source text.
// Text is the exact source span; concatenating all chunks of a document
// in Index order reproduces the original input byte-for-byte.
type TextChunk struct {
	Text     string   `json:"text"`     // Exact span of the original input
	Category Category `json:"category"` // Structural classification
	Index    int      `json:"index"`    // Position in the original document (0-based)
	Start    int      `json:"start"`    // Byte offset of the span start
	End      int      `json:"end"`      // Byte offset one past the span end
}

// IsSeparator reports whether the chunk carries only whitespace.
// Separator chunks are reassembled verbatim and never sent to the LLM.
func (c TextChunk) IsSeparator() bool {
	for _, r := range c.Text {
		switch r {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return len(c.Text) > 0
}
