package chunk

import "github.com/klartext/klartext/internal/model"

// Splitter segments raw input into classified chunks without losing a
// single byte: units are separated by blank lines, and the blank-line
// runs themselves become separator chunks so that concatenating all
// chunks in index order reproduces the input exactly.
type Splitter struct {
	classifier *Classifier
}

// NewSplitter creates a splitter that classifies units with the given classifier.
func NewSplitter(classifier *Classifier) *Splitter {
	return &Splitter{classifier: classifier}
}

// Split segments text into chunks. Separator chunks (whitespace runs
// containing at least one blank line) are classified normal and carried
// through reassembly verbatim.
func (s *Splitter) Split(text string) []model.TextChunk {
	var chunks []model.TextChunk

	emit := func(start, end int) {
		if start >= end {
			return
		}
		span := text[start:end]
		c := model.TextChunk{
			Text:     span,
			Category: model.CategoryNormal,
			Index:    len(chunks),
			Start:    start,
			End:      end,
		}
		if !c.IsSeparator() {
			c.Category = s.classifier.Classify(span)
		}
		chunks = append(chunks, c)
	}

	unitStart := 0
	i := 0
	for i < len(text) {
		if !isSpaceByte(text[i]) {
			i++
			continue
		}

		// Scan the whitespace run; two or more newlines mean a unit boundary.
		j := i
		newlines := 0
		for j < len(text) && isSpaceByte(text[j]) {
			if text[j] == '\n' {
				newlines++
			}
			j++
		}
		if newlines >= 2 {
			emit(unitStart, i)
			emit(i, j)
			unitStart = j
		}
		i = j
	}
	emit(unitStart, len(text))

	return chunks
}

// Reassemble concatenates chunk outputs in index order. Inputs may arrive
// in any completion order; the result is always source order.
func Reassemble(outputs map[int]string, chunkCount int) string {
	var out []byte
	for i := 0; i < chunkCount; i++ {
		out = append(out, outputs[i]...)
	}
	return string(out)
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
