package ingest

import (
	"context"
	"errors"
)

// PDF extraction failure modes shared by all implementations.
var (
	ErrUnsupportedFormat = errors.New("document format not supported")
	ErrPasswordProtected = errors.New("document is password protected")
)

// PDFExtractor extracts plain text from PDF bytes. The core pipeline
// ships no implementation; deployments plug in their own.
type PDFExtractor interface {
	Extract(ctx context.Context, data []byte) (text string, pages int, warnings []string, err error)
}

// Synthesizer converts simplified text to speech audio for the given
// language. Declared for downstream consumers.
type Synthesizer interface {
	Speak(ctx context.Context, text, lang string) ([]byte, error)
}
