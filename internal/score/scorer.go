package score

import (
	"strings"
	"unicode/utf8"

	"github.com/klartext/klartext/internal/model"
)

// Scorer computes readability metrics over assembled output text.
// It is deterministic, performs no I/O, and doubles as the acceptance
// gate against the configured thresholds.
type Scorer struct {
	cfg model.ScoreConfig
}

// NewScorer creates a scorer with the given thresholds.
func NewScorer(cfg model.ScoreConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score computes LIX, average sentence length and the long-sentence share.
// Empty input yields all-zero metrics with Passes=false.
func (s *Scorer) Score(text string) model.QualityScore {
	sentences := splitSentences(text)
	words := strings.Fields(text)

	if len(sentences) == 0 || len(words) == 0 {
		return model.QualityScore{}
	}

	longWords := 0
	for _, w := range words {
		if utf8.RuneCountInString(strings.Trim(w, `.,;:!?"'()[]`)) > s.cfg.LongWordChars {
			longWords++
		}
	}

	longSentences := 0
	for _, sent := range sentences {
		if len(strings.Fields(sent)) > s.cfg.LongSentenceWords {
			longSentences++
		}
	}

	avgLen := float64(len(words)) / float64(len(sentences))
	pctLong := float64(longSentences) / float64(len(sentences)) * 100
	lix := avgLen + 100*float64(longWords)/float64(len(words))

	return model.QualityScore{
		LIX:              lix,
		AvgSentenceLen:   avgLen,
		PctLongSentences: pctLong,
		Passes:           lix <= s.cfg.MaxLIX && avgLen <= s.cfg.MaxAvgSentence && pctLong <= s.cfg.MaxPctLong,
	}
}

// splitSentences splits on terminal punctuation, trims each segment and
// discards empty ones.
func splitSentences(text string) []string {
	segments := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	var sentences []string
	for _, seg := range segments {
		if trimmed := strings.TrimSpace(seg); trimmed != "" {
			sentences = append(sentences, trimmed)
		}
	}
	return sentences
}
