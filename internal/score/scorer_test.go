package score

import (
	"math"
	"testing"

	"github.com/klartext/klartext/internal/model"
)

func newTestScorer() *Scorer {
	return NewScorer(model.DefaultConfig().Score)
}

func TestScorer_EmptyInput(t *testing.T) {
	scorer := newTestScorer()

	for _, in := range []string{"", "   ", "\n\n", "..."} {
		got := scorer.Score(in)
		if got.LIX != 0 || got.AvgSentenceLen != 0 || got.PctLongSentences != 0 {
			t.Errorf("Score(%q) = %+v, want all-zero metrics", in, got)
		}
		if got.Passes {
			t.Errorf("Score(%q).Passes = true, want false", in)
		}
	}
}

func TestScorer_SimpleText(t *testing.T) {
	scorer := newTestScorer()

	// 2 sentences, 8 words, one long word ("sentences" has 9 runes).
	got := scorer.Score("This is easy. Short sentences are good too.")

	if got.AvgSentenceLen != 4 {
		t.Errorf("AvgSentenceLen = %v, want 4", got.AvgSentenceLen)
	}
	wantLIX := 4 + 100*1.0/8
	if math.Abs(got.LIX-wantLIX) > 1e-9 {
		t.Errorf("LIX = %v, want %v", got.LIX, wantLIX)
	}
	if got.PctLongSentences != 0 {
		t.Errorf("PctLongSentences = %v, want 0", got.PctLongSentences)
	}
	if !got.Passes {
		t.Errorf("Passes = false, want true (score: %+v)", got)
	}
}

func TestScorer_LongSentenceFails(t *testing.T) {
	scorer := newTestScorer()

	// One sentence of 24 short words: avg length 24 > 15 and 100% long sentences.
	text := "a b c d e f g h i j k l m n o p q r s t u v w x."
	got := scorer.Score(text)

	if got.AvgSentenceLen <= 20 {
		t.Errorf("AvgSentenceLen = %v, want > 20", got.AvgSentenceLen)
	}
	if got.PctLongSentences != 100 {
		t.Errorf("PctLongSentences = %v, want 100", got.PctLongSentences)
	}
	if got.Passes {
		t.Error("Passes = true, want false")
	}
}

func TestScorer_Deterministic(t *testing.T) {
	scorer := newTestScorer()

	text := "Sie müssen Papiere abgeben. Das steht im Gesetz."
	first := scorer.Score(text)
	for i := 0; i < 5; i++ {
		if got := scorer.Score(text); got != first {
			t.Fatalf("Score is not deterministic: %+v vs %+v", got, first)
		}
	}
}
