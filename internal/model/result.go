package model

// Status reports how a chunk simplification concluded
type Status string

const (
	StatusOK          Status = "ok"           // Guardrails passed
	StatusPassthrough Status = "passthrough"  // Source returned unchanged by design (separator, citation)
	StatusNeedsReview Status = "needs_review" // Unresolved violations or provider exhaustion; source or best attempt returned
)

// Severity indicates whether a guardrail violation blocks acceptance
type Severity string

const (
	SeverityRetry          Severity = "retry"            // Re-invoke the LLM with corrective feedback
	SeverityAcceptWithFlag Severity = "accept_with_flag" // Accept the output but record a warning
)

// GuardrailViolation describes one violated validation rule for a
// (source, candidate) pair. Produced and consumed within one attempt.
type GuardrailViolation struct {
	Rule     string   `json:"rule"`     // Stable rule name (e.g. "numeric_fidelity")
	Detail   string   `json:"detail"`   // Human-readable explanation
	Severity Severity `json:"severity"` // retry or accept_with_flag
}

// SimplificationResult is the per-chunk outcome of the orchestrator.
// It is merged into the final response and then discarded; only hashes
// and lengths survive into the run log.
type SimplificationResult struct {
	ChunkIndex int      `json:"chunk_index"`
	Output     string   `json:"output"`
	Attempts   int      `json:"attempts"`
	Failures   []string `json:"failures,omitempty"` // Violated retry-rule names, in attempt order
	Warnings   []string `json:"warnings,omitempty"` // accept_with_flag rule names
	Status     Status   `json:"status"`
	FromCache  bool     `json:"from_cache,omitempty"`
}

// QualityScore holds readability metrics over the assembled output.
type QualityScore struct {
	LIX              float64 `json:"lix"`                // Sentence length + long-word density index
	AvgSentenceLen   float64 `json:"avg_sentence_len"`   // Words per sentence
	PctLongSentences float64 `json:"pct_long_sentences"` // Percentage of sentences over the long-sentence cap
	Passes           bool    `json:"passes"`             // True iff all metrics meet their thresholds
}
