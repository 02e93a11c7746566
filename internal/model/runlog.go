package model

// Feedback values accepted on a run log entry
const (
	FeedbackThumbsUp   = "thumbs_up"
	FeedbackThumbsDown = "thumbs_down"
	FeedbackFlag       = "flag"
)

// RunLogEntry is the privacy-preserving telemetry record written once per
// pipeline invocation. The raw input never appears here: only its sha256
// hash and length survive past the pipeline boundary.
type RunLogEntry struct {
	RunID        string       `json:"run_id"`
	Timestamp    string       `json:"timestamp"` // RFC3339 UTC
	InputHash    string       `json:"input_hash"`
	InputLength  int          `json:"input_length"`
	OutputLength int          `json:"output_length"`
	TargetLang   string       `json:"target_lang"`
	Level        string       `json:"level"`
	ModelUsed    string       `json:"model_used"`
	LatencyMS    int64        `json:"latency_ms"`
	ChunkCount   int          `json:"chunk_count"`
	Scores       QualityScore `json:"scores"`
	Warnings     []string     `json:"warnings,omitempty"`
	UserFeedback *string      `json:"user_feedback,omitempty"`
}

// AggregateStats summarizes all persisted run log entries for the
// operational dashboard.
type AggregateStats struct {
	TotalRuns       int                `json:"total_runs"`
	AvgLatencyMS    float64            `json:"avg_latency_ms"`
	AvgInputLength  float64            `json:"avg_input_length"`
	AvgOutputLength float64            `json:"avg_output_length"`
	Languages       map[string]int     `json:"languages"`
	Levels          map[string]int     `json:"levels"`
	Models          map[string]int     `json:"models"`
	AvgScores       map[string]float64 `json:"avg_scores"`
	TopWarnings     []WarningCount     `json:"top_warnings,omitempty"`
	Feedback        map[string]int     `json:"feedback"`
}

// WarningCount pairs a warning name with its occurrence count.
type WarningCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
