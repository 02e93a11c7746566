package runlog

import (
	"math"
	"sort"
	"time"

	"github.com/klartext/klartext/internal/model"
)

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Aggregate folds all persisted entries into dashboard statistics.
// Feedback-only records (written by AttachFeedback) contribute their
// feedback to the run they reference but are not counted as runs.
func (l *Logger) Aggregate() (model.AggregateStats, error) {
	entries, err := l.LoadAll()
	if err != nil {
		return model.AggregateStats{}, err
	}
	return aggregate(entries), nil
}

func aggregate(entries []model.RunLogEntry) model.AggregateStats {
	stats := model.AggregateStats{
		Languages: map[string]int{},
		Levels:    map[string]int{},
		Models:    map[string]int{},
		AvgScores: map[string]float64{},
		Feedback:  map[string]int{},
	}

	// Latest feedback per run wins; later lines override earlier ones.
	feedbackByRun := map[string]string{}
	warningCounts := map[string]int{}

	var (
		runs         int
		totalLatency int64
		totalInput   int
		totalOutput  int
		sumLIX       float64
		sumAvgLen    float64
		sumPctLong   float64
	)

	for _, e := range entries {
		if e.UserFeedback != nil {
			feedbackByRun[e.RunID] = *e.UserFeedback
		}
		if isFeedbackOnly(e) {
			continue
		}
		runs++
		totalLatency += e.LatencyMS
		totalInput += e.InputLength
		totalOutput += e.OutputLength
		stats.Languages[orUnknown(e.TargetLang)]++
		stats.Levels[orUnknown(e.Level)]++
		stats.Models[orUnknown(e.ModelUsed)]++
		sumLIX += e.Scores.LIX
		sumAvgLen += e.Scores.AvgSentenceLen
		sumPctLong += e.Scores.PctLongSentences
		for _, w := range e.Warnings {
			warningCounts[w]++
		}
	}

	stats.TotalRuns = runs
	if runs > 0 {
		n := float64(runs)
		stats.AvgLatencyMS = round1(float64(totalLatency) / n)
		stats.AvgInputLength = round1(float64(totalInput) / n)
		stats.AvgOutputLength = round1(float64(totalOutput) / n)
		stats.AvgScores["avg_lix"] = round2(sumLIX / n)
		stats.AvgScores["avg_sentence_len"] = round2(sumAvgLen / n)
		stats.AvgScores["avg_pct_long_sentences"] = round2(sumPctLong / n)
	}

	for _, fb := range feedbackByRun {
		stats.Feedback[fb]++
	}

	for name, count := range warningCounts {
		stats.TopWarnings = append(stats.TopWarnings, model.WarningCount{Name: name, Count: count})
	}
	sort.Slice(stats.TopWarnings, func(i, j int) bool {
		if stats.TopWarnings[i].Count != stats.TopWarnings[j].Count {
			return stats.TopWarnings[i].Count > stats.TopWarnings[j].Count
		}
		return stats.TopWarnings[i].Name < stats.TopWarnings[j].Name
	})
	if len(stats.TopWarnings) > 10 {
		stats.TopWarnings = stats.TopWarnings[:10]
	}

	return stats
}

// isFeedbackOnly reports whether the entry was written by
// AttachFeedback rather than a pipeline run.
func isFeedbackOnly(e model.RunLogEntry) bool {
	return e.UserFeedback != nil && e.InputHash == "" && e.ModelUsed == ""
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
