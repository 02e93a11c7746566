// Package pipeline is the facade in front of the simplification flow:
// validate the request, split and classify, simplify chunks in
// parallel, reassemble, score, and log the run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/klartext/klartext/internal/cache"
	"github.com/klartext/klartext/internal/chunk"
	"github.com/klartext/klartext/internal/guardrail"
	"github.com/klartext/klartext/internal/llm"
	"github.com/klartext/klartext/internal/model"
	"github.com/klartext/klartext/internal/runlog"
	"github.com/klartext/klartext/internal/score"
	"github.com/klartext/klartext/internal/simplify"
	"github.com/klartext/klartext/internal/worker"
)

// Request-boundary validation failures. The HTTP and CLI adapters map
// these to user-facing errors; anything else is an internal failure.
var (
	ErrEmptyInput          = errors.New("input text is empty")
	ErrInputTooLong        = errors.New("input text exceeds the maximum length")
	ErrUnsupportedLanguage = errors.New("unsupported target language")
	ErrUnsupportedLevel    = errors.New("unsupported simplification level")
)

// Request is one simplification job as received from an adapter.
type Request struct {
	Text       string
	TargetLang string
	Level      string
}

// Response is the assembled outcome of one run.
type Response struct {
	RunID       string             `json:"run_id"`
	Output      string             `json:"output"`
	Scores      model.QualityScore `json:"scores"`
	ChunkCount  int                `json:"chunk_count"`
	Warnings    []string           `json:"warnings,omitempty"`
	NeedsReview bool               `json:"needs_review"`
	ModelUsed   string             `json:"model_used"`
	LatencyMS   int64              `json:"latency_ms"`
}

// Pipeline wires the stages together. One Pipeline serves many
// concurrent requests; each request gets its own worker pool.
type Pipeline struct {
	splitter     *chunk.Splitter
	orchestrator *simplify.Orchestrator
	scorer       *score.Scorer
	logger       *runlog.Logger
	provider     llm.Provider
	config       *model.Config
}

// NewPipeline builds the full stage chain from configuration.
func NewPipeline(cfg *model.Config) (*Pipeline, error) {
	provider, err := llm.NewProvider(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("initialize llm provider: %w", err)
	}
	if provider == nil {
		return nil, errors.New("no llm provider configured")
	}
	return NewPipelineWithProvider(cfg, provider), nil
}

// NewPipelineWithProvider builds the stage chain around an existing
// provider instance.
func NewPipelineWithProvider(cfg *model.Config, provider llm.Provider) *Pipeline {
	var store cache.Cache
	if cfg.Cache.Enabled {
		store = cache.NewMemoryCache(cfg.Cache.TTL, cfg.Cache.CleanupInterval)
	}

	limiter := worker.NewLimiter(cfg.Concurrency.RequestsPerSecond, cfg.Concurrency.Burst)
	engine := guardrail.NewEngine(cfg.Guardrail)
	orchestrator := simplify.NewOrchestrator(provider, engine, store, limiter, cfg.Orchestrate)

	return &Pipeline{
		splitter:     chunk.NewSplitter(chunk.NewClassifier(cfg.Classifier)),
		orchestrator: orchestrator,
		scorer:       score.NewScorer(cfg.Score),
		logger:       runlog.NewLogger(cfg.Log.Path, nil),
		provider:     provider,
		config:       cfg,
	}
}

// chunkJob adapts one chunk to the worker pool.
type chunkJob struct {
	orchestrator *simplify.Orchestrator
	chunk        model.TextChunk
	lang         string
	level        string
}

func (j chunkJob) Execute(ctx context.Context) worker.Result {
	return chunkResult{result: j.orchestrator.SimplifyChunk(ctx, j.chunk, j.lang, j.level)}
}

type chunkResult struct {
	result model.SimplificationResult
}

func (r chunkResult) GetError() error { return nil }

// Simplify runs one request end to end. The raw input is hashed before
// the run log entry is constructed and never persisted.
func (p *Pipeline) Simplify(ctx context.Context, req Request) (*Response, error) {
	if err := p.validate(req); err != nil {
		return nil, err
	}

	started := time.Now()
	chunks := p.splitter.Split(req.Text)

	pool := worker.NewPool(ctx, p.config.Concurrency.ChunkWorkers)
	pool.Start()
	for _, c := range chunks {
		pool.Submit(chunkJob{
			orchestrator: p.orchestrator,
			chunk:        c,
			lang:         req.TargetLang,
			level:        req.Level,
		})
	}
	results := pool.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(results) != len(chunks) {
		return nil, fmt.Errorf("simplified %d of %d chunks", len(results), len(chunks))
	}

	outputs := make(map[int]string, len(results))
	var warnings []string
	needsReview := false
	for _, r := range results {
		res := r.(chunkResult).result
		outputs[res.ChunkIndex] = res.Output
		warnings = append(warnings, res.Warnings...)
		if res.Status == model.StatusNeedsReview {
			needsReview = true
			warnings = append(warnings, res.Failures...)
		}
	}
	warnings = dedupe(warnings)

	output := chunk.Reassemble(outputs, len(chunks))
	scores := p.scorer.Score(output)
	latency := time.Since(started).Milliseconds()
	runID := uuid.NewString()

	p.logger.RecordAsync(model.RunLogEntry{
		RunID:        runID,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		InputHash:    runlog.HashInput(req.Text),
		InputLength:  len(req.Text),
		OutputLength: len(output),
		TargetLang:   req.TargetLang,
		Level:        req.Level,
		ModelUsed:    p.provider.Model(),
		LatencyMS:    latency,
		ChunkCount:   len(chunks),
		Scores:       scores,
		Warnings:     warnings,
	})

	return &Response{
		RunID:       runID,
		Output:      output,
		Scores:      scores,
		ChunkCount:  len(chunks),
		Warnings:    warnings,
		NeedsReview: needsReview,
		ModelUsed:   p.provider.Model(),
		LatencyMS:   latency,
	}, nil
}

// validate rejects out-of-contract requests outright. Overlong input is
// a hard error rather than a silent truncation: cutting text would
// violate the round-trip guarantee without the caller noticing.
func (p *Pipeline) validate(req Request) error {
	if len(req.Text) == 0 {
		return ErrEmptyInput
	}
	if max := p.config.Input.MaxChars; max > 0 && len([]rune(req.Text)) > max {
		return fmt.Errorf("%w: %d characters (max %d)", ErrInputTooLong, len([]rune(req.Text)), max)
	}
	if !contains(p.config.Input.Languages, req.TargetLang) {
		return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, req.TargetLang)
	}
	if !contains(p.config.Input.Levels, req.Level) {
		return fmt.Errorf("%w: %q", ErrUnsupportedLevel, req.Level)
	}
	return nil
}

// Stats aggregates all logged runs.
func (p *Pipeline) Stats() (model.AggregateStats, error) {
	return p.logger.Aggregate()
}

// Feedback attaches user feedback to an earlier run.
func (p *Pipeline) Feedback(runID, feedback string) error {
	return p.logger.AttachFeedback(runID, feedback)
}

// Model reports the provider model identifier in use.
func (p *Pipeline) Model() string {
	return p.provider.Model()
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func dedupe(list []string) []string {
	if len(list) < 2 {
		return list
	}
	seen := make(map[string]bool, len(list))
	out := list[:0]
	for _, v := range list {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
