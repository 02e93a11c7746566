// Package simplify drives the per-chunk rewrite loop: prompt the
// provider, validate the candidate against the guardrails, and retry
// with corrective feedback until the candidate passes or the attempt
// budget runs out.
package simplify

import (
	"context"
	"time"

	"github.com/klartext/klartext/internal/cache"
	"github.com/klartext/klartext/internal/guardrail"
	"github.com/klartext/klartext/internal/llm"
	"github.com/klartext/klartext/internal/model"
	"github.com/klartext/klartext/internal/prompt"
	"github.com/klartext/klartext/internal/worker"
)

// Orchestrator coordinates one chunk's journey through prompt build,
// provider call, guardrail validation and corrective retries.
type Orchestrator struct {
	provider llm.Provider
	engine   *guardrail.Engine
	store    cache.Cache
	limiter  *worker.Limiter
	cfg      model.OrchestrateConfig
}

// NewOrchestrator wires the orchestrator. store and limiter may be nil
// to disable caching and rate limiting respectively.
func NewOrchestrator(provider llm.Provider, engine *guardrail.Engine, store cache.Cache, limiter *worker.Limiter, cfg model.OrchestrateConfig) *Orchestrator {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Orchestrator{
		provider: provider,
		engine:   engine,
		store:    store,
		limiter:  limiter,
		cfg:      cfg,
	}
}

// attempt remembers one rejected candidate so the least-bad output can
// be surfaced when the budget is exhausted.
type attempt struct {
	output     string
	violations []model.GuardrailViolation
}

// SimplifyChunk produces the output text for a single chunk.
//
// Separator and citation chunks never reach the provider: separators
// carry no content and citations must survive verbatim. Everything
// else goes through at most cfg.MaxAttempts provider calls; transport
// failures and guardrail rejections draw from the same budget.
func (o *Orchestrator) SimplifyChunk(ctx context.Context, chunk model.TextChunk, lang, level string) model.SimplificationResult {
	if chunk.IsSeparator() || chunk.Category == model.CategoryCitation {
		return model.SimplificationResult{
			ChunkIndex: chunk.Index,
			Output:     chunk.Text,
			Status:     model.StatusPassthrough,
		}
	}

	key := ""
	if o.store != nil {
		key = cache.ChunkKey(chunk.Text, lang, level, o.provider.Model())
		if cached, ok := o.store.Get(key); ok {
			// Only the output text is stored. Validation is deterministic,
			// so re-running it reproduces the accept-with-flag warnings
			// that came with the original acceptance.
			output := string(cached)
			_, flagRules := splitBySeverity(o.engine.Validate(chunk.Text, output, chunk.Category))
			return model.SimplificationResult{
				ChunkIndex: chunk.Index,
				Output:     output,
				Warnings:   flagRules,
				Status:     model.StatusOK,
				FromCache:  true,
			}
		}
	}

	system, user, err := prompt.Build(lang, level, chunk.Category, chunk.Text)
	if err != nil {
		// Language and level were validated at the pipeline boundary;
		// reaching this means a programming error upstream. Fail soft.
		return passthrough(chunk, 0, nil)
	}

	var (
		attempts []attempt
		failures []string
		backoff  = o.cfg.InitialBackoff
	)

	for callNum := 1; callNum <= o.cfg.MaxAttempts; callNum++ {
		if err := o.waitTurn(ctx); err != nil {
			return passthrough(chunk, callNum-1, failures)
		}

		resp, err := o.provider.Complete(ctx, llm.CompletionRequest{System: system, User: user})
		if err != nil {
			if !llm.IsTransport(err) || callNum == o.cfg.MaxAttempts {
				break
			}
			if !sleepCtx(ctx, backoff) {
				return passthrough(chunk, callNum, failures)
			}
			backoff = nextBackoff(backoff, o.cfg.MaxBackoff)
			continue
		}

		violations := o.engine.Validate(chunk.Text, resp.Text, chunk.Category)
		retryRules, flagRules := splitBySeverity(violations)

		if len(retryRules) == 0 {
			if o.store != nil {
				o.store.Set(key, []byte(resp.Text), 0)
			}
			return model.SimplificationResult{
				ChunkIndex: chunk.Index,
				Output:     resp.Text,
				Attempts:   callNum,
				Failures:   failures,
				Warnings:   flagRules,
				Status:     model.StatusOK,
			}
		}

		attempts = append(attempts, attempt{output: resp.Text, violations: violations})
		failures = append(failures, retryRules...)
		user = prompt.Corrective(user, lang, retryRules)
	}

	if best, ok := bestAttempt(attempts); ok {
		_, flagRules := splitBySeverity(best.violations)
		return model.SimplificationResult{
			ChunkIndex: chunk.Index,
			Output:     best.output,
			Attempts:   o.cfg.MaxAttempts,
			Failures:   failures,
			Warnings:   flagRules,
			Status:     model.StatusNeedsReview,
		}
	}

	// Every call failed at the transport layer; the safest output is
	// the unmodified source, flagged for review so the caller can tell
	// it apart from a deliberate citation pass-through.
	return model.SimplificationResult{
		ChunkIndex: chunk.Index,
		Output:     chunk.Text,
		Attempts:   o.cfg.MaxAttempts,
		Failures:   failures,
		Status:     model.StatusNeedsReview,
	}
}

func (o *Orchestrator) waitTurn(ctx context.Context) error {
	if o.limiter == nil {
		return ctx.Err()
	}
	return o.limiter.Wait(ctx)
}

func passthrough(chunk model.TextChunk, attempts int, failures []string) model.SimplificationResult {
	return model.SimplificationResult{
		ChunkIndex: chunk.Index,
		Output:     chunk.Text,
		Attempts:   attempts,
		Failures:   failures,
		Status:     model.StatusPassthrough,
	}
}

// bestAttempt picks the candidate with the fewest retry-severity
// violations, preferring the most recent on ties: later attempts saw
// more corrective feedback.
func bestAttempt(attempts []attempt) (attempt, bool) {
	if len(attempts) == 0 {
		return attempt{}, false
	}
	best := attempts[0]
	bestRetries := countRetries(best.violations)
	for _, a := range attempts[1:] {
		if n := countRetries(a.violations); n <= bestRetries {
			best = a
			bestRetries = n
		}
	}
	return best, true
}

func countRetries(violations []model.GuardrailViolation) int {
	n := 0
	for _, v := range violations {
		if v.Severity == model.SeverityRetry {
			n++
		}
	}
	return n
}

func splitBySeverity(violations []model.GuardrailViolation) (retryRules, flagRules []string) {
	for _, v := range violations {
		if v.Severity == model.SeverityRetry {
			retryRules = append(retryRules, v.Rule)
		} else {
			flagRules = append(flagRules, v.Rule)
		}
	}
	return retryRules, flagRules
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
