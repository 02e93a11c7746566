package simplify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/klartext/klartext/internal/cache"
	"github.com/klartext/klartext/internal/guardrail"
	"github.com/klartext/klartext/internal/llm"
	"github.com/klartext/klartext/internal/model"
)

// fakeProvider returns scripted responses in order. Errors interleave
// with responses via the errs slice (nil means success at that call).
type fakeProvider struct {
	responses []string
	errs      []error
	calls     int
}

func (f *fakeProvider) Name() string  { return "fake" }
func (f *fakeProvider) Model() string { return "fake-model" }

func (f *fakeProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	text := "default output"
	if i < len(f.responses) {
		text = f.responses[i]
	}
	return &llm.CompletionResponse{Text: text, Model: "fake-model"}, nil
}

func (f *fakeProvider) IsAvailable(ctx context.Context) bool { return true }

func newTestOrchestrator(p llm.Provider, store cache.Cache) *Orchestrator {
	engine := guardrail.NewEngine(model.GuardrailConfig{DenyPhrases: model.DefaultDenyPhrases()})
	cfg := model.OrchestrateConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     4 * time.Millisecond,
	}
	return NewOrchestrator(p, engine, store, nil, cfg)
}

func normalChunk(text string) model.TextChunk {
	return model.TextChunk{Text: text, Category: model.CategoryNormal, Index: 0}
}

func TestSeparatorChunkSkipsProvider(t *testing.T) {
	p := &fakeProvider{}
	o := newTestOrchestrator(p, nil)

	res := o.SimplifyChunk(context.Background(), model.TextChunk{Text: "\n\n", Index: 3}, "en", "easy")

	if p.calls != 0 {
		t.Fatalf("provider called %d times for separator chunk", p.calls)
	}
	if res.Status != model.StatusPassthrough || res.Output != "\n\n" || res.ChunkIndex != 3 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestCitationChunkPassesThroughVerbatim(t *testing.T) {
	p := &fakeProvider{}
	o := newTestOrchestrator(p, nil)
	chunk := model.TextChunk{Text: "doi:10.1000/xyz123", Category: model.CategoryCitation, Index: 1}

	res := o.SimplifyChunk(context.Background(), chunk, "en", "easy")

	if p.calls != 0 {
		t.Fatalf("provider called %d times for citation chunk", p.calls)
	}
	if res.Output != chunk.Text || res.Status != model.StatusPassthrough {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestCleanCandidateAcceptedFirstAttempt(t *testing.T) {
	p := &fakeProvider{responses: []string{"The request was denied in 2024."}}
	o := newTestOrchestrator(p, nil)
	chunk := normalChunk("The request was rejected in 2024.")

	res := o.SimplifyChunk(context.Background(), chunk, "en", "easy")

	if res.Status != model.StatusOK {
		t.Fatalf("status = %s, want ok (failures: %v)", res.Status, res.Failures)
	}
	if res.Attempts != 1 || p.calls != 1 {
		t.Fatalf("attempts = %d, calls = %d, want 1/1", res.Attempts, p.calls)
	}
}

func TestGuardrailRejectionTriggersCorrectiveRetry(t *testing.T) {
	// First candidate drops the number, the corrected one keeps it.
	p := &fakeProvider{responses: []string{
		"The fee was raised.",
		"The fee was raised to 50 euros.",
	}}
	o := newTestOrchestrator(p, nil)
	chunk := normalChunk("The fee was raised to 50 euros.")

	res := o.SimplifyChunk(context.Background(), chunk, "en", "easy")

	if res.Status != model.StatusOK {
		t.Fatalf("status = %s, want ok", res.Status)
	}
	if res.Attempts != 2 {
		t.Fatalf("attempts = %d, want 2", res.Attempts)
	}
	if len(res.Failures) == 0 || res.Failures[0] != guardrail.RuleNumericFidelity {
		t.Fatalf("failures = %v, want numeric_fidelity recorded", res.Failures)
	}
}

func TestExhaustedBudgetReturnsBestAttemptNeedsReview(t *testing.T) {
	// Every candidate omits the number; the last also adds meta chatter
	// and is therefore worse than the middle one.
	p := &fakeProvider{responses: []string{
		"The fee changed. Here is the rewritten text.",
		"The fee changed.",
		"The fee changed. Here is the rewritten version.",
	}}
	o := newTestOrchestrator(p, nil)
	chunk := normalChunk("The fee was raised to 50 euros.")

	res := o.SimplifyChunk(context.Background(), chunk, "en", "easy")

	if res.Status != model.StatusNeedsReview {
		t.Fatalf("status = %s, want needs_review", res.Status)
	}
	if p.calls != 3 {
		t.Fatalf("calls = %d, want 3", p.calls)
	}
	if res.Output != "The fee changed." {
		t.Fatalf("output = %q, want the least-violating attempt", res.Output)
	}
}

func TestTransportFailuresExhaustedFallsBackToSource(t *testing.T) {
	p := &fakeProvider{errs: []error{llm.ErrRateLimited, llm.ErrTimeout, llm.ErrRateLimited}}
	o := newTestOrchestrator(p, nil)
	chunk := normalChunk("The office closes at five.")

	res := o.SimplifyChunk(context.Background(), chunk, "en", "easy")

	// The source survives unmodified, but unlike a citation pass-through
	// the chunk was never simplified, so it must be flagged for review.
	if res.Status != model.StatusNeedsReview {
		t.Fatalf("status = %s, want needs_review", res.Status)
	}
	if res.Output != chunk.Text {
		t.Fatalf("output = %q, want the unmodified source", res.Output)
	}
	if p.calls != 3 {
		t.Fatalf("calls = %d, want the full budget consumed", p.calls)
	}
}

func TestTransportAndGuardrailShareBudget(t *testing.T) {
	// One transport failure plus two rejected candidates: no fourth call.
	p := &fakeProvider{
		errs:      []error{llm.ErrTimeout, nil, nil, nil},
		responses: []string{"", "The fee changed.", "The fee changed again.", "unreachable"},
	}
	o := newTestOrchestrator(p, nil)
	chunk := normalChunk("The fee was raised to 50 euros.")

	res := o.SimplifyChunk(context.Background(), chunk, "en", "easy")

	if p.calls != 3 {
		t.Fatalf("calls = %d, want 3 (shared budget)", p.calls)
	}
	if res.Status != model.StatusNeedsReview {
		t.Fatalf("status = %s, want needs_review", res.Status)
	}
}

func TestNonTransportErrorStopsImmediately(t *testing.T) {
	p := &fakeProvider{errs: []error{errors.New("invalid api key")}}
	o := newTestOrchestrator(p, nil)
	chunk := normalChunk("The office closes at five.")

	res := o.SimplifyChunk(context.Background(), chunk, "en", "easy")

	if p.calls != 1 {
		t.Fatalf("calls = %d, want 1 (no retry on permanent errors)", p.calls)
	}
	if res.Status != model.StatusNeedsReview || res.Output != chunk.Text {
		t.Fatalf("unexpected result: %+v, want flagged source", res)
	}
}

func TestCancellationBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &fakeProvider{errs: []error{llm.ErrTimeout, llm.ErrTimeout, llm.ErrTimeout}}
	o := newTestOrchestrator(p, nil)
	chunk := normalChunk("The office closes at five.")

	cancel()
	res := o.SimplifyChunk(ctx, chunk, "en", "easy")

	if p.calls > 1 {
		t.Fatalf("calls = %d, want at most 1 after cancellation", p.calls)
	}
	if res.Status != model.StatusPassthrough {
		t.Fatalf("status = %s, want passthrough", res.Status)
	}
}

func TestCacheHitSkipsProvider(t *testing.T) {
	store := cache.NewMemoryCache(time.Minute, time.Minute)
	p := &fakeProvider{responses: []string{"The request was denied."}}
	o := newTestOrchestrator(p, store)
	chunk := normalChunk("The request was rejected.")

	first := o.SimplifyChunk(context.Background(), chunk, "en", "easy")
	if first.FromCache || p.calls != 1 {
		t.Fatalf("first call should miss the cache: %+v, calls %d", first, p.calls)
	}

	second := o.SimplifyChunk(context.Background(), chunk, "en", "easy")
	if !second.FromCache || p.calls != 1 {
		t.Fatalf("second call should hit the cache: %+v, calls %d", second, p.calls)
	}
	if second.Output != first.Output {
		t.Fatalf("cached output %q differs from original %q", second.Output, first.Output)
	}
}

func TestCacheHitKeepsAcceptanceWarnings(t *testing.T) {
	// Two bullets against a one-clause source: accepted, but flagged.
	store := cache.NewMemoryCache(time.Minute, time.Minute)
	p := &fakeProvider{responses: []string{"- The office closes.\n- It closes at five."}}
	o := newTestOrchestrator(p, store)
	chunk := normalChunk("The office closes at five.")

	first := o.SimplifyChunk(context.Background(), chunk, "en", "easy")
	if first.Status != model.StatusOK || len(first.Warnings) == 0 {
		t.Fatalf("first result should be accepted with a flag: %+v", first)
	}

	second := o.SimplifyChunk(context.Background(), chunk, "en", "easy")
	if !second.FromCache {
		t.Fatalf("second call should hit the cache: %+v", second)
	}
	if len(second.Warnings) != 1 || second.Warnings[0] != guardrail.RuleBulletJustification {
		t.Fatalf("cache hit dropped the acceptance warnings: %+v", second)
	}
}

func TestCorrectiveFeedbackReachesProvider(t *testing.T) {
	var lastUser string
	p := &capturingProvider{
		responses: []string{"The fee changed.", "The fee was raised to 50 euros."},
		onCall:    func(req llm.CompletionRequest) { lastUser = req.User },
	}
	o := newTestOrchestrator(p, nil)
	chunk := normalChunk("The fee was raised to 50 euros.")

	o.SimplifyChunk(context.Background(), chunk, "en", "easy")

	if !strings.Contains(lastUser, "number") && !strings.Contains(lastUser, "numeric") {
		t.Fatalf("second prompt carries no numeric corrective feedback: %q", lastUser)
	}
}

type capturingProvider struct {
	responses []string
	onCall    func(llm.CompletionRequest)
	calls     int
}

func (p *capturingProvider) Name() string  { return "fake" }
func (p *capturingProvider) Model() string { return "fake-model" }

func (p *capturingProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.onCall(req)
	text := "default"
	if p.calls < len(p.responses) {
		text = p.responses[p.calls]
	}
	p.calls++
	return &llm.CompletionResponse{Text: text, Model: "fake-model"}, nil
}

func (p *capturingProvider) IsAvailable(ctx context.Context) bool { return true }
