package guardrail

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/klartext/klartext/internal/model"
)

// Rule names, stable across releases: they end up in run log warnings
// and in corrective retry prompts.
const (
	RuleNumericFidelity     = "numeric_fidelity"
	RuleProperNounRetention = "proper_noun_retention"
	RuleMetaCommentary      = "meta_commentary"
	RuleHeadingDiscipline   = "heading_discipline"
	RuleCitationPassthrough = "citation_passthrough"
	RuleBulletJustification = "bullet_justification"
)

// Engine validates a (source, candidate) pair against the deterministic
// correctness rules. All checks are pure and independent; the engine
// performs no I/O.
type Engine struct {
	denyPhrases []string
}

// NewEngine creates an engine with the given configuration. Deny phrases
// are matched case-insensitively.
func NewEngine(cfg model.GuardrailConfig) *Engine {
	phrases := make([]string, len(cfg.DenyPhrases))
	for i, p := range cfg.DenyPhrases {
		phrases[i] = strings.ToLower(p)
	}
	return &Engine{denyPhrases: phrases}
}

var (
	digitRun      = regexp.MustCompile(`\d+`)
	bulletPattern = regexp.MustCompile(`(?m)^[ \t]*(?:[-*•–]|\d{1,2}[.)])\s+`)
	sentenceEnd   = regexp.MustCompile(`[.!?](?:\s|$)`)
)

// commonSentenceStarters are words whose capitalization carries no meaning
// at sentence start; they are exempt from proper-noun retention there.
var commonSentenceStarters = map[string]bool{
	"the": true, "a": true, "an": true, "this": true, "that": true,
	"these": true, "those": true, "it": true, "we": true, "you": true,
	"they": true, "he": true, "she": true, "i": true, "in": true,
	"on": true, "at": true, "for": true, "if": true, "when": true,
	"after": true, "before": true, "all": true, "every": true, "some": true,
	"der": true, "die": true, "das": true, "ein": true, "eine": true,
	"sie": true, "er": true, "es": true, "wir": true, "ich": true,
	"wenn": true, "nach": true, "vor": true, "alle": true, "jeder": true,
	"bitte": true, "bei": true, "im": true, "am": true, "zum": true,
}

// Validate runs every applicable check and returns the violations found.
// An empty slice means the candidate passed.
func (e *Engine) Validate(source, candidate string, category model.Category) []model.GuardrailViolation {
	var violations []model.GuardrailViolation

	if v := checkNumericFidelity(source, candidate); v != nil {
		violations = append(violations, *v)
	}
	if v := checkProperNouns(source, candidate); v != nil {
		violations = append(violations, *v)
	}
	if v := e.checkMetaCommentary(candidate); v != nil {
		violations = append(violations, *v)
	}
	if category == model.CategoryHeading {
		if v := checkHeadingDiscipline(candidate); v != nil {
			violations = append(violations, *v)
		}
	}
	if category == model.CategoryCitation && candidate != source {
		violations = append(violations, model.GuardrailViolation{
			Rule:     RuleCitationPassthrough,
			Detail:   "citation chunks must be returned verbatim",
			Severity: model.SeverityRetry,
		})
	}
	if v := checkBulletJustification(source, candidate); v != nil {
		violations = append(violations, *v)
	}

	return violations
}

// checkNumericFidelity requires every maximal digit run of the source to
// survive into the candidate. Separator formatting ("1,000" vs "1000")
// is tolerated by comparing against the candidate's digits as a whole.
func checkNumericFidelity(source, candidate string) *model.GuardrailViolation {
	runs := digitRun.FindAllString(source, -1)
	if len(runs) == 0 {
		return nil
	}

	candDigits := strings.Join(digitRun.FindAllString(candidate, -1), "")

	var missing []string
	for _, run := range runs {
		if !strings.Contains(candDigits, run) {
			missing = append(missing, run)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &model.GuardrailViolation{
		Rule:     RuleNumericFidelity,
		Detail:   fmt.Sprintf("output dropped number(s): %s", strings.Join(missing, ", ")),
		Severity: model.SeverityRetry,
	}
}

func checkProperNouns(source, candidate string) *model.GuardrailViolation {
	var missing []string
	seen := make(map[string]bool)

	for _, tok := range properNouns(source) {
		if seen[tok] {
			continue
		}
		seen[tok] = true
		if !strings.Contains(candidate, tok) {
			missing = append(missing, tok)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &model.GuardrailViolation{
		Rule:     RuleProperNounRetention,
		Detail:   fmt.Sprintf("output dropped name(s): %s", strings.Join(missing, ", ")),
		Severity: model.SeverityRetry,
	}
}

// properNouns returns the capitalized multi-character tokens of text,
// minus common words at sentence-initial position.
func properNouns(text string) []string {
	var nouns []string
	sentenceStart := true

	for _, field := range strings.Fields(text) {
		tok := strings.Trim(field, `.,;:!?"'()[]«»„“”`)
		endsSentence := sentenceEnd.MatchString(field) || strings.HasSuffix(field, ".")

		if tok == "" || utf8.RuneCountInString(tok) < 2 {
			sentenceStart = endsSentence
			continue
		}
		first, _ := utf8.DecodeRuneInString(tok)
		if unicode.IsUpper(first) {
			if !(sentenceStart && commonSentenceStarters[strings.ToLower(tok)]) {
				nouns = append(nouns, tok)
			}
		}
		sentenceStart = endsSentence
	}
	return nouns
}

func (e *Engine) checkMetaCommentary(candidate string) *model.GuardrailViolation {
	lower := strings.ToLower(candidate)
	for _, phrase := range e.denyPhrases {
		if strings.Contains(lower, phrase) {
			return &model.GuardrailViolation{
				Rule:     RuleMetaCommentary,
				Detail:   fmt.Sprintf("output contains banned phrase %q", phrase),
				Severity: model.SeverityRetry,
			}
		}
	}
	return nil
}

func checkHeadingDiscipline(candidate string) *model.GuardrailViolation {
	if bulletPattern.MatchString(candidate) {
		return &model.GuardrailViolation{
			Rule:     RuleHeadingDiscipline,
			Detail:   "heading output must not contain bullet markers",
			Severity: model.SeverityRetry,
		}
	}
	if len(sentenceEnd.FindAllString(candidate, -1)) > 1 {
		return &model.GuardrailViolation{
			Rule:     RuleHeadingDiscipline,
			Detail:   "heading output must stay a single line, not multiple sentences",
			Severity: model.SeverityRetry,
		}
	}
	return nil
}

// checkBulletJustification permits bullets in the candidate only when the
// source carries at least as many distinguishable clauses. Inventing list
// structure beyond the source is flagged but does not block acceptance.
func checkBulletJustification(source, candidate string) *model.GuardrailViolation {
	bullets := len(bulletPattern.FindAllString(candidate, -1))
	if bullets == 0 {
		return nil
	}

	clauses := countClauses(source)
	if bullets <= clauses {
		return nil
	}
	return &model.GuardrailViolation{
		Rule:     RuleBulletJustification,
		Detail:   fmt.Sprintf("output has %d bullets but source has only %d distinguishable clauses", bullets, clauses),
		Severity: model.SeverityAcceptWithFlag,
	}
}

func countClauses(text string) int {
	count := 0
	for _, seg := range strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case '.', ';', ':', '!', '?', ',', '\n':
			return true
		}
		return false
	}) {
		if len(strings.Fields(seg)) >= 2 {
			count++
		}
	}
	return count
}
