// Package prompt selects and renders the LLM instructions for one chunk.
// Variants are keyed by (language, level, category): headings and dates get
// stricter, narrower instructions than normal prose.
package prompt

import (
	"fmt"
	"strings"

	"github.com/klartext/klartext/internal/model"
)

// systemByLang carries identity and the non-negotiable rules. The rules
// mirror the guardrail engine so the model fails validation less often.
var systemByLang = map[string]string{
	"en": `You rewrite complex English text into plain language for people with reading difficulties.

Rules:
1. Keep every number, date, amount and deadline exactly as given.
2. Keep every name of a person, place, organization or law.
3. Never add facts. Never leave out facts.
4. Never comment on the task. Output only the rewritten text, nothing else.
5. No greetings, no "here is", no explanations of what you did.`,

	"de": `Du schreibst komplizierte deutsche Texte in einfache Sprache um, für Menschen mit Leseschwierigkeiten.

Regeln:
1. Behalte jede Zahl, jedes Datum, jeden Betrag und jede Frist genau bei.
2. Behalte jeden Namen von Personen, Orten, Organisationen und Gesetzen.
3. Erfinde keine Fakten. Lasse keine Fakten weg.
4. Kommentiere die Aufgabe nicht. Gib nur den umgeschriebenen Text aus, sonst nichts.
5. Keine Begrüßung, kein "hier ist", keine Erklärungen.`,
}

// levelInstructions tune sentence length and structure per difficulty.
var levelInstructions = map[string]map[string]string{
	"en": {
		"very_easy": "Use very short sentences with at most 8 to 10 words. Explain every uncommon word in parentheses. One idea per sentence.",
		"easy":      "Use short sentences with 12 to 15 words. Use clear structure and active voice. Avoid jargon.",
		"medium":    "Use plain language with normal sentence length. Avoid nested clauses. Use technical terms only when necessary.",
	},
	"de": {
		"very_easy": "Schreibe sehr kurze Sätze mit höchstens 8 bis 10 Wörtern. Erkläre jedes seltene Wort in Klammern. Ein Gedanke pro Satz.",
		"easy":      "Schreibe kurze Sätze mit 12 bis 15 Wörtern. Nutze klare Struktur und Aktivsätze. Vermeide Fachwörter.",
		"medium":    "Schreibe in klarer Sprache mit normaler Satzlänge. Vermeide Schachtelsätze. Fachwörter nur wenn nötig.",
	},
}

// categoryInstructions narrow the task for structurally special chunks.
var categoryInstructions = map[string]map[model.Category]string{
	"en": {
		model.CategoryHeading: "The text is a heading. Return exactly one short line in simpler words. No ending punctuation, no bullets, no extra sentences.",
		model.CategoryDate:    "The text is a date or time. Return it unchanged, or spell it out in words without changing any number.",
		model.CategoryList:    "The text is a list. Keep the list structure and the same number of items. Simplify the wording of each item.",
		model.CategoryNormal:  "Rewrite the text in plain language.",
	},
	"de": {
		model.CategoryHeading: "Der Text ist eine Überschrift. Gib genau eine kurze Zeile in einfacheren Worten zurück. Kein Satzzeichen am Ende, keine Aufzählung, keine weiteren Sätze.",
		model.CategoryDate:    "Der Text ist ein Datum oder eine Uhrzeit. Gib ihn unverändert zurück oder schreibe ihn aus, ohne eine Zahl zu ändern.",
		model.CategoryList:    "Der Text ist eine Liste. Behalte die Listenstruktur und die Anzahl der Punkte. Vereinfache nur die Formulierungen.",
		model.CategoryNormal:  "Schreibe den Text in einfacher Sprache um.",
	},
}

// correctiveByRule names the violated rule in the model's working language
// so the retry attempt can fix exactly what failed.
var correctiveByRule = map[string]map[string]string{
	"en": {
		"numeric_fidelity":      "Your previous answer dropped a number or date from the original. Keep every digit sequence exactly.",
		"proper_noun_retention": "Your previous answer dropped a name from the original. Keep every name of a person, place, organization or law.",
		"meta_commentary":       "Your previous answer contained commentary about the task. Output only the rewritten text itself.",
		"heading_discipline":    "Your previous answer was not a single heading line. Return exactly one short line, no bullets, no extra sentences.",
		"citation_passthrough":  "This text is a reference identifier. Return it exactly as given, character for character.",
	},
	"de": {
		"numeric_fidelity":      "Deine letzte Antwort hat eine Zahl oder ein Datum weggelassen. Behalte jede Ziffernfolge genau bei.",
		"proper_noun_retention": "Deine letzte Antwort hat einen Namen weggelassen. Behalte jeden Namen von Personen, Orten, Organisationen und Gesetzen.",
		"meta_commentary":       "Deine letzte Antwort enthielt einen Kommentar zur Aufgabe. Gib nur den umgeschriebenen Text selbst aus.",
		"heading_discipline":    "Deine letzte Antwort war keine einzelne Überschriftenzeile. Gib genau eine kurze Zeile zurück, ohne Aufzählung und ohne weitere Sätze.",
		"citation_passthrough":  "Dieser Text ist eine Referenz. Gib ihn Zeichen für Zeichen unverändert zurück.",
	},
}

// Build renders the (system, user) prompt pair for one chunk.
func Build(lang, level string, category model.Category, text string) (string, string, error) {
	system, ok := systemByLang[lang]
	if !ok {
		return "", "", fmt.Errorf("no prompt templates for language %q", lang)
	}

	levelInstr, ok := levelInstructions[lang][level]
	if !ok {
		return "", "", fmt.Errorf("no prompt variant for level %q", level)
	}

	catInstr, ok := categoryInstructions[lang][category]
	if !ok {
		catInstr = categoryInstructions[lang][model.CategoryNormal]
	}

	user := fmt.Sprintf("%s %s\n\nText:\n%s", catInstr, levelInstr, text)
	return system, user, nil
}

// Corrective appends rule-specific feedback to a user prompt for a retry
// attempt. Unknown rule names fall back to a generic reminder.
func Corrective(user, lang string, rules []string) string {
	if len(rules) == 0 {
		return user
	}

	var feedback []string
	seen := make(map[string]bool)
	for _, rule := range rules {
		if seen[rule] {
			continue
		}
		seen[rule] = true
		if msg, ok := correctiveByRule[lang][rule]; ok {
			feedback = append(feedback, "- "+msg)
		} else {
			feedback = append(feedback, "- "+genericCorrective(lang, rule))
		}
	}

	header := "Important corrections for this attempt:"
	if lang == "de" {
		header = "Wichtige Korrekturen für diesen Versuch:"
	}
	return user + "\n\n" + header + "\n" + strings.Join(feedback, "\n")
}

func genericCorrective(lang, rule string) string {
	if lang == "de" {
		return fmt.Sprintf("Deine letzte Antwort hat die Regel %q verletzt. Halte dich genau an den Originalinhalt.", rule)
	}
	return fmt.Sprintf("Your previous answer violated the rule %q. Stay strictly faithful to the original content.", rule)
}

// Supported reports whether prompt variants exist for the language.
func Supported(lang string) bool {
	_, ok := systemByLang[lang]
	return ok
}
