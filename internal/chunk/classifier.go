package chunk

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/klartext/klartext/internal/model"
)

// Classifier labels a text unit by structural shape. Rules apply in
// priority order: citation, date, heading, list, normal. Classification
// is total and deterministic: every input maps to exactly one category.
type Classifier struct {
	cfg model.ClassifierConfig
}

// NewClassifier creates a classifier with the given thresholds.
func NewClassifier(cfg model.ClassifierConfig) *Classifier {
	return &Classifier{cfg: cfg}
}

var (
	doiPattern  = regexp.MustCompile(`^(?:doi:|https?://(?:dx\.)?doi\.org/)?10\.\d{4,9}/\S+$`)
	isbnPattern = regexp.MustCompile(`(?i)^isbn(?:-1[03])?:?\s*[\d][\d\- ]{7,15}[\dxX]$`)
	refPattern  = regexp.MustCompile(`^\[\d+\]$|^(?:RFC|DIN|ISO|EN)[- ]?\d+(?:[-:.]\d+)*$`)

	numericDate = regexp.MustCompile(`^\d{1,2}[./-]\d{1,2}[./-]\d{2,4}$`)
	isoDate     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(?:[T ]\d{2}:\d{2}(?::\d{2})?Z?)?$`)
	clockTime   = regexp.MustCompile(`^\d{1,2}:\d{2}(?::\d{2})?$`)

	bulletMarker = regexp.MustCompile(`(?m)^[ \t]*(?:[-*•–]|\d{1,2}[.)])\s+`)
)

// dateWords are tokens permitted in a pure date/time unit beyond numerals.
var dateWords = map[string]bool{
	"january": true, "february": true, "march": true, "april": true,
	"may": true, "june": true, "july": true, "august": true,
	"september": true, "october": true, "november": true, "december": true,
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
	"januar": true, "februar": true, "märz": true, "juni": true,
	"juli": true, "oktober": true, "dezember": true,
	"montag": true, "dienstag": true, "mittwoch": true, "donnerstag": true,
	"freitag": true, "samstag": true, "sonntag": true,
	"am": true, "pm": true, "uhr": true,
}

// verbMarkers flag verb-like structure; their presence disqualifies a
// short line from being a heading.
var verbMarkers = map[string]bool{
	"is": true, "are": true, "was": true, "were": true, "be": true,
	"has": true, "have": true, "had": true, "will": true, "would": true,
	"can": true, "could": true, "must": true, "should": true, "does": true,
	"do": true, "did": true, "provides": true, "means": true,
	"ist": true, "sind": true, "war": true, "waren": true, "hat": true,
	"haben": true, "wird": true, "werden": true, "kann": true, "muss": true,
}

// Classify maps one unit of text to its category.
func (c *Classifier) Classify(unit string) model.Category {
	trimmed := strings.TrimSpace(unit)
	if trimmed == "" {
		return model.CategoryNormal
	}

	if isCitationPattern(trimmed) {
		return model.CategoryCitation
	}
	// Date detection runs before the alphabetic-ratio fallback: numeric
	// dates are digit-heavy and would otherwise land in citation.
	if isDate(trimmed) {
		return model.CategoryDate
	}
	if c.isSymbolHeavy(trimmed) {
		return model.CategoryCitation
	}
	if c.isHeading(trimmed) {
		return model.CategoryHeading
	}
	if c.isList(trimmed) {
		return model.CategoryList
	}
	return model.CategoryNormal
}

func isCitationPattern(unit string) bool {
	return doiPattern.MatchString(unit) || isbnPattern.MatchString(unit) || refPattern.MatchString(unit)
}

// isSymbolHeavy flags spans (reference IDs, file numbers, section marks)
// that are not language and must not reach the LLM.
func (c *Classifier) isSymbolHeavy(unit string) bool {
	letters, total := 0, 0
	for _, r := range unit {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return total > 0 && float64(letters)/float64(total) < c.cfg.MinAlphaRatio
}

func isDate(unit string) bool {
	if numericDate.MatchString(unit) || isoDate.MatchString(unit) || clockTime.MatchString(unit) {
		return true
	}

	// Month-name forms ("12. März 2024", "March 12, 2024"): every token
	// must be date vocabulary or numeric, and at least one digit present.
	fields := strings.Fields(unit)
	if len(fields) < 2 || len(fields) > 5 {
		return false
	}
	hasDigit := false
	for _, f := range fields {
		w := strings.ToLower(strings.Trim(f, ".,"))
		numeric := true
		for _, r := range w {
			if r >= '0' && r <= '9' {
				hasDigit = true
			} else if r != ':' && r != '.' && r != '/' && r != '-' {
				numeric = false
			}
		}
		if !numeric && !dateWords[w] {
			return false
		}
	}
	return hasDigit
}

func (c *Classifier) isHeading(unit string) bool {
	if strings.ContainsAny(unit, "\n") {
		return false
	}
	// A lone bullet item is list content, not a title, even when it is
	// short, unpunctuated and verb-free.
	if loc := bulletMarker.FindStringIndex(unit); loc != nil && loc[0] == 0 {
		return false
	}
	fields := strings.Fields(unit)
	if len(fields) == 0 || len(fields) > c.cfg.HeadingMaxWords {
		return false
	}
	switch unit[len(unit)-1] {
	case '.', '!', '?', ';', ',':
		return false
	}
	for _, f := range fields {
		if verbMarkers[strings.ToLower(strings.Trim(f, ".,:;!?"))] {
			return false
		}
	}
	return true
}

func (c *Classifier) isList(unit string) bool {
	return len(bulletMarker.FindAllString(unit, -1)) >= c.cfg.ListMarkerMin
}
