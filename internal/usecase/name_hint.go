package usecase

import (
	"regexp"
	"strings"

	"github.com/DiegoDok7/hiperalia-ean-processing/internal/domain"
)

// Compiled regex patterns for name hint cleaning
var (
	// Matches size/quantity patterns like "12 fl oz", "1.5 liter", "400 g", "33 cl"
	sizeQuantityPattern = regexp.MustCompile(`(?i)\b\d+[.,]?\d*\s*(fl\s*)?oz\b|\b\d+[.,]?\d*\s*(fl\s*)?ounces?\b|\b\d+[.,]?\d*\s*lbs?\b|\b\d+[.,]?\d*\s*pounds?\b|\b\d+[.,]?\d*\s*ml\b|\b\d+[.,]?\d*\s*cl\b|\b\d+[.,]?\d*\s*l\b|\b\d+[.,]?\d*\s*liters?\b|\b\d+[.,]?\d*\s*litres?\b|\b\d+[.,]?\d*\s*gallons?\b|\b\d+[.,]?\d*\s*kg\b|\b\d+[.,]?\d*\s*grams?\b|\b\d+[.,]?\d*\s*g\b`)

	// Matches pack/count patterns like "12 pack", "pack of 6", "6-pack", "24 count", "6 ct"
	packCountPattern = regexp.MustCompile(`(?i)\b\d+[-\s]*(pack|pk|count|ct)\b|\bpack\s*of\s*\d+\b|\b\d+\s*x\b|\b\d+\s*(cans?|bottles?|pouches?|bars?|pieces?|units?)\b`)

	orphanedPunctuationPattern = regexp.MustCompile(`\s+[,\-;:]+\s+|[,\-;:]+\s*$|^\s*[,\-;:]+`)

	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// nameNoiseWords are marketing terms that make web searches less precise
var nameNoiseWords = map[string]bool{
	"value":    true,
	"family":   true,
	"bonus":    true,
	"new":      true,
	"improved": true,
	"premium":  true,
	"select":   true,
	"quality":  true,
	"best":     true,
	"special":  true,
	"size":     true,
	"jumbo":    true,
	"giant":    true,
}

const maxHintLength = 100

// NameHint cleans a product name before it is handed to the web enrichment
// prompt: sizes, pack counts and marketing words are removed and the brand is
// prepended when missing. Placeholders produce an empty hint.
func NameHint(name, brand string) string {
	if domain.IsPlaceholder(strings.TrimSpace(name)) {
		return ""
	}

	cleaned := sizeQuantityPattern.ReplaceAllString(name, " ")
	cleaned = packCountPattern.ReplaceAllString(cleaned, " ")
	cleaned = removeNoiseWords(cleaned)
	cleaned = orphanedPunctuationPattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(multiSpacePattern.ReplaceAllString(cleaned, " "))
	cleaned = strings.Trim(cleaned, ",-;: ")

	if brand = strings.TrimSpace(brand); brand != "" && !domain.IsPlaceholder(brand) {
		if !strings.Contains(strings.ToLower(cleaned), strings.ToLower(brand)) {
			cleaned = strings.TrimSpace(brand + " " + cleaned)
		}
	}

	if runes := []rune(cleaned); len(runes) > maxHintLength {
		cleaned = string(runes[:maxHintLength])
		if lastSpace := strings.LastIndex(cleaned, " "); lastSpace > maxHintLength/2 {
			cleaned = cleaned[:lastSpace]
		}
	}
	return cleaned
}

// removeNoiseWords drops marketing terms, keeping the original casing of the rest
func removeNoiseWords(s string) string {
	var kept []string
	for _, word := range strings.Fields(s) {
		if !nameNoiseWords[strings.ToLower(strings.Trim(word, ",.!?;:-'\""))] {
			kept = append(kept, word)
		}
	}
	return strings.Join(kept, " ")
}
