package usecase

import (
	"regexp"
	"strings"
)

var punctuationPattern = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

// Scoring bonuses
const (
	brandMatchBonus     = 15.0 // Brand appears in the candidate name
	substringMatchBonus = 10.0 // One name contains the other
	fuzzyEditDistance   = 1
)

// matchStopWords carry no product identity
var matchStopWords = map[string]bool{
	"the": true, "and": true, "with": true, "for": true, "of": true, "in": true,
	"de": true, "la": true, "el": true, "con": true, "sin": true, "y": true,
	"new": true, "original": true, "classic": true, "premium": true, "pack": true,
}

// NameMatchScore rates from 0 to 100 how likely candidate names the same
// product as reference. It weights reference token coverage (60%), candidate
// token coverage (20%) and Jaccard similarity (20%), adds bonuses for a brand
// or substring match and treats tokens one edit apart as equal.
func NameMatchScore(reference, brand, candidate string) float64 {
	refTokens := matchTokens(NameHint(reference, ""))
	candTokens := matchTokens(NameHint(candidate, ""))
	if len(refTokens) == 0 || len(candTokens) == 0 {
		return 0
	}

	refMatched := countMatched(refTokens, candTokens)
	candMatched := countMatched(candTokens, refTokens)
	union := len(refTokens) + len(candTokens) - refMatched
	jaccard := float64(refMatched) / float64(union)

	score := (float64(refMatched)/float64(len(refTokens))*0.60 +
		float64(candMatched)/float64(len(candTokens))*0.20 +
		jaccard*0.20) * 100

	candLower := strings.ToLower(candidate)
	refLower := strings.ToLower(strings.TrimSpace(reference))
	if brand = strings.ToLower(strings.TrimSpace(brand)); brand != "" && strings.Contains(candLower, brand) {
		score += brandMatchBonus
	}
	if len(refLower) > 3 && (strings.Contains(candLower, refLower) || strings.Contains(refLower, candLower)) {
		score += substringMatchBonus
	}

	return min(score, 100)
}

// matchTokens lowercases, strips punctuation and drops short, numeric and stop words
func matchTokens(s string) []string {
	cleaned := punctuationPattern.ReplaceAllString(strings.ToLower(s), " ")

	var tokens []string
	seen := make(map[string]bool)
	for _, word := range strings.Fields(cleaned) {
		if len([]rune(word)) <= 1 || matchStopWords[word] || isNumeric(word) || seen[word] {
			continue
		}
		seen[word] = true
		tokens = append(tokens, word)
	}
	return tokens
}

// countMatched counts tokens of a that have an exact or fuzzy match in b
func countMatched(a, b []string) int {
	n := 0
	for _, t := range a {
		for _, u := range b {
			if t == u || fuzzyTokenMatch(t, u, fuzzyEditDistance) {
				n++
				break
			}
		}
	}
	return n
}

func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// fuzzyTokenMatch checks if two tokens are within the edit distance threshold.
// Short tokens must match exactly.
func fuzzyTokenMatch(token1, token2 string, threshold int) bool {
	if token1 == token2 {
		return true
	}
	r1, r2 := []rune(token1), []rune(token2)
	if len(r1) < 4 || len(r2) < 4 {
		return false
	}
	lenDiff := len(r1) - len(r2)
	if lenDiff < 0 {
		lenDiff = -lenDiff
	}
	if lenDiff > threshold {
		return false
	}
	return levenshteinDistance(r1, r2) <= threshold
}

// levenshteinDistance calculates the edit distance using two rolling rows
func levenshteinDistance(r1, r2 []rune) int {
	m, n := len(r1), len(r2)
	if m == 0 {
		return n
	}
	if n == 0 {
		return m
	}

	prev := make([]int, n+1)
	curr := make([]int, n+1)
	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[n]
}
