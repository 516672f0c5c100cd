package main

import (
	"regexp"
	"strings"

	"github.com/samber/lo"
)

// FindKeyword returns the first keyword that occurs in text as a whole word
// (bounded by non-word characters on both sides), or "" when none matches.
// Matching is case-insensitive and follows the order of the keyword list.
func FindKeyword(text string, keywords []string) string {
	textLower := strings.ToLower(text)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		// RE2 has no lookarounds, so the boundary is spelled out; \p{L}\p{N}_
		// keeps non-ASCII letters counting as word characters.
		pattern := `(?:^|[^\p{L}\p{N}_])` + regexp.QuoteMeta(strings.ToLower(kw)) + `(?:$|[^\p{L}\p{N}_])`
		if matched, err := regexp.MatchString(pattern, textLower); err == nil && matched {
			return kw
		}
	}
	return ""
}

// HasMinusWord reports whether any minus phrase occurs anywhere in the text
// as a case-insensitive substring. Unlike keywords this deliberately has no
// word-boundary requirement, so spam markers embedded in longer words still
// match.
func HasMinusWord(text string, minusWords []string) bool {
	textLower := strings.ToLower(text)
	return lo.ContainsBy(minusWords, func(phrase string) bool {
		return phrase != "" && strings.Contains(textLower, strings.ToLower(phrase))
	})
}

// CleanMinusWords drops from every minus phrase the tokens that equal a
// skip-word or a keyword (case-insensitively), removes phrases that become
// empty and deduplicates the result. Input slices are not mutated.
func CleanMinusWords(minusWords, skipWords, keywords []string) []string {
	forbidden := make(map[string]struct{}, len(skipWords)+len(keywords))
	for _, w := range skipWords {
		forbidden[strings.ToLower(w)] = struct{}{}
	}
	for _, w := range keywords {
		forbidden[strings.ToLower(w)] = struct{}{}
	}

	result := make([]string, 0, len(minusWords))
	seen := make(map[string]struct{}, len(minusWords))

	for _, phrase := range minusWords {
		tokens := strings.Fields(strings.ToLower(phrase))
		kept := lo.Filter(tokens, func(tok string, _ int) bool {
			_, bad := forbidden[tok]
			return !bad
		})
		cleaned := strings.Join(kept, " ")
		if cleaned == "" {
			continue
		}
		if _, dup := seen[cleaned]; dup {
			continue
		}
		seen[cleaned] = struct{}{}
		result = append(result, cleaned)
	}

	return result
}

// appendUnique appends term to list unless it is already present
// case-insensitively. It reports whether the term was added.
func appendUnique(list []string, term string) ([]string, bool) {
	exists := lo.ContainsBy(list, func(w string) bool {
		return strings.EqualFold(w, term)
	})
	if exists {
		return list, false
	}
	return append(list, term), true
}

// removeTerms removes every listed term case-insensitively.
func removeTerms(list []string, terms []string) []string {
	drop := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		drop[strings.ToLower(t)] = struct{}{}
	}
	return lo.Filter(list, func(w string, _ int) bool {
		_, found := drop[strings.ToLower(w)]
		return !found
	})
}
