package translator

import (
	"strings"

	"stock-screener/fields"
	"stock-screener/query"
)

// Rule is one row of the classification table. Rules are evaluated in
// order and the first match decides the query type, so a query that
// mentions both "compare" and "stocks with PE < 15" is a comparison.
type Rule struct {
	Type  query.Type
	Name  string
	Match func(text string) bool
}

// Rules is the classification priority table.
var Rules = []Rule{
	{Type: query.TypeWatchlist, Name: "watchlist keywords", Match: watchlistRe.MatchString},
	{Type: query.TypeAlert, Name: "alert keywords", Match: alertRe.MatchString},
	{Type: query.TypeComparison, Name: "comparison keywords", Match: comparisonRe.MatchString},
	{Type: query.TypeSingleStock, Name: "bare symbol", Match: isBareSymbol},
	{Type: query.TypeScreener, Name: "operators or list vocabulary", Match: hasScreenerVocabulary},
}

// Classify returns the type of the first matching rule, or unknown.
func Classify(text string) query.Type {
	for _, r := range Rules {
		if r.Match(text) {
			return r.Type
		}
	}
	return query.TypeUnknown
}

func hasScreenerVocabulary(text string) bool {
	return operatorRe.MatchString(text) || listVocabRe.MatchString(text)
}

func isBareSymbol(text string) bool {
	if hasScreenerVocabulary(text) {
		return false
	}
	return len(symbolCandidates(text, true)) > 0
}

// symbolCandidates returns symbol-shaped tokens of text, uppercased. With
// upperOnly set, a multi-word text only contributes tokens that were
// written in capitals; a single-token text is taken in any case.
func symbolCandidates(text string, upperOnly bool) []string {
	trimmed := strings.Trim(strings.TrimSpace(text), "?!.")
	tokens := tokenRe.FindAllString(trimmed, -1)
	single := len(tokens) == 1 && strings.TrimSpace(trimmed) == tokens[0]

	var out []string
	seen := make(map[string]bool)
	for _, tok := range tokens {
		tok = strings.TrimRight(tok, ".-")
		if !symbolShaped(tok) {
			continue
		}
		if upperOnly && !single && tok != strings.ToUpper(tok) {
			continue
		}
		if !isSymbolWord(tok) {
			continue
		}
		sym := strings.ToUpper(tok)
		if !seen[sym] {
			seen[sym] = true
			out = append(out, sym)
		}
	}
	return out
}

func symbolShaped(tok string) bool {
	if len(tok) < 2 || len(tok) > 15 {
		return false
	}
	c := tok[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// isSymbolWord rejects connectives, field names and sector names.
func isSymbolWord(tok string) bool {
	lower := strings.ToLower(tok)
	if stopwords[lower] {
		return false
	}
	if _, ok := fields.ResolveField(lower); ok {
		return false
	}
	if _, ok := fields.ExactSector(lower); ok {
		return false
	}
	return true
}
