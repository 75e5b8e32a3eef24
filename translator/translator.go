// Package translator turns free text into a structured query.ParsedQuery
// using ordered pattern tables. It never fails: text it cannot place is
// classified as unknown, and filter phrases it cannot resolve are dropped
// and listed in ScreenerQuery.Dropped.
package translator

import (
	"strings"

	"stock-screener/query"
)

// DefaultLimit applies when the text names no limit.
const DefaultLimit = 20

// Translator converts text to parsed queries.
type Translator struct {
	defaultLimit int
}

// Option configures a Translator.
type Option func(*Translator)

// WithDefaultLimit overrides DefaultLimit.
func WithDefaultLimit(n int) Option {
	return func(t *Translator) {
		if n > 0 {
			t.defaultLimit = n
		}
	}
}

// New creates a Translator.
func New(opts ...Option) *Translator {
	t := &Translator{defaultLimit: DefaultLimit}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Translate parses text. prior is the previously emitted query and is only
// consulted for refinements ("+<n> ...").
func (t *Translator) Translate(text string, prior *query.ParsedQuery) query.ParsedQuery {
	if m := refinementRe.FindStringSubmatch(text); m != nil {
		return t.refine(text, m[2], prior)
	}

	pq := query.ParsedQuery{Type: Classify(text), Raw: text}
	switch pq.Type {
	case query.TypeWatchlist:
		pq.Watchlist = parseWatchlist(text)
	case query.TypeAlert:
		pq.Alert = &query.AlertRequest{
			Symbols:    preferredSymbols(text),
			Conditions: ExtractFilters(text),
		}
	case query.TypeComparison:
		pq.Symbols = preferredSymbols(comparisonRe.ReplaceAllString(text, " "))
	case query.TypeSingleStock:
		pq.Symbols = symbolCandidates(text, true)[:1]
	case query.TypeScreener:
		pq.Screener = t.screener(text)
	}
	return pq
}

func (t *Translator) screener(text string) *query.ScreenerQuery {
	ex := extract(text)
	q := &query.ScreenerQuery{
		Filters: ex.filters,
		Sort:    ex.sort,
		Limit:   t.defaultLimit,
		Offset:  ex.offset,
		Dropped: ex.dropped,
	}
	if ex.limit > 0 {
		q.Limit = ex.limit
	}
	if len(ex.includeSectors) > 0 {
		q.Include = &query.Selection{Sectors: ex.includeSectors}
	}
	if len(ex.excludeSectors) > 0 || len(ex.excludeSymbols) > 0 {
		q.Exclude = &query.Selection{Sectors: ex.excludeSectors, Symbols: ex.excludeSymbols}
	}
	return q
}

// refine merges the remainder of a "+<n>" utterance onto the prior screener
// query. Prior filters and exclusions are always kept; limit and sort are
// replaced only when the new text names them, and a newly named sector
// replaces the include list. The prior offset is not inherited: a
// refinement runs over the prior page, which is already offset.
func (t *Translator) refine(raw, rest string, prior *query.ParsedQuery) query.ParsedQuery {
	var base *query.ScreenerQuery
	if prior != nil && prior.Screener != nil {
		base = prior.Screener.Clone()
	} else {
		base = &query.ScreenerQuery{Limit: t.defaultLimit}
	}

	ex := extract(rest)
	for _, f := range ex.filters {
		dup := false
		for _, existing := range base.Filters {
			if sameFilter(existing, f) {
				dup = true
				break
			}
		}
		if !dup {
			base.Filters = append(base.Filters, f)
		}
	}

	if len(ex.excludeSectors) > 0 || len(ex.excludeSymbols) > 0 {
		if base.Exclude == nil {
			base.Exclude = &query.Selection{}
		}
		for _, s := range ex.excludeSectors {
			base.Exclude.Sectors = appendUnique(base.Exclude.Sectors, s)
		}
		for _, s := range ex.excludeSymbols {
			base.Exclude.Symbols = appendUnique(base.Exclude.Symbols, s)
		}
	}
	if len(ex.includeSectors) > 0 {
		if base.Include == nil {
			base.Include = &query.Selection{}
		}
		base.Include.Sectors = ex.includeSectors
	}
	if ex.limit > 0 {
		base.Limit = ex.limit
	}
	base.Offset = ex.offset
	if ex.sort != nil {
		base.Sort = ex.sort
	}
	base.Dropped = ex.dropped

	return query.ParsedQuery{
		Type:       query.TypeScreener,
		Screener:   base,
		Refinement: true,
		Raw:        raw,
	}
}

// preferredSymbols returns the capitalized symbol tokens of text, falling
// back to every symbol-shaped word when none were capitalized.
func preferredSymbols(text string) []string {
	if syms := upperSymbols(text); len(syms) > 0 {
		return syms
	}
	return symbolCandidates(text, false)
}

func upperSymbols(text string) []string {
	var out []string
	for _, s := range symbolCandidates(text, false) {
		if strings.Contains(text, s) {
			out = append(out, s)
		}
	}
	return out
}

func parseWatchlist(text string) *query.WatchlistRequest {
	lower := strings.ToLower(text)
	req := &query.WatchlistRequest{Action: query.WatchlistShow}
	switch {
	case containsAny(lower, "remove", "delete", "drop", "take off"):
		req.Action = query.WatchlistRemove
	case containsAny(lower, "add", "put", "track", "include"):
		req.Action = query.WatchlistAdd
	}
	if req.Action != query.WatchlistShow {
		req.Symbols = preferredSymbols(watchlistRe.ReplaceAllString(text, " "))
	}
	return req
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		for _, w := range strings.Fields(s) {
			if w == sub {
				return true
			}
		}
		if strings.Contains(sub, " ") && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
