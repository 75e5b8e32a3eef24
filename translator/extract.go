package translator

import (
	"fmt"
	"strconv"
	"strings"

	"stock-screener/fields"
	"stock-screener/query"
	"stock-screener/values"
)

// extraction is the union of every extraction pass over one utterance.
type extraction struct {
	filters        []query.Filter
	dropped        []string
	includeSectors []string
	excludeSectors []string
	excludeSymbols []string
	limit          int
	offset         int
	sort           *query.Sort
}

type span struct{ start, end int }

func (s span) overlaps(o span) bool { return s.start < o.end && o.start < s.end }

// extract runs all passes independently and unions their results.
func extract(text string) extraction {
	var ex extraction

	// (b) runs first so that (a) can skip the same words.
	cagrSpans := ex.extractPeriodReturns(text)
	ex.extractTriples(text, cagrSpans)
	ex.extractStringTriples(text)
	ex.extractExclusions(text)
	ex.extractSectors(text)
	ex.extractVolumeTrend(text)
	ex.extractLimit(text)
	ex.sort = inferSort(text)
	return ex
}

// ExtractFilters returns only the numeric and string filter conditions the
// translator would find in text.
func ExtractFilters(text string) []query.Filter {
	var ex extraction
	spans := ex.extractPeriodReturns(text)
	ex.extractTriples(text, spans)
	ex.extractStringTriples(text)
	ex.extractVolumeTrend(text)
	return ex.filters
}

func (ex *extraction) addFilter(f query.Filter) {
	for _, existing := range ex.filters {
		if sameFilter(existing, f) {
			return
		}
	}
	ex.filters = append(ex.filters, f)
}

func sameFilter(a, b query.Filter) bool {
	return a.Field == b.Field && a.Operator == b.Operator &&
		fmt.Sprint(a.Value) == fmt.Sprint(b.Value) &&
		fmt.Sprint(a.ValueEnd) == fmt.Sprint(b.ValueEnd)
}

// (a) field/operator/value triples in three phrasings, plus "between".
func (ex *extraction) extractTriples(text string, skip []span) {
	type pass struct {
		re      interface{ FindAllStringSubmatchIndex(string, int) [][]int }
		between bool
	}
	passes := []pass{{re: symbolicRe}, {re: wordOpRe}, {re: betweenRe, between: true}, {re: aboveRe}}

	for _, p := range passes {
		for _, m := range p.re.FindAllStringSubmatchIndex(text, -1) {
			sp := span{m[0], m[1]}
			if overlapsAny(sp, skip) {
				continue
			}
			fieldText := text[m[2]:m[3]]
			op := text[m[4]:m[5]]
			value := text[m[6]:m[7]]
			valueEnd := ""
			if p.between {
				valueEnd = text[m[8]:m[9]]
			}
			f, ok := coerce(fieldText, op, value, valueEnd)
			if !ok {
				ex.dropped = append(ex.dropped, strings.TrimSpace(text[m[0]:m[1]]))
				continue
			}
			ex.addFilter(f)
		}
	}
}

func (ex *extraction) extractStringTriples(text string) {
	for _, m := range stringOpRe.FindAllStringSubmatch(text, -1) {
		f, ok := coerce(m[1], m[2], m[3], "")
		if !ok {
			ex.dropped = append(ex.dropped, strings.TrimSpace(m[0]))
			continue
		}
		ex.addFilter(f)
	}
}

func overlapsAny(s span, spans []span) bool {
	for _, o := range spans {
		if s.overlaps(o) {
			return true
		}
	}
	return false
}

// (b) "<pct>% return in <n> years" maps to cagr3y for multi-year periods
// and return1y otherwise.
func (ex *extraction) extractPeriodReturns(text string) []span {
	var spans []span
	for _, m := range cagrRe.FindAllStringSubmatchIndex(text, -1) {
		pct := ""
		switch {
		case m[2] >= 0:
			pct = text[m[2]:m[3]]
		case m[4] >= 0:
			pct = text[m[4]:m[5]]
		}
		v, ok := values.ParsePercentage(pct)
		period, pok := values.ParseTimePeriod(text[m[6]:m[7]])
		if !ok || !pok {
			continue
		}
		field := "return1y"
		if period.Years() > 1 {
			field = "cagr3y"
		}
		ex.addFilter(query.Filter{Field: field, Operator: query.OpGreaterEqual, Value: v})
		spans = append(spans, span{m[0], m[1]})
	}
	return spans
}

// (c) sector include from "in the X sector" and "X stocks".
func (ex *extraction) extractSectors(text string) {
	var phrases []string
	for _, m := range sectorInRe.FindAllStringSubmatch(text, -1) {
		phrases = append(phrases, m[1])
	}
	for _, m := range sectorStocksRe.FindAllStringSubmatch(text, -1) {
		phrases = append(phrases, m[1])
	}
	for _, p := range phrases {
		sector, ok := sectorFromPhrase(p)
		// An explicit exclusion beats an include picked up from the same text.
		if !ok || containsFold(ex.excludeSectors, sector) {
			continue
		}
		ex.includeSectors = appendUnique(ex.includeSectors, sector)
	}
}

// sectorFromPhrase resolves the whole phrase without stopwords first and
// then each remaining word.
func sectorFromPhrase(phrase string) (string, bool) {
	var kept []string
	for _, w := range words(phrase) {
		if !stopwords[w] {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		return "", false
	}
	if s, ok := fields.ResolveSector(strings.Join(kept, " ")); ok {
		return s, true
	}
	for _, w := range kept {
		if s, ok := fields.ResolveSector(w); ok {
			return s, true
		}
	}
	return "", false
}

var trailingNouns = []string{" sectors", " sector", " stocks", " companies", " names", " shares", " industry", " space"}

// (d) "exclude/except/not/without <list>"; each item is a sector or a symbol.
func (ex *extraction) extractExclusions(text string) {
	for _, m := range excludeRe.FindAllStringSubmatch(text, -1) {
		for _, part := range listSplitRe.Split(m[1], -1) {
			part = strings.ToLower(strings.TrimSpace(part))
			part = strings.TrimPrefix(part, "the ")
			part = strings.TrimPrefix(part, "in ")
			for _, suffix := range trailingNouns {
				part = strings.TrimSuffix(part, suffix)
			}
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if s, ok := fields.ResolveSector(part); ok && !stopwords[part] {
				ex.excludeSectors = appendUnique(ex.excludeSectors, s)
				continue
			}
			if strings.Contains(part, " ") || !symbolShaped(part) || !isSymbolWord(part) {
				continue
			}
			ex.excludeSymbols = appendUnique(ex.excludeSymbols, strings.ToUpper(part))
		}
	}
}

// (e) volume trend keywords.
func (ex *extraction) extractVolumeTrend(text string) {
	switch {
	case volumeDownRe.MatchString(text):
		ex.addFilter(query.Filter{Field: "volumeChange5d", Operator: query.OpLess, Value: 0.0})
	case volumeUpRe.MatchString(text):
		ex.addFilter(query.Filter{Field: "volumeChange5d", Operator: query.OpGreater, Value: 0.0})
	}
}

// (f) "top <n>" and friends; "offset <n>".
func (ex *extraction) extractLimit(text string) {
	if m := limitRe.FindStringSubmatch(text); m != nil {
		ex.limit, _ = strconv.Atoi(m[1])
	} else if m := countStocksRe.FindStringSubmatch(text); m != nil {
		ex.limit, _ = strconv.Atoi(m[1])
	}
	if m := offsetRe.FindStringSubmatch(text); m != nil {
		ex.offset, _ = strconv.Atoi(m[1])
	}
}

var operatorAliases = map[string]query.Operator{
	">": query.OpGreater, "<": query.OpLess, ">=": query.OpGreaterEqual, "<=": query.OpLessEqual,
	"=>": query.OpGreaterEqual, "=<": query.OpLessEqual, "=": query.OpEqual, "==": query.OpEqual,
	"!=": query.OpNotEqual,

	"greater than": query.OpGreater, "more than": query.OpGreater, "higher than": query.OpGreater,
	"bigger than": query.OpGreater, "larger than": query.OpGreater, "above": query.OpGreater,
	"over": query.OpGreater, "exceeding": query.OpGreater, "beyond": query.OpGreater,

	"less than": query.OpLess, "lower than": query.OpLess, "smaller than": query.OpLess,
	"fewer than": query.OpLess, "below": query.OpLess, "under": query.OpLess,

	"at least": query.OpGreaterEqual, "no less than": query.OpGreaterEqual,
	"greater than or equal to": query.OpGreaterEqual,
	"at most": query.OpLessEqual, "no more than": query.OpLessEqual, "within": query.OpLessEqual,
	"less than or equal to": query.OpLessEqual,

	"equal to": query.OpEqual, "equals": query.OpEqual, "is": query.OpEqual,
	"not equal to": query.OpNotEqual,
	"between":     query.OpBetween,
	"contains":    query.OpContains, "like": query.OpContains, "includes": query.OpContains,
}

// NormalizeOperator maps a symbolic or word-form operator to its symbol.
// Unrecognized text is returned verbatim and later evaluates as pass-through.
func NormalizeOperator(op string) query.Operator {
	key := strings.Join(strings.Fields(strings.ToLower(op)), " ")
	if o, ok := operatorAliases[key]; ok {
		return o
	}
	return query.Operator(key)
}

// coerce resolves the field, normalizes the operator and parses the value
// by the field's declared type. Unresolvable triples are reported as !ok.
func coerce(fieldText, op, value, valueEnd string) (query.Filter, bool) {
	field, ok := resolveFieldPhrase(fieldText)
	if !ok {
		return query.Filter{}, false
	}
	d, _ := fields.Lookup(field)
	f := query.Filter{Field: field, Operator: NormalizeOperator(op)}

	switch d.Type {
	case fields.Number:
		v, ok := values.ParseNumber(value)
		if !ok {
			return query.Filter{}, false
		}
		f.Value = v
		if valueEnd != "" {
			end, ok := values.ParseNumber(valueEnd)
			if !ok {
				return query.Filter{}, false
			}
			f.ValueEnd = end
		}
	default:
		v := strings.TrimSpace(value)
		if v == "" {
			return query.Filter{}, false
		}
		f.Value = v
		if valueEnd != "" {
			f.ValueEnd = strings.TrimSpace(valueEnd)
		}
	}
	return f, true
}

var fieldConnectives = toSet(`is are of being was the a an has have having with and or
drops drop falls fall rises rise goes go crosses cross trades trading moves reaches hits`)

// resolveFieldPhrase tries the captured words longest-suffix first, since
// the capture may carry leading words such as "stocks with".
func resolveFieldPhrase(phrase string) (string, bool) {
	ws := words(phrase)
	for len(ws) > 0 && fieldConnectives[ws[len(ws)-1]] {
		ws = ws[:len(ws)-1]
	}
	for i := 0; i < len(ws); i++ {
		if f, ok := fields.ResolveField(strings.Join(ws[i:], " ")); ok {
			return f, true
		}
	}
	return "", false
}

func appendUnique(list []string, v string) []string {
	if containsFold(list, v) {
		return list
	}
	return append(list, v)
}

func containsFold(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}
