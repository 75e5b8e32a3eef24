package translator

import (
	"strconv"
	"strings"

	"stock-screener/fields"
	"stock-screener/query"
)

type superlative struct {
	order  query.Order
	metric string // used when no metric keyword follows
	reach  int    // how many words may sit between the word and its metric
}

var superlatives = map[string]superlative{
	"biggest":   {order: query.Desc, metric: "marketCap", reach: 3},
	"largest":   {order: query.Desc, metric: "marketCap", reach: 3},
	"highest":   {order: query.Desc, reach: 3},
	"most":      {order: query.Desc, reach: 3},
	"greatest":  {order: query.Desc, reach: 3},
	"best":      {order: query.Desc, reach: 3},
	"strongest": {order: query.Desc, reach: 3},
	"maximum":   {order: query.Desc, reach: 3},
	"top":       {order: query.Desc, reach: 1},
	"smallest":  {order: query.Asc, metric: "marketCap", reach: 3},
	"lowest":    {order: query.Asc, reach: 3},
	"least":     {order: query.Asc, reach: 3},
	"cheapest":  {order: query.Asc, metric: "pe", reach: 3},
	"weakest":   {order: query.Asc, reach: 3},
	"worst":     {order: query.Asc, reach: 3},
	"minimum":   {order: query.Asc, reach: 3},
}

type metricKeyword struct {
	field string
	order query.Order // forced direction, empty to follow the superlative
}

// metricKeywords maps target words to the field a superlative sorts by.
var metricKeywords = map[string]metricKeyword{
	"gainers":     {field: "return1d", order: query.Desc},
	"gainer":      {field: "return1d", order: query.Desc},
	"losers":      {field: "return1d", order: query.Asc},
	"loser":       {field: "return1d", order: query.Asc},
	"companies":   {field: "marketCap"},
	"firms":       {field: "marketCap"},
	"dividend":    {field: "dividendYield"},
	"dividends":   {field: "dividendYield"},
	"valuation":   {field: "pe"},
	"valued":      {field: "pe"},
	"performers":  {field: "return1y"},
	"performance": {field: "return1y"},
	"performing":  {field: "return1y"},
	"returns":     {field: "return1y"},
	"return":      {field: "return1y"},
	"momentum":    {field: "rsi"},
	"growth":      {field: "revenueGrowth"},
	"growing":     {field: "revenueGrowth"},
	"margins":     {field: "netMargin"},
	"margin":      {field: "netMargin"},
	"volumes":     {field: "volume"},
	"traded":      {field: "volume"},
}

// inferSort finds an explicit "sort by <field>" phrase, then a "top N ...
// by <field>" phrase, or else a superlative followed by a metric keyword.
func inferSort(text string) *query.Sort {
	if s := explicitSort(text); s != nil {
		return s
	}

	ws := words(text)
	if s := rankedBy(text, ws); s != nil {
		return s
	}
	for i, w := range ws {
		sup, ok := superlatives[w]
		if !ok {
			continue
		}
		// "at least" and "at most" are operators, not superlatives.
		if i > 0 && ws[i-1] == "at" {
			continue
		}
		j, seen := i+1, 0
		for j < len(ws) && seen < sup.reach {
			if _, err := strconv.ParseFloat(ws[j], 64); err == nil {
				j++
				continue
			}
			if kw, ok := metricAt(ws, j); ok {
				order := sup.order
				if kw.order != "" {
					order = kw.order
				}
				return &query.Sort{Field: kw.field, Order: order}
			}
			j++
			seen++
		}
		if sup.metric != "" {
			return &query.Sort{Field: sup.metric, Order: sup.order}
		}
	}
	return nil
}

// metricAt matches a keyword or a registered field at ws[j], preferring the
// longest phrase of up to four words.
func metricAt(ws []string, j int) (metricKeyword, bool) {
	for n := 4; n >= 1; n-- {
		if j+n > len(ws) {
			continue
		}
		phrase := strings.Join(ws[j:j+n], " ")
		if f, ok := fields.ResolveField(phrase); ok && fields.IsNumeric(f) {
			return metricKeyword{field: f}, true
		}
		if n == 1 {
			if kw, ok := metricKeywords[phrase]; ok {
				return kw, true
			}
		}
	}
	return metricKeyword{}, false
}

func explicitSort(text string) *query.Sort {
	m := sortByRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	field, ok := resolveLeadingField(m[1])
	if !ok {
		return nil
	}
	order, ok := direction(m[2])
	if !ok {
		order = query.Desc
		if d, ok := fields.Lookup(field); ok && d.LowerIsBetter {
			order = query.Asc
		}
	}
	return &query.Sort{Field: field, Order: order}
}

// rankedBy reads "top 5 IT stocks by market cap". The bare "by <field>"
// only counts when a limit phrase or a superlative is present, and only for
// numeric fields. The order defaults to the superlative's, else descending.
func rankedBy(text string, ws []string) *query.Sort {
	m := rankedByRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	order, hinted := query.Desc, limitRe.MatchString(text)
	for i, w := range ws {
		if sup, ok := superlatives[w]; ok && (i == 0 || ws[i-1] != "at") {
			order, hinted = sup.order, true
			break
		}
	}
	if !hinted {
		return nil
	}
	field, ok := resolveLeadingField(m[1])
	if !ok || !fields.IsNumeric(field) {
		return nil
	}
	if o, ok := direction(m[2]); ok {
		order = o
	}
	return &query.Sort{Field: field, Order: order}
}

// direction maps an explicit ordering phrase; ok is false when none is given.
func direction(phrase string) (query.Order, bool) {
	switch strings.Join(strings.Fields(strings.ToLower(phrase)), " ") {
	case "asc", "ascending", "increasing", "low to high":
		return query.Asc, true
	case "desc", "descending", "decreasing", "high to low":
		return query.Desc, true
	}
	return "", false
}

// resolveLeadingField tries the longest prefix of phrase first.
func resolveLeadingField(phrase string) (string, bool) {
	ws := words(phrase)
	for n := len(ws); n >= 1; n-- {
		if f, ok := fields.ResolveField(strings.Join(ws[:n], " ")); ok {
			return f, true
		}
	}
	return "", false
}
