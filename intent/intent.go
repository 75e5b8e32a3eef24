// Package intent classifies what a free-text request is for and what kind
// of output it implies. It also lays out a declarative plan of pipeline
// steps that would answer it. Nothing here executes queries.
package intent

import (
	"fmt"
	"regexp"
	"strings"

	"stock-screener/fields"
)

// Intent is the classified purpose of a request.
type Intent string

const (
	Screen         Intent = "screen"
	Compare        Intent = "compare"
	AnalyzeIntent  Intent = "analyze"
	Rank           Intent = "rank"
	SectorAnalysis Intent = "sector_analysis"
	Portfolio      Intent = "portfolio"
	Trend          Intent = "trend"
	Alert          Intent = "alert"
	Explain        Intent = "explain"
	Summarize      Intent = "summarize"
	Custom         Intent = "custom"
)

// OutputType is the presentation shape the request implies.
type OutputType string

const (
	OutputTable      OutputType = "table"
	OutputChart      OutputType = "chart"
	OutputCards      OutputType = "cards"
	OutputComparison OutputType = "comparison"
	OutputReport     OutputType = "report"
	OutputList       OutputType = "list"
	OutputText       OutputType = "text"
)

// Analysis is the result of Analyze.
type Analysis struct {
	Intent         Intent     `json:"intent"`
	OutputType     OutputType `json:"outputType"`
	Confidence     float64    `json:"confidence"`
	Symbols        []string   `json:"symbols"`
	Sectors        []string   `json:"sectors"`
	Metrics        []string   `json:"metrics"`
	Visualizations []string   `json:"visualizations"`
	SuggestedCards []string   `json:"suggestedCards"`
	Pipeline       []Step     `json:"pipeline"`
	Explanation    string     `json:"explanation"`
}

type pattern struct {
	intent     Intent
	re         *regexp.Regexp
	confidence float64
	output     OutputType
	visuals    []string
	cards      []string
}

// patterns are tried in order; the first match decides the intent. The
// specific intents come before screen because screen vocabulary ("stocks",
// "show") appears in almost every request.
var patterns = []pattern{
	{Compare, regexp.MustCompile(`(?i)\b(compare|comparing|comparison|vs\.?|versus|head\s+to\s+head|difference\s+between)\b`),
		0.9, OutputComparison, []string{"bar", "radar"}, []string{"comparison"}},
	{Alert, regexp.MustCompile(`(?i)\b(alerts?|notify|remind\s+me|let\s+me\s+know|tell\s+me\s+when|ping\s+me)\b`),
		0.85, OutputList, []string{"table"}, []string{"alert"}},
	{Portfolio, regexp.MustCompile(`(?i)\b(portfolio|holdings|allocation|diversif\w*|watch\s*list|my\s+stocks)\b`),
		0.8, OutputChart, []string{"pie", "table"}, []string{"portfolio"}},
	{SectorAnalysis, regexp.MustCompile(`(?i)\b(sector|industry)[\s-]*(wise|analysis|performance|overview|breakdown|comparison|rotation)\b|\b(by|across|per|each)\s+(sector|sectors|industry|industries)\b`),
		0.85, OutputChart, []string{"bar", "treemap"}, []string{"sector_overview"}},
	{Explain, regexp.MustCompile(`(?i)\b(explain|what\s+is|what\s+are|what\s+does|meaning\s+of|define|why)\b`),
		0.7, OutputText, nil, []string{"explainer"}},
	{Summarize, regexp.MustCompile(`(?i)\b(summary|summari[sz]e|overview|snapshot|brief|recap)\b`),
		0.75, OutputText, []string{"table"}, []string{"summary"}},
	{Trend, regexp.MustCompile(`(?i)\b(trend|trending|momentum|over\s+time|historical|moving\s+average|breakouts?|rally|uptrend|downtrend)\b`),
		0.75, OutputChart, []string{"line"}, []string{"technicals"}},
	{AnalyzeIntent, regexp.MustCompile(`(?i)\b(analy[sz]e|analysis|deep\s+dive|fundamentals|evaluate|assess|health|how\s+is|how's|tell\s+me\s+about)\b`),
		0.8, OutputCards, []string{"radar", "gauge"}, []string{"overview", "fundamentals"}},
	{Rank, regexp.MustCompile(`(?i)\b(rank|ranked|ranking|top\s+\d+|best|worst|leaders|laggards|highest|lowest|biggest|smallest|gainers|losers)\b`),
		0.8, OutputTable, []string{"bar", "table"}, []string{"leaderboard"}},
	{Screen, regexp.MustCompile(`(?i)[<>]=?|\b(stocks?|companies|shares|screen|filter|find|show|list|above|below|greater|less|under|over|between)\b`),
		0.7, OutputTable, []string{"table"}, nil},
}

var (
	upperTokenRe = regexp.MustCompile(`\b[A-Z][A-Z0-9&]{1,14}\b`)
	reportRe     = regexp.MustCompile(`(?i)\b(report|detailed|comprehensive)\b`)
	topNRe       = regexp.MustCompile(`(?i)\b(?:top|first|best)\s+(\d{1,4})\b`)
	wordRe       = regexp.MustCompile(`[A-Za-z0-9/&]+`)
)

// symbolStopwords are capitalized words that are never symbols.
var symbolStopwords = map[string]bool{
	"AND": true, "OR": true, "NOT": true, "VS": true, "THE": true, "ALL": true, "ANY": true,
	"TOP": true, "BEST": true, "WITH": true, "FOR": true, "FROM": true, "IN": true, "OF": true,
	"TO": true, "BY": true, "ON": true, "IS": true, "ARE": true, "ME": true, "MY": true,
	"SHOW": true, "FIND": true, "LIST": true, "COMPARE": true, "TRUE": true, "FALSE": true,
	"YES": true, "NO": true, "NSE": true, "BSE": true, "INR": true, "USD": true, "CAGR": true,
}

const maxVisualizations = 4

// Analyze classifies text.
func Analyze(text string) Analysis {
	a := Analysis{
		Intent:     Custom,
		OutputType: OutputList,
		Symbols:    Symbols(text),
		Sectors:    Sectors(text),
		Metrics:    Metrics(text),
	}

	var matched *pattern
	for i := range patterns {
		if patterns[i].re.MatchString(text) {
			matched = &patterns[i]
			break
		}
	}
	if matched != nil {
		a.Intent = matched.intent
		a.OutputType = matched.output
		a.Confidence = matched.confidence
		if len(a.Symbols) > 0 {
			a.Confidence += 0.05
		}
		if len(a.Metrics) > 0 {
			a.Confidence += 0.05
		}
		if a.Confidence > 0.99 {
			a.Confidence = 0.99
		}
		a.Visualizations = append(a.Visualizations, matched.visuals...)
		a.SuggestedCards = append(a.SuggestedCards, matched.cards...)
	}

	for _, m := range a.Metrics {
		a.Visualizations = appendUnique(a.Visualizations, visualFor(m))
		a.SuggestedCards = appendUnique(a.SuggestedCards, cardFor(m))
	}
	if len(a.Visualizations) > maxVisualizations {
		a.Visualizations = a.Visualizations[:maxVisualizations]
	}

	if len(a.Symbols) == 1 && a.Intent != Screen && a.Intent != Rank {
		a.OutputType = OutputCards
	}
	if reportRe.MatchString(text) {
		a.OutputType = OutputReport
	}

	a.Pipeline = buildPlan(text, a)
	a.Explanation = explain(a)
	return a
}

// Symbols returns capitalized tokens that look like ticker symbols.
func Symbols(text string) []string {
	var out []string
	for _, tok := range upperTokenRe.FindAllString(text, -1) {
		if symbolStopwords[tok] {
			continue
		}
		lower := strings.ToLower(tok)
		if _, ok := fields.ResolveField(lower); ok {
			continue
		}
		if _, ok := fields.ExactSector(lower); ok {
			continue
		}
		out = appendUnique(out, tok)
	}
	return out
}

// Sectors returns the canonical sectors named in text. Aliases shorter than
// three letters ("it") only count when written in capitals.
func Sectors(text string) []string {
	tokens := wordRe.FindAllString(text, -1)
	var out []string
	for i := 0; i < len(tokens); {
		n, sector := matchNGram(tokens, i, func(phrase string, n int) (string, bool) {
			if n == 1 && len(phrase) < 3 && phrase != strings.ToUpper(phrase) {
				return "", false
			}
			return fields.ExactSector(strings.ToLower(phrase))
		})
		if n == 0 {
			i++
			continue
		}
		out = appendUnique(out, sector)
		i += n
	}
	return out
}

var metricKeywords = map[string]string{
	"valuation":  "pe",
	"valued":     "pe",
	"cheap":      "pe",
	"expensive":  "pe",
	"dividends":  "dividendYield",
	"growth":     "revenueGrowth",
	"growing":    "revenueGrowth",
	"returns":    "return1y",
	"performers": "return1y",
	"momentum":   "rsi",
	"volatility": "beta",
	"volatile":   "beta",
	"profitable": "roe",
	"margins":    "netMargin",
	"leverage":   "debtToEquity",
}

// Metrics returns the numeric fields named in text, by alias or keyword.
func Metrics(text string) []string {
	tokens := wordRe.FindAllString(text, -1)
	var out []string
	for i := 0; i < len(tokens); {
		n, field := matchNGram(tokens, i, func(phrase string, n int) (string, bool) {
			lower := strings.ToLower(phrase)
			if f, ok := fields.ResolveField(lower); ok && fields.IsNumeric(f) {
				return f, true
			}
			if n == 1 {
				f, ok := metricKeywords[lower]
				return f, ok
			}
			return "", false
		})
		if n == 0 {
			i++
			continue
		}
		out = appendUnique(out, field)
		i += n
	}
	return out
}

// matchNGram tries the longest phrase of up to four tokens starting at i.
func matchNGram(tokens []string, i int, match func(phrase string, n int) (string, bool)) (int, string) {
	for n := 4; n >= 1; n-- {
		if i+n > len(tokens) {
			continue
		}
		if v, ok := match(strings.Join(tokens[i:i+n], " "), n); ok {
			return n, v
		}
	}
	return 0, ""
}

func visualFor(metric string) string {
	switch metric {
	case "price", "sma50", "sma200", "rsi", "high52w", "low52w",
		"return1d", "return1w", "return1m", "return3m", "return6m", "return1y", "cagr3y", "cagr5y":
		return "line"
	case "marketCap":
		return "treemap"
	case "beta", "debtToEquity":
		return "scatter"
	case "volume", "avgVolume", "volumeChange5d":
		return "histogram"
	}
	return "bar"
}

func cardFor(metric string) string {
	switch metric {
	case "pe", "pb", "ps", "evEbitda", "peg", "eps", "bookValue":
		return "valuation"
	case "roe", "roa", "roce", "operatingMargin", "netMargin", "grossMargin":
		return "profitability"
	case "revenueGrowth", "earningsGrowth", "cagr3y", "cagr5y":
		return "growth"
	case "debtToEquity", "currentRatio", "interestCoverage", "freeCashFlow":
		return "financial_health"
	case "dividendYield":
		return "dividend"
	case "rsi", "sma50", "sma200", "beta", "volume", "avgVolume", "volumeChange5d", "high52w", "low52w":
		return "technicals"
	}
	return "performance"
}

func explain(a Analysis) string {
	if a.Intent == Custom {
		return "No known intent matched; showing a plain list."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Detected %s intent (confidence %.2f)", strings.ReplaceAll(string(a.Intent), "_", " "), a.Confidence)
	if len(a.Symbols) > 0 {
		fmt.Fprintf(&b, " for %s", strings.Join(a.Symbols, ", "))
	}
	if len(a.Sectors) > 0 {
		fmt.Fprintf(&b, " in %s", strings.Join(a.Sectors, ", "))
	}
	if len(a.Metrics) > 0 {
		labels := make([]string, len(a.Metrics))
		for i, m := range a.Metrics {
			labels[i] = fields.Label(m)
		}
		fmt.Fprintf(&b, ", focusing on %s", strings.Join(labels, ", "))
	}
	fmt.Fprintf(&b, "; output as %s in %d steps.", a.OutputType, len(a.Pipeline))
	return b.String()
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}
