package translator

import (
	"regexp"
	"strings"
)

const (
	valuePat = `[-+]?[₹$]?\s?\d[\d,]*(?:\.\d+)?\s*(?:%|percent\b|[kmbt]\b)?`
	wordsPat = `((?:[a-z0-9/&]+\s+){0,3}[a-z0-9/&]+)`
)

var (
	refinementRe = regexp.MustCompile(`(?s)^\s*\+(\d+)\s*(.*)$`)

	// classification vocabulary
	watchlistRe  = regexp.MustCompile(`(?i)\b(watch\s*list|watchlists|my\s+list|add\s+to\s+(?:my\s+)?list)\b`)
	alertRe      = regexp.MustCompile(`(?i)\b(alerts?|notify|notification|remind(?:\s+me)?|ping\s+me|let\s+me\s+know|tell\s+me\s+when)\b`)
	comparisonRe = regexp.MustCompile(`(?i)\b(compare|comparing|comparison|vs\.?|versus)\b`)
	operatorRe   = regexp.MustCompile(`(?i)[<>]=?|!=|=|\b(greater|less|more\s+than|fewer|higher\s+than|lower\s+than|above|below|under|over|between|at\s+least|at\s+most|exceeding)\b`)
	listVocabRe  = regexp.MustCompile(`(?i)\b(stocks?|compan(?:y|ies)|shares|scrips|equities|names|counters|show\s+me|show|find|list|screen|screener|filter|give\s+me|which|search|sectors?)\b`)

	// (a) field / operator / value triples
	symbolicRe = regexp.MustCompile(`(?i)` + wordsPat + `\s*(>=|<=|!=|=>|=<|==|>|<|=)\s*(` + valuePat + `)`)
	wordOpRe   = regexp.MustCompile(`(?i)` + wordsPat + `\s+(?:is\s+|are\s+|of\s+|being\s+)?(greater\s+than\s+or\s+equal\s+to|less\s+than\s+or\s+equal\s+to|greater\s+than|more\s+than|higher\s+than|bigger\s+than|larger\s+than|less\s+than|lower\s+than|smaller\s+than|fewer\s+than|at\s+least|at\s+most|no\s+more\s+than|no\s+less\s+than|not\s+equal\s+to|equal\s+to|equals)\s+(` + valuePat + `)`)
	betweenRe  = regexp.MustCompile(`(?i)` + wordsPat + `\s+(?:is\s+|are\s+)?(between)\s+(` + valuePat + `)\s+(?:and|to|-)\s+(` + valuePat + `)`)
	aboveRe    = regexp.MustCompile(`(?i)` + wordsPat + `\s+(?:is\s+|are\s+|trading\s+)?(below|above|under|over|exceeding|beyond|within)\s+(` + valuePat + `)`)
	stringOpRe = regexp.MustCompile(`(?i)\b(industry|exchange|company\s+name|name)\s+(is|=|contains|like|includes)\s+([a-z][a-z0-9&.\- ]*?)(?:$|[,;]|\s+(?:and|with|where|sorted|sort|top|limit|excluding|exclude)\b)`)

	// (b) return over a period
	cagrRe = regexp.MustCompile(`(?i)(?:(\d+(?:\.\d+)?)\s*%\s*\+?\s*(?:annual(?:ised|ized)?\s+)?(?:returns?|cagr|gains?|growth)|(?:returns?|cagr|gains?)\s+(?:of\s+|above\s+|over\s+|more\s+than\s+|at\s+least\s+|greater\s+than\s+|>\s*=?\s*)?(\d+(?:\.\d+)?)\s*%)\s+(?:in|over|during|for)\s+(?:the\s+)?(?:last\s+|past\s+)?(\d+\s*(?:years?|yrs?|y|months?|m))\b`)

	// (c) sector include
	sectorInRe     = regexp.MustCompile(`(?i)\b(?:in|from|of|within)\s+(?:the\s+)?([a-z&][a-z&\s]*?)\s+(?:sectors?|industry|industries|space|segment)\b`)
	sectorStocksRe = regexp.MustCompile(`(?i)\b([a-z&]+(?:\s+[a-z&]+)?)\s+(?:stocks|companies|shares|names|counters|cos|sector)\b`)

	// (d) exclusions
	excludeRe = regexp.MustCompile(`(?i)\b(?:exclude|excluding|except|without|not\s+in|not|other\s+than|but\s+not|remove|drop|ignore|minus|ex)\s+(?:the\s+|any\s+|all\s+)?(.+?)(?:\s+(?:with|where|having|sorted|sort|order|ordered|top|limit|that|which|whose)\b|[.;!?]|$)`)
	listSplitRe = regexp.MustCompile(`(?i)\s*,\s*|\s+and\s+|\s+or\s+|\s*/\s*`)

	// (e) volume trend
	volumeDownRe = regexp.MustCompile(`(?i)\b(?:descending|declining|falling|decreasing|dropping|shrinking|reducing)\s+volumes?\b|\bvolumes?\s+(?:is\s+|are\s+)?(?:descending|declining|falling|decreasing|dropping|drying\s+up|shrinking)\b`)
	volumeUpRe   = regexp.MustCompile(`(?i)\b(?:ascending|rising|increasing|surging|growing|spiking|expanding)\s+volumes?\b|\bvolumes?\s+(?:is\s+|are\s+)?(?:ascending|rising|increasing|surging|growing|spiking|expanding)\b`)

	// (f) limit and offset
	limitRe       = regexp.MustCompile(`(?i)\b(?:top|first|limit(?:\s+to)?|best|show(?:\s+me)?|only)\s+(\d{1,4})\b`)
	countStocksRe = regexp.MustCompile(`(?i)\b(\d{1,4})\s+(?:stocks|companies|names|shares)\b`)
	offsetRe      = regexp.MustCompile(`(?i)\b(?:offset|skip)\s+(\d{1,5})\b`)

	// (g) explicit sort
	sortByRe = regexp.MustCompile(`(?i)\b(?:sort(?:ed)?|order(?:ed)?|rank(?:ed)?)\s+by\s+([a-z0-9/& ]+?)(?:\s+(asc|ascending|desc|descending|increasing|decreasing|low\s+to\s+high|high\s+to\s+low))?(?:$|[,.;]|\s+(?:and|with|where|limit|top|in|from|excluding|exclude)\b)`)

	// bare "by <field>", honoured only next to a top/limit phrase or a superlative
	rankedByRe = regexp.MustCompile(`(?i)\bby\s+([a-z0-9/& ]+?)(?:\s+(asc|ascending|desc|descending|increasing|decreasing|low\s+to\s+high|high\s+to\s+low))?(?:$|[,.;]|\s+(?:and|with|where|limit|top|in|from|excluding|exclude)\b)`)

	tokenRe = regexp.MustCompile(`[A-Za-z][A-Za-z0-9&.\-]*`)
)

// stopwords never name a sector or a symbol on their own.
var stopwords = toSet(`a an the and or not no vs vs. versus compare comparing comparison with without to of in on
for me my i we us you show find list what whats is are was were be how about tell give get please
stock stocks share shares company companies equities names scrips counters between against when
if then than above below under over drops drop falls fall rises rise goes go crosses cross reaches
hits hit alert alerts notify watchlist watch add remove delete from view display all any top best
which who that this these those some good great high low large small mid cap big value quality
cheap expensive undervalued overvalued sector sectors industry by sort sorted order ordered limit
exclude excluding except only just also more less most least do does did can could should would
will at it's its let know ping remind whose where having has have being`)

func toSet(words string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(words) {
		set[w] = true
	}
	return set
}

// words lowercases text and splits it on anything but letters, digits and
// the few symbols that occur inside field names.
func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return false
		case r == '/', r == '&', r == '%', r == '.':
			return false
		}
		return true
	})
}
