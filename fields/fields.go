// Package fields is the static registry of screenable fields and sectors.
// It maps free-text names and aliases to canonical names.
package fields

import (
	"fmt"
	"sort"
	"strings"
)

// Type is the declared value type of a field.
type Type string

const (
	Number  Type = "number"
	String  Type = "string"
	Boolean Type = "boolean"
	Date    Type = "date"
)

// Descriptor describes one canonical field.
type Descriptor struct {
	Name    string   `json:"name"`
	Type    Type     `json:"type"`
	Aliases []string `json:"aliases"`
	Unit    string   `json:"unit,omitempty"`
	Label   string   `json:"label"`
	// LowerIsBetter marks metrics where a smaller value scores higher.
	LowerIsBetter bool `json:"lowerIsBetter,omitempty"`
}

var fieldTable = []Descriptor{
	// identity
	{Name: "symbol", Type: String, Label: "Symbol", Aliases: []string{"ticker", "code", "scrip"}},
	{Name: "name", Type: String, Label: "Name", Aliases: []string{"company", "company name"}},
	{Name: "sector", Type: String, Label: "Sector", Aliases: []string{"sector name"}},
	{Name: "industry", Type: String, Label: "Industry", Aliases: []string{"industry name", "sub sector"}},
	{Name: "exchange", Type: String, Label: "Exchange", Aliases: []string{"listing", "market"}},

	// price and size
	{Name: "price", Type: Number, Label: "Price", Unit: "INR", Aliases: []string{"ltp", "last price", "share price", "cmp", "current price", "stock price"}},
	{Name: "marketCap", Type: Number, Label: "Market Cap", Unit: "INR", Aliases: []string{"market cap", "mcap", "m cap", "market capitalization", "market capitalisation", "size"}},

	// valuation
	{Name: "pe", Type: Number, Label: "P/E", LowerIsBetter: true, Aliases: []string{"p/e", "pe ratio", "p/e ratio", "price to earnings", "price earnings", "p e"}},
	{Name: "pb", Type: Number, Label: "P/B", LowerIsBetter: true, Aliases: []string{"p/b", "pb ratio", "price to book", "price book"}},
	{Name: "ps", Type: Number, Label: "P/S", LowerIsBetter: true, Aliases: []string{"p/s", "price to sales", "price sales"}},
	{Name: "evEbitda", Type: Number, Label: "EV/EBITDA", LowerIsBetter: true, Aliases: []string{"ev/ebitda", "ev to ebitda", "enterprise multiple"}},
	{Name: "peg", Type: Number, Label: "PEG", LowerIsBetter: true, Aliases: []string{"peg ratio"}},
	{Name: "dividendYield", Type: Number, Label: "Dividend Yield", Unit: "%", Aliases: []string{"dividend yield", "dividend", "div yield", "yield"}},
	{Name: "eps", Type: Number, Label: "EPS", Unit: "INR", Aliases: []string{"earnings per share"}},
	{Name: "bookValue", Type: Number, Label: "Book Value", Unit: "INR", Aliases: []string{"book value", "bvps", "book value per share"}},

	// profitability
	{Name: "roe", Type: Number, Label: "ROE", Unit: "%", Aliases: []string{"return on equity"}},
	{Name: "roa", Type: Number, Label: "ROA", Unit: "%", Aliases: []string{"return on assets"}},
	{Name: "roce", Type: Number, Label: "ROCE", Unit: "%", Aliases: []string{"return on capital employed", "return on capital"}},
	{Name: "operatingMargin", Type: Number, Label: "Operating Margin", Unit: "%", Aliases: []string{"operating margin", "opm", "ebit margin"}},
	{Name: "netMargin", Type: Number, Label: "Net Margin", Unit: "%", Aliases: []string{"net margin", "profit margin", "npm", "net profit margin"}},
	{Name: "grossMargin", Type: Number, Label: "Gross Margin", Unit: "%", Aliases: []string{"gross margin"}},

	// leverage and liquidity
	{Name: "debtToEquity", Type: Number, Label: "Debt/Equity", LowerIsBetter: true, Aliases: []string{"debt to equity", "d/e", "de ratio", "debt equity", "leverage", "debt"}},
	{Name: "currentRatio", Type: Number, Label: "Current Ratio", Aliases: []string{"current ratio", "liquidity"}},
	{Name: "interestCoverage", Type: Number, Label: "Interest Coverage", Aliases: []string{"interest coverage", "icr", "interest coverage ratio"}},
	{Name: "freeCashFlow", Type: Number, Label: "Free Cash Flow", Unit: "INR", Aliases: []string{"free cash flow", "fcf"}},
	{Name: "promoterHolding", Type: Number, Label: "Promoter Holding", Unit: "%", Aliases: []string{"promoter holding", "promoter stake", "promoters"}},

	// growth
	{Name: "revenueGrowth", Type: Number, Label: "Revenue Growth", Unit: "%", Aliases: []string{"revenue growth", "sales growth", "top line growth", "topline growth"}},
	{Name: "earningsGrowth", Type: Number, Label: "Earnings Growth", Unit: "%", Aliases: []string{"earnings growth", "profit growth", "eps growth", "bottom line growth"}},

	// trading
	{Name: "beta", Type: Number, Label: "Beta", Aliases: []string{"volatility beta"}},
	{Name: "high52w", Type: Number, Label: "52W High", Unit: "INR", Aliases: []string{"52 week high", "52w high", "year high", "52wk high"}},
	{Name: "low52w", Type: Number, Label: "52W Low", Unit: "INR", Aliases: []string{"52 week low", "52w low", "year low", "52wk low"}},
	{Name: "volume", Type: Number, Label: "Volume", Aliases: []string{"traded volume", "trading volume", "vol"}},
	{Name: "avgVolume", Type: Number, Label: "Avg Volume", Aliases: []string{"average volume", "avg volume", "avg vol"}},
	{Name: "volumeChange5d", Type: Number, Label: "Volume Change 5D", Unit: "%", Aliases: []string{"volume change", "5 day volume change", "volume change 5d", "5d volume change"}},

	// returns
	{Name: "return1d", Type: Number, Label: "1D Return", Unit: "%", Aliases: []string{"1 day return", "daily return", "day change", "change", "today"}},
	{Name: "return1w", Type: Number, Label: "1W Return", Unit: "%", Aliases: []string{"1 week return", "weekly return", "week return"}},
	{Name: "return1m", Type: Number, Label: "1M Return", Unit: "%", Aliases: []string{"1 month return", "monthly return", "month return"}},
	{Name: "return3m", Type: Number, Label: "3M Return", Unit: "%", Aliases: []string{"3 month return", "quarterly return", "3m return"}},
	{Name: "return6m", Type: Number, Label: "6M Return", Unit: "%", Aliases: []string{"6 month return", "half year return", "6m return"}},
	{Name: "return1y", Type: Number, Label: "1Y Return", Unit: "%", Aliases: []string{"1 year return", "annual return", "yearly return", "one year return", "1y return"}},
	{Name: "cagr3y", Type: Number, Label: "3Y CAGR", Unit: "%", Aliases: []string{"3 year cagr", "cagr", "3y cagr", "three year cagr"}},
	{Name: "cagr5y", Type: Number, Label: "5Y CAGR", Unit: "%", Aliases: []string{"5 year cagr", "5y cagr", "five year cagr"}},

	// technicals
	{Name: "rsi", Type: Number, Label: "RSI", Aliases: []string{"rsi 14", "relative strength index", "rsi14"}},
	{Name: "sma50", Type: Number, Label: "50 DMA", Unit: "INR", Aliases: []string{"50 dma", "50 day moving average", "sma 50", "50 day average"}},
	{Name: "sma200", Type: Number, Label: "200 DMA", Unit: "INR", Aliases: []string{"200 dma", "200 day moving average", "sma 200", "200 day average"}},
}

var (
	byName       map[string]*Descriptor
	byAlias      map[string]string
	byNormalized map[string]string
)

func init() {
	if err := buildFieldIndex(); err != nil {
		panic(err)
	}
	if err := buildSectorIndex(); err != nil {
		panic(err)
	}
}

// buildFieldIndex fills the lookup maps and rejects alias collisions
// between two different canonical fields.
func buildFieldIndex() error {
	byName = make(map[string]*Descriptor, len(fieldTable))
	byAlias = make(map[string]string)
	byNormalized = make(map[string]string)

	claim := func(key, field string) error {
		if prev, ok := byNormalized[key]; ok && prev != field {
			return fmt.Errorf("fields: %q normalizes to %q, already claimed by %s", field, key, prev)
		}
		byNormalized[key] = field
		return nil
	}

	for i := range fieldTable {
		d := &fieldTable[i]
		if _, dup := byName[d.Name]; dup {
			return fmt.Errorf("fields: duplicate canonical name %q", d.Name)
		}
		byName[d.Name] = d
		if err := claim(Normalize(d.Name), d.Name); err != nil {
			return err
		}
	}
	for i := range fieldTable {
		d := &fieldTable[i]
		for _, a := range d.Aliases {
			if prev, ok := byAlias[a]; ok && prev != d.Name {
				return fmt.Errorf("fields: alias %q shared by %s and %s", a, prev, d.Name)
			}
			byAlias[a] = d.Name
			if err := claim(Normalize(a), d.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// Normalize lowercases s and strips spaces, underscores and hyphens.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch r {
		case ' ', '\t', '_', '-':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ResolveField maps free text to a canonical field name. Fields only match
// exactly or exactly-after-normalization, never by substring.
func ResolveField(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	if _, ok := byName[text]; ok {
		return text, true
	}
	if name, ok := byAlias[text]; ok {
		return name, true
	}
	// Normalized lookups cover both canonical names and aliases; canonical
	// names were claimed first so they win ties.
	if name, ok := byNormalized[Normalize(text)]; ok {
		return name, true
	}
	return "", false
}

// Lookup returns the descriptor of a canonical field.
func Lookup(name string) (Descriptor, bool) {
	d, ok := byName[name]
	if !ok {
		return Descriptor{}, false
	}
	return *d, true
}

// Label returns the display label of a field, or the name itself.
func Label(name string) string {
	if d, ok := byName[name]; ok {
		return d.Label
	}
	return name
}

// IsNumeric reports whether the field is a registered number field.
func IsNumeric(name string) bool {
	d, ok := byName[name]
	return ok && d.Type == Number
}

// Fields returns all descriptors sorted by canonical name.
func Fields() []Descriptor {
	out := make([]Descriptor, len(fieldTable))
	copy(out, fieldTable)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
