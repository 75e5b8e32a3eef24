package screener

import (
	"fmt"
	"regexp"
	"strings"

	"stock-screener/fields"
	"stock-screener/models"
	"stock-screener/query"
)

var helpRe = regexp.MustCompile(`(?i)^\s*(?:\?+|help\b.*|syntax\b.*|how\s+do\s+i\b.*)\s*$`)

// Examples are phrasings the engine understands. They double as the
// suggestions offered for text it does not.
var Examples = []string{
	"stocks with PE < 15 and ROE > 20%",
	"top 10 technology stocks sorted by market cap",
	"+1 exclude energy",
	"compare TCS vs INFY",
	"RELIANCE",
	"add TCS to my watchlist",
	"alert me when INFY price drops below 1500",
	"banking stocks with dividend yield above 1% excluding SBIN",
}

// IsHelp reports whether text asks for help or syntax.
func IsHelp(text string) bool {
	return helpRe.MatchString(text)
}

// HelpText describes the fields, sectors and example phrasings.
func HelpText() string {
	var b strings.Builder
	b.WriteString("Ask in plain English. Combine conditions with \"and\", name sectors to include or exclude, and say \"top N\" or \"sorted by\" to shape the list. Start a message with \"+1\" to refine the previous results.\n\nFields: ")
	var labels []string
	for _, d := range fields.Fields() {
		if d.Type == fields.Number {
			labels = append(labels, d.Label)
		}
	}
	b.WriteString(strings.Join(labels, ", "))
	b.WriteString(".\n\nSectors: ")
	b.WriteString(strings.Join(fields.Sectors(), ", "))
	b.WriteString(".\n\nExamples:\n")
	for _, ex := range Examples {
		fmt.Fprintf(&b, "  %s\n", ex)
	}
	return b.String()
}

func helpResponse() Response {
	return Response{
		Success:        true,
		Type:           query.TypeHelp,
		Data:           []models.Stock{},
		Interpretation: HelpText(),
		Suggestions:    append([]string(nil), Examples...),
	}
}
