// Package conversation holds the state of one conversation: the last query,
// the rows it produced, a bounded history and a watchlist. A Context is not
// safe for concurrent use; give every conversation its own.
package conversation

import (
	"fmt"
	"strings"

	"stock-screener/executor"
	"stock-screener/fields"
	"stock-screener/models"
	"stock-screener/query"
)

// DefaultHistorySize bounds History when no size is configured.
const DefaultHistorySize = 50

// Context is the state of one conversation.
type Context struct {
	lastQuery   *query.ParsedQuery
	lastResults []models.Stock
	history     []query.ParsedQuery
	historySize int
	watchlist   []string
}

// Option configures a Context.
type Option func(*Context)

// WithHistorySize bounds the history to n entries, oldest dropped first.
func WithHistorySize(n int) Option {
	return func(c *Context) {
		if n > 0 {
			c.historySize = n
		}
	}
}

// New creates an empty conversation.
func New(opts ...Option) *Context {
	c := &Context{historySize: DefaultHistorySize}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Outcome is the result of ProcessQuery.
type Outcome struct {
	executor.Result
	Interpretation string `json:"interpretation"`
	// BaseCount is the size of the row set the query ran against.
	BaseCount int `json:"baseCount"`
}

// ProcessQuery executes a screener query. A refinement runs against the
// previous results when there are any, otherwise against universe. The
// query, its results and the history entry are recorded even when the
// execution fails.
func (c *Context) ProcessQuery(parsed query.ParsedQuery, universe []models.Stock) Outcome {
	base := universe
	if parsed.Refinement && len(c.lastResults) > 0 {
		base = c.lastResults
	}

	var res executor.Result
	if parsed.Screener == nil {
		err := fmt.Errorf("%s query has no screener payload", parsed.Type)
		res = executor.Result{Success: false, Message: err.Error(), Err: err}
	} else {
		res = executor.Execute(parsed.Screener, base)
	}

	c.lastResults = append([]models.Stock(nil), res.Data...)
	c.remember(parsed)

	return Outcome{
		Result:         res,
		Interpretation: Interpret(parsed, res),
		BaseCount:      len(base),
	}
}

// Record notes a query that was answered without execution so that it
// shows in the history and becomes the base for the next refinement.
func (c *Context) Record(parsed query.ParsedQuery) {
	c.remember(parsed)
}

func (c *Context) remember(parsed query.ParsedQuery) {
	p := parsed
	if p.Screener != nil {
		p.Screener = p.Screener.Clone()
	}
	c.lastQuery = &p
	c.history = append(c.history, p)
	if over := len(c.history) - c.historySize; over > 0 {
		c.history = append([]query.ParsedQuery(nil), c.history[over:]...)
	}
}

// LastQuery returns the most recent query, or nil.
func (c *Context) LastQuery() *query.ParsedQuery {
	return c.lastQuery
}

// LastResults returns a copy of the most recent screener results.
func (c *Context) LastResults() []models.Stock {
	return append([]models.Stock(nil), c.lastResults...)
}

// History returns a copy of the recorded queries, oldest first.
func (c *Context) History() []query.ParsedQuery {
	return append([]query.ParsedQuery(nil), c.history...)
}

// Reset forgets the queries and results. The watchlist is kept.
func (c *Context) Reset() {
	c.lastQuery = nil
	c.lastResults = nil
	c.history = nil
}

// Watchlist returns the watched symbols in insertion order.
func (c *Context) Watchlist() []string {
	return append([]string(nil), c.watchlist...)
}

// Watch adds symbols and returns the ones that were not already watched.
func (c *Context) Watch(symbols ...string) []string {
	var added []string
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || c.watching(s) {
			continue
		}
		c.watchlist = append(c.watchlist, s)
		added = append(added, s)
	}
	return added
}

// Unwatch removes symbols and returns the ones that were watched.
func (c *Context) Unwatch(symbols ...string) []string {
	var removed []string
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		for i, w := range c.watchlist {
			if w == s {
				c.watchlist = append(c.watchlist[:i], c.watchlist[i+1:]...)
				removed = append(removed, s)
				break
			}
		}
	}
	return removed
}

func (c *Context) watching(symbol string) bool {
	for _, w := range c.watchlist {
		if w == symbol {
			return true
		}
	}
	return false
}

// Interpret describes what a screener query did, in a fixed order: the
// refinement marker, filters, included sectors, excluded sectors and
// symbols, sort, and finally the result count.
func Interpret(parsed query.ParsedQuery, res executor.Result) string {
	var b strings.Builder
	if parsed.Refinement {
		b.WriteString("Refining previous results: ")
	}

	q := parsed.Screener
	if q == nil {
		q = &query.ScreenerQuery{}
	}

	var clauses []string
	if len(q.Filters) > 0 {
		descs := make([]string, len(q.Filters))
		for i, f := range q.Filters {
			descs[i] = f.String()
			if !f.Operator.Known() {
				descs[i] += " (ignored)"
			}
		}
		clauses = append(clauses, "stocks where "+strings.Join(descs, " and "))
	} else {
		clauses = append(clauses, "all stocks")
	}
	if q.Include != nil && len(q.Include.Sectors) > 0 {
		clauses = append(clauses, "in "+strings.Join(q.Include.Sectors, ", "))
	}
	if q.Include != nil && len(q.Include.Symbols) > 0 {
		clauses = append(clauses, "among "+strings.Join(q.Include.Symbols, ", "))
	}
	if q.Exclude != nil && len(q.Exclude.Sectors) > 0 {
		clauses = append(clauses, "excluding "+strings.Join(q.Exclude.Sectors, ", "))
	}
	if q.Exclude != nil && len(q.Exclude.Symbols) > 0 {
		clauses = append(clauses, "excluding "+strings.Join(q.Exclude.Symbols, ", "))
	}
	if q.Sort != nil {
		dir := "highest first"
		if q.Sort.Order == query.Asc {
			dir = "lowest first"
		}
		clauses = append(clauses, fmt.Sprintf("sorted by %s (%s)", fields.Label(q.Sort.Field), dir))
	}
	b.WriteString(capitalize(strings.Join(clauses, ", ")))
	b.WriteString(". ")

	switch {
	case !res.Success:
		b.WriteString("The query could not be executed")
		if res.Message != "" {
			b.WriteString(": " + res.Message)
		}
		b.WriteString(".")
	case res.Total == len(res.Data):
		fmt.Fprintf(&b, "Found %d %s.", res.Total, plural(res.Total, "match", "matches"))
	default:
		fmt.Fprintf(&b, "Found %d %s, showing %d.", res.Total, plural(res.Total, "match", "matches"), len(res.Data))
	}
	if len(q.Dropped) > 0 {
		fmt.Fprintf(&b, " Not understood: %s.", strings.Join(q.Dropped, "; "))
	}
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
