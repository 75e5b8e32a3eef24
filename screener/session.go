package screener

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"stock-screener/conversation"
	"stock-screener/executor"
	"stock-screener/fields"
	"stock-screener/intent"
	"stock-screener/models"
	"stock-screener/pipeline"
	"stock-screener/query"
	"stock-screener/translator"
)

// Session is one conversation. It is not safe for concurrent use.
type Session struct {
	engine     *Engine
	translator *translator.Translator
	context    *conversation.Context
}

// Context exposes the conversation state.
func (s *Session) Context() *conversation.Context {
	return s.context
}

// Reset forgets queries and results. The watchlist is kept.
func (s *Session) Reset() {
	s.context.Reset()
}

// Query answers one utterance.
func (s *Session) Query(text string) Response {
	start := time.Now()
	var resp Response
	if IsHelp(text) {
		resp = helpResponse()
	} else {
		resp = s.answer(text)
	}
	resp.ExecutionTime = float64(time.Since(start).Microseconds()) / 1000
	if resp.Data == nil {
		resp.Data = []models.Stock{}
	}

	s.engine.logger.Debug("query answered",
		zap.String("type", string(resp.Type)),
		zap.Bool("refinement", resp.Refinement),
		zap.Bool("success", resp.Success),
		zap.Int("total", resp.Total),
		zap.Float64("ms", resp.ExecutionTime))
	return resp
}

func (s *Session) answer(text string) Response {
	parsed := s.translator.Translate(text, s.lastScreener())
	analysis := intent.Analyze(text)

	var resp Response
	switch parsed.Type {
	case query.TypeScreener:
		resp = s.screen(parsed, analysis)
	case query.TypeSingleStock:
		resp = s.single(parsed)
	case query.TypeComparison:
		resp = s.compare(parsed, analysis)
	case query.TypeWatchlist:
		resp = s.watchlist(parsed)
	case query.TypeAlert:
		resp = s.alert(parsed)
	default:
		resp = Response{
			Success:        true,
			Type:           query.TypeUnknown,
			Interpretation: "That request was not understood. Try one of the suggested phrasings.",
			Suggestions:    append([]string(nil), Examples...),
		}
	}
	resp.Refinement = parsed.Refinement
	resp.Intent = &analysis
	return resp
}

// lastScreener returns the most recent screener query, which is what a
// refinement builds on.
func (s *Session) lastScreener() *query.ParsedQuery {
	history := s.context.History()
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Type == query.TypeScreener {
			return &history[i]
		}
	}
	return nil
}

func (s *Session) screen(parsed query.ParsedQuery, analysis intent.Analysis) Response {
	out := s.context.ProcessQuery(parsed, s.engine.universe)
	resp := Response{
		Success:        out.Success,
		Type:           query.TypeScreener,
		Data:           out.Data,
		Total:          out.Total,
		Interpretation: out.Interpretation,
		Columns:        screenerColumns(parsed.Screener, analysis.Metrics),
	}
	if !out.Success {
		resp.Error = out.Message
		s.engine.logger.Warn("screener query failed", zap.String("raw", parsed.Raw), zap.Error(out.Err))
		return resp
	}
	if len(out.Data) > 0 && (analysis.Scores() || analysis.Intent == intent.SectorAnalysis) {
		resp.Analysis = s.analyze(analysis.Builder(), out.Data)
	}
	return resp
}

func (s *Session) single(parsed query.ParsedQuery) Response {
	s.context.Record(parsed)
	symbol := strings.TrimSpace(parsed.Raw)
	if len(parsed.Symbols) > 0 {
		symbol = parsed.Symbols[0]
	}

	stock, ok := s.engine.Stock(symbol)
	if !ok {
		resp := failure(query.TypeSingleStock, fmt.Sprintf("Symbol %s was not found.", symbol))
		resp.Suggestions = s.engine.Suggest(symbol)
		if len(resp.Suggestions) > 0 {
			resp.Interpretation += " Did you mean " + strings.Join(resp.Suggestions, ", ") + "?"
		}
		return resp
	}
	return Response{
		Success:        true,
		Type:           query.TypeSingleStock,
		Data:           []models.Stock{stock},
		Total:          1,
		Interpretation: fmt.Sprintf("Showing %s (%s), %s.", stock.Symbol, stock.Name, stock.Sector),
		Columns:        stockColumns(stock),
	}
}

func (s *Session) compare(parsed query.ParsedQuery, analysis intent.Analysis) Response {
	s.context.Record(parsed)
	if len(parsed.Symbols) == 0 {
		resp := failure(query.TypeComparison, "Name the symbols to compare, for example \"compare TCS vs INFY\".")
		resp.Suggestions = []string{"compare TCS vs INFY"}
		return resp
	}

	found, missing := s.lookup(parsed.Symbols)
	if len(found) == 0 {
		resp := failure(query.TypeComparison, "None of "+strings.Join(missing, ", ")+" were found.")
		resp.Suggestions = s.suggestAll(missing)
		return resp
	}

	factors := intent.FactorsFor(analysis.Metrics)
	b := pipeline.NewBuilder().
		Score(factors, "score").
		Rank("score", query.Desc, "rank")

	symbols := make([]string, len(found))
	for i, st := range found {
		symbols[i] = st.Symbol
	}
	labels := make([]string, len(factors))
	for i, f := range factors {
		labels[i] = fields.Label(f.Field)
	}
	msg := fmt.Sprintf("Comparing %s on %s.", strings.Join(symbols, ", "), strings.Join(labels, ", "))
	resp := Response{
		Success:        true,
		Type:           query.TypeComparison,
		Data:           found,
		Total:          len(found),
		Interpretation: msg,
		Columns:        comparisonColumns(factors),
		Analysis:       s.analyze(b, found),
	}
	if len(missing) > 0 {
		resp.Interpretation += " Not found: " + strings.Join(missing, ", ") + "."
		resp.Suggestions = s.suggestAll(missing)
	}
	return resp
}

func (s *Session) watchlist(parsed query.ParsedQuery) Response {
	s.context.Record(parsed)
	req := parsed.Watchlist
	if req == nil {
		req = &query.WatchlistRequest{Action: query.WatchlistShow}
	}

	resp := Response{Success: true, Type: query.TypeWatchlist}
	switch req.Action {
	case query.WatchlistAdd, query.WatchlistRemove:
		if len(req.Symbols) == 0 {
			return failure(query.TypeWatchlist, "Name a symbol, for example \"add TCS to my watchlist\".")
		}
		found, missing := s.lookup(req.Symbols)
		symbols := make([]string, len(found))
		for i, st := range found {
			symbols[i] = st.Symbol
		}
		var changed []string
		verb := "Added"
		if req.Action == query.WatchlistAdd {
			changed = s.context.Watch(symbols...)
		} else {
			verb = "Removed"
			changed = s.context.Unwatch(symbols...)
		}
		if len(changed) > 0 {
			resp.Interpretation = fmt.Sprintf("%s %s.", verb, strings.Join(changed, ", "))
		} else {
			resp.Interpretation = "Watchlist unchanged."
		}
		if len(missing) > 0 {
			resp.Interpretation += " Not found: " + strings.Join(missing, ", ") + "."
			resp.Suggestions = s.suggestAll(missing)
		}
	}

	watched, _ := s.lookup(s.context.Watchlist())
	resp.Data = watched
	resp.Total = len(watched)
	if req.Action == query.WatchlistShow || req.Action == "" {
		if len(watched) == 0 {
			resp.Interpretation = "Your watchlist is empty."
		} else {
			resp.Interpretation = fmt.Sprintf("Your watchlist has %d %s.", len(watched), plural(len(watched), "stock", "stocks"))
		}
	}
	resp.Columns = []string{"symbol", "name", "sector", "price", "return1d"}
	return resp
}

// alert checks the condition once against the current universe. Nothing is
// scheduled.
func (s *Session) alert(parsed query.ParsedQuery) Response {
	s.context.Record(parsed)
	req := parsed.Alert
	if req == nil || len(req.Conditions) == 0 {
		resp := failure(query.TypeAlert, "The alert condition was not understood.")
		resp.Suggestions = []string{"alert me when INFY price drops below 1500"}
		return resp
	}

	q := &query.ScreenerQuery{Filters: req.Conditions}
	if len(req.Symbols) > 0 {
		q.Include = &query.Selection{Symbols: req.Symbols}
	}
	res := executor.Execute(q, s.engine.universe)
	if !res.Success {
		return failure(query.TypeAlert, res.Message)
	}

	conds := make([]string, len(req.Conditions))
	for i, c := range req.Conditions {
		conds[i] = c.String()
	}
	subject := "any stock"
	if len(req.Symbols) > 0 {
		subject = strings.Join(req.Symbols, ", ")
	}
	return Response{
		Success: true,
		Type:    query.TypeAlert,
		Data:    res.Data,
		Total:   res.Total,
		Interpretation: fmt.Sprintf("Alert for %s when %s: currently met by %d %s. Alerts are checked once and not scheduled.",
			subject, strings.Join(conds, " and "), res.Total, plural(res.Total, "stock", "stocks")),
		Columns: screenerColumns(q, nil),
	}
}

func (s *Session) analyze(b *pipeline.Builder, stocks []models.Stock) *pipeline.Result {
	res, err := b.Execute(pipeline.FromStocks(stocks))
	if err != nil {
		s.engine.logger.Warn("analysis pipeline failed", zap.Strings("steps", b.Steps()), zap.Error(err))
		return nil
	}
	return &res
}

// lookup resolves symbols against the universe, keeping their order.
func (s *Session) lookup(symbols []string) (found []models.Stock, missing []string) {
	for _, sym := range symbols {
		if st, ok := s.engine.Stock(sym); ok {
			found = append(found, st)
		} else {
			missing = append(missing, sym)
		}
	}
	return found, missing
}

func (s *Session) suggestAll(symbols []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, sym := range symbols {
		for _, sug := range s.engine.Suggest(sym) {
			if !seen[sug] && len(out) < s.engine.suggestions {
				seen[sug] = true
				out = append(out, sug)
			}
		}
	}
	return out
}

func screenerColumns(q *query.ScreenerQuery, metrics []string) []string {
	var extra []string
	if q != nil {
		for _, f := range q.Filters {
			extra = append(extra, f.Field)
		}
		if q.Sort != nil {
			extra = append(extra, q.Sort.Field)
		}
	}
	extra = append(extra, metrics...)
	return columns(append(extra, "price", "marketCap", "pe", "roe")...)
}

func comparisonColumns(factors []pipeline.Factor) []string {
	var extra []string
	for _, f := range factors {
		extra = append(extra, f.Field)
	}
	return columns(append(extra, "price", "marketCap")...)
}

// columns prefixes the identity columns and drops repeats.
func columns(extra ...string) []string {
	cols := []string{"symbol", "name", "sector"}
	seen := map[string]bool{"symbol": true, "name": true, "sector": true}
	for _, c := range extra {
		if !seen[c] {
			seen[c] = true
			cols = append(cols, c)
		}
	}
	return cols
}

func stockColumns(s models.Stock) []string {
	cols := []string{"symbol", "name", "exchange", "sector", "industry"}
	for _, d := range fields.Fields() {
		if _, ok := s.Number(d.Name); ok {
			cols = append(cols, d.Name)
		}
	}
	return cols
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
