package executor

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"stock-screener/models"
	"stock-screener/query"
)

// ============================================================================
// EXECUTOR: applies a ScreenerQuery to a universe
// ============================================================================
// Fixed order, not configurable:
//   1. per-row filter evaluation
//   2. sector include / exclude (substring, case-insensitive, both ways)
//   3. symbol include / exclude (exact, case-insensitive)
//   4. sort (stable, missing values last)
//   5. offset + limit
//
// Total is counted after step 3. The universe is never modified, and no
// failure escapes Execute: it is reported in Result instead.
// ============================================================================

// ErrMalformedFilter marks a filter that cannot be evaluated.
var ErrMalformedFilter = errors.New("malformed filter")

// Result is the outcome of one execution.
type Result struct {
	Success       bool           `json:"success"`
	Data          []models.Stock `json:"data"`
	Total         int            `json:"total"`
	ExecutionTime float64        `json:"executionTime"` // milliseconds
	Message       string         `json:"message,omitempty"`
	// Ignored lists filters whose operator is unknown. They pass every row.
	Ignored []query.Filter `json:"ignored,omitempty"`
	Err     error          `json:"-"`
}

// Execute runs q over universe.
func Execute(q *query.ScreenerQuery, universe []models.Stock) (res Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = Result{Success: false, Err: fmt.Errorf("execution failed: %v", r)}
			res.Message = res.Err.Error()
		}
		res.ExecutionTime = float64(time.Since(start).Microseconds()) / 1000
	}()

	if q == nil {
		q = &query.ScreenerQuery{}
	}
	for _, f := range q.Filters {
		if f.Malformed() {
			err := fmt.Errorf("%w: %q %s %v", ErrMalformedFilter, f.Field, f.Operator, f.Value)
			return Result{Success: false, Message: err.Error(), Err: err}
		}
		if !f.Operator.Known() {
			res.Ignored = append(res.Ignored, f)
		}
	}

	matched := make([]models.Stock, 0, len(universe))
	for _, s := range universe {
		if matchesFilters(s, q.Filters) && inSelection(s, q.Include, q.Exclude) {
			matched = append(matched, s)
		}
	}

	res.Success = true
	res.Total = len(matched)
	if q.Sort != nil && q.Sort.Field != "" {
		SortStocks(matched, *q.Sort)
	}
	res.Data = page(matched, q.Limit, q.Offset)
	return res
}

func matchesFilters(s models.Stock, filters []query.Filter) bool {
	for _, f := range filters {
		v, ok := s.Value(f.Field)
		if !f.Match(v, ok) {
			return false
		}
	}
	return true
}

func inSelection(s models.Stock, include, exclude *query.Selection) bool {
	if include != nil {
		if len(include.Sectors) > 0 && !inAnySector(s, include.Sectors) {
			return false
		}
		if len(include.Symbols) > 0 && !hasSymbol(include.Symbols, s.Symbol) {
			return false
		}
	}
	if exclude != nil {
		if inAnySector(s, exclude.Sectors) || hasSymbol(exclude.Symbols, s.Symbol) {
			return false
		}
	}
	return true
}

func inAnySector(s models.Stock, sectors []string) bool {
	for _, sector := range sectors {
		if s.InSector(sector) {
			return true
		}
	}
	return false
}

func hasSymbol(symbols []string, symbol string) bool {
	for _, sym := range symbols {
		if strings.EqualFold(strings.TrimSpace(sym), symbol) {
			return true
		}
	}
	return false
}

// SortStocks stable-sorts stocks in place by one field. Stocks without a
// value for the field go last in both directions.
func SortStocks(stocks []models.Stock, by query.Sort) {
	sort.SliceStable(stocks, func(i, j int) bool {
		a, aok := stocks[i].Value(by.Field)
		b, bok := stocks[j].Value(by.Field)
		switch {
		case !aok:
			return false
		case !bok:
			return true
		}
		c := compareValues(a, b)
		if by.Order == query.Desc {
			return c > 0
		}
		return c < 0
	})
}

func compareValues(a, b any) int {
	af, aNum := a.(float64)
	bf, bNum := b.(float64)
	if aNum && bNum {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	return strings.Compare(strings.ToLower(fmt.Sprint(a)), strings.ToLower(fmt.Sprint(b)))
}

func page(stocks []models.Stock, limit, offset int) []models.Stock {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(stocks) {
		return []models.Stock{}
	}
	stocks = stocks[offset:]
	if limit > 0 && limit < len(stocks) {
		stocks = stocks[:limit]
	}
	return stocks
}
